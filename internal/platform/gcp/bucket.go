package gcp

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"strings"
	"time"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"

	"github.com/omickelsen/Mickelsen-Farms-v2-sub000/internal/platform/dbctx"
	"github.com/omickelsen/Mickelsen-Farms-v2-sub000/internal/platform/logger"
)

type BucketCategory string

const (
	BucketCategoryImage    BucketCategory = "image"
	BucketCategoryDocument BucketCategory = "document"
)

const (
	uploadTimeout = 2 * time.Minute
	deleteTimeout = 30 * time.Second

	gcsPublicHost = "https://storage.googleapis.com"
	assetCacheTTL = "public, max-age=86400"
)

// ErrObjectNotFound is returned (wrapped) when a delete targets a missing object.
var ErrObjectNotFound = errors.New("object not found")

// BucketService stores page assets and maps object keys to the public URLs
// saved in asset records and back.
type BucketService interface {
	UploadFile(dbc dbctx.Context, category BucketCategory, key, contentType string, file io.Reader) error
	DeleteFile(dbc dbctx.Context, category BucketCategory, key string) error
	GetPublicURL(category BucketCategory, key string) string
	KeyFromURL(category BucketCategory, rawURL string) (string, bool)
}

type BucketsConfig struct {
	ImageBucket       string
	DocumentBucket    string
	ImageCDNDomain    string
	DocumentCDNDomain string
}

// bucket is one physical bucket and the host its objects are served from.
type bucket struct {
	name      string
	cdnDomain string
}

type bucketService struct {
	log     *logger.Logger
	client  *storage.Client
	buckets map[BucketCategory]bucket

	// emulatorBase is set only in emulator mode; objects are then served
	// through the JSON API media endpoint.
	emulatorBase  string
	publicBaseURL string
}

// NewBucketService connects to GCS (or the emulator). The document bucket
// falls back to the image bucket when unset.
func NewBucketService(log *logger.Logger, storageCfg ObjectStorageConfig, cfg BucketsConfig) (BucketService, error) {
	if err := storageCfg.Validate(); err != nil {
		return nil, fmt.Errorf("object storage config: %w", err)
	}
	images := bucket{name: strings.TrimSpace(cfg.ImageBucket), cdnDomain: strings.TrimSpace(cfg.ImageCDNDomain)}
	if images.name == "" {
		return nil, errors.New("missing env var IMAGE_GCS_BUCKET_NAME")
	}
	docs := bucket{name: strings.TrimSpace(cfg.DocumentBucket), cdnDomain: strings.TrimSpace(cfg.DocumentCDNDomain)}
	if docs.name == "" {
		docs.name = images.name
	}

	client, err := newStorageClient(context.Background(), storageCfg)
	if err != nil {
		return nil, fmt.Errorf("create storage client: %w", err)
	}
	bs := &bucketService{
		log:           log.With("service", "BucketService"),
		client:        client,
		buckets:       map[BucketCategory]bucket{BucketCategoryImage: images, BucketCategoryDocument: docs},
		publicBaseURL: storageCfg.PublicBaseURL,
	}
	if storageCfg.IsEmulator() {
		bs.emulatorBase = storageCfg.PublicBaseURL
		if bs.emulatorBase == "" {
			bs.emulatorBase = storageCfg.EmulatorHost
		}
	}
	bs.log.Info("Object storage ready",
		"mode", storageCfg.Mode,
		"mode_inferred", storageCfg.Inferred,
		"credentials", storageCfg.Credentials.Source(),
		"image_bucket", images.name,
		"document_bucket", docs.name,
	)
	return bs, nil
}

func newStorageClient(ctx context.Context, cfg ObjectStorageConfig) (*storage.Client, error) {
	if cfg.IsEmulator() {
		// The storage client only reads the emulator host from the environment.
		_ = os.Setenv("STORAGE_EMULATOR_HOST", cfg.EmulatorHost)
		return storage.NewClient(ctx, option.WithoutAuthentication())
	}
	return storage.NewClient(ctx, cfg.Credentials.ClientOptions(storage.ScopeReadWrite)...)
}

func (bs *bucketService) bucketFor(category BucketCategory) (bucket, error) {
	b, ok := bs.buckets[category]
	if !ok || b.name == "" {
		return bucket{}, fmt.Errorf("unknown bucket category: %s", category)
	}
	return b, nil
}

func (bs *bucketService) UploadFile(dbc dbctx.Context, category BucketCategory, key, contentType string, file io.Reader) error {
	b, err := bs.bucketFor(category)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(dbc.Ctx, uploadTimeout)
	defer cancel()

	w := bs.client.Bucket(b.name).Object(key).NewWriter(ctx)
	// An empty type lets the storage client sniff it from the first bytes.
	w.ContentType = contentType
	w.CacheControl = assetCacheTTL
	if _, err := io.Copy(w, file); err != nil {
		_ = w.Close()
		return fmt.Errorf("write gs://%s/%s: %w", b.name, key, err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("finalize gs://%s/%s: %w", b.name, key, err)
	}
	return nil
}

func (bs *bucketService) DeleteFile(dbc dbctx.Context, category BucketCategory, key string) error {
	b, err := bs.bucketFor(category)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(dbc.Ctx, deleteTimeout)
	defer cancel()

	err = bs.client.Bucket(b.name).Object(key).Delete(ctx)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, storage.ErrObjectNotExist):
		return fmt.Errorf("delete gs://%s/%s: %w", b.name, key, ErrObjectNotFound)
	default:
		return fmt.Errorf("delete gs://%s/%s: %w", b.name, key, err)
	}
}

// GetPublicURL picks, in order: CDN domain, emulator media endpoint,
// configured public base, storage.googleapis.com.
func (bs *bucketService) GetPublicURL(category BucketCategory, key string) string {
	b, err := bs.bucketFor(category)
	if err != nil {
		return key
	}
	key = strings.TrimLeft(strings.TrimSpace(key), "/")
	switch {
	case b.cdnDomain != "":
		return "https://" + b.cdnDomain + "/" + key
	case bs.emulatorBase != "":
		return bs.emulatorMediaPrefix(b) + url.PathEscape(key) + "?alt=media"
	case bs.publicBaseURL != "":
		return bs.publicBaseURL + "/" + b.name + "/" + key
	default:
		return gcsPublicHost + "/" + b.name + "/" + key
	}
}

// KeyFromURL inverts GetPublicURL. URLs that do not point into the category's
// bucket report false.
func (bs *bucketService) KeyFromURL(category BucketCategory, rawURL string) (string, bool) {
	b, err := bs.bucketFor(category)
	if err != nil {
		return "", false
	}
	raw, _, _ := strings.Cut(strings.TrimSpace(rawURL), "?")
	if raw == "" {
		return "", false
	}
	if bs.emulatorBase != "" {
		if escaped, ok := strings.CutPrefix(raw, bs.emulatorMediaPrefix(b)); ok {
			key, err := url.PathUnescape(escaped)
			return key, err == nil && key != ""
		}
	}
	for _, prefix := range bs.urlPrefixes(b) {
		if key, ok := strings.CutPrefix(raw, prefix); ok {
			return key, key != ""
		}
	}
	return "", false
}

func (bs *bucketService) emulatorMediaPrefix(b bucket) string {
	return strings.TrimRight(bs.emulatorBase, "/") + "/storage/v1/b/" + url.PathEscape(b.name) + "/o/"
}

func (bs *bucketService) urlPrefixes(b bucket) []string {
	prefixes := []string{"gs://" + b.name + "/"}
	if b.cdnDomain != "" {
		prefixes = append(prefixes, "https://"+b.cdnDomain+"/")
	}
	if bs.publicBaseURL != "" {
		prefixes = append(prefixes, bs.publicBaseURL+"/"+b.name+"/")
	}
	return append(prefixes, gcsPublicHost+"/"+b.name+"/")
}
