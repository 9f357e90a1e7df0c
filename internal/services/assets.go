package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/omickelsen/Mickelsen-Farms-v2-sub000/internal/data/dberr"
	"github.com/omickelsen/Mickelsen-Farms-v2-sub000/internal/data/repos"
	types "github.com/omickelsen/Mickelsen-Farms-v2-sub000/internal/domain"
	"github.com/omickelsen/Mickelsen-Farms-v2-sub000/internal/platform/apierr"
	"github.com/omickelsen/Mickelsen-Farms-v2-sub000/internal/platform/dbctx"
	"github.com/omickelsen/Mickelsen-Farms-v2-sub000/internal/platform/gcp"
	"github.com/omickelsen/Mickelsen-Farms-v2-sub000/internal/platform/logger"
	"github.com/omickelsen/Mickelsen-Farms-v2-sub000/internal/platform/media"
)

// Upload is a fully read multipart file. ContentType is what the client
// declared; stored objects get the type sniffed from Data.
type Upload struct {
	Filename    string
	ContentType string
	Data        []byte
}

type AssetService interface {
	ListImages(ctx context.Context, page string) ([]string, error)
	UploadImage(ctx context.Context, page, section string, file *Upload) (string, error)
	DeleteImage(ctx context.Context, page, url string) error

	ListPdfs(ctx context.Context, page, section string) ([]types.PdfEntry, error)
	UploadPdf(ctx context.Context, page, section string, file *Upload) (*types.PdfEntry, error)
	DeletePdf(ctx context.Context, page, url string) error
}

type assetService struct {
	log        *logger.Logger
	bucket     gcp.BucketService
	images     repos.ImageAssetRepo
	pdfs       repos.PdfAssetRepo
	intents    repos.UploadIntentRepo
	now        func() time.Time
	newShortID func() string
}

func NewAssetService(
	log *logger.Logger,
	bucket gcp.BucketService,
	images repos.ImageAssetRepo,
	pdfs repos.PdfAssetRepo,
	intents repos.UploadIntentRepo,
) AssetService {
	return &assetService{
		log:     log.With("service", "AssetService"),
		bucket:  bucket,
		images:  images,
		pdfs:    pdfs,
		intents: intents,
		now:     time.Now,
		newShortID: func() string {
			return strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
		},
	}
}

func (s *assetService) ListImages(ctx context.Context, page string) ([]string, error) {
	page, err := requirePage(page)
	if err != nil {
		return nil, err
	}
	asset, err := s.images.GetByPage(dbctx.Of(ctx), page)
	if err != nil {
		return nil, dberr.Map("list images", err)
	}
	return asset.Display(), nil
}

func (s *assetService) UploadImage(ctx context.Context, page, section string, file *Upload) (string, error) {
	if err := requireAdmin(ctx); err != nil {
		return "", err
	}
	page, err := requirePage(page)
	if err != nil {
		return "", err
	}
	if file == nil || len(file.Data) == 0 {
		return "", apierr.BadRequest("no image uploaded")
	}
	info, err := media.InspectImage(file.Data)
	if err != nil {
		s.log.Debug("Rejected image upload", "page", page, "declared_type", file.ContentType, "error", err)
		return "", apierr.BadRequest("uploaded file is not a supported image")
	}
	s.warnTypeMismatch(page, file, info.ContentType)

	key := s.objectKey(page, "images", strings.TrimSpace(section), file.Filename)
	url := s.bucket.GetPublicURL(gcp.BucketCategoryImage, key)
	err = s.storeThenCommit(ctx, gcp.BucketCategoryImage, page, key, url, info.ContentType, file.Data, func(dbc dbctx.Context) error {
		_, err := s.images.Mutate(dbc, page, func(a *types.ImageAsset) (bool, error) {
			a.Append(url)
			return true, nil
		})
		return err
	})
	if err != nil {
		return "", err
	}
	s.log.Info("Image uploaded", "page", page, "section", section, "key", key, "width", info.Width, "height", info.Height)
	return url, nil
}

func (s *assetService) DeleteImage(ctx context.Context, page, url string) error {
	if err := requireAdmin(ctx); err != nil {
		return err
	}
	page, err := requirePage(page)
	if err != nil {
		return err
	}
	url = strings.TrimSpace(url)
	if url == "" {
		return apierr.BadRequest("url is required")
	}

	dbc := dbctx.Of(ctx)
	current, err := s.images.GetByPage(dbc, page)
	if err != nil {
		return dberr.Map("delete image", err)
	}
	if current == nil || !current.Contains(url) {
		return apierr.NotFound("image not found on page %q", page)
	}

	s.deleteObjectBestEffort(ctx, gcp.BucketCategoryImage, url)

	found := false
	if _, err := s.images.Mutate(dbc, page, func(a *types.ImageAsset) (bool, error) {
		found = a.Remove(url)
		return found, nil
	}); err != nil {
		return dberr.Map("delete image", err)
	}
	if !found {
		return apierr.NotFound("image not found on page %q", page)
	}
	s.log.Info("Image deleted", "page", page, "url", url)
	return nil
}

func (s *assetService) ListPdfs(ctx context.Context, page, section string) ([]types.PdfEntry, error) {
	page, err := requirePage(page)
	if err != nil {
		return nil, err
	}
	asset, err := s.pdfs.GetByPage(dbctx.Of(ctx), page)
	if err != nil {
		return nil, dberr.Map("list pdfs", err)
	}
	return asset.Entries(section), nil
}

func (s *assetService) UploadPdf(ctx context.Context, page, section string, file *Upload) (*types.PdfEntry, error) {
	if err := requireAdmin(ctx); err != nil {
		return nil, err
	}
	page, err := requirePage(page)
	if err != nil {
		return nil, err
	}
	if file == nil || len(file.Data) == 0 {
		return nil, apierr.BadRequest("no PDF uploaded")
	}
	if err := media.CheckPDF(file.Data); err != nil {
		s.log.Debug("Rejected PDF upload", "page", page, "declared_type", file.ContentType, "error", err)
		return nil, apierr.BadRequest("uploaded file is not a PDF")
	}
	s.warnTypeMismatch(page, file, media.ContentTypePDF)

	section = strings.TrimSpace(section)
	key := s.objectKey(page, "pdfs", section, file.Filename)
	entry := types.PdfEntry{
		URL:          s.bucket.GetPublicURL(gcp.BucketCategoryDocument, key),
		OriginalName: originalName(file.Filename, "document.pdf"),
		Section:      section,
	}
	err = s.storeThenCommit(ctx, gcp.BucketCategoryDocument, page, key, entry.URL, media.ContentTypePDF, file.Data, func(dbc dbctx.Context) error {
		_, err := s.pdfs.Mutate(dbc, page, func(a *types.PdfAsset) (bool, error) {
			return a.Add(entry), nil
		})
		return err
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("PDF uploaded", "page", page, "section", section, "key", key)
	return &entry, nil
}

// DeletePdf succeeds even when the URL is not listed on the page.
func (s *assetService) DeletePdf(ctx context.Context, page, url string) error {
	if err := requireAdmin(ctx); err != nil {
		return err
	}
	page, err := requirePage(page)
	if err != nil {
		return err
	}
	url = strings.TrimSpace(url)
	if url == "" {
		return apierr.BadRequest("url is required")
	}

	dbc := dbctx.Of(ctx)
	current, err := s.pdfs.GetByPage(dbc, page)
	if err != nil {
		return dberr.Map("delete pdf", err)
	}
	if current == nil || !current.References(url) {
		s.log.Debug("PDF not listed, nothing to delete", "page", page, "url", url)
		return nil
	}

	s.deleteObjectBestEffort(ctx, gcp.BucketCategoryDocument, url)

	if _, err := s.pdfs.Mutate(dbc, page, func(a *types.PdfAsset) (bool, error) {
		return a.Remove(url), nil
	}); err != nil {
		return dberr.Map("delete pdf", err)
	}
	s.log.Info("PDF deleted", "page", page, "url", url)
	return nil
}

// storeThenCommit journals an intent, writes the object, then runs commit.
// A failed commit deletes the object again; the intent stays behind only if
// that cleanup fails, for the reconcile sweep to finish.
func (s *assetService) storeThenCommit(
	ctx context.Context,
	category gcp.BucketCategory,
	page, key, url, contentType string,
	data []byte,
	commit func(dbc dbctx.Context) error,
) error {
	dbc := dbctx.Of(ctx)
	intent, err := s.intents.Create(dbc, &types.UploadIntent{
		Category:  string(category),
		Page:      page,
		ObjectKey: key,
		PublicURL: url,
	})
	if err != nil {
		return dberr.Map("record upload intent", err)
	}

	if err := s.bucket.UploadFile(dbc, category, key, contentType, bytes.NewReader(data)); err != nil {
		s.dropIntent(dbc, intent)
		return apierr.Upstream("upload to object storage", err)
	}

	if err := commit(dbc); err != nil {
		s.log.Warn("Metadata commit failed, removing stored object", "page", page, "key", key, "error", err)
		if delErr := s.bucket.DeleteFile(dbctx.Of(context.WithoutCancel(ctx)), category, key); delErr != nil && !errors.Is(delErr, gcp.ErrObjectNotFound) {
			s.log.Error("Compensating delete failed, leaving intent for reconcile", "key", key, "error", delErr)
			return dberr.Map("save asset record", err)
		}
		s.dropIntent(dbc, intent)
		return dberr.Map("save asset record", err)
	}

	s.dropIntent(dbc, intent)
	return nil
}

func (s *assetService) dropIntent(dbc dbctx.Context, intent *types.UploadIntent) {
	if intent == nil {
		return
	}
	if err := s.intents.Delete(dbctx.Of(context.WithoutCancel(dbc.Ctx)), intent.ID); err != nil {
		s.log.Warn("Failed to clear upload intent", "intent_id", intent.ID, "error", err)
	}
}

func (s *assetService) deleteObjectBestEffort(ctx context.Context, category gcp.BucketCategory, url string) {
	key, ok := s.bucket.KeyFromURL(category, url)
	if !ok {
		s.log.Warn("URL is not in our bucket, skipping object delete", "url", url)
		return
	}
	err := s.bucket.DeleteFile(dbctx.Of(ctx), category, key)
	switch {
	case err == nil:
	case errors.Is(err, gcp.ErrObjectNotFound):
		s.log.Debug("Object already gone", "key", key)
	default:
		s.log.Warn("Object delete failed, continuing", "key", key, "error", err)
	}
}

// warnTypeMismatch logs uploads whose declared type disagrees with the bytes.
func (s *assetService) warnTypeMismatch(page string, file *Upload, sniffed string) {
	declared, _, _ := strings.Cut(file.ContentType, ";")
	declared = strings.ToLower(strings.TrimSpace(declared))
	if declared != "" && declared != media.ContentTypeOctetStream && declared != sniffed {
		s.log.Warn("Upload content type differs from its bytes", "page", page, "filename", file.Filename, "declared_type", declared, "stored_type", sniffed)
	}
}

func (s *assetService) objectKey(page, kind, section, filename string) string {
	parts := []string{"pages", media.SanitizeFilename(page), kind}
	if section != "" {
		parts = append(parts, media.SanitizeFilename(section))
	}
	name := fmt.Sprintf("%d-%s-%s", s.now().UTC().UnixMilli(), s.newShortID(), media.SanitizeFilename(filename))
	return path.Join(append(parts, name)...)
}

func requirePage(page string) (string, error) {
	page = strings.TrimSpace(page)
	if page == "" {
		return "", apierr.BadRequest("page is required")
	}
	if len(page) > 100 {
		return "", apierr.BadRequest("page must be at most 100 characters")
	}
	return page, nil
}

func originalName(name, fallback string) string {
	name = strings.TrimSpace(path.Base(strings.ReplaceAll(name, `\`, "/")))
	if name == "" || name == "." || name == "/" {
		return fallback
	}
	return name
}
