package services

import (
	"context"
	"errors"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/omickelsen/Mickelsen-Farms-v2-sub000/internal/data/repos"
	types "github.com/omickelsen/Mickelsen-Farms-v2-sub000/internal/domain"
	"github.com/omickelsen/Mickelsen-Farms-v2-sub000/internal/platform/dbctx"
	"github.com/omickelsen/Mickelsen-Farms-v2-sub000/internal/platform/gcp"
	"github.com/omickelsen/Mickelsen-Farms-v2-sub000/internal/platform/logger"
)

const (
	reconcileBatchSize   = 100
	reconcileConcurrency = 4
)

type ReconcileReport struct {
	Scanned  int `json:"scanned"`
	Kept     int `json:"kept"`
	Orphaned int `json:"orphaned"`
	Failed   int `json:"failed"`
}

// ReconcileService settles upload intents left behind by uploads that never
// reached (or never cleaned up after) the metadata commit.
type ReconcileService interface {
	Sweep(ctx context.Context, grace time.Duration) (ReconcileReport, error)
}

type reconcileService struct {
	log       *logger.Logger
	bucket    gcp.BucketService
	images    repos.ImageAssetRepo
	pdfs      repos.PdfAssetRepo
	intents   repos.UploadIntentRepo
	now       func() time.Time
	batchSize int
}

func NewReconcileService(
	log *logger.Logger,
	bucket gcp.BucketService,
	images repos.ImageAssetRepo,
	pdfs repos.PdfAssetRepo,
	intents repos.UploadIntentRepo,
) ReconcileService {
	return &reconcileService{
		log:       log.With("service", "ReconcileService"),
		bucket:    bucket,
		images:    images,
		pdfs:      pdfs,
		intents:   intents,
		now:       time.Now,
		batchSize: reconcileBatchSize,
	}
}

// Sweep drains stale intents batch by batch. It stops on a short batch, on a
// batch with failures (those intents stay for the next tick), or when ctx ends.
func (s *reconcileService) Sweep(ctx context.Context, grace time.Duration) (ReconcileReport, error) {
	var report ReconcileReport
	cutoff := s.now().UTC().Add(-grace)
	for {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		stale, err := s.intents.ListOlderThan(dbctx.Of(ctx), cutoff, s.batchSize)
		if err != nil {
			return report, err
		}
		batch := s.settleBatch(ctx, stale)
		report.Scanned += batch.Scanned
		report.Kept += batch.Kept
		report.Orphaned += batch.Orphaned
		report.Failed += batch.Failed
		if len(stale) < s.batchSize || batch.Failed > 0 {
			break
		}
	}

	if report.Orphaned > 0 || report.Failed > 0 {
		s.log.Info("Reconcile sweep finished", "scanned", report.Scanned, "kept", report.Kept, "orphaned", report.Orphaned, "failed", report.Failed)
	}
	return report, nil
}

func (s *reconcileService) settleBatch(ctx context.Context, stale []*types.UploadIntent) ReconcileReport {
	report := ReconcileReport{Scanned: len(stale)}
	if len(stale) == 0 {
		return report
	}
	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(reconcileConcurrency)
	for _, intent := range stale {
		intent := intent
		g.Go(func() error {
			kept, err := s.settle(gctx, intent)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err != nil:
				report.Failed++
				s.log.Warn("Failed to settle upload intent", "intent_id", intent.ID, "key", intent.ObjectKey, "error", err)
			case kept:
				report.Kept++
			default:
				report.Orphaned++
			}
			return nil
		})
	}
	_ = g.Wait()
	return report
}

// settle drops the intent, deleting its object first when no page record
// references it. It reports whether the object was kept.
func (s *reconcileService) settle(ctx context.Context, intent *types.UploadIntent) (bool, error) {
	dbc := dbctx.Of(ctx)
	referenced, err := s.referenced(dbc, intent)
	if err != nil {
		return false, err
	}
	if !referenced {
		err := s.bucket.DeleteFile(dbc, gcp.BucketCategory(intent.Category), intent.ObjectKey)
		if err != nil && !errors.Is(err, gcp.ErrObjectNotFound) {
			return false, err
		}
	}
	if err := s.intents.Delete(dbc, intent.ID); err != nil {
		return false, err
	}
	return referenced, nil
}

func (s *reconcileService) referenced(dbc dbctx.Context, intent *types.UploadIntent) (bool, error) {
	switch intent.Category {
	case types.UploadCategoryImage:
		asset, err := s.images.GetByPage(dbc, intent.Page)
		if err != nil {
			return false, err
		}
		return asset != nil && asset.Contains(intent.PublicURL), nil
	case types.UploadCategoryDocument:
		asset, err := s.pdfs.GetByPage(dbc, intent.Page)
		if err != nil {
			return false, err
		}
		return asset != nil && asset.References(intent.PublicURL), nil
	default:
		return false, errors.New("unknown upload intent category: " + intent.Category)
	}
}
