package worker

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/omickelsen/Mickelsen-Farms-v2-sub000/internal/observability"
	"github.com/omickelsen/Mickelsen-Farms-v2-sub000/internal/platform/logger"
	"github.com/omickelsen/Mickelsen-Farms-v2-sub000/internal/services"
)

const (
	defaultInterval = 15 * time.Minute
	defaultGrace    = 30 * time.Minute
)

// Reconciler periodically settles upload intents so objects written without
// a committed record do not linger in the bucket.
type Reconciler struct {
	log      *logger.Logger
	svc      services.ReconcileService
	interval time.Duration
	grace    time.Duration
}

func NewReconciler(baseLog *logger.Logger, svc services.ReconcileService, interval, grace time.Duration) *Reconciler {
	if interval <= 0 {
		interval = defaultInterval
	}
	if grace <= 0 {
		grace = defaultGrace
	}
	return &Reconciler{
		log:      baseLog.With("component", "UploadReconciler"),
		svc:      svc,
		interval: interval,
		grace:    grace,
	}
}

// Run sweeps once immediately and then on every tick until ctx is done.
func (r *Reconciler) Run(ctx context.Context) {
	r.log.Info("Starting upload reconciler", "interval", r.interval.String(), "grace", r.grace.String())
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	r.sweep(ctx)
	for {
		select {
		case <-ctx.Done():
			r.log.Info("Upload reconciler stopped")
			return
		case <-ticker.C:
			r.sweep(ctx)
		}
	}
}

func (r *Reconciler) sweep(ctx context.Context) {
	defer func() {
		if rec := recover(); rec != nil {
			r.log.Error("Reconcile sweep panic", "panic", rec)
		}
	}()
	ctx, span := observability.Tracer().Start(ctx, "reconcile.sweep")
	defer span.End()

	report, err := r.svc.Sweep(ctx, r.grace)
	span.SetAttributes(
		attribute.Int("reconcile.scanned", report.Scanned),
		attribute.Int("reconcile.orphaned", report.Orphaned),
		attribute.Int("reconcile.failed", report.Failed),
	)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "sweep failed")
		if ctx.Err() == nil {
			r.log.Warn("Reconcile sweep failed", "error", err)
		}
		return
	}
	if report.Scanned > 0 {
		r.log.Debug("Reconcile sweep", "scanned", report.Scanned, "kept", report.Kept, "orphaned", report.Orphaned, "failed", report.Failed)
	}
}
