package worker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/omickelsen/Mickelsen-Farms-v2-sub000/internal/platform/logger"
	"github.com/omickelsen/Mickelsen-Farms-v2-sub000/internal/services"
)

type fakeReconcileService struct {
	mu     sync.Mutex
	calls  int
	grace  time.Duration
	err    error
	panics bool
}

func (f *fakeReconcileService) Sweep(ctx context.Context, grace time.Duration) (services.ReconcileReport, error) {
	f.mu.Lock()
	f.calls++
	f.grace = grace
	panics := f.panics
	f.mu.Unlock()
	if panics {
		panic("boom")
	}
	return services.ReconcileReport{Scanned: 1, Orphaned: 1}, f.err
}

func (f *fakeReconcileService) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func runFor(t *testing.T, r *Reconciler, d time.Duration) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), d)
	defer cancel()
	done := make(chan struct{})
	go func() {
		r.Run(ctx)
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(d + 2*time.Second):
		t.Fatalf("reconciler did not stop after context cancel")
	}
}

func TestReconcilerSweepsOnStartAndTick(t *testing.T) {
	log, err := logger.New("test")
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	svc := &fakeReconcileService{}
	r := NewReconciler(log, svc, 20*time.Millisecond, time.Minute)

	runFor(t, r, 110*time.Millisecond)

	if svc.count() < 2 {
		t.Fatalf("sweep calls: want>=2 got=%d", svc.count())
	}
	if svc.grace != time.Minute {
		t.Fatalf("grace: want=%v got=%v", time.Minute, svc.grace)
	}
}

func TestReconcilerSurvivesErrorsAndPanics(t *testing.T) {
	log, err := logger.New("test")
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	svc := &fakeReconcileService{err: errors.New("db down"), panics: true}
	r := NewReconciler(log, svc, 20*time.Millisecond, time.Minute)

	runFor(t, r, 80*time.Millisecond)

	if svc.count() < 2 {
		t.Fatalf("loop should keep ticking after a panic, calls=%d", svc.count())
	}
}

func TestNewReconcilerDefaults(t *testing.T) {
	r := NewReconciler(logger.Nop(), &fakeReconcileService{}, 0, 0)
	if r.interval != defaultInterval || r.grace != defaultGrace {
		t.Fatalf("defaults: interval=%v grace=%v", r.interval, r.grace)
	}
}
