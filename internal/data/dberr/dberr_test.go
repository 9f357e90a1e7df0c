package dberr

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	"github.com/omickelsen/Mickelsen-Farms-v2-sub000/internal/data/repos/testutil"
	types "github.com/omickelsen/Mickelsen-Farms-v2-sub000/internal/domain"
	"github.com/omickelsen/Mickelsen-Farms-v2-sub000/internal/platform/apierr"
)

func TestIsUniqueViolation(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"pg 23505", fmt.Errorf("insert: %w", &pgconn.PgError{Code: "23505"}), true},
		{"pg other", &pgconn.PgError{Code: "23503"}, false},
		{"gorm translated", gorm.ErrDuplicatedKey, true},
		{"sqlite", errors.New("UNIQUE constraint failed: image_asset.page"), true},
		{"plain", errors.New("boom"), false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := IsUniqueViolation(tc.err); got != tc.want {
				t.Fatalf("IsUniqueViolation: want=%v got=%v", tc.want, got)
			}
		})
	}
}

func TestRetryOnConflictStopsAfterMaxAttempts(t *testing.T) {
	calls := 0
	err := RetryOnConflict(context.Background(), func() error {
		calls++
		return fmt.Errorf("update: %w", ErrVersionConflict)
	})
	if !errors.Is(err, ErrVersionConflict) {
		t.Fatalf("expected ErrVersionConflict, got %v", err)
	}
	if calls != MaxMutateAttempts {
		t.Fatalf("calls: want=%d got=%d", MaxMutateAttempts, calls)
	}
}

func TestRetryOnConflictRecovers(t *testing.T) {
	calls := 0
	err := RetryOnConflict(context.Background(), func() error {
		calls++
		if calls == 1 {
			return ErrVersionConflict
		}
		return nil
	})
	if err != nil || calls != 2 {
		t.Fatalf("expected success on second attempt, calls=%d err=%v", calls, err)
	}
}

func TestMap(t *testing.T) {
	cases := []struct {
		err    error
		status int
	}{
		{ErrVersionConflict, http.StatusConflict},
		{gorm.ErrRecordNotFound, http.StatusNotFound},
		{&pgconn.PgError{Code: "23505"}, http.StatusConflict},
		{apierr.BadRequest("x"), http.StatusBadRequest},
		{errors.New("disk on fire"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		if got := apierr.StatusOf(Map("op", tc.err)); got != tc.status {
			t.Fatalf("Map(%v): want=%d got=%d", tc.err, tc.status, got)
		}
	}
	if Map("op", nil) != nil {
		t.Fatalf("Map(nil) should be nil")
	}
}

func TestRetryOnConflictPassesOtherErrorsThrough(t *testing.T) {
	boom := errors.New("boom")
	calls := 0
	err := RetryOnConflict(context.Background(), func() error {
		calls++
		return boom
	})
	if err != boom || calls != 1 {
		t.Fatalf("want boom after one call, got calls=%d err=%v", calls, err)
	}
}

func TestRetryOnConflictHonorsCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	calls := 0
	err := RetryOnConflict(ctx, func() error {
		calls++
		return nil
	})
	if !errors.Is(err, context.Canceled) || calls != 0 {
		t.Fatalf("want context.Canceled before any call, got calls=%d err=%v", calls, err)
	}
}

func TestForUpdateMatchesDialect(t *testing.T) {
	db := testutil.DB(t)
	query := db.ToSQL(func(tx *gorm.DB) *gorm.DB {
		var rec types.ImageAsset
		return ForUpdate(tx).Where("page = ?", "home").Take(&rec)
	})
	locked := strings.Contains(query, "FOR UPDATE")
	if locked != SupportsRowLocks(db) {
		t.Fatalf("dialect=%s locked=%v query=%q", db.Dialector.Name(), locked, query)
	}
}
