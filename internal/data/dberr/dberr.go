package dberr

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/omickelsen/Mickelsen-Farms-v2-sub000/internal/platform/apierr"
)

// MaxMutateAttempts bounds the read-modify-write loop of versioned records.
const MaxMutateAttempts = 3

// ErrVersionConflict means a versioned update matched no row because another
// writer got there first.
var ErrVersionConflict = errors.New("version conflict")

// IsUniqueViolation reports a unique-key violation from postgres or sqlite.
func IsUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return strings.TrimSpace(pgErr.Code) == "23505"
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "duplicate key") || strings.Contains(msg, "unique constraint failed")
}

// RetryOnConflict runs fn until it succeeds, fails with something other than
// a version conflict, or MaxMutateAttempts is reached. Attempts are spaced by
// a short jittered backoff so colliding writers do not re-read in lockstep.
func RetryOnConflict(ctx context.Context, fn func() error) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 5 * time.Millisecond
	b.MaxInterval = 50 * time.Millisecond
	_, err := backoff.Retry(ctx, func() (struct{}, error) {
		err := fn()
		if err != nil && !errors.Is(err, ErrVersionConflict) {
			return struct{}{}, backoff.Permanent(err)
		}
		return struct{}{}, err
	}, backoff.WithBackOff(b), backoff.WithMaxTries(MaxMutateAttempts))
	var perm *backoff.PermanentError
	if errors.As(err, &perm) {
		return perm.Unwrap()
	}
	return err
}

// SupportsRowLocks reports whether db can hold SELECT ... FOR UPDATE locks.
// SQLite cannot; it serializes writers at the database level instead.
func SupportsRowLocks(db *gorm.DB) bool {
	return db.Dialector.Name() == "postgres"
}

// InLockingTx runs fn in a transaction (a savepoint when db is already in
// one). Reads made through ForUpdate hold the row until commit, so concurrent
// read-modify-writes of one record queue up instead of conflicting. The
// version check in the update still guards dialects without row locks.
func InLockingTx(db *gorm.DB, fn func(tx *gorm.DB) error) error {
	return db.Transaction(fn)
}

// ForUpdate adds FOR UPDATE to the query where the dialect supports it.
func ForUpdate(db *gorm.DB) *gorm.DB {
	if !SupportsRowLocks(db) {
		return db
	}
	return db.Clauses(clause.Locking{Strength: clause.LockingStrengthUpdate})
}

// Map classifies a store failure into the API error taxonomy.
func Map(op string, err error) error {
	if err == nil {
		return nil
	}
	if _, ok := apierr.As(err); ok {
		return err
	}
	switch {
	case errors.Is(err, ErrVersionConflict):
		return apierr.Conflict("%s: concurrent update, retry", op)
	case errors.Is(err, gorm.ErrRecordNotFound):
		return apierr.NotFound("%s: not found", op)
	case IsUniqueViolation(err):
		return apierr.Conflict("%s: already exists", op)
	}
	return apierr.New(http.StatusInternalServerError, apierr.CodeInternal, fmt.Errorf("%s: %w", op, err))
}
