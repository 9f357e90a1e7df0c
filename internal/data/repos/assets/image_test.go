package assets

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"gorm.io/gorm"

	"github.com/omickelsen/Mickelsen-Farms-v2-sub000/internal/data/dberr"
	"github.com/omickelsen/Mickelsen-Farms-v2-sub000/internal/data/repos/testutil"
	types "github.com/omickelsen/Mickelsen-Farms-v2-sub000/internal/domain"
	"github.com/omickelsen/Mickelsen-Farms-v2-sub000/internal/platform/dbctx"
)

func appendURL(u string) ImageMutation {
	return func(a *types.ImageAsset) (bool, error) {
		a.Append(u)
		return true, nil
	}
}

func TestImageAssetRepoMutate(t *testing.T) {
	db := testutil.DB(t)
	repo := NewImageAssetRepo(db, testutil.Logger(t))
	dbc := dbctx.Of(context.Background())

	missing, err := repo.GetByPage(dbc, "home")
	if err != nil {
		t.Fatalf("GetByPage (missing): %v", err)
	}
	if missing != nil {
		t.Fatalf("GetByPage (missing): expected nil, got %+v", missing)
	}

	if _, err := repo.Mutate(dbc, "home", appendURL("u1")); err != nil {
		t.Fatalf("Mutate u1: %v", err)
	}
	got, err := repo.Mutate(dbc, "home", appendURL("u2"))
	if err != nil {
		t.Fatalf("Mutate u2: %v", err)
	}
	if got.URL != "u2" || len(got.URLs) != 2 || got.Version != 2 {
		t.Fatalf("unexpected record after appends: %+v", got)
	}

	got, err = repo.Mutate(dbc, "home", func(a *types.ImageAsset) (bool, error) {
		return a.Remove("u2"), nil
	})
	if err != nil {
		t.Fatalf("Mutate remove: %v", err)
	}
	stored, err := repo.GetByPage(dbc, "home")
	if err != nil {
		t.Fatalf("GetByPage: %v", err)
	}
	if stored.URL != "u1" || len(stored.URLs) != 1 || stored.URLs[0] != "u1" {
		t.Fatalf("unexpected stored record: %+v", stored)
	}
	if stored.Version != got.Version {
		t.Fatalf("version: returned=%d stored=%d", got.Version, stored.Version)
	}
}

func TestImageAssetRepoMutateNoChangeDoesNotCreate(t *testing.T) {
	db := testutil.DB(t)
	repo := NewImageAssetRepo(db, testutil.Logger(t))
	dbc := dbctx.Of(context.Background())

	if _, err := repo.Mutate(dbc, "about", func(a *types.ImageAsset) (bool, error) {
		return a.Remove("nope"), nil
	}); err != nil {
		t.Fatalf("Mutate: %v", err)
	}
	var count int64
	if err := db.Model(&types.ImageAsset{}).Where("page = ?", "about").Count(&count).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected no record, got %d", count)
	}
}

// bumpVersion simulates a concurrent writer. It runs on the caller's
// transaction so it neither waits on the mutation's row lock nor on the
// single sqlite connection.
func bumpVersion(t *testing.T, db *gorm.DB, page string) {
	t.Helper()
	if err := db.Model(&types.ImageAsset{}).
		Where("page = ?", page).
		Update("version", gorm.Expr("version + 1")).Error; err != nil {
		t.Fatalf("bump version: %v", err)
	}
}

func TestImageAssetRepoMutateRetriesOnVersionConflict(t *testing.T) {
	db := testutil.DB(t)
	repo := NewImageAssetRepo(db, testutil.Logger(t))
	tx := testutil.Tx(t, db)
	dbc := dbctx.Context{Ctx: context.Background(), Tx: tx}

	if _, err := repo.Mutate(dbc, "events", appendURL("u1")); err != nil {
		t.Fatalf("seed: %v", err)
	}

	calls := 0
	got, err := repo.Mutate(dbc, "events", func(a *types.ImageAsset) (bool, error) {
		calls++
		if calls == 1 {
			bumpVersion(t, tx, "events")
		}
		a.Append("u2")
		return true, nil
	})
	if err != nil {
		t.Fatalf("Mutate: %v", err)
	}
	if calls != 2 {
		t.Fatalf("calls: want=2 got=%d", calls)
	}
	if len(got.URLs) != 2 {
		t.Fatalf("expected one append to land, got %+v", got.URLs)
	}
}

func TestImageAssetRepoMutateGivesUpAfterRepeatedConflicts(t *testing.T) {
	db := testutil.DB(t)
	repo := NewImageAssetRepo(db, testutil.Logger(t))
	tx := testutil.Tx(t, db)
	dbc := dbctx.Context{Ctx: context.Background(), Tx: tx}

	if _, err := repo.Mutate(dbc, "boarding", appendURL("u1")); err != nil {
		t.Fatalf("seed: %v", err)
	}
	calls := 0
	_, err := repo.Mutate(dbc, "boarding", func(a *types.ImageAsset) (bool, error) {
		calls++
		bumpVersion(t, tx, "boarding")
		a.Append("u2")
		return true, nil
	})
	if !errors.Is(err, dberr.ErrVersionConflict) {
		t.Fatalf("expected ErrVersionConflict, got %v", err)
	}
	if calls != dberr.MaxMutateAttempts {
		t.Fatalf("calls: want=%d got=%d", dberr.MaxMutateAttempts, calls)
	}
}

func TestImageAssetRepoConcurrentAppendsAllLand(t *testing.T) {
	db := testutil.DB(t)
	repo := NewImageAssetRepo(db, testutil.Logger(t))
	page := "stampede-" + t.Name()

	const writers = 12
	var wg sync.WaitGroup
	errs := make(chan error, writers)
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := repo.Mutate(dbctx.Of(context.Background()), page, appendURL(fmt.Sprintf("u%d", i)))
			errs <- err
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		if err != nil {
			t.Fatalf("Mutate: %v", err)
		}
	}

	stored, err := repo.GetByPage(dbctx.Of(context.Background()), page)
	if err != nil {
		t.Fatalf("GetByPage: %v", err)
	}
	if stored == nil || len(stored.URLs) != writers {
		t.Fatalf("urls: want=%d got=%+v", writers, stored)
	}
}
