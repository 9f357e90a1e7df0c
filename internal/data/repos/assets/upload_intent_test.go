package assets

import (
	"context"
	"testing"
	"time"

	"github.com/omickelsen/Mickelsen-Farms-v2-sub000/internal/data/repos/testutil"
	types "github.com/omickelsen/Mickelsen-Farms-v2-sub000/internal/domain"
	"github.com/omickelsen/Mickelsen-Farms-v2-sub000/internal/platform/dbctx"
)

func TestUploadIntentRepo(t *testing.T) {
	db := testutil.DB(t)
	repo := NewUploadIntentRepo(db, testutil.Logger(t))
	dbc := dbctx.Of(context.Background())

	now := time.Now().UTC()
	old, err := repo.Create(dbc, &types.UploadIntent{
		Category:  types.UploadCategoryImage,
		Page:      "home",
		ObjectKey: "pages/home/images/old.png",
		PublicURL: "https://x/old.png",
		CreatedAt: now.Add(-time.Hour),
	})
	if err != nil {
		t.Fatalf("Create old: %v", err)
	}
	if _, err := repo.Create(dbc, &types.UploadIntent{
		Category:  types.UploadCategoryImage,
		Page:      "home",
		ObjectKey: "pages/home/images/new.png",
		PublicURL: "https://x/new.png",
	}); err != nil {
		t.Fatalf("Create new: %v", err)
	}

	stale, err := repo.ListOlderThan(dbc, now.Add(-10*time.Minute), 10)
	if err != nil {
		t.Fatalf("ListOlderThan: %v", err)
	}
	if len(stale) != 1 || stale[0].ID != old.ID {
		t.Fatalf("ListOlderThan: unexpected result %+v", stale)
	}

	if err := repo.Delete(dbc, old.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	stale, err = repo.ListOlderThan(dbc, now.Add(-10*time.Minute), 10)
	if err != nil {
		t.Fatalf("ListOlderThan: %v", err)
	}
	if len(stale) != 0 {
		t.Fatalf("expected no stale intents after delete, got %d", len(stale))
	}
}
