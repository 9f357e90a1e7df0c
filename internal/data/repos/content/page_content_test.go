package content

import (
	"context"
	"reflect"
	"testing"

	"github.com/omickelsen/Mickelsen-Farms-v2-sub000/internal/data/repos/testutil"
	"github.com/omickelsen/Mickelsen-Farms-v2-sub000/internal/platform/dbctx"
)

func TestPageContentRepoMergeFields(t *testing.T) {
	db := testutil.DB(t)
	repo := NewPageContentRepo(db, testutil.Logger(t))
	dbc := dbctx.Of(context.Background())

	if pc, err := repo.GetByPage(dbc, "home"); err != nil || pc != nil {
		t.Fatalf("GetByPage (missing): pc=%+v err=%v", pc, err)
	}

	if _, err := repo.MergeFields(dbc, "home", map[string]string{"title": "Welcome", "intro": "Hi"}); err != nil {
		t.Fatalf("MergeFields first: %v", err)
	}
	if _, err := repo.MergeFields(dbc, "home", map[string]string{"intro": "Hello there"}); err != nil {
		t.Fatalf("MergeFields second: %v", err)
	}

	pc, err := repo.GetByPage(dbc, "home")
	if err != nil {
		t.Fatalf("GetByPage: %v", err)
	}
	want := map[string]string{"title": "Welcome", "intro": "Hello there"}
	if got := pc.FieldMap(); !reflect.DeepEqual(got, want) {
		t.Fatalf("fields: want=%v got=%v", want, got)
	}
	if pc.Version != 2 {
		t.Fatalf("version: want=2 got=%d", pc.Version)
	}
}
