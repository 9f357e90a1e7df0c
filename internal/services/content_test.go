package services

import (
	"context"
	"net/http"
	"testing"

	"github.com/omickelsen/Mickelsen-Farms-v2-sub000/internal/data/repos"
	"github.com/omickelsen/Mickelsen-Farms-v2-sub000/internal/data/repos/testutil"
)

func newContentService(t *testing.T) ContentService {
	t.Helper()
	return NewContentService(testutil.Logger(t), repos.NewPageContentRepo(testutil.DB(t), testutil.Logger(t)))
}

func TestGetContentEmptyForUnknownPage(t *testing.T) {
	svc := newContentService(t)
	fields, err := svc.GetContent(context.Background(), "about")
	if err != nil {
		t.Fatalf("GetContent: %v", err)
	}
	if len(fields) != 0 {
		t.Fatalf("expected no fields, got %v", fields)
	}
	text, err := svc.GetField(context.Background(), "about", "main")
	if err != nil || text != "" {
		t.Fatalf("GetField: want empty, got %q err=%v", text, err)
	}
}

func TestSaveContentStringAndMapShapes(t *testing.T) {
	svc := newContentService(t)
	ctx := adminCtx()

	if _, err := svc.SaveContent(ctx, "about", "Welcome to the farm"); err != nil {
		t.Fatalf("SaveContent string: %v", err)
	}
	fields, err := svc.SaveContent(ctx, "about", map[string]any{"hours": "9-5"})
	if err != nil {
		t.Fatalf("SaveContent map: %v", err)
	}
	if fields["main"] != "Welcome to the farm" || fields["hours"] != "9-5" {
		t.Fatalf("merge lost fields: %v", fields)
	}

	fields, err = svc.SaveField(ctx, "about", "main", "Updated")
	if err != nil {
		t.Fatalf("SaveField: %v", err)
	}
	if fields["main"] != "Updated" || fields["hours"] != "9-5" {
		t.Fatalf("SaveField: unexpected %v", fields)
	}

	text, err := svc.GetField(context.Background(), "about", "hours")
	if err != nil || text != "9-5" {
		t.Fatalf("GetField: want=9-5 got=%q err=%v", text, err)
	}
}

func TestSaveContentEmptyStringIsAllowed(t *testing.T) {
	svc := newContentService(t)
	fields, err := svc.SaveContent(adminCtx(), "about", "")
	if err != nil {
		t.Fatalf("SaveContent: %v", err)
	}
	if v, ok := fields["main"]; !ok || v != "" {
		t.Fatalf("expected explicit empty main field, got %v", fields)
	}
}

func TestSaveContentRejections(t *testing.T) {
	svc := newContentService(t)

	_, err := svc.SaveContent(visitorCtx(), "about", "x")
	assertStatus(t, err, http.StatusForbidden)
	_, err = svc.SaveField(context.Background(), "about", "main", "x")
	assertStatus(t, err, http.StatusUnauthorized)

	cases := map[string]any{
		"nil":         nil,
		"number":      42,
		"empty map":   map[string]any{},
		"non-string":  map[string]any{"main": 3},
		"blank field": map[string]string{"  ": "x"},
	}
	for name, content := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := svc.SaveContent(adminCtx(), "about", content)
			assertStatus(t, err, http.StatusBadRequest)
		})
	}
}

func TestNormalizeContentTrimsFieldNames(t *testing.T) {
	fields, err := NormalizeContent(map[string]string{" intro ": "hi"})
	if err != nil {
		t.Fatalf("NormalizeContent: %v", err)
	}
	if fields["intro"] != "hi" {
		t.Fatalf("want trimmed key, got %v", fields)
	}
}
