package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/omickelsen/Mickelsen-Farms-v2-sub000/internal/platform/calendar"
	"github.com/omickelsen/Mickelsen-Farms-v2-sub000/internal/platform/ctxutil"
	"github.com/omickelsen/Mickelsen-Farms-v2-sub000/internal/platform/dbctx"
	"github.com/omickelsen/Mickelsen-Farms-v2-sub000/internal/platform/gcp"
)

func adminCtx() context.Context {
	return ctxutil.WithRequestData(context.Background(), &ctxutil.RequestData{
		Subject: "admin-sub",
		Email:   "owner@mickelsenfarms.com",
		IsAdmin: true,
	})
}

func visitorCtx() context.Context {
	return ctxutil.WithRequestData(context.Background(), &ctxutil.RequestData{
		Subject: "visitor-sub",
		Email:   "visitor@example.com",
	})
}

const fakeBucketBase = "https://storage.test/"

type fakeBucket struct {
	mu        sync.Mutex
	objects   map[string][]byte
	types     map[string]string
	deleted   []string
	uploadErr error
	deleteErr error
}

func newFakeBucket() *fakeBucket {
	return &fakeBucket{objects: map[string][]byte{}, types: map[string]string{}}
}

func (b *fakeBucket) path(category gcp.BucketCategory, key string) string {
	return string(category) + "/" + key
}

func (b *fakeBucket) UploadFile(dbc dbctx.Context, category gcp.BucketCategory, key, contentType string, file io.Reader) error {
	if b.uploadErr != nil {
		return b.uploadErr
	}
	data, err := io.ReadAll(file)
	if err != nil {
		return err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.objects[b.path(category, key)] = bytes.Clone(data)
	b.types[b.path(category, key)] = contentType
	return nil
}

func (b *fakeBucket) contentType(category gcp.BucketCategory, key string) string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.types[b.path(category, key)]
}

func (b *fakeBucket) DeleteFile(dbc dbctx.Context, category gcp.BucketCategory, key string) error {
	if b.deleteErr != nil {
		return b.deleteErr
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	p := b.path(category, key)
	b.deleted = append(b.deleted, p)
	if _, ok := b.objects[p]; !ok {
		return fmt.Errorf("delete %q: %w", key, gcp.ErrObjectNotFound)
	}
	delete(b.objects, p)
	return nil
}

func (b *fakeBucket) GetPublicURL(category gcp.BucketCategory, key string) string {
	return fakeBucketBase + string(category) + "/" + key
}

func (b *fakeBucket) KeyFromURL(category gcp.BucketCategory, rawURL string) (string, bool) {
	prefix := fakeBucketBase + string(category) + "/"
	if !strings.HasPrefix(rawURL, prefix) {
		return "", false
	}
	return strings.TrimPrefix(rawURL, prefix), true
}

func (b *fakeBucket) has(category gcp.BucketCategory, key string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	_, ok := b.objects[b.path(category, key)]
	return ok
}

func (b *fakeBucket) count() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.objects)
}

type fakeCalendarProvider struct {
	events    []calendar.Event
	err       error
	lastMax   int64
	lastFrom  time.Time
	inserted  []calendar.Event
	deletedID string
}

func (p *fakeCalendarProvider) List(ctx context.Context, from, to time.Time, max int64) ([]calendar.Event, error) {
	p.lastFrom, p.lastMax = from, max
	if p.err != nil {
		return nil, p.err
	}
	out := p.events
	if max > 0 && int64(len(out)) > max {
		out = out[:max]
	}
	return out, nil
}

func (p *fakeCalendarProvider) Insert(ctx context.Context, ev calendar.Event) (calendar.Event, error) {
	if p.err != nil {
		return calendar.Event{}, p.err
	}
	ev.ID = fmt.Sprintf("evt-%d", len(p.inserted)+1)
	p.inserted = append(p.inserted, ev)
	return ev, nil
}

func (p *fakeCalendarProvider) Update(ctx context.Context, id string, ev calendar.Event) (calendar.Event, error) {
	if p.err != nil {
		return calendar.Event{}, p.err
	}
	ev.ID = id
	return ev, nil
}

func (p *fakeCalendarProvider) Delete(ctx context.Context, id string) error {
	if p.err != nil {
		return p.err
	}
	p.deletedID = id
	return nil
}

type fakeGoogleVerifier struct {
	identities map[string]*GoogleIdentity
}

func (v *fakeGoogleVerifier) VerifyIDToken(ctx context.Context, idToken string) (*GoogleIdentity, error) {
	if id, ok := v.identities[idToken]; ok {
		return id, nil
	}
	return nil, errors.New("unknown token")
}
