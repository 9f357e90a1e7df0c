package client

import (
	"context"
	"slices"
	"strings"
	"sync"

	"github.com/google/uuid"

	types "github.com/omickelsen/Mickelsen-Farms-v2-sub000/internal/domain"
	"github.com/omickelsen/Mickelsen-Farms-v2-sub000/internal/domain/instructors"
)

// PendingPrefix marks optimistic placeholder entries that have not been
// confirmed by the server yet.
const PendingPrefix = "pending:"

func IsPending(u string) bool { return strings.HasPrefix(u, PendingPrefix) }

func newPlaceholder() string { return PendingPrefix + uuid.NewString() }

// viewState holds the last error a view recorded. A failed refresh leaves the
// view empty with Err set rather than failing the caller's page.
type viewState struct {
	mu      sync.Mutex
	lastErr error
}

func (v *viewState) Err() error {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.lastErr
}

// ImageGallery mirrors one page's image list.
type ImageGallery struct {
	viewState
	c       *Client
	page    string
	images  []string
	pending map[string]struct{}
}

func NewImageGallery(c *Client, page string) *ImageGallery {
	return &ImageGallery{c: c, page: page, pending: map[string]struct{}{}}
}

func (g *ImageGallery) Images() []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]string(nil), g.images...)
}

// Empty reports whether there is nothing to show.
func (g *ImageGallery) Empty() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.images) == 0
}

func (g *ImageGallery) Refresh(ctx context.Context) error {
	urls, err := g.c.ListImages(ctx, g.page)
	g.mu.Lock()
	defer g.mu.Unlock()
	if err != nil {
		g.images = nil
		g.lastErr = err
		return err
	}
	g.lastErr = nil
	g.images = append([]string(nil), urls...)
	for p := range g.pending {
		g.images = append(g.images, p)
	}
	return nil
}

// Upload shows a placeholder until the server returns the stored URL, then
// re-fetches the list.
func (g *ImageGallery) Upload(ctx context.Context, section, filename string, data []byte) (string, error) {
	ph := newPlaceholder()
	g.mu.Lock()
	g.pending[ph] = struct{}{}
	g.images = append(g.images, ph)
	g.mu.Unlock()

	url, err := g.c.UploadImage(ctx, g.page, section, filename, data)

	g.mu.Lock()
	delete(g.pending, ph)
	if err != nil {
		g.images = removeString(g.images, ph)
		g.lastErr = err
		g.mu.Unlock()
		return "", err
	}
	g.images = replaceString(g.images, ph, url)
	g.mu.Unlock()

	_ = g.Refresh(ctx)
	return url, nil
}

// Delete removes the URL locally first and restores it if the server refuses.
// A server NotFound means the image is already gone.
func (g *ImageGallery) Delete(ctx context.Context, url string) error {
	g.mu.Lock()
	snapshot := append([]string(nil), g.images...)
	g.images = removeString(g.images, url)
	g.mu.Unlock()

	if err := g.c.DeleteImage(ctx, g.page, url); err != nil && !IsNotFound(err) {
		g.mu.Lock()
		g.images = snapshot
		g.lastErr = err
		g.mu.Unlock()
		return err
	}
	_ = g.Refresh(ctx)
	return nil
}

// PdfList mirrors one page's PDF entries across all sections.
type PdfList struct {
	viewState
	c       *Client
	page    string
	entries []types.PdfEntry
	pending map[string]types.PdfEntry
}

func NewPdfList(c *Client, page string) *PdfList {
	return &PdfList{c: c, page: page, pending: map[string]types.PdfEntry{}}
}

func (l *PdfList) Entries() []types.PdfEntry {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]types.PdfEntry(nil), l.entries...)
}

// BySection filters the current entries. An empty section returns all.
func (l *PdfList) BySection(section string) []types.PdfEntry {
	l.mu.Lock()
	defer l.mu.Unlock()
	section = strings.TrimSpace(section)
	out := []types.PdfEntry{}
	for _, e := range l.entries {
		if section == "" || strings.EqualFold(e.Section, section) {
			out = append(out, e)
		}
	}
	return out
}

func (l *PdfList) Refresh(ctx context.Context) error {
	entries, err := l.c.ListPdfs(ctx, l.page, "")
	l.mu.Lock()
	defer l.mu.Unlock()
	if err != nil {
		l.entries = nil
		l.lastErr = err
		return err
	}
	l.lastErr = nil
	l.entries = append([]types.PdfEntry(nil), entries...)
	for _, p := range l.pending {
		l.entries = append(l.entries, p)
	}
	return nil
}

func (l *PdfList) Upload(ctx context.Context, section, filename string, data []byte) (*types.PdfEntry, error) {
	ph := types.PdfEntry{URL: newPlaceholder(), OriginalName: filename, Section: strings.TrimSpace(section)}
	l.mu.Lock()
	l.pending[ph.URL] = ph
	l.entries = append(l.entries, ph)
	l.mu.Unlock()

	entry, err := l.c.UploadPdf(ctx, l.page, section, filename, data)

	l.mu.Lock()
	delete(l.pending, ph.URL)
	if err != nil {
		l.entries = removeEntry(l.entries, ph.URL)
		l.lastErr = err
		l.mu.Unlock()
		return nil, err
	}
	for i := range l.entries {
		if l.entries[i].URL == ph.URL {
			l.entries[i] = *entry
		}
	}
	l.mu.Unlock()

	_ = l.Refresh(ctx)
	return entry, nil
}

func (l *PdfList) Delete(ctx context.Context, url string) error {
	l.mu.Lock()
	snapshot := append([]types.PdfEntry(nil), l.entries...)
	l.entries = removeEntry(l.entries, url)
	l.mu.Unlock()

	if err := l.c.DeletePdf(ctx, l.page, url); err != nil && !IsNotFound(err) {
		l.mu.Lock()
		l.entries = snapshot
		l.lastErr = err
		l.mu.Unlock()
		return err
	}
	_ = l.Refresh(ctx)
	return nil
}

// InstructorBoard mirrors one page's instructors in Available-first order.
type InstructorBoard struct {
	viewState
	c    *Client
	page string
	list []*types.Instructor
}

func NewInstructorBoard(c *Client, page string) *InstructorBoard {
	return &InstructorBoard{c: c, page: page}
}

func (b *InstructorBoard) Instructors() []types.Instructor {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]types.Instructor, 0, len(b.list))
	for _, in := range b.list {
		out = append(out, *in)
	}
	return out
}

func (b *InstructorBoard) Refresh(ctx context.Context) error {
	list, err := b.c.ListInstructors(ctx, b.page)
	b.mu.Lock()
	defer b.mu.Unlock()
	if err != nil {
		b.list = nil
		b.lastErr = err
		return err
	}
	b.lastErr = nil
	b.list = list
	instructors.SortByAvailability(b.list)
	return nil
}

// Toggle flips the status locally, then settles on the server's answer or
// restores the previous status.
func (b *InstructorBoard) Toggle(ctx context.Context, id string) (*types.Instructor, error) {
	b.mu.Lock()
	idx := b.indexOf(id)
	var prev types.Instructor
	if idx >= 0 {
		prev = *b.list[idx]
		b.list[idx].Status = instructors.Flip(prev.Status)
		instructors.SortByAvailability(b.list)
	}
	b.mu.Unlock()

	updated, err := b.c.ToggleInstructor(ctx, b.page, id)

	b.mu.Lock()
	defer b.mu.Unlock()
	if err != nil {
		if i := b.indexOf(id); i >= 0 && idx >= 0 {
			*b.list[i] = prev
		}
		b.lastErr = err
		b.reorder()
		return nil, err
	}
	if i := b.indexOf(id); i >= 0 {
		*b.list[i] = *updated
	} else {
		b.list = append(b.list, updated)
	}
	b.reorder()
	return updated, nil
}

// reorder restores creation order before grouping by status so a flip back
// returns the instructor to its original slot.
func (b *InstructorBoard) reorder() {
	sortByCreated(b.list)
	instructors.SortByAvailability(b.list)
}

func (b *InstructorBoard) indexOf(id string) int {
	for i, in := range b.list {
		if in.ID.String() == id {
			return i
		}
	}
	return -1
}

// ContentEditor holds local edits for one page until Save.
type ContentEditor struct {
	viewState
	c     *Client
	page  string
	saved map[string]string
	edits map[string]string
}

func NewContentEditor(c *Client, page string) *ContentEditor {
	return &ContentEditor{c: c, page: page, saved: map[string]string{}, edits: map[string]string{}}
}

func (e *ContentEditor) Refresh(ctx context.Context) error {
	fields, err := e.c.GetContent(ctx, e.page)
	e.mu.Lock()
	defer e.mu.Unlock()
	if err != nil {
		e.saved = map[string]string{}
		e.lastErr = err
		return err
	}
	e.lastErr = nil
	e.saved = fields
	return nil
}

// Field returns the local edit if there is one, else the saved text.
func (e *ContentEditor) Field(name string) string {
	e.mu.Lock()
	defer e.mu.Unlock()
	if v, ok := e.edits[name]; ok {
		return v
	}
	return e.saved[name]
}

func (e *ContentEditor) Edit(name, text string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if v, ok := e.saved[name]; ok && v == text {
		delete(e.edits, name)
		return
	}
	e.edits[name] = text
}

func (e *ContentEditor) Dirty() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]string, 0, len(e.edits))
	for k := range e.edits {
		out = append(out, k)
	}
	slices.Sort(out)
	return out
}

// Save sends only the edited fields. Edits stay pending if the server
// rejects them.
func (e *ContentEditor) Save(ctx context.Context) error {
	e.mu.Lock()
	if len(e.edits) == 0 {
		e.mu.Unlock()
		return nil
	}
	batch := make(map[string]string, len(e.edits))
	for k, v := range e.edits {
		batch[k] = v
	}
	e.mu.Unlock()

	fields, err := e.c.SaveContent(ctx, e.page, batch)

	e.mu.Lock()
	defer e.mu.Unlock()
	if err != nil {
		e.lastErr = err
		return err
	}
	e.lastErr = nil
	e.saved = fields
	for k, v := range batch {
		if e.edits[k] == v {
			delete(e.edits, k)
		}
	}
	return nil
}

func removeString(list []string, s string) []string {
	out := list[:0:0]
	for _, v := range list {
		if v != s {
			out = append(out, v)
		}
	}
	return out
}

func replaceString(list []string, old, repl string) []string {
	out := make([]string, len(list))
	for i, v := range list {
		if v == old {
			v = repl
		}
		out[i] = v
	}
	return out
}

func removeEntry(list []types.PdfEntry, url string) []types.PdfEntry {
	out := list[:0:0]
	for _, e := range list {
		if e.URL != url {
			out = append(out, e)
		}
	}
	return out
}

func sortByCreated(list []*types.Instructor) {
	slices.SortStableFunc(list, func(a, b *types.Instructor) int {
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		return strings.Compare(a.ID.String(), b.ID.String())
	})
}
