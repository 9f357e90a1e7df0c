package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v5"

	types "github.com/omickelsen/Mickelsen-Farms-v2-sub000/internal/domain"
	"github.com/omickelsen/Mickelsen-Farms-v2-sub000/internal/platform/calendar"
	"github.com/omickelsen/Mickelsen-Farms-v2-sub000/internal/platform/logger"
)

// APIError is a non-2xx response decoded from the server's error envelope.
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("api %d %s: %s", e.Status, e.Code, e.Message)
	}
	return fmt.Sprintf("api %d %s", e.Status, e.Code)
}

// IsNotFound reports whether err is a 404 from the server.
func IsNotFound(err error) bool {
	var ae *APIError
	return errors.As(err, &ae) && ae.Status == http.StatusNotFound
}

func retryable(err error) bool {
	var ae *APIError
	if errors.As(err, &ae) {
		return ae.Status >= 500 || ae.Status == http.StatusTooManyRequests
	}
	return !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded)
}

type Session struct {
	Token     string    `json:"token"`
	Email     string    `json:"email"`
	IsAdmin   bool      `json:"isAdmin"`
	ExpiresAt time.Time `json:"expiresAt"`
}

type Identity struct {
	Email    string `json:"email"`
	IsAdmin  bool   `json:"isAdmin"`
	Provider string `json:"provider"`
}

type EventInput struct {
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Location    string    `json:"location,omitempty"`
	Start       time.Time `json:"start"`
	End         time.Time `json:"end"`
	AllDay      bool      `json:"allDay"`
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

func WithToken(token string) Option {
	return func(c *Client) { c.token = token }
}

func WithLogger(log *logger.Logger) Option {
	return func(c *Client) { c.log = log.With("component", "APIClient") }
}

// WithRetry sets how many times idempotent reads are attempted and the first
// backoff interval.
func WithRetry(maxTries uint, initial time.Duration) Option {
	return func(c *Client) {
		c.maxTries = maxTries
		c.retryInitial = initial
	}
}

// Client is a typed caller for the CMS HTTP API.
type Client struct {
	baseURL      string
	httpClient   *http.Client
	log          *logger.Logger
	maxTries     uint
	retryInitial time.Duration

	mu    sync.RWMutex
	token string
}

func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:      strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		httpClient:   &http.Client{Timeout: 30 * time.Second},
		log:          logger.Nop(),
		maxTries:     3,
		retryInitial: 250 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) SetToken(token string) {
	c.mu.Lock()
	c.token = token
	c.mu.Unlock()
}

func (c *Client) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

type request struct {
	method      string
	path        string
	query       url.Values
	header      http.Header
	body        []byte
	contentType string
}

func (c *Client) doOnce(ctx context.Context, r request, out any) error {
	target := c.baseURL + r.path
	if len(r.query) > 0 {
		target += "?" + r.query.Encode()
	}
	var body io.Reader
	if r.body != nil {
		body = bytes.NewReader(r.body)
	}
	req, err := http.NewRequestWithContext(ctx, r.method, target, body)
	if err != nil {
		return err
	}
	for k, vs := range r.header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	if r.contentType != "" {
		req.Header.Set("Content-Type", r.contentType)
	}
	req.Header.Set("Accept", "application/json")
	if tok := c.Token(); tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	raw, readErr := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	if readErr != nil {
		return readErr
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return decodeError(resp.StatusCode, raw)
	}
	if out == nil || len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode %s %s: %w", r.method, r.path, err)
	}
	return nil
}

func decodeError(status int, raw []byte) *APIError {
	var env struct {
		Error struct {
			Message string `json:"message"`
			Code    string `json:"code"`
		} `json:"error"`
	}
	ae := &APIError{Status: status}
	if err := json.Unmarshal(raw, &env); err == nil {
		ae.Code = env.Error.Code
		ae.Message = env.Error.Message
	}
	if ae.Message == "" {
		ae.Message = strings.TrimSpace(string(raw))
	}
	return ae
}

// do runs the request. GETs are retried with exponential backoff on
// transport errors and 5xx/429 responses; mutations run exactly once.
func (c *Client) do(ctx context.Context, r request, out any) error {
	if r.method != http.MethodGet || c.maxTries <= 1 {
		return c.doOnce(ctx, r, out)
	}
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = c.retryInitial
	b.MaxInterval = 5 * time.Second

	attempt := 0
	op := func() (struct{}, error) {
		attempt++
		err := c.doOnce(ctx, r, out)
		if err != nil && !retryable(err) {
			return struct{}{}, backoff.Permanent(err)
		}
		return struct{}{}, err
	}
	notify := func(err error, wait time.Duration) {
		c.log.Warn("API request retrying", "path", r.path, "attempt", attempt, "sleep", wait.String(), "error", err.Error())
	}
	_, err := backoff.Retry(ctx, op,
		backoff.WithBackOff(b),
		backoff.WithMaxTries(c.maxTries),
		backoff.WithNotify(notify),
	)
	return err
}

func jsonRequest(method, path string, payload any) (request, error) {
	r := request{method: method, path: path}
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return r, err
		}
		r.body = b
		r.contentType = "application/json"
	}
	return r, nil
}

func multipartRequest(path, field, filename string, data []byte, header http.Header) (request, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile(field, filename)
	if err != nil {
		return request{}, err
	}
	if _, err := fw.Write(data); err != nil {
		return request{}, err
	}
	if err := mw.Close(); err != nil {
		return request{}, err
	}
	return request{
		method:      http.MethodPost,
		path:        path,
		header:      header,
		body:        buf.Bytes(),
		contentType: mw.FormDataContentType(),
	}, nil
}

func pageHeader(page string, extra ...string) http.Header {
	h := http.Header{}
	h.Set("Page", page)
	for i := 0; i+1 < len(extra); i += 2 {
		if extra[i+1] != "" {
			h.Set(extra[i], extra[i+1])
		}
	}
	return h
}

func pagePath(prefix, page string, rest ...string) string {
	parts := []string{prefix, url.PathEscape(page)}
	for _, r := range rest {
		parts = append(parts, url.PathEscape(r))
	}
	return strings.Join(parts, "/")
}

// Health

func (c *Client) Healthcheck(ctx context.Context) error {
	return c.do(ctx, request{method: http.MethodGet, path: "/healthcheck"}, nil)
}

// Auth

// SignInWithGoogle exchanges a Google ID token and keeps the returned session
// token for later calls.
func (c *Client) SignInWithGoogle(ctx context.Context, credential string) (*Session, error) {
	r, err := jsonRequest(http.MethodPost, "/api/auth/google", map[string]string{"credential": credential})
	if err != nil {
		return nil, err
	}
	var out Session
	if err := c.do(ctx, r, &out); err != nil {
		return nil, err
	}
	c.SetToken(out.Token)
	return &out, nil
}

func (c *Client) Me(ctx context.Context) (*Identity, error) {
	var out Identity
	if err := c.do(ctx, request{method: http.MethodGet, path: "/api/auth/me"}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Images

func (c *Client) ListImages(ctx context.Context, page string) ([]string, error) {
	var out struct {
		Images []string `json:"images"`
	}
	r := request{method: http.MethodGet, path: "/api/assets/images", query: url.Values{"page": {page}}}
	if err := c.do(ctx, r, &out); err != nil {
		return nil, err
	}
	return out.Images, nil
}

func (c *Client) UploadImage(ctx context.Context, page, section, filename string, data []byte) (string, error) {
	r, err := multipartRequest("/api/assets/images", "image", filename, data, pageHeader(page, "Section", section))
	if err != nil {
		return "", err
	}
	var out struct {
		URL string `json:"url"`
	}
	if err := c.do(ctx, r, &out); err != nil {
		return "", err
	}
	return out.URL, nil
}

func (c *Client) DeleteImage(ctx context.Context, page, imageURL string) error {
	r := request{method: http.MethodDelete, path: "/api/assets/images", header: pageHeader(page, "Url", imageURL)}
	return c.do(ctx, r, nil)
}

// PDFs

func (c *Client) ListPdfs(ctx context.Context, page, section string) ([]types.PdfEntry, error) {
	q := url.Values{"page": {page}}
	if section != "" {
		q.Set("section", section)
	}
	var out struct {
		Pdfs []types.PdfEntry `json:"pdfs"`
	}
	if err := c.do(ctx, request{method: http.MethodGet, path: "/api/assets/pdfs", query: q}, &out); err != nil {
		return nil, err
	}
	return out.Pdfs, nil
}

func (c *Client) UploadPdf(ctx context.Context, page, section, filename string, data []byte) (*types.PdfEntry, error) {
	r, err := multipartRequest("/api/assets/pdfs", "pdf", filename, data, pageHeader(page, "Section", section))
	if err != nil {
		return nil, err
	}
	var out types.PdfEntry
	if err := c.do(ctx, r, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) DeletePdf(ctx context.Context, page, pdfURL string) error {
	r := request{method: http.MethodDelete, path: "/api/assets/pdfs", header: pageHeader(page, "Url", pdfURL)}
	return c.do(ctx, r, nil)
}

// Content

func (c *Client) GetContent(ctx context.Context, page string) (map[string]string, error) {
	var out struct {
		Content map[string]string `json:"content"`
	}
	if err := c.do(ctx, request{method: http.MethodGet, path: pagePath("/api/content", page)}, &out); err != nil {
		return nil, err
	}
	if out.Content == nil {
		out.Content = map[string]string{}
	}
	return out.Content, nil
}

func (c *Client) GetField(ctx context.Context, page, field string) (string, error) {
	var out struct {
		Content string `json:"content"`
	}
	if err := c.do(ctx, request{method: http.MethodGet, path: pagePath("/api/content", page, field)}, &out); err != nil {
		return "", err
	}
	return out.Content, nil
}

// SaveContent merges fields into the page and returns the stored map.
func (c *Client) SaveContent(ctx context.Context, page string, fields map[string]string) (map[string]string, error) {
	r, err := jsonRequest(http.MethodPost, pagePath("/api/content", page), map[string]any{"content": fields})
	if err != nil {
		return nil, err
	}
	var out struct {
		Content map[string]string `json:"content"`
	}
	if err := c.do(ctx, r, &out); err != nil {
		return nil, err
	}
	return out.Content, nil
}

func (c *Client) SaveField(ctx context.Context, page, field, text string) (map[string]string, error) {
	r, err := jsonRequest(http.MethodPut, pagePath("/api/content", page, field), map[string]any{"content": text})
	if err != nil {
		return nil, err
	}
	var out struct {
		Content map[string]string `json:"content"`
	}
	if err := c.do(ctx, r, &out); err != nil {
		return nil, err
	}
	return out.Content, nil
}

// Instructors

func (c *Client) ListInstructors(ctx context.Context, page string) ([]*types.Instructor, error) {
	var out struct {
		Instructors []*types.Instructor `json:"instructors"`
	}
	if err := c.do(ctx, request{method: http.MethodGet, path: pagePath("/api/instructors", page)}, &out); err != nil {
		return nil, err
	}
	return out.Instructors, nil
}

func (c *Client) CreateInstructor(ctx context.Context, page, name string) (*types.Instructor, error) {
	r, err := jsonRequest(http.MethodPost, pagePath("/api/instructors", page), map[string]string{"name": name})
	if err != nil {
		return nil, err
	}
	var out types.Instructor
	if err := c.do(ctx, r, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateInstructor sends whichever of name and status are non-nil.
func (c *Client) UpdateInstructor(ctx context.Context, page, id string, name, status *string) (*types.Instructor, error) {
	body := map[string]string{}
	if name != nil {
		body["name"] = *name
	}
	if status != nil {
		body["status"] = *status
	}
	r, err := jsonRequest(http.MethodPut, pagePath("/api/instructors", page, id), body)
	if err != nil {
		return nil, err
	}
	var out types.Instructor
	if err := c.do(ctx, r, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) ToggleInstructor(ctx context.Context, page, id string) (*types.Instructor, error) {
	var out types.Instructor
	r := request{method: http.MethodPatch, path: pagePath("/api/instructors", page, id, "toggle")}
	if err := c.do(ctx, r, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) RemoveInstructor(ctx context.Context, page, id string) error {
	return c.do(ctx, request{method: http.MethodDelete, path: pagePath("/api/instructors", page, id)}, nil)
}

// Calendar

// UpcomingEvents lists public upcoming events. A limit of zero uses the
// server default.
func (c *Client) UpcomingEvents(ctx context.Context, limit int) ([]calendar.Event, error) {
	q := url.Values{}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	var out struct {
		Events []calendar.Event `json:"events"`
	}
	if err := c.do(ctx, request{method: http.MethodGet, path: "/api/calendar/upcoming", query: q}, &out); err != nil {
		return nil, err
	}
	return out.Events, nil
}

func (c *Client) ListEvents(ctx context.Context, from, to time.Time) ([]calendar.Event, error) {
	q := url.Values{}
	if !from.IsZero() {
		q.Set("from", from.Format(time.RFC3339))
	}
	if !to.IsZero() {
		q.Set("to", to.Format(time.RFC3339))
	}
	var out struct {
		Events []calendar.Event `json:"events"`
	}
	if err := c.do(ctx, request{method: http.MethodGet, path: "/api/calendar/events", query: q}, &out); err != nil {
		return nil, err
	}
	return out.Events, nil
}

func (c *Client) CreateEvent(ctx context.Context, in EventInput) (*calendar.Event, error) {
	r, err := jsonRequest(http.MethodPost, "/api/calendar/events", in)
	if err != nil {
		return nil, err
	}
	var out calendar.Event
	if err := c.do(ctx, r, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) UpdateEvent(ctx context.Context, id string, in EventInput) (*calendar.Event, error) {
	r, err := jsonRequest(http.MethodPut, "/api/calendar/events/"+url.PathEscape(id), in)
	if err != nil {
		return nil, err
	}
	var out calendar.Event
	if err := c.do(ctx, r, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) DeleteEvent(ctx context.Context, id string) error {
	return c.do(ctx, request{method: http.MethodDelete, path: "/api/calendar/events/" + url.PathEscape(id)}, nil)
}
