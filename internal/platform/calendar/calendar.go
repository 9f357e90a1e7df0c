package calendar

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	gcal "google.golang.org/api/calendar/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"github.com/omickelsen/Mickelsen-Farms-v2-sub000/internal/platform/logger"
)

const (
	dateLayout  = "2006-01-02"
	callTimeout = 15 * time.Second
)

var (
	ErrNotFound      = errors.New("calendar event not found")
	ErrNotConfigured = errors.New("calendar provider not configured")
)

type Event struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Location    string    `json:"location,omitempty"`
	Start       time.Time `json:"start"`
	End         time.Time `json:"end"`
	AllDay      bool      `json:"allDay"`
	HTMLLink    string    `json:"htmlLink,omitempty"`
}

type Provider interface {
	List(ctx context.Context, from, to time.Time, max int64) ([]Event, error)
	Insert(ctx context.Context, ev Event) (Event, error)
	Update(ctx context.Context, id string, ev Event) (Event, error)
	Delete(ctx context.Context, id string) error
}

type Config struct {
	CalendarID string
	Location   *time.Location
}

type googleProvider struct {
	log        *logger.Logger
	svc        *gcal.Service
	calendarID string
	loc        *time.Location
}

// NewGoogleProvider builds a Calendar v3 client. opts usually come from
// gcp.Credentials.ClientOptions.
func NewGoogleProvider(ctx context.Context, log *logger.Logger, cfg Config, opts ...option.ClientOption) (Provider, error) {
	if strings.TrimSpace(cfg.CalendarID) == "" {
		return nil, ErrNotConfigured
	}
	opts = append(opts, option.WithScopes(gcal.CalendarEventsScope))
	svc, err := gcal.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create calendar service: %w", err)
	}
	loc := cfg.Location
	if loc == nil {
		loc = time.UTC
	}
	return &googleProvider{
		log:        log.With("provider", "GoogleCalendar"),
		svc:        svc,
		calendarID: strings.TrimSpace(cfg.CalendarID),
		loc:        loc,
	}, nil
}

func (p *googleProvider) List(ctx context.Context, from, to time.Time, max int64) ([]Event, error) {
	ctx, cancel := context.WithTimeout(ctx, callTimeout)
	defer cancel()

	call := p.svc.Events.List(p.calendarID).
		SingleEvents(true).
		OrderBy("startTime").
		TimeMin(from.UTC().Format(time.RFC3339))
	if !to.IsZero() {
		call = call.TimeMax(to.UTC().Format(time.RFC3339))
	}
	if max > 0 {
		call = call.MaxResults(max)
	}
	res, err := call.Context(ctx).Do()
	if err != nil {
		return nil, classify("list events", err)
	}
	out := make([]Event, 0, len(res.Items))
	for _, item := range res.Items {
		if item == nil || item.Status == "cancelled" {
			continue
		}
		out = append(out, fromAPIEvent(item, p.loc))
	}
	return out, nil
}

func (p *googleProvider) Insert(ctx context.Context, ev Event) (Event, error) {
	ctx, cancel := context.WithTimeout(ctx, callTimeout)
	defer cancel()
	created, err := p.svc.Events.Insert(p.calendarID, toAPIEvent(ev, p.loc)).Context(ctx).Do()
	if err != nil {
		return Event{}, classify("insert event", err)
	}
	return fromAPIEvent(created, p.loc), nil
}

func (p *googleProvider) Update(ctx context.Context, id string, ev Event) (Event, error) {
	ctx, cancel := context.WithTimeout(ctx, callTimeout)
	defer cancel()
	updated, err := p.svc.Events.Update(p.calendarID, id, toAPIEvent(ev, p.loc)).Context(ctx).Do()
	if err != nil {
		return Event{}, classify("update event", err)
	}
	return fromAPIEvent(updated, p.loc), nil
}

func (p *googleProvider) Delete(ctx context.Context, id string) error {
	ctx, cancel := context.WithTimeout(ctx, callTimeout)
	defer cancel()
	if err := p.svc.Events.Delete(p.calendarID, id).Context(ctx).Do(); err != nil {
		return classify("delete event", err)
	}
	return nil
}

func classify(op string, err error) error {
	var gerr *googleapi.Error
	if errors.As(err, &gerr) && (gerr.Code == http.StatusNotFound || gerr.Code == http.StatusGone) {
		return fmt.Errorf("%s: %w", op, ErrNotFound)
	}
	return fmt.Errorf("%s: %w", op, err)
}

func toAPIEvent(ev Event, loc *time.Location) *gcal.Event {
	out := &gcal.Event{
		Summary:     ev.Title,
		Description: ev.Description,
		Location:    ev.Location,
	}
	if ev.AllDay {
		start := ev.Start.In(loc)
		end := ev.End.In(loc)
		// all-day end dates are exclusive
		if !end.After(start) || end.Format(dateLayout) == start.Format(dateLayout) {
			end = start.AddDate(0, 0, 1)
		}
		out.Start = &gcal.EventDateTime{Date: start.Format(dateLayout)}
		out.End = &gcal.EventDateTime{Date: end.Format(dateLayout)}
		return out
	}
	out.Start = &gcal.EventDateTime{DateTime: ev.Start.Format(time.RFC3339)}
	out.End = &gcal.EventDateTime{DateTime: ev.End.Format(time.RFC3339)}
	return out
}

func fromAPIEvent(item *gcal.Event, loc *time.Location) Event {
	ev := Event{
		ID:          item.Id,
		Title:       item.Summary,
		Description: item.Description,
		Location:    item.Location,
		HTMLLink:    item.HtmlLink,
	}
	ev.Start, ev.AllDay = parseEventTime(item.Start, loc)
	ev.End, _ = parseEventTime(item.End, loc)
	return ev
}

func parseEventTime(edt *gcal.EventDateTime, loc *time.Location) (time.Time, bool) {
	if edt == nil {
		return time.Time{}, false
	}
	if edt.DateTime != "" {
		if t, err := time.Parse(time.RFC3339, edt.DateTime); err == nil {
			return t, false
		}
	}
	if edt.Date != "" {
		if t, err := time.ParseInLocation(dateLayout, edt.Date, loc); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
