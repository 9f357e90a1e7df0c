package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/omickelsen/Mickelsen-Farms-v2-sub000/internal/platform/apierr"
	"github.com/omickelsen/Mickelsen-Farms-v2-sub000/internal/platform/calendar"
	"github.com/omickelsen/Mickelsen-Farms-v2-sub000/internal/platform/logger"
)

const (
	defaultUpcomingLimit = 10
	maxUpcomingLimit     = 50
	maxListResults       = 250
	defaultListWindow    = 90 * 24 * time.Hour
)

type EventInput struct {
	Title       string    `json:"title" validate:"required,max=200"`
	Description string    `json:"description" validate:"max=4000"`
	Location    string    `json:"location" validate:"max=300"`
	Start       time.Time `json:"start"`
	End         time.Time `json:"end"`
	AllDay      bool      `json:"allDay"`
}

// PublicEvent is what anonymous visitors see of an event.
type PublicEvent struct {
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Location    string    `json:"location,omitempty"`
	Start       time.Time `json:"start"`
	End         time.Time `json:"end"`
	AllDay      bool      `json:"allDay"`
}

type CalendarService interface {
	ListEvents(ctx context.Context, from, to time.Time) ([]calendar.Event, error)
	Upcoming(ctx context.Context, limit int) ([]PublicEvent, error)
	CreateEvent(ctx context.Context, in EventInput) (*calendar.Event, error)
	UpdateEvent(ctx context.Context, id string, in EventInput) (*calendar.Event, error)
	DeleteEvent(ctx context.Context, id string) error
}

type calendarService struct {
	log      *logger.Logger
	provider calendar.Provider
	now      func() time.Time
}

// NewCalendarService accepts a nil provider; every call then fails as an
// upstream error.
func NewCalendarService(log *logger.Logger, provider calendar.Provider) CalendarService {
	return &calendarService{
		log:      log.With("service", "CalendarService"),
		provider: provider,
		now:      time.Now,
	}
}

func (s *calendarService) ListEvents(ctx context.Context, from, to time.Time) ([]calendar.Event, error) {
	if err := requireAdmin(ctx); err != nil {
		return nil, err
	}
	if s.provider == nil {
		return nil, apierr.Upstream("list events", calendar.ErrNotConfigured)
	}
	if from.IsZero() {
		from = s.now()
	}
	if to.IsZero() {
		to = from.Add(defaultListWindow)
	}
	if !to.After(from) {
		return nil, apierr.BadRequest("to must be after from")
	}
	events, err := s.provider.List(ctx, from, to, maxListResults)
	if err != nil {
		return nil, s.mapErr("list events", err)
	}
	return events, nil
}

func (s *calendarService) Upcoming(ctx context.Context, limit int) ([]PublicEvent, error) {
	if s.provider == nil {
		return nil, apierr.Upstream("upcoming events", calendar.ErrNotConfigured)
	}
	if limit <= 0 {
		limit = defaultUpcomingLimit
	}
	if limit > maxUpcomingLimit {
		limit = maxUpcomingLimit
	}
	events, err := s.provider.List(ctx, s.now(), time.Time{}, int64(limit))
	if err != nil {
		return nil, s.mapErr("upcoming events", err)
	}
	out := make([]PublicEvent, 0, len(events))
	for _, ev := range events {
		out = append(out, PublicEvent{
			Title:       ev.Title,
			Description: ev.Description,
			Location:    ev.Location,
			Start:       ev.Start,
			End:         ev.End,
			AllDay:      ev.AllDay,
		})
	}
	return out, nil
}

func (s *calendarService) CreateEvent(ctx context.Context, in EventInput) (*calendar.Event, error) {
	if err := requireAdmin(ctx); err != nil {
		return nil, err
	}
	ev, err := eventFromInput(in)
	if err != nil {
		return nil, err
	}
	if s.provider == nil {
		return nil, apierr.Upstream("create event", calendar.ErrNotConfigured)
	}
	created, err := s.provider.Insert(ctx, ev)
	if err != nil {
		return nil, s.mapErr("create event", err)
	}
	s.log.Info("Calendar event created", "event_id", created.ID)
	return &created, nil
}

func (s *calendarService) UpdateEvent(ctx context.Context, id string, in EventInput) (*calendar.Event, error) {
	if err := requireAdmin(ctx); err != nil {
		return nil, err
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, apierr.BadRequest("event id is required")
	}
	ev, err := eventFromInput(in)
	if err != nil {
		return nil, err
	}
	if s.provider == nil {
		return nil, apierr.Upstream("update event", calendar.ErrNotConfigured)
	}
	updated, err := s.provider.Update(ctx, id, ev)
	if err != nil {
		return nil, s.mapErr("update event", err)
	}
	s.log.Info("Calendar event updated", "event_id", id)
	return &updated, nil
}

func (s *calendarService) DeleteEvent(ctx context.Context, id string) error {
	if err := requireAdmin(ctx); err != nil {
		return err
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return apierr.BadRequest("event id is required")
	}
	if s.provider == nil {
		return apierr.Upstream("delete event", calendar.ErrNotConfigured)
	}
	if err := s.provider.Delete(ctx, id); err != nil {
		return s.mapErr("delete event", err)
	}
	s.log.Info("Calendar event deleted", "event_id", id)
	return nil
}

func (s *calendarService) mapErr(op string, err error) error {
	if errors.Is(err, calendar.ErrNotFound) {
		return apierr.NotFound("calendar event not found")
	}
	s.log.Warn("Calendar provider call failed", "op", op, "error", err)
	return apierr.Upstream(op, err)
}

func eventFromInput(in EventInput) (calendar.Event, error) {
	in.Title = strings.TrimSpace(in.Title)
	if err := validateInput(in); err != nil {
		return calendar.Event{}, err
	}
	if in.Start.IsZero() || in.End.IsZero() {
		return calendar.Event{}, apierr.BadRequest("start and end are required")
	}
	if in.End.Before(in.Start) || (!in.AllDay && !in.End.After(in.Start)) {
		return calendar.Event{}, apierr.BadRequest("end must be after start")
	}
	return calendar.Event{
		Title:       in.Title,
		Description: strings.TrimSpace(in.Description),
		Location:    strings.TrimSpace(in.Location),
		Start:       in.Start,
		End:         in.End,
		AllDay:      in.AllDay,
	}, nil
}
