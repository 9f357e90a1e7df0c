package services

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/omickelsen/Mickelsen-Farms-v2-sub000/internal/data/repos/testutil"
	"github.com/omickelsen/Mickelsen-Farms-v2-sub000/internal/platform/calendar"
)

func TestUpcomingIsPublicAndCapped(t *testing.T) {
	start := time.Date(2026, 5, 1, 15, 0, 0, 0, time.UTC)
	provider := &fakeCalendarProvider{events: []calendar.Event{
		{ID: "a", Title: "Open house", Start: start, End: start.Add(2 * time.Hour), HTMLLink: "https://calendar.test/a"},
	}}
	svc := NewCalendarService(testutil.Logger(t), provider)

	events, err := svc.Upcoming(context.Background(), 0)
	if err != nil {
		t.Fatalf("Upcoming: %v", err)
	}
	if len(events) != 1 || events[0].Title != "Open house" {
		t.Fatalf("Upcoming: unexpected %+v", events)
	}
	if provider.lastMax != defaultUpcomingLimit {
		t.Fatalf("default limit: want=%d got=%d", defaultUpcomingLimit, provider.lastMax)
	}
	if _, err := svc.Upcoming(context.Background(), 500); err != nil {
		t.Fatalf("Upcoming: %v", err)
	}
	if provider.lastMax != maxUpcomingLimit {
		t.Fatalf("cap: want=%d got=%d", maxUpcomingLimit, provider.lastMax)
	}
}

func TestCalendarAdminOperations(t *testing.T) {
	provider := &fakeCalendarProvider{}
	svc := NewCalendarService(testutil.Logger(t), provider)
	start := time.Date(2026, 6, 1, 9, 0, 0, 0, time.UTC)
	in := EventInput{Title: " Pony camp ", Start: start, End: start.Add(3 * time.Hour)}

	_, err := svc.CreateEvent(visitorCtx(), in)
	assertStatus(t, err, http.StatusForbidden)
	_, err = svc.ListEvents(context.Background(), time.Time{}, time.Time{})
	assertStatus(t, err, http.StatusUnauthorized)

	created, err := svc.CreateEvent(adminCtx(), in)
	if err != nil {
		t.Fatalf("CreateEvent: %v", err)
	}
	if created.ID == "" || created.Title != "Pony camp" {
		t.Fatalf("CreateEvent: unexpected %+v", created)
	}
	if _, err := svc.UpdateEvent(adminCtx(), created.ID, in); err != nil {
		t.Fatalf("UpdateEvent: %v", err)
	}
	if err := svc.DeleteEvent(adminCtx(), created.ID); err != nil {
		t.Fatalf("DeleteEvent: %v", err)
	}
	if provider.deletedID != created.ID {
		t.Fatalf("DeleteEvent: want=%s got=%s", created.ID, provider.deletedID)
	}
}

func TestCalendarInputValidation(t *testing.T) {
	svc := NewCalendarService(testutil.Logger(t), &fakeCalendarProvider{})
	start := time.Date(2026, 6, 1, 9, 0, 0, 0, time.UTC)

	cases := map[string]EventInput{
		"missing title": {Start: start, End: start.Add(time.Hour)},
		"missing times": {Title: "x"},
		"end before":    {Title: "x", Start: start, End: start.Add(-time.Hour)},
		"zero length":   {Title: "x", Start: start, End: start},
	}
	for name, in := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := svc.CreateEvent(adminCtx(), in)
			assertStatus(t, err, http.StatusBadRequest)
		})
	}

	_, err := svc.ListEvents(adminCtx(), start, start.Add(-time.Hour))
	assertStatus(t, err, http.StatusBadRequest)
	err = svc.DeleteEvent(adminCtx(), " ")
	assertStatus(t, err, http.StatusBadRequest)
}

func TestCalendarProviderErrors(t *testing.T) {
	provider := &fakeCalendarProvider{err: calendar.ErrNotFound}
	svc := NewCalendarService(testutil.Logger(t), provider)

	err := svc.DeleteEvent(adminCtx(), "gone")
	assertStatus(t, err, http.StatusNotFound)

	provider.err = errors.New("quota exceeded")
	_, err = svc.Upcoming(context.Background(), 5)
	assertStatus(t, err, http.StatusBadGateway)

	unconfigured := NewCalendarService(testutil.Logger(t), nil)
	_, err = unconfigured.Upcoming(context.Background(), 5)
	assertStatus(t, err, http.StatusBadGateway)
}
