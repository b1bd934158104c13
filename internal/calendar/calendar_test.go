package calendar

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	gcal "google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"

	"github.com/gpteach/gpteach/internal/plan"
)

// fakeCalendar records inserted events and echoes them back.
type fakeCalendar struct {
	inserted []gcal.Event
	listed   bool
}

func (f *fakeCalendar) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if !strings.HasSuffix(r.URL.Path, "/calendars/primary/events") {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "application/json")

	switch r.Method {
	case http.MethodPost:
		var ev gcal.Event
		if err := json.NewDecoder(r.Body).Decode(&ev); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		f.inserted = append(f.inserted, ev)
		ev.Id = "evt-1"
		ev.HtmlLink = "https://calendar.example/evt-1"
		_ = json.NewEncoder(w).Encode(ev)
	case http.MethodGet:
		f.listed = true
		items := make([]*gcal.Event, len(f.inserted))
		for i := range f.inserted {
			items[i] = &f.inserted[i]
		}
		_ = json.NewEncoder(w).Encode(gcal.Events{Items: items})
	}
}

func newTestScheduler(t *testing.T, fake *fakeCalendar) *Scheduler {
	t.Helper()
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	s, err := New(context.Background(), Config{TimeZone: "UTC"},
		option.WithEndpoint(srv.URL+"/"),
		option.WithHTTPClient(srv.Client()),
	)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return s
}

func testPlan() *plan.Document {
	doc := plan.New("Fractions Fun")
	doc.Subject = "Math"
	doc.Topic = "fractions"
	return doc
}

func TestAddPlan_Timed(t *testing.T) {
	fake := &fakeCalendar{}
	s := newTestScheduler(t, fake)
	doc := testPlan()

	start := time.Date(2026, 10, 14, 9, 0, 0, 0, time.UTC)
	ev, err := s.AddPlan(context.Background(), doc, start, 45*time.Minute)
	if err != nil {
		t.Fatalf("AddPlan: %v", err)
	}

	if len(fake.inserted) != 1 {
		t.Fatalf("inserted %d events, want 1", len(fake.inserted))
	}
	got := fake.inserted[0]
	if got.Summary != "Fractions Fun" {
		t.Errorf("summary = %q", got.Summary)
	}
	if got.Description != "Lesson plan for Math - fractions." {
		t.Errorf("description = %q", got.Description)
	}
	if got.Start.DateTime != "2026-10-14T09:00:00Z" || got.End.DateTime != "2026-10-14T09:45:00Z" {
		t.Errorf("times = %s .. %s", got.Start.DateTime, got.End.DateTime)
	}
	if got.ExtendedProperties.Private[planIDKey] != doc.ID {
		t.Errorf("planId = %q, want %q", got.ExtendedProperties.Private[planIDKey], doc.ID)
	}

	if ev.ID != "evt-1" || ev.PlanID != doc.ID || ev.AllDay {
		t.Errorf("event = %+v", ev)
	}
	if !ev.End.Equal(start.Add(45 * time.Minute)) {
		t.Errorf("end = %v", ev.End)
	}
}

func TestAddPlan_AllDay(t *testing.T) {
	fake := &fakeCalendar{}
	s := newTestScheduler(t, fake)

	ev, err := s.AddPlan(context.Background(), testPlan(), time.Date(2026, 10, 14, 0, 0, 0, 0, time.UTC), 0)
	if err != nil {
		t.Fatalf("AddPlan: %v", err)
	}

	got := fake.inserted[0]
	if got.Start.Date != "2026-10-14" || got.End.Date != "2026-10-15" {
		t.Errorf("dates = %s .. %s", got.Start.Date, got.End.Date)
	}
	if !ev.AllDay {
		t.Error("expected all-day event")
	}
}

func TestAddPlan_NegativeDuration(t *testing.T) {
	s := newTestScheduler(t, &fakeCalendar{})
	if _, err := s.AddPlan(context.Background(), testPlan(), time.Now(), -time.Minute); err == nil {
		t.Fatal("expected error")
	}
}

func TestUpcoming(t *testing.T) {
	fake := &fakeCalendar{}
	s := newTestScheduler(t, fake)
	ctx := context.Background()

	doc := testPlan()
	if _, err := s.AddPlan(ctx, doc, time.Date(2026, 10, 14, 9, 0, 0, 0, time.UTC), time.Hour); err != nil {
		t.Fatal(err)
	}

	events, err := s.Upcoming(ctx, 10)
	if err != nil {
		t.Fatalf("Upcoming: %v", err)
	}
	if !fake.listed {
		t.Error("list endpoint not called")
	}
	if len(events) != 1 || events[0].PlanID != doc.ID {
		t.Errorf("events = %+v", events)
	}
}

func TestNew_NoCredentials(t *testing.T) {
	_, err := New(context.Background(), Config{})
	if !errors.Is(err, ErrNoCredentials) {
		t.Fatalf("err = %v, want ErrNoCredentials", err)
	}
}
