// Package calendar schedules lesson plans on Google Calendar.
package calendar

import (
	"context"
	"errors"
	"fmt"
	"time"

	gcal "google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"

	"github.com/gpteach/gpteach/internal/plan"
)

// planIDKey is the private extended property linking an event to its plan.
const planIDKey = "planId"

// ErrNoCredentials is returned by New when neither a credentials file nor
// client options are given.
var ErrNoCredentials = errors.New("calendar: no credentials configured")

// Config identifies the calendar and its time zone.
type Config struct {
	CredentialsFile string
	CalendarID      string
	TimeZone        string
}

// Event is a scheduled lesson.
type Event struct {
	ID      string
	Summary string
	Start   time.Time
	End     time.Time
	AllDay  bool
	PlanID  string
	Link    string
}

// Scheduler inserts and lists lesson events.
type Scheduler struct {
	svc        *gcal.Service
	calendarID string
	loc        *time.Location
}

// New connects to the Calendar API. Without extra opts the service account
// or authorized-user file in cfg.CredentialsFile is used.
func New(ctx context.Context, cfg Config, opts ...option.ClientOption) (*Scheduler, error) {
	if cfg.CredentialsFile != "" {
		opts = append([]option.ClientOption{
			option.WithCredentialsFile(cfg.CredentialsFile),
			option.WithScopes(gcal.CalendarEventsScope),
		}, opts...)
	}
	if len(opts) == 0 {
		return nil, ErrNoCredentials
	}

	loc := time.Local
	if cfg.TimeZone != "" {
		l, err := time.LoadLocation(cfg.TimeZone)
		if err != nil {
			return nil, fmt.Errorf("calendar time zone: %w", err)
		}
		loc = l
	}

	svc, err := gcal.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create calendar service: %w", err)
	}

	id := cfg.CalendarID
	if id == "" {
		id = "primary"
	}
	return &Scheduler{svc: svc, calendarID: id, loc: loc}, nil
}

// AddPlan schedules doc at start. A zero duration creates an all-day event
// on start's date.
func (s *Scheduler) AddPlan(ctx context.Context, doc *plan.Document, start time.Time, duration time.Duration) (*Event, error) {
	if duration < 0 {
		return nil, fmt.Errorf("calendar: negative duration %s", duration)
	}

	ev := &gcal.Event{
		Summary:     doc.Title,
		Description: describe(doc),
		ExtendedProperties: &gcal.EventExtendedProperties{
			Private: map[string]string{planIDKey: doc.ID},
		},
	}

	start = start.In(s.loc)
	if duration == 0 {
		day := start.Format(time.DateOnly)
		next := start.AddDate(0, 0, 1).Format(time.DateOnly)
		ev.Start = &gcal.EventDateTime{Date: day}
		ev.End = &gcal.EventDateTime{Date: next}
	} else {
		tz := s.loc.String()
		ev.Start = &gcal.EventDateTime{DateTime: start.Format(time.RFC3339), TimeZone: tz}
		ev.End = &gcal.EventDateTime{DateTime: start.Add(duration).Format(time.RFC3339), TimeZone: tz}
	}

	created, err := s.svc.Events.Insert(s.calendarID, ev).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("insert calendar event: %w", err)
	}
	return s.convert(created), nil
}

// Upcoming lists events from now on, soonest first.
func (s *Scheduler) Upcoming(ctx context.Context, limit int) ([]Event, error) {
	if limit <= 0 {
		limit = 50
	}
	res, err := s.svc.Events.List(s.calendarID).
		TimeMin(time.Now().Format(time.RFC3339)).
		ShowDeleted(false).
		SingleEvents(true).
		MaxResults(int64(limit)).
		OrderBy("startTime").
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("list calendar events: %w", err)
	}

	out := make([]Event, 0, len(res.Items))
	for _, item := range res.Items {
		out = append(out, *s.convert(item))
	}
	return out, nil
}

func describe(doc *plan.Document) string {
	switch {
	case doc.Subject != "" && doc.Topic != "":
		return fmt.Sprintf("Lesson plan for %s - %s.", doc.Subject, doc.Topic)
	case doc.Subject != "":
		return fmt.Sprintf("Lesson plan for %s.", doc.Subject)
	}
	return "Lesson plan."
}

func (s *Scheduler) convert(ev *gcal.Event) *Event {
	out := &Event{ID: ev.Id, Summary: ev.Summary, Link: ev.HtmlLink}
	if ev.ExtendedProperties != nil {
		out.PlanID = ev.ExtendedProperties.Private[planIDKey]
	}
	out.Start, out.AllDay = s.parseTime(ev.Start)
	out.End, _ = s.parseTime(ev.End)
	return out
}

func (s *Scheduler) parseTime(dt *gcal.EventDateTime) (time.Time, bool) {
	if dt == nil {
		return time.Time{}, false
	}
	if dt.DateTime != "" {
		t, _ := time.Parse(time.RFC3339, dt.DateTime)
		return t, false
	}
	t, _ := time.ParseInLocation(time.DateOnly, dt.Date, s.loc)
	return t, true
}
