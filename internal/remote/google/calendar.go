package google

import (
	"context"
	"fmt"
	"strings"
	"time"

	calendar "google.golang.org/api/calendar/v3"

	"github.com/orbitapp/orbitsync/internal/model"
	"github.com/orbitapp/orbitsync/internal/remote"
)

// primaryCalendar is the Calendar API alias for the user's main calendar.
const primaryCalendar = "primary"

// CalendarAdapter mirrors time slots, and objective deadlines, into
// Google Calendar events.
type CalendarAdapter struct {
	calendarID string
	location   *time.Location
	newService func(ctx context.Context, token string) (*calendar.Service, error)
}

// NewCalendarAdapter creates an adapter targeting the primary calendar in
// the local time zone.
func NewCalendarAdapter() *CalendarAdapter {
	return &CalendarAdapter{
		calendarID: primaryCalendar,
		location:   time.Local,
		newService: func(ctx context.Context, token string) (*calendar.Service, error) {
			return calendar.NewService(ctx, tokenOption(token))
		},
	}
}

// Export creates or updates the event backing a time slot or an objective
// deadline. An objective without an end date has nothing to put on the
// calendar and succeeds without a remote call.
func (a *CalendarAdapter) Export(ctx context.Context, snap model.Snapshot, remoteID, token string) (remote.ExportResult, error) {
	var body *calendar.Event
	switch {
	case snap.TimeSlot != nil:
		var err error
		body, err = a.buildSlotEvent(snap.TimeSlot)
		if err != nil {
			return remote.ExportResult{}, err
		}
	case snap.Objective != nil:
		if snap.Objective.EndDate == "" {
			return remote.ExportResult{RemoteID: remoteID}, nil
		}
		var err error
		body, err = a.buildDeadlineEvent(snap.Objective)
		if err != nil {
			return remote.ExportResult{}, err
		}
	default:
		return remote.ExportResult{}, fmt.Errorf("google calendar adapter received a %s snapshot", snap.Type)
	}

	svc, err := a.newService(ctx, token)
	if err != nil {
		return remote.ExportResult{}, fmt.Errorf("creating calendar service: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, apiTimeout)
	defer cancel()

	var saved *calendar.Event
	if remoteID == "" {
		saved, err = svc.Events.Insert(a.calendarID, body).Context(ctx).Do()
	} else {
		saved, err = svc.Events.Update(a.calendarID, remoteID, body).Context(ctx).Do()
	}
	if err != nil {
		return remote.ExportResult{}, fmt.Errorf("exporting event %q: %w", body.Summary, err)
	}

	return remote.ExportResult{RemoteID: saved.Id}, nil
}

// ImportPending lists the events of the target calendar.
func (a *CalendarAdapter) ImportPending(ctx context.Context, token string) ([]remote.Object, error) {
	svc, err := a.newService(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("creating calendar service: %w", err)
	}

	var out []remote.Object
	err = svc.Events.List(a.calendarID).
		ShowDeleted(false).
		MaxResults(250).
		Pages(ctx, func(page *calendar.Events) error {
			for _, e := range page.Items {
				out = append(out, eventObject(e))
			}
			return nil
		})
	if err != nil {
		return nil, fmt.Errorf("listing calendar events: %w", err)
	}
	return out, nil
}

// buildSlotEvent converts a time slot into a timed calendar event,
// carrying its type as the event color and its recurrence as an RRULE.
func (a *CalendarAdapter) buildSlotEvent(s *model.TimeSlot) (*calendar.Event, error) {
	start, err := a.slotTime(s.Date, s.StartTime)
	if err != nil {
		return nil, fmt.Errorf("time slot %q: %w", s.Title, err)
	}
	end, err := a.slotTime(s.Date, s.EndTime)
	if err != nil {
		return nil, fmt.Errorf("time slot %q: %w", s.Title, err)
	}

	event := &calendar.Event{
		Summary: s.Title,
		Start:   &calendar.EventDateTime{DateTime: start.Format(time.RFC3339)},
		End:     &calendar.EventDateTime{DateTime: end.Format(time.RFC3339)},
		ColorId: colorIDForSlotType(s.Type),
	}

	var desc strings.Builder
	if s.ObjectiveID != "" {
		fmt.Fprintf(&desc, "Goal: %s\n", s.ObjectiveID)
	}
	if s.LifeAreaID != "" {
		fmt.Fprintf(&desc, "Life Area: %s\n", s.LifeAreaID)
	}
	event.Description = strings.TrimSpace(desc.String())

	if s.Recurring != nil {
		event.Recurrence = []string{recurrenceRule(s.Recurring)}
	}

	return event, nil
}

// buildDeadlineEvent converts an objective deadline into a one-hour event
// at 9 AM local time on the end date, with email and popup reminders.
func (a *CalendarAdapter) buildDeadlineEvent(o *model.Objective) (*calendar.Event, error) {
	day, err := time.ParseInLocation("2006-01-02", o.EndDate, a.location)
	if err != nil {
		return nil, fmt.Errorf("objective %q has invalid end date %q: %w", o.Title, o.EndDate, err)
	}
	start := day.Add(9 * time.Hour)
	end := start.Add(time.Hour)

	desc := "Goal deadline for: " + o.Title
	if o.Description != "" {
		desc += "\n" + o.Description
	}

	return &calendar.Event{
		Summary:     "Deadline: " + o.Title,
		Description: desc,
		Start:       &calendar.EventDateTime{DateTime: start.Format(time.RFC3339)},
		End:         &calendar.EventDateTime{DateTime: end.Format(time.RFC3339)},
		Reminders: &calendar.EventReminders{
			UseDefault: false,
			Overrides: []*calendar.EventReminder{
				{Method: "email", Minutes: 24 * 60},
				{Method: "popup", Minutes: 60},
			},
			ForceSendFields: []string{"UseDefault"},
		},
	}, nil
}

func (a *CalendarAdapter) slotTime(date, clock string) (time.Time, error) {
	t, err := time.ParseInLocation("2006-01-02 15:04", date+" "+clock, a.location)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date or time %q %q: %w", date, clock, err)
	}
	return t, nil
}

// colorIDForSlotType maps time slot types onto calendar color ids.
func colorIDForSlotType(slotType string) string {
	switch slotType {
	case "deep-work":
		return "9" // blue
	case "goal-work":
		return "10" // green
	case "life-area":
		return "11" // yellow
	case "meeting":
		return "6" // orange
	case "personal":
		return "3" // purple
	default:
		return "1"
	}
}

// recurrenceRule builds the RRULE line for a recurring time slot.
func recurrenceRule(r *model.Recurrence) string {
	rule := "RRULE:FREQ=" + strings.ToUpper(r.Frequency)
	if r.EndDate != "" {
		rule += ";UNTIL=" + strings.ReplaceAll(r.EndDate, "-", "")
	}
	return rule
}

func eventObject(e *calendar.Event) remote.Object {
	obj := remote.Object{
		"id":      e.Id,
		"summary": e.Summary,
	}
	if e.Description != "" {
		obj["description"] = e.Description
	}
	if e.Start != nil {
		obj["start"] = eventBoundary(e.Start)
	}
	if e.End != nil {
		obj["end"] = eventBoundary(e.End)
	}
	if e.Updated != "" {
		obj["updated"] = e.Updated
	}
	return obj
}

func eventBoundary(b *calendar.EventDateTime) map[string]any {
	m := map[string]any{}
	if b.DateTime != "" {
		m["dateTime"] = b.DateTime
	}
	if b.Date != "" {
		m["date"] = b.Date
	}
	return m
}
