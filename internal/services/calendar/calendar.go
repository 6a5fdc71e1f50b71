// Package calendar reads and writes the user's Google Calendar.
package calendar

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"slices"
	"time"

	"github.com/benvon/napoleon/internal/models"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	gcal "google.golang.org/api/calendar/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

// DefaultTimeout bounds every calendar API call
const DefaultTimeout = 15 * time.Second

// taskIDProperty links a created event back to its task
const taskIDProperty = "napoleon_task_id"

// Client is the calendar surface used by the today view and the scheduler
type Client interface {
	// EventsBetween lists single events overlapping [start, end) ordered by start time
	EventsBetween(ctx context.Context, start, end time.Time) ([]models.CalendarEvent, error)
	// CreateEvent writes a block for task and returns the new event ID
	CreateEvent(ctx context.Context, task *models.Task, start, end time.Time) (string, error)
	// DeleteEvent removes an event. A missing event is not an error.
	DeleteEvent(ctx context.Context, eventID string) error
}

// GoogleClient is a Google Calendar API client bound to one calendar
type GoogleClient struct {
	srv        *gcal.Service
	calendarID string
	loc        *time.Location
}

// NewGoogleClient authenticates with a service account key file
func NewGoogleClient(ctx context.Context, credentialsFile, calendarID string, loc *time.Location) (*GoogleClient, error) {
	b, err := os.ReadFile(credentialsFile)
	if err != nil {
		return nil, fmt.Errorf("unable to read credentials file %s: %w", credentialsFile, err)
	}
	creds, err := google.CredentialsFromJSON(ctx, b, gcal.CalendarScope)
	if err != nil {
		return nil, fmt.Errorf("unable to parse credentials file: %w", err)
	}

	httpClient := oauth2.NewClient(ctx, creds.TokenSource)
	httpClient.Timeout = DefaultTimeout

	srv, err := gcal.NewService(ctx, option.WithHTTPClient(httpClient))
	if err != nil {
		return nil, fmt.Errorf("unable to create calendar client: %w", err)
	}
	return NewGoogleClientWithService(srv, calendarID, loc), nil
}

// NewGoogleClientWithService wraps an existing service
func NewGoogleClientWithService(srv *gcal.Service, calendarID string, loc *time.Location) *GoogleClient {
	if loc == nil {
		loc = time.UTC
	}
	return &GoogleClient{srv: srv, calendarID: calendarID, loc: loc}
}

func (c *GoogleClient) EventsBetween(ctx context.Context, start, end time.Time) ([]models.CalendarEvent, error) {
	events := make([]models.CalendarEvent, 0)
	err := c.srv.Events.List(c.calendarID).
		Context(ctx).
		TimeMin(start.Format(time.RFC3339)).
		TimeMax(end.Format(time.RFC3339)).
		SingleEvents(true).
		OrderBy("startTime").
		Pages(ctx, func(page *gcal.Events) error {
			for _, item := range page.Items {
				if item.Status == "cancelled" {
					continue
				}
				ev, err := c.toModel(item)
				if err != nil {
					return err
				}
				events = append(events, ev)
			}
			return nil
		})
	if err != nil {
		return nil, wrapError("list calendar events", err)
	}
	return events, nil
}

func (c *GoogleClient) CreateEvent(ctx context.Context, task *models.Task, start, end time.Time) (string, error) {
	event := &gcal.Event{
		Summary:     task.Name,
		Description: fmt.Sprintf("Priority: %s\nTask Type: %s\nNotes: %s", task.Priority, task.TaskType, task.Notes),
		Start:       &gcal.EventDateTime{DateTime: start.In(c.loc).Format(time.RFC3339), TimeZone: c.loc.String()},
		End:         &gcal.EventDateTime{DateTime: end.In(c.loc).Format(time.RFC3339), TimeZone: c.loc.String()},
		ExtendedProperties: &gcal.EventExtendedProperties{
			Private: map[string]string{taskIDProperty: task.ID},
		},
	}
	created, err := c.srv.Events.Insert(c.calendarID, event).Context(ctx).Do()
	if err != nil {
		return "", wrapError("create calendar event", err)
	}
	return created.Id, nil
}

func (c *GoogleClient) DeleteEvent(ctx context.Context, eventID string) error {
	if eventID == "" {
		return nil
	}
	err := c.srv.Events.Delete(c.calendarID, eventID).Context(ctx).Do()
	if err != nil {
		var apiErr *googleapi.Error
		if errors.As(err, &apiErr) && (apiErr.Code == http.StatusNotFound || apiErr.Code == http.StatusGone) {
			return nil
		}
		return wrapError("delete calendar event", err)
	}
	return nil
}

func (c *GoogleClient) toModel(item *gcal.Event) (models.CalendarEvent, error) {
	start, err := c.parseEventTime(item.Start)
	if err != nil {
		return models.CalendarEvent{}, fmt.Errorf("event %s start: %w", item.Id, err)
	}
	end, err := c.parseEventTime(item.End)
	if err != nil {
		return models.CalendarEvent{}, fmt.Errorf("event %s end: %w", item.Id, err)
	}
	return models.CalendarEvent{
		ID:          item.Id,
		Title:       item.Summary,
		Start:       start,
		End:         end,
		Description: item.Description,
	}, nil
}

// parseEventTime reads a timed event, or an all-day event at local midnight
func (c *GoogleClient) parseEventTime(t *gcal.EventDateTime) (time.Time, error) {
	if t == nil {
		return time.Time{}, errors.New("missing time")
	}
	if t.DateTime != "" {
		return time.Parse(time.RFC3339, t.DateTime)
	}
	return time.ParseInLocation(models.DateLayout, t.Date, c.loc)
}

func wrapError(op string, err error) error {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		return &models.NetworkError{Op: op, StatusCode: apiErr.Code, Err: err}
	}
	return &models.NetworkError{Op: op, Err: err}
}

// BusyRanges converts events to the ranges they occupy, sorted by start
func BusyRanges(events []models.CalendarEvent) []models.TimeRange {
	out := make([]models.TimeRange, 0, len(events))
	for _, ev := range events {
		if !ev.End.After(ev.Start) {
			continue
		}
		out = append(out, models.TimeRange{Start: ev.Start, End: ev.End})
	}
	slices.SortStableFunc(out, func(a, b models.TimeRange) int {
		return a.Start.Compare(b.Start)
	})
	return out
}

// Disabled is used when no calendar is configured. It has no events and writes nothing.
type Disabled struct{}

func (Disabled) EventsBetween(context.Context, time.Time, time.Time) ([]models.CalendarEvent, error) {
	return []models.CalendarEvent{}, nil
}

func (Disabled) CreateEvent(context.Context, *models.Task, time.Time, time.Time) (string, error) {
	return "", nil
}

func (Disabled) DeleteEvent(context.Context, string) error {
	return nil
}

var (
	_ Client = (*GoogleClient)(nil)
	_ Client = Disabled{}
)
