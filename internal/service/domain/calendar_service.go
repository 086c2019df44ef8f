package domain

import (
	"context"
	"fmt"
	"strings"

	"github.com/qs-lzh/spotlight/internal/cache"
	"github.com/qs-lzh/spotlight/internal/service"
)

type CalendarEntry struct {
	EventID         uint   `json:"eventId"`
	ExternalEventID string `json:"externalEventId"`
}

// CalendarService keeps track of which events were pushed to the
// external calendar. The tracking lives only in the cache; losing it means
// an event may be offered for adding again.
type CalendarService interface {
	Track(ctx context.Context, eventID uint, externalEventID string) error
	Untrack(ctx context.Context, eventID uint) error
	List(ctx context.Context) ([]CalendarEntry, error)
}

type calendarService struct {
	tracker *cache.CalendarTracker
	events  EventService
}

var _ CalendarService = (*calendarService)(nil)

func NewCalendarService(tracker *cache.CalendarTracker, events EventService) *calendarService {
	return &calendarService{
		tracker: tracker,
		events:  events,
	}
}

func (s *calendarService) Track(ctx context.Context, eventID uint, externalEventID string) error {
	externalEventID = strings.TrimSpace(externalEventID)
	if eventID == 0 || externalEventID == "" {
		return service.Invalid("event ID and external event ID are required")
	}
	if _, err := s.events.GetEventByID(ctx, eventID); err != nil {
		return err
	}
	added, err := s.tracker.MarkEventAdded(ctx, eventID, externalEventID)
	if err != nil {
		return err
	}
	if !added {
		return fmt.Errorf("%w: event has already been added to calendar", service.ErrConflict)
	}
	return nil
}

func (s *calendarService) Untrack(ctx context.Context, eventID uint) error {
	if eventID == 0 {
		return service.Invalid("event ID is required")
	}
	return s.tracker.RemoveEventTracking(ctx, eventID)
}

// List returns tracked events in ascending event id order. Events whose
// mapping entry is gone are listed with an empty external id.
func (s *calendarService) List(ctx context.Context) ([]CalendarEntry, error) {
	ids, err := s.tracker.AddedEventIDs(ctx)
	if err != nil {
		return nil, err
	}
	entries := make([]CalendarEntry, 0, len(ids))
	for _, id := range ids {
		externalID, _, err := s.tracker.ExternalEventID(ctx, id)
		if err != nil {
			return nil, err
		}
		entries = append(entries, CalendarEntry{EventID: id, ExternalEventID: externalID})
	}
	return entries, nil
}
