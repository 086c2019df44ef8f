package cache

import (
	"context"
	"errors"
	"sort"
	"strconv"

	redis "github.com/redis/go-redis/v9"
)

// CalendarTracker remembers which spotlight events were already pushed to
// the external calendar so they are not added twice.
type CalendarTracker struct {
	cache Cache
}

func NewCalendarTracker(cache Cache) *CalendarTracker {
	return &CalendarTracker{
		cache: cache,
	}
}

func (t *CalendarTracker) IsEventAdded(ctx context.Context, eventID uint) (bool, error) {
	return t.cache.SIsMember(ctx, CalendarAddedEventsKey, formatID(eventID))
}

// MarkEventAdded records the event and its external id in one batch.
// added is false when the event was already tracked; the stored external
// id is then left as it was.
func (t *CalendarTracker) MarkEventAdded(ctx context.Context, eventID uint, externalID string) (added bool, err error) {
	id := formatID(eventID)
	var sadd *redis.IntCmd
	err = t.cache.Multi(ctx, func(pipe redis.Pipeliner) error {
		sadd = pipe.SAdd(ctx, CalendarAddedEventsKey, id)
		pipe.HSetNX(ctx, CalendarEventMappingKey, id, externalID)
		return nil
	})
	if err != nil {
		return false, err
	}
	return sadd.Val() == 1, nil
}

// AddedEventIDs lists tracked event ids in ascending order. Members that
// aren't numeric are skipped.
func (t *CalendarTracker) AddedEventIDs(ctx context.Context) ([]uint, error) {
	members, err := t.cache.SMembers(ctx, CalendarAddedEventsKey)
	if err != nil {
		return nil, err
	}
	ids := make([]uint, 0, len(members))
	for _, m := range members {
		id, err := strconv.ParseUint(m, 10, 64)
		if err != nil {
			continue
		}
		ids = append(ids, uint(id))
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

// ExternalEventID returns the external calendar id of an event; ok is
// false when the event is not tracked.
func (t *CalendarTracker) ExternalEventID(ctx context.Context, eventID uint) (externalID string, ok bool, err error) {
	externalID, err = t.cache.HGet(ctx, CalendarEventMappingKey, formatID(eventID))
	if errors.Is(err, ErrCacheMiss) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return externalID, true, nil
}

func (t *CalendarTracker) RemoveEventTracking(ctx context.Context, eventID uint) error {
	id := formatID(eventID)
	return t.cache.Multi(ctx, func(pipe redis.Pipeliner) error {
		pipe.SRem(ctx, CalendarAddedEventsKey, id)
		pipe.HDel(ctx, CalendarEventMappingKey, id)
		return nil
	})
}

func formatID(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}
