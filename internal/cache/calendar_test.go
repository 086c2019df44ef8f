package cache

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCalendarTracker(t *testing.T) {
	ctx := context.Background()
	c, mr := newTestCache(t)
	tracker := NewCalendarTracker(c)

	added, err := tracker.IsEventAdded(ctx, 7)
	require.NoError(t, err)
	assert.False(t, added)

	added, err = tracker.MarkEventAdded(ctx, 7, "gcal-abc")
	require.NoError(t, err)
	assert.True(t, added)
	added, err = tracker.MarkEventAdded(ctx, 3, "gcal-def")
	require.NoError(t, err)
	assert.True(t, added)

	added, err = tracker.IsEventAdded(ctx, 7)
	require.NoError(t, err)
	assert.True(t, added)

	ids, err := tracker.AddedEventIDs(ctx)
	require.NoError(t, err)
	assert.Equal(t, []uint{3, 7}, ids)

	externalID, ok, err := tracker.ExternalEventID(ctx, 7)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "gcal-abc", externalID)

	require.NoError(t, tracker.RemoveEventTracking(ctx, 7))
	_, ok, err = tracker.ExternalEventID(ctx, 7)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, "gcal-def", mr.HGet(CalendarEventMappingKey, "3"))

	ids, err = tracker.AddedEventIDs(ctx)
	require.NoError(t, err)
	assert.Equal(t, []uint{3}, ids)
}

func TestCalendarTracker_CacheDown(t *testing.T) {
	c, mr := newTestCache(t)
	mr.Close()

	_, err := NewCalendarTracker(c).MarkEventAdded(context.Background(), 1, "x")
	assert.ErrorIs(t, err, ErrCacheUnavailable)
}

func TestCalendarTracker_MarkEventAddedKeepsFirstMapping(t *testing.T) {
	ctx := context.Background()
	c, _ := newTestCache(t)
	tracker := NewCalendarTracker(c)

	var wg sync.WaitGroup
	var wins atomic.Int32
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			added, err := tracker.MarkEventAdded(ctx, 5, fmt.Sprintf("gcal-%d", i))
			assert.NoError(t, err)
			if added {
				wins.Add(1)
			}
		}(i)
	}
	wg.Wait()
	assert.EqualValues(t, 1, wins.Load())

	first, ok, err := tracker.ExternalEventID(ctx, 5)
	require.NoError(t, err)
	require.True(t, ok)

	added, err := tracker.MarkEventAdded(ctx, 5, "gcal-late")
	require.NoError(t, err)
	assert.False(t, added)
	externalID, _, err := tracker.ExternalEventID(ctx, 5)
	require.NoError(t, err)
	assert.Equal(t, first, externalID)
}
