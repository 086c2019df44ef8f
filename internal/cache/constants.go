package cache

import (
	"errors"
	"fmt"

	redis "github.com/redis/go-redis/v9"
)

// key names definition
// key names in lua script should follow these formats
const (
	RateLimitKey = "rate-limit:%s:%s" // fixed-window counter, first '%s' is the action, second '%s' is the identity (e.g. client ip)

	BannerSettingsKey = "banner:settings" // serialized banner settings

	EventBySlugKey = "spotlight:event:slug:%s" // serialized spotlight event, '%s' is the slug

	CalendarAddedEventsKey  = "calendar:added_events"  // set of event ids already pushed to the external calendar
	CalendarEventMappingKey = "calendar:event_mapping" // hash of event id -> external calendar event id
)

func MakeRateLimitKey(action, identity string) string {
	return fmt.Sprintf("rate-limit:%s:%s", action, identity)
}

func MakeEventBySlugKey(slug string) string {
	return fmt.Sprintf("spotlight:event:slug:%s", slug)
}

// errors
var (
	// ErrCacheUnavailable means the store could not be reached. Callers
	// decide whether that fails their request.
	ErrCacheUnavailable = errors.New("cache unavailable")
	// ErrCacheMiss means the key (or hash field) does not exist.
	ErrCacheMiss = errors.New("cache miss")
)

// lua scripts

// checkAndConsumeScript implements a fixed window counter whose expiry is
// pushed forward on every consumed request. An exhausted window is not
// incremented.
var checkAndConsumeScript = redis.NewScript(`
	-- KEYS[1] = rate-limit:{action}:{identity}

	-- ARGV[1] = max requests in the window
	-- ARGV[2] = window length in seconds

	local current = tonumber(redis.call("GET", KEYS[1]) or "0")
	if current >= tonumber(ARGV[1]) then
		return {0, current}
	end

	current = redis.call("INCR", KEYS[1])
	redis.call("EXPIRE", KEYS[1], ARGV[2])

	return {1, current}
`)
