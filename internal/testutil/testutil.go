// Package testutil builds the in-memory stores and fixtures shared by the
// service and handler tests.
package testutil

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	"k8s.io/utils/ptr"

	"github.com/qs-lzh/spotlight/internal/cache"
	"github.com/qs-lzh/spotlight/internal/model"
	"github.com/qs-lzh/spotlight/internal/notify"
)

// NewTestDB opens a migrated in-memory sqlite database with foreign keys
// enforced. A single connection keeps every query on the same in-memory
// database.
func NewTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:?_pragma=foreign_keys(1)"), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, model.AutoMigrate(db))
	return db
}

// NewTestCache starts a miniredis server and a RedisCache pointing at it.
func NewTestCache(t *testing.T) (*cache.RedisCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	c, err := cache.NewRedisCache(mr.Addr())
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })
	return c, mr
}

// RecordingDispatcher keeps every dispatched notification. Setting Err
// makes Dispatch fail without recording.
type RecordingDispatcher struct {
	mu   sync.Mutex
	sent []notify.Notification
	Err  error
}

var _ notify.Dispatcher = (*RecordingDispatcher)(nil)

func (d *RecordingDispatcher) Dispatch(_ context.Context, n notify.Notification) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.Err != nil {
		return d.Err
	}
	d.sent = append(d.sent, n)
	return nil
}

func (d *RecordingDispatcher) Sent() []notify.Notification {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]notify.Notification(nil), d.sent...)
}

// CreateEvent inserts an event whose deadline is deadlineIn from now and
// whose date is a week after that.
func CreateEvent(t *testing.T, db *gorm.DB, slug string, now time.Time, deadlineIn time.Duration) *model.SpotlightEvent {
	t.Helper()
	deadline := now.Add(deadlineIn)
	event := &model.SpotlightEvent{
		Title:              "Spotlight " + slug,
		Slug:               slug,
		EventDate:          deadline.Add(7 * 24 * time.Hour),
		SubmissionDeadline: deadline,
		Status:             model.EventStatusUpcoming,
	}
	require.NoError(t, db.Create(event).Error)
	return event
}

// CreateFilmmaker inserts a directory entry. An empty password leaves the
// entry unclaimed.
func CreateFilmmaker(t *testing.T, db *gorm.DB, name, email, password string, isAdmin bool) *model.Filmmaker {
	t.Helper()
	filmmaker := &model.Filmmaker{
		Name:    name,
		Email:   email,
		IsAdmin: isAdmin,
	}
	if password != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
		require.NoError(t, err)
		filmmaker.PasswordHash = ptr.To(string(hash))
	}
	require.NoError(t, db.Create(filmmaker).Error)
	return filmmaker
}

// CreateSubmission inserts a submission for event with the given status.
func CreateSubmission(t *testing.T, db *gorm.DB, event *model.SpotlightEvent, title string, status model.SubmissionStatus, filmmakerID *uint) *model.Submission {
	t.Helper()
	submission := &model.Submission{
		EventID:        event.ID,
		FilmmakerID:    filmmakerID,
		SubmitterName:  "Sam Reel",
		SubmitterEmail: fmt.Sprintf("%s@example.com", event.Slug),
		FilmTitle:      title,
		FilmGenre:      "Drama",
		FilmLength:     300,
		FilmLink:       "https://vimeo.com/123",
		Status:         status,
	}
	if status == model.SubmissionStatusRejected {
		submission.RejectionReason = ptr.To("not a fit")
	}
	if status != model.SubmissionStatusPending {
		submission.ReviewedAt = ptr.To(event.CreatedAt)
	}
	require.NoError(t, db.Create(submission).Error)
	return submission
}
