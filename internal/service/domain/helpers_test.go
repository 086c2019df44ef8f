package domain

import (
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"go.uber.org/zap/zaptest"
	"gorm.io/gorm"
	clocktesting "k8s.io/utils/clock/testing"

	"github.com/qs-lzh/spotlight/internal/auth"
	"github.com/qs-lzh/spotlight/internal/cache"
	"github.com/qs-lzh/spotlight/internal/repository"
	"github.com/qs-lzh/spotlight/internal/testutil"
)

const testSiteURL = "https://films.example.org"

type fixture struct {
	db         *gorm.DB
	mr         *miniredis.Miniredis
	clock      *clocktesting.FakeClock
	dispatcher *testutil.RecordingDispatcher
	tokens     *auth.TokenIssuer

	submissionRepo repository.SubmissionRepo
	reviewRepo     repository.ReviewRepo

	events      *eventService
	submissions *submissionService
	reviews     *reviewService
	accounts    *accountService
	contacts    *contactService
	banner      *bannerService
	calendar    *calendarService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	logger := zaptest.NewLogger(t)
	db := testutil.NewTestDB(t)
	redisCache, mr := testutil.NewTestCache(t)
	aside := cache.NewAside(redisCache, logger)
	clk := clocktesting.NewFakeClock(time.Date(2026, 3, 1, 18, 0, 0, 0, time.UTC))
	dispatcher := &testutil.RecordingDispatcher{}
	tokens := auth.NewTokenIssuer("test-secret", 0, clk)

	eventRepo := repository.NewEventRepoGorm(db)
	submissionRepo := repository.NewSubmissionRepoGorm(db)
	reviewRepo := repository.NewReviewRepoGorm(db)
	filmmakerRepo := repository.NewFilmmakerRepoGorm(db)
	settingRepo := repository.NewSettingRepoGorm(db)

	events := NewEventService(db, eventRepo, submissionRepo, aside, logger)
	calendar := NewCalendarService(cache.NewCalendarTracker(redisCache), events)
	return &fixture{
		db:             db,
		mr:             mr,
		clock:          clk,
		dispatcher:     dispatcher,
		tokens:         tokens,
		submissionRepo: submissionRepo,
		reviewRepo:     reviewRepo,
		events:         events,
		submissions: NewSubmissionService(submissionRepo, filmmakerRepo, reviewRepo, events,
			dispatcher, clk, logger, testSiteURL+"/"),
		reviews:  NewReviewService(reviewRepo, submissionRepo, clk),
		accounts: NewAccountService(filmmakerRepo, tokens, clk, logger),
		contacts: NewContactService(filmmakerRepo),
		banner:   NewBannerService(settingRepo, aside, clk, logger),
		calendar: calendar,
	}
}

func validSubmitter() SubmitterInfo {
	return SubmitterInfo{Name: "Jo Lens", Email: "Jo@Example.com"}
}

func validFilm() FilmInfo {
	return FilmInfo{
		Title:  "Night Bus",
		Genre:  "Drama",
		Length: "12:30",
		Link:   "https://vimeo.com/1",
	}
}
