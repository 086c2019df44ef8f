package handler

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	clocktesting "k8s.io/utils/clock/testing"

	"github.com/qs-lzh/spotlight/config"
	"github.com/qs-lzh/spotlight/internal/app"
	"github.com/qs-lzh/spotlight/internal/model"
	"github.com/qs-lzh/spotlight/internal/testutil"
)

type testServer struct {
	app        *app.App
	router     *gin.Engine
	mr         *miniredis.Miniredis
	clock      *clocktesting.FakeClock
	dispatcher *testutil.RecordingDispatcher
}

func newTestServer(t *testing.T, cfg *config.Config) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)
	if cfg == nil {
		cfg = &config.Config{Env: "development", JWTSecret: "test-secret", SiteURL: "https://films.example.org"}
	}
	db := testutil.NewTestDB(t)
	redisCache, mr := testutil.NewTestCache(t)
	clk := clocktesting.NewFakeClock(time.Date(2026, 3, 1, 18, 0, 0, 0, time.UTC))
	dispatcher := &testutil.RecordingDispatcher{}

	a, err := app.New(cfg, db, redisCache, nil, zaptest.NewLogger(t), app.WithClock(clk), app.WithDispatcher(dispatcher))
	require.NoError(t, err)
	router, err := NewRouter(a)
	require.NoError(t, err)
	return &testServer{app: a, router: router, mr: mr, clock: clk, dispatcher: dispatcher}
}

func (s *testServer) do(t *testing.T, method, path string, body any, token string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func (s *testServer) tokenFor(t *testing.T, f *model.Filmmaker) string {
	t.Helper()
	token, err := s.app.Tokens.Sign(f.ID, f.Email, f.IsAdmin)
	require.NoError(t, err)
	return token
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func TestRevealContact_RateLimited(t *testing.T) {
	s := newTestServer(t, nil)
	entry := testutil.CreateFilmmaker(t, s.app.DB, "Jo", "jo@example.com", "", false)
	body := RevealContactRequest{FilmmakerID: entry.ID}

	for i := 0; i < revealContactMax; i++ {
		rec := s.do(t, http.MethodPost, "/reveal-contact", body, "")
		require.Equal(t, 200, rec.Code, "request %d", i+1)
	}
	rec := s.do(t, http.MethodPost, "/reveal-contact", body, "")
	require.Equal(t, 429, rec.Code)
	assert.Equal(t, "3600", rec.Header().Get("Retry-After"))
	assert.EqualValues(t, 3600, decode(t, rec)["retryAfter"])

	s.mr.FastForward(revealContactWindow)
	rec = s.do(t, http.MethodPost, "/reveal-contact", body, "")
	require.Equal(t, 200, rec.Code)
	assert.Equal(t, "jo@example.com", decode(t, rec)["email"])
}

func TestRevealContact_CacheDownFailsClosed(t *testing.T) {
	s := newTestServer(t, nil)
	entry := testutil.CreateFilmmaker(t, s.app.DB, "Jo", "jo@example.com", "", false)
	s.mr.Close()

	rec := s.do(t, http.MethodPost, "/reveal-contact", RevealContactRequest{FilmmakerID: entry.ID}, "")
	assert.Equal(t, 503, rec.Code)
}

func TestRevealContact_CacheDownFailsOpenWhenConfigured(t *testing.T) {
	s := newTestServer(t, &config.Config{Env: "development", JWTSecret: "test-secret", RateLimitFailOpen: true})
	entry := testutil.CreateFilmmaker(t, s.app.DB, "Jo", "jo@example.com", "", false)
	s.mr.Close()

	rec := s.do(t, http.MethodPost, "/reveal-contact", RevealContactRequest{FilmmakerID: entry.ID}, "")
	assert.Equal(t, 200, rec.Code)
}

func TestAdminRoutes_RequireAdministrator(t *testing.T) {
	s := newTestServer(t, nil)
	filmmaker := testutil.CreateFilmmaker(t, s.app.DB, "Jo", "jo@example.com", "password1", false)

	rec := s.do(t, http.MethodPost, "/admin/submissions/update-status", map[string]any{"submissionId": 1, "status": "approved"}, "")
	assert.Equal(t, 401, rec.Code)

	rec = s.do(t, http.MethodPost, "/admin/submissions/update-status", map[string]any{"submissionId": 1, "status": "approved"}, s.tokenFor(t, filmmaker))
	assert.Equal(t, 403, rec.Code)

	rec = s.do(t, http.MethodPost, "/admin/submissions/update-status", map[string]any{"submissionId": 1, "status": "approved"}, "not-a-token")
	assert.Equal(t, 401, rec.Code)
}

func TestSubmissionLifecycle_OverHTTP(t *testing.T) {
	s := newTestServer(t, nil)
	admin := testutil.CreateFilmmaker(t, s.app.DB, "Ada", "ada@example.com", "password1", true)
	adminToken := s.tokenFor(t, admin)
	event := testutil.CreateEvent(t, s.app.DB, "spring", s.clock.Now(), time.Hour)

	rec := s.do(t, http.MethodPost, "/submissions", map[string]any{
		"eventId":        event.ID,
		"submitterName":  "Jo Lens",
		"submitterEmail": "jo@example.com",
		"filmTitle":      "Night Bus",
		"filmGenre":      "Drama",
		"filmLength":     "12:30",
		"filmLink":       "https://vimeo.com/1",
	}, "")
	require.Equal(t, 201, rec.Code, rec.Body.String())
	created := decode(t, rec)["submission"].(map[string]any)
	assert.Equal(t, "pending", created["status"])
	id := uint(created["id"].(float64))
	assert.Len(t, s.dispatcher.Sent(), 1)

	rec = s.do(t, http.MethodPost, "/admin/submissions/update-status", map[string]any{"submissionId": id, "status": "rejected"}, adminToken)
	assert.Equal(t, 400, rec.Code)

	rec = s.do(t, http.MethodPost, "/admin/submissions/update-status", map[string]any{"submissionId": id, "status": "bogus"}, adminToken)
	assert.Equal(t, 400, rec.Code)

	rec = s.do(t, http.MethodPost, "/admin/submissions/update-status", map[string]any{"submissionId": 999, "status": "approved"}, adminToken)
	assert.Equal(t, 404, rec.Code)

	rec = s.do(t, http.MethodPost, "/admin/submissions/request-file", map[string]any{"submissionId": id}, adminToken)
	assert.Equal(t, 400, rec.Code)

	rec = s.do(t, http.MethodPost, "/admin/submissions/update-status", map[string]any{"submissionId": id, "status": "approved"}, adminToken)
	require.Equal(t, 200, rec.Code, rec.Body.String())
	assert.NotNil(t, decode(t, rec)["submission"].(map[string]any)["reviewedAt"])

	rec = s.do(t, http.MethodPost, "/admin/submissions/request-file", map[string]any{"submissionId": id}, adminToken)
	require.Equal(t, 200, rec.Code, rec.Body.String())
	assert.Len(t, s.dispatcher.Sent(), 2)

	rec = s.do(t, http.MethodPost, "/admin/reviews/vote", map[string]any{"submissionId": id, "vote": "up"}, adminToken)
	require.Equal(t, 200, rec.Code, rec.Body.String())
	rec = s.do(t, http.MethodPost, "/admin/reviews/vote", map[string]any{"submissionId": id, "vote": "meh"}, adminToken)
	assert.Equal(t, 400, rec.Code)

	rec = s.do(t, http.MethodGet, fmt.Sprintf("/admin/reviews/list?submission_id=%d", id), nil, adminToken)
	require.Equal(t, 200, rec.Code)
	var reviews []map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &reviews))
	require.Len(t, reviews, 1)
	assert.Equal(t, "Ada", reviews[0]["adminName"])

	rec = s.do(t, http.MethodPost, "/admin/submissions/reorder", map[string]any{"order": []any{}}, adminToken)
	assert.Equal(t, 400, rec.Code)
	rec = s.do(t, http.MethodPost, "/admin/submissions/reorder", map[string]any{"order": []any{map[string]any{"id": id, "sortOrder": 3}}}, adminToken)
	require.Equal(t, 200, rec.Code)
	assert.EqualValues(t, 1, decode(t, rec)["updated"])

	rec = s.do(t, http.MethodGet, fmt.Sprintf("/admin/submissions?event_id=%d", event.ID), nil, adminToken)
	require.Equal(t, 200, rec.Code)
	listing := decode(t, rec)
	assert.Equal(t, "00:12:30", listing["approvedRuntime"])
}

func TestCreateSubmission_ErrorStatuses(t *testing.T) {
	s := newTestServer(t, nil)
	event := testutil.CreateEvent(t, s.app.DB, "spring", s.clock.Now(), time.Minute)
	valid := map[string]any{
		"eventId":        event.ID,
		"submitterName":  "Jo Lens",
		"submitterEmail": "jo@example.com",
		"filmTitle":      "Night Bus",
		"filmGenre":      "Drama",
		"filmLength":     "12:30",
		"filmLink":       "https://vimeo.com/1",
	}

	invalid := map[string]any{}
	for k, v := range valid {
		invalid[k] = v
	}
	invalid["filmLength"] = "twelve"
	assert.Equal(t, 400, s.do(t, http.MethodPost, "/submissions", invalid, "").Code)

	unknown := map[string]any{}
	for k, v := range valid {
		unknown[k] = v
	}
	unknown["eventId"] = 999
	assert.Equal(t, 404, s.do(t, http.MethodPost, "/submissions", unknown, "").Code)

	s.clock.Step(2 * time.Minute)
	rec := s.do(t, http.MethodPost, "/submissions", valid, "")
	assert.Equal(t, 400, rec.Code)
	assert.Contains(t, decode(t, rec)["message"], "deadline")

	req := httptest.NewRequest(http.MethodPost, "/submissions", bytes.NewBufferString("{not json"))
	out := httptest.NewRecorder()
	s.router.ServeHTTP(out, req)
	assert.Equal(t, 400, out.Code)
}

func TestEventEndpoints(t *testing.T) {
	s := newTestServer(t, nil)
	admin := testutil.CreateFilmmaker(t, s.app.DB, "Ada", "ada@example.com", "password1", true)
	adminToken := s.tokenFor(t, admin)
	date := s.clock.Now().Add(72 * time.Hour)

	rec := s.do(t, http.MethodPost, "/admin/events", map[string]any{
		"title":              "Autumn Shorts",
		"eventDate":          date,
		"submissionDeadline": date.Add(time.Hour),
	}, adminToken)
	assert.Equal(t, 400, rec.Code)

	rec = s.do(t, http.MethodPost, "/admin/events", map[string]any{
		"title":              "Autumn Shorts",
		"eventDate":          date,
		"submissionDeadline": date.Add(-24 * time.Hour),
	}, adminToken)
	require.Equal(t, 201, rec.Code, rec.Body.String())
	id := uint(decode(t, rec)["event"].(map[string]any)["id"].(float64))

	rec = s.do(t, http.MethodGet, "/events/autumn-shorts", nil, "")
	require.Equal(t, 200, rec.Code)
	assert.Equal(t, true, decode(t, rec)["submissionOpen"])

	testutil.CreateSubmission(t, s.app.DB, &model.SpotlightEvent{ID: id, Slug: "autumn-shorts"}, "A", model.SubmissionStatusPending, nil)
	rec = s.do(t, http.MethodDelete, fmt.Sprintf("/admin/events/%d", id), nil, adminToken)
	assert.Equal(t, 409, rec.Code)

	assert.Equal(t, 404, s.do(t, http.MethodGet, "/events/nope", nil, "").Code)
}

func TestLoginAndAccountRoutes(t *testing.T) {
	s := newTestServer(t, nil)
	testutil.CreateFilmmaker(t, s.app.DB, "Jo", "jo@example.com", "", false)

	rec := s.do(t, http.MethodPost, "/account/claim", map[string]any{"email": "jo@example.com", "password": "long enough"}, "")
	require.Equal(t, 200, rec.Code, rec.Body.String())
	assert.NotEmpty(t, rec.Header().Get("Set-Cookie"))

	rec = s.do(t, http.MethodPost, "/account/claim", map[string]any{"email": "jo@example.com", "password": "long enough"}, "")
	assert.Equal(t, 409, rec.Code)

	rec = s.do(t, http.MethodPost, "/auth/login", map[string]any{"email": "jo@example.com", "password": "wrong password"}, "")
	assert.Equal(t, 401, rec.Code)

	rec = s.do(t, http.MethodPost, "/auth/login", map[string]any{"email": "jo@example.com", "password": "long enough"}, "")
	require.Equal(t, 200, rec.Code)
	token := decode(t, rec)["token"].(string)

	assert.Equal(t, 401, s.do(t, http.MethodGet, "/account/submissions", nil, "").Code)
	assert.Equal(t, 200, s.do(t, http.MethodGet, "/account/submissions", nil, token).Code)
}

func TestBannerAndHealth(t *testing.T) {
	s := newTestServer(t, nil)
	admin := testutil.CreateFilmmaker(t, s.app.DB, "Ada", "ada@example.com", "password1", true)

	rec := s.do(t, http.MethodPost, "/admin/banner", map[string]any{"banner_html": "<p>Hello</p>", "banner_enabled": true}, s.tokenFor(t, admin))
	require.Equal(t, 200, rec.Code, rec.Body.String())

	rec = s.do(t, http.MethodGet, "/banner", nil, "")
	require.Equal(t, 200, rec.Code)
	assert.Equal(t, map[string]any{"html": "<p>Hello</p>", "enabled": true}, decode(t, rec))

	rec = s.do(t, http.MethodGet, "/healthz", nil, "")
	require.Equal(t, 200, rec.Code)
	assert.Equal(t, "ok", decode(t, rec)["cache"])

	s.mr.Close()
	rec = s.do(t, http.MethodGet, "/healthz", nil, "")
	require.Equal(t, 200, rec.Code)
	assert.Equal(t, "unavailable", decode(t, rec)["cache"])

	rec = s.do(t, http.MethodGet, "/banner", nil, "")
	require.Equal(t, 200, rec.Code)
	assert.Equal(t, "<p>Hello</p>", decode(t, rec)["html"])
}

func TestCalendarEndpoints(t *testing.T) {
	s := newTestServer(t, nil)
	admin := testutil.CreateFilmmaker(t, s.app.DB, "Ada", "ada@example.com", "password1", true)
	token := s.tokenFor(t, admin)
	event := testutil.CreateEvent(t, s.app.DB, "spring", s.clock.Now(), time.Hour)

	body := TrackCalendarRequest{EventID: event.ID, ExternalEventID: "gcal-1"}
	require.Equal(t, 200, s.do(t, http.MethodPost, "/admin/calendar", body, token).Code)
	assert.Equal(t, 409, s.do(t, http.MethodPost, "/admin/calendar", body, token).Code)

	rec := s.do(t, http.MethodGet, "/admin/calendar", nil, token)
	require.Equal(t, 200, rec.Code)
	assert.Len(t, decode(t, rec)["events"], 1)

	require.Equal(t, 200, s.do(t, http.MethodDelete, fmt.Sprintf("/admin/calendar/%d", event.ID), nil, token).Code)

	s.mr.Close()
	assert.Equal(t, 503, s.do(t, http.MethodPost, "/admin/calendar", body, token).Code)
}

func TestRequestIDHeader(t *testing.T) {
	s := newTestServer(t, nil)

	rec := s.do(t, http.MethodGet, "/healthz", nil, "")
	assert.NotEmpty(t, rec.Header().Get(requestIDHeader))

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set(requestIDHeader, "abc-123")
	out := httptest.NewRecorder()
	s.router.ServeHTTP(out, req)
	assert.Equal(t, "abc-123", out.Header().Get(requestIDHeader))
}
