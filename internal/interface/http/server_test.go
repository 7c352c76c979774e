package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alem-hub/focus-leaderboard/internal/application/query"
	"github.com/alem-hub/focus-leaderboard/internal/domain/profile"
	"github.com/alem-hub/focus-leaderboard/internal/domain/shared"
	"github.com/alem-hub/focus-leaderboard/internal/infrastructure/persistence/memory"
	"github.com/alem-hub/focus-leaderboard/internal/interface/http/handlers"
	"github.com/alem-hub/focus-leaderboard/pkg/circuitbreaker"
	"github.com/alem-hub/focus-leaderboard/pkg/logger"
	"github.com/alem-hub/focus-leaderboard/pkg/timeutil"
)

const (
	testSecret = "test-secret"
	testIssuer = "focus-hub"
)

type stubQuerier struct {
	calls  atomic.Int32
	result *query.GetLeaderboardResult
	err    error
	last   query.GetLeaderboardQuery
}

func (s *stubQuerier) Handle(_ context.Context, q query.GetLeaderboardQuery) (*query.GetLeaderboardResult, error) {
	s.calls.Add(1)
	s.last = q
	return s.result, s.err
}

func newTestServer(t *testing.T, querier LeaderboardQuerier, mutate ...func(*Config, *Dependencies)) *Server {
	t.Helper()
	cfg := DefaultConfig()
	cfg.RateLimitPerMinute = 0
	deps := Dependencies{
		Leaderboard:   querier,
		Authenticator: handlers.NewJWTAuthenticator(testSecret, testIssuer),
		Logger:        logger.Nop(),
	}
	for _, m := range mutate {
		m(&cfg, &deps)
	}
	s, err := NewServer(cfg, deps)
	require.NoError(t, err)
	return s
}

func authedRequest(t *testing.T, target, userID string) *http.Request {
	t.Helper()
	token, err := handlers.IssueToken(testSecret, testIssuer, userID, time.Hour)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodGet, target, nil)
	req.Header.Set("Authorization", "Bearer "+token)
	return req
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) APIError {
	t.Helper()
	var body JSONResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	require.NotNil(t, body.Error)
	assert.False(t, body.Success)
	return *body.Error
}

func TestLeaderboard_RequiresAuthentication(t *testing.T) {
	q := &stubQuerier{}
	s := newTestServer(t, q)

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/leaderboard", nil))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Bearer", rec.Header().Get("WWW-Authenticate"))
	assert.Equal(t, "unauthenticated", decodeError(t, rec).Code)
	assert.Zero(t, q.calls.Load())
}

func TestLeaderboard_RejectsBadToken(t *testing.T) {
	q := &stubQuerier{}
	s := newTestServer(t, q)

	token, err := handlers.IssueToken("other-secret", testIssuer, "u1", time.Hour)
	require.NoError(t, err)

	for _, header := range []string{"Bearer " + token, "Bearer not-a-jwt", "Basic abc"} {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/leaderboard", nil)
		req.Header.Set("Authorization", header)
		rec := httptest.NewRecorder()
		s.Handler().ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code, header)
	}
	assert.Zero(t, q.calls.Load())
}

func TestLeaderboard_PassesParameters(t *testing.T) {
	q := &stubQuerier{result: &query.GetLeaderboardResult{
		Leaderboard:        []query.LeaderboardEntryDTO{},
		AvailableCountries: []string{},
	}}
	s := newTestServer(t, q)

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, authedRequest(t,
		"/api/v1/leaderboard?metric=streak&period=week&scope=country&country=KZ&limit=10", "caller-1"))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, query.GetLeaderboardQuery{
		CallerID: "caller-1",
		Metric:   "streak",
		Period:   "week",
		Scope:    "country",
		Country:  "KZ",
		Limit:    10,
	}, q.last)
	assert.Equal(t, "no-store, private", rec.Header().Get("Cache-Control"))
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}

func TestLeaderboard_NonNumericLimit(t *testing.T) {
	q := &stubQuerier{}
	s := newTestServer(t, q)

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, authedRequest(t, "/api/v1/leaderboard?limit=ten", "u1"))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	apiErr := decodeError(t, rec)
	assert.Equal(t, "invalid_request", apiErr.Code)
	assert.Equal(t, "ten", apiErr.Details)
	assert.Zero(t, q.calls.Load())
}

func TestLeaderboard_ErrorMapping(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"store failure", shared.StoreFailure("leaderboard", "Aggregate", errors.New("connection reset")), http.StatusInternalServerError, "store_failure"},
		{"circuit open", shared.StoreFailure("leaderboard", "Aggregate", circuitbreaker.ErrCircuitOpen), http.StatusServiceUnavailable, "store_unavailable"},
		{"timeout", shared.StoreFailure("leaderboard", "Aggregate", context.DeadlineExceeded), http.StatusGatewayTimeout, "timeout"},
		{"unknown scope", shared.ErrUnknownScope.WithValue("galaxy"), http.StatusBadRequest, "invalid_request"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestServer(t, &stubQuerier{err: tt.err})
			rec := httptest.NewRecorder()
			s.Handler().ServeHTTP(rec, authedRequest(t, "/api/v1/leaderboard", "u1"))

			assert.Equal(t, tt.status, rec.Code)
			apiErr := decodeError(t, rec)
			assert.Equal(t, tt.code, apiErr.Code)
			if tt.status >= 500 {
				assert.NotEmpty(t, apiErr.Details)
			}
		})
	}
}

func TestLeaderboard_ClientAbort(t *testing.T) {
	s := newTestServer(t, &stubQuerier{err: shared.StoreFailure("leaderboard", "Aggregate", context.Canceled)})
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, authedRequest(t, "/api/v1/leaderboard", "u1"))

	assert.Equal(t, statusClientClosedRequest, rec.Code)
	assert.Zero(t, rec.Body.Len())
}

func TestLeaderboard_EndToEnd(t *testing.T) {
	store := memory.NewStore()
	store.PutProfile(profile.UserProfile{ID: "alice", Name: "Alice", Level: 3, XP: 40, Country: "KZ"})
	store.PutProfile(profile.UserProfile{ID: "bob", Name: "Bob", Level: 2, XP: 90, Country: "DE"})
	store.PutProfile(profile.UserProfile{ID: "carol", Name: "Carol", Level: 5, XP: 0, Country: "KZ"})

	h := query.NewGetLeaderboardHandler(store.Stores(),
		query.WithClock(timeutil.NewFixedClock(time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC))),
		query.WithLogger(logger.Nop()),
	)
	s := newTestServer(t, h)

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, authedRequest(t, "/api/v1/leaderboard?limit=2", "bob"))
	require.Equal(t, http.StatusOK, rec.Code)

	var result query.GetLeaderboardResult
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&result))

	require.Len(t, result.Leaderboard, 2)
	assert.Equal(t, "carol", result.Leaderboard[0].UserID)
	assert.Equal(t, "alice", result.Leaderboard[1].UserID)
	assert.Equal(t, "240 XP", result.Leaderboard[1].DisplayValue)
	assert.Equal(t, 2, result.TotalUsers)
	assert.Equal(t, []string{"DE", "KZ"}, result.AvailableCountries)

	require.NotNil(t, result.CurrentUser)
	assert.Equal(t, "bob", result.CurrentUser.UserID)
	assert.Equal(t, 3, result.CurrentUser.Rank)

	rec = httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, authedRequest(t, "/api/v1/leaderboard?metric=karma", "bob"))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "karma", decodeError(t, rec).Details)
}

type staticChecker struct {
	status handlers.HealthStatus
}

func (c staticChecker) Check(context.Context) handlers.HealthStatus { return c.status }

func TestHealthEndpoints(t *testing.T) {
	checker := handlers.NewCompositeHealthChecker("test")
	checker.AddCheck("database", func(context.Context) error { return nil })
	checker.AddOptionalCheck("redis", func(context.Context) error { return errors.New("down") })

	s := newTestServer(t, &stubQuerier{}, func(_ *Config, d *Dependencies) {
		d.HealthChecker = checker
	})

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	rec = httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/live", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	notReady := newTestServer(t, &stubQuerier{}, func(_ *Config, d *Dependencies) {
		d.HealthChecker = staticChecker{status: handlers.HealthStatus{Message: "database down"}}
	})
	rec = httptest.NewRecorder()
	notReady.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestRateLimit(t *testing.T) {
	s := newTestServer(t, &stubQuerier{}, func(c *Config, _ *Dependencies) {
		c.RateLimitPerMinute = 2
	})

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodGet, "/live", nil)
		req.RemoteAddr = "10.0.0.7:5555"
		rec := httptest.NewRecorder()
		s.Handler().ServeHTTP(rec, req)
		codes = append(codes, rec.Code)
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)
}

func TestRecoveryMiddleware(t *testing.T) {
	s := newTestServer(t, &stubQuerier{})
	h := s.recoveryMiddleware(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestNewServer_RequiresDependencies(t *testing.T) {
	_, err := NewServer(DefaultConfig(), Dependencies{})
	assert.Error(t, err)

	_, err = NewServer(DefaultConfig(), Dependencies{Leaderboard: &stubQuerier{}})
	assert.Error(t, err)
}
