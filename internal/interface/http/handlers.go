package http

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/alem-hub/focus-leaderboard/internal/application/query"
	"github.com/alem-hub/focus-leaderboard/internal/domain/shared"
	"github.com/alem-hub/focus-leaderboard/internal/interface/http/handlers"
	"github.com/alem-hub/focus-leaderboard/pkg/circuitbreaker"
	"github.com/alem-hub/focus-leaderboard/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// HEALTH & STATUS HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

// handleRoot serves basic API information.
func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, map[string]any{
		"name":    "Focus Leaderboard API",
		"version": s.config.Version,
		"endpoints": map[string]string{
			"health":      "/health",
			"ready":       "/ready",
			"leaderboard": "/api/v1/leaderboard",
		},
	})
}

// handleHealth runs every registered check.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.deps.HealthChecker == nil {
		writeJSON(w, r, http.StatusOK, map[string]any{
			"status":  "healthy",
			"uptime":  s.Uptime().String(),
			"version": s.config.Version,
		})
		return
	}

	status := s.deps.HealthChecker.Check(r.Context())
	code := http.StatusOK
	if !status.Healthy {
		code = http.StatusServiceUnavailable
	}
	writeJSON(w, r, code, status)
}

// handleReady is the readiness probe: only critical checks matter.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.deps.HealthChecker != nil {
		status := s.deps.HealthChecker.Check(r.Context())
		if !status.Ready {
			writeJSON(w, r, http.StatusServiceUnavailable, map[string]string{
				"status": "not_ready",
				"reason": status.Message,
			})
			return
		}
	}
	writeJSON(w, r, http.StatusOK, map[string]string{"status": "ready"})
}

// handleLive is the liveness probe.
func (s *Server) handleLive(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, map[string]string{"status": "alive"})
}

// ══════════════════════════════════════════════════════════════════════════════
// LEADERBOARD HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

// handleGetLeaderboard handles
// GET /api/v1/leaderboard?metric=&period=&scope=&country=&limit=
func (s *Server) handleGetLeaderboard(w http.ResponseWriter, r *http.Request) {
	callerID, ok := handlers.CallerFromContext(r.Context())
	if !ok {
		s.writeQueryError(w, r, shared.ErrNoCaller)
		return
	}

	q, err := parseLeaderboardQuery(r, callerID)
	if err != nil {
		s.writeQueryError(w, r, err)
		return
	}

	result, err := s.deps.Leaderboard.Handle(r.Context(), q)
	if err != nil {
		s.writeQueryError(w, r, err)
		return
	}

	writeRaw(w, http.StatusOK, result)
}

func parseLeaderboardQuery(r *http.Request, callerID string) (query.GetLeaderboardQuery, error) {
	params := r.URL.Query()
	q := query.GetLeaderboardQuery{
		CallerID: callerID,
		Metric:   strings.TrimSpace(params.Get("metric")),
		Period:   strings.TrimSpace(params.Get("period")),
		Scope:    strings.TrimSpace(params.Get("scope")),
		Country:  strings.TrimSpace(params.Get("country")),
	}

	if raw := strings.TrimSpace(params.Get("limit")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return q, shared.ErrInvalidLimit.WithValue(raw)
		}
		q.Limit = n
	}
	return q, nil
}

// statusClientClosedRequest is the nginx convention for an aborted request.
const statusClientClosedRequest = 499

// writeQueryError maps the error taxonomy onto HTTP statuses.
func (s *Server) writeQueryError(w http.ResponseWriter, r *http.Request, err error) {
	log := logger.FromContext(r.Context())

	var de *shared.DomainError
	errors.As(err, &de)

	switch {
	case shared.IsUnauthorized(err):
		w.Header().Set("WWW-Authenticate", "Bearer")
		writeJSONError(w, r, http.StatusUnauthorized, "unauthenticated", "Authentication required", "")

	case shared.IsInvalidInput(err):
		message, details := err.Error(), ""
		if de != nil {
			message, details = de.Message, de.Value
		}
		writeJSONError(w, r, http.StatusBadRequest, "invalid_request", message, details)

	case errors.Is(err, circuitbreaker.ErrCircuitOpen), errors.Is(err, circuitbreaker.ErrTooManyRequests):
		log.Warn("leaderboard store unavailable", logger.Err(err))
		w.Header().Set("Retry-After", "10")
		writeJSONError(w, r, http.StatusServiceUnavailable, "store_unavailable", "Leaderboard temporarily unavailable", err.Error())

	case errors.Is(err, context.Canceled):
		// client went away; nobody reads the body
		log.Info("leaderboard request abandoned by client", logger.Err(err))
		w.WriteHeader(statusClientClosedRequest)

	case errors.Is(err, context.DeadlineExceeded):
		log.Warn("leaderboard query timed out", logger.Err(err))
		writeJSONError(w, r, http.StatusGatewayTimeout, "timeout", "Leaderboard query timed out", err.Error())

	default:
		log.Error("failed to get leaderboard", logger.Err(err))
		writeJSONError(w, r, http.StatusInternalServerError, "store_failure", "Failed to load leaderboard", err.Error())
	}
}

// writeAuthError answers requests rejected by the authenticator.
func (s *Server) writeAuthError(w http.ResponseWriter, r *http.Request, err error) {
	if shared.IsUnauthorized(err) {
		w.Header().Set("WWW-Authenticate", "Bearer")
		writeJSONError(w, r, http.StatusUnauthorized, "unauthenticated", "Authentication required", "")
		return
	}
	logger.FromContext(r.Context()).Warn("authentication backend failed", logger.Err(err))
	writeJSONError(w, r, http.StatusServiceUnavailable, "auth_unavailable", "Could not verify credentials", "")
}
