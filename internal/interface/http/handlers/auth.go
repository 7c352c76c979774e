package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/alem-hub/focus-leaderboard/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// AUTHENTICATION
// ══════════════════════════════════════════════════════════════════════════════

var (
	// ErrMissingToken is returned when the request carries no credentials.
	ErrMissingToken = shared.NewDomainError("auth", "Authenticate", shared.ErrUnauthorized, "missing bearer token")

	// ErrInvalidToken is returned for malformed, expired or unknown tokens.
	ErrInvalidToken = shared.NewDomainError("auth", "Authenticate", shared.ErrUnauthorized, "invalid token")
)

// Authenticator resolves a bearer token to a user id.
//
// Implementations return an error matching shared.ErrUnauthorized when the
// token is not theirs or not valid. Any other error means the backing
// service could not answer.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (string, error)
}

// BearerToken extracts the token from "Authorization: Bearer <token>".
func BearerToken(r *http.Request) string {
	h := strings.TrimSpace(r.Header.Get("Authorization"))
	if len(h) < 7 || !strings.EqualFold(h[:7], "bearer ") {
		return ""
	}
	return strings.TrimSpace(h[7:])
}

// ──────────────────────────────────────────────────────────────────────────────
// JWT
// ──────────────────────────────────────────────────────────────────────────────

// JWTAuthenticator validates HS256 access tokens; the user id is the subject.
type JWTAuthenticator struct {
	secret []byte
	parser *jwt.Parser
}

// NewJWTAuthenticator creates a validator for tokens signed with secret.
// An empty issuer disables the issuer check.
func NewJWTAuthenticator(secret, issuer string) *JWTAuthenticator {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithLeeway(30 * time.Second),
	}
	if issuer != "" {
		opts = append(opts, jwt.WithIssuer(issuer))
	}
	return &JWTAuthenticator{
		secret: []byte(secret),
		parser: jwt.NewParser(opts...),
	}
}

// Authenticate implements Authenticator.
func (a *JWTAuthenticator) Authenticate(_ context.Context, token string) (string, error) {
	if token == "" {
		return "", ErrMissingToken
	}

	claims := &jwt.RegisteredClaims{}
	_, err := a.parser.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return a.secret, nil
	})
	if err != nil {
		return "", ErrInvalidToken.WithValue(jwtReason(err))
	}

	sub := strings.TrimSpace(claims.Subject)
	if sub == "" {
		return "", ErrInvalidToken.WithValue("no subject")
	}
	return sub, nil
}

func jwtReason(err error) string {
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return "expired"
	case errors.Is(err, jwt.ErrTokenMalformed):
		return "malformed"
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return "bad signature"
	case errors.Is(err, jwt.ErrTokenInvalidIssuer):
		return "wrong issuer"
	default:
		return "rejected"
	}
}

// IssueToken signs an access token for userID. Used by tests and local tooling.
func IssueToken(secret, issuer, userID string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   userID,
		Issuer:    issuer,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

// ──────────────────────────────────────────────────────────────────────────────
// SESSION TOKENS
// ──────────────────────────────────────────────────────────────────────────────

// SessionLookup resolves opaque session tokens.
type SessionLookup interface {
	Lookup(ctx context.Context, token string) (string, error)
}

// SessionAuthenticator accepts opaque session tokens.
type SessionAuthenticator struct {
	sessions SessionLookup
}

// NewSessionAuthenticator creates a SessionAuthenticator.
func NewSessionAuthenticator(sessions SessionLookup) *SessionAuthenticator {
	return &SessionAuthenticator{sessions: sessions}
}

// Authenticate implements Authenticator.
func (a *SessionAuthenticator) Authenticate(ctx context.Context, token string) (string, error) {
	if token == "" {
		return "", ErrMissingToken
	}
	userID, err := a.sessions.Lookup(ctx, token)
	if err != nil {
		if shared.IsUnauthorized(err) {
			return "", ErrInvalidToken
		}
		return "", err
	}
	return userID, nil
}

// ──────────────────────────────────────────────────────────────────────────────
// CHAIN
// ──────────────────────────────────────────────────────────────────────────────

// ChainAuthenticator tries each authenticator in order.
type ChainAuthenticator []Authenticator

// Authenticate returns the first success. When none succeeds, a backend
// error wins over a plain rejection so the caller can tell them apart.
func (c ChainAuthenticator) Authenticate(ctx context.Context, token string) (string, error) {
	if token == "" {
		return "", ErrMissingToken
	}

	var backendErr error
	for _, a := range c {
		userID, err := a.Authenticate(ctx, token)
		if err == nil {
			return userID, nil
		}
		if !shared.IsUnauthorized(err) && backendErr == nil {
			backendErr = err
		}
	}
	if backendErr != nil {
		return "", backendErr
	}
	return "", ErrInvalidToken
}

// ──────────────────────────────────────────────────────────────────────────────
// CONTEXT
// ──────────────────────────────────────────────────────────────────────────────

// ContextKey is a type for context keys.
type ContextKey string

// ContextKeyUserID is the context key for the authenticated user id.
const ContextKeyUserID ContextKey = "user_id"

// WithCaller stores the authenticated user id.
func WithCaller(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, ContextKeyUserID, userID)
}

// CallerFromContext returns the authenticated user id, if any.
func CallerFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(ContextKeyUserID).(string)
	return id, ok && id != ""
}

// AuthErrorFunc writes the response for a failed authentication.
type AuthErrorFunc func(w http.ResponseWriter, r *http.Request, err error)

// RequireCaller rejects requests without a valid token before next runs.
func RequireCaller(auth Authenticator, onError AuthErrorFunc) MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID, err := auth.Authenticate(r.Context(), BearerToken(r))
			if err != nil {
				onError(w, r, err)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithCaller(r.Context(), userID)))
		})
	}
}
