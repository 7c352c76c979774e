// Package handlers contains HTTP middleware and handler building blocks.
//
// # Health Checks
//
// Named checks run in parallel. Critical checks decide readiness; optional
// checks only mark the service as degraded:
//
//	checker := handlers.NewCompositeHealthChecker("v1.0.0")
//	checker.AddCheck("database", handlers.NewPingCheck(db))
//	checker.AddOptionalCheck("redis", handlers.NewPingCheck(cache))
//
// # Authentication
//
// Every leaderboard request must carry "Authorization: Bearer <token>".
// The token is either a signed JWT or an opaque session token:
//
//	auth := handlers.ChainAuthenticator{
//	    handlers.NewJWTAuthenticator(secret, issuer),
//	    handlers.NewSessionAuthenticator(sessions),
//	}
//	protected := handlers.RequireCaller(auth, writeAuthError)(leaderboardHandler)
//
// The resolved user id is available through CallerFromContext.
//
// # Middleware
//
//	handler := handlers.ChainHandler(
//	    myHandler,
//	    handlers.SecurityHeadersMiddleware,
//	    handlers.NoCacheMiddleware,
//	)
package handlers
