package admin

import (
	"context"
	"crypto/subtle"
	"log/slog"
	"net/http"

	request "custodian/pkg/platform/middleware/request"
)

// DefaultActor attributes admin actions when no X-Admin-Actor-ID header is sent.
const DefaultActor = "admin"

type contextKeyAdminActorID struct{}

// ContextKeyAdminActorID is exported for use in handlers and tests.
var ContextKeyAdminActorID = contextKeyAdminActorID{}

// GetAdminActorID retrieves the admin actor identifier from the context.
// Returns empty string if not set or if this is not an admin request.
func GetAdminActorID(ctx context.Context) string {
	if actorID, ok := ctx.Value(ContextKeyAdminActorID).(string); ok {
		return actorID
	}
	return ""
}

// RequireAdminToken rejects requests whose X-Admin-Token does not match.
// An empty expected token disables the admin surface entirely.
func RequireAdminToken(expectedToken string, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			token := r.Header.Get("X-Admin-Token")
			if expectedToken == "" || subtle.ConstantTimeCompare([]byte(token), []byte(expectedToken)) != 1 {
				logger.WarnContext(ctx, "admin token mismatch",
					"request_id", request.GetRequestID(ctx),
					"path", r.URL.Path,
				)
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnauthorized)
				_, _ = w.Write([]byte(`{"error":"unauthorized","error_description":"admin token required"}`))
				return
			}

			actorID := r.Header.Get("X-Admin-Actor-ID")
			if actorID == "" {
				actorID = DefaultActor
			}
			ctx = context.WithValue(ctx, ContextKeyAdminActorID, actorID)

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
