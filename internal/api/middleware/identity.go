package middleware

import (
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/parrotdeck/srs-api/internal/api/shared"
)

// UserIDHeader carries the caller's identity, set by the API gateway after
// it has authenticated the request. This service trusts the header and
// performs no authentication of its own.
const UserIDHeader = "X-User-ID"

// IdentityMiddleware extracts the user ID from the gateway-supplied header
// and stores it in the request context. Requests without a valid header are
// rejected with 401.
func IdentityMiddleware(logger *slog.Logger) func(http.Handler) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}
	log := logger.With(slog.String("component", "identity_middleware"))

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := r.Header.Get(UserIDHeader)
			if raw == "" {
				log.Debug("missing user ID header",
					slog.String("path", r.URL.Path),
					slog.String("method", r.Method))
				shared.RespondWithError(w, r, http.StatusUnauthorized, "User identity required")
				return
			}

			userID, err := uuid.Parse(raw)
			if err != nil || userID == uuid.Nil {
				log.Warn("malformed user ID header",
					slog.String("path", r.URL.Path),
					slog.String("method", r.Method))
				shared.RespondWithError(w, r, http.StatusUnauthorized, "Invalid user identity")
				return
			}

			ctx := shared.SetUserID(r.Context(), userID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
