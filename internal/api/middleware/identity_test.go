package middleware

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/parrotdeck/srs-api/internal/api/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIdentityMiddleware(t *testing.T) {
	t.Parallel()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	t.Run("valid header reaches the handler with user ID in context", func(t *testing.T) {
		t.Parallel()

		userID := uuid.New()
		var gotUserID uuid.UUID
		var gotOK bool

		handler := IdentityMiddleware(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotUserID, gotOK = shared.GetUserID(r.Context())
			w.WriteHeader(http.StatusOK)
		}))

		req := httptest.NewRequest(http.MethodGet, "/api/cards/due", nil)
		req.Header.Set(UserIDHeader, userID.String())
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		require.True(t, gotOK)
		assert.Equal(t, userID, gotUserID)
	})

	t.Run("rejected requests never reach the handler", func(t *testing.T) {
		t.Parallel()

		tests := []struct {
			name   string
			header string
		}{
			{name: "missing header", header: ""},
			{name: "not a UUID", header: "user-42"},
			{name: "nil UUID", header: uuid.Nil.String()},
		}

		for _, tc := range tests {
			tc := tc
			t.Run(tc.name, func(t *testing.T) {
				t.Parallel()

				called := false
				handler := IdentityMiddleware(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
					called = true
				}))

				req := httptest.NewRequest(http.MethodGet, "/api/cards/due", nil)
				if tc.header != "" {
					req.Header.Set(UserIDHeader, tc.header)
				}
				rec := httptest.NewRecorder()
				handler.ServeHTTP(rec, req)

				assert.Equal(t, http.StatusUnauthorized, rec.Code)
				assert.False(t, called)
				assert.Contains(t, rec.Header().Get("Content-Type"), "application/json")
			})
		}
	})
}
