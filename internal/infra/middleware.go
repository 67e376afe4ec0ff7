package infra

import (
	"context"
	"encoding/json"
	"net/http"

	logger_lib "github.com/s21platform/logger-lib"

	"github.com/quietline/chat-service/internal/api"
	"github.com/quietline/chat-service/internal/config"
)

// UserIDHeader carries the authenticated user id, set by the API gateway.
const UserIDHeader = "X-User-Uuid"

// AuthInterceptorHTTP rejects requests without a gateway-provided identity
// and puts the user id into the request context.
func AuthInterceptorHTTP(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userUUID := r.Header.Get(UserIDHeader)
		if userUUID == "" {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			_ = json.NewEncoder(w).Encode(api.Error{Error: "missing user identity"})
			return
		}

		ctx := context.WithValue(r.Context(), config.KeyUUID, userUUID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// LoggerHTTP makes the service logger reachable from handlers via
// logger_lib.FromContext.
func LoggerHTTP(next http.Handler, logger *logger_lib.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := context.WithValue(r.Context(), config.KeyLogger, logger)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
