package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"intel-server/internal/auth"
	"intel-server/internal/shared/errors"
	"intel-server/internal/shared/response"
)

type contextKey string

const ClientContextKey contextKey = "client"

// JWTMiddleware guards mutating routes. Service clients authenticate with a
// bearer token; there is no cookie or session flow.
func JWTMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logger := slog.With(
			"middleware", "jwt",
			"method", r.Method,
			"path", r.URL.Path,
			"remote_addr", r.RemoteAddr,
		)
		logger.Debug("Processing JWT authentication")

		header := r.Header.Get("Authorization")
		tokenString, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || tokenString == "" {
			response.Error(w, r, logger, errors.Unauthorized("authentication required"))
			return
		}

		claims, err := auth.ValidateToken(tokenString)
		if err != nil {
			response.Error(w, r, logger, errors.Unauthorized("invalid token"))
			return
		}

		ctx := context.WithValue(r.Context(), ClientContextKey, claims)
		logger.Debug("JWT authentication successful", "client", claims.Name)

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetClientFromContext returns the authenticated service client, if any.
func GetClientFromContext(r *http.Request) *auth.Claims {
	if claims, ok := r.Context().Value(ClientContextKey).(*auth.Claims); ok {
		return claims
	}
	return nil
}
