package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/docvault-io/docvault/internal/auth"
	"github.com/docvault-io/docvault/internal/server"
	"github.com/docvault-io/docvault/pkg/models"
)

// AuthMiddleware resolves the caller's identity before any handler runs and
// rejects everything it cannot resolve with 401. Identity is an API key
// presented as a bearer token, validated against the api_keys table; in dev
// mode a plain X-User-ID header is accepted instead. The resolved user ID
// is placed on the request context for handlers to match ownership against.
func AuthMiddleware(srv server.Server, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if srv.Config.Auth.DevMode {
			header := r.Header.Get("X-User-ID")
			if header == "" {
				http.Error(w, "Missing X-User-ID header", http.StatusUnauthorized)
				return
			}
			userID, err := uuid.Parse(header)
			if err != nil {
				srv.Logger.Warn("dev auth: malformed X-User-ID header",
					"path", r.URL.Path,
					"method", r.Method,
				)
				http.Error(w, "Invalid X-User-ID header", http.StatusUnauthorized)
				return
			}
			next.ServeHTTP(w, r.WithContext(auth.WithUserID(r.Context(), userID)))
			return
		}

		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			http.Error(w, "Missing authorization header", http.StatusUnauthorized)
			return
		}
		if !strings.HasPrefix(authHeader, "Bearer ") {
			http.Error(w, "Invalid authorization header format", http.StatusUnauthorized)
			return
		}
		key := strings.TrimPrefix(authHeader, "Bearer ")
		if key == "" {
			http.Error(w, "Empty bearer token", http.StatusUnauthorized)
			return
		}

		var apiKey models.APIKey
		if err := apiKey.GetByKey(srv.DB.WithContext(r.Context()), key); err != nil {
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				srv.Logger.Error("error looking up API key",
					"error", err,
					"path", r.URL.Path,
					"method", r.Method,
				)
			}
			http.Error(w, "Invalid API key", http.StatusUnauthorized)
			return
		}

		if !apiKey.IsValid() {
			srv.Logger.Warn("auth: revoked or expired API key",
				"key_id", apiKey.ID,
				"path", r.URL.Path,
				"method", r.Method,
			)
			http.Error(w, "API key has expired or been revoked", http.StatusUnauthorized)
			return
		}

		if err := apiKey.TouchLastUsed(srv.DB); err != nil {
			srv.Logger.Warn("error updating API key last-used time",
				"error", err,
				"key_id", apiKey.ID,
			)
		}

		next.ServeHTTP(w, r.WithContext(auth.WithUserID(r.Context(), apiKey.UserID)))
	})
}
