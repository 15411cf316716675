package api

import (
	"net/http"

	"github.com/docvault-io/docvault/internal/server"
)

type healthResponse struct {
	Status string `json:"status"`
}

// HealthHandler reports process liveness.
// Endpoint: GET /health
func HealthHandler(srv server.Server) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != "GET" {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		respondJSON(w, srv.Logger, http.StatusOK, healthResponse{Status: "ok"})
	})
}

// ReadyHandler reports readiness by pinging the database.
// Endpoint: GET /ready
func ReadyHandler(srv server.Server) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != "GET" {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		sqlDB, err := srv.DB.DB()
		if err == nil {
			err = sqlDB.PingContext(r.Context())
		}
		if err != nil {
			srv.Logger.Error("readiness check failed", "error", err)
			respondJSON(w, srv.Logger, http.StatusServiceUnavailable,
				healthResponse{Status: "unavailable"})
			return
		}

		respondJSON(w, srv.Logger, http.StatusOK, healthResponse{Status: "ready"})
	})
}
