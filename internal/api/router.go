package api

import (
	"net/http"

	"github.com/docvault-io/docvault/internal/server"
)

// NewRouter wires every handler onto a mux. Signup, health, and readiness
// are public; everything else requires a resolved identity. The whole tree
// is bounded by the configured request timeout: storage calls inherit the
// deadline through the request context, and an expired request reports
// retryable unavailability, never a partial write.
func NewRouter(srv server.Server) http.Handler {
	mux := http.NewServeMux()

	mux.Handle("/health", HealthHandler(srv))
	mux.Handle("/ready", ReadyHandler(srv))

	mux.Handle("/api/v1/users", UsersHandler(srv))
	mux.Handle("/api/v1/users/", AuthMiddleware(srv, UserDocumentsHandler(srv)))
	mux.Handle("/api/v1/documents", AuthMiddleware(srv, DocumentsHandler(srv)))
	mux.Handle("/api/v1/documents/", AuthMiddleware(srv, DocumentHandler(srv)))

	timeout := srv.Config.RequestTimeout()
	if timeout <= 0 {
		return mux
	}
	return http.TimeoutHandler(mux, timeout, `{"error":"unavailable"}`)
}
