package api

import (
	"fmt"
	"net/http"

	"github.com/google/uuid"

	"github.com/docvault-io/docvault/internal/auth"
	"github.com/docvault-io/docvault/internal/server"
	"github.com/docvault-io/docvault/pkg/models"
)

// UsersRequest is the signup payload.
type UsersRequest struct {
	Email       string `json:"email"`
	DisplayName string `json:"displayName"`
}

// UsersResponse is returned from signup. APIKey is the plaintext key; it is
// shown exactly once and stored only as a hash.
type UsersResponse struct {
	User   models.User `json:"user"`
	APIKey string      `json:"apiKey"`
}

// UsersHandler handles user signup. Registered outside the auth middleware:
// signup is the one public write.
// Endpoint: POST /api/v1/users
func UsersHandler(srv server.Server) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != "POST" {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		var req UsersRequest
		if err := decodeRequest(r, &req); err != nil {
			srv.Logger.Error("error decoding users request", "error", err)
			http.Error(w, fmt.Sprintf("Bad request: %q", err),
				http.StatusBadRequest)
			return
		}

		db := srv.DB.WithContext(r.Context())

		user := models.User{
			EmailAddress: req.Email,
			DisplayName:  req.DisplayName,
		}
		if err := user.Create(db); err != nil {
			respondError(w, srv.Logger, err)
			return
		}

		plaintext, err := models.GenerateAPIKey()
		if err != nil {
			srv.Logger.Error("error generating API key", "error", err)
			respondError(w, srv.Logger, err)
			return
		}
		apiKey := models.APIKey{UserID: user.ID}
		if err := apiKey.Create(db, plaintext); err != nil {
			respondError(w, srv.Logger, err)
			return
		}

		srv.Logger.Info("user created", "user_id", user.ID)
		respondJSON(w, srv.Logger, http.StatusCreated, UsersResponse{
			User:   user,
			APIKey: plaintext,
		})
	})
}

// UserDocumentsHandler lists the documents of a user. The caller may only
// list their own: a foreign user ID returns the same 404 as a nonexistent
// one, so the endpoint confirms nothing about other accounts.
// Endpoint: GET /api/v1/users/{id}/documents
func UserDocumentsHandler(srv server.Server) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		callerID := auth.UserID(r.Context())
		if callerID == uuid.Nil {
			http.Error(w, "No authorization information for request",
				http.StatusUnauthorized)
			return
		}

		if r.Method != "GET" {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		idStr, sub, err := parseResourceIDFromURL(r.URL.Path, "users")
		if err != nil || sub != "documents" {
			http.Error(w, "Not found", http.StatusNotFound)
			return
		}

		userID, err := uuid.Parse(idStr)
		if err != nil || userID != callerID {
			respondJSON(w, srv.Logger, http.StatusNotFound, errorResponse{
				Error:   "not_found",
				Message: "User not found",
			})
			return
		}

		opts, err := parseDocumentPageOptions(r)
		if err != nil {
			respondError(w, srv.Logger, err)
			return
		}

		page, err := models.ListDocumentsWithLatestVersion(
			srv.DB.WithContext(r.Context()), userID, opts)
		if err != nil {
			respondError(w, srv.Logger, err)
			return
		}

		respondJSON(w, srv.Logger, http.StatusOK, toPageResponse(page))
	})
}
