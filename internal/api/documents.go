package api

import (
	"fmt"
	"net/http"
	"strconv"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"

	"github.com/docvault-io/docvault/internal/auth"
	"github.com/docvault-io/docvault/internal/server"
	"github.com/docvault-io/docvault/pkg/models"
)

// DocumentsRequest is the payload for creating a document. The first
// version is created with it; a document never exists without content.
type DocumentsRequest struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

// DocumentsPatchRequest contains the document fields that may be updated
// with a PATCH request.
type DocumentsPatchRequest struct {
	Title string `json:"title"`
}

// VersionsRequest is the payload for appending a version.
type VersionsRequest struct {
	Content string `json:"content"`
}

// DocumentResponse wraps a document for single-document mutations.
type DocumentResponse struct {
	Document models.Document `json:"document"`
}

// DocumentCreateResponse is returned from document creation.
type DocumentCreateResponse struct {
	Document models.Document        `json:"document"`
	Version  models.DocumentVersion `json:"version"`
}

// VersionCreateResponse is returned from version creation.
type VersionCreateResponse struct {
	Version models.DocumentVersion `json:"version"`
}

// VersionsResponse lists a document's versions, newest first.
type VersionsResponse struct {
	Versions []models.DocumentVersion `json:"versions"`
}

// DocumentPageResponse is one page of the caller's documents.
type DocumentPageResponse struct {
	Items []models.DocumentWithLatestVersion `json:"items"`

	// NextCursor is null when the end of the collection was reached.
	NextCursor *string `json:"nextCursor"`
}

// DocumentsHandler handles the document collection.
// Endpoints: POST /api/v1/documents, GET /api/v1/documents
func DocumentsHandler(srv server.Server) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		errResp := func(httpCode int, userErrMsg, logErrMsg string, err error) {
			srv.Logger.Error(logErrMsg,
				"method", r.Method,
				"path", r.URL.Path,
				"error", err,
			)
			http.Error(w, userErrMsg, httpCode)
		}

		ownerID := auth.UserID(r.Context())
		if ownerID == uuid.Nil {
			errResp(
				http.StatusUnauthorized,
				"No authorization information for request",
				"no user ID found in request context",
				nil,
			)
			return
		}

		db := srv.DB.WithContext(r.Context())

		switch r.Method {
		case "POST":
			var req DocumentsRequest
			if err := decodeRequest(r, &req); err != nil {
				srv.Logger.Error("error decoding documents request", "error", err)
				http.Error(w, fmt.Sprintf("Bad request: %q", err),
					http.StatusBadRequest)
				return
			}

			doc := models.Document{
				OwnerID: ownerID,
				Title:   req.Title,
			}
			version, err := doc.Create(db, req.Content)
			if err != nil {
				respondError(w, srv.Logger, err)
				return
			}

			srv.Logger.Info("document created",
				"document_id", doc.ID,
				"owner_id", ownerID,
			)
			respondJSON(w, srv.Logger, http.StatusCreated, DocumentCreateResponse{
				Document: doc,
				Version:  *version,
			})

		case "GET":
			opts, err := parseDocumentPageOptions(r)
			if err != nil {
				respondError(w, srv.Logger, err)
				return
			}

			page, err := models.ListDocumentsWithLatestVersion(db, ownerID, opts)
			if err != nil {
				respondError(w, srv.Logger, err)
				return
			}

			respondJSON(w, srv.Logger, http.StatusOK, toPageResponse(page))

		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	})
}

// DocumentHandler handles a single document and its subresources.
// Endpoints:
//
//	GET    /api/v1/documents/{id}
//	PATCH  /api/v1/documents/{id}
//	PATCH  /api/v1/documents/{id}/archive
//	PATCH  /api/v1/documents/{id}/unarchive
//	GET    /api/v1/documents/{id}/versions
//	POST   /api/v1/documents/{id}/versions
func DocumentHandler(srv server.Server) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ownerID := auth.UserID(r.Context())
		if ownerID == uuid.Nil {
			http.Error(w, "No authorization information for request",
				http.StatusUnauthorized)
			return
		}

		idStr, sub, err := parseResourceIDFromURL(r.URL.Path, "documents")
		if err != nil {
			http.Error(w, "Bad request: invalid URL path", http.StatusBadRequest)
			return
		}
		docID, err := uuid.Parse(idStr)
		if err != nil {
			// A malformed ID can never match a document; report the same
			// not-found as a missing one.
			respondJSON(w, srv.Logger, http.StatusNotFound, errorResponse{
				Error:   "not_found",
				Message: "Document not found",
			})
			return
		}

		db := srv.DB.WithContext(r.Context())

		switch sub {
		case "":
			switch r.Method {
			case "GET":
				result, err := models.GetDocumentWithLatestVersion(db, docID, ownerID)
				if err != nil {
					respondError(w, srv.Logger, err)
					return
				}
				respondJSON(w, srv.Logger, http.StatusOK, result)

			case "PATCH":
				var req DocumentsPatchRequest
				if err := decodeRequest(r, &req); err != nil {
					srv.Logger.Error("error decoding document patch request",
						"error", err,
						"document_id", docID,
					)
					http.Error(w, fmt.Sprintf("Bad request: %q", err),
						http.StatusBadRequest)
					return
				}

				var doc models.Document
				if err := doc.RenameForOwner(db, docID, ownerID, req.Title); err != nil {
					respondError(w, srv.Logger, err)
					return
				}
				respondJSON(w, srv.Logger, http.StatusOK, DocumentResponse{Document: doc})

			default:
				http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			}

		case "archive", "unarchive":
			if r.Method != "PATCH" {
				http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
				return
			}

			var doc models.Document
			if err := doc.SetArchivedForOwner(
				db, docID, ownerID, sub == "archive"); err != nil {
				respondError(w, srv.Logger, err)
				return
			}
			respondJSON(w, srv.Logger, http.StatusOK, DocumentResponse{Document: doc})

		case "versions":
			switch r.Method {
			case "GET":
				versions, err := models.ListDocumentVersions(db, docID, ownerID)
				if err != nil {
					respondError(w, srv.Logger, err)
					return
				}
				respondJSON(w, srv.Logger, http.StatusOK, VersionsResponse{
					Versions: versions,
				})

			case "POST":
				var req VersionsRequest
				if err := decodeRequest(r, &req); err != nil {
					srv.Logger.Error("error decoding versions request",
						"error", err,
						"document_id", docID,
					)
					http.Error(w, fmt.Sprintf("Bad request: %q", err),
						http.StatusBadRequest)
					return
				}

				version, err := models.AllocateDocumentVersion(db, docID, ownerID, req.Content)
				if err != nil {
					respondError(w, srv.Logger, err)
					return
				}

				srv.Logger.Info("version created",
					"document_id", docID,
					"version_number", version.VersionNumber,
				)
				respondJSON(w, srv.Logger, http.StatusCreated, VersionCreateResponse{
					Version: *version,
				})

			default:
				http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			}

		default:
			http.Error(w, "Not found", http.StatusNotFound)
		}
	})
}

// parseDocumentPageOptions reads pagination parameters from the query
// string. An out-of-range limit is rejected rather than clamped so callers
// learn about the bad value.
func parseDocumentPageOptions(r *http.Request) (models.DocumentPageOptions, error) {
	var opts models.DocumentPageOptions

	q := r.URL.Query()
	switch q.Get("includeArchived") {
	case "true", "1":
		opts.IncludeArchived = true
	}

	if raw := q.Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil {
			return opts, fmt.Errorf("%w: limit: must be an integer", models.ErrValidation)
		}
		if err := validation.Validate(limit,
			validation.Min(1), validation.Max(models.MaxDocumentPageLimit)); err != nil {
			return opts, fmt.Errorf("%w: limit: %v", models.ErrValidation, err)
		}
		opts.Limit = limit
	}

	opts.Cursor = q.Get("cursor")
	return opts, nil
}

func toPageResponse(page *models.DocumentPage) DocumentPageResponse {
	resp := DocumentPageResponse{Items: page.Items}
	if page.NextCursor != "" {
		cursor := page.NextCursor
		resp.NextCursor = &cursor
	}
	return resp
}
