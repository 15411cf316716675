package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/hashicorp/go-hclog"
	"gorm.io/gorm"

	"github.com/docvault-io/docvault/pkg/models"
)

// decodeRequest decodes a JSON request body into v, rejecting unknown
// fields and trailing garbage.
func decodeRequest(r *http.Request, v interface{}) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return err
	}
	if dec.More() {
		return fmt.Errorf("unexpected data after JSON body")
	}
	return nil
}

// respondJSON writes v as a JSON response with the given status code.
func respondJSON(w http.ResponseWriter, log hclog.Logger, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error("error encoding response", "error", err)
	}
}

// errorResponse is the JSON error envelope.
type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// respondError maps a storage-layer error to the response contract:
// validation failures report which field failed (400), missing and foreign
// entities are indistinguishable (404), uniqueness violations surface as
// conflicts (409), and timeouts report retryable unavailability (503)
// distinctly from anything else.
func respondError(w http.ResponseWriter, log hclog.Logger, err error) {
	switch {
	case errors.Is(err, models.ErrValidation):
		respondJSON(w, log, http.StatusBadRequest, errorResponse{
			Error:   "validation_error",
			Message: err.Error(),
		})
	case errors.Is(err, gorm.ErrRecordNotFound):
		respondJSON(w, log, http.StatusNotFound, errorResponse{
			Error:   "not_found",
			Message: "Document not found",
		})
	case errors.Is(err, gorm.ErrDuplicatedKey):
		respondJSON(w, log, http.StatusConflict, errorResponse{
			Error: "conflict",
		})
	case errors.Is(err, context.DeadlineExceeded),
		errors.Is(err, context.Canceled):
		respondJSON(w, log, http.StatusServiceUnavailable, errorResponse{
			Error:   "unavailable",
			Message: "Storage timeout, retry the request",
		})
	default:
		respondJSON(w, log, http.StatusInternalServerError, errorResponse{
			Error: "internal_error",
		})
	}
}

// parseResourceIDFromURL parses a URL path with the format
// "/api/v1/{apiPath}/{resourceID}[/{subResource}]" and returns the resource
// ID and the optional subresource name.
func parseResourceIDFromURL(url, apiPath string) (id, sub string, err error) {
	url = strings.TrimPrefix(url, fmt.Sprintf("/api/v1/%s", apiPath))

	var resultPath []string
	for _, v := range strings.Split(url, "/") {
		if v != "" {
			resultPath = append(resultPath, v)
		}
	}

	switch len(resultPath) {
	case 1:
		return resultPath[0], "", nil
	case 2:
		return resultPath[0], resultPath[1], nil
	default:
		return "", "", fmt.Errorf("invalid URL path")
	}
}
