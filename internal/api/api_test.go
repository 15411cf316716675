package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/hashicorp/go-hclog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/docvault-io/docvault/internal/config"
	"github.com/docvault-io/docvault/internal/server"
	"github.com/docvault-io/docvault/pkg/models"
)

// setupTest builds a router backed by an in-memory database. Dev-mode auth
// unless the test flips it off on the returned server's config.
func setupTest(t *testing.T) (http.Handler, server.Server) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	// In-memory SQLite databases are per-connection.
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(models.ModelsToAutoMigrate()...))

	cfg := config.Default()
	srv := server.Server{
		Config: cfg,
		DB:     db,
		Logger: hclog.NewNullLogger(),
	}
	return NewRouter(srv), srv
}

func doRequest(t *testing.T, handler http.Handler, method, path string, body interface{}, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), v))
}

func signup(t *testing.T, handler http.Handler, email string) UsersResponse {
	t.Helper()

	w := doRequest(t, handler, "POST", "/api/v1/users",
		UsersRequest{Email: email, DisplayName: "Test User"}, nil)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var resp UsersResponse
	decodeBody(t, w, &resp)
	return resp
}

func devHeaders(userID uuid.UUID) map[string]string {
	return map[string]string{"X-User-ID": userID.String()}
}

func TestUsersHandler(t *testing.T) {
	handler, _ := setupTest(t)

	t.Run("signup returns the user and a plaintext key", func(t *testing.T) {
		resp := signup(t, handler, "alice@example.com")
		assert.NotEmpty(t, resp.User.ID)
		assert.Equal(t, "alice@example.com", resp.User.EmailAddress)
		assert.True(t, strings.HasPrefix(resp.APIKey, "dv-key-"))
	})

	t.Run("duplicate email conflicts", func(t *testing.T) {
		w := doRequest(t, handler, "POST", "/api/v1/users",
			UsersRequest{Email: "alice@example.com", DisplayName: "Alice"}, nil)
		assert.Equal(t, http.StatusConflict, w.Code)
	})

	t.Run("invalid email is rejected", func(t *testing.T) {
		w := doRequest(t, handler, "POST", "/api/v1/users",
			UsersRequest{Email: "not-an-email", DisplayName: "Alice"}, nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("only POST is allowed", func(t *testing.T) {
		w := doRequest(t, handler, "GET", "/api/v1/users", nil, nil)
		assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
	})
}

func TestAuthRequired(t *testing.T) {
	handler, _ := setupTest(t)

	paths := []struct {
		method string
		path   string
	}{
		{"GET", "/api/v1/documents"},
		{"POST", "/api/v1/documents"},
		{"GET", fmt.Sprintf("/api/v1/documents/%s", uuid.New())},
		{"GET", fmt.Sprintf("/api/v1/users/%s/documents", uuid.New())},
	}
	for _, p := range paths {
		w := doRequest(t, handler, p.method, p.path, nil, nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code,
			"%s %s without identity", p.method, p.path)
	}

	t.Run("malformed X-User-ID is rejected", func(t *testing.T) {
		w := doRequest(t, handler, "GET", "/api/v1/documents", nil,
			map[string]string{"X-User-ID": "not-a-uuid"})
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

func TestDocumentLifecycle(t *testing.T) {
	handler, _ := setupTest(t)
	user := signup(t, handler, "owner@example.com")
	hdrs := devHeaders(user.User.ID)

	var docID uuid.UUID

	t.Run("create returns the document with version 1", func(t *testing.T) {
		w := doRequest(t, handler, "POST", "/api/v1/documents",
			DocumentsRequest{Title: "Design notes", Content: "draft"}, hdrs)
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

		var resp DocumentCreateResponse
		decodeBody(t, w, &resp)
		assert.Equal(t, "Design notes", resp.Document.Title)
		assert.Equal(t, user.User.ID, resp.Document.OwnerID)
		assert.Equal(t, 1, resp.Version.VersionNumber)
		assert.Equal(t, "draft", resp.Version.Content)
		docID = resp.Document.ID
	})

	t.Run("resolve returns the latest version", func(t *testing.T) {
		w := doRequest(t, handler, "GET",
			fmt.Sprintf("/api/v1/documents/%s", docID), nil, hdrs)
		require.Equal(t, http.StatusOK, w.Code)

		var resp models.DocumentWithLatestVersion
		decodeBody(t, w, &resp)
		assert.Equal(t, docID, resp.Document.ID)
		assert.Equal(t, 1, resp.LatestVersion.VersionNumber)
	})

	t.Run("append a version", func(t *testing.T) {
		w := doRequest(t, handler, "POST",
			fmt.Sprintf("/api/v1/documents/%s/versions", docID),
			VersionsRequest{Content: "revised"}, hdrs)
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

		var resp VersionCreateResponse
		decodeBody(t, w, &resp)
		assert.Equal(t, 2, resp.Version.VersionNumber)
		assert.Equal(t, "revised", resp.Version.Content)
	})

	t.Run("resolve now returns version 2", func(t *testing.T) {
		w := doRequest(t, handler, "GET",
			fmt.Sprintf("/api/v1/documents/%s", docID), nil, hdrs)
		require.Equal(t, http.StatusOK, w.Code)

		var resp models.DocumentWithLatestVersion
		decodeBody(t, w, &resp)
		assert.Equal(t, 2, resp.LatestVersion.VersionNumber)
		assert.Equal(t, "revised", resp.LatestVersion.Content)
	})

	t.Run("history lists newest first", func(t *testing.T) {
		w := doRequest(t, handler, "GET",
			fmt.Sprintf("/api/v1/documents/%s/versions", docID), nil, hdrs)
		require.Equal(t, http.StatusOK, w.Code)

		var resp VersionsResponse
		decodeBody(t, w, &resp)
		require.Len(t, resp.Versions, 2)
		assert.Equal(t, 2, resp.Versions[0].VersionNumber)
		assert.Equal(t, 1, resp.Versions[1].VersionNumber)
	})

	t.Run("rename", func(t *testing.T) {
		w := doRequest(t, handler, "PATCH",
			fmt.Sprintf("/api/v1/documents/%s", docID),
			DocumentsPatchRequest{Title: "Final notes"}, hdrs)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		var resp DocumentResponse
		decodeBody(t, w, &resp)
		assert.Equal(t, "Final notes", resp.Document.Title)
	})

	t.Run("rename with an invalid title", func(t *testing.T) {
		w := doRequest(t, handler, "PATCH",
			fmt.Sprintf("/api/v1/documents/%s", docID),
			DocumentsPatchRequest{Title: strings.Repeat("x", 201)}, hdrs)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("archive hides the document from the default list", func(t *testing.T) {
		w := doRequest(t, handler, "PATCH",
			fmt.Sprintf("/api/v1/documents/%s/archive", docID), nil, hdrs)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		var resp DocumentResponse
		decodeBody(t, w, &resp)
		assert.True(t, resp.Document.IsArchived)

		w = doRequest(t, handler, "GET", "/api/v1/documents", nil, hdrs)
		require.Equal(t, http.StatusOK, w.Code)
		var page DocumentPageResponse
		decodeBody(t, w, &page)
		assert.Empty(t, page.Items)

		w = doRequest(t, handler, "GET",
			"/api/v1/documents?includeArchived=true", nil, hdrs)
		require.Equal(t, http.StatusOK, w.Code)
		decodeBody(t, w, &page)
		assert.Len(t, page.Items, 1)
	})

	t.Run("unarchive restores it", func(t *testing.T) {
		w := doRequest(t, handler, "PATCH",
			fmt.Sprintf("/api/v1/documents/%s/unarchive", docID), nil, hdrs)
		require.Equal(t, http.StatusOK, w.Code)

		var resp DocumentResponse
		decodeBody(t, w, &resp)
		assert.False(t, resp.Document.IsArchived)
	})
}

func TestDocumentNotFound(t *testing.T) {
	handler, _ := setupTest(t)
	owner := signup(t, handler, "owner@example.com")
	other := signup(t, handler, "other@example.com")

	w := doRequest(t, handler, "POST", "/api/v1/documents",
		DocumentsRequest{Title: "Private", Content: "secret"}, devHeaders(owner.User.ID))
	require.Equal(t, http.StatusCreated, w.Code)
	var created DocumentCreateResponse
	decodeBody(t, w, &created)
	docID := created.Document.ID

	// A foreign caller, a nonexistent ID, and a malformed ID all get the
	// exact same response body.
	cases := []struct {
		name string
		path string
		hdrs map[string]string
	}{
		{"foreign document", fmt.Sprintf("/api/v1/documents/%s", docID), devHeaders(other.User.ID)},
		{"nonexistent document", fmt.Sprintf("/api/v1/documents/%s", uuid.New()), devHeaders(owner.User.ID)},
		{"malformed document ID", "/api/v1/documents/not-a-uuid", devHeaders(owner.User.ID)},
	}

	var bodies []string
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := doRequest(t, handler, "GET", tc.path, nil, tc.hdrs)
			assert.Equal(t, http.StatusNotFound, w.Code)
			bodies = append(bodies, w.Body.String())
		})
	}
	for _, b := range bodies[1:] {
		assert.Equal(t, bodies[0], b)
	}

	t.Run("foreign writes are also not found", func(t *testing.T) {
		hdrs := devHeaders(other.User.ID)

		w := doRequest(t, handler, "PATCH",
			fmt.Sprintf("/api/v1/documents/%s", docID),
			DocumentsPatchRequest{Title: "Hijacked"}, hdrs)
		assert.Equal(t, http.StatusNotFound, w.Code)

		w = doRequest(t, handler, "POST",
			fmt.Sprintf("/api/v1/documents/%s/versions", docID),
			VersionsRequest{Content: "injected"}, hdrs)
		assert.Equal(t, http.StatusNotFound, w.Code)

		w = doRequest(t, handler, "PATCH",
			fmt.Sprintf("/api/v1/documents/%s/archive", docID), nil, hdrs)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestDocumentListParameters(t *testing.T) {
	handler, _ := setupTest(t)
	user := signup(t, handler, "list@example.com")
	hdrs := devHeaders(user.User.ID)

	t.Run("rejects a non-integer limit", func(t *testing.T) {
		w := doRequest(t, handler, "GET", "/api/v1/documents?limit=abc", nil, hdrs)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("rejects an out-of-range limit", func(t *testing.T) {
		for _, limit := range []string{"0", "-1", "51"} {
			w := doRequest(t, handler, "GET",
				"/api/v1/documents?limit="+limit, nil, hdrs)
			assert.Equal(t, http.StatusBadRequest, w.Code, "limit=%s", limit)
		}
	})

	t.Run("rejects a malformed cursor", func(t *testing.T) {
		w := doRequest(t, handler, "GET",
			"/api/v1/documents?cursor=garbage", nil, hdrs)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestDocumentListPagination(t *testing.T) {
	handler, _ := setupTest(t)
	user := signup(t, handler, "pager@example.com")
	hdrs := devHeaders(user.User.ID)

	created := make(map[uuid.UUID]bool)
	for i := 0; i < 5; i++ {
		w := doRequest(t, handler, "POST", "/api/v1/documents",
			DocumentsRequest{
				Title:   fmt.Sprintf("Doc %d", i),
				Content: "body",
			}, hdrs)
		require.Equal(t, http.StatusCreated, w.Code)
		var resp DocumentCreateResponse
		decodeBody(t, w, &resp)
		created[resp.Document.ID] = true
	}

	seen := make(map[uuid.UUID]bool)
	path := "/api/v1/documents?limit=2"
	pages := 0
	for {
		w := doRequest(t, handler, "GET", path, nil, hdrs)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		pages++

		var page DocumentPageResponse
		decodeBody(t, w, &page)
		for _, item := range page.Items {
			id := item.Document.ID
			assert.False(t, seen[id], "document %s repeated across pages", id)
			seen[id] = true
			assert.Equal(t, 1, item.LatestVersion.VersionNumber)
		}

		if page.NextCursor == nil {
			break
		}
		path = "/api/v1/documents?limit=2&cursor=" + *page.NextCursor
	}

	assert.Equal(t, 3, pages)
	assert.Equal(t, created, seen)
}

func TestUserDocumentsHandler(t *testing.T) {
	handler, _ := setupTest(t)
	userA := signup(t, handler, "a@example.com")
	userB := signup(t, handler, "b@example.com")

	for i := 0; i < 2; i++ {
		w := doRequest(t, handler, "POST", "/api/v1/documents",
			DocumentsRequest{Title: fmt.Sprintf("A %d", i), Content: "body"},
			devHeaders(userA.User.ID))
		require.Equal(t, http.StatusCreated, w.Code)
	}
	w := doRequest(t, handler, "POST", "/api/v1/documents",
		DocumentsRequest{Title: "B", Content: "body"}, devHeaders(userB.User.ID))
	require.Equal(t, http.StatusCreated, w.Code)

	t.Run("own documents", func(t *testing.T) {
		w := doRequest(t, handler, "GET",
			fmt.Sprintf("/api/v1/users/%s/documents?limit=50", userA.User.ID),
			nil, devHeaders(userA.User.ID))
		require.Equal(t, http.StatusOK, w.Code)

		var page DocumentPageResponse
		decodeBody(t, w, &page)
		assert.Len(t, page.Items, 2)
		for _, item := range page.Items {
			assert.Equal(t, userA.User.ID, item.Document.OwnerID)
		}
	})

	t.Run("foreign user ID is not found", func(t *testing.T) {
		w := doRequest(t, handler, "GET",
			fmt.Sprintf("/api/v1/users/%s/documents", userB.User.ID),
			nil, devHeaders(userA.User.ID))
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("malformed user ID is not found", func(t *testing.T) {
		w := doRequest(t, handler, "GET",
			"/api/v1/users/not-a-uuid/documents",
			nil, devHeaders(userA.User.ID))
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestAPIKeyAuth(t *testing.T) {
	handler, srv := setupTest(t)
	srv.Config.Auth.DevMode = false

	user := signup(t, handler, "bearer@example.com")

	t.Run("valid bearer token", func(t *testing.T) {
		w := doRequest(t, handler, "GET", "/api/v1/documents", nil,
			map[string]string{"Authorization": "Bearer " + user.APIKey})
		assert.Equal(t, http.StatusOK, w.Code, w.Body.String())
	})

	t.Run("missing header", func(t *testing.T) {
		w := doRequest(t, handler, "GET", "/api/v1/documents", nil, nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("wrong scheme", func(t *testing.T) {
		w := doRequest(t, handler, "GET", "/api/v1/documents", nil,
			map[string]string{"Authorization": "Basic " + user.APIKey})
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("unknown key", func(t *testing.T) {
		w := doRequest(t, handler, "GET", "/api/v1/documents", nil,
			map[string]string{"Authorization": "Bearer dv-key-unknown"})
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("X-User-ID is ignored outside dev mode", func(t *testing.T) {
		w := doRequest(t, handler, "GET", "/api/v1/documents", nil,
			devHeaders(user.User.ID))
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("revoked key", func(t *testing.T) {
		var apiKey models.APIKey
		require.NoError(t, apiKey.GetByKey(srv.DB, user.APIKey))
		require.NoError(t, apiKey.Revoke(srv.DB))

		w := doRequest(t, handler, "GET", "/api/v1/documents", nil,
			map[string]string{"Authorization": "Bearer " + user.APIKey})
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

func TestHealthHandlers(t *testing.T) {
	handler, _ := setupTest(t)

	w := doRequest(t, handler, "GET", "/health", nil, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = doRequest(t, handler, "GET", "/ready", nil, nil)
	assert.Equal(t, http.StatusOK, w.Code)
}
