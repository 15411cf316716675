package models

import (
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	// DefaultDocumentPageLimit is used when the caller does not set a limit.
	DefaultDocumentPageLimit = 10

	// MaxDocumentPageLimit caps the page size.
	MaxDocumentPageLimit = 50
)

// DocumentWithLatestVersion joins a document with its highest-numbered
// version.
type DocumentWithLatestVersion struct {
	Document      Document        `json:"document"`
	LatestVersion DocumentVersion `json:"latestVersion"`
}

// DocumentPageOptions controls ListDocumentsWithLatestVersion.
type DocumentPageOptions struct {
	// IncludeArchived includes archived documents in the page. When false,
	// archived documents are invisible to both the page and the cursor walk.
	IncludeArchived bool

	// Limit is the page size, clamped to [1, MaxDocumentPageLimit]. Zero
	// means DefaultDocumentPageLimit.
	Limit int

	// Cursor is the ID of the last document returned on the previous page,
	// as an opaque string. Empty starts at the beginning.
	Cursor string
}

// DocumentPage is one cursor-delimited page of an owner's documents.
type DocumentPage struct {
	Items []DocumentWithLatestVersion `json:"items"`

	// NextCursor is the cursor for the following page, or empty when the end
	// of the collection was reached.
	NextCursor string `json:"nextCursor"`
}

// ListDocumentsWithLatestVersion returns one page of the owner's documents,
// each joined with its latest version, ordered by document ID ascending.
// Keyset pagination: the page strictly excludes documents with ID <= cursor,
// so the order is stable across pages and no item repeats for a fixed
// filter. Fetches limit+1 rows to decide whether a next page exists.
func ListDocumentsWithLatestVersion(db *gorm.DB, ownerID uuid.UUID, opts DocumentPageOptions) (*DocumentPage, error) {
	limit := opts.Limit
	switch {
	case limit == 0:
		limit = DefaultDocumentPageLimit
	case limit < 1:
		limit = 1
	case limit > MaxDocumentPageLimit:
		limit = MaxDocumentPageLimit
	}

	q := db.Where("owner_id = ?", ownerID)
	if !opts.IncludeArchived {
		q = q.Where("is_archived = ?", false)
	}
	if opts.Cursor != "" {
		cursor, err := uuid.Parse(opts.Cursor)
		if err != nil {
			return nil, ErrInvalidCursor
		}
		q = q.Where("id > ?", cursor)
	}

	var docs []Document
	if err := q.Order("id ASC").Limit(limit + 1).Find(&docs).Error; err != nil {
		return nil, fmt.Errorf("error listing documents: %w", err)
	}

	hasMore := len(docs) > limit
	if hasMore {
		docs = docs[:limit]
	}

	page := &DocumentPage{Items: []DocumentWithLatestVersion{}}
	if len(docs) == 0 {
		return page, nil
	}

	// Resolve the latest version for the whole page in one batched query
	// rather than one round trip per document.
	ids := make([]uuid.UUID, 0, len(docs))
	for _, d := range docs {
		ids = append(ids, d.ID)
	}

	var versions []DocumentVersion
	err := db.Where("document_id IN ?", ids).
		Where("version_number = (SELECT MAX(v.version_number)"+
			" FROM document_versions v"+
			" WHERE v.document_id = document_versions.document_id)").
		Find(&versions).Error
	if err != nil {
		return nil, fmt.Errorf("error resolving latest versions: %w", err)
	}

	latest := make(map[uuid.UUID]DocumentVersion, len(versions))
	for _, v := range versions {
		latest[v.DocumentID] = v
	}

	for _, d := range docs {
		v, ok := latest[d.ID]
		if !ok {
			// Documents are created atomically with version 1, so a
			// version-less document means corrupted state.
			return nil, fmt.Errorf("document %s has no versions", d.ID)
		}
		page.Items = append(page.Items, DocumentWithLatestVersion{
			Document:      d,
			LatestVersion: v,
		})
	}

	if hasMore {
		page.NextCursor = docs[len(docs)-1].ID.String()
	}

	return page, nil
}

// GetDocumentWithLatestVersion resolves the document and its latest version
// for the owner. Missing and foreign documents both return
// gorm.ErrRecordNotFound.
func GetDocumentWithLatestVersion(db *gorm.DB, documentID, ownerID uuid.UUID) (*DocumentWithLatestVersion, error) {
	var doc Document
	if err := doc.GetForOwner(db, documentID, ownerID); err != nil {
		return nil, err
	}

	version, err := GetLatestDocumentVersion(db, documentID)
	if err != nil {
		return nil, err
	}

	return &DocumentWithLatestVersion{
		Document:      doc,
		LatestVersion: *version,
	}, nil
}
