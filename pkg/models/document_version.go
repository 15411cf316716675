package models

import (
	"fmt"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// DocumentVersion is one immutable content snapshot of a document. Version
// numbers per document are exactly 1..N with no gaps or duplicates; rows are
// never updated or deleted once created. The compound unique index on
// (document_id, version_number) enforces the invariant structurally even if
// the locking allocation path is bypassed.
type DocumentVersion struct {
	// ID is the unique version identifier (UUID).
	ID uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`

	// CreatedAt is when the version was created.
	CreatedAt time.Time `json:"createdAt"`

	// DocumentID is the parent document.
	DocumentID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_document_versions_number,priority:1" json:"documentId"`

	// Document is the parent document.
	Document *Document `gorm:"foreignKey:DocumentID" json:"-"`

	// VersionNumber is the position in the document's history, starting at 1.
	VersionNumber int `gorm:"not null;uniqueIndex:idx_document_versions_number,priority:2" json:"versionNumber"`

	// Content is the immutable content snapshot. Non-empty.
	Content string `gorm:"type:text;not null" json:"content"`
}

// BeforeCreate hook to generate the ID if not set.
func (v *DocumentVersion) BeforeCreate(tx *gorm.DB) error {
	if v.ID == uuid.Nil {
		v.ID = uuid.New()
	}
	return nil
}

// TableName specifies the table name for GORM.
func (DocumentVersion) TableName() string {
	return "document_versions"
}

// AllocateDocumentVersion appends the next version to the document owned by
// ownerID and returns it. The read of the current maximum version number and
// the insert of maximum+1 run in one transaction holding an exclusive lock
// on the document row, so concurrent calls for the same document serialize
// and each observes the previous call's insert. Calls for different
// documents never contend.
//
// Returns gorm.ErrRecordNotFound when the document is missing or owned by a
// different user; a rejected call inserts nothing, so numbering never skips.
func AllocateDocumentVersion(db *gorm.DB, documentID, ownerID uuid.UUID, content string) (*DocumentVersion, error) {
	if err := validation.Validate(content, validation.Required); err != nil {
		return nil, fmt.Errorf("%w: content: %v", ErrValidation, err)
	}

	var version *DocumentVersion
	err := db.Transaction(func(tx *gorm.DB) error {
		// SQLite serializes writing transactions on its own; the explicit row
		// lock is only meaningful (and only valid syntax) on Postgres.
		q := tx
		if tx.Dialector.Name() == "postgres" {
			q = tx.Clauses(clause.Locking{Strength: "UPDATE"})
		}

		var doc Document
		if err := q.First(&doc, "id = ? AND owner_id = ?", documentID, ownerID).
			Error; err != nil {
			return err
		}

		var max int
		if err := tx.Model(&DocumentVersion{}).
			Where("document_id = ?", documentID).
			Select("COALESCE(MAX(version_number), 0)").
			Scan(&max).Error; err != nil {
			return fmt.Errorf("error reading max version number: %w", err)
		}

		v := &DocumentVersion{
			DocumentID:    documentID,
			VersionNumber: max + 1,
			Content:       content,
		}
		if err := tx.Create(v).Error; err != nil {
			return fmt.Errorf("error creating version: %w", err)
		}

		version = v
		return nil
	})
	if err != nil {
		return nil, err
	}

	return version, nil
}

// GetLatestDocumentVersion returns the highest-numbered version of the
// document. Ties cannot occur given the allocation invariant.
func GetLatestDocumentVersion(db *gorm.DB, documentID uuid.UUID) (*DocumentVersion, error) {
	var version DocumentVersion
	err := db.Where("document_id = ?", documentID).
		Order("version_number DESC").
		First(&version).Error
	if err != nil {
		return nil, err
	}
	return &version, nil
}

// ListDocumentVersions returns all versions of the document owned by
// ownerID, newest first. Same owner-scoping rule as Document.GetForOwner.
func ListDocumentVersions(db *gorm.DB, documentID, ownerID uuid.UUID) ([]DocumentVersion, error) {
	var doc Document
	if err := doc.GetForOwner(db, documentID, ownerID); err != nil {
		return nil, err
	}

	var versions []DocumentVersion
	err := db.Where("document_id = ?", documentID).
		Order("version_number DESC").
		Find(&versions).Error
	if err != nil {
		return nil, err
	}
	return versions, nil
}
