package models

import (
	"fmt"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Document is a user-owned, versioned document. The document row carries
// metadata only; content lives in the append-only document_versions table.
// A document always has at least one version: it is created together with
// version 1 and versions are never deleted.
type Document struct {
	// ID is the unique document identifier (UUID). It doubles as the
	// pagination sort key, so it is never reassigned.
	ID uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`

	// CreatedAt is when the document was created.
	CreatedAt time.Time `json:"createdAt"`

	// UpdatedAt is bumped on every title or archive-flag change.
	UpdatedAt time.Time `json:"updatedAt"`

	// OwnerID is the user the document is permanently bound to. Set once at
	// creation; every read and write predicate filters on it.
	OwnerID uuid.UUID `gorm:"type:uuid;not null;index:idx_documents_owner" json:"ownerId"`

	// Owner is the owning user.
	Owner *User `gorm:"foreignKey:OwnerID" json:"-"`

	// Title is the document title, 1-200 characters.
	Title string `gorm:"type:varchar(200);not null" json:"title"`

	// IsArchived soft-hides the document from default list views. Documents
	// are never physically deleted.
	IsArchived bool `gorm:"not null;default:false" json:"isArchived"`
}

// BeforeCreate hook to generate the ID if not set.
func (d *Document) BeforeCreate(tx *gorm.DB) error {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	return nil
}

// Create inserts the document together with version 1 holding content, as a
// single transaction. Either both rows commit or neither does.
func (d *Document) Create(db *gorm.DB, content string) (*DocumentVersion, error) {
	if err := validation.ValidateStruct(d,
		validation.Field(&d.OwnerID, validation.By(requiredUUID)),
		validation.Field(&d.Title, validation.Required, validation.Length(1, 200)),
	); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	if err := validation.Validate(content, validation.Required); err != nil {
		return nil, fmt.Errorf("%w: content: %v", ErrValidation, err)
	}

	var version *DocumentVersion
	err := db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&d).Error; err != nil {
			return fmt.Errorf("error creating document: %w", err)
		}

		v := &DocumentVersion{
			DocumentID:    d.ID,
			VersionNumber: 1,
			Content:       content,
		}
		if err := tx.Create(v).Error; err != nil {
			return fmt.Errorf("error creating first version: %w", err)
		}

		version = v
		return nil
	})
	if err != nil {
		return nil, err
	}

	return version, nil
}

// GetForOwner retrieves the document by ID, scoped to ownerID. A document
// owned by someone else is indistinguishable from a missing one: both
// return gorm.ErrRecordNotFound.
func (d *Document) GetForOwner(db *gorm.DB, id, ownerID uuid.UUID) error {
	return db.First(&d, "id = ? AND owner_id = ?", id, ownerID).Error
}

// RenameForOwner updates the title and bumps UpdatedAt. Same owner-scoping
// rule as GetForOwner.
func (d *Document) RenameForOwner(db *gorm.DB, id, ownerID uuid.UUID, title string) error {
	if err := validation.Validate(title,
		validation.Required, validation.Length(1, 200)); err != nil {
		return fmt.Errorf("%w: title: %v", ErrValidation, err)
	}

	return db.Transaction(func(tx *gorm.DB) error {
		if err := d.GetForOwner(tx, id, ownerID); err != nil {
			return err
		}

		if err := tx.Model(&d).Update("title", title).Error; err != nil {
			return fmt.Errorf("error updating title: %w", err)
		}

		return nil
	})
}

// SetArchivedForOwner sets the archive flag. Idempotent: setting the
// current value again still succeeds and still bumps UpdatedAt.
func (d *Document) SetArchivedForOwner(db *gorm.DB, id, ownerID uuid.UUID, archived bool) error {
	return db.Transaction(func(tx *gorm.DB) error {
		if err := d.GetForOwner(tx, id, ownerID); err != nil {
			return err
		}

		// Update through a map so GORM writes the row even when the value is
		// unchanged, keeping the UpdatedAt bump.
		if err := tx.Model(&d).Updates(map[string]interface{}{
			"is_archived": archived,
		}).Error; err != nil {
			return fmt.Errorf("error updating archive flag: %w", err)
		}

		return nil
	})
}

// requiredUUID rejects the zero UUID, which ozzo's Required treats as set.
func requiredUUID(value interface{}) error {
	id, ok := value.(uuid.UUID)
	if !ok || id == uuid.Nil {
		return fmt.Errorf("must be a non-zero UUID")
	}
	return nil
}
