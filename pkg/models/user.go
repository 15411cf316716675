package models

import (
	"fmt"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// User is an account that owns documents. Users are created once and are
// immutable from the document core's point of view: documents reference the
// user ID and nothing else.
type User struct {
	// ID is the unique user identifier (UUID).
	ID uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`

	// CreatedAt is when the user was created.
	CreatedAt time.Time `json:"createdAt"`

	// UpdatedAt is when the user was last updated.
	UpdatedAt time.Time `json:"updatedAt"`

	// EmailAddress is the user's email address. Unique across all users.
	EmailAddress string `gorm:"type:varchar(320);not null;uniqueIndex" json:"email"`

	// DisplayName is the user's display name.
	DisplayName string `gorm:"type:varchar(80);not null" json:"displayName"`
}

// BeforeCreate hook to generate the ID if not set.
func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}

// Create creates a new user in the database. Returns gorm.ErrDuplicatedKey
// if the email address is already taken.
func (u *User) Create(db *gorm.DB) error {
	if err := validation.ValidateStruct(u,
		validation.Field(&u.EmailAddress, validation.Required, is.Email),
		validation.Field(&u.DisplayName,
			validation.Required, validation.Length(1, 80)),
	); err != nil {
		return fmt.Errorf("%w: %v", ErrValidation, err)
	}

	return db.Create(&u).Error
}

// Get retrieves a user by ID.
func (u *User) Get(db *gorm.DB, id uuid.UUID) error {
	return db.First(&u, "id = ?", id).Error
}

// GetByEmail retrieves a user by email address.
func (u *User) GetByEmail(db *gorm.DB, email string) error {
	return db.First(&u, "email_address = ?", email).Error
}
