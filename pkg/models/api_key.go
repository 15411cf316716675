package models

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// APIKey is a bearer credential bound to a user. Only the SHA-256 hash of
// the key is stored; the plaintext is returned to the caller exactly once,
// at creation time.
type APIKey struct {
	// ID is the unique key identifier (UUID).
	ID uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`

	// CreatedAt is when the key was created.
	CreatedAt time.Time `json:"created_at"`

	// UpdatedAt is when the key was last updated.
	UpdatedAt time.Time `json:"updated_at"`

	// KeyHash is the SHA-256 hash of the plaintext key.
	KeyHash string `gorm:"type:varchar(64);not null;uniqueIndex" json:"-"`

	// UserID is the user this key authenticates as.
	UserID uuid.UUID `gorm:"type:uuid;not null;index" json:"user_id"`

	// User is the associated user.
	User *User `gorm:"foreignKey:UserID" json:"-"`

	// ExpiresAt is when the key expires (nil = no expiration).
	ExpiresAt *time.Time `json:"expires_at,omitempty"`

	// Revoked indicates the key has been revoked.
	Revoked bool `gorm:"not null;default:false" json:"revoked"`

	// RevokedAt is when the key was revoked.
	RevokedAt *time.Time `json:"revoked_at,omitempty"`

	// LastUsedAt is when the key last authenticated a request.
	LastUsedAt *time.Time `json:"last_used_at,omitempty"`
}

// BeforeCreate hook to generate the ID if not set.
func (k *APIKey) BeforeCreate(tx *gorm.DB) error {
	if k.ID == uuid.Nil {
		k.ID = uuid.New()
	}
	return nil
}

// TableName specifies the table name for GORM.
func (APIKey) TableName() string {
	return "api_keys"
}

// GenerateAPIKey creates a new random plaintext key with the format
// dv-key-<uuid>-<random-suffix>.
func GenerateAPIKey() (string, error) {
	id := uuid.New()

	randomBytes := make([]byte, 8)
	if _, err := rand.Read(randomBytes); err != nil {
		return "", fmt.Errorf("error generating random bytes: %w", err)
	}
	suffix := hex.EncodeToString(randomBytes)

	return fmt.Sprintf("dv-key-%s-%s", id.String(), suffix), nil
}

// HashAPIKey creates the SHA-256 hash of a plaintext key for storage.
func HashAPIKey(key string) string {
	hash := sha256.Sum256([]byte(key))
	return hex.EncodeToString(hash[:])
}

// Create creates a new key in the database. The key parameter is the
// plaintext to hash.
func (k *APIKey) Create(db *gorm.DB, key string) error {
	k.KeyHash = HashAPIKey(key)
	return db.Create(&k).Error
}

// GetByKey retrieves a key record by its plaintext value.
func (k *APIKey) GetByKey(db *gorm.DB, key string) error {
	return db.First(&k, "key_hash = ?", HashAPIKey(key)).Error
}

// IsValid checks that the key is neither revoked nor expired.
func (k *APIKey) IsValid() bool {
	if k.Revoked {
		return false
	}
	if k.ExpiresAt != nil && time.Now().After(*k.ExpiresAt) {
		return false
	}
	return true
}

// Revoke marks the key as revoked.
func (k *APIKey) Revoke(db *gorm.DB) error {
	now := time.Now()
	return db.Model(&k).Updates(map[string]interface{}{
		"revoked":    true,
		"revoked_at": now,
	}).Error
}

// TouchLastUsed records that the key just authenticated a request.
func (k *APIKey) TouchLastUsed(db *gorm.DB) error {
	return db.Model(&k).Update("last_used_at", time.Now()).Error
}
