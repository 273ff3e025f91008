package model

import (
	"crypto/rand"
	"encoding/base64"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// RefreshToken is an opaque, single-use token exchanged for a fresh
// access/refresh pair. Rotation revokes the old row and issues a new one.
type RefreshToken struct {
	ID        string         `json:"id" gorm:"type:uuid;primaryKey"`
	Token     string         `json:"-" gorm:"type:varchar(64);uniqueIndex;not null"` // Never expose the actual token in JSON responses
	UserID    string         `json:"user_id" gorm:"type:uuid;index;not null"`
	TenantID  *string        `json:"tenant_id,omitempty" gorm:"type:uuid;index"`
	ExpiresAt time.Time      `json:"expires_at"`
	Revoked   bool           `json:"revoked" gorm:"default:false"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`
}

// BeforeCreate assigns the primary key and a secure random token value
func (t *RefreshToken) BeforeCreate(tx *gorm.DB) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	if t.Token == "" {
		token, err := generateSecureToken()
		if err != nil {
			return err
		}
		t.Token = token
	}
	return nil
}

// IsExpired checks if the token is expired
func (t *RefreshToken) IsExpired() bool {
	return time.Now().After(t.ExpiresAt)
}

// IsValid checks if the token is valid (not expired and not revoked)
func (t *RefreshToken) IsValid() bool {
	return !t.Revoked && !t.IsExpired()
}

// generateSecureToken creates a secure random token string
func generateSecureToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
