package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Role is a user's role in the platform
type Role string

const (
	RoleSuperAdmin  Role = "super_admin"
	RoleTenantAdmin Role = "tenant_admin"
	RoleUser        Role = "user"
)

// Valid reports whether the role is a known role
func (r Role) Valid() bool {
	switch r {
	case RoleSuperAdmin, RoleTenantAdmin, RoleUser:
		return true
	}
	return false
}

// User represents the user model stored in the database.
// TenantID is nil only for super_admin principals, which operate across
// tenant boundaries. Email uniqueness is scoped per tenant, not global;
// NULL-tenant rows are covered by a partial index added at migration,
// since they are all distinct under the composite index.
type User struct {
	ID           string         `json:"id" gorm:"type:uuid;primaryKey"`
	TenantID     *string        `json:"tenant_id,omitempty" gorm:"type:uuid;index;uniqueIndex:idx_users_tenant_email"`
	Email        string         `json:"email" gorm:"type:varchar(100);not null;uniqueIndex:idx_users_tenant_email"`
	PasswordHash string         `json:"-" gorm:"type:varchar(255);not null"`
	FullName     string         `json:"full_name" gorm:"type:varchar(100)"`
	Role         Role           `json:"role" gorm:"type:varchar(20);not null;default:'user'"`
	Active       bool           `json:"is_active" gorm:"column:is_active;default:true"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `json:"-" gorm:"index"`
}

// BeforeCreate assigns a UUID primary key
func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	return nil
}
