package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// TenantStatus is the lifecycle status of a tenant
type TenantStatus string

const (
	TenantActive    TenantStatus = "active"
	TenantSuspended TenantStatus = "suspended"
	TenantTrial     TenantStatus = "trial"
)

// SubscriptionPlan names a billing plan and its resource limits
type SubscriptionPlan string

const (
	PlanFree       SubscriptionPlan = "free"
	PlanPro        SubscriptionPlan = "pro"
	PlanEnterprise SubscriptionPlan = "enterprise"
)

// PlanLimits holds the per-plan resource caps
type PlanLimits struct {
	MaxUsers    int
	MaxProjects int
}

// SubscriptionPlans maps each plan to its limits
var SubscriptionPlans = map[SubscriptionPlan]PlanLimits{
	PlanFree:       {MaxUsers: 5, MaxProjects: 3},
	PlanPro:        {MaxUsers: 25, MaxProjects: 15},
	PlanEnterprise: {MaxUsers: 100, MaxProjects: 50},
}

// Valid reports whether the plan is a known subscription plan
func (p SubscriptionPlan) Valid() bool {
	_, ok := SubscriptionPlans[p]
	return ok
}

// Limits returns the resource limits for the plan (free limits for unknown plans)
func (p SubscriptionPlan) Limits() PlanLimits {
	if limits, ok := SubscriptionPlans[p]; ok {
		return limits
	}
	return SubscriptionPlans[PlanFree]
}

// Valid reports whether the status is a known tenant status
func (s TenantStatus) Valid() bool {
	switch s {
	case TenantActive, TenantSuspended, TenantTrial:
		return true
	}
	return false
}

// Tenant represents an isolated customer organization, the unit of
// data partitioning. Every tenant-owned row carries its id.
type Tenant struct {
	ID          string           `json:"id" gorm:"type:uuid;primaryKey"`
	Name        string           `json:"name" gorm:"type:varchar(100);not null"`
	Subdomain   string           `json:"subdomain" gorm:"type:varchar(63);uniqueIndex;not null"`
	Status      TenantStatus     `json:"status" gorm:"type:varchar(20);default:'active'"`
	Plan        SubscriptionPlan `json:"subscription_plan" gorm:"column:subscription_plan;type:varchar(20);default:'free'"`
	MaxUsers    int              `json:"max_users" gorm:"not null"`
	MaxProjects int              `json:"max_projects" gorm:"not null"`
	CreatedAt   time.Time        `json:"created_at"`
	UpdatedAt   time.Time        `json:"updated_at"`
	DeletedAt   gorm.DeletedAt   `json:"-" gorm:"index"`
}

// BeforeCreate assigns a UUID primary key and plan defaults
func (t *Tenant) BeforeCreate(tx *gorm.DB) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	if t.Plan == "" {
		t.Plan = PlanFree
	}
	if t.MaxUsers == 0 && t.MaxProjects == 0 {
		limits := t.Plan.Limits()
		t.MaxUsers = limits.MaxUsers
		t.MaxProjects = limits.MaxProjects
	}
	return nil
}
