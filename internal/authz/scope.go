package authz

import (
	"gorm.io/gorm"

	"saas-platform/internal/model"
	"saas-platform/pkg/jwtutil"
)

// Scope is the effective tenant visibility of a principal: either a
// single tenant, or all tenants for a super_admin.
type Scope struct {
	tenantID *string
}

// ScopeFor derives the scoping tenant from decoded token claims.
// super_admin principals see all tenants; everyone else sees only
// their own. Pure function of the principal.
func ScopeFor(claims *jwtutil.UserClaims) Scope {
	if model.Role(claims.Role) == model.RoleSuperAdmin {
		return Scope{}
	}
	return Scope{tenantID: claims.TenantID}
}

// AllTenants reports whether the scope spans every tenant
func (s Scope) AllTenants() bool {
	return s.tenantID == nil
}

// TenantID returns the scoping tenant id, nil meaning all tenants
func (s Scope) TenantID() *string {
	return s.tenantID
}

// Covers reports whether the given tenant is visible under the scope
func (s Scope) Covers(tenantID string) bool {
	return s.tenantID == nil || *s.tenantID == tenantID
}

// Apply narrows a query to the scope's tenant. Queries for tenant-owned
// entities go through here so the tenant_id filter is never forgotten.
func (s Scope) Apply(db *gorm.DB) *gorm.DB {
	if s.tenantID == nil {
		return db
	}
	return db.Where("tenant_id = ?", *s.tenantID)
}
