package authz

import (
	"testing"

	"saas-platform/internal/apperror"
	"saas-platform/internal/model"
)

func TestPolicyTable(t *testing.T) {
	tests := []struct {
		name    string
		role    model.Role
		action  Action
		allowed bool
	}{
		{"super admin lists tenants", model.RoleSuperAdmin, TenantList, true},
		{"tenant admin cannot list tenants", model.RoleTenantAdmin, TenantList, false},
		{"user cannot list tenants", model.RoleUser, TenantList, false},
		{"tenant admin reads own tenant route", model.RoleTenantAdmin, TenantRead, true},
		{"user cannot read tenant route", model.RoleUser, TenantRead, false},
		{"tenant admin manages users", model.RoleTenantAdmin, UserCreate, true},
		{"user cannot manage users", model.RoleUser, UserCreate, false},
		{"user creates projects", model.RoleUser, ProjectCreate, true},
		{"user cannot delete projects", model.RoleUser, ProjectDelete, false},
		{"tenant admin deletes projects", model.RoleTenantAdmin, ProjectDelete, true},
		{"user updates tasks", model.RoleUser, TaskUpdate, true},
		{"user cannot delete tasks", model.RoleUser, TaskDelete, false},
		{"user cannot read audit log", model.RoleUser, AuditRead, false},
		{"tenant admin reads audit log", model.RoleTenantAdmin, AuditRead, true},
		{"unknown role denied", model.Role("intruder"), ProjectRead, false},
		{"unknown action denied", model.RoleSuperAdmin, Action("nonsense"), false},
	}

	for _, tt := range tests {
		if got := Allowed(tt.role, tt.action); got != tt.allowed {
			t.Errorf("%s: Allowed(%q, %q) = %v, want %v", tt.name, tt.role, tt.action, got, tt.allowed)
		}
	}
}

func TestCheckReturnsUnauthorized(t *testing.T) {
	err := Check(model.RoleUser, TenantList)
	if err == nil {
		t.Fatalf("expected denial for user listing tenants")
	}
	appErr := apperror.AsError(err)
	if appErr == nil || appErr.Kind != apperror.Unauthorized {
		t.Fatalf("expected unauthorized kind, got %v", err)
	}

	if err := Check(model.RoleSuperAdmin, TenantList); err != nil {
		t.Fatalf("expected super admin to pass: %v", err)
	}
}

func TestEveryActionHasRoles(t *testing.T) {
	for action, roles := range policies {
		if len(roles) == 0 {
			t.Errorf("action %q has an empty role set", action)
		}
	}
}
