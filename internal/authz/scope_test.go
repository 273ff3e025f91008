package authz

import (
	"testing"

	"saas-platform/pkg/jwtutil"
)

func claimsFor(role string, tenantID *string) *jwtutil.UserClaims {
	return &jwtutil.UserClaims{
		UserID:   "user-1",
		Email:    "someone@example.com",
		TenantID: tenantID,
		Role:     role,
	}
}

func TestScopeForSuperAdminSpansAllTenants(t *testing.T) {
	scope := ScopeFor(claimsFor("super_admin", nil))
	if !scope.AllTenants() {
		t.Fatalf("super_admin scope should span all tenants")
	}
	if scope.TenantID() != nil {
		t.Fatalf("super_admin scope should carry no tenant id")
	}
	if !scope.Covers("any-tenant") {
		t.Fatalf("super_admin scope should cover every tenant")
	}
}

func TestScopeForTenantPrincipal(t *testing.T) {
	tenantA := "tenant-a"
	for _, role := range []string{"tenant_admin", "user"} {
		scope := ScopeFor(claimsFor(role, &tenantA))
		if scope.AllTenants() {
			t.Fatalf("%s scope should not span all tenants", role)
		}
		if got := scope.TenantID(); got == nil || *got != tenantA {
			t.Fatalf("%s scope tenant = %v, want %s", role, got, tenantA)
		}
		if !scope.Covers(tenantA) {
			t.Fatalf("%s scope should cover its own tenant", role)
		}
		if scope.Covers("tenant-b") {
			t.Fatalf("%s scope must never cover another tenant", role)
		}
	}
}

// A tenant principal's visibility is always a strict subset filtered to
// its own tenant: for any pair of tenants (A, B), A's scope never
// covers B.
func TestCrossTenantIsolation(t *testing.T) {
	tenants := []string{"acme", "globex", "initech"}
	for _, a := range tenants {
		tenant := a
		scope := ScopeFor(claimsFor("user", &tenant))
		for _, b := range tenants {
			want := a == b
			if got := scope.Covers(b); got != want {
				t.Errorf("scope(%s).Covers(%s) = %v, want %v", a, b, got, want)
			}
		}
	}
}
