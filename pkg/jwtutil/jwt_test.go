package jwtutil

import (
	"strings"
	"testing"

	"saas-platform/pkg/config"
)

func initTestConfig(t *testing.T, expirationHours int) {
	t.Helper()
	Initialize(&config.JWTConfig{
		SigningKey:       "test-signing-key",
		ExpirationHours:  expirationHours,
		RefreshTokenDays: 30,
	})
}

func TestGenerateAndValidateToken(t *testing.T) {
	initTestConfig(t, 1)

	tenantID := "tenant-1"
	token, err := GenerateToken("user-1", "alice@acme.test", &tenantID, "tenant_admin")
	if err != nil {
		t.Fatalf("generate failed: %v", err)
	}

	claims, err := ValidateToken(token)
	if err != nil {
		t.Fatalf("validate failed: %v", err)
	}
	if claims.UserID != "user-1" || claims.Email != "alice@acme.test" {
		t.Fatalf("unexpected claims: %+v", claims)
	}
	if claims.TenantID == nil || *claims.TenantID != tenantID {
		t.Fatalf("expected tenant id %q, got %v", tenantID, claims.TenantID)
	}
	if claims.Role != "tenant_admin" {
		t.Fatalf("expected role tenant_admin, got %q", claims.Role)
	}
}

func TestSuperAdminTokenHasNoTenant(t *testing.T) {
	initTestConfig(t, 1)

	token, err := GenerateToken("root-1", "root@platform.test", nil, "super_admin")
	if err != nil {
		t.Fatalf("generate failed: %v", err)
	}
	claims, err := ValidateToken(token)
	if err != nil {
		t.Fatalf("validate failed: %v", err)
	}
	if claims.TenantID != nil {
		t.Fatalf("super_admin token must not carry a tenant id")
	}
}

func TestExpiredTokenRejected(t *testing.T) {
	initTestConfig(t, -1)
	token, err := GenerateToken("user-1", "alice@acme.test", nil, "user")
	if err != nil {
		t.Fatalf("generate failed: %v", err)
	}

	initTestConfig(t, 1)
	if _, err := ValidateToken(token); err == nil {
		t.Fatalf("expected expired token to be rejected")
	}
}

func TestTamperedTokenRejected(t *testing.T) {
	initTestConfig(t, 1)
	token, err := GenerateToken("user-1", "alice@acme.test", nil, "user")
	if err != nil {
		t.Fatalf("generate failed: %v", err)
	}

	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		t.Fatalf("unexpected token format")
	}
	tampered := parts[0] + "." + parts[1] + "." + "AAAA" + parts[2][4:]
	if _, err := ValidateToken(tampered); err == nil {
		t.Fatalf("expected tampered token to be rejected")
	}
}

func TestWrongKeyRejected(t *testing.T) {
	initTestConfig(t, 1)
	token, err := GenerateToken("user-1", "alice@acme.test", nil, "user")
	if err != nil {
		t.Fatalf("generate failed: %v", err)
	}

	Initialize(&config.JWTConfig{SigningKey: "other-key", ExpirationHours: 1})
	if _, err := ValidateToken(token); err == nil {
		t.Fatalf("expected token signed with another key to be rejected")
	}
}

func TestGarbageTokenRejected(t *testing.T) {
	initTestConfig(t, 1)
	if _, err := ValidateToken("not-a-token"); err == nil {
		t.Fatalf("expected garbage token to be rejected")
	}
}
