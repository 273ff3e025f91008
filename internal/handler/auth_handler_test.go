package handler

import (
	"testing"

	"saas-platform/internal/apperror"
	"saas-platform/internal/model"
)

// Suspension must block token issuance on both the login and the
// refresh path; both funnel through this check.
func TestEnsureTenantActive(t *testing.T) {
	for _, status := range []model.TenantStatus{model.TenantActive, model.TenantTrial} {
		if err := ensureTenantActive(&model.Tenant{Status: status}); err != nil {
			t.Errorf("%s tenant should pass: %v", status, err)
		}
	}

	err := ensureTenantActive(&model.Tenant{Status: model.TenantSuspended})
	if err == nil {
		t.Fatal("suspended tenant should be rejected")
	}
	appErr := apperror.AsError(err)
	if appErr == nil || appErr.Kind != apperror.Unauthorized {
		t.Fatalf("expected unauthorized kind, got %v", err)
	}
	if appErr.Message != "tenant is suspended" {
		t.Errorf("message = %q, want %q", appErr.Message, "tenant is suspended")
	}
}
