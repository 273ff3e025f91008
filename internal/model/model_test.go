package model

import (
	"testing"
	"time"
)

func TestSubscriptionPlanLimits(t *testing.T) {
	tests := []struct {
		plan        SubscriptionPlan
		maxUsers    int
		maxProjects int
	}{
		{PlanFree, 5, 3},
		{PlanPro, 25, 15},
		{PlanEnterprise, 100, 50},
	}
	for _, tc := range tests {
		limits := tc.plan.Limits()
		if limits.MaxUsers != tc.maxUsers || limits.MaxProjects != tc.maxProjects {
			t.Errorf("%s: got limits %+v, want {%d %d}", tc.plan, limits, tc.maxUsers, tc.maxProjects)
		}
	}
}

func TestUnknownPlanFallsBackToFree(t *testing.T) {
	limits := SubscriptionPlan("platinum").Limits()
	if limits != SubscriptionPlans[PlanFree] {
		t.Errorf("unknown plan got limits %+v, want free limits", limits)
	}
	if SubscriptionPlan("platinum").Valid() {
		t.Error("unknown plan reported valid")
	}
}

func TestTenantBeforeCreateDefaults(t *testing.T) {
	tenant := &Tenant{Name: "Acme", Subdomain: "acme"}
	if err := tenant.BeforeCreate(nil); err != nil {
		t.Fatalf("BeforeCreate: %v", err)
	}
	if tenant.ID == "" {
		t.Error("id not assigned")
	}
	if tenant.Plan != PlanFree {
		t.Errorf("plan = %s, want free", tenant.Plan)
	}
	if tenant.MaxUsers != 5 || tenant.MaxProjects != 3 {
		t.Errorf("limits = %d/%d, want 5/3", tenant.MaxUsers, tenant.MaxProjects)
	}
}

func TestTenantBeforeCreateKeepsExplicitValues(t *testing.T) {
	tenant := &Tenant{
		ID:        "fixed-id",
		Name:      "Globex",
		Subdomain: "globex",
		Plan:      PlanPro,
	}
	if err := tenant.BeforeCreate(nil); err != nil {
		t.Fatalf("BeforeCreate: %v", err)
	}
	if tenant.ID != "fixed-id" {
		t.Errorf("id overwritten to %s", tenant.ID)
	}
	if tenant.MaxUsers != 25 || tenant.MaxProjects != 15 {
		t.Errorf("limits = %d/%d, want pro 25/15", tenant.MaxUsers, tenant.MaxProjects)
	}
}

func TestRoleValid(t *testing.T) {
	for _, r := range []Role{RoleSuperAdmin, RoleTenantAdmin, RoleUser} {
		if !r.Valid() {
			t.Errorf("%s should be valid", r)
		}
	}
	if Role("owner").Valid() {
		t.Error("owner should not be a valid role")
	}
	if Role("").Valid() {
		t.Error("empty role should not be valid")
	}
}

func TestTenantStatusValid(t *testing.T) {
	for _, s := range []TenantStatus{TenantActive, TenantSuspended, TenantTrial} {
		if !s.Valid() {
			t.Errorf("%s should be valid", s)
		}
	}
	if TenantStatus("deleted").Valid() {
		t.Error("deleted should not be a valid status")
	}
}

func TestTaskEnumsValid(t *testing.T) {
	for _, s := range []TaskStatus{TaskTodo, TaskInProgress, TaskCompleted} {
		if !s.Valid() {
			t.Errorf("%s should be valid", s)
		}
	}
	if TaskStatus("blocked").Valid() {
		t.Error("blocked should not be a valid task status")
	}
	for _, p := range []TaskPriority{PriorityLow, PriorityMedium, PriorityHigh} {
		if !p.Valid() {
			t.Errorf("%s should be valid", p)
		}
	}
	if TaskPriority("urgent").Valid() {
		t.Error("urgent should not be a valid priority")
	}
}

func TestProjectStatusValid(t *testing.T) {
	for _, s := range []ProjectStatus{ProjectActive, ProjectArchived, ProjectCompleted} {
		if !s.Valid() {
			t.Errorf("%s should be valid", s)
		}
	}
	if ProjectStatus("paused").Valid() {
		t.Error("paused should not be a valid project status")
	}
}

func TestBeforeCreateAssignsIDs(t *testing.T) {
	u := &User{Email: "a@b.test"}
	if err := u.BeforeCreate(nil); err != nil {
		t.Fatalf("user BeforeCreate: %v", err)
	}
	if u.ID == "" {
		t.Error("user id not assigned")
	}

	p := &Project{Name: "roadmap"}
	if err := p.BeforeCreate(nil); err != nil {
		t.Fatalf("project BeforeCreate: %v", err)
	}
	if p.ID == "" {
		t.Error("project id not assigned")
	}

	task := &Task{Title: "write docs"}
	if err := task.BeforeCreate(nil); err != nil {
		t.Fatalf("task BeforeCreate: %v", err)
	}
	if task.ID == "" {
		t.Error("task id not assigned")
	}
}

func TestRefreshTokenBeforeCreateGeneratesToken(t *testing.T) {
	rt := &RefreshToken{UserID: "user-1"}
	if err := rt.BeforeCreate(nil); err != nil {
		t.Fatalf("BeforeCreate: %v", err)
	}
	if rt.ID == "" {
		t.Error("id not assigned")
	}
	if rt.Token == "" {
		t.Error("token not generated")
	}

	other := &RefreshToken{UserID: "user-1"}
	if err := other.BeforeCreate(nil); err != nil {
		t.Fatalf("BeforeCreate: %v", err)
	}
	if other.Token == rt.Token {
		t.Error("tokens should be unique per row")
	}
}

func TestRefreshTokenValidity(t *testing.T) {
	live := &RefreshToken{ExpiresAt: time.Now().Add(time.Hour)}
	if !live.IsValid() {
		t.Error("unexpired unrevoked token should be valid")
	}

	expired := &RefreshToken{ExpiresAt: time.Now().Add(-time.Minute)}
	if expired.IsValid() {
		t.Error("expired token should not be valid")
	}
	if !expired.IsExpired() {
		t.Error("expired token should report expired")
	}

	revoked := &RefreshToken{ExpiresAt: time.Now().Add(time.Hour), Revoked: true}
	if revoked.IsValid() {
		t.Error("revoked token should not be valid")
	}
}
