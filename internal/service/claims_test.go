package service_test

import (
	"context"
	"encoding/json"
	"reflect"
	"testing"

	"github.com/fleethire/driverhub-go/internal/domain"
	"github.com/fleethire/driverhub-go/internal/infra/observability"
	"github.com/fleethire/driverhub-go/internal/service"

	"go.uber.org/zap"
)

func newSyncer(identity *mockIdentity, memberships *mockMemberships) *service.ClaimsSyncer {
	return service.NewClaimsSyncer(identity, memberships, observability.NewMetrics(), zap.NewNop())
}

func TestClaimsSync_RebuildsFromMemberships(t *testing.T) {
	identity := newMockIdentity(&domain.IdentityUser{
		ID: "user-1",
		Claims: domain.Claims{Roles: map[string]string{
			"stale-company": domain.RoleCompanyAdmin,
		}},
	})
	memberships := &mockMemberships{rows: []domain.Membership{
		{ID: "m1", UserID: "user-1", CompanyID: "company-a", Role: domain.RoleHRUser},
		{ID: "m2", UserID: "user-1", CompanyID: "company-b", Role: domain.RoleCompanyAdmin},
	}}

	if err := newSyncer(identity, memberships).Sync(context.Background(), "user-1"); err != nil {
		t.Fatalf("sync: %v", err)
	}

	want := map[string]string{
		"company-a": domain.RoleHRUser,
		"company-b": domain.RoleCompanyAdmin,
	}
	got := identity.setClaims["user-1"].Roles
	if !reflect.DeepEqual(got, want) {
		t.Errorf("claims = %v, want %v", got, want)
	}
}

func TestClaimsSync_PreservesGlobalRole(t *testing.T) {
	identity := newMockIdentity(&domain.IdentityUser{
		ID: "user-1",
		Claims: domain.Claims{Roles: map[string]string{
			domain.GlobalRoleKey: domain.GlobalRoleSuperAdmin,
			"old-company":        domain.RoleHRUser,
		}},
	})
	memberships := &mockMemberships{}

	if err := newSyncer(identity, memberships).Sync(context.Background(), "user-1"); err != nil {
		t.Fatalf("sync: %v", err)
	}

	got := identity.setClaims["user-1"].Roles
	if got[domain.GlobalRoleKey] != domain.GlobalRoleSuperAdmin {
		t.Errorf("global role not preserved: %v", got)
	}
	if _, ok := got["old-company"]; ok {
		t.Errorf("stale company role survived the rebuild: %v", got)
	}
	if len(got) != 1 {
		t.Errorf("expected only the global role, got %v", got)
	}
}

func TestClaimsSync_Idempotent(t *testing.T) {
	identity := newMockIdentity(&domain.IdentityUser{ID: "user-1"})
	memberships := &mockMemberships{rows: []domain.Membership{
		{ID: "m1", UserID: "user-1", CompanyID: "company-a", Role: domain.RoleHRUser},
	}}
	syncer := newSyncer(identity, memberships)

	if err := syncer.Sync(context.Background(), "user-1"); err != nil {
		t.Fatalf("first sync: %v", err)
	}
	first := identity.setClaims["user-1"]

	if err := syncer.Sync(context.Background(), "user-1"); err != nil {
		t.Fatalf("second sync: %v", err)
	}
	second := identity.setClaims["user-1"]

	if !reflect.DeepEqual(first, second) {
		t.Errorf("repeat sync diverged: %v vs %v", first, second)
	}
}

func TestClaimsSync_MissingUserIsNoop(t *testing.T) {
	identity := newMockIdentity()
	memberships := &mockMemberships{}

	if err := newSyncer(identity, memberships).Sync(context.Background(), "ghost"); err != nil {
		t.Fatalf("expected nil for a deleted account, got %v", err)
	}
	if len(identity.setClaims) != 0 {
		t.Error("claims were written for a nonexistent user")
	}
}

func TestClaimsSyncFromEvent_DeleteUsesOldRecord(t *testing.T) {
	identity := newMockIdentity(&domain.IdentityUser{ID: "user-1"})
	memberships := &mockMemberships{}

	ev := domain.ChangeEvent{
		Type:      domain.EventDelete,
		Table:     "memberships",
		OldRecord: json.RawMessage(`{"id":"m1","user_id":"user-1","company_id":"company-a"}`),
	}
	if err := newSyncer(identity, memberships).SyncFromEvent(context.Background(), ev); err != nil {
		t.Fatalf("sync from delete event: %v", err)
	}

	claims, ok := identity.setClaims["user-1"]
	if !ok {
		t.Fatal("delete event did not trigger a claims rebuild")
	}
	if len(claims.Roles) != 0 {
		t.Errorf("expected empty claims after last membership removed, got %v", claims.Roles)
	}
}

func TestClaimsSyncFromEvent_NoUserIDIsNoop(t *testing.T) {
	identity := newMockIdentity()
	memberships := &mockMemberships{}

	ev := domain.ChangeEvent{
		Type:   domain.EventInsert,
		Table:  "memberships",
		Record: json.RawMessage(`{"id":"m1"}`),
	}
	if err := newSyncer(identity, memberships).SyncFromEvent(context.Background(), ev); err != nil {
		t.Fatalf("expected no-op, got %v", err)
	}
	if len(identity.setClaims) != 0 {
		t.Error("claims written despite missing user id")
	}
}
