package supabase_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/fleethire/driverhub-go/internal/domain"
	"github.com/fleethire/driverhub-go/internal/infra/observability"
	"github.com/fleethire/driverhub-go/internal/infra/resilience"
	"github.com/fleethire/driverhub-go/internal/infra/supabase"

	"go.uber.org/zap"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *supabase.Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	return supabase.NewClient(
		srv.Client(),
		srv.URL,
		"anon-key",
		"service-key",
		10,
		resilience.NewCircuitBreaker(t.Name()),
		resilience.Config{MaxRetries: 0, InitialBackoff: time.Millisecond},
		observability.NewMetrics(),
		zap.NewNop(),
	)
}

func TestGetUserByEmail(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/auth/v1/admin/users" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if r.URL.Query().Get("email") != "ray.soto@example.com" {
			t.Errorf("email param = %s", r.URL.Query().Get("email"))
		}
		if r.Header.Get("apikey") != "anon-key" || r.Header.Get("Authorization") != "Bearer service-key" {
			t.Error("auth headers missing")
		}
		json.NewEncoder(w).Encode(map[string]any{
			"users": []map[string]any{{
				"id":                 "driver-1",
				"email":              "ray.soto@example.com",
				"email_confirmed_at": "2026-08-01T00:00:00Z",
				"app_metadata":       map[string]any{"roles": map[string]string{"co-1": domain.RoleHRUser}},
			}},
		})
	})

	user, err := client.GetUserByEmail(context.Background(), "ray.soto@example.com")
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if user.ID != "driver-1" || !user.EmailVerified {
		t.Errorf("user = %+v", user)
	}
	if user.Claims.RoleFor("co-1") != domain.RoleHRUser {
		t.Errorf("claims not decoded from app_metadata: %+v", user.Claims)
	}
}

func TestGetUserByEmail_Miss(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"users": []any{}})
	})

	_, err := client.GetUserByEmail(context.Background(), "nobody@example.com")
	var notFound *domain.ErrNotFound
	if !errors.As(err, &notFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestCreateUser_ConflictMapsToErrConflict(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		io.WriteString(w, `{"msg":"User already registered"}`)
	})

	_, err := client.CreateUser(context.Background(), "ray.soto@example.com", "Ray Soto", "")
	var conflict *domain.ErrConflict
	if !errors.As(err, &conflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}
}

func TestSetClaims_WritesAppMetadata(t *testing.T) {
	var got map[string]any
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPut || r.URL.Path != "/auth/v1/admin/users/driver-1" {
			t.Errorf("%s %s", r.Method, r.URL.Path)
		}
		json.NewDecoder(r.Body).Decode(&got)
		io.WriteString(w, `{}`)
	})

	claims := domain.Claims{Roles: map[string]string{"co-1": domain.RoleCompanyAdmin}}
	if err := client.SetClaims(context.Background(), "driver-1", claims); err != nil {
		t.Fatalf("set claims: %v", err)
	}

	meta, ok := got["app_metadata"].(map[string]any)
	if !ok {
		t.Fatalf("payload = %v", got)
	}
	roles, ok := meta["roles"].(map[string]any)
	if !ok || roles["co-1"] != domain.RoleCompanyAdmin {
		t.Errorf("roles payload = %v", meta)
	}
}

// The merge contract: one upsert keyed on id, merge-duplicates
// resolution, and only the provided columns in the body.
func TestMergeProfile_UpsertSemantics(t *testing.T) {
	var (
		gotPrefer     string
		gotOnConflict string
		gotRows       []map[string]any
	)
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/rest/v1/driver_profiles" {
			t.Errorf("%s %s", r.Method, r.URL.Path)
		}
		gotPrefer = r.Header.Get("Prefer")
		gotOnConflict = r.URL.Query().Get("on_conflict")
		json.NewDecoder(r.Body).Decode(&gotRows)
		w.WriteHeader(http.StatusCreated)
	})

	fields := map[string]any{"experience_years": "8"}
	if err := client.MergeProfile(context.Background(), "driver-1", fields); err != nil {
		t.Fatalf("merge: %v", err)
	}

	if gotPrefer != "resolution=merge-duplicates,return=minimal" {
		t.Errorf("Prefer = %q", gotPrefer)
	}
	if gotOnConflict != "id" {
		t.Errorf("on_conflict = %q", gotOnConflict)
	}
	if len(gotRows) != 1 {
		t.Fatalf("rows = %d, want 1", len(gotRows))
	}
	row := gotRows[0]
	if row["id"] != "driver-1" || row["experience_years"] != "8" {
		t.Errorf("row = %v", row)
	}
	// Absent fields must not appear: their stored values survive.
	if len(row) != 2 {
		t.Errorf("row carries extra columns: %v", row)
	}
}

func TestGetProfile_NotFound(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `[]`)
	})

	_, err := client.GetProfile(context.Background(), "ghost")
	var notFound *domain.ErrNotFound
	if !errors.As(err, &notFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestRecentLeads_Query(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/rest/v1/leads" {
			t.Errorf("path = %s", r.URL.Path)
		}
		q := r.URL.Query()
		if q.Get("order") != "created_at.desc" || q.Get("limit") != "300" {
			t.Errorf("query = %s", r.URL.RawQuery)
		}
		io.WriteString(w, `[{"id":"lead-1","source":"web","created_at":"2026-08-20T10:00:00Z","email":"ray.soto@example.com"}]`)
	})

	leads, err := client.RecentLeads(context.Background(), 300)
	if err != nil {
		t.Fatalf("recent leads: %v", err)
	}
	if len(leads) != 1 || leads[0].ID != "lead-1" || leads[0].Email != "ray.soto@example.com" {
		t.Errorf("leads = %+v", leads)
	}
}

// One batch commit is one bulk upsert request keyed per
// (company, original lead).
func TestLeadBatch_CommitIsOneUpsert(t *testing.T) {
	requests := 0
	var gotOnConflict string
	var gotRows []map[string]any
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		requests++
		if r.URL.Path != "/rest/v1/company_leads" {
			t.Errorf("path = %s", r.URL.Path)
		}
		gotOnConflict = r.URL.Query().Get("on_conflict")
		json.NewDecoder(r.Body).Decode(&gotRows)
		w.WriteHeader(http.StatusCreated)
	})

	batch := client.Begin()
	for i := 0; i < 3; i++ {
		batch.Upsert(domain.CompanyLead{
			CompanyID:      "co-1",
			OriginalLeadID: "lead-1",
			IsPlatformLead: true,
			DistributedAt:  time.Now(),
		})
	}
	if batch.Size() != 3 {
		t.Fatalf("size = %d, want 3", batch.Size())
	}
	if err := batch.Commit(context.Background()); err != nil {
		t.Fatalf("commit: %v", err)
	}

	if requests != 1 {
		t.Errorf("requests = %d, want one transaction per batch", requests)
	}
	if gotOnConflict != "company_id,original_lead_id" {
		t.Errorf("on_conflict = %q", gotOnConflict)
	}
	if len(gotRows) != 3 {
		t.Errorf("rows = %d, want 3", len(gotRows))
	}
}

// Once the breaker opens, reads fail fast with a circuit-open error
// instead of a generic upstream failure, so callers can answer 503.
func TestRestGet_BreakerOpenSurfacesCircuitError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	// Five straight failures trip the breaker.
	for i := 0; i < 5; i++ {
		if _, err := client.GetProfile(context.Background(), "driver-1"); err == nil {
			t.Fatalf("call %d: expected failure while upstream is down", i)
		}
	}

	_, err := client.GetProfile(context.Background(), "driver-1")
	var open *domain.ErrCircuitOpen
	if !errors.As(err, &open) {
		t.Fatalf("expected ErrCircuitOpen after breaker trips, got %v", err)
	}
	if open.Service != "supabase" {
		t.Errorf("service = %q", open.Service)
	}
}

func TestLeadBatch_EmptyCommitIsNoop(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("empty batch issued a request")
	})

	if err := client.Begin().Commit(context.Background()); err != nil {
		t.Fatalf("empty commit: %v", err)
	}
}
