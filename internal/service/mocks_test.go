package service_test

import (
	"context"
	"errors"
	"fmt"

	"github.com/fleethire/driverhub-go/internal/domain"
	"github.com/fleethire/driverhub-go/internal/port"
)

// Stateful in-memory fakes for the service-layer ports.

type mockIdentity struct {
	users map[string]*domain.IdentityUser // keyed by id

	createCalls int
	setClaims   map[string]domain.Claims

	getUserErr error
	lookupErr  error
	// lookupHook, when set, overrides lookupErr per call.
	lookupHook func() error
	createErr  error
}

func newMockIdentity(users ...*domain.IdentityUser) *mockIdentity {
	m := &mockIdentity{
		users:     map[string]*domain.IdentityUser{},
		setClaims: map[string]domain.Claims{},
	}
	for _, u := range users {
		m.users[u.ID] = u
	}
	return m
}

func (m *mockIdentity) GetUser(_ context.Context, userID string) (*domain.IdentityUser, error) {
	if m.getUserErr != nil {
		return nil, m.getUserErr
	}
	if u, ok := m.users[userID]; ok {
		return u, nil
	}
	return nil, &domain.ErrNotFound{Resource: "user", ID: userID}
}

func (m *mockIdentity) GetUserByEmail(_ context.Context, email string) (*domain.IdentityUser, error) {
	if m.lookupHook != nil {
		if err := m.lookupHook(); err != nil {
			return nil, err
		}
	} else if m.lookupErr != nil {
		return nil, m.lookupErr
	}
	for _, u := range m.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, &domain.ErrNotFound{Resource: "user", ID: email}
}

func (m *mockIdentity) CreateUser(_ context.Context, email, displayName, phone string) (*domain.IdentityUser, error) {
	m.createCalls++
	if m.createErr != nil {
		return nil, m.createErr
	}
	for _, u := range m.users {
		if u.Email == email {
			return nil, &domain.ErrConflict{Message: "account already exists"}
		}
	}
	u := &domain.IdentityUser{
		ID:          fmt.Sprintf("user-%d", len(m.users)+1),
		Email:       email,
		DisplayName: displayName,
		Phone:       phone,
	}
	m.users[u.ID] = u
	return u, nil
}

func (m *mockIdentity) SetClaims(_ context.Context, userID string, claims domain.Claims) error {
	if _, ok := m.users[userID]; !ok {
		return &domain.ErrNotFound{Resource: "user", ID: userID}
	}
	m.setClaims[userID] = claims
	return nil
}

type mockMemberships struct {
	rows []domain.Membership

	deletedIDs       []string
	deletedCompanies []string
	listErr          error
	createErr        error
}

func (m *mockMemberships) ListByUser(_ context.Context, userID string) ([]domain.Membership, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	var out []domain.Membership
	for _, row := range m.rows {
		if row.UserID == userID {
			out = append(out, row)
		}
	}
	return out, nil
}

func (m *mockMemberships) ListByCompany(_ context.Context, companyID string) ([]domain.Membership, error) {
	var out []domain.Membership
	for _, row := range m.rows {
		if row.CompanyID == companyID {
			out = append(out, row)
		}
	}
	return out, nil
}

func (m *mockMemberships) Get(_ context.Context, membershipID string) (*domain.Membership, error) {
	for i := range m.rows {
		if m.rows[i].ID == membershipID {
			return &m.rows[i], nil
		}
	}
	return nil, &domain.ErrNotFound{Resource: "membership", ID: membershipID}
}

func (m *mockMemberships) FindByUserAndCompany(_ context.Context, userID, companyID string) (*domain.Membership, error) {
	for i := range m.rows {
		if m.rows[i].UserID == userID && m.rows[i].CompanyID == companyID {
			return &m.rows[i], nil
		}
	}
	return nil, nil
}

func (m *mockMemberships) Create(_ context.Context, row *domain.Membership) error {
	if m.createErr != nil {
		return m.createErr
	}
	m.rows = append(m.rows, *row)
	return nil
}

func (m *mockMemberships) Delete(_ context.Context, membershipID string) error {
	m.deletedIDs = append(m.deletedIDs, membershipID)
	return nil
}

func (m *mockMemberships) DeleteByCompany(_ context.Context, companyID string) error {
	m.deletedCompanies = append(m.deletedCompanies, companyID)
	return nil
}

type mockCompanies struct {
	companies []domain.Company

	created []domain.Company
	deleted []string
	updates map[string]any
}

func (m *mockCompanies) ListCompanies(_ context.Context) ([]domain.Company, error) {
	return m.companies, nil
}

func (m *mockCompanies) GetCompany(_ context.Context, companyID string) (*domain.Company, error) {
	for i := range m.companies {
		if m.companies[i].ID == companyID {
			return &m.companies[i], nil
		}
	}
	return nil, &domain.ErrNotFound{Resource: "company", ID: companyID}
}

func (m *mockCompanies) GetCompanyBySlug(_ context.Context, slug string) (*domain.Company, error) {
	for i := range m.companies {
		if m.companies[i].Slug == slug {
			return &m.companies[i], nil
		}
	}
	return nil, nil
}

func (m *mockCompanies) CreateCompany(_ context.Context, c *domain.Company) error {
	m.created = append(m.created, *c)
	m.companies = append(m.companies, *c)
	return nil
}

func (m *mockCompanies) UpdateCompany(_ context.Context, companyID string, updates map[string]any) (*domain.Company, error) {
	m.updates = updates
	return m.GetCompany(context.Background(), companyID)
}

func (m *mockCompanies) DeleteCompany(_ context.Context, companyID string) error {
	m.deleted = append(m.deleted, companyID)
	return nil
}

type mockProfiles struct {
	profiles map[string]*domain.DriverProfile

	mergedID     string
	mergedFields map[string]any
	mergeCalls   int
	getCalls     int
}

func (m *mockProfiles) GetProfile(_ context.Context, driverID string) (*domain.DriverProfile, error) {
	m.getCalls++
	if p, ok := m.profiles[driverID]; ok {
		return p, nil
	}
	return nil, &domain.ErrNotFound{Resource: "driver_profile", ID: driverID}
}

func (m *mockProfiles) MergeProfile(_ context.Context, driverID string, fields map[string]any) error {
	m.mergeCalls++
	m.mergedID = driverID
	m.mergedFields = fields
	return nil
}

type mockLeads struct {
	pool []domain.Lead

	deletedCompanies []string
}

func (m *mockLeads) RecentLeads(_ context.Context, limit int) ([]domain.Lead, error) {
	if len(m.pool) > limit {
		return m.pool[:limit], nil
	}
	return m.pool, nil
}

func (m *mockLeads) DeleteCompanyLeads(_ context.Context, companyID string) error {
	m.deletedCompanies = append(m.deletedCompanies, companyID)
	return nil
}

// mockBatchWriter records every committed batch. failOnCommit fails the
// Nth commit (1-based); earlier commits stay recorded, mirroring the
// batch-atomic durability of the real adapter.
type mockBatchWriter struct {
	maxOps       int
	failOnCommit int

	commits   int
	committed [][]domain.CompanyLead
}

func (w *mockBatchWriter) MaxOps() int {
	if w.maxOps <= 0 {
		return 450
	}
	return w.maxOps
}

func (w *mockBatchWriter) Begin() port.Batch {
	return &mockBatch{w: w}
}

func (w *mockBatchWriter) allOps() []domain.CompanyLead {
	var all []domain.CompanyLead
	for _, batch := range w.committed {
		all = append(all, batch...)
	}
	return all
}

type mockBatch struct {
	w   *mockBatchWriter
	ops []domain.CompanyLead
}

func (b *mockBatch) Upsert(lead domain.CompanyLead) { b.ops = append(b.ops, lead) }
func (b *mockBatch) Size() int                      { return len(b.ops) }

func (b *mockBatch) Commit(_ context.Context) error {
	b.w.commits++
	if b.w.failOnCommit != 0 && b.w.commits == b.w.failOnCommit {
		return errors.New("batch commit failed")
	}
	b.w.committed = append(b.w.committed, b.ops)
	return nil
}

type mockInvites struct {
	invites map[string]*domain.Invite

	used []string
}

func newMockInvites() *mockInvites {
	return &mockInvites{invites: map[string]*domain.Invite{}}
}

func (m *mockInvites) CreateInvite(_ context.Context, inv *domain.Invite) error {
	m.invites[inv.ID] = inv
	return nil
}

func (m *mockInvites) GetInvite(_ context.Context, inviteID string) (*domain.Invite, error) {
	if inv, ok := m.invites[inviteID]; ok {
		return inv, nil
	}
	return nil, &domain.ErrNotFound{Resource: "invite", ID: inviteID}
}

func (m *mockInvites) MarkInviteUsed(_ context.Context, inviteID string) error {
	m.used = append(m.used, inviteID)
	if inv, ok := m.invites[inviteID]; ok {
		inv.Used = true
	}
	return nil
}
