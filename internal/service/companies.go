package service

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/fleethire/driverhub-go/internal/domain"
	"github.com/fleethire/driverhub-go/internal/port"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var companyTracer = otel.Tracer("service/companies")

// CompanyService is the tenant admin surface. Its writes are what the
// reactive components consume; it never calls the synchronizer or the
// resolver directly.
type CompanyService struct {
	companies   port.CompanyStore
	memberships port.MembershipStore
	leads       port.LeadStore
	logger      *zap.Logger
}

// NewCompanyService creates a company service.
func NewCompanyService(companies port.CompanyStore, memberships port.MembershipStore, leads port.LeadStore, logger *zap.Logger) *CompanyService {
	return &CompanyService{
		companies:   companies,
		memberships: memberships,
		leads:       leads,
		logger:      logger,
	}
}

// CreateCompanyRequest is the tenant-creation payload.
type CreateCompanyRequest struct {
	CompanyName  string `json:"company_name"`
	Slug         string `json:"slug"`
	PlanType     string `json:"plan_type"`
	ContactEmail string `json:"contact_email"`
}

// CreateCompany registers a tenant. Slug uniqueness is a check-then-
// insert; a concurrent create with the same slug can slip through the
// check, and the later one simply wins the insert race.
func (s *CompanyService) CreateCompany(ctx context.Context, req *CreateCompanyRequest) (*domain.Company, error) {
	ctx, span := companyTracer.Start(ctx, "CompanyService.CreateCompany")
	defer span.End()

	if strings.TrimSpace(req.CompanyName) == "" {
		return nil, &domain.ErrValidation{Field: "company_name", Message: "must not be empty"}
	}

	plan := req.PlanType
	if plan == "" {
		plan = domain.PlanFree
	}
	if plan != domain.PlanFree && plan != domain.PlanPaid {
		return nil, &domain.ErrValidation{Field: "plan_type", Message: "must be free or paid"}
	}

	slug := req.Slug
	if slug == "" {
		slug = Slugify(req.CompanyName)
	}
	if slug == "" {
		return nil, &domain.ErrValidation{Field: "slug", Message: "could not derive a slug"}
	}

	existing, err := s.companies.GetCompanyBySlug(ctx, slug)
	if err != nil {
		return nil, fmt.Errorf("check slug: %w", err)
	}
	if existing != nil {
		return nil, &domain.ErrConflict{Message: fmt.Sprintf("slug %q is already taken", slug)}
	}

	company := &domain.Company{
		ID:           uuid.New().String(),
		CompanyName:  strings.TrimSpace(req.CompanyName),
		Slug:         slug,
		PlanType:     plan,
		ContactEmail: req.ContactEmail,
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.companies.CreateCompany(ctx, company); err != nil {
		return nil, fmt.Errorf("create company: %w", err)
	}

	s.logger.Info("company created",
		zap.String("company_id", company.ID),
		zap.String("slug", company.Slug),
		zap.String("plan", company.PlanType),
	)
	return company, nil
}

// ListCompanies returns all tenants.
func (s *CompanyService) ListCompanies(ctx context.Context) ([]domain.Company, error) {
	ctx, span := companyTracer.Start(ctx, "CompanyService.ListCompanies")
	defer span.End()

	return s.companies.ListCompanies(ctx)
}

// GetCompany returns one tenant.
func (s *CompanyService) GetCompany(ctx context.Context, companyID string) (*domain.Company, error) {
	ctx, span := companyTracer.Start(ctx, "CompanyService.GetCompany")
	defer span.End()

	return s.companies.GetCompany(ctx, companyID)
}

// UpdateCompanyRequest carries the patchable tenant fields.
type UpdateCompanyRequest struct {
	CompanyName  string `json:"company_name"`
	PlanType     string `json:"plan_type"`
	ContactEmail string `json:"contact_email"`
}

// UpdateCompany patches the provided fields.
func (s *CompanyService) UpdateCompany(ctx context.Context, companyID string, req *UpdateCompanyRequest) (*domain.Company, error) {
	ctx, span := companyTracer.Start(ctx, "CompanyService.UpdateCompany")
	defer span.End()

	updates := map[string]any{}
	if req.CompanyName != "" {
		updates["company_name"] = strings.TrimSpace(req.CompanyName)
	}
	if req.PlanType != "" {
		if req.PlanType != domain.PlanFree && req.PlanType != domain.PlanPaid {
			return nil, &domain.ErrValidation{Field: "plan_type", Message: "must be free or paid"}
		}
		updates["plan_type"] = req.PlanType
	}
	if req.ContactEmail != "" {
		updates["contact_email"] = req.ContactEmail
	}
	if len(updates) == 0 {
		return nil, &domain.ErrValidation{Field: "body", Message: "no updatable fields provided"}
	}

	return s.companies.UpdateCompany(ctx, companyID, updates)
}

// DeleteCompany tears a tenant down: memberships and scoped lead copies
// go first (concurrently — they are independent), then the company row.
// Each membership delete fires its own claims reconciliation event.
// Master driver profiles are never touched; they outlive every tenant.
func (s *CompanyService) DeleteCompany(ctx context.Context, companyID string) error {
	ctx, span := companyTracer.Start(ctx, "CompanyService.DeleteCompany")
	defer span.End()

	if _, err := s.companies.GetCompany(ctx, companyID); err != nil {
		return err
	}

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return s.memberships.DeleteByCompany(gCtx, companyID)
	})
	g.Go(func() error {
		return s.leads.DeleteCompanyLeads(gCtx, companyID)
	})
	if err := g.Wait(); err != nil {
		return fmt.Errorf("tear down company %s: %w", companyID, err)
	}

	if err := s.companies.DeleteCompany(ctx, companyID); err != nil {
		return fmt.Errorf("delete company row: %w", err)
	}

	s.logger.Info("company deleted", zap.String("company_id", companyID))
	return nil
}

// Slugify lowers a name to a URL-safe slug: letters and digits kept,
// runs of anything else collapsed to single hyphens.
func Slugify(name string) string {
	var b strings.Builder
	lastHyphen := true // suppress a leading hyphen
	for _, r := range strings.ToLower(strings.TrimSpace(name)) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
			lastHyphen = false
		default:
			if !lastHyphen {
				b.WriteRune('-')
				lastHyphen = true
			}
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}
