package handler

import (
	"net/http"

	"github.com/fleethire/driverhub-go/internal/infra/observability"
	"github.com/fleethire/driverhub-go/internal/infra/resilience"
	"github.com/fleethire/driverhub-go/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Deps bundles everything the router needs.
type Deps struct {
	Claims      *service.ClaimsSyncer
	Resolver    *service.IdentityResolver
	Distributor *service.LeadDistributor
	Companies   *service.CompanyService
	Members     *service.MemberService
	Profiles    *service.ProfileService

	EventBulkhead *resilience.Bulkhead
	Metrics       *observability.Metrics
	Logger        *zap.Logger

	JWTSecret     []byte
	WebhookSecret string
}

// NewRouter creates the HTTP router with all routes and middleware.
func NewRouter(d Deps) http.Handler {
	events := NewEventsHandler(d.Claims, d.Resolver, d.EventBulkhead, d.Metrics, d.Logger)
	companies := NewCompaniesHandler(d.Companies, d.Logger)
	members := NewMembersHandler(d.Members, d.Logger)
	distribution := NewDistributionHandler(d.Distributor, d.Metrics, d.Logger)
	profiles := NewProfilesHandler(d.Profiles, d.Logger)

	r := chi.NewRouter()

	// --- Middleware ---
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(observability.ZapLoggerMiddleware(d.Logger))
	r.Use(observability.TracingMiddleware)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Heartbeat("/ping"))

	// --- Operational endpoints ---
	r.Get("/healthz", healthzHandler())
	r.Get("/readyz", readyzHandler())
	r.Handle("/metrics", promhttp.HandlerFor(d.Metrics.Registry, promhttp.HandlerOpts{}))

	// --- API v1 ---
	r.Route("/v1", func(r chi.Router) {

		// =============================================
		// Store webhooks (shared-secret auth, always 202)
		// POST /v1/events/memberships
		// POST /v1/events/applications
		// POST /v1/events/leads
		// =============================================
		r.Route("/events", func(r chi.Router) {
			r.Use(WebhookAuthMiddleware(d.WebhookSecret, d.Logger))
			r.Post("/memberships", events.HandleMembershipEvent)
			r.Post("/applications", events.HandleApplicationEvent)
			r.Post("/leads", events.HandleLeadEvent)
		})

		// =============================================
		// Invite redemption (token is the credential)
		// POST /v1/invites/{inviteID}/accept
		// =============================================
		r.Post("/invites/{inviteID}/accept", members.AcceptInvite)

		// =============================================
		// Session-authenticated surface
		// =============================================
		r.Group(func(r chi.Router) {
			r.Use(JWTAuthMiddleware(d.JWTSecret, d.Logger))

			// Tenants
			r.Get("/companies/{companyID}", companies.Get)
			r.Patch("/companies/{companyID}", companies.Update)

			// Memberships and invites
			r.Post("/companies/{companyID}/members", members.Add)
			r.Get("/companies/{companyID}/members", members.List)
			r.Delete("/companies/{companyID}/members/{membershipID}", members.Remove)
			r.Post("/companies/{companyID}/invites", members.CreateInvite)

			// Master driver profiles
			r.Get("/drivers/{driverID}/profile", profiles.Get)

			// Distribution metrics snapshot
			r.Get("/metrics/distribution", distribution.Snapshot)

			// Platform-operator routes
			r.Group(func(r chi.Router) {
				r.Use(RequireSuperAdmin(d.Logger))
				r.Post("/companies", companies.Create)
				r.Get("/companies", companies.List)
				r.Delete("/companies/{companyID}", companies.Delete)
				r.Post("/leads/distribute", distribution.Distribute)
			})
		})
	})

	return r
}

func healthzHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{
			"status":  "ok",
			"service": "driverhub",
		})
	}
}

func readyzHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	}
}
