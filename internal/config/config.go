package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds all application configuration.
// Values are loaded from environment variables with sensible defaults.
type Config struct {
	// Server
	Port     int
	LogLevel string

	// Supabase (PostgREST document store + GoTrue identity provider)
	SupabaseURL        string
	SupabaseAnonKey    string
	SupabaseServiceKey string
	// SupabaseJWTSecret verifies the session tokens GoTrue signs; the
	// claims payload we write into app_metadata rides inside them.
	SupabaseJWTSecret string

	// WebhookSecret authenticates the store's database-webhook calls to
	// the /v1/events endpoints.
	WebhookSecret string

	// HTTP client
	HTTPTimeout time.Duration

	// Resilience
	MaxRetries     int
	InitialBackoff time.Duration
	// MaxConcurrency bounds concurrent event-sync invocations.
	MaxConcurrency int

	// Cache
	CacheTTL time.Duration

	// Observability
	OTLPEndpoint string

	// Identity resolution
	PlaceholderEmailDomain string

	// Lead distribution
	LeadPoolLimit   int
	PaidPlanLeadCap int
	FreePlanLeadCap int
	// MaxBatchOps is the per-atomic-batch operation ceiling handed to
	// the storage adapter. Keep it below the engine's hard limit.
	MaxBatchOps int

	// Invites
	InviteTTL time.Duration
}

// Load reads configuration from environment variables with defaults.
func Load() *Config {
	return &Config{
		Port:     getEnvInt("PORT", 8080),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		SupabaseURL:        getEnv("SUPABASE_URL", ""),
		SupabaseAnonKey:    getEnv("SUPABASE_ANON_KEY", ""),
		SupabaseServiceKey: getEnv("SUPABASE_SERVICE_ROLE_KEY", ""),
		SupabaseJWTSecret:  getEnv("SUPABASE_JWT_SECRET", ""),

		WebhookSecret: getEnv("WEBHOOK_SECRET", ""),

		HTTPTimeout: getEnvDuration("HTTP_TIMEOUT", 10*time.Second),

		MaxRetries:     getEnvInt("MAX_RETRIES", 3),
		InitialBackoff: getEnvDuration("INITIAL_BACKOFF", 100*time.Millisecond),
		MaxConcurrency: getEnvInt("MAX_CONCURRENCY", 50),

		CacheTTL: getEnvDuration("CACHE_TTL", 5*time.Minute),

		OTLPEndpoint: getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),

		PlaceholderEmailDomain: getEnv("PLACEHOLDER_EMAIL_DOMAIN", "placeholder.com"),

		LeadPoolLimit:   getEnvInt("LEAD_POOL_LIMIT", 300),
		PaidPlanLeadCap: getEnvInt("PAID_PLAN_LEAD_CAP", 200),
		FreePlanLeadCap: getEnvInt("FREE_PLAN_LEAD_CAP", 50),
		MaxBatchOps:     getEnvInt("MAX_BATCH_OPS", 450),

		InviteTTL: getEnvDuration("INVITE_TTL", 7*24*time.Hour),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
