package domain

import "time"

// Membership links a user to a company with a role.
// Uniqueness per (user_id, company_id) is enforced by a check-then-insert
// at the application layer, not by the store; concurrent joins can race
// and leave duplicate rows. The claims rebuild tolerates duplicates
// because it overwrites per-company keys.
type Membership struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	CompanyID string    `json:"company_id"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

// Company is a recruiting tenant. PlanType drives the per-run lead
// distribution quota.
type Company struct {
	ID           string    `json:"id"`
	CompanyName  string    `json:"company_name"`
	Slug         string    `json:"slug"`
	PlanType     string    `json:"plan_type"`
	ContactEmail string    `json:"contact_email,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// Plan types.
const (
	PlanFree = "free"
	PlanPaid = "paid"
)

// Invite lets a user join a company without an admin creating the
// membership directly. The raw token is returned exactly once at
// creation; only its bcrypt hash is stored.
type Invite struct {
	ID        string    `json:"id"`
	CompanyID string    `json:"company_id"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	TokenHash string    `json:"token_hash,omitempty"`
	Used      bool      `json:"used"`
	ExpiresAt time.Time `json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
}
