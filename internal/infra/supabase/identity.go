package supabase

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/fleethire/driverhub-go/internal/domain"

	"go.opentelemetry.io/otel/attribute"
)

// GoTrue admin API (implements port.IdentityProvider). Accounts are the
// canonical driver identities; the claims payload lives in app_metadata
// and is embedded in every session token GoTrue signs.

// gotrueUser maps the admin API's user representation.
type gotrueUser struct {
	ID               string          `json:"id"`
	Email            string          `json:"email"`
	Phone            string          `json:"phone"`
	EmailConfirmedAt string          `json:"email_confirmed_at"`
	AppMetadata      json.RawMessage `json:"app_metadata"`
	UserMetadata     struct {
		DisplayName string `json:"display_name"`
	} `json:"user_metadata"`
}

type gotrueUserList struct {
	Users []gotrueUser `json:"users"`
}

func (u gotrueUser) toDomain() *domain.IdentityUser {
	user := &domain.IdentityUser{
		ID:            u.ID,
		Email:         u.Email,
		Phone:         u.Phone,
		DisplayName:   u.UserMetadata.DisplayName,
		EmailVerified: u.EmailConfirmedAt != "",
	}
	if len(u.AppMetadata) > 0 {
		// Claims decode is best-effort; accounts created outside this
		// system may carry unrelated metadata.
		_ = json.Unmarshal(u.AppMetadata, &user.Claims)
	}
	return user
}

// GetUser fetches an account by identity-provider id.
func (c *Client) GetUser(ctx context.Context, userID string) (*domain.IdentityUser, error) {
	ctx, span := tracer.Start(ctx, "Supabase.GetUser")
	defer span.End()
	span.SetAttributes(attribute.String("user.id", userID))

	status, body, err := c.do(ctx, http.MethodGet, "/auth/v1/admin/users/"+userID, nil, "")
	if err != nil {
		return nil, &domain.ErrExternalService{Service: "gotrue", Err: err}
	}
	if status == http.StatusNotFound {
		return nil, &domain.ErrNotFound{Resource: "user", ID: userID}
	}
	if status < 200 || status >= 300 {
		return nil, &domain.ErrExternalService{
			Service: "gotrue",
			Err:     fmt.Errorf("get user returned %d: %s", status, string(body)),
		}
	}

	var u gotrueUser
	if err := json.Unmarshal(body, &u); err != nil {
		return nil, fmt.Errorf("decode user: %w", err)
	}
	return u.toDomain(), nil
}

// GetUserByEmail looks an account up by email. Returns ErrNotFound when
// no account matches — callers depend on that distinction for
// find-or-create.
func (c *Client) GetUserByEmail(ctx context.Context, email string) (*domain.IdentityUser, error) {
	ctx, span := tracer.Start(ctx, "Supabase.GetUserByEmail")
	defer span.End()

	path := "/auth/v1/admin/users?email=" + url.QueryEscape(email)
	status, body, err := c.do(ctx, http.MethodGet, path, nil, "")
	if err != nil {
		return nil, &domain.ErrExternalService{Service: "gotrue", Err: err}
	}
	if status < 200 || status >= 300 {
		return nil, &domain.ErrExternalService{
			Service: "gotrue",
			Err:     fmt.Errorf("lookup by email returned %d: %s", status, string(body)),
		}
	}

	var list gotrueUserList
	if err := json.Unmarshal(body, &list); err != nil {
		return nil, fmt.Errorf("decode user list: %w", err)
	}
	for _, u := range list.Users {
		if strings.EqualFold(u.Email, email) {
			return u.toDomain(), nil
		}
	}
	return nil, &domain.ErrNotFound{Resource: "user", ID: email}
}

// CreateUser creates an email-confirmed account. A concurrent create
// for the same email loses with ErrConflict; the caller re-resolves by
// lookup instead of locking.
func (c *Client) CreateUser(ctx context.Context, email, displayName, phone string) (*domain.IdentityUser, error) {
	ctx, span := tracer.Start(ctx, "Supabase.CreateUser")
	defer span.End()

	payload := map[string]any{
		"email":         email,
		"email_confirm": true,
	}
	if phone != "" {
		payload["phone"] = phone
	}
	if displayName != "" {
		payload["user_metadata"] = map[string]any{"display_name": displayName}
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	status, respBody, err := c.do(ctx, http.MethodPost, "/auth/v1/admin/users", body, "")
	if err != nil {
		return nil, &domain.ErrExternalService{Service: "gotrue", Err: err}
	}
	if status == http.StatusConflict || status == http.StatusUnprocessableEntity {
		return nil, &domain.ErrConflict{Message: fmt.Sprintf("account already exists for %s", email)}
	}
	if status < 200 || status >= 300 {
		return nil, &domain.ErrExternalService{
			Service: "gotrue",
			Err:     fmt.Errorf("create user returned %d: %s", status, string(respBody)),
		}
	}

	var u gotrueUser
	if err := json.Unmarshal(respBody, &u); err != nil {
		return nil, fmt.Errorf("decode created user: %w", err)
	}
	return u.toDomain(), nil
}

// SetClaims overwrites the account's claims payload entirely. The new
// payload only reaches callers after their next session token refresh —
// a documented lag, not a bug.
func (c *Client) SetClaims(ctx context.Context, userID string, claims domain.Claims) error {
	ctx, span := tracer.Start(ctx, "Supabase.SetClaims")
	defer span.End()
	span.SetAttributes(attribute.String("user.id", userID))

	body, err := json.Marshal(map[string]any{"app_metadata": claims})
	if err != nil {
		return err
	}

	status, respBody, err := c.do(ctx, http.MethodPut, "/auth/v1/admin/users/"+userID, body, "")
	if err != nil {
		return &domain.ErrExternalService{Service: "gotrue", Err: err}
	}
	if status == http.StatusNotFound {
		return &domain.ErrNotFound{Resource: "user", ID: userID}
	}
	if status < 200 || status >= 300 {
		return &domain.ErrExternalService{
			Service: "gotrue",
			Err:     fmt.Errorf("set claims returned %d: %s", status, string(respBody)),
		}
	}
	return nil
}
