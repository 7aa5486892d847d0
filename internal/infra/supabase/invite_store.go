package supabase

import (
	"context"
	"fmt"
	"net/url"

	"github.com/fleethire/driverhub-go/internal/domain"
)

// InviteStore implementation.

// CreateInvite stores a new invite (token hash only, never the raw token).
func (c *Client) CreateInvite(ctx context.Context, inv *domain.Invite) error {
	ctx, span := tracer.Start(ctx, "Supabase.CreateInvite")
	defer span.End()

	if err := c.restInsert(ctx, "invites", inv); err != nil {
		return &domain.ErrExternalService{Service: "supabase/invites", Err: err}
	}
	return nil
}

// GetInvite fetches one invite by id.
func (c *Client) GetInvite(ctx context.Context, inviteID string) (*domain.Invite, error) {
	ctx, span := tracer.Start(ctx, "Supabase.GetInvite")
	defer span.End()

	var rows []domain.Invite
	query := fmt.Sprintf("invites?id=eq.%s&limit=1", url.QueryEscape(inviteID))
	if err := c.restGet(ctx, query, &rows); err != nil {
		return nil, &domain.ErrExternalService{Service: "supabase/invites", Err: err}
	}
	if len(rows) == 0 {
		return nil, &domain.ErrNotFound{Resource: "invite", ID: inviteID}
	}
	return &rows[0], nil
}

// MarkInviteUsed burns the invite.
func (c *Client) MarkInviteUsed(ctx context.Context, inviteID string) error {
	ctx, span := tracer.Start(ctx, "Supabase.MarkInviteUsed")
	defer span.End()

	query := fmt.Sprintf("invites?id=eq.%s", url.QueryEscape(inviteID))
	if err := c.restPatch(ctx, query, map[string]any{"used": true}); err != nil {
		return &domain.ErrExternalService{Service: "supabase/invites", Err: err}
	}
	return nil
}
