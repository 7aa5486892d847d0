package supabase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/fleethire/driverhub-go/internal/domain"
	"github.com/fleethire/driverhub-go/internal/infra/resilience"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

// parseTimestamp decodes PostgREST timestamps, falling back to
// date-only values.
func parseTimestamp(s string) time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		t, _ = time.Parse("2006-01-02", s)
	}
	return t
}

// REST helpers for the PostgREST tables. Reads retry under the circuit
// breaker; writes go through once — reactive callers are at-least-once
// already and the distributor re-runs whole batches.

// restGet queries a table and decodes the row array into out.
func (c *Client) restGet(ctx context.Context, query string, out any) error {
	var body []byte

	_, err := c.cb.Execute(func() (any, error) {
		return nil, resilience.RetryWithBackoff(ctx, c.cfg, func() error {
			status, b, err := c.do(ctx, http.MethodGet, "/rest/v1/"+query, nil, "")
			if err != nil {
				return err
			}
			if status < 200 || status >= 300 {
				c.logger.Warn("supabase: GET non-2xx",
					zap.String("query", query),
					zap.Int("status", status),
					zap.String("body", string(b)),
				)
				return fmt.Errorf("supabase GET %s returned %d: %s", query, status, string(b))
			}
			body = b
			return nil
		})
	})
	if err != nil {
		c.metrics.IncrExternalError("supabase")
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return &domain.ErrCircuitOpen{Service: "supabase"}
		}
		return err
	}

	if out == nil || len(body) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode %s: %w", query, err)
	}
	return nil
}

// restInsert POSTs one row into a table.
func (c *Client) restInsert(ctx context.Context, table string, row any) error {
	payload, err := json.Marshal(row)
	if err != nil {
		return err
	}

	status, body, err := c.do(ctx, http.MethodPost, "/rest/v1/"+table, payload, "return=minimal")
	if err != nil {
		c.metrics.IncrExternalError("supabase")
		return err
	}
	if status < 200 || status >= 300 {
		c.metrics.IncrExternalError("supabase")
		c.logger.Warn("supabase: POST non-2xx",
			zap.String("table", table),
			zap.Int("status", status),
			zap.String("body", string(body)),
		)
		return fmt.Errorf("supabase POST %s returned %d: %s", table, status, string(body))
	}
	return nil
}

// restUpsert bulk-upserts rows, merging with existing rows on the given
// conflict key. PostgREST only touches the columns present in the
// payload, so absent fields keep their stored values — this is the
// merge-upsert the profile and lead-copy writes rely on. One request is
// one transaction.
func (c *Client) restUpsert(ctx context.Context, table, onConflict string, rows any) error {
	payload, err := json.Marshal(rows)
	if err != nil {
		return err
	}

	path := fmt.Sprintf("/rest/v1/%s?on_conflict=%s", table, onConflict)
	prefer := "resolution=merge-duplicates,return=minimal"

	status, body, err := c.do(ctx, http.MethodPost, path, payload, prefer)
	if err != nil {
		c.metrics.IncrExternalError("supabase")
		return err
	}
	if status < 200 || status >= 300 {
		c.metrics.IncrExternalError("supabase")
		c.logger.Warn("supabase: upsert non-2xx",
			zap.String("table", table),
			zap.Int("status", status),
			zap.String("body", string(body)),
		)
		return fmt.Errorf("supabase upsert %s returned %d: %s", table, status, string(body))
	}
	return nil
}

// restPatch updates rows matching the query.
func (c *Client) restPatch(ctx context.Context, query string, updates map[string]any) error {
	payload, err := json.Marshal(updates)
	if err != nil {
		return err
	}

	status, body, err := c.do(ctx, http.MethodPatch, "/rest/v1/"+query, payload, "return=minimal")
	if err != nil {
		c.metrics.IncrExternalError("supabase")
		return err
	}
	if status < 200 || status >= 300 {
		c.metrics.IncrExternalError("supabase")
		c.logger.Warn("supabase: PATCH non-2xx",
			zap.String("query", query),
			zap.Int("status", status),
			zap.String("body", string(body)),
		)
		return fmt.Errorf("supabase PATCH %s returned %d: %s", query, status, string(body))
	}
	return nil
}

// restDelete removes rows matching the query.
func (c *Client) restDelete(ctx context.Context, query string) error {
	status, body, err := c.do(ctx, http.MethodDelete, "/rest/v1/"+query, nil, "")
	if err != nil {
		c.metrics.IncrExternalError("supabase")
		return err
	}
	if status < 200 || status >= 300 {
		c.metrics.IncrExternalError("supabase")
		c.logger.Warn("supabase: DELETE non-2xx",
			zap.String("query", query),
			zap.Int("status", status),
			zap.String("body", string(body)),
		)
		return fmt.Errorf("supabase DELETE %s returned %d: %s", query, status, string(body))
	}
	return nil
}
