package supabase

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/fleethire/driverhub-go/internal/domain"

	"go.opentelemetry.io/otel/attribute"
)

// ProfileStore implementation. driver_profiles is one flat row per
// identity-provider id; the nested document shape the API serves is
// assembled on read.

// profileRow maps driver_profiles columns.
type profileRow struct {
	ID                  string `json:"id"`
	FirstName           string `json:"first_name"`
	LastName            string `json:"last_name"`
	Email               string `json:"email"`
	Phone               string `json:"phone"`
	DOB                 string `json:"dob"`
	SSN                 string `json:"ssn"`
	Street              string `json:"street"`
	City                string `json:"city"`
	State               string `json:"state"`
	Zip                 string `json:"zip"`
	ExperienceYears     string `json:"experience_years"`
	CDLState            string `json:"cdl_state"`
	CDLNumber           string `json:"cdl_number"`
	CDLExpiration       string `json:"cdl_expiration"`
	CDLClass            string `json:"cdl_class"`
	LastApplicationDate string `json:"last_application_date"`
}

func (r profileRow) toDomain() *domain.DriverProfile {
	p := &domain.DriverProfile{
		ID: r.ID,
		PersonalInfo: domain.PersonalInfo{
			FirstName: r.FirstName,
			LastName:  r.LastName,
			Email:     r.Email,
			Phone:     r.Phone,
			DOB:       r.DOB,
			SSN:       r.SSN,
			Street:    r.Street,
			City:      r.City,
			State:     r.State,
			Zip:       r.Zip,
		},
		Qualifications: domain.Qualifications{
			ExperienceYears: r.ExperienceYears,
		},
		Licenses: []domain.License{{
			State:      r.CDLState,
			Number:     r.CDLNumber,
			Expiration: r.CDLExpiration,
			Class:      r.CDLClass,
		}},
	}
	if t, err := time.Parse(time.RFC3339, r.LastApplicationDate); err == nil {
		p.LastApplicationDate = t
	}
	return p
}

// GetProfile fetches the master profile for a driver.
func (c *Client) GetProfile(ctx context.Context, driverID string) (*domain.DriverProfile, error) {
	ctx, span := tracer.Start(ctx, "Supabase.GetProfile")
	defer span.End()
	span.SetAttributes(attribute.String("driver.id", driverID))

	var rows []profileRow
	query := fmt.Sprintf("driver_profiles?id=eq.%s&limit=1", url.QueryEscape(driverID))
	if err := c.restGet(ctx, query, &rows); err != nil {
		return nil, &domain.ErrExternalService{Service: "supabase/driver_profiles", Err: err}
	}
	if len(rows) == 0 {
		return nil, &domain.ErrNotFound{Resource: "driver profile", ID: driverID}
	}
	return rows[0].toDomain(), nil
}

// MergeProfile upserts the given columns into the driver's row. Only
// provided fields are written; everything else keeps its stored value,
// which is exactly the field-level merge the resolver needs.
func (c *Client) MergeProfile(ctx context.Context, driverID string, fields map[string]any) error {
	ctx, span := tracer.Start(ctx, "Supabase.MergeProfile")
	defer span.End()
	span.SetAttributes(attribute.String("driver.id", driverID))

	row := make(map[string]any, len(fields)+1)
	for k, v := range fields {
		row[k] = v
	}
	row["id"] = driverID

	if err := c.restUpsert(ctx, "driver_profiles", "id", []map[string]any{row}); err != nil {
		return &domain.ErrExternalService{Service: "supabase/driver_profiles", Err: err}
	}
	return nil
}
