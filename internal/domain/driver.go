package domain

import "time"

// IdentityUser is an identity-provider account. ID is the provider's id
// and keys the master driver profile.
type IdentityUser struct {
	ID            string `json:"id"`
	Email         string `json:"email"`
	DisplayName   string `json:"display_name,omitempty"`
	Phone         string `json:"phone,omitempty"`
	EmailVerified bool   `json:"email_verified"`
	Claims        Claims `json:"claims"`
}

// PersonalInfo is the identity section of a driver profile.
type PersonalInfo struct {
	FirstName string `json:"firstName,omitempty"`
	LastName  string `json:"lastName,omitempty"`
	Email     string `json:"email,omitempty"`
	Phone     string `json:"phone,omitempty"`
	DOB       string `json:"dob,omitempty"`
	SSN       string `json:"ssn,omitempty"`
	Street    string `json:"street,omitempty"`
	City      string `json:"city,omitempty"`
	State     string `json:"state,omitempty"`
	Zip       string `json:"zip,omitempty"`
}

// Qualifications holds work-history fields.
type Qualifications struct {
	ExperienceYears string `json:"experienceYears,omitempty"`
}

// License is a CDL record. Profiles carry a single-element license
// array; repeat submissions overwrite the fields of that one element.
type License struct {
	State      string `json:"state,omitempty"`
	Number     string `json:"number,omitempty"`
	Expiration string `json:"expiration,omitempty"`
	Class      string `json:"class,omitempty"`
}

// DriverProfile is the canonical, merge-accumulated record of a driver
// across every submission channel. Created on the first valid-email
// submission, merged field-by-field forever after, never deleted here.
type DriverProfile struct {
	ID                  string         `json:"id"`
	PersonalInfo        PersonalInfo   `json:"personalInfo"`
	Qualifications      Qualifications `json:"qualifications"`
	Licenses            []License      `json:"licenses"`
	LastApplicationDate time.Time      `json:"lastApplicationDate"`
}

// Submission is the flat field set both intake channels deliver
// (company-scoped applications and pooled leads). JSON tags follow the
// store's column naming so webhook records and row copies decode
// directly.
type Submission struct {
	FirstName     string `json:"first_name,omitempty"`
	LastName      string `json:"last_name,omitempty"`
	Email         string `json:"email,omitempty"`
	Phone         string `json:"phone,omitempty"`
	DOB           string `json:"dob,omitempty"`
	SSN           string `json:"ssn,omitempty"`
	Street        string `json:"street,omitempty"`
	City          string `json:"city,omitempty"`
	State         string `json:"state,omitempty"`
	Zip           string `json:"zip,omitempty"`
	Experience    string `json:"experience,omitempty"`
	CDLState      string `json:"cdl_state,omitempty"`
	CDLNumber     string `json:"cdl_number,omitempty"`
	CDLExpiration string `json:"cdl_expiration,omitempty"`
	CDLClass      string `json:"cdl_class,omitempty"`
}

// DisplayName builds the identity-provider display name.
func (s Submission) DisplayName() string {
	switch {
	case s.FirstName != "" && s.LastName != "":
		return s.FirstName + " " + s.LastName
	case s.FirstName != "":
		return s.FirstName
	default:
		return s.LastName
	}
}
