package domain

import (
	"strings"
	"time"
)

// PendingRegistration is a customer sign-up awaiting an employee decision.
type PendingRegistration struct {
	ID               string
	FirstName        string
	LastName         string
	Email            string
	BSN              string
	PhoneNumber      string
	RegistrationDate time.Time
	Approved         bool
	CustomerID       *string
}

// Normalize trims input and lower-cases the email so uniqueness is case-insensitive.
func (r *PendingRegistration) Normalize() {
	r.FirstName = strings.TrimSpace(r.FirstName)
	r.LastName = strings.TrimSpace(r.LastName)
	r.Email = strings.ToLower(strings.TrimSpace(r.Email))
	r.BSN = strings.TrimSpace(r.BSN)
	r.PhoneNumber = strings.TrimSpace(r.PhoneNumber)
}

// Validate checks the submitted fields.
func (r *PendingRegistration) Validate() error {
	if err := ValidateName("first name", r.FirstName); err != nil {
		return err
	}
	if err := ValidateName("last name", r.LastName); err != nil {
		return err
	}
	if err := ValidateEmail(r.Email); err != nil {
		return err
	}
	if err := ValidateBSN(r.BSN); err != nil {
		return err
	}
	return ValidatePhone(r.PhoneNumber)
}

// Customer is an approved account holder.
type Customer struct {
	ID             string
	FirstName      string
	LastName       string
	Email          string
	BSN            string
	PhoneNumber    string
	RegistrationID string
	CreatedAt      time.Time
}

// NewCustomerFromRegistration copies the registration's identity into a customer record.
func NewCustomerFromRegistration(id string, r *PendingRegistration, now time.Time) *Customer {
	return &Customer{
		ID:             id,
		FirstName:      r.FirstName,
		LastName:       r.LastName,
		Email:          r.Email,
		BSN:            r.BSN,
		PhoneNumber:    r.PhoneNumber,
		RegistrationID: r.ID,
		CreatedAt:      now,
	}
}

// CustomerQuery searches customers by name prefix, case-insensitively.
type CustomerQuery struct {
	FirstName string
	LastName  string
	Limit     int
	Offset    int
}

// Matches reports whether c satisfies the query.
func (q CustomerQuery) Matches(c *Customer) bool {
	if q.FirstName != "" && !strings.HasPrefix(strings.ToLower(c.FirstName), strings.ToLower(q.FirstName)) {
		return false
	}
	if q.LastName != "" && !strings.HasPrefix(strings.ToLower(c.LastName), strings.ToLower(q.LastName)) {
		return false
	}
	return true
}
