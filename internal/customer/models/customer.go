package models

import (
	"strings"
	"time"
	"unicode/utf8"

	id "customerapi/pkg/domain"
	dErrors "customerapi/pkg/domain-errors"
)

const (
	MaxNameLength  = 255
	MaxEmailLength = 255
)

// Customer is a customer record.
//
// Invariants:
//   - Name and Email are non-empty after trimming
//   - Name and Email are at most 255 characters
//   - ID is assigned by the store on first save and never changes
//   - CreatedAt is immutable after construction
type Customer struct {
	ID        id.CustomerID
	Name      string
	Email     string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewCustomer builds an unsaved customer. The store assigns the ID.
func NewCustomer(name, email string, now time.Time) (*Customer, error) {
	name, email = strings.TrimSpace(name), strings.TrimSpace(email)
	if err := checkFields(name, email); err != nil {
		return nil, err
	}
	return &Customer{
		Name:      name,
		Email:     email,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// Replace overwrites name and email, keeping ID and CreatedAt.
func (c *Customer) Replace(name, email string, now time.Time) error {
	name, email = strings.TrimSpace(name), strings.TrimSpace(email)
	if err := checkFields(name, email); err != nil {
		return err
	}
	c.Name = name
	c.Email = email
	c.UpdatedAt = now
	return nil
}

// Clone returns a copy safe to hand out of a store.
func (c *Customer) Clone() *Customer {
	if c == nil {
		return nil
	}
	cp := *c
	return &cp
}

// EmailKey is the case-insensitive uniqueness key for an email address.
func EmailKey(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func checkFields(name, email string) error {
	if msg := MissingFieldsMessage(name, email); msg != "" {
		return dErrors.New(dErrors.CodeInvariantViolation, msg)
	}
	if utf8.RuneCountInString(name) > MaxNameLength {
		return dErrors.New(dErrors.CodeInvariantViolation, "name must be 255 characters or less")
	}
	if utf8.RuneCountInString(email) > MaxEmailLength {
		return dErrors.New(dErrors.CodeInvariantViolation, "email must be 255 characters or less")
	}
	return nil
}

// MissingFieldsMessage names the blank required fields, or returns "" when
// both are present.
func MissingFieldsMessage(name, email string) string {
	noName := strings.TrimSpace(name) == ""
	noEmail := strings.TrimSpace(email) == ""
	switch {
	case noName && noEmail:
		return "name and email must be provided"
	case noName:
		return "name must be provided"
	case noEmail:
		return "email must be provided"
	}
	return ""
}
