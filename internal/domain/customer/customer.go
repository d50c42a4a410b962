package customer

import (
	"strings"
	"unicode/utf8"

	"github.com/customers/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// MaxNameLength bounds Customer.Name, matching the varchar(255) column
const MaxNameLength = 255

// Customer is the aggregate root of the customers context
type Customer struct {
	shared.BaseEntity
	Name  string `json:"name"`
	Email Email  `json:"email"`
}

// NewCustomer creates a customer with a fresh identity
func NewCustomer(name string, email Email) (*Customer, error) {
	name = strings.TrimSpace(name)
	if err := validateName(name); err != nil {
		return nil, err
	}
	if email.IsZero() {
		return nil, shared.NewDomainError(CodeInvalidEmail, "Email is required")
	}
	return &Customer{
		BaseEntity: shared.NewBaseEntity(),
		Name:       name,
		Email:      email,
	}, nil
}

// Equals compares customers by identity only
func (c *Customer) Equals(other *Customer) bool {
	if c == nil || other == nil {
		return false
	}
	return shared.SameIdentity(c, other)
}

// ChangeEmail validates raw and replaces the email
func (c *Customer) ChangeEmail(raw string) error {
	email, err := NewEmail(raw)
	if err != nil {
		return err
	}
	c.Email = email
	c.Touch()
	return nil
}

// Rename validates and replaces the name
func (c *Customer) Rename(name string) error {
	name = strings.TrimSpace(name)
	if err := validateName(name); err != nil {
		return err
	}
	c.Name = name
	c.Touch()
	return nil
}

// Validate checks a customer rebuilt outside NewCustomer, such as one
// decoded from a command
func (c *Customer) Validate() error {
	if c.ID == uuid.Nil {
		return shared.NewDomainError("INVALID_ID", "Customer ID is required")
	}
	if err := validateName(c.Name); err != nil {
		return err
	}
	if c.Email.IsZero() {
		return shared.NewDomainError(CodeInvalidEmail, "Email is required")
	}
	return nil
}

func validateName(name string) error {
	if name == "" {
		return shared.NewDomainError("INVALID_NAME", "Name cannot be empty")
	}
	if utf8.RuneCountInString(name) > MaxNameLength {
		return shared.NewDomainError("INVALID_NAME", "Name cannot exceed 255 characters")
	}
	return nil
}
