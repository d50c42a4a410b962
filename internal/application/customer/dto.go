package customer

import (
	"time"

	"github.com/customers/backend/internal/domain/customer"
	"github.com/google/uuid"
)

// CreateCustomerRequest represents a request to register a new customer
type CreateCustomerRequest struct {
	Name  string `json:"name" binding:"required,min=1,max=255" example:"Ada Lovelace"`
	Email string `json:"email" binding:"required,email,max=255" example:"ada@example.com"`
}

// UpdateCustomerRequest represents a partial update; nil fields are left unchanged
type UpdateCustomerRequest struct {
	Name  *string `json:"name" binding:"omitempty,min=1,max=255" example:"Ada King"`
	Email *string `json:"email" binding:"omitempty,email,max=255" example:"ada.king@example.com"`
}

// CustomerListFilter narrows a customer listing by exact match
type CustomerListFilter struct {
	Name  string `form:"name" binding:"omitempty,max=255"`
	Email string `form:"email" binding:"omitempty,max=255"`
}

// CustomerResponse represents a customer in API responses
type CustomerResponse struct {
	ID        uuid.UUID `json:"id" example:"6f1c2a8e-3b7d-4c11-9a55-0f5d2b8e9c41"`
	Name      string    `json:"name" example:"Ada Lovelace"`
	Email     string    `json:"email" example:"ada@example.com"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ToCustomerResponse converts a domain customer to its response DTO
func ToCustomerResponse(c *customer.Customer) CustomerResponse {
	return CustomerResponse{
		ID:        c.ID,
		Name:      c.Name,
		Email:     c.Email.String(),
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
}

// ToCustomerResponses converts a slice of domain customers
func ToCustomerResponses(customers []*customer.Customer) []CustomerResponse {
	out := make([]CustomerResponse, len(customers))
	for i, c := range customers {
		out[i] = ToCustomerResponse(c)
	}
	return out
}
