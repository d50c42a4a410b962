package customer

import (
	"context"

	"github.com/customers/backend/internal/domain/customer"
)

// RegistrationContext carries a registration request through the handler chain
type RegistrationContext struct {
	Request  CreateCustomerRequest
	Customer *customer.Customer
}

// Handler is one step of the registration chain
type Handler interface {
	// SetNext links next after this handler and returns next, so links chain:
	//	a.SetNext(b).SetNext(c)
	SetNext(next Handler) Handler
	Handle(ctx context.Context, rc *RegistrationContext) (*customer.Customer, error)
}

// BaseHandler holds the link to the next handler
type BaseHandler struct {
	next Handler
}

// SetNext implements Handler
func (h *BaseHandler) SetNext(next Handler) Handler {
	h.next = next
	return next
}

// HandleNext delegates to the next handler. The end of the chain yields (nil, nil).
func (h *BaseHandler) HandleNext(ctx context.Context, rc *RegistrationContext) (*customer.Customer, error) {
	if h.next == nil {
		return nil, nil
	}
	return h.next.Handle(ctx, rc)
}
