package customer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/customers/backend/internal/domain/customer"
)

// ControlValueProcessing marks an email whose registration is in flight
const ControlValueProcessing = "processing"

// ErrCustomerMissingFromContext is returned when publishing is reached
// before a customer was built
var ErrCustomerMissingFromContext = errors.New("customer entity not found in context")

// CacheCheckHandler rejects emails holding a control key and stages a new one
type CacheCheckHandler struct {
	BaseHandler
	cache ControlCache
	ttl   time.Duration
}

// NewCacheCheckHandler creates a CacheCheckHandler writing keys with ttl
func NewCacheCheckHandler(cache ControlCache, ttl time.Duration) *CacheCheckHandler {
	return &CacheCheckHandler{cache: cache, ttl: ttl}
}

func (h *CacheCheckHandler) Handle(ctx context.Context, rc *RegistrationContext) (*customer.Customer, error) {
	email := rc.Request.Email
	held, err := h.cache.Exists(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("check control key: %w", err)
	}
	if held {
		return nil, customer.ErrCustomerAlreadyExists(email)
	}
	if err := h.cache.Set(ctx, email, ControlValueProcessing, h.ttl); err != nil {
		return nil, fmt.Errorf("stage control key: %w", err)
	}
	return h.HandleNext(ctx, rc)
}

// DomainValidationHandler validates the request against stored customers
// and builds the new customer
type DomainValidationHandler struct {
	BaseHandler
	registration *customer.RegistrationService
}

// NewDomainValidationHandler creates a DomainValidationHandler
func NewDomainValidationHandler(registration *customer.RegistrationService) *DomainValidationHandler {
	return &DomainValidationHandler{registration: registration}
}

func (h *DomainValidationHandler) Handle(ctx context.Context, rc *RegistrationContext) (*customer.Customer, error) {
	email, err := customer.NewEmail(rc.Request.Email)
	if err != nil {
		return nil, err
	}
	if err := h.registration.ValidateEmailAvailability(ctx, email); err != nil {
		return nil, err
	}
	c, err := customer.NewCustomer(rc.Request.Name, email)
	if err != nil {
		return nil, err
	}
	rc.Customer = c
	return h.HandleNext(ctx, rc)
}

// PublishHandler publishes the create command for the customer in context
type PublishHandler struct {
	BaseHandler
	publisher CustomerMessagePublisher
}

// NewPublishHandler creates a PublishHandler
func NewPublishHandler(publisher CustomerMessagePublisher) *PublishHandler {
	return &PublishHandler{publisher: publisher}
}

func (h *PublishHandler) Handle(ctx context.Context, rc *RegistrationContext) (*customer.Customer, error) {
	if rc.Customer == nil {
		return nil, ErrCustomerMissingFromContext
	}
	if err := h.publisher.PublishCreateCustomer(ctx, rc.Customer); err != nil {
		return nil, err
	}
	if _, err := h.HandleNext(ctx, rc); err != nil {
		return nil, err
	}
	return rc.Customer, nil
}
