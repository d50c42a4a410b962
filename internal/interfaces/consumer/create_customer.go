// Package consumer holds the broker-facing handlers run by cmd/worker.
package consumer

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	appcustomer "github.com/customers/backend/internal/application/customer"
	"github.com/customers/backend/internal/domain/customer"
	"github.com/customers/backend/internal/domain/shared"
	"github.com/customers/backend/internal/infrastructure/logger"
	"github.com/customers/backend/internal/infrastructure/messaging"
	"github.com/customers/backend/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// CustomerCreator persists a customer decoded from a create command
type CustomerCreator interface {
	Execute(ctx context.Context, c *customer.Customer) (*appcustomer.CustomerResponse, error)
}

// CreateCustomerHandler consumes command.create.customer
type CreateCustomerHandler struct {
	creator CustomerCreator
	metrics *telemetry.CustomerMetrics
}

// NewCreateCustomerHandler creates the handler; metrics may be nil
func NewCreateCustomerHandler(creator CustomerCreator, metrics *telemetry.CustomerMetrics) *CreateCustomerHandler {
	return &CreateCustomerHandler{creator: creator, metrics: metrics}
}

// HandleMessage decodes the customer carried by msg and stores it. Any
// error leaves the delivery unacknowledged.
func (h *CreateCustomerHandler) HandleMessage(ctx context.Context, msg messaging.InboundMessage) error {
	if msg.Type != "" && msg.Type != messaging.TypeCreateCustomer {
		return fmt.Errorf("unexpected message type %q", msg.Type)
	}

	c, err := DecodeCustomer(msg.Data)
	if err != nil {
		return fmt.Errorf("decode customer: %w", err)
	}

	ctx, span := telemetry.StartSpan(ctx, "customer.create",
		telemetry.WithAttribute(telemetry.SpanAttrCustomerID, c.ID.String()),
	)
	defer span.End()

	stored, err := h.creator.Execute(ctx, c)
	if err != nil {
		telemetry.RecordError(span, err)
		return err
	}
	telemetry.SetOK(span)
	h.metrics.RecordCreated(ctx)

	logger.FromContext(ctx).Info("customer persisted",
		zap.String("customer_id", stored.ID.String()),
		zap.String("source", msg.Source),
	)
	return nil
}

type customerPayload struct {
	ID        uuid.UUID      `json:"id"`
	Name      string         `json:"name"`
	Email     customer.Email `json:"email"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

// DecodeCustomer rebuilds the customer published by the API. The email is
// accepted as {"value": "..."} or as a bare string. Missing timestamps are
// set to now.
func DecodeCustomer(data json.RawMessage) (*customer.Customer, error) {
	var p customerPayload
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, err
	}

	now := shared.Now()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	if p.UpdatedAt.IsZero() {
		p.UpdatedAt = p.CreatedAt
	}

	c := &customer.Customer{
		BaseEntity: shared.BaseEntity{ID: p.ID, CreatedAt: p.CreatedAt.UTC(), UpdatedAt: p.UpdatedAt.UTC()},
		Name:       p.Name,
		Email:      p.Email,
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

var _ messaging.MessageHandler = (*CreateCustomerHandler)(nil)
