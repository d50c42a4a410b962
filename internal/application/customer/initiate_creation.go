package customer

import (
	"context"
	"errors"
	"time"

	"github.com/customers/backend/internal/domain/customer"
	"go.uber.org/zap"
)

// DefaultControlTTL is how long an email stays reserved after a registration is accepted
const DefaultControlTTL = 60 * time.Second

// InitiateCustomerCreation accepts a registration and hands it to the worker
// by publishing a create command. The customer is not persisted here.
type InitiateCustomerCreation struct {
	sessions     CacheSessionFactory
	registration *customer.RegistrationService
	publisher    CustomerMessagePublisher
	controlTTL   time.Duration
	logger       *zap.Logger
}

// NewInitiateCustomerCreation creates the use case. A non-positive
// controlTTL falls back to DefaultControlTTL.
func NewInitiateCustomerCreation(
	sessions CacheSessionFactory,
	registration *customer.RegistrationService,
	publisher CustomerMessagePublisher,
	controlTTL time.Duration,
	logger *zap.Logger,
) *InitiateCustomerCreation {
	if controlTTL <= 0 {
		controlTTL = DefaultControlTTL
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &InitiateCustomerCreation{
		sessions:     sessions,
		registration: registration,
		publisher:    publisher,
		controlTTL:   controlTTL,
		logger:       logger,
	}
}

// Execute runs the cache check, domain validation and publish steps. Staged
// cache writes are committed only when every step succeeds.
func (uc *InitiateCustomerCreation) Execute(ctx context.Context, req CreateCustomerRequest) (*CustomerResponse, error) {
	session := uc.sessions.NewSession()

	head := NewCacheCheckHandler(session, uc.controlTTL)
	head.SetNext(NewDomainValidationHandler(uc.registration)).
		SetNext(NewPublishHandler(uc.publisher))

	created, err := head.Handle(ctx, &RegistrationContext{Request: req})
	if err == nil && created == nil {
		err = errors.New("registration chain produced no customer")
	}
	if err != nil {
		if rbErr := session.Rollback(ctx); rbErr != nil {
			uc.logger.Warn("failed to discard staged control keys", zap.Error(rbErr))
		}
		return nil, err
	}

	// the command is already on the broker, so a lost control key only
	// weakens duplicate detection for the next few seconds
	if err := session.Commit(ctx); err != nil {
		uc.logger.Warn("failed to commit control key",
			zap.String("customer_id", created.ID.String()),
			zap.Error(err),
		)
	}

	uc.logger.Info("customer creation accepted",
		zap.String("customer_id", created.ID.String()),
	)
	resp := ToCustomerResponse(created)
	return &resp, nil
}
