package customer

import (
	"context"

	"github.com/customers/backend/internal/domain/customer"
	"go.uber.org/zap"
)

// CreateCustomerUseCase persists a customer received from the create command
type CreateCustomerUseCase struct {
	uow    UnitOfWork
	logger *zap.Logger
}

// NewCreateCustomerUseCase creates a CreateCustomerUseCase
func NewCreateCustomerUseCase(uow UnitOfWork, logger *zap.Logger) *CreateCustomerUseCase {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CreateCustomerUseCase{uow: uow, logger: logger}
}

// Execute stores c in a unit of work. A customer already stored under the
// same ID comes from a redelivered command and is returned unchanged.
func (uc *CreateCustomerUseCase) Execute(ctx context.Context, c *customer.Customer) (*CustomerResponse, error) {
	var stored *customer.Customer
	err := uc.uow.Execute(ctx, func(ctx context.Context, repo customer.Repository) error {
		existing, err := repo.GetByID(ctx, c.ID)
		if err == nil {
			uc.logger.Info("customer already persisted, skipping insert",
				zap.String("customer_id", c.ID.String()))
			stored = existing
			return nil
		}
		if !customer.IsNotFound(err) {
			return err
		}

		if err := repo.Add(ctx, c); err != nil {
			return err
		}
		stored = c
		return nil
	})
	if err != nil {
		return nil, err
	}

	resp := ToCustomerResponse(stored)
	return &resp, nil
}
