package customer

import (
	"context"

	"github.com/customers/backend/internal/domain/customer"
	"github.com/customers/backend/internal/domain/shared"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// CustomerService handles the synchronous customer operations
type CustomerService struct {
	repo     customer.Repository
	uow      UnitOfWork
	sessions CacheSessionFactory
	logger   *zap.Logger
}

// NewCustomerService creates a CustomerService
func NewCustomerService(repo customer.Repository, uow UnitOfWork, sessions CacheSessionFactory, logger *zap.Logger) *CustomerService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CustomerService{
		repo:     repo,
		uow:      uow,
		sessions: sessions,
		logger:   logger,
	}
}

// GetByID returns a customer by ID
func (s *CustomerService) GetByID(ctx context.Context, id uuid.UUID) (*CustomerResponse, error) {
	c, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := ToCustomerResponse(c)
	return &resp, nil
}

// List returns the customers matching filter; an empty filter lists everything
func (s *CustomerService) List(ctx context.Context, filter CustomerListFilter) ([]CustomerResponse, error) {
	criteria := shared.Filter{}
	if filter.Name != "" {
		criteria["name"] = filter.Name
	}
	if filter.Email != "" {
		criteria["email"] = filter.Email
	}

	var (
		customers []*customer.Customer
		err       error
	)
	if len(criteria) == 0 {
		customers, err = s.repo.ListAll(ctx)
	} else {
		customers, err = s.repo.Search(ctx, criteria)
	}
	if err != nil {
		return nil, err
	}
	return ToCustomerResponses(customers), nil
}

// Update renames the customer and/or changes its email. A new email must be
// free both in the store and in the control cache. The control cache is only
// read here, so its session stages nothing and needs no commit or rollback.
func (s *CustomerService) Update(ctx context.Context, id uuid.UUID, req UpdateCustomerRequest) (*CustomerResponse, error) {
	var resp CustomerResponse
	err := s.uow.Execute(ctx, func(ctx context.Context, repo customer.Repository) error {
		c, err := repo.GetByID(ctx, id)
		if err != nil {
			return err
		}

		if req.Name != nil {
			if err := c.Rename(*req.Name); err != nil {
				return err
			}
		}

		if req.Email != nil && *req.Email != c.Email.String() {
			email, err := customer.NewEmail(*req.Email)
			if err != nil {
				return err
			}
			held, err := s.sessions.NewSession().Exists(ctx, email.String())
			if err != nil {
				return err
			}
			if held {
				return customer.ErrCustomerAlreadyExists(email.String())
			}
			if err := customer.NewRegistrationService(repo).ValidateEmailAvailability(ctx, email); err != nil {
				return err
			}
			if err := c.ChangeEmail(email.String()); err != nil {
				return err
			}
		}

		if err := repo.Update(ctx, c); err != nil {
			return err
		}
		resp = ToCustomerResponse(c)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

// Delete removes the customer and releases its email's control key
func (s *CustomerService) Delete(ctx context.Context, id uuid.UUID) error {
	var email string
	err := s.uow.Execute(ctx, func(ctx context.Context, repo customer.Repository) error {
		c, err := repo.GetByID(ctx, id)
		if err != nil {
			return err
		}
		email = c.Email.String()
		return repo.Delete(ctx, id)
	})
	if err != nil {
		return err
	}

	session := s.sessions.NewSession()
	if err := session.Delete(ctx, email); err != nil {
		_ = session.Rollback(ctx)
		s.logger.Warn("failed to stage control key release", zap.String("customer_id", id.String()), zap.Error(err))
		return nil
	}
	if err := session.Commit(ctx); err != nil {
		s.logger.Warn("failed to release control key", zap.String("customer_id", id.String()), zap.Error(err))
	}
	return nil
}
