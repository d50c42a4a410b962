package customer

import (
	"context"
	"time"

	"github.com/customers/backend/internal/domain/customer"
)

// ControlCache is a per-request cache session. Reads go straight to the
// store; Set and Delete are staged and only applied by Commit. Rollback
// drops whatever was staged.
type ControlCache interface {
	Get(ctx context.Context, key string) (value string, found bool, err error)
	Exists(ctx context.Context, key string) (bool, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// CacheSessionFactory opens ControlCache sessions
type CacheSessionFactory interface {
	NewSession() ControlCache
}

// CustomerMessagePublisher publishes the command that asks the worker to
// persist a customer
type CustomerMessagePublisher interface {
	PublishCreateCustomer(ctx context.Context, c *customer.Customer) error
}

// UnitOfWork runs fn inside a transaction. The transaction commits when fn
// returns nil and rolls back otherwise.
type UnitOfWork interface {
	Execute(ctx context.Context, fn func(ctx context.Context, repo customer.Repository) error) error
}
