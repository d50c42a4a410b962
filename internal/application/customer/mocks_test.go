package customer

import (
	"context"
	"time"

	"github.com/customers/backend/internal/domain/customer"
	"github.com/customers/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// MockCustomerRepository is a mock implementation of customer.Repository
type MockCustomerRepository struct {
	mock.Mock
}

func (m *MockCustomerRepository) Add(ctx context.Context, c *customer.Customer) error {
	return m.Called(ctx, c).Error(0)
}

func (m *MockCustomerRepository) Update(ctx context.Context, c *customer.Customer) error {
	return m.Called(ctx, c).Error(0)
}

func (m *MockCustomerRepository) GetByID(ctx context.Context, id uuid.UUID) (*customer.Customer, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*customer.Customer), args.Error(1)
}

func (m *MockCustomerRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockCustomerRepository) Search(ctx context.Context, filter shared.Filter) ([]*customer.Customer, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]*customer.Customer), args.Error(1)
}

func (m *MockCustomerRepository) ListAll(ctx context.Context) ([]*customer.Customer, error) {
	args := m.Called(ctx)
	return args.Get(0).([]*customer.Customer), args.Error(1)
}

func (m *MockCustomerRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	args := m.Called(ctx, email)
	return args.Bool(0), args.Error(1)
}

// MockPublisher is a mock implementation of CustomerMessagePublisher
type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) PublishCreateCustomer(ctx context.Context, c *customer.Customer) error {
	return m.Called(ctx, c).Error(0)
}

// fakeUnitOfWork hands the same repository to fn and records the outcome
type fakeUnitOfWork struct {
	repo       customer.Repository
	committed  int
	rolledBack int
}

func (u *fakeUnitOfWork) Execute(ctx context.Context, fn func(ctx context.Context, repo customer.Repository) error) error {
	if err := fn(ctx, u.repo); err != nil {
		u.rolledBack++
		return err
	}
	u.committed++
	return nil
}

// fakeCache is a ControlCache session over a shared map, with staging
type fakeCache struct {
	store     map[string]string
	staged    []func()
	existsErr error
	commitErr error
	commits   int
	rollbacks int
}

func (c *fakeCache) NewSession() ControlCache {
	return &fakeCache{store: c.store, existsErr: c.existsErr, commitErr: c.commitErr}
}

func (c *fakeCache) Get(_ context.Context, key string) (string, bool, error) {
	v, ok := c.store[key]
	return v, ok, nil
}

func (c *fakeCache) Exists(_ context.Context, key string) (bool, error) {
	if c.existsErr != nil {
		return false, c.existsErr
	}
	_, ok := c.store[key]
	return ok, nil
}

func (c *fakeCache) Set(_ context.Context, key, value string, _ time.Duration) error {
	c.staged = append(c.staged, func() { c.store[key] = value })
	return nil
}

func (c *fakeCache) Delete(_ context.Context, key string) error {
	c.staged = append(c.staged, func() { delete(c.store, key) })
	return nil
}

func (c *fakeCache) Commit(context.Context) error {
	c.commits++
	if c.commitErr != nil {
		return c.commitErr
	}
	for _, op := range c.staged {
		op()
	}
	c.staged = nil
	return nil
}

func (c *fakeCache) Rollback(context.Context) error {
	c.rollbacks++
	c.staged = nil
	return nil
}

// sessionRecorder keeps every session it opens so tests can inspect them
type sessionRecorder struct {
	base     *fakeCache
	sessions []*fakeCache
}

func newSessionRecorder() *sessionRecorder {
	return &sessionRecorder{base: &fakeCache{store: map[string]string{}}}
}

func (r *sessionRecorder) NewSession() ControlCache {
	s := r.base.NewSession().(*fakeCache)
	r.sessions = append(r.sessions, s)
	return s
}

func (r *sessionRecorder) last() *fakeCache {
	return r.sessions[len(r.sessions)-1]
}
