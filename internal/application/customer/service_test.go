package customer

import (
	"context"
	"testing"

	"github.com/customers/backend/internal/domain/customer"
	"github.com/customers/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newTestCustomer(t *testing.T, name, email string) *customer.Customer {
	t.Helper()
	c, err := customer.NewCustomer(name, customer.MustEmail(email))
	require.NoError(t, err)
	return c
}

func TestCustomerService_GetByID(t *testing.T) {
	ctx := context.Background()
	c := newTestCustomer(t, "Ada", "ada@example.com")
	repo := new(MockCustomerRepository)
	repo.On("GetByID", ctx, c.ID).Return(c, nil)
	missing := uuid.New()
	repo.On("GetByID", ctx, missing).Return(nil, customer.ErrCustomerNotFound)
	svc := NewCustomerService(repo, &fakeUnitOfWork{repo: repo}, newSessionRecorder(), nil)

	resp, err := svc.GetByID(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, "Ada", resp.Name)

	_, err = svc.GetByID(ctx, missing)
	assert.True(t, customer.IsNotFound(err))
}

func TestCustomerService_List(t *testing.T) {
	ctx := context.Background()
	a := newTestCustomer(t, "Ada", "ada@example.com")
	b := newTestCustomer(t, "Grace", "grace@example.com")

	t.Run("no filter lists all", func(t *testing.T) {
		repo := new(MockCustomerRepository)
		repo.On("ListAll", ctx).Return([]*customer.Customer{a, b}, nil)
		svc := NewCustomerService(repo, &fakeUnitOfWork{repo: repo}, newSessionRecorder(), nil)

		got, err := svc.List(ctx, CustomerListFilter{})
		require.NoError(t, err)
		assert.Len(t, got, 2)
	})

	t.Run("filter searches", func(t *testing.T) {
		repo := new(MockCustomerRepository)
		repo.On("Search", ctx, shared.Filter{"email": "grace@example.com"}).Return([]*customer.Customer{b}, nil)
		svc := NewCustomerService(repo, &fakeUnitOfWork{repo: repo}, newSessionRecorder(), nil)

		got, err := svc.List(ctx, CustomerListFilter{Email: "grace@example.com"})
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, b.ID, got[0].ID)
	})
}

func TestCustomerService_Update(t *testing.T) {
	ctx := context.Background()
	strPtr := func(s string) *string { return &s }

	t.Run("rename and change email", func(t *testing.T) {
		c := newTestCustomer(t, "Ada", "ada@example.com")
		repo := new(MockCustomerRepository)
		repo.On("GetByID", ctx, c.ID).Return(c, nil)
		repo.On("ExistsByEmail", ctx, "ada@new.org").Return(false, nil)
		repo.On("Update", ctx, c).Return(nil)
		sessions := newSessionRecorder()
		svc := NewCustomerService(repo, &fakeUnitOfWork{repo: repo}, sessions, nil)

		resp, err := svc.Update(ctx, c.ID, UpdateCustomerRequest{Name: strPtr("Ada King"), Email: strPtr("ada@new.org")})

		require.NoError(t, err)
		assert.Equal(t, "Ada King", resp.Name)
		assert.Equal(t, "ada@new.org", resp.Email)
		repo.AssertExpectations(t)

		require.Len(t, sessions.sessions, 1)
		session := sessions.last()
		assert.Zero(t, session.commits)
		assert.Zero(t, session.rollbacks, "a read-only lookup opens nothing to roll back")
		assert.Empty(t, session.staged)
		assert.Empty(t, sessions.base.store)
	})

	t.Run("unchanged email skips availability check", func(t *testing.T) {
		c := newTestCustomer(t, "Ada", "ada@example.com")
		repo := new(MockCustomerRepository)
		repo.On("GetByID", ctx, c.ID).Return(c, nil)
		repo.On("Update", ctx, c).Return(nil)
		sessions := newSessionRecorder()
		svc := NewCustomerService(repo, &fakeUnitOfWork{repo: repo}, sessions, nil)

		_, err := svc.Update(ctx, c.ID, UpdateCustomerRequest{Email: strPtr("ada@example.com")})

		require.NoError(t, err)
		repo.AssertNotCalled(t, "ExistsByEmail", mock.Anything, mock.Anything)
		assert.Empty(t, sessions.sessions, "no control cache lookup for an unchanged email")
	})

	t.Run("email reserved in control cache", func(t *testing.T) {
		c := newTestCustomer(t, "Ada", "ada@example.com")
		repo := new(MockCustomerRepository)
		repo.On("GetByID", ctx, c.ID).Return(c, nil)
		sessions := newSessionRecorder()
		sessions.base.store["grace@example.com"] = ControlValueProcessing
		uow := &fakeUnitOfWork{repo: repo}
		svc := NewCustomerService(repo, uow, sessions, nil)

		_, err := svc.Update(ctx, c.ID, UpdateCustomerRequest{Email: strPtr("grace@example.com")})

		assert.True(t, customer.IsAlreadyExists(err))
		assert.Equal(t, 1, uow.rolledBack)
		repo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
	})

	t.Run("invalid email", func(t *testing.T) {
		c := newTestCustomer(t, "Ada", "ada@example.com")
		repo := new(MockCustomerRepository)
		repo.On("GetByID", ctx, c.ID).Return(c, nil)
		svc := NewCustomerService(repo, &fakeUnitOfWork{repo: repo}, newSessionRecorder(), nil)

		_, err := svc.Update(ctx, c.ID, UpdateCustomerRequest{Email: strPtr("broken")})
		assert.Equal(t, customer.CodeInvalidEmail, shared.ErrorCode(err))
	})
}

func TestCustomerService_Delete(t *testing.T) {
	ctx := context.Background()

	t.Run("deletes and releases control key", func(t *testing.T) {
		c := newTestCustomer(t, "Ada", "ada@example.com")
		repo := new(MockCustomerRepository)
		repo.On("GetByID", ctx, c.ID).Return(c, nil)
		repo.On("Delete", ctx, c.ID).Return(nil)
		sessions := newSessionRecorder()
		sessions.base.store["ada@example.com"] = ControlValueProcessing
		svc := NewCustomerService(repo, &fakeUnitOfWork{repo: repo}, sessions, nil)

		require.NoError(t, svc.Delete(ctx, c.ID))
		assert.NotContains(t, sessions.base.store, "ada@example.com")
		assert.Equal(t, 1, sessions.last().commits)
	})

	t.Run("missing customer", func(t *testing.T) {
		id := uuid.New()
		repo := new(MockCustomerRepository)
		repo.On("GetByID", ctx, id).Return(nil, customer.ErrCustomerNotFound)
		sessions := newSessionRecorder()
		svc := NewCustomerService(repo, &fakeUnitOfWork{repo: repo}, sessions, nil)

		err := svc.Delete(ctx, id)
		assert.True(t, customer.IsNotFound(err))
		assert.Empty(t, sessions.sessions)
	})
}
