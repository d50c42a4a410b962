package consumer

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	appcustomer "github.com/customers/backend/internal/application/customer"
	"github.com/customers/backend/internal/domain/customer"
	"github.com/customers/backend/internal/domain/shared"
	"github.com/customers/backend/internal/infrastructure/logger"
	"github.com/customers/backend/internal/infrastructure/messaging"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

type mockCreator struct {
	mock.Mock
}

func (m *mockCreator) Execute(ctx context.Context, c *customer.Customer) (*appcustomer.CustomerResponse, error) {
	args := m.Called(ctx, c)
	if resp := args.Get(0); resp != nil {
		return resp.(*appcustomer.CustomerResponse), args.Error(1)
	}
	return nil, args.Error(1)
}

var fixedID = uuid.MustParse("6f1c2a8e-3b7d-4c11-9a55-0f5d2b8e9c41")

func TestDecodeCustomer(t *testing.T) {
	created := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		payload string
		email   string
		wantErr string
	}{
		{
			name:    "email object",
			payload: `{"id":"6f1c2a8e-3b7d-4c11-9a55-0f5d2b8e9c41","name":"Ada","email":{"value":"ada@example.com"},"created_at":"2026-03-01T10:00:00Z"}`,
			email:   "ada@example.com",
		},
		{
			name:    "bare email string",
			payload: `{"id":"6f1c2a8e-3b7d-4c11-9a55-0f5d2b8e9c41","name":"Ada","email":"ada@example.com","created_at":"2026-03-01T10:00:00Z"}`,
			email:   "ada@example.com",
		},
		{
			name:    "invalid email",
			payload: `{"id":"6f1c2a8e-3b7d-4c11-9a55-0f5d2b8e9c41","name":"Ada","email":"nope"}`,
			wantErr: "Invalid email: nope",
		},
		{
			name:    "missing id",
			payload: `{"name":"Ada","email":"ada@example.com"}`,
			wantErr: "Customer ID is required",
		},
		{
			name:    "empty name",
			payload: `{"id":"6f1c2a8e-3b7d-4c11-9a55-0f5d2b8e9c41","name":"","email":"ada@example.com"}`,
			wantErr: "Name cannot be empty",
		},
		{
			name:    "not json",
			payload: `{"id":`,
			wantErr: "unexpected end of JSON input",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := DecodeCustomer(json.RawMessage(tt.payload))
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, fixedID, c.ID)
			assert.Equal(t, "Ada", c.Name)
			assert.Equal(t, tt.email, c.Email.String())
			assert.Equal(t, created, c.CreatedAt)
			assert.Equal(t, created, c.UpdatedAt)
		})
	}
}

func TestDecodeCustomer_DefaultsTimestamps(t *testing.T) {
	fixed := time.Date(2026, 5, 4, 3, 2, 1, 0, time.UTC)
	orig := shared.Now
	shared.Now = func() time.Time { return fixed }
	t.Cleanup(func() { shared.Now = orig })

	c, err := DecodeCustomer(json.RawMessage(`{"id":"6f1c2a8e-3b7d-4c11-9a55-0f5d2b8e9c41","name":"Ada","email":"ada@example.com"}`))
	require.NoError(t, err)
	assert.Equal(t, fixed, c.CreatedAt)
	assert.Equal(t, fixed, c.UpdatedAt)
}

func TestCreateCustomerHandler_HandleMessage(t *testing.T) {
	creator := &mockCreator{}
	creator.On("Execute", mock.Anything, mock.MatchedBy(func(c *customer.Customer) bool {
		return c.ID == fixedID && c.Email.String() == "ada@example.com"
	})).Return(&appcustomer.CustomerResponse{ID: fixedID, Name: "Ada", Email: "ada@example.com"}, nil)

	core, logs := observer.New(zap.InfoLevel)
	ctx := logger.WithContext(context.Background(), zap.New(core))

	h := NewCreateCustomerHandler(creator, nil)
	err := h.HandleMessage(ctx, messaging.InboundMessage{
		ID:     "msg-1",
		Type:   messaging.TypeCreateCustomer,
		Source: messaging.SourceCustomersAPI,
		Data:   json.RawMessage(`{"id":"6f1c2a8e-3b7d-4c11-9a55-0f5d2b8e9c41","name":"Ada","email":{"value":"ada@example.com"}}`),
	})
	require.NoError(t, err)
	creator.AssertExpectations(t)

	entries := logs.FilterMessage("customer persisted").All()
	require.Len(t, entries, 1)
	assert.Equal(t, fixedID.String(), entries[0].ContextMap()["customer_id"])
	assert.Equal(t, messaging.SourceCustomersAPI, entries[0].ContextMap()["source"])
}

func TestCreateCustomerHandler_Errors(t *testing.T) {
	payload := json.RawMessage(`{"id":"6f1c2a8e-3b7d-4c11-9a55-0f5d2b8e9c41","name":"Ada","email":"ada@example.com"}`)

	t.Run("wrong type", func(t *testing.T) {
		creator := &mockCreator{}
		err := NewCreateCustomerHandler(creator, nil).HandleMessage(context.Background(),
			messaging.InboundMessage{Type: "com.example.other", Data: payload})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unexpected message type")
		creator.AssertNotCalled(t, "Execute", mock.Anything, mock.Anything)
	})

	t.Run("undecodable payload", func(t *testing.T) {
		creator := &mockCreator{}
		err := NewCreateCustomerHandler(creator, nil).HandleMessage(context.Background(),
			messaging.InboundMessage{Data: json.RawMessage(`{"id":"x"}`)})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "decode customer")
	})

	t.Run("use case failure is returned", func(t *testing.T) {
		creator := &mockCreator{}
		conflict := customer.ErrCustomerAlreadyExists("ada@example.com")
		creator.On("Execute", mock.Anything, mock.Anything).Return(nil, conflict)

		err := NewCreateCustomerHandler(creator, nil).HandleMessage(context.Background(),
			messaging.InboundMessage{Type: messaging.TypeCreateCustomer, Data: payload})
		assert.True(t, errors.Is(err, conflict))
	})
}
