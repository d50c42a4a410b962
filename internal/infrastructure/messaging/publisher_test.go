package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/customers/backend/internal/domain/customer"
	"github.com/customers/backend/internal/domain/shared"
	"github.com/customers/backend/internal/infrastructure/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

type blockingBroker struct {
	*MemoryBroker
}

func (blockingBroker) Publish(ctx context.Context, _ string, _ []byte, _ map[string]string) (string, error) {
	<-ctx.Done()
	return "", ctx.Err()
}

type failingBroker struct {
	*MemoryBroker
	err error
}

func (b failingBroker) Publish(context.Context, string, []byte, map[string]string) (string, error) {
	return "", b.err
}

func TestEnvelopePublisher_Publish(t *testing.T) {
	b := NewMemoryBroker([]Route{testRoute}, 1, zap.NewNop())
	p := NewEnvelopePublisher(b, zap.NewNop(), WithPropagator(propagation.TraceContext{}))

	traceID, _ := trace.TraceIDFromHex("4bf92f3577b34da6a3ce929d0e0e4736")
	spanID, _ := trace.SpanIDFromHex("00f067aa0ba902b7")
	ctx := trace.ContextWithSpanContext(context.Background(), trace.NewSpanContext(trace.SpanContextConfig{
		TraceID:    traceID,
		SpanID:     spanID,
		TraceFlags: trace.FlagsSampled,
	}))
	ctx = logger.ContextWithCorrelationID(ctx, "corr-1")

	id, err := p.Publish(ctx, TopicCreateCustomer, TypeCreateCustomer, SourceCustomersAPI, map[string]string{"name": "Ada"})
	require.NoError(t, err)

	msgs := b.Messages(TopicCreateCustomer)
	require.Len(t, msgs, 1)
	attrs := msgs[0].Attributes
	assert.Equal(t, "corr-1", attrs[AttrCorrelationID])
	assert.Equal(t, TypeCreateCustomer, attrs[AttrType])
	assert.Equal(t, SourceCustomersAPI, attrs[AttrSource])
	assert.Equal(t, id, attrs[AttrID])
	assert.Contains(t, attrs["traceparent"], "4bf92f3577b34da6a3ce929d0e0e4736")

	var env shared.Message[map[string]string]
	require.NoError(t, json.Unmarshal(msgs[0].Body, &env))
	assert.Equal(t, id, env.ID)
	assert.Equal(t, "1.0", env.SpecVersion)
	assert.Equal(t, "application/json", env.DataContentType)
	assert.Equal(t, "corr-1", env.CorrelationID)
	assert.Equal(t, "Ada", env.Data["name"])
}

func TestEnvelopePublisher_GeneratesCorrelationID(t *testing.T) {
	b := NewMemoryBroker([]Route{testRoute}, 1, zap.NewNop())
	p := NewEnvelopePublisher(b, zap.NewNop())

	_, err := p.Publish(context.Background(), TopicCreateCustomer, "t", "s", 1)
	require.NoError(t, err)
	assert.Len(t, b.Messages(TopicCreateCustomer)[0].Attributes[AttrCorrelationID], 36)
}

func TestEnvelopePublisher_Errors(t *testing.T) {
	t.Run("timeout", func(t *testing.T) {
		p := NewEnvelopePublisher(blockingBroker{}, zap.NewNop(), WithPublishTimeout(20*time.Millisecond))
		_, err := p.Publish(context.Background(), "orders", "t", "s", 1)

		var timeout *PublishTimeoutError
		require.ErrorAs(t, err, &timeout)
		assert.Equal(t, "Timeout publishing to orders after 20ms", err.Error())
		assert.True(t, IsPublisherError(err))
	})

	t.Run("default timeout message", func(t *testing.T) {
		err := &PublishTimeoutError{Topic: TopicCreateCustomer, Timeout: DefaultPublishTimeout}
		assert.Equal(t, "Timeout publishing to command.create.customer after 10s", err.Error())
	})

	t.Run("broker failure", func(t *testing.T) {
		boom := errors.New("connection refused")
		p := NewEnvelopePublisher(failingBroker{err: boom}, zap.NewNop())
		_, err := p.Publish(context.Background(), "orders", "t", "s", 1)

		var failed *PublishFailedError
		require.ErrorAs(t, err, &failed)
		assert.ErrorIs(t, err, boom)
		assert.Equal(t, "orders", failed.PublishTopic())
		assert.True(t, IsPublisherError(err))
	})

	t.Run("unencodable payload", func(t *testing.T) {
		p := NewEnvelopePublisher(NewMemoryBroker(nil, 1, zap.NewNop()), zap.NewNop())
		_, err := p.Publish(context.Background(), "orders", "t", "s", make(chan int))
		assert.True(t, IsPublisherError(err))
	})

	t.Run("caller deadline is not a publish timeout", func(t *testing.T) {
		p := NewEnvelopePublisher(failingBroker{err: context.DeadlineExceeded}, zap.NewNop())
		_, err := p.Publish(context.Background(), "orders", "t", "s", 1)

		var timeout *PublishTimeoutError
		assert.False(t, errors.As(err, &timeout))
	})

	assert.False(t, IsPublisherError(errors.New("other")))
}

func TestCustomerCommandPublisher(t *testing.T) {
	b := NewMemoryBroker([]Route{testRoute}, 1, zap.NewNop())
	pub := NewCustomerCommandPublisher(NewEnvelopePublisher(b, zap.NewNop()), "")

	c, err := customer.NewCustomer("Ada", customer.MustEmail("ada@example.com"))
	require.NoError(t, err)
	require.NoError(t, pub.PublishCreateCustomer(context.Background(), c))

	msgs := b.Messages(TopicCreateCustomer)
	require.Len(t, msgs, 1)

	decoded, err := Decode(msgs[0].Body, msgs[0].Attributes)
	require.NoError(t, err)
	assert.Equal(t, SourceCustomersAPI, decoded.Source)
	assert.Equal(t, TypeCreateCustomer, decoded.Type)

	var got customer.Customer
	require.NoError(t, json.Unmarshal(decoded.Data, &got))
	assert.Equal(t, c.ID, got.ID)
	assert.Equal(t, "ada@example.com", got.Email.String())
}
