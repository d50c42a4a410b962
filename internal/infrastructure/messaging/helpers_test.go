package messaging

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var testRoute = Route{Topic: TopicCreateCustomer, Subscription: SubscriptionCreateCustomer}

func newTestRedisBroker(t *testing.T, maxAttempts int) (*miniredis.Miniredis, *redis.Client, *RedisBroker) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	b := NewRedisBroker(client, RedisBrokerConfig{
		Routes:              []Route{testRoute},
		ConsumerName:        "test-worker",
		MaxDeliveryAttempts: maxAttempts,
		AckDeadline:         time.Minute,
		BlockTimeout:        20 * time.Millisecond,
	}, zap.NewNop())
	require.NoError(t, b.EnsureTopology(context.Background()))
	return mr, client, b
}

// runSubscriber runs Subscribe in the background and waits for it to return
// when the test ends
func runSubscriber(t *testing.T, b Broker, subscription string, fn DeliveryHandler) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- b.Subscribe(ctx, subscription, fn) }()
	t.Cleanup(func() {
		cancel()
		select {
		case err := <-done:
			if err != nil {
				t.Errorf("subscribe returned %v", err)
			}
		case <-time.After(5 * time.Second):
			t.Error("subscriber did not stop")
		}
	})
}
