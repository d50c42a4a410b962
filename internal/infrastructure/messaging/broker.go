// Package messaging carries CloudEvents style commands between the API and
// the worker over a broker.
package messaging

import (
	"context"
	"errors"
)

// DeadLetterSuffix is appended to a topic or subscription to name its
// dead-letter counterpart
const DeadLetterSuffix = "-dlq"

// ErrUnknownSubscription is returned when subscribing to a subscription the
// broker has no route for
var ErrUnknownSubscription = errors.New("unknown subscription")

// Route binds a subscription to the topic it reads from
type Route struct {
	Topic        string
	Subscription string
}

// DeadLetter returns the route that receives messages this route gave up on
func (r Route) DeadLetter() Route {
	return Route{
		Topic:        DeadLetterTopic(r.Topic),
		Subscription: r.Subscription + DeadLetterSuffix,
	}
}

// DeadLetterTopic names the dead-letter topic for topic
func DeadLetterTopic(topic string) string {
	return topic + DeadLetterSuffix
}

// Delivery is one attempt at handing a message to a subscriber
type Delivery struct {
	ID           string
	Topic        string
	Subscription string
	Body         []byte
	Attributes   map[string]string
	Attempt      int
}

// DeliveryHandler processes a delivery. Returning nil acks it; returning an
// error nacks it so the broker redelivers.
type DeliveryHandler func(ctx context.Context, d Delivery) error

// Broker is the transport the publisher and consumers run on
type Broker interface {
	// Publish appends a message to topic and returns its broker ID
	Publish(ctx context.Context, topic string, body []byte, attrs map[string]string) (string, error)

	// Subscribe delivers messages for subscription to fn until ctx is done
	Subscribe(ctx context.Context, subscription string, fn DeliveryHandler) error

	// EnsureTopology creates every configured topic, subscription and
	// dead-letter pair that does not exist yet
	EnsureTopology(ctx context.Context) error

	// TopicExists reports whether topic has been created
	TopicExists(ctx context.Context, topic string) (bool, error)

	// Routes returns the configured routes
	Routes() []Route

	Close() error
}
