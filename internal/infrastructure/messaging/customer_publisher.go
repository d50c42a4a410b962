package messaging

import (
	"context"

	appcustomer "github.com/customers/backend/internal/application/customer"
	"github.com/customers/backend/internal/domain/customer"
)

// Envelope values for the create-customer command
const (
	TypeCreateCustomer         = "com.derekcompany.customer.create"
	SourceCustomersAPI         = "/v1/app-customers"
	TopicCreateCustomer        = "command.create.customer"
	SubscriptionCreateCustomer = "command.create.customer.app_customer.sub"
)

// CustomerCommandPublisher publishes the command that asks the worker to
// persist a new customer
type CustomerCommandPublisher struct {
	publisher *EnvelopePublisher
	topic     string
}

// NewCustomerCommandPublisher publishes to topic, or TopicCreateCustomer when empty
func NewCustomerCommandPublisher(publisher *EnvelopePublisher, topic string) *CustomerCommandPublisher {
	if topic == "" {
		topic = TopicCreateCustomer
	}
	return &CustomerCommandPublisher{publisher: publisher, topic: topic}
}

// PublishCreateCustomer sends c as the data of a create command
func (p *CustomerCommandPublisher) PublishCreateCustomer(ctx context.Context, c *customer.Customer) error {
	_, err := p.publisher.Publish(ctx, p.topic, TypeCreateCustomer, SourceCustomersAPI, c)
	return err
}

var _ appcustomer.CustomerMessagePublisher = (*CustomerCommandPublisher)(nil)
