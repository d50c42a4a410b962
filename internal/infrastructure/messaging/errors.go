package messaging

import (
	"errors"
	"fmt"
	"time"
)

// PublisherError is implemented by every error EnvelopePublisher returns
type PublisherError interface {
	error
	PublishTopic() string
}

// PublishTimeoutError means the broker did not confirm within the publish timeout
type PublishTimeoutError struct {
	Topic   string
	Timeout time.Duration
}

func (e *PublishTimeoutError) Error() string {
	return fmt.Sprintf("Timeout publishing to %s after %s", e.Topic, e.Timeout)
}

func (e *PublishTimeoutError) PublishTopic() string { return e.Topic }

// PublishFailedError wraps any other broker or encoding failure
type PublishFailedError struct {
	Topic string
	Err   error
}

func (e *PublishFailedError) Error() string {
	return fmt.Sprintf("Failed to publish to %s: %v", e.Topic, e.Err)
}

func (e *PublishFailedError) PublishTopic() string { return e.Topic }

func (e *PublishFailedError) Unwrap() error { return e.Err }

// IsPublisherError reports whether err came from publishing
func IsPublisherError(err error) bool {
	var pe PublisherError
	return errors.As(err, &pe)
}

var (
	_ PublisherError = (*PublishTimeoutError)(nil)
	_ PublisherError = (*PublishFailedError)(nil)
)
