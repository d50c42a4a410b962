package shared

import (
	"time"

	"github.com/google/uuid"
)

// CloudEvents attribute values used on every message
const (
	SpecVersion     = "1.0"
	ContentTypeJSON = "application/json"
)

// Message is a CloudEvents 1.0 style envelope around a payload
type Message[T any] struct {
	ID              string    `json:"id"`
	SpecVersion     string    `json:"specversion"`
	Time            time.Time `json:"time"`
	DataContentType string    `json:"datacontenttype"`
	Type            string    `json:"type"`
	Source          string    `json:"source"`
	CorrelationID   string    `json:"correlation_id"`
	Data            T         `json:"data"`
}

// NewMessage wraps data with a fresh ID and the current UTC time
func NewMessage[T any](eventType, source, correlationID string, data T) Message[T] {
	return Message[T]{
		ID:              uuid.NewString(),
		SpecVersion:     SpecVersion,
		Time:            time.Now().UTC(),
		DataContentType: ContentTypeJSON,
		Type:            eventType,
		Source:          source,
		CorrelationID:   correlationID,
		Data:            data,
	}
}
