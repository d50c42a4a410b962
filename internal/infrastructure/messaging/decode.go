package messaging

import (
	"encoding/json"
	"fmt"
)

// DefaultSource is used when neither the envelope nor the attributes name one
const DefaultSource = "pubsub.subscriber"

// InboundMessage is a decoded delivery handed to a MessageHandler
type InboundMessage struct {
	ID            string
	Type          string
	Source        string
	CorrelationID string
	Data          json.RawMessage
	Attributes    map[string]string
	Attempt       int
}

// Decode extracts the payload, source and correlation ID from a raw body.
// The payload is the envelope's data field, else its payload field, else the
// whole body.
func Decode(body []byte, attrs map[string]string) (InboundMessage, error) {
	if !json.Valid(body) {
		return InboundMessage{}, fmt.Errorf("message body is not valid JSON")
	}

	msg := InboundMessage{
		Data:       json.RawMessage(body),
		Attributes: attrs,
	}

	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(body, &envelope); err != nil {
		envelope = nil
	}

	if raw, ok := envelope["data"]; ok {
		msg.Data = raw
	} else if raw, ok := envelope["payload"]; ok {
		msg.Data = raw
	}

	msg.ID = firstNonEmpty(attrs[AttrID], stringField(envelope, "id"))
	msg.Type = firstNonEmpty(stringField(envelope, "type"), attrs[AttrType])
	msg.Source = firstNonEmpty(stringField(envelope, "source"), attrs["source"], attrs[AttrSource], DefaultSource)
	msg.CorrelationID = firstNonEmpty(attrs[AttrCorrelationID], stringField(envelope, "correlation_id"))

	return msg, nil
}

func stringField(envelope map[string]json.RawMessage, key string) string {
	raw, ok := envelope[key]
	if !ok {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return ""
	}
	return s
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
