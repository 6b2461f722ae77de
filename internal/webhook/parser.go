package webhook

import (
	"encoding/json"

	"orunmila/internal/domain"
)

// Parse decodes a raw webhook body into an inbound event. It rejects
// bodies that are not JSON objects or lack the event envelope fields;
// unknown event types pass through so the dispatcher can acknowledge
// them without processing.
func Parse(body []byte) (*domain.InboundEvent, error) {
	var event domain.InboundEvent
	if err := json.Unmarshal(body, &event); err != nil {
		return nil, &domain.MalformedEventError{Field: "body", Reason: "invalid JSON: " + err.Error()}
	}
	if event.EventID == "" {
		return nil, &domain.MalformedEventError{Field: "event_id", Reason: "missing"}
	}
	if event.EventType == "" {
		return nil, &domain.MalformedEventError{Field: "event_type", Reason: "missing"}
	}
	if event.EventType == domain.EventMessage && event.Message != nil && event.Message.ChatID == "" {
		return nil, &domain.MalformedEventError{Field: "message.chat_id", Reason: "missing"}
	}
	return &event, nil
}
