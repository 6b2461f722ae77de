package domain

import "context"

// Provider is a conversational-AI backend: one system prompt, one user
// prompt in, one answer out.
type Provider interface {
	Name() string
	Healthy(ctx context.Context) error
	Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// Deliverer sends outbound messages and typing indicators to the
// messaging platform. SendTyping is best-effort and never returns an
// error; failures are logged by the implementation.
type Deliverer interface {
	SendText(ctx context.Context, chatID, text, replyToMessageID string) (DeliveryResult, error)
	SendTyping(ctx context.Context, chatID string)
}

// EventStore records processed events for duplicate suppression and
// keeps a delivery log.
type EventStore interface {
	// MarkProcessed records the event and reports whether it was seen
	// for the first time (false means duplicate).
	MarkProcessed(ctx context.Context, eventID, chatID string) (bool, error)
	RecordDelivery(ctx context.Context, eventID, chatID, messageID string, delivered bool) error
	Close() error
}
