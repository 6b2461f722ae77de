package domain

import (
	"encoding/json"
	"time"
)

// EventType identifies what kind of Telex webhook event was received.
// Values outside this set still parse; the router acknowledges them as
// unhandled instead of rejecting the payload.
type EventType string

const (
	EventMessage          EventType = "message"
	EventMessageDelivered EventType = "message.delivered"
	EventMessageRead      EventType = "message.read"
	EventUserJoined       EventType = "user.joined"
	EventUserLeft         EventType = "user.left"
)

// Known reports whether the event type is one of the recognized kinds.
func (t EventType) Known() bool {
	switch t {
	case EventMessage, EventMessageDelivered, EventMessageRead, EventUserJoined, EventUserLeft:
		return true
	}
	return false
}

// MessageType identifies the content kind of a message.
type MessageType string

const (
	MessageText     MessageType = "text"
	MessageImage    MessageType = "image"
	MessageVideo    MessageType = "video"
	MessageAudio    MessageType = "audio"
	MessageFile     MessageType = "file"
	MessageLocation MessageType = "location"
)

// User is the sender of a message. Only ID is guaranteed to be present.
type User struct {
	ID           string `json:"id"`
	Username     string `json:"username,omitempty"`
	FirstName    string `json:"first_name,omitempty"`
	LastName     string `json:"last_name,omitempty"`
	LanguageCode string `json:"language_code,omitempty"`
}

// DisplayName resolves a human-friendly name for the user, falling back
// through first name, username, and finally a generic address.
func (u User) DisplayName() string {
	if u.FirstName != "" {
		return u.FirstName
	}
	if u.Username != "" {
		return u.Username
	}
	return "friend"
}

// Message is an inbound chat message. Text may be empty; that is a valid
// state meaning there is nothing to answer, not an error.
type Message struct {
	MessageID        string          `json:"message_id"`
	FromUser         User            `json:"from"`
	ChatID           string          `json:"chat_id"`
	Text             string          `json:"text,omitempty"`
	MessageType      MessageType     `json:"message_type,omitempty"`
	Timestamp        time.Time       `json:"timestamp,omitempty"`
	ReplyToMessageID string          `json:"reply_to_message_id,omitempty"`
	Metadata         json.RawMessage `json:"metadata,omitempty"`
}

// InboundEvent is a parsed Telex webhook event. Immutable once parsed;
// created per request and discarded after processing.
type InboundEvent struct {
	EventID   string          `json:"event_id"`
	EventType EventType       `json:"event_type"`
	Timestamp time.Time       `json:"timestamp,omitempty"`
	Message   *Message        `json:"message,omitempty"`
	Data      json.RawMessage `json:"data,omitempty"`
}

// UserContext carries sender attribution passed along with a question.
type UserContext struct {
	Name         string
	UserID       string
	LanguageCode string
}
