package domain

// OutboundMessage is a reply sent to the Telex messages API. Optional
// fields are omitted from the wire format when empty.
type OutboundMessage struct {
	ChatID             string `json:"chat_id"`
	Text               string `json:"text"`
	ReplyToMessageID   string `json:"reply_to_message_id,omitempty"`
	ParseMode          string `json:"parse_mode,omitempty"`
	LinkPreviewEnabled bool   `json:"link_preview_enabled"`
}

// DeliveryResult is whatever the messaging provider returns on a
// successful send. The pipeline imposes no structure on it.
type DeliveryResult map[string]any

// Ack is the synchronous webhook acknowledgment body.
type Ack struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}
