package webhook

import (
	"errors"
	"testing"

	"orunmila/internal/domain"
)

func TestParse_MessageEvent(t *testing.T) {
	body := []byte(`{
		"event_id": "evt-1",
		"event_type": "message",
		"message": {
			"message_id": "msg-1",
			"chat_id": "chat-1",
			"text": "Who was Oduduwa?",
			"from": {"id": "u1", "first_name": "Ade", "language_code": "yo"}
		}
	}`)

	event, err := Parse(body)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if event.EventID != "evt-1" || event.EventType != domain.EventMessage {
		t.Errorf("bad envelope: %+v", event)
	}
	if event.Message == nil {
		t.Fatal("message payload missing")
	}
	if event.Message.ChatID != "chat-1" || event.Message.Text != "Who was Oduduwa?" {
		t.Errorf("bad message: %+v", event.Message)
	}
	if event.Message.FromUser.FirstName != "Ade" {
		t.Errorf("bad sender: %+v", event.Message.FromUser)
	}
}

func TestParse_UnknownEventTypeAccepted(t *testing.T) {
	event, err := Parse([]byte(`{"event_id":"e1","event_type":"channel.renamed"}`))
	if err != nil {
		t.Fatalf("unknown event type should parse: %v", err)
	}
	if event.EventType.Known() {
		t.Error("channel.renamed should not be a known type")
	}
}

func TestParse_Malformed(t *testing.T) {
	cases := map[string]struct {
		body  string
		field string
	}{
		"not json":        {`{oops`, "body"},
		"json array":      {`[1,2]`, "body"},
		"missing id":      {`{"event_type":"message"}`, "event_id"},
		"missing type":    {`{"event_id":"e1"}`, "event_type"},
		"missing chat id": {`{"event_id":"e1","event_type":"message","message":{"message_id":"m1","text":"hi"}}`, "message.chat_id"},
	}

	for name, tc := range cases {
		_, err := Parse([]byte(tc.body))
		if err == nil {
			t.Errorf("%s: expected error", name)
			continue
		}
		var malformed *domain.MalformedEventError
		if !errors.As(err, &malformed) {
			t.Errorf("%s: expected MalformedEventError, got %T", name, err)
			continue
		}
		if malformed.Field != tc.field {
			t.Errorf("%s: expected field %q, got %q", name, tc.field, malformed.Field)
		}
	}
}

func TestParse_MessageEventWithoutMessagePayload(t *testing.T) {
	event, err := Parse([]byte(`{"event_id":"e1","event_type":"message"}`))
	if err != nil {
		t.Fatalf("message event without payload should parse, dispatcher ignores it: %v", err)
	}
	if event.Message != nil {
		t.Error("expected nil message")
	}
}
