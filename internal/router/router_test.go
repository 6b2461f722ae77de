package router

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"strings"
	"sync"
	"testing"

	"orunmila/internal/agent"
	"orunmila/internal/domain"
	"orunmila/internal/persona"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

type fakeProvider struct {
	answer string
	err    error
	calls  int
}

func (f *fakeProvider) Name() string                  { return "fake" }
func (f *fakeProvider) Healthy(context.Context) error { return nil }
func (f *fakeProvider) Complete(_ context.Context, _, _ string) (string, error) {
	f.calls++
	return f.answer, f.err
}

type sentMessage struct {
	ChatID  string
	Text    string
	ReplyTo string
}

type fakeDeliverer struct {
	mu        sync.Mutex
	typing    []string
	sends     []sentMessage
	failSends int // fail this many SendText calls before succeeding
}

func (f *fakeDeliverer) SendText(_ context.Context, chatID, text, replyTo string) (domain.DeliveryResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sends = append(f.sends, sentMessage{chatID, text, replyTo})
	if f.failSends > 0 {
		f.failSends--
		return nil, &domain.DeliveryError{Status: 502, Body: "bad gateway"}
	}
	return domain.DeliveryResult{"ok": true}, nil
}

func (f *fakeDeliverer) SendTyping(_ context.Context, chatID string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.typing = append(f.typing, chatID)
}

func (f *fakeDeliverer) sent() []sentMessage {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]sentMessage(nil), f.sends...)
}

type fakeStore struct {
	mu   sync.Mutex
	seen map[string]bool
	err  error
}

func (f *fakeStore) MarkProcessed(_ context.Context, eventID, _ string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return false, f.err
	}
	if f.seen == nil {
		f.seen = make(map[string]bool)
	}
	if f.seen[eventID] {
		return false, nil
	}
	f.seen[eventID] = true
	return true, nil
}

func (f *fakeStore) RecordDelivery(context.Context, string, string, string, bool) error { return nil }
func (f *fakeStore) Close() error                                                       { return nil }

func newTestRouter(p domain.Provider, d domain.Deliverer, s domain.EventStore, dedup bool) *Router {
	gw := agent.NewGateway(agent.GatewayConfig{Provider: p, Logger: testLogger()})
	return New(Config{
		Gateway:            gw,
		Deliverer:          d,
		Store:              s,
		Dedup:              dedup,
		MaxConcurrentTasks: 4,
		Logger:             testLogger(),
	})
}

func messageEvent(id, chatID, msgID, text string) *domain.InboundEvent {
	return &domain.InboundEvent{
		EventID:   id,
		EventType: domain.EventMessage,
		Message: &domain.Message{
			MessageID: msgID,
			ChatID:    chatID,
			Text:      text,
			FromUser:  domain.User{ID: "U1"},
		},
	}
}

func TestDispatch_GreetingScenario(t *testing.T) {
	d := &fakeDeliverer{}
	r := newTestRouter(&fakeProvider{}, d, nil, false)

	ack := r.Dispatch(context.Background(), messageEvent("E1", "C1", "M1", "hi"))
	if !ack.Success {
		t.Fatal("expected successful ack")
	}
	r.Tasks().Wait()

	if len(d.typing) != 1 || d.typing[0] != "C1" {
		t.Errorf("expected typing indicator to C1, got %v", d.typing)
	}
	sends := d.sent()
	if len(sends) != 1 {
		t.Fatalf("expected 1 delivery, got %d", len(sends))
	}
	if sends[0].ChatID != "C1" || sends[0].ReplyTo != "M1" {
		t.Errorf("unexpected delivery target: %+v", sends[0])
	}
	if sends[0].Text != persona.Default().Greeting {
		t.Errorf("expected greeting text, got %q", sends[0].Text)
	}
}

func TestDispatch_GeneralQuestionDeliversAnswerUnmodified(t *testing.T) {
	d := &fakeDeliverer{}
	p := &fakeProvider{answer: "Oduduwa founded Ile-Ife."}
	r := newTestRouter(p, d, nil, false)

	r.Dispatch(context.Background(), messageEvent("E1", "C1", "M1", "Who was Oduduwa?"))
	r.Tasks().Wait()

	sends := d.sent()
	if len(sends) != 1 {
		t.Fatalf("expected 1 delivery, got %d", len(sends))
	}
	if sends[0].Text != "Oduduwa founded Ile-Ife." {
		t.Errorf("answer was modified: %q", sends[0].Text)
	}
}

func TestDispatch_AgentFailureDeliversApology(t *testing.T) {
	d := &fakeDeliverer{}
	p := &fakeProvider{err: errors.New("provider down")}
	r := newTestRouter(p, d, nil, false)

	r.Dispatch(context.Background(), messageEvent("E1", "C1", "M1", "Who was Oduduwa?"))
	r.Tasks().Wait()

	sends := d.sent()
	if len(sends) != 1 {
		t.Fatalf("expected 1 delivery, got %d", len(sends))
	}
	if sends[0].Text != persona.Default().Apology {
		t.Errorf("expected apology, got %q", sends[0].Text)
	}
}

func TestDispatch_DeliveryFailureTriggersExactlyOneFallback(t *testing.T) {
	d := &fakeDeliverer{failSends: 1}
	r := newTestRouter(&fakeProvider{answer: "ok"}, d, nil, false)

	r.Dispatch(context.Background(), messageEvent("E1", "C1", "M1", "a question"))
	r.Tasks().Wait()

	sends := d.sent()
	if len(sends) != 2 {
		t.Fatalf("expected main attempt + 1 fallback, got %d sends", len(sends))
	}
	if sends[1].Text != persona.Default().Fallback {
		t.Errorf("fallback should carry the apology text, got %q", sends[1].Text)
	}
	if sends[1].ChatID != "C1" || sends[1].ReplyTo != "M1" {
		t.Errorf("fallback should target the same chat and reply id: %+v", sends[1])
	}
}

func TestDispatch_SecondDeliveryFailureIsTerminal(t *testing.T) {
	d := &fakeDeliverer{failSends: 2}
	r := newTestRouter(&fakeProvider{answer: "ok"}, d, nil, false)

	r.Dispatch(context.Background(), messageEvent("E1", "C1", "M1", "a question"))
	r.Tasks().Wait()

	if got := len(d.sent()); got != 2 {
		t.Errorf("expected no retries after failed fallback, got %d sends", got)
	}
}

func TestDispatch_EmptyTextIsSilentNoop(t *testing.T) {
	for _, text := range []string{"", "   ", "\t\n"} {
		d := &fakeDeliverer{}
		p := &fakeProvider{answer: "ok"}
		r := newTestRouter(p, d, nil, false)

		ack := r.Dispatch(context.Background(), messageEvent("E1", "C1", "M1", text))
		if !ack.Success {
			t.Error("empty text should still ack successfully")
		}
		r.Tasks().Wait()

		if len(d.typing) != 0 || len(d.sent()) != 0 || p.calls != 0 {
			t.Errorf("text %q: expected no typing/delivery/AI calls", text)
		}
	}
}

func TestDispatch_StatusEventsAreLogOnly(t *testing.T) {
	for _, et := range []domain.EventType{
		domain.EventMessageDelivered,
		domain.EventMessageRead,
		domain.EventUserJoined,
		domain.EventUserLeft,
	} {
		d := &fakeDeliverer{}
		r := newTestRouter(&fakeProvider{}, d, nil, false)

		ack := r.Dispatch(context.Background(), &domain.InboundEvent{EventID: "E1", EventType: et})
		if !ack.Success {
			t.Errorf("%s: expected success ack", et)
		}
		if !strings.Contains(ack.Message, "acknowledged") {
			t.Errorf("%s: unexpected ack message %q", et, ack.Message)
		}
		r.Tasks().Wait()
		if len(d.sent()) != 0 {
			t.Errorf("%s: expected no delivery", et)
		}
	}
}

func TestDispatch_UnknownEventTypeIsNotHandledButNotAnError(t *testing.T) {
	d := &fakeDeliverer{}
	p := &fakeProvider{}
	r := newTestRouter(p, d, nil, false)

	ack := r.Dispatch(context.Background(), &domain.InboundEvent{EventID: "E1", EventType: "channel.renamed"})
	if !ack.Success {
		t.Error("unknown event type should ack successfully")
	}
	if ack.Message != "Event type not handled" {
		t.Errorf("unexpected ack message: %q", ack.Message)
	}
	r.Tasks().Wait()
	if len(d.sent()) != 0 || p.calls != 0 {
		t.Error("unknown event type must not trigger delivery or AI calls")
	}
}

func TestDispatch_MessageEventWithoutMessage(t *testing.T) {
	d := &fakeDeliverer{}
	r := newTestRouter(&fakeProvider{}, d, nil, false)

	ack := r.Dispatch(context.Background(), &domain.InboundEvent{EventID: "E1", EventType: domain.EventMessage})
	if !ack.Success {
		t.Error("expected success ack")
	}
	r.Tasks().Wait()
	if len(d.sent()) != 0 {
		t.Error("expected no delivery")
	}
}

func TestDispatch_DuplicateEventSuppressed(t *testing.T) {
	d := &fakeDeliverer{}
	r := newTestRouter(&fakeProvider{answer: "ok"}, d, &fakeStore{}, true)

	r.Dispatch(context.Background(), messageEvent("E1", "C1", "M1", "question"))
	ack := r.Dispatch(context.Background(), messageEvent("E1", "C1", "M1", "question"))
	r.Tasks().Wait()

	if ack.Message != "Duplicate event ignored" {
		t.Errorf("unexpected duplicate ack: %q", ack.Message)
	}
	if got := len(d.sent()); got != 1 {
		t.Errorf("duplicate event must not be reprocessed, got %d sends", got)
	}
}

func TestDispatch_StoreErrorDoesNotBlockProcessing(t *testing.T) {
	d := &fakeDeliverer{}
	r := newTestRouter(&fakeProvider{answer: "ok"}, d, &fakeStore{err: errors.New("db locked")}, true)

	ack := r.Dispatch(context.Background(), messageEvent("E1", "C1", "M1", "question"))
	if !ack.Success {
		t.Error("store failure must not reject the event")
	}
	r.Tasks().Wait()
	if got := len(d.sent()); got != 1 {
		t.Errorf("expected processing despite store error, got %d sends", got)
	}
}
