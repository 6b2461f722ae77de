package router

import (
	"context"
	"strings"

	"orunmila/internal/agent"
	"orunmila/internal/domain"
	"orunmila/internal/metrics"
)

// processMessage is the background sequence for one message event:
// typing indicator, intent classification, reply resolution, delivery.
// It runs after the webhook was acknowledged, so nothing here may reach
// the HTTP layer; failures end in at most one fallback send.
func (r *Router) processMessage(ctx context.Context, event *domain.InboundEvent) error {
	msg := event.Message
	text := strings.TrimSpace(msg.Text)
	if text == "" {
		r.logger.Debug("message has no text content", "event_id", event.EventID, "chat_id", msg.ChatID)
		return nil
	}

	r.logger.Info("processing message", "event_id", event.EventID, "chat_id", msg.ChatID, "user_id", msg.FromUser.ID)

	r.deliverer.SendTyping(ctx, msg.ChatID)

	var reply string
	switch intent := agent.Classify(text); intent {
	case agent.IntentGreeting:
		reply = r.gateway.GreetingReply()
	case agent.IntentHelp:
		reply = r.gateway.HelpReply()
	default:
		uc := &domain.UserContext{
			Name:         msg.FromUser.DisplayName(),
			UserID:       msg.FromUser.ID,
			LanguageCode: msg.FromUser.LanguageCode,
		}
		reply = r.gateway.Answer(ctx, text, uc)
	}

	if _, err := r.deliverer.SendText(ctx, msg.ChatID, reply, msg.MessageID); err != nil {
		metrics.DeliveryFailures.Inc()
		r.logger.Error("reply delivery failed", "event_id", event.EventID, "chat_id", msg.ChatID, "err", err)
		r.recordDelivery(ctx, event, false)

		// Exactly one fallback attempt; a second failure is terminal.
		metrics.FallbacksSent.Inc()
		if _, ferr := r.deliverer.SendText(ctx, msg.ChatID, r.gateway.Fallback(), msg.MessageID); ferr != nil {
			r.logger.Error("fallback delivery failed", "event_id", event.EventID, "chat_id", msg.ChatID, "err", ferr)
		}
		return err
	}

	metrics.RepliesDelivered.Inc()
	r.recordDelivery(ctx, event, true)
	r.logger.Info("reply sent", "event_id", event.EventID, "chat_id", msg.ChatID)
	return nil
}

func (r *Router) recordDelivery(ctx context.Context, event *domain.InboundEvent, delivered bool) {
	if r.store == nil {
		return
	}
	msg := event.Message
	if err := r.store.RecordDelivery(ctx, event.EventID, msg.ChatID, msg.MessageID, delivered); err != nil {
		r.logger.Warn("cannot record delivery", "event_id", event.EventID, "err", err)
	}
}
