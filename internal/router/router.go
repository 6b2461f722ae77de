// Package router is the top-level orchestrator of the webhook pipeline:
// it routes parsed events by kind and runs the background sequence that
// classifies a message, resolves a reply, and delivers it.
package router

import (
	"context"
	"fmt"
	"log/slog"

	"orunmila/internal/agent"
	"orunmila/internal/domain"
	"orunmila/internal/metrics"
)

// Router dispatches inbound events. All collaborators are injected at
// construction and read-only afterwards.
type Router struct {
	gateway   *agent.Gateway
	deliverer domain.Deliverer
	store     domain.EventStore // nil when the event store is disabled
	dedup     bool
	tasks     *TaskRunner
	logger    *slog.Logger
}

type Config struct {
	Gateway            *agent.Gateway
	Deliverer          domain.Deliverer
	Store              domain.EventStore
	Dedup              bool
	MaxConcurrentTasks int
	Logger             *slog.Logger
}

func New(cfg Config) *Router {
	return &Router{
		gateway:   cfg.Gateway,
		deliverer: cfg.Deliverer,
		store:     cfg.Store,
		dedup:     cfg.Dedup && cfg.Store != nil,
		tasks:     NewTaskRunner(cfg.MaxConcurrentTasks, cfg.Logger),
		logger:    cfg.Logger,
	}
}

// Dispatch routes a parsed event and returns the synchronous
// acknowledgment. For message events the reply pipeline runs in the
// background; the acknowledgment never waits on it.
func (r *Router) Dispatch(ctx context.Context, event *domain.InboundEvent) *domain.Ack {
	metrics.EventsReceived.Inc()
	r.logger.Info("event received", "event_id", event.EventID, "event_type", event.EventType)

	switch event.EventType {
	case domain.EventMessage:
		if event.Message == nil {
			r.logger.Warn("message event without message payload", "event_id", event.EventID)
			return &domain.Ack{Success: true, Message: "Message event has no message, ignored"}
		}

		if r.dedup {
			first, err := r.store.MarkProcessed(ctx, event.EventID, event.Message.ChatID)
			if err != nil {
				// Dedup is best-effort; keep processing on store errors.
				r.logger.Warn("event store unavailable, skipping dedup", "event_id", event.EventID, "err", err)
			} else if !first {
				metrics.EventsDuplicate.Inc()
				r.logger.Info("duplicate event suppressed", "event_id", event.EventID)
				return &domain.Ack{Success: true, Message: "Duplicate event ignored"}
			}
		}

		r.tasks.Submit("process-message", func(taskCtx context.Context) error {
			return r.processMessage(taskCtx, event)
		})
		return &domain.Ack{Success: true, Message: "Message received and being processed"}

	case domain.EventMessageDelivered, domain.EventMessageRead:
		r.logger.Info("message status update", "event_type", event.EventType, "event_id", event.EventID)
		return &domain.Ack{Success: true, Message: fmt.Sprintf("Event %s acknowledged", event.EventType)}

	case domain.EventUserJoined, domain.EventUserLeft:
		r.logger.Info("user event", "event_type", event.EventType, "event_id", event.EventID)
		return &domain.Ack{Success: true, Message: fmt.Sprintf("Event %s acknowledged", event.EventType)}

	default:
		metrics.EventsUnhandled.Inc()
		r.logger.Warn("unhandled event type", "event_type", event.EventType, "event_id", event.EventID)
		return &domain.Ack{Success: true, Message: "Event type not handled"}
	}
}

// Tasks exposes the runner for shutdown draining and inspection.
func (r *Router) Tasks() *TaskRunner { return r.tasks }
