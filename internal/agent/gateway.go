package agent

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"orunmila/internal/domain"
	"orunmila/internal/metrics"
	"orunmila/internal/persona"
)

const defaultAnswerTimeout = 45 * time.Second

// Gateway wraps a conversational-AI provider with the process persona.
// Its Answer method cannot fail: provider errors are logged and replaced
// with the persona's apology text, so a reply is always available.
type Gateway struct {
	provider domain.Provider
	persona  *persona.Persona
	timeout  time.Duration
	logger   *slog.Logger
}

type GatewayConfig struct {
	Provider domain.Provider
	Persona  *persona.Persona
	Timeout  time.Duration
	Logger   *slog.Logger
}

func NewGateway(cfg GatewayConfig) *Gateway {
	if cfg.Persona == nil {
		cfg.Persona = persona.Default()
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultAnswerTimeout
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Gateway{
		provider: cfg.Provider,
		persona:  cfg.Persona,
		timeout:  cfg.Timeout,
		logger:   cfg.Logger,
	}
}

// Answer asks the provider the given question under the persona's system
// prompt. When user context is present, the question is prefixed with an
// attribution line; this is the only transformation applied.
func (g *Gateway) Answer(ctx context.Context, question string, uc *domain.UserContext) string {
	prompt := question
	if uc != nil {
		name := uc.Name
		if name == "" {
			name = "friend"
		}
		prompt = fmt.Sprintf("Question from %s: %s", name, question)
	}

	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	answer, err := g.provider.Complete(ctx, g.persona.SystemPrompt, prompt)
	if err != nil {
		agentErr := &domain.AgentError{Provider: g.provider.Name(), Err: err}
		g.logger.Error("answer generation failed", "err", agentErr)
		metrics.AgentFailures.Inc()
		return g.persona.Apology
	}

	g.logger.Info("answer generated", "question_len", len(question), "answer_len", len(answer), "relevant", Relevant(question))
	return answer
}

// GreetingReply returns the persona's static greeting text.
func (g *Gateway) GreetingReply() string { return g.persona.Greeting }

// HelpReply returns the persona's static help text.
func (g *Gateway) HelpReply() string { return g.persona.Help }

// Apology returns the persona's apology text, used when the pipeline
// fails after classification.
func (g *Gateway) Apology() string { return g.persona.Apology }

// Fallback returns the persona's fallback text, sent as the single
// best-effort message when reply delivery fails.
func (g *Gateway) Fallback() string { return g.persona.Fallback }

// relevanceKeywords is a coarse heuristic for whether a question touches
// the persona's domain. Used for logging only; off-topic questions are
// still answered.
var relevanceKeywords = []string{
	"yoruba", "oyo", "ife", "nigeria", "orisha", "ifa", "sango", "orunmila",
	"oduduwa", "obatala", "osun", "oya", "african", "west africa", "igbo",
	"hausa", "benin", "festival", "traditional", "culture", "history",
	"language", "proverb", "owe", "egungun", "gelede", "adire", "aso-oke",
}

// Relevant reports whether the question appears to be about the
// persona's domain.
func Relevant(question string) bool {
	q := strings.ToLower(question)
	for _, kw := range relevanceKeywords {
		if strings.Contains(q, kw) {
			return true
		}
	}
	return false
}
