package webhook

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"orunmila/internal/agent"
	"orunmila/internal/domain"
	"orunmila/internal/metrics"
	"orunmila/internal/router"

	"github.com/google/uuid"
)

const (
	maxBodySize     = 1 << 20 // 1MB
	signatureHeader = "X-Telex-Signature"
)

// Server is the HTTP surface of the bot: the platform webhook plus the
// direct agent and messaging endpoints.
type Server struct {
	host      string
	port      int
	version   string
	router    *router.Router
	gateway   *agent.Gateway
	deliverer domain.Deliverer
	provider  domain.Provider
	validator *Validator
	metricsOn bool
	logger    *slog.Logger
	server    *http.Server
}

type ServerConfig struct {
	Host           string
	Port           int
	Version        string
	Router         *router.Router
	Gateway        *agent.Gateway
	Deliverer      domain.Deliverer
	Provider       domain.Provider
	Validator      *Validator
	MetricsEnabled bool
	Logger         *slog.Logger
}

func NewServer(cfg ServerConfig) *Server {
	if cfg.Host == "" {
		cfg.Host = "0.0.0.0"
	}
	if cfg.Port == 0 {
		cfg.Port = 8000
	}
	if cfg.Version == "" {
		cfg.Version = "dev"
	}
	if cfg.Validator == nil {
		cfg.Validator = NewValidator("")
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Server{
		host:      cfg.Host,
		port:      cfg.Port,
		version:   cfg.Version,
		router:    cfg.Router,
		gateway:   cfg.Gateway,
		deliverer: cfg.Deliverer,
		provider:  cfg.Provider,
		validator: cfg.Validator,
		metricsOn: cfg.MetricsEnabled,
		logger:    cfg.Logger,
	}
}

// Handler builds the route table. Exposed so tests can drive the server
// through httptest without binding a port.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /webhook/telex", s.handleWebhook)
	mux.HandleFunc("POST /agent/ask", s.handleAsk)
	mux.HandleFunc("GET /agent/greeting", s.handleGreeting)
	mux.HandleFunc("GET /agent/help", s.handleHelp)
	mux.HandleFunc("POST /messages/send", s.handleSend)
	mux.HandleFunc("POST /messages/broadcast", s.handleBroadcast)
	mux.HandleFunc("GET /healthz", s.handleHealthz)
	if s.metricsOn {
		mux.Handle("GET /metricsz", metrics.Collector.Handler())
	}

	return mux
}

// Start runs the server until ctx is cancelled, then drains in-flight
// requests before returning.
func (s *Server) Start(ctx context.Context) error {
	addr := fmt.Sprintf("%s:%d", s.host, s.port)
	s.server = &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	s.logger.Info("http server starting", "addr", addr, "signature_check", s.validator.Enabled())

	errCh := make(chan error, 1)
	go func() {
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("http server shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return s.server.Shutdown(shutdownCtx)
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	}
}

func (s *Server) handleWebhook(rw http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodySize))
	if err != nil {
		writeError(rw, http.StatusBadRequest, "bad_request", "cannot read request body", err.Error())
		return
	}
	defer r.Body.Close()

	if !s.validator.Valid(body, r.Header.Get(signatureHeader)) {
		s.logger.Warn("webhook signature rejected", "remote", r.RemoteAddr)
		writeError(rw, http.StatusUnauthorized, "unauthorized", "invalid webhook signature", "")
		return
	}

	event, err := Parse(body)
	if err != nil {
		var malformed *domain.MalformedEventError
		if errors.As(err, &malformed) {
			writeError(rw, http.StatusBadRequest, "malformed_event", malformed.Error(), malformed.Field)
			return
		}
		writeError(rw, http.StatusInternalServerError, "internal_error", "cannot process event", "")
		return
	}

	ack := s.router.Dispatch(r.Context(), event)
	writeJSON(rw, http.StatusOK, ack)
}

type askRequest struct {
	Question string `json:"question"`
	UserName string `json:"user_name,omitempty"`
	UserID   string `json:"user_id,omitempty"`
}

type askResponse struct {
	RequestID string `json:"request_id"`
	Question  string `json:"question"`
	Answer    string `json:"answer"`
	Timestamp string `json:"timestamp"`
}

func (s *Server) handleAsk(rw http.ResponseWriter, r *http.Request) {
	var req askRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(rw, http.StatusBadRequest, "bad_request", "invalid request body", err.Error())
		return
	}
	if req.Question == "" {
		writeError(rw, http.StatusBadRequest, "bad_request", "question is required", "")
		return
	}

	var uc *domain.UserContext
	if req.UserName != "" || req.UserID != "" {
		uc = &domain.UserContext{Name: req.UserName, UserID: req.UserID}
	}
	answer := s.gateway.Answer(r.Context(), req.Question, uc)

	writeJSON(rw, http.StatusOK, askResponse{
		RequestID: uuid.NewString(),
		Question:  req.Question,
		Answer:    answer,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) handleGreeting(rw http.ResponseWriter, r *http.Request) {
	writeJSON(rw, http.StatusOK, map[string]string{"greeting": s.gateway.GreetingReply()})
}

func (s *Server) handleHelp(rw http.ResponseWriter, r *http.Request) {
	writeJSON(rw, http.StatusOK, map[string]string{"help": s.gateway.HelpReply()})
}

type sendRequest struct {
	ChatID           string `json:"chat_id"`
	Text             string `json:"text"`
	ReplyToMessageID string `json:"reply_to_message_id,omitempty"`
}

func (s *Server) handleSend(rw http.ResponseWriter, r *http.Request) {
	var req sendRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(rw, http.StatusBadRequest, "bad_request", "invalid request body", err.Error())
		return
	}
	if req.ChatID == "" || req.Text == "" {
		writeError(rw, http.StatusBadRequest, "bad_request", "chat_id and text are required", "")
		return
	}

	result, err := s.deliverer.SendText(r.Context(), req.ChatID, req.Text, req.ReplyToMessageID)
	if err != nil {
		s.logger.Error("direct send failed", "chat_id", req.ChatID, "err", err)
		writeError(rw, http.StatusBadGateway, "delivery_failed", "message delivery failed", err.Error())
		return
	}
	writeJSON(rw, http.StatusOK, map[string]any{"delivered": true, "result": result})
}

type broadcastRequest struct {
	ChatIDs []string `json:"chat_ids"`
	Text    string   `json:"text"`
}

type broadcastEntry struct {
	ChatID    string `json:"chat_id"`
	Delivered bool   `json:"delivered"`
	Error     string `json:"error,omitempty"`
}

func (s *Server) handleBroadcast(rw http.ResponseWriter, r *http.Request) {
	var req broadcastRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(rw, http.StatusBadRequest, "bad_request", "invalid request body", err.Error())
		return
	}
	if len(req.ChatIDs) == 0 || req.Text == "" {
		writeError(rw, http.StatusBadRequest, "bad_request", "chat_ids and text are required", "")
		return
	}

	results := make([]broadcastEntry, 0, len(req.ChatIDs))
	sent, failed := 0, 0
	for _, chatID := range req.ChatIDs {
		entry := broadcastEntry{ChatID: chatID}
		if _, err := s.deliverer.SendText(r.Context(), chatID, req.Text, ""); err != nil {
			entry.Error = err.Error()
			failed++
			s.logger.Warn("broadcast delivery failed", "chat_id", chatID, "err", err)
		} else {
			entry.Delivered = true
			sent++
		}
		results = append(results, entry)
	}

	writeJSON(rw, http.StatusOK, map[string]any{
		"sent":    sent,
		"failed":  failed,
		"results": results,
	})
}

func (s *Server) handleHealthz(rw http.ResponseWriter, r *http.Request) {
	resp := map[string]any{
		"status":    "ok",
		"version":   s.version,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	}
	if s.provider != nil {
		resp["provider"] = s.provider.Name()
	}
	writeJSON(rw, http.StatusOK, resp)
}

func decodeJSON(r *http.Request, v any) error {
	defer r.Body.Close()
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodySize))
	return dec.Decode(v)
}

func writeJSON(rw http.ResponseWriter, status int, v any) {
	rw.Header().Set("Content-Type", "application/json; charset=utf-8")
	rw.WriteHeader(status)
	json.NewEncoder(rw).Encode(v)
}

type errorBody struct {
	Error     string `json:"error"`
	Message   string `json:"message"`
	Details   string `json:"details,omitempty"`
	Timestamp string `json:"timestamp"`
}

func writeError(rw http.ResponseWriter, status int, code, message, details string) {
	writeJSON(rw, status, errorBody{
		Error:     code,
		Message:   message,
		Details:   details,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}
