package domain

import "fmt"

// MalformedEventError means the webhook payload could not be parsed into
// an InboundEvent. Rejected at the HTTP layer before any routing.
type MalformedEventError struct {
	Field  string
	Reason string
}

func (e *MalformedEventError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("malformed event: %s: %s", e.Field, e.Reason)
	}
	return fmt.Sprintf("malformed event: %s", e.Reason)
}

// AuthorizationError means signature validation was enabled and the
// provided signature did not match the payload.
type AuthorizationError struct {
	Reason string
}

func (e *AuthorizationError) Error() string {
	return "unauthorized: " + e.Reason
}

// AgentError is a failure from the conversational-AI provider. It is
// always recovered locally: the user sees the apology text, never this.
type AgentError struct {
	Provider string
	Err      error
}

func (e *AgentError) Error() string {
	return fmt.Sprintf("agent provider %s: %v", e.Provider, e.Err)
}

func (e *AgentError) Unwrap() error { return e.Err }

// DeliveryError is a failure from the messaging provider when sending a
// message. The router decides whether a fallback send is attempted.
type DeliveryError struct {
	Status int
	Body   string
	Err    error
}

func (e *DeliveryError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("delivery failed: %v", e.Err)
	}
	return fmt.Sprintf("delivery failed: status %d: %s", e.Status, e.Body)
}

func (e *DeliveryError) Unwrap() error { return e.Err }
