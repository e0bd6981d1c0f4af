// Package oracle provides transports to the external reasoning service.
//
// The engine only needs "send prompt text, receive response text, surface
// communication failure as an error"; everything provider-specific lives here.
package oracle

import (
	"context"
	"errors"
	"fmt"
)

// Role identifies the author of a message turn.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is a single role-tagged turn.
type Message struct {
	Role    Role
	Content string
}

// Request is one completion call.
type Request struct {
	// Model overrides the client's configured model when non-empty.
	Model string
	// Messages are the conversation turns sent to the model.
	Messages []Message
	// Temperature is the sampling temperature.
	Temperature float64
}

// UserRequest builds a single-turn request.
func UserRequest(prompt string, temperature float64) Request {
	return Request{
		Messages:    []Message{{Role: RoleUser, Content: prompt}},
		Temperature: temperature,
	}
}

// Response carries the generated text of a single turn.
type Response struct {
	Content      string
	InputTokens  int64
	OutputTokens int64
}

// Client sends a request to the Oracle. Implementations must be safe for
// concurrent use; the whole decomposition tree shares one Client.
type Client interface {
	Complete(ctx context.Context, req Request) (Response, error)
}

// Func adapts a function to the Client interface.
type Func func(ctx context.Context, req Request) (Response, error)

// Complete calls f.
func (f Func) Complete(ctx context.Context, req Request) (Response, error) {
	return f(ctx, req)
}

// ErrNoChoices indicates the provider answered without any generated turn.
var ErrNoChoices = errors.New("oracle returned no choices")

// CommunicationError reports a failed call to the Oracle (transport, HTTP
// status, timeout, cancellation).
type CommunicationError struct {
	// Provider names the transport that failed (openai, anthropic, limiter).
	Provider string
	Err      error
}

func (e *CommunicationError) Error() string {
	return fmt.Sprintf("%s call failed: %v", e.Provider, e.Err)
}

func (e *CommunicationError) Unwrap() error {
	return e.Err
}

// IsCommunicationError reports whether err is or wraps a *CommunicationError.
func IsCommunicationError(err error) bool {
	var ce *CommunicationError
	return errors.As(err, &ce)
}

func commErr(provider string, err error) error {
	if err == nil {
		return nil
	}
	return &CommunicationError{Provider: provider, Err: err}
}
