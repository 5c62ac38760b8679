// Package ai defines the provider-neutral contract the interview agents use to
// talk to a remote text-completion model.
package ai

import (
	"context"
	"errors"
	"strings"
	"time"
)

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one turn of a chat-style prompt.
type Message struct {
	Role    Role
	Content string
}

// Request is a single completion call. System is sent through the provider's
// system-instruction channel. A zero Temperature selects the provider default.
type Request struct {
	System      string
	Messages    []Message
	Temperature float32
}

// Completer is implemented by every LLM provider.
type Completer interface {
	Complete(ctx context.Context, req Request) (string, error)
	Provider() string
	Model() string
}

// Prompt builds a request made of a system instruction and one user message.
func Prompt(system, user string, temperature float32) Request {
	return Request{
		System:      system,
		Messages:    []Message{{Role: RoleUser, Content: user}},
		Temperature: temperature,
	}
}

// Validate checks the request can be sent: there must be at least one
// message and the last one must be a non-empty user turn.
func (r Request) Validate() error {
	if len(r.Messages) == 0 {
		return errors.New("request has no messages")
	}

	last := r.Messages[len(r.Messages)-1]
	if last.Role != RoleUser {
		return errors.New("last message must come from the user")
	}
	if strings.TrimSpace(last.Content) == "" {
		return errors.New("prompt must not be empty")
	}

	return nil
}

// History returns every message except the final user turn.
func (r Request) History() []Message {
	if len(r.Messages) == 0 {
		return nil
	}
	return r.Messages[:len(r.Messages)-1]
}

// Last returns the final user turn.
func (r Request) Last() Message {
	if len(r.Messages) == 0 {
		return Message{}
	}
	return r.Messages[len(r.Messages)-1]
}

type timeoutCompleter struct {
	Completer
	timeout time.Duration
}

// WithTimeout bounds every Complete call of c, retries included. A
// non-positive timeout returns c unchanged.
func WithTimeout(c Completer, timeout time.Duration) Completer {
	if timeout <= 0 {
		return c
	}
	return timeoutCompleter{Completer: c, timeout: timeout}
}

func (t timeoutCompleter) Complete(ctx context.Context, req Request) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()
	return t.Completer.Complete(ctx, req)
}
