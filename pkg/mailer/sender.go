// Package mailer builds the notification email for a contact submission and
// hands it to a transactional email provider.
package mailer

import (
	"context"
	"errors"
	"fmt"
)

// Payload is one outbound email. It is built per request and never reused.
type Payload struct {
	From    string
	To      string
	Subject string
	ReplyTo string
	HTML    string
	Text    string

	// IdempotencyKey lets the provider drop duplicate deliveries when a send
	// is retried.
	IdempotencyKey string
}

// ProviderError is an error object returned by the provider in place of a
// message ID. The provider was reachable and refused the message.
type ProviderError struct {
	StatusCode int    `json:"statusCode"`
	Name       string `json:"name"`
	Message    string `json:"message"`
}

func (e *ProviderError) Error() string {
	if e.Name != "" {
		return fmt.Sprintf("provider rejected message (%d %s): %s", e.StatusCode, e.Name, e.Message)
	}
	return fmt.Sprintf("provider rejected message (%d): %s", e.StatusCode, e.Message)
}

// Result mirrors the provider's {data, error} reply. Exactly one of ID and
// Error is set when Send returns a nil error.
type Result struct {
	ID    string
	Error *ProviderError
}

// Sender delivers a payload. A returned error means the provider could not be
// reached or did not answer; a provider refusal is reported in Result.Error.
type Sender interface {
	Send(ctx context.Context, p Payload) (Result, error)
}

var ErrNotConfigured = errors.New("email provider not configured")

// Disabled is the Sender used when no provider credentials were supplied.
type Disabled struct{}

func (Disabled) Send(context.Context, Payload) (Result, error) {
	return Result{}, ErrNotConfigured
}

// NewSender returns a Resend-backed sender, or Disabled when apiKey is empty.
func NewSender(apiKey string, opts ...ResendOption) Sender {
	if apiKey == "" {
		return Disabled{}
	}
	return NewResendSender(apiKey, opts...)
}

func isDisabled(s Sender) bool {
	switch s.(type) {
	case nil, Disabled, *Disabled:
		return true
	}
	return false
}
