// Package notify formats freeze alerts and delivers them by email through a
// configurable provider: direct SMTP (the default), AWS SES, or Resend. The
// destination address is opaque — a plain mailbox or a carrier's
// email-to-SMS gateway — and is never interpreted.
package notify

import "context"

// SendInput carries one pre-rendered plaintext message to a provider.
type SendInput struct {
	To       string
	From     string
	FromName string
	Subject  string
	BodyText string
	// ReferenceID correlates the message with the run that produced it, for
	// providers that support message tagging.
	ReferenceID string
}

// EmailProvider delivers a single message and returns the provider's message
// ID when it has one.
type EmailProvider interface {
	// Name returns a short identifier for logging.
	Name() string
	Send(ctx context.Context, input SendInput) (string, error)
}
