package common

import (
	"sync"

	"github.com/rs/zerolog"
)

// EmailSender delivers order notifications.
type EmailSender interface {
	Send(to, subject, html string) error
}

// Email is one message captured by InMemoryEmail.
type Email struct {
	To      string
	Subject string
	HTML    string
}

// InMemoryEmail records messages instead of sending them. It is safe for the
// concurrent handlers of the notification worker.
type InMemoryEmail struct {
	mu     sync.Mutex
	outbox []Email
}

// Send records the message.
func (m *InMemoryEmail) Send(to, subject, html string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.outbox = append(m.outbox, Email{To: to, Subject: subject, HTML: html})
	return nil
}

// Sent returns a copy of the recorded messages in send order.
func (m *InMemoryEmail) Sent() []Email {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Email(nil), m.outbox...)
}

// LogEmailSender logs outgoing mail instead of delivering it. The worker uses
// it until a mail transport is configured.
type LogEmailSender struct {
	Logger zerolog.Logger
}

// Send implements EmailSender.
func (l LogEmailSender) Send(to, subject, html string) error {
	l.Logger.Info().
		Str("to", to).
		Str("subject", subject).
		Int("bytes", len(html)).
		Msg("order email logged; no mail transport configured")
	return nil
}
