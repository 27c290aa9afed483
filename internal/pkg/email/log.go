package email

import (
	"context"
	"sync"

	"github.com/rs/zerolog"
)

// LogSender writes messages to the log instead of sending them. It keeps every
// message it has seen so development setups and tests can inspect them.
type LogSender struct {
	logger zerolog.Logger

	mu   sync.Mutex
	sent []Message
}

// NewLogSender creates a new LogSender
func NewLogSender(logger zerolog.Logger) *LogSender {
	return &LogSender{logger: logger}
}

// Send logs the message
func (s *LogSender) Send(_ context.Context, msg Message) error {
	s.logger.Info().
		Str("to", msg.To).
		Str("subject", msg.Subject).
		Int("bodyBytes", len(msg.HTMLBody)).
		Msg("Email logged")

	s.mu.Lock()
	s.sent = append(s.sent, msg)
	s.mu.Unlock()
	return nil
}

// Sent returns a copy of the logged messages
func (s *LogSender) Sent() []Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Message(nil), s.sent...)
}
