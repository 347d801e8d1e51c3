package notifyhub

import (
	"fmt"
	"log/slog"
)

// Subscriber is anything that can be attached to a Hub. Update is called once per attachment on every
// broadcast and receives the hub that is broadcasting, so a subscriber attached to several hubs can tell them
// apart. A non-nil error aborts the broadcast.
//
// The hub compares subscribers by identity, so implementations should be pointer types.
type Subscriber interface {
	Name() string
	Update(h *Hub) error
}

type funcSubscriber struct {
	name string
	fn   func(*Hub) error
}

// NewSubscriber adapts fn into a Subscriber. Every call returns a new identity, even for the same name and
// function.
func NewSubscriber(name string, fn func(*Hub) error) Subscriber {
	return &funcSubscriber{name: name, fn: fn}
}

func (s *funcSubscriber) Name() string {
	return s.name
}

func (s *funcSubscriber) Update(h *Hub) error {
	if s.fn == nil {
		return nil
	}
	return s.fn(h)
}

// LoggingSubscriber reports each update it receives to a structured logger.
type LoggingSubscriber struct {
	name   string
	logger *slog.Logger
}

// NewLoggingSubscriber creates a LoggingSubscriber. A nil logger falls back to slog.Default().
func NewLoggingSubscriber(name string, logger *slog.Logger) *LoggingSubscriber {
	if logger == nil {
		logger = slog.Default()
	}
	return &LoggingSubscriber{name: name, logger: logger}
}

func (s *LoggingSubscriber) Name() string {
	return s.name
}

// Update logs "<name> to update".
func (s *LoggingSubscriber) Update(_ *Hub) error {
	s.logger.Info(fmt.Sprintf("%s to update", s.name))
	return nil
}
