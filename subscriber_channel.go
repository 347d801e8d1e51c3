package notifyhub

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"
)

var (
	ErrDeliveryTimeout  = errors.New("notification not received within timeout threshold")
	ErrSubscriberClosed = errors.New("subscriber channel closed")
)

// Notification is what a ChannelSubscriber delivers for each update it receives.
type Notification struct {
	Hub        *Hub
	Subscriber string

	// Seq counts the updates this subscriber has received, starting at 1.
	Seq uint64
}

// ChannelSubscriber relays every update onto a channel so the work triggered by a broadcast can happen on
// another goroutine.
//
// The reader is responsible for draining the channel. If a notification cannot be handed over within the
// timeout threshold, Update fails with ErrDeliveryTimeout and the hub stops the broadcast.
type ChannelSubscriber struct {
	name string
	c    chan Notification
	t    time.Duration

	// mu is held for reading while a send is in flight so Close cannot close the channel under it.
	mu     sync.RWMutex
	closed bool

	seq atomic.Uint64
}

// NewChannelSubscriber creates a ChannelSubscriber with a channel of the given buffer size. A non-positive
// threshold means a send never times out.
func NewChannelSubscriber(name string, buffer int, t time.Duration) *ChannelSubscriber {
	if buffer < 0 {
		buffer = 0
	}
	return &ChannelSubscriber{
		name: name,
		c:    make(chan Notification, buffer),
		t:    t,
	}
}

func (s *ChannelSubscriber) Name() string {
	return s.name
}

// Channel returns the receive side of the delivery channel.
func (s *ChannelSubscriber) Channel() <-chan Notification {
	return s.c
}

// TimeoutThreshold returns how long Update waits for the reader.
func (s *ChannelSubscriber) TimeoutThreshold() time.Duration {
	return s.t
}

// Update sends a Notification, waiting at most the timeout threshold.
func (s *ChannelSubscriber) Update(h *Hub) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return fmt.Errorf("%s: %w", s.name, ErrSubscriberClosed)
	}

	ctx := context.Background()
	if s.t > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.t)
		defer cancel()
	}

	n := Notification{Hub: h, Subscriber: s.name, Seq: s.seq.Add(1)}

	select {
	case s.c <- n:
		return nil

	// the reader did not keep up
	case <-ctx.Done():
		return fmt.Errorf("%s: %w: %w", s.name, ErrDeliveryTimeout, ctx.Err())
	}
}

// Close closes the delivery channel. Detach the subscriber from its hubs first; updates after Close fail with
// ErrSubscriberClosed.
func (s *ChannelSubscriber) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.closed {
		s.closed = true
		close(s.c)
	}
}
