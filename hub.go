package notifyhub

import (
	"errors"
	"fmt"
	"log/slog"
	"reflect"
	"sync"
)

var (
	ErrNilSubscriber          = errors.New("subscriber is nil")
	ErrIncomparableSubscriber = errors.New("subscriber type is not comparable")
	ErrDuplicateSubscriber    = errors.New("observer already exist")
	ErrSubscriberNotFound     = errors.New("observer not exist")
)

// Hub is the subject side of the observer pattern. It keeps an ordered registry of subscribers and
// broadcasts to every one of them, in the order they were attached, when Notify is called. This is based on
// the documentation here:
// https://refactoring.guru/design-patterns/observer
//
// Membership is decided by identity: two distinct subscribers that share a name are different entries, while
// the same subscriber attached twice occupies two slots and is notified twice.
type Hub struct {

	// mutex guarding subscribers and strict. Held while mutating the registry and while taking the snapshot
	// for a broadcast, never while a subscriber callback runs.
	mu sync.Mutex

	// subscribers in attach order. Duplicates are allowed unless strict is set.
	subscribers []Subscriber

	// strict turns the duplicate and not-found warnings into returned errors.
	strict bool

	// structured logger for membership changes.
	logger *slog.Logger
}

// NewHub creates an empty Hub. Logging is discarded until SetLogger is called.
func NewHub() *Hub {
	return &Hub{
		subscribers: make([]Subscriber, 0),
		logger:      slog.New(slog.DiscardHandler),
	}
}

// Attach appends sub to the registry.
//
// If sub is already attached the hub logs a warning and, unless strict membership is enabled, appends it again
// so that it is notified once per attachment. In strict mode the duplicate is not added and
// ErrDuplicateSubscriber is returned.
func (h *Hub) Attach(sub Subscriber) error {
	if err := checkSubscriber(sub); err != nil {
		return err
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if h.indexOf(sub) >= 0 {
		h.logger.Warn("observer already exist!")
		if h.strict {
			return fmt.Errorf("attach %s: %w", sub.Name(), ErrDuplicateSubscriber)
		}
	}

	h.subscribers = append(h.subscribers, sub)
	h.logger.Info(fmt.Sprintf("%s add to observers", sub.Name()))
	return nil
}

// Detach removes the first registry entry that is sub. A subscriber that is not attached leaves the registry
// untouched; the hub logs a warning and returns nil, or ErrSubscriberNotFound in strict mode.
func (h *Hub) Detach(sub Subscriber) error {
	if err := checkSubscriber(sub); err != nil {
		return err
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	i := h.indexOf(sub)
	if i < 0 {
		h.logger.Warn("observer not exist")
		if h.strict {
			return fmt.Errorf("detach %s: %w", sub.Name(), ErrSubscriberNotFound)
		}
		return nil
	}

	h.subscribers = append(h.subscribers[:i], h.subscribers[i+1:]...)
	h.logger.Info(fmt.Sprintf("%s Deleted", sub.Name()))
	return nil
}

// Notify calls Update on every attached subscriber in attach order, passing the hub itself.
//
// The subscribers notified are the ones attached when Notify begins; a callback may attach or detach freely
// and the change applies to the next broadcast. The first callback to return an error stops the broadcast and
// the error is returned wrapped in a *NotifyError. Panics are not recovered.
func (h *Hub) Notify() error {
	for i, sub := range h.snapshot() {
		if err := sub.Update(h); err != nil {
			return &NotifyError{Index: i, Subscriber: sub.Name(), Err: err}
		}
	}
	return nil
}

// Do runs work and, if it succeeds, notifies the subscribers. An error from work is returned as is and no
// notification is sent.
func (h *Hub) Do(work func(*Hub) error) error {
	if work != nil {
		if err := work(h); err != nil {
			return err
		}
	}
	return h.Notify()
}

// DoSomething stands in for business logic that ends in a broadcast.
func (h *Hub) DoSomething() error {
	return h.Do(func(h *Hub) error {
		h.Logger().Info("I have something more important to do")
		return nil
	})
}

// Subscribers returns a copy of the registry in attach order.
func (h *Hub) Subscribers() []Subscriber {
	return h.snapshot()
}

// SubscriberCount returns the number of registry entries, counting duplicates.
func (h *Hub) SubscriberCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subscribers)
}

// Contains reports whether sub is attached.
func (h *Hub) Contains(sub Subscriber) bool {
	if checkSubscriber(sub) != nil {
		return false
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	return h.indexOf(sub) >= 0
}

// SetStrictMembership controls whether duplicate attaches and unknown detaches are rejected with an error.
func (h *Hub) SetStrictMembership(strict bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.strict = strict
}

// StrictMembership reports whether strict membership is enabled.
func (h *Hub) StrictMembership() bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	return h.strict
}

// SetLogger sets the structured logger for the hub. A nil logger discards output.
func (h *Hub) SetLogger(logger *slog.Logger) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	h.logger = logger
}

// Logger returns the structured logger for the hub.
func (h *Hub) Logger() *slog.Logger {
	h.mu.Lock()
	defer h.mu.Unlock()

	return h.logger
}

// snapshot copies the registry under the lock.
func (h *Hub) snapshot() []Subscriber {
	h.mu.Lock()
	defer h.mu.Unlock()

	subscribersCopy := make([]Subscriber, len(h.subscribers))
	copy(subscribersCopy, h.subscribers)
	return subscribersCopy
}

// indexOf must be called with h.mu held.
func (h *Hub) indexOf(sub Subscriber) int {
	for i, s := range h.subscribers {
		if s == sub {
			return i
		}
	}
	return -1
}

// checkSubscriber rejects values that cannot take part in identity comparison. Comparing interface values
// whose dynamic type is a slice, map or func panics.
func checkSubscriber(sub Subscriber) error {
	if sub == nil {
		return ErrNilSubscriber
	}
	if !reflect.TypeOf(sub).Comparable() {
		return fmt.Errorf("%T: %w", sub, ErrIncomparableSubscriber)
	}
	return nil
}

// NotifyError reports the subscriber whose callback aborted a broadcast.
type NotifyError struct {
	Index      int
	Subscriber string
	Err        error
}

func (e *NotifyError) Error() string {
	return fmt.Sprintf("notify subscriber %d (%s): %v", e.Index, e.Subscriber, e.Err)
}

func (e *NotifyError) Unwrap() error {
	return e.Err
}
