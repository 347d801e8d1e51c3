// Package scenario drives a notifyhub.Hub from a YAML script of attach, detach and broadcast steps.
package scenario

import (
	"bytes"
	"context"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/jeremyforan/notifyhub"
)

type Op string

const (
	OpAttach Op = "attach"
	OpDetach Op = "detach"
	OpNotify Op = "notify"
	OpDo     Op = "do"
)

var ErrSimulatedFailure = errors.New("simulated subscriber failure")

//go:embed default.yaml
var defaultScript []byte

type SubscriberDef struct {
	ID   string `yaml:"id"`
	Name string `yaml:"name"`

	// Fail makes the subscriber return ErrSimulatedFailure from every update.
	Fail bool `yaml:"fail,omitempty"`
}

type Step struct {
	Op         Op     `yaml:"op"`
	Subscriber string `yaml:"subscriber,omitempty"`
}

type Scenario struct {
	Subscribers []SubscriberDef `yaml:"subscribers"`
	Steps       []Step          `yaml:"steps"`
}

// Default returns the built-in two-observer walkthrough.
func Default() (*Scenario, error) {
	return Parse(bytes.NewReader(defaultScript))
}

// Load reads and validates the script at path.
func Load(path string) (*Scenario, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	s, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return s, nil
}

// Parse decodes and validates a script. Unknown fields are an error.
func Parse(r io.Reader) (*Scenario, error) {
	var s Scenario

	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&s); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("decode scenario: %w", err)
	}

	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// Validate reports every problem in the script at once.
func (s *Scenario) Validate() error {
	var errs []error

	ids := make(map[string]bool, len(s.Subscribers))
	for i, sub := range s.Subscribers {
		switch {
		case sub.ID == "":
			errs = append(errs, fmt.Errorf("subscribers[%d]: missing id", i))
		case ids[sub.ID]:
			errs = append(errs, fmt.Errorf("subscribers[%d]: duplicate id %q", i, sub.ID))
		}
		if sub.Name == "" {
			errs = append(errs, fmt.Errorf("subscribers[%d]: missing name", i))
		}
		ids[sub.ID] = true
	}

	for i, step := range s.Steps {
		switch step.Op {
		case OpAttach, OpDetach:
			if step.Subscriber == "" {
				errs = append(errs, fmt.Errorf("steps[%d]: %s needs a subscriber", i, step.Op))
			} else if !ids[step.Subscriber] {
				errs = append(errs, fmt.Errorf("steps[%d]: unknown subscriber %q", i, step.Subscriber))
			}
		case OpNotify, OpDo:
			if step.Subscriber != "" {
				errs = append(errs, fmt.Errorf("steps[%d]: %s takes no subscriber", i, step.Op))
			}
		default:
			errs = append(errs, fmt.Errorf("steps[%d]: unknown op %q", i, step.Op))
		}
	}

	return errors.Join(errs...)
}

// Run executes the steps against hub, stopping at the first error. Subscribers log their updates to logger.
// The context is checked between steps.
func (s *Scenario) Run(ctx context.Context, hub *notifyhub.Hub, logger *slog.Logger) error {
	subs := make(map[string]notifyhub.Subscriber, len(s.Subscribers))
	for _, def := range s.Subscribers {
		subs[def.ID] = newSubscriber(def, logger)
	}

	for i, step := range s.Steps {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("step %d: %w", i+1, err)
		}

		var err error
		switch step.Op {
		case OpAttach:
			err = hub.Attach(subs[step.Subscriber])
		case OpDetach:
			err = hub.Detach(subs[step.Subscriber])
		case OpNotify:
			err = hub.Notify()
		case OpDo:
			err = hub.DoSomething()
		default:
			err = fmt.Errorf("unknown op %q", step.Op)
		}
		if err != nil {
			return fmt.Errorf("step %d (%s): %w", i+1, step.Op, err)
		}
	}
	return nil
}

func newSubscriber(def SubscriberDef, logger *slog.Logger) notifyhub.Subscriber {
	if !def.Fail {
		return notifyhub.NewLoggingSubscriber(def.Name, logger)
	}

	logged := notifyhub.NewLoggingSubscriber(def.Name, logger)
	return notifyhub.NewSubscriber(def.Name, func(h *notifyhub.Hub) error {
		_ = logged.Update(h)
		return ErrSimulatedFailure
	})
}
