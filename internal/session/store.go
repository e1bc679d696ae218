package session

import (
	"errors"
	"log/slog"
	"slices"
	"sync"

	"tally/internal/logging"
	"tally/internal/services"
)

// Subscriber observes a committed transition. It runs after the store lock is
// released and receives independent copies of both states. Transitions are
// delivered in commit order, one at a time, so a subscriber must not call
// Dispatch on the same store.
type Subscriber func(prev, next Session, action Action)

type subscription struct {
	id int
	fn Subscriber
}

// Store serializes dispatches for one session. It is safe for concurrent use;
// reductions never overlap.
type Store struct {
	mu          sync.Mutex
	state       Session
	subscribers []subscription
	nextSubID   int
	logger      *slog.Logger

	// notifyMu is taken before mu is released so deliveries follow commits.
	notifyMu sync.Mutex
}

// NewStore wraps initial.
func NewStore(initial Session, logger *slog.Logger) *Store {
	return &Store{
		state:  initial.Clone(),
		logger: logging.NewComponentLogger(logger, "session"),
	}
}

// State returns a copy of the current session.
func (s *Store) State() Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Clone()
}

// Dispatch reduces action into the stored session. On error the session is
// left unchanged.
func (s *Store) Dispatch(action Action) error {
	s.mu.Lock()
	prev := s.state
	next, err := Reduce(prev, action)
	if err != nil {
		s.mu.Unlock()
		attrs := []logging.Attr{
			logging.String(logging.FieldAction, action.Kind()),
			logging.String(logging.FieldStatus, prev.Status.String()),
			logging.Error(err),
		}
		if errors.Is(err, services.ErrInvariant) {
			logging.ErrorWithContext(s.logger, "invariant violated", "invariant_violation",
				append(attrs, logging.String(logging.FieldErrorHint, "the caller sent an action the session cannot hold"))...)
		} else {
			s.logger.Warn("action rejected", logging.Args(attrs...)...)
		}
		return err
	}
	s.state = next
	subs := make([]Subscriber, 0, len(s.subscribers))
	for _, sub := range s.subscribers {
		subs = append(subs, sub.fn)
	}
	s.notifyMu.Lock()
	s.mu.Unlock()
	defer s.notifyMu.Unlock()

	s.logger.Debug("action applied",
		logging.String(logging.FieldAction, action.Kind()),
		logging.String(logging.FieldStatus, next.Status.String()),
		logging.String("current", next.Form.Current.String()),
		logging.String("furthest", next.Form.Furthest.String()),
	)
	for _, fn := range subs {
		fn(prev.Clone(), next.Clone(), action)
	}
	return nil
}

// Subscribe registers fn and returns a function that removes it.
func (s *Store) Subscribe(fn Subscriber) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextSubID
	s.nextSubID++
	s.subscribers = append(s.subscribers, subscription{id: id, fn: fn})
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.subscribers = slices.DeleteFunc(s.subscribers, func(sub subscription) bool { return sub.id == id })
	}
}
