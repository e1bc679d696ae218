package navguard

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"tally/internal/api"
	"tally/internal/logging"
	"tally/internal/sections"
	"tally/internal/session"
	"tally/internal/submit"
)

// Submitter issues the network operations a prompt answer may need.
// *submit.Coordinator satisfies it.
type Submitter interface {
	Submit(ctx context.Context, section sections.ID, values api.SectionValues, opts submit.Options) (bool, error)
	Delete(ctx context.Context) error
}

// EditSource yields the values currently typed into the section on screen.
type EditSource interface {
	CurrentValues() api.SectionValues
}

// EditSourceFunc adapts a function to EditSource.
type EditSourceFunc func() api.SectionValues

// CurrentValues calls f.
func (f EditSourceFunc) CurrentValues() api.SectionValues { return f() }

// PromptKind identifies which confirmation dialog to show.
type PromptKind string

const (
	// PromptUnsavedChanges asks whether to save edits to a completed section
	// before moving to another section.
	PromptUnsavedChanges PromptKind = "unsaved_changes"
	// PromptAbortEntry asks whether to keep or discard the entry when leaving
	// the data entry pages.
	PromptAbortEntry PromptKind = "abort_entry"
)

// Prompt is a pending navigation that needs the user's answer.
type Prompt struct {
	Kind PromptKind
	From string
	To   string
}

// Choice is the user's answer to a Prompt.
type Choice string

const (
	ChoiceSave    Choice = "save"
	ChoiceDiscard Choice = "discard"
	ChoiceCancel  Choice = "cancel"
)

// Decision is the outcome of evaluating a route change.
type Decision struct {
	Block   bool
	Leaving bool
	// Cache is set when the edits of the current section should be kept in
	// the cache slot and the navigation allowed.
	Cache bool
}

// Decide evaluates a route change from current to next for s. It has no side
// effects.
func Decide(s session.Session, current, next string) Decision {
	if s.Status.IsTerminal() || current == next {
		return Decision{}
	}
	base := BasePath(s.ElectionID, s.PollingStationID, s.EntryNumber)
	if !Within(base, next) {
		return Decision{Block: true, Leaving: true}
	}
	if !s.CurrentSection().HasChanges {
		return Decision{}
	}
	if s.Form.Current == s.Form.Furthest {
		return Decision{Cache: true}
	}
	return Decision{Block: true}
}

// Guard applies navigation decisions to a session.
type Guard struct {
	store     *session.Store
	submitter Submitter
	edits     EditSource
	logger    *slog.Logger
}

// New constructs a guard for the session held by store.
func New(store *session.Store, submitter Submitter, edits EditSource, logger *slog.Logger) *Guard {
	return &Guard{
		store:     store,
		submitter: submitter,
		edits:     edits,
		logger:    logging.NewComponentLogger(logger, "navguard"),
	}
}

// ShouldBlock reports whether the move from current to next must be
// confirmed. When the user is on the frontier section with unsaved edits and
// stays inside the wizard, the edits are cached and the move is allowed. A
// failure to cache blocks the move.
func (g *Guard) ShouldBlock(current, next string) bool {
	prompt, err := g.Navigate(current, next)
	if err != nil {
		g.logger.Error("navigation check failed", logging.Error(err))
		return true
	}
	return prompt != nil
}

// Navigate evaluates a move and returns the prompt to show, or nil when the
// move may proceed.
func (g *Guard) Navigate(current, next string) (*Prompt, error) {
	s := g.store.State()
	d := Decide(s, current, next)
	if d.Cache {
		entry := &session.Cache{Key: s.Form.Current, Data: g.edits.CurrentValues()}
		if err := g.store.Dispatch(session.SetCache{Cache: entry}); err != nil {
			return nil, fmt.Errorf("cache edits of %s: %w", s.Form.Current, err)
		}
		g.logger.Debug("cached unsaved edits",
			logging.String(logging.FieldSection, s.Form.Current.String()),
			logging.String("next", next),
		)
		return nil, nil
	}
	if !d.Block {
		return nil, nil
	}
	kind := PromptUnsavedChanges
	if d.Leaving {
		kind = PromptAbortEntry
	}
	g.logger.Debug("navigation blocked",
		logging.String("prompt", string(kind)),
		logging.String("next", next),
	)
	return &Prompt{Kind: kind, From: current, To: next}, nil
}

// Resolve carries out choice for p. It reports whether the original
// navigation may now proceed. On failure the navigation stays blocked and the
// error is returned.
func (g *Guard) Resolve(ctx context.Context, p Prompt, choice Choice) (bool, error) {
	if choice == ChoiceCancel {
		return false, nil
	}
	s := g.store.State()
	switch {
	case p.Kind == PromptUnsavedChanges && choice == ChoiceSave:
		opts := submit.Options{AcceptWarnings: s.CurrentSection().AcceptWarnings}
		return g.save(ctx, s.Form.Current, opts)
	case p.Kind == PromptUnsavedChanges && choice == ChoiceDiscard:
		update := session.UpdateFormSection{Update: session.SectionUpdate{HasChanges: session.Bool(false)}}
		if err := g.store.Dispatch(update); err != nil {
			return false, err
		}
		return true, nil
	case p.Kind == PromptAbortEntry && choice == ChoiceSave:
		opts := submit.Options{AcceptWarnings: s.CurrentSection().AcceptWarnings, Aborting: true}
		return g.save(ctx, s.Form.Current, opts)
	case p.Kind == PromptAbortEntry && choice == ChoiceDiscard:
		if err := g.submitter.Delete(ctx); err != nil {
			return false, err
		}
		return true, nil
	default:
		return false, fmt.Errorf("unsupported choice %q for %s prompt", choice, p.Kind)
	}
}

func (g *Guard) save(ctx context.Context, id sections.ID, opts submit.Options) (bool, error) {
	ok, err := g.submitter.Submit(ctx, id, g.edits.CurrentValues(), opts)
	if err != nil {
		return false, err
	}
	if !ok {
		if sessErr := g.store.State().Err; sessErr != nil {
			return false, sessErr
		}
		return false, errors.New("save was not accepted")
	}
	return true, nil
}
