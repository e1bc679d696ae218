package submit

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"tally/internal/api"
	"tally/internal/formstate"
	"tally/internal/logging"
	"tally/internal/sections"
	"tally/internal/services"
	"tally/internal/session"
)

// Options controls a single section submission.
type Options struct {
	// AcceptWarnings records that the user checked the section's warnings.
	AcceptWarnings bool
	// Aborting marks a save issued while leaving the wizard; on success the
	// session ends in the aborted status.
	Aborting bool
	// AdvanceOnSuccess moves to the next section when the section is clean.
	AdvanceOnSuccess bool
}

// Coordinator runs the network operations of one session.
type Coordinator struct {
	store     *session.Store
	transport Transport
	logger    *slog.Logger
	newID     func() string
	// beforeBusy runs between the precondition checks and the busy
	// transition. Tests use it to interleave other dispatches.
	beforeBusy func()
}

// Option configures optional Coordinator behavior.
type Option func(*Coordinator)

// WithRequestIDs overrides the request identifier generator.
func WithRequestIDs(fn func() string) Option {
	return func(c *Coordinator) {
		if fn != nil {
			c.newID = fn
		}
	}
}

// NewCoordinator binds a coordinator to a session store and transport.
func NewCoordinator(store *session.Store, transport Transport, logger *slog.Logger, opts ...Option) *Coordinator {
	c := &Coordinator{
		store:     store,
		transport: transport,
		logger:    logging.NewComponentLogger(logger, "submit"),
		newID:     uuid.NewString,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Store returns the session store the coordinator drives.
func (c *Coordinator) Store() *session.Store {
	return c.store
}

// Load fetches the entry and replaces the session with the server's copy.
// A transport failure is recorded on the session and returned.
func (c *Coordinator) Load(ctx context.Context) error {
	state := c.store.State()
	if state.Status.IsBusy() {
		return fmt.Errorf("%w: cannot load while %s", services.ErrOperationInFlight, state.Status)
	}
	if state.Status.IsTerminal() {
		return fmt.Errorf("%w: cannot load after %s", services.ErrSessionClosed, state.Status)
	}
	ctx, logger := c.requestContext(ctx, state, "")

	resp, err := c.transport.Load(ctx, state.PollingStationID, state.EntryNumber)
	if err != nil {
		return c.loadFailed(logger, err)
	}
	cs, err := formstate.DecodeClientState(resp.ClientState)
	if err != nil {
		return c.loadFailed(logger, services.Wrap(services.ErrMalformedResponse, "submit", "load", "client state", err))
	}
	loaded := session.SessionLoaded{
		Data:        resp.Data,
		ClientState: cs,
		Errors:      api.ToResults(resp.ValidationResults.Errors),
		Warnings:    api.ToResults(resp.ValidationResults.Warnings),
	}
	if err := c.store.Dispatch(loaded); err != nil {
		if errors.Is(err, services.ErrInvariant) {
			// The server sent cursors or field paths outside this election.
			err = services.Wrap(services.ErrMalformedResponse, "submit", "load", "restore session", err)
		}
		return c.loadFailed(logger, err)
	}
	next := c.store.State()
	logger.Info("data entry loaded",
		logging.String("current", next.Form.Current.String()),
		logging.String("furthest", next.Form.Furthest.String()),
		logging.Int("progress", resp.Progress),
	)
	return nil
}

func (c *Coordinator) loadFailed(logger *slog.Logger, err error) error {
	logging.WarnWithContext(logger, "data entry load failed", "load_failed",
		logging.String(logging.FieldErrorHint, "check the server address and that the entry exists"),
		logging.Error(err),
	)
	if dispatchErr := c.store.Dispatch(session.LoadFailed{Err: err}); dispatchErr != nil {
		return errors.Join(err, dispatchErr)
	}
	return err
}

// Submit saves values for section merged over the authoritative results. It
// reports whether the server accepted the submission; a response carrying
// validation errors still counts as accepted. Transport failures are recorded
// on the session and reported as false with a nil error. A non-nil error
// means the submission was refused before any request was made, or the
// response could not be applied.
func (c *Coordinator) Submit(ctx context.Context, section sections.ID, values api.SectionValues, opts Options) (bool, error) {
	if _, err := c.store.State().Form.Section(section); err != nil {
		return false, err
	}
	if err := c.enterBusy(session.StatusSaving); err != nil {
		return false, err
	}
	// Build the request from the state the guard admitted.
	state := c.store.State()

	base := api.PollingStationResults{}
	if state.Results != nil {
		base = *state.Results
	}
	merged := api.Merge(base, values)

	form := state.Form.Clone()
	sec := form.Sections[section]
	sec.AcceptWarnings = opts.AcceptWarnings
	form.Sections[section] = sec
	continuing := opts.AdvanceOnSuccess && section == form.Furthest
	clientState, err := formstate.EncodeClientState(form.ClientState(continuing))
	if err != nil {
		if recordErr := c.recordFailure(c.logger, err); recordErr != nil {
			return false, recordErr
		}
		return false, err
	}
	req := api.SaveRequest{
		Progress:    form.Progress(),
		Data:        merged,
		ClientState: clientState,
	}

	ctx, logger := c.requestContext(ctx, state, section)
	requestID, _ := services.RequestIDFromContext(ctx)
	logger.Debug("saving section",
		logging.Int("progress", req.Progress),
		logging.Bool("accept_warnings", opts.AcceptWarnings),
		logging.Bool("aborting", opts.Aborting),
	)

	resp, err := c.transport.Save(ctx, state.PollingStationID, state.EntryNumber, req)
	if err != nil {
		logging.WarnWithContext(logger, "section save failed", "save_failed",
			logging.String(logging.FieldErrorHint, "input is kept; retry the save"),
			logging.Error(err),
		)
		return false, c.recordFailure(logger, err)
	}

	saved := session.FormSaved{
		Section:        section,
		Values:         merged,
		Errors:         api.ToResults(resp.ValidationResults.Errors),
		Warnings:       api.ToResults(resp.ValidationResults.Warnings),
		AcceptWarnings: opts.AcceptWarnings,
		Advance:        opts.AdvanceOnSuccess,
		Generation:     state.Generation,
		RequestID:      requestID,
	}
	if err := c.store.Dispatch(saved); err != nil {
		if errors.Is(err, services.ErrInvariant) {
			err = services.Wrap(services.ErrMalformedResponse, "submit", "save", "apply validation results", err)
		}
		if recordErr := c.recordFailure(logger, err); recordErr != nil {
			return false, recordErr
		}
		return false, err
	}

	final := session.StatusIdle
	if opts.Aborting {
		final = session.StatusAborted
	}
	if err := c.store.Dispatch(session.SetStatus{Status: final}); err != nil {
		return false, err
	}
	logger.Info("section saved",
		logging.Int("errors", len(saved.Errors)),
		logging.Int("warnings", len(saved.Warnings)),
		logging.String(logging.FieldStatus, final.String()),
	)
	return true, nil
}

// recordFailure stores err on the session and returns the session to idle.
// It returns a non-nil error only when the session refused the transition.
func (c *Coordinator) recordFailure(logger *slog.Logger, err error) error {
	if dispatchErr := c.store.Dispatch(session.FormSaveFailed{Err: err}); dispatchErr != nil {
		logging.ErrorWithContext(logger, "failure not recorded", "record_failure",
			logging.String(logging.FieldErrorHint, "reload the entry before retrying"),
			logging.Error(dispatchErr),
		)
		return errors.Join(err, dispatchErr)
	}
	return nil
}

// Delete discards the entry on the server. The session becomes deleted on
// success and returns to idle with the error recorded on failure.
func (c *Coordinator) Delete(ctx context.Context) error {
	return c.terminate(ctx, "delete", session.StatusDeleting, session.StatusDeleted, c.transport.Delete)
}

// Finalise completes the entry. Callers check FormState.CanFinalise first;
// the server remains the authority on whether the entry is complete.
func (c *Coordinator) Finalise(ctx context.Context) error {
	return c.terminate(ctx, "finalise", session.StatusFinalising, session.StatusFinalised, c.transport.Finalise)
}

func (c *Coordinator) terminate(
	ctx context.Context,
	operation string,
	busy, done session.Status,
	call func(context.Context, int64, int) error,
) error {
	if err := c.enterBusy(busy); err != nil {
		return err
	}
	state := c.store.State()
	ctx, logger := c.requestContext(ctx, state, "")
	if err := call(ctx, state.PollingStationID, state.EntryNumber); err != nil {
		logging.WarnWithContext(logger, "data entry "+operation+" failed", operation+"_failed",
			logging.String(logging.FieldErrorHint, "the entry is unchanged; retry"),
			logging.Error(err),
		)
		if recordErr := c.recordFailure(logger, err); recordErr != nil {
			return recordErr
		}
		return err
	}
	if err := c.store.Dispatch(session.SetStatus{Status: done}); err != nil {
		return err
	}
	logger.Info("data entry "+operation+"d", logging.String(logging.FieldStatus, done.String()))
	return nil
}

func (c *Coordinator) enterBusy(status session.Status) error {
	if c.beforeBusy != nil {
		c.beforeBusy()
	}
	return c.store.Dispatch(session.SetStatus{Status: status})
}

func (c *Coordinator) requestContext(ctx context.Context, state session.Session, section sections.ID) (context.Context, *slog.Logger) {
	ctx = services.WithPollingStation(ctx, state.PollingStationID)
	ctx = services.WithEntryNumber(ctx, state.EntryNumber)
	ctx = services.WithSection(ctx, section.String())
	if _, ok := services.RequestIDFromContext(ctx); !ok {
		ctx = services.WithRequestID(ctx, c.newID())
	}
	return ctx, logging.WithContext(ctx, c.logger)
}
