package journal

import (
	"context"
	"log/slog"
	"time"

	"tally/internal/logging"
	"tally/internal/session"
)

const recordTimeout = 5 * time.Second

// Attach records every committed transition of store in j and mirrors the
// store's cache slot into the drafts table. It returns a function that stops
// recording. Journal failures are logged and never fail a dispatch.
func Attach(store *session.Store, j *Store, runID string, logger *slog.Logger) func() {
	logger = logging.NewComponentLogger(logger, "journal")
	return store.Subscribe(func(prev, next session.Session, action session.Action) {
		ctx, cancel := context.WithTimeout(context.Background(), recordTimeout)
		defer cancel()

		ev := Event{
			RunID:            runID,
			PollingStationID: next.PollingStationID,
			EntryNumber:      next.EntryNumber,
			Action:           action.Kind(),
			Status:           next.Status.String(),
			Current:          next.Form.Current.String(),
			Furthest:         next.Form.Furthest.String(),
			Progress:         next.Form.Progress(),
		}
		switch a := action.(type) {
		case session.FormSaved:
			ev.RequestID = a.RequestID
		case session.LoadFailed:
			ev.Error = errorText(a.Err)
		case session.FormSaveFailed:
			ev.Error = errorText(a.Err)
		}
		if _, err := j.Append(ctx, ev); err != nil {
			logger.Warn("journal append failed",
				logging.String(logging.FieldAction, ev.Action),
				logging.Error(err),
			)
		}

		if err := syncDraft(ctx, j, prev, next, action); err != nil {
			logger.Warn("draft sync failed", logging.Error(err))
		}
	})
}

// syncDraft mirrors cache changes made by the user or by a save. A reload
// clears the in-memory cache but keeps the stored draft so it can be offered
// again; a closed entry drops it.
func syncDraft(ctx context.Context, j *Store, prev, next session.Session, action session.Action) error {
	if next.Status != prev.Status && (next.Status == session.StatusDeleted || next.Status == session.StatusFinalised) {
		return j.ClearDraft(ctx, next.PollingStationID, next.EntryNumber)
	}
	switch action.(type) {
	case session.SetCache, session.FormSaved:
	default:
		return nil
	}
	if prev.Cache == nil && next.Cache == nil {
		return nil
	}
	return j.SaveDraft(ctx, next.PollingStationID, next.EntryNumber, next.Cache)
}

func errorText(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
