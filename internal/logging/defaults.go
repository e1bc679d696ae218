package logging

import (
	"context"
	"log/slog"
)

const (
	// FieldRunID is the standardized structured logging key for one CLI invocation.
	FieldRunID = "run_id"
	// FieldElection is the standardized structured logging key for the configured election.
	FieldElection = "election_id"
)

// defaultsHandler stamps every record with attributes that hold for the
// whole process. They are added at Handle time so they survive WithGroup.
type defaultsHandler struct {
	base     slog.Handler
	defaults []slog.Attr
}

func newDefaultsHandler(base slog.Handler, defaults []slog.Attr) slog.Handler {
	if base == nil {
		return slog.DiscardHandler
	}
	if len(defaults) == 0 {
		return base
	}
	return &defaultsHandler{base: base, defaults: defaults}
}

func (h *defaultsHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.base.Enabled(ctx, level)
}

func (h *defaultsHandler) Handle(ctx context.Context, record slog.Record) error {
	record.AddAttrs(h.defaults...)
	return h.base.Handle(ctx, record)
}

func (h *defaultsHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &defaultsHandler{base: h.base.WithAttrs(attrs), defaults: h.defaults}
}

func (h *defaultsHandler) WithGroup(name string) slog.Handler {
	return &defaultsHandler{base: h.base.WithGroup(name), defaults: h.defaults}
}
