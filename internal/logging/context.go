package logging

import (
	"context"
	"log/slog"

	"tally/internal/services"
)

const (
	// FieldComponent is the standardized structured logging key for component names.
	FieldComponent = "component"
	// FieldPollingStation is the standardized structured logging key for polling station identifiers.
	FieldPollingStation = "polling_station_id"
	// FieldEntryNumber is the standardized structured logging key for the data entry number.
	FieldEntryNumber = "entry_number"
	// FieldSection is the standardized structured logging key for wizard sections.
	FieldSection = "section"
	// FieldStatus is the standardized structured logging key for session status values.
	FieldStatus = "status"
	// FieldAction is the standardized structured logging key for reducer action kinds.
	FieldAction = "action"
	// FieldCorrelationID is the standardized structured logging key for request correlation identifiers.
	FieldCorrelationID = "correlation_id"
	// FieldEventType classifies warnings and errors for filtering.
	FieldEventType = "event_type"
	// FieldErrorHint tells the operator what to try next.
	FieldErrorHint = "error_hint"
)

// ContextFields extracts standardized slog attributes from the provided context.
func ContextFields(ctx context.Context) []slog.Attr {
	if ctx == nil {
		return nil
	}
	fields := make([]slog.Attr, 0, 4)
	if id, ok := services.PollingStationFromContext(ctx); ok {
		fields = append(fields, slog.Int64(FieldPollingStation, id))
	}
	if n, ok := services.EntryNumberFromContext(ctx); ok {
		fields = append(fields, slog.Int(FieldEntryNumber, n))
	}
	if section, ok := services.SectionFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldSection, section))
	}
	if rid, ok := services.RequestIDFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldCorrelationID, rid))
	}
	return fields
}

// WithContext returns a logger augmented with structured fields derived from the supplied context.
func WithContext(ctx context.Context, logger *slog.Logger) *slog.Logger {
	if logger == nil {
		logger = NewNop()
	}
	fields := ContextFields(ctx)
	if len(fields) == 0 {
		return logger
	}
	return logger.With(Args(fields...)...)
}
