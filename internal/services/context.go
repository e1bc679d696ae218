package services

import "context"

type contextKey string

const (
	pollingStationKey contextKey = "polling_station_id"
	entryNumberKey    contextKey = "entry_number"
	sectionKey        contextKey = "section"
	requestIDKey      contextKey = "request_id"
)

// WithPollingStation annotates context with the polling station identifier.
func WithPollingStation(ctx context.Context, id int64) context.Context {
	return context.WithValue(ctx, pollingStationKey, id)
}

// PollingStationFromContext extracts the polling station identifier if present.
func PollingStationFromContext(ctx context.Context) (int64, bool) {
	v := ctx.Value(pollingStationKey)
	if v == nil {
		return 0, false
	}
	switch val := v.(type) {
	case int64:
		return val, true
	case int:
		return int64(val), true
	default:
		return 0, false
	}
}

// WithEntryNumber annotates context with the data entry number (1 or 2).
func WithEntryNumber(ctx context.Context, n int) context.Context {
	if n <= 0 {
		return ctx
	}
	return context.WithValue(ctx, entryNumberKey, n)
}

// EntryNumberFromContext returns the entry number if present.
func EntryNumberFromContext(ctx context.Context) (int, bool) {
	if v, ok := ctx.Value(entryNumberKey).(int); ok && v > 0 {
		return v, true
	}
	return 0, false
}

// WithSection annotates context with the form section being worked on.
func WithSection(ctx context.Context, section string) context.Context {
	if section == "" {
		return ctx
	}
	return context.WithValue(ctx, sectionKey, section)
}

// SectionFromContext returns the section identifier if present.
func SectionFromContext(ctx context.Context) (string, bool) {
	v := ctx.Value(sectionKey)
	if str, ok := v.(string); ok && str != "" {
		return str, true
	}
	return "", false
}

// WithRequestID annotates context with a correlation identifier.
func WithRequestID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, requestIDKey, id)
}

// RequestIDFromContext extracts the correlation identifier if present.
func RequestIDFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(requestIDKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}
