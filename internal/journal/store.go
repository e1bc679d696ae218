package journal

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"tally/internal/config"
	"tally/internal/sections"
	"tally/internal/session"
)

// Event is one recorded session transition.
type Event struct {
	ID               int64     `json:"id"`
	RunID            string    `json:"run_id"`
	PollingStationID int64     `json:"polling_station_id"`
	EntryNumber      int       `json:"entry_number"`
	Action           string    `json:"action"`
	Status           string    `json:"status"`
	Current          string    `json:"current"`
	Furthest         string    `json:"furthest"`
	Progress         int       `json:"progress"`
	RequestID        string    `json:"request_id,omitempty"`
	Error            string    `json:"error,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
}

// Store manages journal persistence backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
	now  func() time.Time
}

// Open initializes or connects to the journal database.
func Open(cfg *config.Config) (*Store, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}
	return OpenPath(cfg.JournalPath())
}

// OpenPath opens the journal at dbPath.
func OpenPath(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: dbPath, now: time.Now}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// Append records ev and returns its identifier. A zero CreatedAt is set to
// the current time.
func (s *Store) Append(ctx context.Context, ev Event) (int64, error) {
	if ev.CreatedAt.IsZero() {
		ev.CreatedAt = s.now()
	}
	res, err := s.db.ExecContext(
		ctx,
		`INSERT INTO events (
            run_id, polling_station_id, entry_number, action, status,
            current_section, furthest_section, progress, request_id, error_message, created_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		ev.RunID,
		ev.PollingStationID,
		ev.EntryNumber,
		ev.Action,
		ev.Status,
		ev.Current,
		ev.Furthest,
		ev.Progress,
		nullableString(ev.RequestID),
		nullableString(ev.Error),
		ev.CreatedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return 0, fmt.Errorf("insert event: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("last insert id: %w", err)
	}
	return id, nil
}

// History returns the most recent events of an entry, oldest first. A
// non-positive limit returns every event.
func (s *Store) History(ctx context.Context, pollingStationID int64, entryNumber int, limit int) ([]Event, error) {
	query := `SELECT id, run_id, polling_station_id, entry_number, action, status,
            current_section, furthest_section, progress, request_id, error_message, created_at
        FROM events WHERE polling_station_id = ? AND entry_number = ? ORDER BY id DESC`
	args := []any{pollingStationID, entryNumber}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		var (
			ev        Event
			requestID sql.NullString
			errMsg    sql.NullString
			created   string
		)
		if err := rows.Scan(&ev.ID, &ev.RunID, &ev.PollingStationID, &ev.EntryNumber, &ev.Action, &ev.Status,
			&ev.Current, &ev.Furthest, &ev.Progress, &requestID, &errMsg, &created); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		ev.RequestID = requestID.String
		ev.Error = errMsg.String
		if ev.CreatedAt, err = time.Parse(time.RFC3339Nano, created); err != nil {
			return nil, fmt.Errorf("parse event time: %w", err)
		}
		events = append(events, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate history: %w", err)
	}
	for i, j := 0, len(events)-1; i < j; i, j = i+1, j-1 {
		events[i], events[j] = events[j], events[i]
	}
	return events, nil
}

// SaveDraft stores the temporary cache of an entry. A nil cache removes it.
func (s *Store) SaveDraft(ctx context.Context, pollingStationID int64, entryNumber int, cache *session.Cache) error {
	if cache == nil {
		return s.ClearDraft(ctx, pollingStationID, entryNumber)
	}
	data, err := json.Marshal(cache.Data)
	if err != nil {
		return fmt.Errorf("marshal draft: %w", err)
	}
	_, err = s.db.ExecContext(
		ctx,
		`INSERT INTO drafts (polling_station_id, entry_number, section, data_json, updated_at)
         VALUES (?, ?, ?, ?, ?)
         ON CONFLICT (polling_station_id, entry_number)
         DO UPDATE SET section = excluded.section, data_json = excluded.data_json, updated_at = excluded.updated_at`,
		pollingStationID,
		entryNumber,
		cache.Key.String(),
		string(data),
		s.now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("upsert draft: %w", err)
	}
	return nil
}

// LoadDraft returns the stored cache of an entry, or nil when there is none.
func (s *Store) LoadDraft(ctx context.Context, pollingStationID int64, entryNumber int) (*session.Cache, error) {
	var section, data string
	err := s.db.QueryRowContext(
		ctx,
		`SELECT section, data_json FROM drafts WHERE polling_station_id = ? AND entry_number = ?`,
		pollingStationID,
		entryNumber,
	).Scan(&section, &data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load draft: %w", err)
	}
	cache := &session.Cache{Key: sections.ID(section)}
	if err := json.Unmarshal([]byte(data), &cache.Data); err != nil {
		return nil, fmt.Errorf("decode draft: %w", err)
	}
	return cache, nil
}

// ClearDraft removes the stored cache of an entry.
func (s *Store) ClearDraft(ctx context.Context, pollingStationID int64, entryNumber int) error {
	if _, err := s.db.ExecContext(ctx,
		`DELETE FROM drafts WHERE polling_station_id = ? AND entry_number = ?`,
		pollingStationID, entryNumber,
	); err != nil {
		return fmt.Errorf("delete draft: %w", err)
	}
	return nil
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}
