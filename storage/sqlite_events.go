package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"workbench/core"

	"go.uber.org/zap"
)

// SQLiteEventStorage handles event persistence in SQLite.
type SQLiteEventStorage struct {
	sqlite *SQLite
	logger *zap.SugaredLogger
}

// NewSQLiteEventStorage creates a new event storage handler.
func NewSQLiteEventStorage(sqlite *SQLite, logger *zap.SugaredLogger) *SQLiteEventStorage {
	return &SQLiteEventStorage{sqlite: sqlite, logger: logger}
}

// InsertEvent stores one event. The raw payload is persisted as the JSON
// text it decoded from; nothing rewrites it afterwards.
func (s *SQLiteEventStorage) InsertEvent(ctx context.Context, event *core.Event) error {
	rawJSON, err := json.Marshal(event.Raw)
	if err != nil {
		return fmt.Errorf("failed to serialize event payload: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	_, err = s.sqlite.WriteDB.ExecContext(ctx, `
		INSERT INTO events (id, received_at, source, host, user, raw)
		VALUES (?, ?, ?, ?, ?, ?)`,
		event.ID, formatTime(event.ReceivedAt), event.Source, event.Host, event.User, string(rawJSON))
	if err != nil {
		return fmt.Errorf("failed to insert event: %w", err)
	}
	return nil
}

// InsertEvents stores a batch of events in one transaction.
func (s *SQLiteEventStorage) InsertEvents(ctx context.Context, events []*core.Event) error {
	if len(events) == 0 {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	tx, err := s.sqlite.WriteDB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO events (id, received_at, source, host, user, raw)
		VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare event insert: %w", err)
	}
	defer stmt.Close()

	for _, event := range events {
		rawJSON, err := json.Marshal(event.Raw)
		if err != nil {
			return fmt.Errorf("failed to serialize event payload: %w", err)
		}
		if _, err := stmt.ExecContext(ctx,
			event.ID, formatTime(event.ReceivedAt), event.Source, event.Host, event.User, string(rawJSON)); err != nil {
			return fmt.Errorf("failed to insert event %s: %w", event.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit event batch: %w", err)
	}
	return nil
}

// GetEvents retrieves the newest events up to limit, returned in ingestion
// order (oldest first). Windowing from the newest side keeps freshly
// ingested events inside the detection window once the table outgrows the
// limit; the ascending return order keeps runs deterministic.
func (s *SQLiteEventStorage) GetEvents(ctx context.Context, limit int) ([]core.Event, error) {
	rows, err := s.sqlite.ReadDB.QueryContext(ctx, `
		SELECT id, received_at, source, host, user, raw
		FROM (
			SELECT id, received_at, source, host, user, raw
			FROM events
			ORDER BY received_at DESC, id DESC
			LIMIT ?
		)
		ORDER BY received_at ASC, id ASC`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query events: %w", err)
	}
	defer rows.Close()

	return s.scanEvents(rows)
}

// GetRecentEvents retrieves the newest events for listing.
func (s *SQLiteEventStorage) GetRecentEvents(ctx context.Context, limit int) ([]core.Event, error) {
	rows, err := s.sqlite.ReadDB.QueryContext(ctx, `
		SELECT id, received_at, source, host, user, raw
		FROM events
		ORDER BY received_at DESC, id DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query recent events: %w", err)
	}
	defer rows.Close()

	return s.scanEvents(rows)
}

// GetEvent retrieves a single event by ID.
func (s *SQLiteEventStorage) GetEvent(ctx context.Context, id string) (*core.Event, error) {
	row := s.sqlite.ReadDB.QueryRowContext(ctx, `
		SELECT id, received_at, source, host, user, raw
		FROM events WHERE id = ?`, id)

	event, err := s.scanEvent(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrEventNotFound
	}
	if err != nil {
		return nil, err
	}
	return event, nil
}

// GetEventsByIDs retrieves events for the given IDs, keyed by ID. Missing
// IDs are simply absent from the result.
func (s *SQLiteEventStorage) GetEventsByIDs(ctx context.Context, ids []string) (map[string]core.Event, error) {
	out := make(map[string]core.Event, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	// Fetch one by one; the ID sets here are small (an incident's alerts).
	for _, id := range ids {
		event, err := s.GetEvent(ctx, id)
		if errors.Is(err, ErrEventNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		out[event.ID] = *event
	}
	return out, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func (s *SQLiteEventStorage) scanEvent(row rowScanner) (*core.Event, error) {
	var event core.Event
	var receivedAt, rawJSON string

	if err := row.Scan(&event.ID, &receivedAt, &event.Source, &event.Host, &event.User, &rawJSON); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan event: %w", err)
	}

	var err error
	event.ReceivedAt, err = parseTime(receivedAt)
	if err != nil {
		return nil, fmt.Errorf("event %s: %w", event.ID, err)
	}

	// An undecodable payload leaves Raw nil; the detection runner treats
	// such events as non-matching instead of failing the whole run.
	if err := json.Unmarshal([]byte(rawJSON), &event.Raw); err != nil {
		s.logger.Warnw("Event payload is not valid JSON", "event_id", event.ID, "error", err)
		event.Raw = nil
	}

	return &event, nil
}

func (s *SQLiteEventStorage) scanEvents(rows *sql.Rows) ([]core.Event, error) {
	var events []core.Event
	for rows.Next() {
		event, err := s.scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, *event)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate events: %w", err)
	}
	return events, nil
}

// GetEventCount returns the total event count.
func (s *SQLiteEventStorage) GetEventCount(ctx context.Context) (int64, error) {
	var count int64
	if err := s.sqlite.ReadDB.QueryRowContext(ctx, "SELECT COUNT(*) FROM events").Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count events: %w", err)
	}
	return count, nil
}
