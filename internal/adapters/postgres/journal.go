package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/samirrijal/mapcat/internal/core/domain"
)

// JournalEntry is one recorded outward event.
type JournalEntry struct {
	ID         int64           `json:"id"`
	Time       time.Time       `json:"time"`
	Action     string          `json:"action"`
	FeatureIDs []string        `json:"feature_ids"`
	Payload    json.RawMessage `json:"payload"`
}

// Journal implements ports.EventPublisher by appending every event to
// the map_events table.
type Journal struct {
	db *DB
}

func NewJournal(db *DB) *Journal {
	return &Journal{db: db}
}

func (j *Journal) Name() string { return "postgres" }

func (j *Journal) Publish(ctx context.Context, event domain.Event) error {
	action, ids, payload, err := journalRow(event)
	if err != nil {
		return err
	}
	_, err = j.db.Pool.Exec(ctx, `
		INSERT INTO map_events (action, feature_ids, payload)
		VALUES ($1, $2, $3)
	`, action, ids, payload)
	if err != nil {
		return fmt.Errorf("journal %s: %w", action, err)
	}
	return nil
}

// Recent returns the newest entries first, optionally only those touching featureID.
func (j *Journal) Recent(ctx context.Context, featureID string, limit int) ([]JournalEntry, error) {
	rows, err := j.db.Pool.Query(ctx, `
		SELECT id, time, action, feature_ids, payload
		FROM map_events
		WHERE $1 = '' OR $1 = ANY(feature_ids)
		ORDER BY id DESC
		LIMIT $2
	`, featureID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := []JournalEntry{}
	for rows.Next() {
		var e JournalEntry
		var payload []byte
		if err := rows.Scan(&e.ID, &e.Time, &e.Action, &e.FeatureIDs, &payload); err != nil {
			return nil, err
		}
		e.Payload = payload
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// journalRow maps an event onto the table's columns.
func journalRow(event domain.Event) (string, []string, []byte, error) {
	payload, err := json.Marshal(event)
	if err != nil {
		return "", nil, nil, fmt.Errorf("encode %s event: %w", event.Action(), err)
	}
	ids := event.FeatureIDs()
	if ids == nil {
		ids = []string{}
	}
	return string(event.Action()), ids, payload, nil
}
