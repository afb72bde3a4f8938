package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/couchcryptid/emdat-etl/internal/domain"

	_ "modernc.org/sqlite"
)

// SQLite persists the current batch so it survives restarts. It only ever
// holds one batch.
type SQLite struct {
	db *sql.DB
}

// OpenSQLite opens (or creates) the database at path and applies the schema.
// ":memory:" gives a private in-memory database.
func OpenSQLite(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// An in-memory database lives per connection.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	s := &SQLite{db: db}
	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate database: %w", err)
	}
	return s, nil
}

func (s *SQLite) migrate() error {
	schema := `
		CREATE TABLE IF NOT EXISTS batches (
			id TEXT PRIMARY KEY,
			source TEXT NOT NULL,
			format TEXT NOT NULL,
			ingested_at TEXT NOT NULL,
			rejected INTEGER NOT NULL,
			rejections TEXT NOT NULL
		);

		CREATE TABLE IF NOT EXISTS events (
			batch_id TEXT NOT NULL,
			position INTEGER NOT NULL,
			id TEXT NOT NULL,
			type TEXT NOT NULL,
			start_date TEXT NOT NULL,
			payload BLOB NOT NULL,
			PRIMARY KEY (batch_id, position),
			FOREIGN KEY (batch_id) REFERENCES batches(id)
		);

		CREATE INDEX IF NOT EXISTS idx_events_type ON events(type);
		CREATE INDEX IF NOT EXISTS idx_events_start_date ON events(start_date);
	`
	_, err := s.db.Exec(schema)
	return err
}

// ReplaceBatch swaps the stored batch for batch in a single transaction.
func (s *SQLite) ReplaceBatch(ctx context.Context, batch domain.Batch) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, `DELETE FROM events`); err != nil {
		return fmt.Errorf("clear events: %w", err)
	}
	if _, err = tx.ExecContext(ctx, `DELETE FROM batches`); err != nil {
		return fmt.Errorf("clear batches: %w", err)
	}

	rejections, err := json.Marshal(batch.Rejections)
	if err != nil {
		return fmt.Errorf("marshal rejections: %w", err)
	}
	_, err = tx.ExecContext(ctx,
		`INSERT INTO batches (id, source, format, ingested_at, rejected, rejections) VALUES (?, ?, ?, ?, ?, ?)`,
		batch.ID, batch.Source, string(batch.Format), batch.IngestedAt.UTC().Format(time.RFC3339Nano),
		batch.Rejected, string(rejections))
	if err != nil {
		return fmt.Errorf("insert batch: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO events (batch_id, position, id, type, start_date, payload) VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for i := range batch.Events {
		e := &batch.Events[i]
		payload, mErr := json.Marshal(e)
		if mErr != nil {
			err = fmt.Errorf("marshal event %s: %w", e.ID, mErr)
			return err
		}
		if _, err = stmt.ExecContext(ctx, batch.ID, i, e.ID, string(e.Type),
			e.StartDate.UTC().Format(time.RFC3339), payload); err != nil {
			return fmt.Errorf("insert event %s: %w", e.ID, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// LoadCurrent returns the stored batch. It reports false when none is stored.
func (s *SQLite) LoadCurrent(ctx context.Context) (domain.Batch, bool, error) {
	var (
		batch      domain.Batch
		format     string
		ingestedAt string
		rejections string
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT id, source, format, ingested_at, rejected, rejections FROM batches LIMIT 1`).
		Scan(&batch.ID, &batch.Source, &format, &ingestedAt, &batch.Rejected, &rejections)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Batch{}, false, nil
	}
	if err != nil {
		return domain.Batch{}, false, fmt.Errorf("query batch: %w", err)
	}

	batch.Format = domain.Format(format)
	if batch.IngestedAt, err = time.Parse(time.RFC3339Nano, ingestedAt); err != nil {
		return domain.Batch{}, false, fmt.Errorf("parse ingested_at: %w", err)
	}
	if err := json.Unmarshal([]byte(rejections), &batch.Rejections); err != nil {
		return domain.Batch{}, false, fmt.Errorf("unmarshal rejections: %w", err)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT payload FROM events WHERE batch_id = ? ORDER BY position`, batch.ID)
	if err != nil {
		return domain.Batch{}, false, fmt.Errorf("query events: %w", err)
	}
	defer rows.Close()

	batch.Events = []domain.DisasterEvent{}
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return domain.Batch{}, false, fmt.Errorf("scan event: %w", err)
		}
		var e domain.DisasterEvent
		if err := json.Unmarshal(payload, &e); err != nil {
			return domain.Batch{}, false, fmt.Errorf("unmarshal event: %w", err)
		}
		batch.Events = append(batch.Events, e)
	}
	if err := rows.Err(); err != nil {
		return domain.Batch{}, false, fmt.Errorf("iterate events: %w", err)
	}
	return batch, true, nil
}

func (s *SQLite) Close() error {
	return s.db.Close()
}
