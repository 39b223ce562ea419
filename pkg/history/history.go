// Package history persists an audit log of skill lifecycle events (installs,
// uninstalls, exports) in the shared SQLite database. Recording is best
// effort from the caller's point of view: the primary operation never fails
// because the log could not be written.
package history

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/jingkaihe/skillet/pkg/db"
)

// Event is one recorded lifecycle action
type Event struct {
	ID        string    `db:"id" json:"id"`
	Action    string    `db:"action" json:"action"`
	Skill     string    `db:"skill" json:"skill"`
	Source    string    `db:"source" json:"source,omitempty"`
	Version   string    `db:"version" json:"version,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}

// Migrations returns the schema migrations for the events table
func Migrations() []db.Migration {
	return []db.Migration{
		{
			Version:     20260815120000,
			Description: "create skill_events table",
			Up: func(tx *sql.Tx) error {
				_, err := tx.Exec(`
					CREATE TABLE IF NOT EXISTS skill_events (
						id TEXT PRIMARY KEY,
						action TEXT NOT NULL,
						skill TEXT NOT NULL,
						source TEXT NOT NULL DEFAULT '',
						version TEXT NOT NULL DEFAULT '',
						created_at DATETIME NOT NULL
					)
				`)
				if err != nil {
					return err
				}
				_, err = tx.Exec(`CREATE INDEX IF NOT EXISTS idx_skill_events_skill ON skill_events(skill, created_at)`)
				return err
			},
			Down: func(tx *sql.Tx) error {
				_, err := tx.Exec("DROP TABLE IF EXISTS skill_events")
				return err
			},
		},
	}
}

// Store reads and writes the event log
type Store struct {
	db *sqlx.DB
}

// Open opens the store at dbPath (empty means the default database) and
// applies pending migrations.
func Open(ctx context.Context, dbPath string) (*Store, error) {
	if dbPath == "" {
		defaultPath, err := db.DefaultDBPath()
		if err != nil {
			return nil, err
		}
		dbPath = defaultPath
	}

	database, err := db.Open(ctx, dbPath)
	if err != nil {
		return nil, err
	}

	if err := db.NewMigrationRunner(database).Run(ctx, Migrations()); err != nil {
		database.Close()
		return nil, errors.Wrap(err, "failed to migrate history schema")
	}

	return &Store{db: database}, nil
}

// Close releases the underlying database
func (s *Store) Close() error {
	return s.db.Close()
}

// Record appends one event. Implements marketplace.EventRecorder.
func (s *Store) Record(ctx context.Context, action, skill, source, version string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO skill_events (id, action, skill, source, version, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, uuid.NewString(), action, skill, source, version, time.Now().UTC())
	return errors.Wrap(err, "failed to record event")
}

// ListOptions filters an event listing
type ListOptions struct {
	// Skill restricts results to one skill; empty lists all
	Skill string
	// Limit caps the result count; zero means 50
	Limit int
}

// List returns events newest first
func (s *Store) List(ctx context.Context, opts ListOptions) ([]Event, error) {
	if opts.Limit <= 0 {
		opts.Limit = 50
	}

	var events []Event
	var err error
	if opts.Skill != "" {
		err = s.db.SelectContext(ctx, &events, `
			SELECT id, action, skill, source, version, created_at
			FROM skill_events WHERE skill = ?
			ORDER BY created_at DESC, id LIMIT ?
		`, opts.Skill, opts.Limit)
	} else {
		err = s.db.SelectContext(ctx, &events, `
			SELECT id, action, skill, source, version, created_at
			FROM skill_events
			ORDER BY created_at DESC, id LIMIT ?
		`, opts.Limit)
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to list events")
	}
	return events, nil
}
