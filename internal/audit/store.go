package audit

import (
	"context"
	"fmt"
	"time"

	"admin-store/internal/models"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

const schema = `
CREATE TABLE IF NOT EXISTS activity_logs (
	id          TEXT PRIMARY KEY,
	user_id     TEXT NOT NULL DEFAULT '',
	action      TEXT NOT NULL,
	entity      TEXT NOT NULL,
	entity_id   TEXT NOT NULL DEFAULT '',
	description TEXT NOT NULL DEFAULT '',
	created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_activity_logs_entity ON activity_logs (entity, entity_id);
CREATE TABLE IF NOT EXISTS processed_events (
	event_id     TEXT PRIMARY KEY,
	event_type   TEXT NOT NULL,
	processed_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);`

// Store is a Postgres sink for activity log entries
type Store struct {
	db *sqlx.DB
}

type activityRow struct {
	ID          string    `db:"id"`
	UserID      string    `db:"user_id"`
	Action      string    `db:"action"`
	Entity      string    `db:"entity"`
	EntityID    string    `db:"entity_id"`
	Description string    `db:"description"`
	CreatedAt   time.Time `db:"created_at"`
}

// NewStore connects to Postgres and creates the audit tables if needed
func NewStore(databaseURL string) (*Store, error) {
	db, err := sqlx.Connect("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(5 * time.Minute)

	s := &Store{db: db}
	if err := s.EnsureSchema(context.Background()); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// NewFromDB wraps an existing connection
func NewFromDB(db *sqlx.DB) *Store {
	return &Store{db: db}
}

// Close closes the database connection
func (s *Store) Close() error {
	return s.db.Close()
}

// EnsureSchema creates the audit tables
func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to create audit schema: %w", err)
	}
	return nil
}

// Record stores an activity entry once per event id. It reports false when
// the event had already been recorded.
func (s *Store) Record(ctx context.Context, eventID string, entry models.ActivityLog) (bool, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return false, err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		"INSERT INTO processed_events (event_id, event_type) VALUES ($1, $2) ON CONFLICT (event_id) DO NOTHING",
		eventID, entry.Action)
	if err != nil {
		return false, fmt.Errorf("failed to mark event processed: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return false, nil
	}

	createdAt := entry.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	_, err = tx.ExecContext(ctx,
		`INSERT INTO activity_logs (id, user_id, action, entity, entity_id, description, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		entry.ID, entry.UserID, entry.Action, entry.Entity, entry.EntityID, entry.Description, createdAt)
	if err != nil {
		return false, fmt.Errorf("failed to insert activity log: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return false, err
	}
	return true, nil
}

// Recent returns the newest entries, optionally limited to one entity kind
func (s *Store) Recent(ctx context.Context, entity string, limit int) ([]models.ActivityLog, error) {
	if limit <= 0 {
		limit = 50
	}

	var rows []activityRow
	var err error
	if entity == "" {
		err = s.db.SelectContext(ctx, &rows,
			"SELECT * FROM activity_logs ORDER BY created_at DESC LIMIT $1", limit)
	} else {
		err = s.db.SelectContext(ctx, &rows,
			"SELECT * FROM activity_logs WHERE entity = $1 ORDER BY created_at DESC LIMIT $2", entity, limit)
	}
	if err != nil {
		return nil, err
	}

	out := make([]models.ActivityLog, 0, len(rows))
	for _, r := range rows {
		out = append(out, models.ActivityLog{
			Base:        models.Base{ID: r.ID, CreatedAt: r.CreatedAt, UpdatedAt: r.CreatedAt},
			UserID:      r.UserID,
			Action:      r.Action,
			Entity:      r.Entity,
			EntityID:    r.EntityID,
			Description: r.Description,
		})
	}
	return out, nil
}
