package store

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/eldtechnologies/makeroom/internal/metrics"
	"github.com/eldtechnologies/makeroom/internal/models"
)

// SQLiteStore handles SQLite database operations.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore creates a new SQLite store.
// If dbPath is empty, defaults to "./data/makeroom.db"
func NewSQLiteStore(ctx context.Context, dbPath string) (*SQLiteStore, error) {
	if dbPath == "" {
		dbPath = "./data/makeroom.db"
	}

	// Ensure directory exists
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, err
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, err
	}

	store := &SQLiteStore{db: db}

	if err := store.initSchema(ctx); err != nil {
		db.Close()
		return nil, err
	}

	return store, nil
}

// initSchema creates tables if they don't exist.
func (s *SQLiteStore) initSchema(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS lifecycle_events (
		id TEXT PRIMARY KEY,
		guild_id TEXT NOT NULL,
		channel_id TEXT NOT NULL DEFAULT '',
		member_id TEXT NOT NULL DEFAULT '',
		kind TEXT NOT NULL,
		detail TEXT NOT NULL DEFAULT '',
		ts INTEGER NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_lifecycle_events_ts ON lifecycle_events(ts);
	CREATE INDEX IF NOT EXISTS idx_lifecycle_events_kind ON lifecycle_events(kind);
	`

	_, err := s.db.ExecContext(ctx, schema)
	return err
}

// Close closes the database connection.
func (s *SQLiteStore) Close() {
	s.db.Close()
}

// Ping checks the database connection.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func observeSQLite(start time.Time) {
	metrics.AuditLatency.WithLabelValues("sqlite").Observe(time.Since(start).Seconds())
}

// RecordEvent appends an event to the audit log.
func (s *SQLiteStore) RecordEvent(ctx context.Context, ev *models.LifecycleEvent) error {
	defer observeSQLite(time.Now())
	prepareEvent(ev)

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO lifecycle_events (id, guild_id, channel_id, member_id, kind, detail, ts)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, ev.ID, ev.GuildID, ev.ChannelID, ev.MemberID, string(ev.Kind), ev.Detail, ev.Timestamp)
	return err
}

// CountEventsByKind returns the number of events recorded per kind.
func (s *SQLiteStore) CountEventsByKind(ctx context.Context) (map[models.EventKind]int64, error) {
	defer observeSQLite(time.Now())

	rows, err := s.db.QueryContext(ctx, `SELECT kind, COUNT(*) FROM lifecycle_events GROUP BY kind`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[models.EventKind]int64)
	for rows.Next() {
		var kind string
		var n int64
		if err := rows.Scan(&kind, &n); err != nil {
			return nil, err
		}
		counts[models.EventKind(kind)] = n
	}
	return counts, rows.Err()
}

// RecentEvents returns the newest events first.
func (s *SQLiteStore) RecentEvents(ctx context.Context, limit int) ([]models.LifecycleEvent, error) {
	defer observeSQLite(time.Now())

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, guild_id, channel_id, member_id, kind, detail, ts
		FROM lifecycle_events
		ORDER BY ts DESC, id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	events := make([]models.LifecycleEvent, 0, limit)
	for rows.Next() {
		var ev models.LifecycleEvent
		var kind string
		if err := rows.Scan(&ev.ID, &ev.GuildID, &ev.ChannelID, &ev.MemberID, &kind, &ev.Detail, &ev.Timestamp); err != nil {
			return nil, err
		}
		ev.Kind = models.EventKind(kind)
		events = append(events, ev)
	}
	return events, rows.Err()
}

// LastEventTime returns the time of the newest event, or nil if there are none.
func (s *SQLiteStore) LastEventTime(ctx context.Context) (*time.Time, error) {
	defer observeSQLite(time.Now())

	var ts sql.NullInt64
	if err := s.db.QueryRowContext(ctx, `SELECT MAX(ts) FROM lifecycle_events`).Scan(&ts); err != nil {
		return nil, err
	}
	if !ts.Valid {
		return nil, nil
	}
	t := time.UnixMilli(ts.Int64).UTC()
	return &t, nil
}
