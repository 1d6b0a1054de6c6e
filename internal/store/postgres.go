package store

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/eldtechnologies/makeroom/internal/metrics"
	"github.com/eldtechnologies/makeroom/internal/models"
)

// PostgresStore handles PostgreSQL database operations.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a new PostgreSQL store with a connection pool.
// The schema is managed by RunMigrations.
func NewPostgresStore(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, err
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	return &PostgresStore{pool: pool}, nil
}

// Close closes the database connection pool.
func (s *PostgresStore) Close() {
	s.pool.Close()
}

// Ping checks the database connection.
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

func observePostgres(start time.Time) {
	metrics.AuditLatency.WithLabelValues("postgres").Observe(time.Since(start).Seconds())
}

// RecordEvent appends an event to the audit log.
func (s *PostgresStore) RecordEvent(ctx context.Context, ev *models.LifecycleEvent) error {
	defer observePostgres(time.Now())
	prepareEvent(ev)

	_, err := s.pool.Exec(ctx, `
		INSERT INTO lifecycle_events (id, guild_id, channel_id, member_id, kind, detail, ts)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, ev.ID, ev.GuildID, ev.ChannelID, ev.MemberID, string(ev.Kind), ev.Detail, ev.Timestamp)
	return err
}

// CountEventsByKind returns the number of events recorded per kind.
func (s *PostgresStore) CountEventsByKind(ctx context.Context) (map[models.EventKind]int64, error) {
	defer observePostgres(time.Now())

	rows, err := s.pool.Query(ctx, `SELECT kind, COUNT(*) FROM lifecycle_events GROUP BY kind`)
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
func (s *PostgresStore) RecentEvents(ctx context.Context, limit int) ([]models.LifecycleEvent, error) {
	defer observePostgres(time.Now())

	rows, err := s.pool.Query(ctx, `
		SELECT id, guild_id, channel_id, member_id, kind, detail, ts
		FROM lifecycle_events
		ORDER BY ts DESC, id DESC
		LIMIT $1
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
func (s *PostgresStore) LastEventTime(ctx context.Context) (*time.Time, error) {
	defer observePostgres(time.Now())

	var ts *int64
	if err := s.pool.QueryRow(ctx, `SELECT MAX(ts) FROM lifecycle_events`).Scan(&ts); err != nil {
		return nil, err
	}
	if ts == nil {
		return nil, nil
	}
	t := time.UnixMilli(*ts).UTC()
	return &t, nil
}
