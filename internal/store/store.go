package store

import (
	"context"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/eldtechnologies/makeroom/internal/models"
)

// OwnerStore keeps the association between a personal room and its creator.
// RedisStore and MemoryOwnerStore implement this interface.
type OwnerStore interface {
	Bind(ctx context.Context, owner models.RoomOwner) error
	// Owner returns the binding for a room, or nil when the room has none.
	Owner(ctx context.Context, roomID string) (*models.RoomOwner, error)
	Unbind(ctx context.Context, roomID string) error
}

// Locker serializes work on a key across concurrent handlers.
// KeyedMutex and RedisStore implement this interface.
type Locker interface {
	// Lock blocks until the key is held or ctx is done. The returned
	// function releases the key and is safe to call more than once.
	Lock(ctx context.Context, key string) (unlock func(), err error)
}

// DataStore defines the interface for the lifecycle audit log.
// Both PostgresStore and SQLiteStore implement this interface.
type DataStore interface {
	// Connection management
	Close()
	Ping(ctx context.Context) error

	RecordEvent(ctx context.Context, ev *models.LifecycleEvent) error
	CountEventsByKind(ctx context.Context) (map[models.EventKind]int64, error)
	RecentEvents(ctx context.Context, limit int) ([]models.LifecycleEvent, error)
	// LastEventTime returns nil when the log is empty.
	LastEventTime(ctx context.Context) (*time.Time, error)
}

// prepareEvent assigns an ID and timestamp to events that lack them.
func prepareEvent(ev *models.LifecycleEvent) {
	if ev.ID == "" {
		ev.ID = ulid.Make().String()
	}
	if ev.Timestamp == 0 {
		ev.Timestamp = time.Now().UnixMilli()
	}
}
