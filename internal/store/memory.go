package store

import (
	"context"
	"sync"

	"github.com/eldtechnologies/makeroom/internal/models"
)

// MemoryOwnerStore is an in-process OwnerStore. Bindings are lost on restart.
type MemoryOwnerStore struct {
	mu     sync.RWMutex
	owners map[string]models.RoomOwner
}

// NewMemoryOwnerStore creates an empty MemoryOwnerStore.
func NewMemoryOwnerStore() *MemoryOwnerStore {
	return &MemoryOwnerStore{owners: make(map[string]models.RoomOwner)}
}

func (s *MemoryOwnerStore) Bind(ctx context.Context, owner models.RoomOwner) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.owners[owner.RoomID] = owner
	return nil
}

func (s *MemoryOwnerStore) Owner(ctx context.Context, roomID string) (*models.RoomOwner, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	owner, ok := s.owners[roomID]
	if !ok {
		return nil, nil
	}
	return &owner, nil
}

func (s *MemoryOwnerStore) Unbind(ctx context.Context, roomID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.owners, roomID)
	return nil
}

// KeyedMutex is an in-process Locker with one mutex per key.
// Entries are dropped once nobody holds or waits for them.
type KeyedMutex struct {
	mu   sync.Mutex
	keys map[string]*keyedEntry
}

type keyedEntry struct {
	sem  chan struct{}
	refs int
}

// NewKeyedMutex creates an empty KeyedMutex.
func NewKeyedMutex() *KeyedMutex {
	return &KeyedMutex{keys: make(map[string]*keyedEntry)}
}

func (k *KeyedMutex) Lock(ctx context.Context, key string) (func(), error) {
	k.mu.Lock()
	e, ok := k.keys[key]
	if !ok {
		e = &keyedEntry{sem: make(chan struct{}, 1)}
		k.keys[key] = e
	}
	e.refs++
	k.mu.Unlock()

	select {
	case e.sem <- struct{}{}:
	case <-ctx.Done():
		k.release(key, e)
		return nil, ctx.Err()
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			<-e.sem
			k.release(key, e)
		})
	}, nil
}

func (k *KeyedMutex) release(key string, e *keyedEntry) {
	k.mu.Lock()
	defer k.mu.Unlock()
	e.refs--
	if e.refs == 0 {
		delete(k.keys, key)
	}
}

// held returns the number of live entries. Used by tests.
func (k *KeyedMutex) held() int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return len(k.keys)
}
