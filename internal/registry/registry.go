// Package registry owns the set of chats that receive broadcasts.
package registry

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/MrSnakeDoc/chatrelay/internal/domain"
	"github.com/MrSnakeDoc/chatrelay/internal/logger"
	"github.com/MrSnakeDoc/chatrelay/internal/store/codec"
)

// Store is the persistence backend behind the registry.
type Store interface {
	Name() string
	Load(ctx context.Context) ([]string, error)
	Save(ctx context.Context, ids []string) error
}

// Registry is the in-memory, insertion-ordered destination set.
// Memory is authoritative for the process lifetime: every mutation is
// written through to the store, but a failed write is only logged.
type Registry struct {
	mu         sync.RWMutex
	ids        []string
	members    map[string]domain.Destination
	lastChange time.Time

	store Store
	log   logger.Logger
	now   func() time.Time
}

// New creates an empty registry. Call Load once at startup.
func New(store Store, log logger.Logger) *Registry {
	return &Registry{
		members: make(map[string]domain.Destination),
		store:   store,
		log:     log.With(logger.String("component", "registry"), logger.String("store", store.Name())),
		now:     time.Now,
	}
}

// Load replaces the in-memory set with the persisted one.
// Read or parse failures start from an empty set.
func (r *Registry) Load(ctx context.Context) {
	ids, err := r.store.Load(ctx)
	if err != nil {
		r.log.Warn("failed to load destinations, starting empty", logger.Error(err))
		ids = nil
	}
	ids = codec.Normalize(ids)

	r.mu.Lock()
	r.ids = ids
	r.members = make(map[string]domain.Destination, len(ids))
	for _, id := range ids {
		r.members[id] = domain.Destination{ID: id, Kind: domain.KindUnknown}
	}
	r.lastChange = r.now()
	r.mu.Unlock()

	r.log.Info("destinations loaded", logger.Int("count", len(ids)))
}

// Add registers id when kind is registrable and id is new.
// It reports whether the set changed.
func (r *Registry) Add(ctx context.Context, id, kind string) bool {
	k, ok := domain.ParseKind(kind)
	if !ok {
		r.log.Debug("ignoring registration for unsupported chat kind",
			logger.String("chat_id", id), logger.String("kind", kind))
		return false
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return false
	}

	r.mu.Lock()
	if _, exists := r.members[id]; exists {
		r.mu.Unlock()
		return false
	}
	r.lastChange = r.now()
	r.members[id] = domain.Destination{ID: id, Kind: k, RegisteredAt: r.lastChange}
	r.ids = append(r.ids, id)
	snapshot := r.snapshotLocked()
	r.mu.Unlock()

	r.log.Info("destination registered",
		logger.String("chat_id", id),
		logger.String("kind", string(k)),
		logger.Int("total", len(snapshot)))

	r.persist(ctx, snapshot)
	return true
}

// Remove drops id from the set. It reports whether id was present.
func (r *Registry) Remove(ctx context.Context, id string) bool {
	id = strings.TrimSpace(id)

	r.mu.Lock()
	if _, exists := r.members[id]; !exists {
		r.mu.Unlock()
		return false
	}
	delete(r.members, id)
	for i, v := range r.ids {
		if v == id {
			r.ids = append(r.ids[:i:i], r.ids[i+1:]...)
			break
		}
	}
	r.lastChange = r.now()
	snapshot := r.snapshotLocked()
	r.mu.Unlock()

	r.log.Info("destination removed",
		logger.String("chat_id", id),
		logger.Int("total", len(snapshot)))

	r.persist(ctx, snapshot)
	return true
}

// Replace moves the registration of oldID to newID, keeping its position.
// Used when a group is upgraded to a supergroup and gets a new id.
// It reports whether oldID was registered.
func (r *Registry) Replace(ctx context.Context, oldID, newID string) bool {
	oldID, newID = strings.TrimSpace(oldID), strings.TrimSpace(newID)
	if newID == "" || oldID == newID {
		return false
	}

	r.mu.Lock()
	if _, exists := r.members[oldID]; !exists {
		r.mu.Unlock()
		return false
	}
	delete(r.members, oldID)
	_, newExists := r.members[newID]
	for i, v := range r.ids {
		if v != oldID {
			continue
		}
		if newExists {
			r.ids = append(r.ids[:i:i], r.ids[i+1:]...)
		} else {
			r.ids[i] = newID
		}
		break
	}
	r.lastChange = r.now()
	if !newExists {
		r.members[newID] = domain.Destination{ID: newID, Kind: domain.KindSupergroup, RegisteredAt: r.lastChange}
	}
	snapshot := r.snapshotLocked()
	r.mu.Unlock()

	r.log.Info("destination migrated",
		logger.String("from", oldID),
		logger.String("to", newID),
		logger.Int("total", len(snapshot)))

	r.persist(ctx, snapshot)
	return true
}

// Destinations returns the registered destinations in insertion order.
func (r *Registry) Destinations() []domain.Destination {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.Destination, 0, len(r.ids))
	for _, id := range r.ids {
		out = append(out, r.members[id])
	}
	return out
}

// List returns a copy of the ids in insertion order.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.snapshotLocked()
}

// Contains reports whether id is registered.
func (r *Registry) Contains(id string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.members[id]
	return ok
}

// Count returns the number of registered destinations.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.ids)
}

// LastChange returns the time of the last load or mutation.
func (r *Registry) LastChange() time.Time {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.lastChange
}

// StoreName returns the active backend name.
func (r *Registry) StoreName() string { return r.store.Name() }

func (r *Registry) snapshotLocked() []string {
	out := make([]string, len(r.ids))
	copy(out, r.ids)
	return out
}

// persist writes the snapshot. Writes are detached from the caller's
// cancellation; concurrent writes are last-write-wins.
func (r *Registry) persist(ctx context.Context, ids []string) {
	if err := r.store.Save(context.WithoutCancel(ctx), ids); err != nil {
		r.log.Error("failed to persist destinations, keeping in-memory state",
			logger.Int("count", len(ids)),
			logger.Error(err))
	}
}
