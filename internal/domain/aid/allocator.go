// Package aid allocates stable accessory ids. Controllers key all state on
// the aid, so the same entity must resolve to the same number across
// restarts. Hashes give stability, the allocation table gives uniqueness.
package aid

import (
	"fmt"
	"hash/adler32"
	"hash/fnv"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"homekit-bridge/internal/domain/model"
	"homekit-bridge/internal/domain/schedule"
	"homekit-bridge/internal/ports"
)

const (
	// SaveDelay coalesces bursts of allocations into one store write.
	SaveDelay = 2 * time.Second

	saveKey = "aid/save"
	aidMin  = 2

	randomAttempts = 5
)

// ErrExhausted is returned when every id candidate collides. With a 64-bit
// random space this is effectively impossible, but it is surfaced rather
// than retried forever.
type ErrExhausted struct {
	EntityID string
	UniqueID string
}

func (e *ErrExhausted) Error() string {
	return fmt.Sprintf("unable to generate unique aid allocation for %s [%s]", e.EntityID, e.UniqueID)
}

// LegacyHash is the original entity-id checksum. It is tried first for
// every allocation so ids handed out by old versions keep their value.
// It is not stable across entity id renames.
func LegacyHash(entityID string) uint64 {
	return uint64(adler32.Checksum([]byte(entityID)))
}

func strongHash(uniqueID string) uint64 {
	h := fnv.New32a()
	h.Write([]byte(uniqueID))
	return uint64(h.Sum32())
}

// Allocator maps device identities to aids, backed by a persistent store.
// The in-memory table is authoritative; store writes are delayed through
// the shared executor to coalesce bursts.
type Allocator struct {
	mu          sync.Mutex
	store       ports.AidStore
	exec        *schedule.Executor
	saveDelay   time.Duration
	log         zerolog.Logger
	allocations map[string]uint64
	allocated   map[uint64]struct{}

	// randUint64 is swappable in tests.
	randUint64 func() uint64
}

// NewAllocator loads the allocation table from the store.
func NewAllocator(store ports.AidStore, exec *schedule.Executor, log zerolog.Logger) (*Allocator, error) {
	allocations, err := store.Load()
	if err != nil {
		return nil, fmt.Errorf("loading aid allocations: %w", err)
	}
	if allocations == nil {
		allocations = make(map[string]uint64)
	}
	allocated := make(map[uint64]struct{}, len(allocations))
	for _, aid := range allocations {
		allocated[aid] = struct{}{}
	}
	return &Allocator{
		store:       store,
		exec:        exec,
		saveDelay:   SaveDelay,
		log:         log,
		allocations: allocations,
		allocated:   allocated,
		randUint64:  rand.Uint64,
	}, nil
}

// GetOrAllocate resolves the aid for an entity. With a registry entry the
// allocation is keyed on the stable (platform, domain, unique id) identity;
// candidates are the legacy hash of the entity id, then the stronger hash
// of the identity, then a handful of random draws. Without a registry entry
// only the legacy hash is available, which does not survive renames.
func (a *Allocator) GetOrAllocate(entry *model.RegistryEntry, entityID string) (uint64, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if entry == nil {
		a.log.Warn().Str("entity", entityID).
			Msg("entity has no stable unique identifier, aid allocation may not survive a rename")
		return a.allocate(entityID, []uint64{LegacyHash(entityID)}, entityID)
	}

	uniqueID := entry.SystemUniqueID()
	candidates := make([]uint64, 0, 2+randomAttempts)
	// Legacy first: an id already in the wild must keep winning.
	candidates = append(candidates, LegacyHash(entityID), strongHash(uniqueID))
	for i := 0; i < randomAttempts; i++ {
		candidates = append(candidates, a.randomAid())
	}
	return a.allocate(uniqueID, candidates, entityID)
}

func (a *Allocator) allocate(key string, candidates []uint64, entityID string) (uint64, error) {
	if aid, ok := a.allocations[key]; ok {
		return aid, nil
	}
	for _, aid := range candidates {
		if aid < aidMin {
			continue
		}
		if _, taken := a.allocated[aid]; taken {
			continue
		}
		a.allocations[key] = aid
		a.allocated[aid] = struct{}{}
		a.scheduleSave()
		return aid, nil
	}
	return 0, &ErrExhausted{EntityID: entityID, UniqueID: key}
}

func (a *Allocator) randomAid() uint64 {
	for {
		if v := a.randUint64(); v >= aidMin {
			return v
		}
	}
}

// Delete removes an allocation. The aid becomes reusable only once the
// store has acknowledged the removal; on a save failure the entry is
// restored and the error returned.
func (a *Allocator) Delete(key string) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	aid, ok := a.allocations[key]
	if !ok {
		return nil
	}
	delete(a.allocations, key)
	if err := a.store.Save(a.snapshot()); err != nil {
		a.allocations[key] = aid
		return fmt.Errorf("persisting aid removal: %w", err)
	}
	delete(a.allocated, aid)
	return nil
}

func (a *Allocator) scheduleSave() {
	a.exec.Schedule(saveKey, a.saveDelay, func() {
		if err := a.Flush(); err != nil {
			a.log.Error().Err(err).Msg("saving aid allocations")
		}
	})
}

// Flush writes the table out immediately, for shutdown.
func (a *Allocator) Flush() error {
	a.mu.Lock()
	data := a.snapshot()
	a.mu.Unlock()
	return a.store.Save(data)
}

func (a *Allocator) snapshot() map[string]uint64 {
	out := make(map[string]uint64, len(a.allocations))
	for k, v := range a.allocations {
		out[k] = v
	}
	return out
}
