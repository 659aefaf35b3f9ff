package service

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/brutella/hap/accessory"
	"github.com/rs/zerolog"

	"homekit-bridge/internal/domain/accessories"
	"homekit-bridge/internal/domain/aid"
	"homekit-bridge/internal/domain/model"
	"homekit-bridge/internal/ports"
)

// Status of the publishing lifecycle.
type Status int

const (
	StatusReady Status = iota
	StatusRunning
	StatusStopped
)

// maxAccessories is the point past which controllers get flaky; the
// bridge still works, the operator just gets warned.
const maxAccessories = 100

// Bridge owns the set of exposed accessories: it decides which entities
// become accessories, allocates their ids, routes hub state changes to
// adapters and drives the publishing service.
type Bridge struct {
	hub   ports.HubPort
	alloc *aid.Allocator
	pub   ports.Publisher
	cfg   *model.Config
	deps  accessories.Deps
	log   zerolog.Logger

	mu         sync.RWMutex
	accessory  map[uint64]accessories.Adapter
	byEntity   map[string]uint64
	identities map[string]string // entity id -> allocation key
	status     Status
}

func NewBridge(hub ports.HubPort, alloc *aid.Allocator, pub ports.Publisher, cfg *model.Config, deps accessories.Deps, log zerolog.Logger) *Bridge {
	return &Bridge{
		hub:        hub,
		alloc:      alloc,
		pub:        pub,
		cfg:        cfg,
		deps:       deps,
		log:        log,
		accessory:  make(map[uint64]accessories.Adapter),
		byEntity:   make(map[string]uint64),
		identities: make(map[string]string),
		status:     StatusReady,
	}
}

// Setup builds adapters for every bridgeable entity and subscribes to
// their state changes. It must run before Start.
func (b *Bridge) Setup(ctx context.Context) error {
	states, err := b.hub.GetStates(ctx)
	if err != nil {
		return fmt.Errorf("fetching hub states: %w", err)
	}
	for _, state := range states {
		b.addAccessory(state)
	}
	if n := b.Count(); n > maxAccessories {
		b.log.Warn().Int("count", n).
			Msg("accessory count exceeds the controller device limit, consider a narrower filter")
	}
	return nil
}

// addAccessory exposes one entity if the filter, the allocator and the
// mapper all agree. Unresolvable entities are skipped with a log line,
// never fatally.
func (b *Bridge) addAccessory(state model.EntityState) {
	entityID := state.EntityID
	if !b.cfg.Filter.Allows(entityID) {
		return
	}

	entry := b.hub.RegistryEntry(entityID)
	aidValue, err := b.alloc.GetOrAllocate(entry, entityID)
	if err != nil {
		// Fatal for this device only.
		b.log.Error().Err(err).Str("entity", entityID).Msg("aid allocation failed")
		return
	}
	if aidValue == 0 {
		b.log.Warn().Str("entity", entityID).Msg("entity generates an invalid aid, not bridged")
		return
	}

	cfg := b.cfg.EntityOptions(entityID)
	kind := accessories.Classify(state, cfg)
	if kind == accessories.KindNone {
		b.log.Debug().Str("entity", entityID).Msg("no accessory type, not bridged")
		return
	}

	adapter, err := accessories.New(kind, state, aidValue, cfg, b.deps)
	if err != nil {
		b.log.Error().Err(err).Str("entity", entityID).Msg("building accessory")
		return
	}

	key := entityID
	if entry != nil {
		key = entry.SystemUniqueID()
	}

	b.mu.Lock()
	b.accessory[aidValue] = adapter
	b.byEntity[entityID] = aidValue
	b.identities[entityID] = key
	b.mu.Unlock()

	b.hub.SubscribeStateChanges(entityID, b.handleStateChange(entityID))
	b.log.Info().Str("entity", entityID).Str("type", kind.String()).Uint64("aid", aidValue).Msg("bridged")
}

// handleStateChange routes hub echoes and external changes to the
// adapter. The adapter handles echo suppression itself.
func (b *Bridge) handleStateChange(entityID string) ports.StateChangeFunc {
	return func(state model.EntityState) {
		b.mu.RLock()
		adapter, ok := b.accessory[b.byEntity[entityID]]
		b.mu.RUnlock()
		if !ok {
			return
		}
		adapter.UpdateState(state)
	}
}

// Start publishes the accessory set. Idempotent: a second Start while
// running is a no-op.
func (b *Bridge) Start(ctx context.Context) error {
	b.mu.Lock()
	if b.status == StatusRunning {
		b.mu.Unlock()
		return nil
	}
	bridgeA, accs := b.publishSetLocked()
	b.status = StatusRunning
	b.mu.Unlock()

	if err := b.pub.Publish(ctx, bridgeA, accs); err != nil {
		b.mu.Lock()
		b.status = StatusReady
		b.mu.Unlock()
		return fmt.Errorf("publishing accessories: %w", err)
	}
	b.log.Info().Int("accessories", len(accs)).Msg("bridge started")
	return nil
}

// Stop halts publishing. Idempotent.
func (b *Bridge) Stop() {
	b.mu.Lock()
	if b.status != StatusRunning {
		b.mu.Unlock()
		return
	}
	b.status = StatusStopped
	b.mu.Unlock()

	b.pub.Stop()
	b.log.Info().Msg("bridge stopped")
}

// ResetAccessory tears an accessory down and rebuilds it under the same
// aid with fresh state and configuration, then republishes.
func (b *Bridge) ResetAccessory(ctx context.Context, entityID string) error {
	b.mu.Lock()
	aidValue, ok := b.byEntity[entityID]
	if !ok {
		b.mu.Unlock()
		return fmt.Errorf("no accessory for %s", entityID)
	}
	old := b.accessory[aidValue]
	b.mu.Unlock()

	state, err := b.hub.GetState(ctx, entityID)
	if err != nil {
		return fmt.Errorf("fetching state for %s: %w", entityID, err)
	}

	cfg := b.cfg.EntityOptions(entityID)
	kind := accessories.Classify(state, cfg)
	if kind == accessories.KindNone {
		return fmt.Errorf("%s no longer maps to an accessory type", entityID)
	}
	adapter, err := accessories.New(kind, state, aidValue, cfg, b.deps)
	if err != nil {
		return err
	}

	old.Stop()
	b.mu.Lock()
	b.accessory[aidValue] = adapter
	running := b.status == StatusRunning
	bridgeA, accs := b.publishSetLocked()
	b.mu.Unlock()

	b.log.Info().Str("entity", entityID).Uint64("aid", aidValue).Msg("accessory reset")
	if running {
		b.pub.Stop()
		return b.pub.Publish(ctx, bridgeA, accs)
	}
	return nil
}

// RemoveAccessory unpublishes an entity and frees its aid. The aid is
// reusable only once the allocator has persisted the removal.
func (b *Bridge) RemoveAccessory(entityID string) error {
	b.mu.Lock()
	aidValue, ok := b.byEntity[entityID]
	if !ok {
		b.mu.Unlock()
		return nil
	}
	adapter := b.accessory[aidValue]
	key := b.identities[entityID]
	delete(b.accessory, aidValue)
	delete(b.byEntity, entityID)
	delete(b.identities, entityID)
	b.mu.Unlock()

	adapter.Stop()
	return b.alloc.Delete(key)
}

// Accessory returns the adapter for an entity, nil when not bridged.
func (b *Bridge) Accessory(entityID string) accessories.Adapter {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.accessory[b.byEntity[entityID]]
}

func (b *Bridge) Count() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.accessory)
}

func (b *Bridge) Status() Status {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.status
}

// publishSetLocked assembles the hap bridge accessory plus the adapters'
// accessories in stable aid order. Callers hold b.mu.
func (b *Bridge) publishSetLocked() (*accessory.A, []*accessory.A) {
	bridgeA := accessory.NewBridge(accessory.Info{
		Name:         b.cfg.Name,
		SerialNumber: b.cfg.SerialNumber,
		Manufacturer: "Home Assistant",
		Model:        "Bridge",
		Firmware:     model.Version,
	}).A
	bridgeA.Id = 1

	aids := make([]uint64, 0, len(b.accessory))
	for id := range b.accessory {
		aids = append(aids, id)
	}
	sort.Slice(aids, func(i, j int) bool { return aids[i] < aids[j] })

	accs := make([]*accessory.A, 0, len(aids))
	for _, id := range aids {
		accs = append(accs, b.accessory[id].Accessory())
	}
	return bridgeA, accs
}
