package service

import (
	"context"
	"sync"
	"testing"

	"github.com/brutella/hap/accessory"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"

	"homekit-bridge/internal/domain/accessories"
	"homekit-bridge/internal/domain/aid"
	"homekit-bridge/internal/domain/model"
	"homekit-bridge/internal/domain/schedule"
	"homekit-bridge/internal/ports"
)

type fakeHub struct {
	mu          sync.Mutex
	states      []model.EntityState
	registry    map[string]*model.RegistryEntry
	subscribers map[string][]ports.StateChangeFunc
}

var _ ports.HubPort = (*fakeHub)(nil)

func newHub(states ...model.EntityState) *fakeHub {
	return &fakeHub{
		states:      states,
		registry:    map[string]*model.RegistryEntry{},
		subscribers: map[string][]ports.StateChangeFunc{},
	}
}

func (h *fakeHub) GetStates(context.Context) ([]model.EntityState, error) {
	return h.states, nil
}

func (h *fakeHub) GetState(_ context.Context, entityID string) (model.EntityState, error) {
	for _, s := range h.states {
		if s.EntityID == entityID {
			return s, nil
		}
	}
	return model.EntityState{EntityID: entityID, State: "unknown", Attributes: map[string]any{}}, nil
}

func (h *fakeHub) RegistryEntry(entityID string) *model.RegistryEntry {
	return h.registry[entityID]
}

func (h *fakeHub) CallService(context.Context, string, string, map[string]any) error { return nil }

func (h *fakeHub) FireEvent(context.Context, string, map[string]any) error { return nil }

func (h *fakeHub) SubscribeStateChanges(entityID string, fn ports.StateChangeFunc) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.subscribers[entityID] = append(h.subscribers[entityID], fn)
}

func (h *fakeHub) emit(state model.EntityState) {
	h.mu.Lock()
	fns := h.subscribers[state.EntityID]
	h.mu.Unlock()
	for _, fn := range fns {
		fn(state)
	}
}

type fakePublisher struct {
	mu        sync.Mutex
	published int
	stops     int
	lastAccs  int
}

var _ ports.Publisher = (*fakePublisher)(nil)

func (p *fakePublisher) Publish(_ context.Context, bridge *accessory.A, accs []*accessory.A) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.published++
	p.lastAccs = len(accs)
	return nil
}

func (p *fakePublisher) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stops++
}

type memStore struct {
	data map[string]uint64
}

func (s *memStore) Load() (map[string]uint64, error) { return s.data, nil }
func (s *memStore) Save(d map[string]uint64) error   { s.data = d; return nil }

func entity(entityID, state string, attrs map[string]any) model.EntityState {
	if attrs == nil {
		attrs = map[string]any{}
	}
	return model.EntityState{EntityID: entityID, State: state, Attributes: attrs}
}

func newTestBridge(t *testing.T, hub *fakeHub, cfg *model.Config) (*Bridge, *fakePublisher) {
	t.Helper()
	exec := schedule.NewExecutor()
	alloc, err := aid.NewAllocator(&memStore{data: map[string]uint64{}}, exec, zerolog.Nop())
	assert.NoError(t, err)

	pub := &fakePublisher{}
	deps := accessories.Deps{Hub: hub, Exec: exec, Log: zerolog.Nop(), Unit: cfg.TemperatureUnit}
	return NewBridge(hub, alloc, pub, cfg, deps, zerolog.Nop()), pub
}

func defaultConfig() *model.Config {
	return &model.Config{Name: "Test Bridge", SerialNumber: "serial", TemperatureUnit: model.UnitCelsius}
}

func TestBridge_Setup(t *testing.T) {
	hub := newHub(
		entity("lock.front", "locked", nil),
		entity("switch.fan", "on", nil),
		entity("sensor.power", "230", nil), // no accessory type
		entity("camera.door", "idle", nil), // unsupported domain
	)
	b, _ := newTestBridge(t, hub, defaultConfig())

	assert.NoError(t, b.Setup(context.Background()))
	assert.Equal(t, 2, b.Count())
	assert.Equal(t, StatusReady, b.Status())
	assert.NotNil(t, b.Accessory("lock.front"))
	assert.Nil(t, b.Accessory("camera.door"))

	// Every bridged entity has a state change subscription.
	assert.Len(t, hub.subscribers["lock.front"], 1)
	assert.Len(t, hub.subscribers["switch.fan"], 1)
	assert.Empty(t, hub.subscribers["camera.door"])
}

func TestBridge_SetupHonorsFilter(t *testing.T) {
	hub := newHub(
		entity("lock.front", "locked", nil),
		entity("switch.fan", "on", nil),
	)
	cfg := defaultConfig()
	cfg.Filter = model.Filter{ExcludeEntities: []string{"switch.fan"}}
	b, _ := newTestBridge(t, hub, cfg)

	assert.NoError(t, b.Setup(context.Background()))
	assert.Equal(t, 1, b.Count())
	assert.Nil(t, b.Accessory("switch.fan"))
}

func TestBridge_StartStopIdempotent(t *testing.T) {
	hub := newHub(entity("lock.front", "locked", nil))
	b, pub := newTestBridge(t, hub, defaultConfig())
	assert.NoError(t, b.Setup(context.Background()))

	assert.NoError(t, b.Start(context.Background()))
	assert.NoError(t, b.Start(context.Background()))
	assert.Equal(t, StatusRunning, b.Status())
	assert.Equal(t, 1, pub.published)
	assert.Equal(t, 1, pub.lastAccs)

	b.Stop()
	b.Stop()
	assert.Equal(t, StatusStopped, b.Status())
	assert.Equal(t, 1, pub.stops)
}

func TestBridge_StateChangeReachesAdapter(t *testing.T) {
	hub := newHub(entity("lock.front", "locked", nil))
	b, _ := newTestBridge(t, hub, defaultConfig())
	assert.NoError(t, b.Setup(context.Background()))

	adapter := b.Accessory("lock.front")
	before := adapter.Accessory().Id

	hub.emit(entity("lock.front", "unlocked", nil))
	assert.Equal(t, before, adapter.Accessory().Id)

	// A change for an unknown entity is dropped without effect.
	hub.subscribers["lock.gone"] = []ports.StateChangeFunc{b.handleStateChange("lock.gone")}
	hub.emit(entity("lock.gone", "locked", nil))
}

func TestBridge_ResetKeepsAid(t *testing.T) {
	hub := newHub(entity("lock.front", "locked", nil))
	b, pub := newTestBridge(t, hub, defaultConfig())
	assert.NoError(t, b.Setup(context.Background()))
	assert.NoError(t, b.Start(context.Background()))

	old := b.Accessory("lock.front")
	oldAid := old.Accessory().Id

	assert.NoError(t, b.ResetAccessory(context.Background(), "lock.front"))

	fresh := b.Accessory("lock.front")
	assert.NotSame(t, old, fresh)
	assert.Equal(t, oldAid, fresh.Accessory().Id)

	// A running bridge republishes after a reset.
	assert.Equal(t, 2, pub.published)
	assert.Equal(t, 1, pub.stops)
}

func TestBridge_ResetUnknownEntity(t *testing.T) {
	hub := newHub(entity("lock.front", "locked", nil))
	b, _ := newTestBridge(t, hub, defaultConfig())
	assert.NoError(t, b.Setup(context.Background()))

	assert.Error(t, b.ResetAccessory(context.Background(), "lock.other"))
}

func TestBridge_RemoveAccessory(t *testing.T) {
	hub := newHub(
		entity("lock.front", "locked", nil),
		entity("switch.fan", "on", nil),
	)
	b, _ := newTestBridge(t, hub, defaultConfig())
	assert.NoError(t, b.Setup(context.Background()))

	assert.NoError(t, b.RemoveAccessory("lock.front"))
	assert.Nil(t, b.Accessory("lock.front"))
	assert.Equal(t, 1, b.Count())

	// Removing twice is harmless.
	assert.NoError(t, b.RemoveAccessory("lock.front"))
}

func TestBridge_RegistryIdentity(t *testing.T) {
	hub := newHub(entity("lock.front", "locked", nil))
	hub.registry["lock.front"] = &model.RegistryEntry{
		EntityID: "lock.front", Platform: "zwave", UniqueID: "node-7",
	}
	b, _ := newTestBridge(t, hub, defaultConfig())
	assert.NoError(t, b.Setup(context.Background()))

	// The allocation survives an entity rename because it is keyed on the
	// registry identity, not the entity id.
	adapter := b.Accessory("lock.front")
	assert.Equal(t, aid.LegacyHash("lock.front"), adapter.Accessory().Id)
}
