package accessories

import (
	"context"
	"sync"
	"time"

	"github.com/brutella/hap/accessory"
	"github.com/rs/zerolog"

	"homekit-bridge/internal/domain/model"
	"homekit-bridge/internal/domain/schedule"
	"homekit-bridge/internal/ports"
)

const manufacturer = "Home Assistant"

// DebounceDelay coalesces rapid controller writes to continuous-value
// characteristics into one hub call.
const DebounceDelay = 500 * time.Millisecond

const callTimeout = 10 * time.Second

// Deps carries everything an adapter needs at construction.
type Deps struct {
	Hub  ports.HubPort
	Exec *schedule.Executor
	Log  zerolog.Logger
	// Unit is the hub's temperature unit system.
	Unit string
	// Debounce overrides DebounceDelay when non-zero (tests).
	Debounce time.Duration
}

func (d Deps) debounce() time.Duration {
	if d.Debounce > 0 {
		return d.Debounce
	}
	return DebounceDelay
}

// Adapter is the per-category translator between hub state and protocol
// characteristics. Adapters are constructed active and are destroyed and
// rebuilt, never paused.
type Adapter interface {
	// UpdateState translates a hub state change into characteristic
	// values. Feeding the same state twice is a no-op the second time.
	UpdateState(state model.EntityState)
	// Accessory returns the published protocol object.
	Accessory() *accessory.A
	EntityID() string
	// Stop releases the adapter's call queue. The adapter must not be
	// used afterwards.
	Stop()
}

// writeFlags tracks, per attribute, whether a controller write is awaiting
// its echo from the hub. The write path sets the flag; the matching echo
// path consumes it so the echo does not overwrite the controller value.
type writeFlags struct {
	mu      sync.Mutex
	pending map[string]bool
}

func (f *writeFlags) set(attr string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.pending == nil {
		f.pending = make(map[string]bool)
	}
	f.pending[attr] = true
}

// consume clears and returns the flag for attr.
func (f *writeFlags) consume(attr string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	was := f.pending[attr]
	delete(f.pending, attr)
	return was
}

type serviceCall struct {
	domain  string
	service string
	data    map[string]any
	value   any
}

// baseAccessory is the shared adapter base: the hap accessory, suppression
// flags and an ordered fire-and-forget queue of hub service calls.
type baseAccessory struct {
	*accessory.A

	entityID string
	config   model.EntityConfig
	deps     Deps
	flags    writeFlags

	// Hub calls are queued so submission order is preserved per accessory
	// without ever blocking the protocol library's event thread.
	callMu  sync.Mutex
	queue   []serviceCall
	wake    chan struct{}
	done    chan struct{}
	stopped bool
}

func newAccessory(state model.EntityState, aid uint64, cfg model.EntityConfig, deps Deps, typ byte) *baseAccessory {
	name := cfg.Name
	if name == "" {
		name = state.Name()
	}
	a := &baseAccessory{
		A: accessory.New(accessory.Info{
			Name:         name,
			SerialNumber: state.EntityID,
			Manufacturer: manufacturer,
			Model:        modelName(state.Domain()),
			Firmware:     model.Version,
		}, typ),
		entityID: state.EntityID,
		config:   cfg,
		deps:     deps,
		wake:     make(chan struct{}, 1),
		done:     make(chan struct{}),
	}
	a.Id = aid
	go a.serviceLoop()
	return a
}

func (a *baseAccessory) EntityID() string { return a.entityID }

func (a *baseAccessory) Accessory() *accessory.A { return a.A }

func (a *baseAccessory) Stop() {
	a.callMu.Lock()
	defer a.callMu.Unlock()
	if a.stopped {
		return
	}
	a.stopped = true
	close(a.done)
}

// callService queues a hub service call and an event bus notification.
// The caller gets no result; failures are logged.
func (a *baseAccessory) callService(domain, service string, data map[string]any, value any) {
	a.callMu.Lock()
	defer a.callMu.Unlock()
	if a.stopped {
		return
	}
	a.queue = append(a.queue, serviceCall{domain: domain, service: service, data: data, value: value})
	select {
	case a.wake <- struct{}{}:
	default:
	}
}

func (a *baseAccessory) serviceLoop() {
	for {
		select {
		case <-a.done:
			return
		case <-a.wake:
		}
		for {
			a.callMu.Lock()
			if len(a.queue) == 0 {
				a.callMu.Unlock()
				break
			}
			call := a.queue[0]
			a.queue = a.queue[1:]
			a.callMu.Unlock()
			a.dispatch(call)
		}
	}
}

func (a *baseAccessory) dispatch(call serviceCall) {
	ctx, cancel := context.WithTimeout(context.Background(), callTimeout)
	defer cancel()

	event := map[string]any{
		attrEntityID:   a.entityID,
		"display_name": a.Info.Name.Value(),
		"service":      call.service,
		"value":        call.value,
	}
	if err := a.deps.Hub.FireEvent(ctx, EventChanged, event); err != nil {
		a.deps.Log.Debug().Err(err).Str("entity", a.entityID).Msg("firing change event")
	}
	if err := a.deps.Hub.CallService(ctx, call.domain, call.service, call.data); err != nil {
		a.deps.Log.Error().Err(err).
			Str("entity", a.entityID).
			Str("service", call.domain+"."+call.service).
			Msg("hub service call failed")
	}
}

// serviceData starts a parameter map addressing this accessory's entity.
func (a *baseAccessory) serviceData() map[string]any {
	return map[string]any{attrEntityID: a.entityID}
}

// debounced schedules fn on the shared executor under a per-characteristic
// key, replacing any pending call for the same characteristic.
func (a *baseAccessory) debounced(char string, fn func()) {
	a.deps.Exec.Schedule(a.entityID+"/"+char, a.deps.debounce(), fn)
}
