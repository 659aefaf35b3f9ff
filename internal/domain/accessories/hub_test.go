package accessories

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"homekit-bridge/internal/domain/model"
	"homekit-bridge/internal/domain/schedule"
	"homekit-bridge/internal/ports"
)

type recordedCall struct {
	domain  string
	service string
	data    map[string]any
}

type recordedEvent struct {
	eventType string
	data      map[string]any
}

// fakeHub records service calls and events. Calls arrive over a channel
// because adapters dispatch them asynchronously.
type fakeHub struct {
	mu     sync.Mutex
	events []recordedEvent
	calls  chan recordedCall
}

var _ ports.HubPort = (*fakeHub)(nil)

func newFakeHub() *fakeHub {
	return &fakeHub{calls: make(chan recordedCall, 16)}
}

func (h *fakeHub) GetStates(context.Context) ([]model.EntityState, error) { return nil, nil }

func (h *fakeHub) GetState(context.Context, string) (model.EntityState, error) {
	return model.EntityState{}, nil
}

func (h *fakeHub) RegistryEntry(string) *model.RegistryEntry { return nil }

func (h *fakeHub) CallService(_ context.Context, domain, service string, data map[string]any) error {
	h.calls <- recordedCall{domain: domain, service: service, data: data}
	return nil
}

func (h *fakeHub) FireEvent(_ context.Context, eventType string, data map[string]any) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.events = append(h.events, recordedEvent{eventType: eventType, data: data})
	return nil
}

func (h *fakeHub) SubscribeStateChanges(string, ports.StateChangeFunc) {}

func (h *fakeHub) waitCall(t *testing.T) recordedCall {
	t.Helper()
	select {
	case c := <-h.calls:
		return c
	case <-time.After(2 * time.Second):
		t.Fatal("expected a hub service call, got none")
		return recordedCall{}
	}
}

func (h *fakeHub) assertNoCall(t *testing.T, wait time.Duration) {
	t.Helper()
	select {
	case c := <-h.calls:
		t.Fatalf("unexpected hub service call %s.%s", c.domain, c.service)
	case <-time.After(wait):
	}
}

func (h *fakeHub) eventCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.events)
}

// testDeps builds adapter dependencies with a short debounce so tests
// run fast.
func testDeps(hub *fakeHub) Deps {
	return Deps{
		Hub:      hub,
		Exec:     schedule.NewExecutor(),
		Log:      zerolog.Nop(),
		Unit:     model.UnitCelsius,
		Debounce: 10 * time.Millisecond,
	}
}
