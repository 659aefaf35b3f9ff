// Package homeassistant talks to a Home Assistant instance over its
// REST and websocket APIs and adapts it to the hub port.
package homeassistant

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"homekit-bridge/internal/domain/model"
	"homekit-bridge/internal/ports"
)

// Client implements ports.HubPort. Reads and service calls go over REST;
// state changes and the entity registry come in over the websocket API.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
	log        zerolog.Logger

	mu          sync.RWMutex
	registry    map[string]model.RegistryEntry
	subscribers map[string][]ports.StateChangeFunc
}

func NewClient(baseURL, token string, log zerolog.Logger) *Client {
	return &Client{
		baseURL:     strings.TrimSuffix(baseURL, "/"),
		token:       token,
		httpClient:  &http.Client{Timeout: 30 * time.Second},
		log:         log,
		registry:    make(map[string]model.RegistryEntry),
		subscribers: make(map[string][]ports.StateChangeFunc),
	}
}

type stateJSON struct {
	EntityID   string         `json:"entity_id"`
	State      string         `json:"state"`
	Attributes map[string]any `json:"attributes"`
}

func (s stateJSON) toModel() model.EntityState {
	attrs := s.Attributes
	if attrs == nil {
		attrs = map[string]any{}
	}
	return model.EntityState{EntityID: s.EntityID, State: s.State, Attributes: attrs}
}

func (c *Client) GetStates(ctx context.Context) ([]model.EntityState, error) {
	var raw []stateJSON
	if err := c.get(ctx, "/api/states", &raw); err != nil {
		return nil, err
	}
	states := make([]model.EntityState, 0, len(raw))
	for _, s := range raw {
		states = append(states, s.toModel())
	}
	return states, nil
}

func (c *Client) GetState(ctx context.Context, entityID string) (model.EntityState, error) {
	var raw stateJSON
	if err := c.get(ctx, "/api/states/"+entityID, &raw); err != nil {
		return model.EntityState{}, err
	}
	return raw.toModel(), nil
}

func (c *Client) RegistryEntry(entityID string) *model.RegistryEntry {
	c.mu.RLock()
	defer c.mu.RUnlock()
	entry, ok := c.registry[entityID]
	if !ok || entry.UniqueID == "" {
		return nil
	}
	return &entry
}

func (c *Client) CallService(ctx context.Context, domain, service string, data map[string]any) error {
	return c.post(ctx, fmt.Sprintf("/api/services/%s/%s", domain, service), data)
}

func (c *Client) FireEvent(ctx context.Context, eventType string, data map[string]any) error {
	return c.post(ctx, "/api/events/"+eventType, data)
}

// SubscribeStateChanges registers a callback for one entity. Dispatch
// happens on the websocket read loop, so callbacks for the same entity
// are naturally serialized.
func (c *Client) SubscribeStateChanges(entityID string, fn ports.StateChangeFunc) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.subscribers[entityID] = append(c.subscribers[entityID], fn)
}

func (c *Client) dispatch(state model.EntityState) {
	c.mu.RLock()
	fns := c.subscribers[state.EntityID]
	c.mu.RUnlock()
	for _, fn := range fns {
		fn(state)
	}
}

func (c *Client) setRegistry(entries []model.RegistryEntry) {
	reg := make(map[string]model.RegistryEntry, len(entries))
	for _, e := range entries {
		reg[e.EntityID] = e
	}
	c.mu.Lock()
	c.registry = reg
	c.mu.Unlock()
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	return c.do(req, out)
}

func (c *Client) post(ctx context.Context, path string, payload map[string]any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, nil)
}

func (c *Client) do(req *http.Request, out any) error {
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("hub returned %d for %s %s", resp.StatusCode, req.Method, req.URL.Path)
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
