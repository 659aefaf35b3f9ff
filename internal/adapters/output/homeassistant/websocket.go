package homeassistant

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"homekit-bridge/internal/domain/model"
)

const reconnectDelay = 5 * time.Second

type wsMessage struct {
	ID      int             `json:"id,omitempty"`
	Type    string          `json:"type"`
	Success bool            `json:"success,omitempty"`
	Result  json.RawMessage `json:"result,omitempty"`
	Event   *wsEvent        `json:"event,omitempty"`
}

type wsEvent struct {
	EventType string `json:"event_type"`
	Data      struct {
		EntityID string     `json:"entity_id"`
		NewState *stateJSON `json:"new_state"`
	} `json:"data"`
}

type registryJSON struct {
	EntityID string `json:"entity_id"`
	Platform string `json:"platform"`
	UniqueID string `json:"unique_id"`
}

// Connect opens the websocket session, loads the entity registry and
// starts streaming state changes. It blocks until the registry has been
// fetched once, then keeps the stream alive in the background until the
// context is cancelled, reconnecting on failure.
func (c *Client) Connect(ctx context.Context) error {
	conn, err := c.wsSession(ctx)
	if err != nil {
		return err
	}
	go c.streamLoop(ctx, conn)
	return nil
}

// wsSession dials, authenticates, fetches the registry and subscribes to
// state_changed events, returning the live connection.
func (c *Client) wsSession(ctx context.Context) (*websocket.Conn, error) {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, c.wsURL(), nil)
	if err != nil {
		return nil, fmt.Errorf("dialing hub websocket: %w", err)
	}

	var msg wsMessage
	if err := conn.ReadJSON(&msg); err != nil || msg.Type != "auth_required" {
		conn.Close()
		return nil, fmt.Errorf("unexpected websocket greeting: %w", err)
	}
	if err := conn.WriteJSON(map[string]string{"type": "auth", "access_token": c.token}); err != nil {
		conn.Close()
		return nil, err
	}
	if err := conn.ReadJSON(&msg); err != nil || msg.Type != "auth_ok" {
		conn.Close()
		return nil, fmt.Errorf("websocket authentication rejected (%s)", msg.Type)
	}

	if err := conn.WriteJSON(map[string]any{"id": 1, "type": "config/entity_registry/list"}); err != nil {
		conn.Close()
		return nil, err
	}
	if err := conn.ReadJSON(&msg); err != nil || !msg.Success {
		conn.Close()
		return nil, fmt.Errorf("entity registry fetch failed: %w", err)
	}
	var entries []registryJSON
	if err := json.Unmarshal(msg.Result, &entries); err != nil {
		conn.Close()
		return nil, fmt.Errorf("decoding entity registry: %w", err)
	}
	reg := make([]model.RegistryEntry, 0, len(entries))
	for _, e := range entries {
		reg = append(reg, model.RegistryEntry{EntityID: e.EntityID, Platform: e.Platform, UniqueID: e.UniqueID})
	}
	c.setRegistry(reg)
	c.log.Info().Int("entries", len(reg)).Msg("entity registry loaded")

	if err := conn.WriteJSON(map[string]any{"id": 2, "type": "subscribe_events", "event_type": "state_changed"}); err != nil {
		conn.Close()
		return nil, err
	}
	return conn, nil
}

// streamLoop reads events until the connection breaks, then reconnects.
func (c *Client) streamLoop(ctx context.Context, conn *websocket.Conn) {
	for {
		c.readEvents(ctx, conn)
		conn.Close()
		if ctx.Err() != nil {
			return
		}

		c.log.Warn().Dur("retry_in", reconnectDelay).Msg("hub websocket lost, reconnecting")
		select {
		case <-ctx.Done():
			return
		case <-time.After(reconnectDelay):
		}

		next, err := c.wsSession(ctx)
		if err != nil {
			c.log.Error().Err(err).Msg("hub websocket reconnect failed")
			continue
		}
		conn = next
	}
}

func (c *Client) readEvents(ctx context.Context, conn *websocket.Conn) {
	// The watcher unblocks the read on cancellation and is released when
	// this connection's read loop returns, so reconnects do not pile up
	// goroutines holding dead connections.
	readDone := make(chan struct{})
	defer close(readDone)
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-readDone:
		}
	}()
	for {
		var msg wsMessage
		if err := conn.ReadJSON(&msg); err != nil {
			return
		}
		if msg.Type != "event" || msg.Event == nil || msg.Event.EventType != "state_changed" {
			continue
		}
		if msg.Event.Data.NewState == nil {
			// Entity removed; adapters keep their last known state.
			continue
		}
		c.dispatch(msg.Event.Data.NewState.toModel())
	}
}

func (c *Client) wsURL() string {
	url := c.baseURL
	switch {
	case strings.HasPrefix(url, "https://"):
		url = "wss://" + strings.TrimPrefix(url, "https://")
	case strings.HasPrefix(url, "http://"):
		url = "ws://" + strings.TrimPrefix(url, "http://")
	}
	return url + "/api/websocket"
}
