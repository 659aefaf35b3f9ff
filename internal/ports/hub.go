package ports

import (
	"context"

	"homekit-bridge/internal/domain/model"
)

// StateChangeFunc receives the new state of a watched entity.
type StateChangeFunc func(model.EntityState)

// HubPort is the bridge's view of the home hub: state lookup, registry
// lookup, service calls, event publishing and the state change stream.
type HubPort interface {
	GetStates(ctx context.Context) ([]model.EntityState, error)
	GetState(ctx context.Context, entityID string) (model.EntityState, error)

	// RegistryEntry returns the entity registry record, nil when the
	// entity has no stable identity.
	RegistryEntry(entityID string) *model.RegistryEntry

	// CallService invokes domain.service with the given data mapping.
	CallService(ctx context.Context, domain, service string, data map[string]any) error

	// FireEvent publishes an event on the hub's bus.
	FireEvent(ctx context.Context, eventType string, data map[string]any) error

	// SubscribeStateChanges registers a callback for state changes of one
	// entity. Callbacks for the same entity run one at a time.
	SubscribeStateChanges(entityID string, fn StateChangeFunc)
}
