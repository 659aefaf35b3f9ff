package ports

import (
	"context"

	"github.com/brutella/hap/accessory"
)

// Publisher announces the bridge and its accessories to controllers.
// Publish replaces any prior accessory set; Stop is idempotent.
type Publisher interface {
	Publish(ctx context.Context, bridge *accessory.A, accessories []*accessory.A) error
	Stop()
}
