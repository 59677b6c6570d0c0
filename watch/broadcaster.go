package watch

import (
	"context"

	"github.com/coursegate/coursegate/entitlement"
)

// Broadcaster propagates entitlement changes beyond the local process so
// that watch subscriptions held by other instances observe them too.
type Broadcaster interface {
	// Publish sends a change to the shared channel.
	Publish(ctx context.Context, change entitlement.Change) error

	// Close releases the broadcaster's resources.
	Close() error
}

// NopBroadcaster is the single-instance default: changes only reach the
// local hub.
type NopBroadcaster struct{}

// Publish is a no-op.
func (NopBroadcaster) Publish(_ context.Context, _ entitlement.Change) error { return nil }

// Close is a no-op.
func (NopBroadcaster) Close() error { return nil }
