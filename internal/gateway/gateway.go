package gateway

import "context"

// Messenger defines the interface for communication gateways.
type Messenger interface {
	// Start runs the update loop until ctx is done.
	Start(ctx context.Context) error
	// Stop waits for in-flight updates to finish.
	Stop() error
}
