package ports

import (
	"context"

	"github.com/mikey/spam-scanner/internal/core"
)

// MessageSource reports message elements as they appear and disappear
type MessageSource interface {
	// Start begins watching and returns the observation stream. The channel
	// is closed once the source stops.
	Start(ctx context.Context) (<-chan core.Observation, error)

	// Stop stops the source
	Stop() error
}
