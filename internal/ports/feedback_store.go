package ports

import (
	"github.com/mikey/spam-scanner/internal/core"
)

// FeedbackStore is a feedback repository that owns a closable resource
type FeedbackStore interface {
	core.FeedbackRepository

	// Close releases the underlying storage
	Close() error
}
