package core

import (
	"context"
)

// ModelSource fetches the raw model artifact
type ModelSource interface {
	// Fetch returns the artifact bytes
	Fetch(ctx context.Context) ([]byte, error)

	// Name identifies the source in errors and logs
	Name() string
}

// FeedbackRepository persists user corrections
type FeedbackRepository interface {
	// Append stores a record; records are never updated
	Append(ctx context.Context, record *FeedbackRecord) error

	// List returns every record in insertion order
	List(ctx context.Context) ([]FeedbackRecord, error)
}
