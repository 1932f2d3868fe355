package feedback

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/mikey/spam-scanner/internal/core"
)

// MemoryStore keeps feedback records in process memory
type MemoryStore struct {
	mu      sync.RWMutex
	records []core.FeedbackRecord
	logger  *zap.Logger
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore(logger *zap.Logger) *MemoryStore {
	return &MemoryStore{logger: logger}
}

// Append stores a copy of record
func (s *MemoryStore) Append(ctx context.Context, record *core.FeedbackRecord) error {
	stored := *record
	stored.InfluentialTerms = append([]string(nil), record.InfluentialTerms...)

	s.mu.Lock()
	s.records = append(s.records, stored)
	n := len(s.records)
	s.mu.Unlock()

	s.logger.Debug("Stored feedback record", zap.Int("records", n))
	return nil
}

// List returns the records in insertion order
func (s *MemoryStore) List(ctx context.Context) ([]core.FeedbackRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]core.FeedbackRecord, len(s.records))
	for i, r := range s.records {
		r.InfluentialTerms = append([]string(nil), r.InfluentialTerms...)
		out[i] = r
	}
	return out, nil
}

// Close is a no-op
func (s *MemoryStore) Close() error {
	return nil
}
