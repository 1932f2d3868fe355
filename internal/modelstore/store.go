// Package modelstore loads the Naive-Bayes model artifact once and shares it.
package modelstore

import (
	"context"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/mikey/spam-scanner/internal/core"
)

const flightKey = "model"

// Store caches the model for the lifetime of the process. Concurrent first
// callers share a single fetch; a failed load is not cached.
type Store struct {
	source core.ModelSource
	logger *zap.Logger

	flight singleflight.Group
	mu     sync.RWMutex
	model  *core.Model
}

// NewStore creates a store backed by source
func NewStore(source core.ModelSource, logger *zap.Logger) *Store {
	return &Store{
		source: source,
		logger: logger,
	}
}

// EnsureLoaded returns the cached model, loading it on first use
func (s *Store) EnsureLoaded(ctx context.Context) (*core.Model, error) {
	if m := s.cached(); m != nil {
		return m, nil
	}

	v, err, shared := s.flight.Do(flightKey, func() (interface{}, error) {
		// Another flight may have finished between the check above and here.
		if m := s.cached(); m != nil {
			return m, nil
		}
		return s.load(ctx)
	})
	if err != nil {
		return nil, err
	}
	if shared {
		s.logger.Debug("Joined in-flight model load", zap.String("source", s.source.Name()))
	}
	return v.(*core.Model), nil
}

// Loaded reports whether the model is already cached
func (s *Store) Loaded() bool {
	return s.cached() != nil
}

func (s *Store) cached() *core.Model {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.model
}

func (s *Store) load(ctx context.Context) (*core.Model, error) {
	data, err := s.source.Fetch(ctx)
	if err != nil {
		s.logger.Error("Failed to fetch model", zap.String("source", s.source.Name()), zap.Error(err))
		return nil, &core.ModelLoadError{Source: s.source.Name(), Err: err}
	}

	model, err := Decode(data)
	if err != nil {
		s.logger.Error("Model failed validation", zap.String("source", s.source.Name()), zap.Error(err))
		return nil, &core.ModelLoadError{Source: s.source.Name(), Err: err}
	}

	s.mu.Lock()
	s.model = model
	s.mu.Unlock()

	s.logger.Info("Model loaded",
		zap.String("source", s.source.Name()),
		zap.Int("vocabulary_size", model.Size()))
	return model, nil
}
