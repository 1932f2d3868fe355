package factory

import (
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/mikey/spam-scanner/internal/adapters/feedback"
	"github.com/mikey/spam-scanner/internal/config"
	"github.com/mikey/spam-scanner/internal/ports"
)

// FeedbackFactory creates feedback stores based on configuration
type FeedbackFactory struct {
	cfg    *config.Config
	logger *zap.Logger
}

// NewFeedbackFactory creates a new feedback factory
func NewFeedbackFactory(cfg *config.Config, logger *zap.Logger) *FeedbackFactory {
	return &FeedbackFactory{
		cfg:    cfg,
		logger: logger,
	}
}

// CreateFeedbackStore creates the configured feedback store
func (f *FeedbackFactory) CreateFeedbackStore() (ports.FeedbackStore, error) {
	fc := f.cfg.GetFeedback()

	switch fc.Type {
	case "memory":
		return feedback.NewMemoryStore(f.logger), nil
	case "sqlite":
		if err := os.MkdirAll(filepath.Dir(fc.SQLitePath), 0755); err != nil {
			return nil, fmt.Errorf("failed to create SQLite directory: %w", err)
		}
		return feedback.NewSQLiteStore(fc.SQLitePath, f.logger)
	case "mysql":
		return feedback.NewMySQLStore(fc.MySQLDSN, f.logger)
	default:
		return nil, fmt.Errorf("unsupported feedback store type: %s", fc.Type)
	}
}
