package presenter

import (
	"go.uber.org/zap"

	"github.com/mikey/spam-scanner/internal/core"
)

// LogPresenter writes every state change to the structured log
type LogPresenter struct {
	logger *zap.Logger
}

// NewLogPresenter creates a log presenter
func NewLogPresenter(logger *zap.Logger) *LogPresenter {
	return &LogPresenter{logger: logger.Named("presenter")}
}

// Present logs update
func (p *LogPresenter) Present(update core.ScanUpdate) {
	fields := []zap.Field{
		zap.String("task_id", update.Task.ID),
		zap.String("element_id", update.Task.SourceRef),
		zap.String("state", string(update.Task.State)),
	}

	switch {
	case update.Err != nil:
		p.logger.Warn("Scan error", append(fields, zap.Error(update.Err))...)
	case update.Result != nil:
		p.logger.Info("Scan result", append(fields,
			zap.Bool("is_spam", update.Result.IsSpam),
			zap.Float64("confidence", update.Result.Confidence),
			zap.Strings("terms", update.Result.InfluentialTerms),
			zap.String("reason", update.Result.Reason))...)
	default:
		p.logger.Debug("Scan state", fields...)
	}
}
