package factory

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/mikey/spam-scanner/internal/adapters/source"
	"github.com/mikey/spam-scanner/internal/config"
	"github.com/mikey/spam-scanner/internal/ports"
)

// SourceFactory creates message sources based on configuration
type SourceFactory struct {
	cfg    *config.Config
	logger *zap.Logger
}

// NewSourceFactory creates a new source factory
func NewSourceFactory(cfg *config.Config, logger *zap.Logger) *SourceFactory {
	return &SourceFactory{
		cfg:    cfg,
		logger: logger,
	}
}

// CreateMessageSource creates the configured message source
func (f *SourceFactory) CreateMessageSource() (ports.MessageSource, error) {
	sc := f.cfg.GetSource()

	switch sc.Type {
	case "maildir":
		return source.NewMaildirSource(sc.MaildirPath, f.logger), nil
	case "smtp":
		return source.NewSMTPSource(f.logger, sc.SMTPListenAddress, sc.SMTPMaxMessageBytes), nil
	default:
		return nil, fmt.Errorf("unsupported source type: %s", sc.Type)
	}
}
