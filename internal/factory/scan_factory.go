package factory

import (
	"go.uber.org/zap"

	"github.com/mikey/spam-scanner/internal/classifier"
	"github.com/mikey/spam-scanner/internal/config"
	"github.com/mikey/spam-scanner/internal/core"
	"github.com/mikey/spam-scanner/internal/modelstore"
	"github.com/mikey/spam-scanner/internal/ports"
	"github.com/mikey/spam-scanner/internal/scanner"
	"github.com/mikey/spam-scanner/internal/whitelist"
)

// ScanFactory builds the classification pipeline from configuration
type ScanFactory struct {
	cfg    *config.Config
	logger *zap.Logger
	scan   config.ScanConfig
}

// NewScanFactory creates a new scan factory
func NewScanFactory(cfg *config.Config, logger *zap.Logger) (*ScanFactory, error) {
	scan, err := cfg.GetScan()
	if err != nil {
		return nil, err
	}
	return &ScanFactory{
		cfg:    cfg,
		logger: logger,
		scan:   scan,
	}, nil
}

// CreateModelStore creates the model store for the configured artifact
func (f *ScanFactory) CreateModelStore() *modelstore.Store {
	return modelstore.NewStore(modelstore.NewFileSource(f.cfg.GetModel().Path), f.logger)
}

// CreateEngine creates the classification engine
func (f *ScanFactory) CreateEngine(models *modelstore.Store) *classifier.Engine {
	return classifier.NewEngine(models, f.logger, classifier.Options{
		ShortMessageThreshold: f.scan.ShortMessageThreshold,
		TopTerms:              f.scan.TopTerms,
	})
}

// CreateWhitelist creates the sender allow-list
func (f *ScanFactory) CreateWhitelist() *whitelist.Checker {
	if len(f.scan.WhitelistedDomains) > 0 {
		f.logger.Info("Loaded whitelisted domains", zap.Strings("domains", f.scan.WhitelistedDomains))
	}
	return whitelist.NewChecker(f.scan.WhitelistedDomains, f.logger)
}

// CreateCoordinator creates the scan coordinator
func (f *ScanFactory) CreateCoordinator(
	engine *classifier.Engine,
	presenter ports.Presenter,
	feedback core.FeedbackRepository,
	allowList *whitelist.Checker,
) *scanner.Coordinator {
	return scanner.NewCoordinator(engine, presenter, feedback, allowList, f.logger, scanner.Options{
		MaxInFlight:    f.scan.MaxInFlight,
		IncludeSubject: f.scan.IncludeSubject,
		CorrectionTTL:  f.scan.CorrectionTTL,
	})
}

// IncludeSubject reports whether the subject is scored with the body
func (f *ScanFactory) IncludeSubject() bool {
	return f.scan.IncludeSubject
}
