package di

import (
	"go.uber.org/dig"
	"go.uber.org/zap"

	"github.com/mikey/spam-scanner/internal/config"
	"github.com/mikey/spam-scanner/internal/logging"
)

// CLIFlags contains the global command line flags of the CLI
type CLIFlags struct {
	ConfigFile     string
	ModelPath      string
	Threshold      int
	TopTerms       int
	IncludeSubject bool
	FeedbackType   string
	FeedbackPath   string
	Verbose        bool
	JSONLog        bool
}

// BuildCLIContainer creates the dependency injection container for the CLI.
// Without a config file every flag applies; with one, only the flags changed
// reports as set override it.
func BuildCLIContainer(flags *CLIFlags, changed func(name string) bool) (*dig.Container, error) {
	container := dig.New()

	// Register flags
	if err := container.Provide(func() *CLIFlags { return flags }); err != nil {
		return nil, err
	}

	// Register logger
	if err := container.Provide(func(flags *CLIFlags) (*zap.Logger, error) {
		return logging.InitConsoleLogger(flags.Verbose, flags.JSONLog)
	}); err != nil {
		return nil, err
	}

	// Register configuration
	if err := container.Provide(func(flags *CLIFlags, logger *zap.Logger) (*config.Config, error) {
		if flags.ConfigFile != "" {
			cfg, err := config.NewFromFile(flags.ConfigFile)
			if err != nil {
				return nil, err
			}
			logger.Info("Loaded configuration from file", zap.String("file", cfg.GetViper().ConfigFileUsed()))
			applyFlags(cfg, flags, changed)
			return cfg, nil
		}

		cfg := config.NewFromViper(config.NewEmptyViper())
		applyFlags(cfg, flags, nil)
		return cfg, nil
	}); err != nil {
		return nil, err
	}

	if err := providePipeline(container); err != nil {
		return nil, err
	}

	return container, nil
}

// applyFlags copies explicitly set flags into cfg
func applyFlags(cfg *config.Config, flags *CLIFlags, changed func(name string) bool) {
	set := func(name, key string, value interface{}) {
		if changed == nil || changed(name) {
			cfg.Set(key, value)
		}
	}

	set("model", "model.path", flags.ModelPath)
	set("threshold", "scan.short_message_threshold", flags.Threshold)
	set("top-terms", "scan.top_terms", flags.TopTerms)
	set("include-subject", "scan.include_subject", flags.IncludeSubject)
	set("feedback", "feedback.type", flags.FeedbackType)
	set("feedback-path", "feedback.sqlite_path", flags.FeedbackPath)
}
