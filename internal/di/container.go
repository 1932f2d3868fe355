package di

import (
	"go.uber.org/dig"
	"go.uber.org/zap"

	"github.com/mikey/spam-scanner/internal/adapters/presenter"
	"github.com/mikey/spam-scanner/internal/classifier"
	"github.com/mikey/spam-scanner/internal/config"
	"github.com/mikey/spam-scanner/internal/factory"
	"github.com/mikey/spam-scanner/internal/logging"
	"github.com/mikey/spam-scanner/internal/modelstore"
	"github.com/mikey/spam-scanner/internal/ports"
	"github.com/mikey/spam-scanner/internal/scanner"
	"github.com/mikey/spam-scanner/internal/whitelist"
)

// BuildContainer creates the dependency injection container for the daemon.
// configFile may be empty to use the standard search paths.
func BuildContainer(configFile string) (*dig.Container, error) {
	container := dig.New()

	// Register configuration
	if err := container.Provide(func() (*config.Config, error) {
		return config.NewFromFile(configFile)
	}); err != nil {
		return nil, err
	}

	// Register logger
	if err := container.Provide(logging.InitLogger); err != nil {
		return nil, err
	}

	if err := providePipeline(container); err != nil {
		return nil, err
	}

	// Register message source
	if err := container.Provide(factory.NewSourceFactory); err != nil {
		return nil, err
	}
	if err := container.Provide(func(f *factory.SourceFactory) (ports.MessageSource, error) {
		return f.CreateMessageSource()
	}); err != nil {
		return nil, err
	}

	// Register status board
	if err := container.Provide(func(cfg *config.Config, store ports.FeedbackStore, models *modelstore.Store, logger *zap.Logger) *presenter.Board {
		return presenter.NewBoard(store, models.Loaded, logger, cfg.GetHTTP().RecentResults)
	}); err != nil {
		return nil, err
	}

	// Register presenters
	if err := container.Provide(func(cfg *config.Config, board *presenter.Board, logger *zap.Logger) ports.Presenter {
		presenters := ports.MultiPresenter{presenter.NewLogPresenter(logger)}
		if cfg.GetHTTP().Enabled {
			presenters = append(presenters, board)
		}
		return presenters
	}); err != nil {
		return nil, err
	}

	// Register coordinator
	if err := container.Provide(func(
		f *factory.ScanFactory,
		engine *classifier.Engine,
		p ports.Presenter,
		store ports.FeedbackStore,
		allowList *whitelist.Checker,
		board *presenter.Board,
	) *scanner.Coordinator {
		coordinator := f.CreateCoordinator(engine, p, store, allowList)
		board.Attach(coordinator)
		return coordinator
	}); err != nil {
		return nil, err
	}

	return container, nil
}

// providePipeline registers the parts shared by the daemon and the CLI
func providePipeline(container *dig.Container) error {
	if err := container.Provide(factory.NewScanFactory); err != nil {
		return err
	}
	if err := container.Provide(factory.NewFeedbackFactory); err != nil {
		return err
	}

	// Register model store and engine
	if err := container.Provide(func(f *factory.ScanFactory) *modelstore.Store {
		return f.CreateModelStore()
	}); err != nil {
		return err
	}
	if err := container.Provide(func(f *factory.ScanFactory, models *modelstore.Store) *classifier.Engine {
		return f.CreateEngine(models)
	}); err != nil {
		return err
	}

	// Register whitelist
	if err := container.Provide(func(f *factory.ScanFactory) *whitelist.Checker {
		return f.CreateWhitelist()
	}); err != nil {
		return err
	}

	// Register feedback store
	if err := container.Provide(func(f *factory.FeedbackFactory) (ports.FeedbackStore, error) {
		return f.CreateFeedbackStore()
	}); err != nil {
		return err
	}

	return nil
}
