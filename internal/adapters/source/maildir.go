package source

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/mikey/spam-scanner/internal/core"
)

// MaildirSource watches a maildir "new" directory. Each file is an element
// identified by its file name; deleting or moving the file away removes it.
type MaildirSource struct {
	dir    string
	logger *zap.Logger

	watcher  *fsnotify.Watcher
	out      chan core.Observation
	done     chan struct{}
	wg       sync.WaitGroup
	stopOnce sync.Once
}

// NewMaildirSource creates a watcher for dir
func NewMaildirSource(dir string, logger *zap.Logger) *MaildirSource {
	return &MaildirSource{
		dir:    dir,
		logger: logger,
		out:    make(chan core.Observation, 64),
		done:   make(chan struct{}),
	}
}

// Start reports the files already present, then follows changes
func (m *MaildirSource) Start(ctx context.Context) (<-chan core.Observation, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}
	// Watch before listing so nothing created in between is missed. Files
	// seen by both are deduplicated downstream by element id.
	if err := watcher.Add(m.dir); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("failed to watch %s: %w", m.dir, err)
	}
	m.watcher = watcher

	entries, err := os.ReadDir(m.dir)
	if err != nil {
		watcher.Close()
		return nil, fmt.Errorf("failed to list %s: %w", m.dir, err)
	}
	existing := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.Type().IsRegular() && !hidden(e.Name()) {
			existing = append(existing, e.Name())
		}
	}
	sort.Strings(existing)

	m.logger.Info("Maildir watcher starting",
		zap.String("dir", m.dir),
		zap.Int("existing", len(existing)))

	m.wg.Add(1)
	go m.loop(ctx, existing)

	return m.out, nil
}

// Stop ends the watch and closes the observation channel
func (m *MaildirSource) Stop() error {
	var err error
	m.stopOnce.Do(func() {
		close(m.done)
		if m.watcher != nil {
			err = m.watcher.Close()
		}
		m.wg.Wait()
		close(m.out)
		m.logger.Info("Maildir watcher stopped")
	})
	return err
}

func (m *MaildirSource) loop(ctx context.Context, existing []string) {
	defer m.wg.Done()

	for _, name := range existing {
		if !m.added(ctx, name) {
			return
		}
	}

	for {
		select {
		case <-ctx.Done():
			go m.Stop()
			return
		case <-m.done:
			return
		case event, ok := <-m.watcher.Events:
			if !ok {
				return
			}
			if !m.handle(ctx, event) {
				return
			}
		case err, ok := <-m.watcher.Errors:
			if !ok {
				return
			}
			m.logger.Warn("Maildir watcher error", zap.Error(err))
		}
	}
}

func (m *MaildirSource) handle(ctx context.Context, event fsnotify.Event) bool {
	name := filepath.Base(event.Name)
	if hidden(name) {
		return true
	}

	switch {
	case event.Has(fsnotify.Create):
		return m.added(ctx, name)
	case event.Has(fsnotify.Remove), event.Has(fsnotify.Rename):
		return m.send(ctx, core.Observation{Kind: core.ObservationRemoved, ElementID: name})
	default:
		return true
	}
}

func (m *MaildirSource) added(ctx context.Context, name string) bool {
	path := filepath.Join(m.dir, name)
	f, err := os.Open(path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			m.logger.Warn("Failed to open message", zap.String("path", path), zap.Error(err))
		}
		return true
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil || !info.Mode().IsRegular() {
		return true
	}

	msg, err := ParseMessage(f)
	if err != nil {
		m.logger.Warn("Skipping unparsable message", zap.String("path", path), zap.Error(err))
		return true
	}

	return m.send(ctx, core.Observation{Kind: core.ObservationAdded, ElementID: name, Message: msg})
}

func (m *MaildirSource) send(ctx context.Context, obs core.Observation) bool {
	select {
	case m.out <- obs:
		return true
	case <-m.done:
		return false
	case <-ctx.Done():
		go m.Stop()
		return false
	}
}

// hidden skips dotfiles and editor temporaries
func hidden(name string) bool {
	return strings.HasPrefix(name, ".") || strings.HasSuffix(name, "~")
}
