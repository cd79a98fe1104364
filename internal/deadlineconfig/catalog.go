// Package deadlineconfig loads and hot-reloads a named catalog of default
// Deadline durations from a YAML file, the way the teacher's
// internal/personas.Manager hot-reloads its persona catalog: load once at
// startup, then watch the file (and its directory, for atomic replace) with
// fsnotify and swap in a freshly parsed catalog on every write.
package deadlineconfig

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// Entry is one named deadline's default duration, as declared in the
// catalog file.
type Entry struct {
	Name     string        `yaml:"name"`
	Duration time.Duration `yaml:"duration"`
}

type catalogFile struct {
	Deadlines []Entry `yaml:"deadlines"`
}

// Catalog is a concurrency-safe, hot-reloadable map from deadline name to
// its configured default duration.
type Catalog struct {
	path   string
	logger *zap.Logger

	mu      sync.RWMutex
	entries map[string]time.Duration

	watcher *fsnotify.Watcher
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// Load reads path once and starts watching it for changes. Callers must
// call Close when done watching.
func Load(path string, logger *zap.Logger) (*Catalog, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	ctx, cancel := context.WithCancel(context.Background())
	c := &Catalog{
		path:   path,
		logger: logger,
		ctx:    ctx,
		cancel: cancel,
	}

	entries, err := parseCatalogFile(path)
	if err != nil {
		cancel()
		return nil, err
	}
	c.entries = entries

	if err := c.initWatcher(); err != nil {
		logger.Warn("deadline catalog: failed to start file watcher, hot-reload disabled",
			zap.String("path", path), zap.Error(err))
		return c, nil
	}

	c.wg.Add(1)
	go c.watch()

	return c, nil
}

// Duration returns the configured default duration for name and true, or
// zero and false if name has no entry.
func (c *Catalog) Duration(name string) (time.Duration, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	d, ok := c.entries[name]
	return d, ok
}

// Close stops the file watcher and its background goroutine.
func (c *Catalog) Close() {
	c.cancel()
	if c.watcher != nil {
		c.watcher.Close()
	}
	c.wg.Wait()
}

func (c *Catalog) initWatcher() error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create file watcher: %w", err)
	}
	if err := watcher.Add(c.path); err != nil {
		watcher.Close()
		return fmt.Errorf("watch catalog file: %w", err)
	}
	if err := watcher.Add(filepath.Dir(c.path)); err != nil {
		c.logger.Warn("deadline catalog: failed to watch containing directory",
			zap.String("dir", filepath.Dir(c.path)), zap.Error(err))
	}
	c.watcher = watcher
	return nil
}

func (c *Catalog) watch() {
	defer c.wg.Done()
	for {
		select {
		case event, ok := <-c.watcher.Events:
			if !ok {
				return
			}
			sameFile := event.Name == c.path || filepath.Base(event.Name) == filepath.Base(c.path)
			isWrite := event.Op&fsnotify.Write == fsnotify.Write || event.Op&fsnotify.Create == fsnotify.Create
			if !sameFile || !isWrite {
				continue
			}

			// Give the writer time to finish before re-reading.
			time.Sleep(100 * time.Millisecond)
			entries, err := parseCatalogFile(c.path)
			if err != nil {
				c.logger.Error("deadline catalog: reload failed, keeping previous catalog",
					zap.String("path", c.path), zap.Error(err))
				continue
			}
			c.mu.Lock()
			c.entries = entries
			c.mu.Unlock()
			c.logger.Info("deadline catalog reloaded", zap.String("path", c.path), zap.Int("count", len(entries)))

		case err, ok := <-c.watcher.Errors:
			if !ok {
				return
			}
			c.logger.Error("deadline catalog: file watcher error", zap.Error(err))

		case <-c.ctx.Done():
			return
		}
	}
}

func parseCatalogFile(path string) (map[string]time.Duration, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog %s: %w", path, err)
	}
	var cf catalogFile
	if err := yaml.Unmarshal(raw, &cf); err != nil {
		return nil, fmt.Errorf("parse catalog %s: %w", path, err)
	}
	entries := make(map[string]time.Duration, len(cf.Deadlines))
	for _, e := range cf.Deadlines {
		entries[e.Name] = e.Duration
	}
	return entries, nil
}
