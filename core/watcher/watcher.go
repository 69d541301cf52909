package watcher

import (
	"context"
	"fmt"
	"path/filepath"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// Handler is invoked once per completed write to the watched file.
type Handler func()

// FileWatcher signals writes to a single file.
// The parent directory is watched so that replace-by-rename is also seen.
type FileWatcher struct {
	path    string
	handler Handler
	logger  *zap.Logger
	watcher *fsnotify.Watcher
	done    chan struct{}
	started atomic.Bool
}

// New creates a watcher for path. Start must be called to begin delivery.
func New(path string, handler Handler, logger *zap.Logger) (*FileWatcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		_ = w.Close()
		return nil, fmt.Errorf("failed to resolve %s: %w", path, err)
	}

	if err := w.Add(filepath.Dir(abs)); err != nil {
		_ = w.Close()
		return nil, fmt.Errorf("failed to watch %s: %w", filepath.Dir(abs), err)
	}

	return &FileWatcher{
		path:    abs,
		handler: handler,
		logger:  logger,
		watcher: w,
		done:    make(chan struct{}),
	}, nil
}

// Start delivers events until ctx is cancelled or Close is called.
func (fw *FileWatcher) Start(ctx context.Context) {
	if !fw.started.CompareAndSwap(false, true) {
		return
	}
	go fw.run(ctx)
}

func (fw *FileWatcher) run(ctx context.Context) {
	defer close(fw.done)

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-fw.watcher.Events:
			if !ok {
				return
			}
			if !fw.relevant(event) {
				continue
			}
			fw.logger.Debug("Watched file changed",
				zap.String("file", event.Name),
				zap.String("op", event.Op.String()))
			fw.handler()
		case err, ok := <-fw.watcher.Errors:
			if !ok {
				return
			}
			fw.logger.Warn("File watch error", zap.Error(err))
		}
	}
}

func (fw *FileWatcher) relevant(event fsnotify.Event) bool {
	if filepath.Clean(event.Name) != fw.path {
		return false
	}
	return event.Has(fsnotify.Write) || event.Has(fsnotify.Create)
}

// Close stops the watch and waits for the delivery loop to exit.
func (fw *FileWatcher) Close() error {
	err := fw.watcher.Close()
	if fw.started.Load() {
		<-fw.done
	}
	return err
}
