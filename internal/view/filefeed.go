package view

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
)

// FileFeed is a Feed backed by a file holding the current location.
// Every write to the file is a change notification.
type FileFeed struct {
	path    string
	watcher *fsnotify.Watcher
	changes chan string
	logger  *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewFileFeed starts watching path. The parent directory is watched so
// files replaced by rename are still observed.
func NewFileFeed(path string, logger *slog.Logger) (*FileFeed, error) {
	if logger == nil {
		logger = slog.Default()
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve location file: %w", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("watch %s: %w", filepath.Dir(abs), err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	f := &FileFeed{
		path:    abs,
		watcher: watcher,
		changes: make(chan string, 16),
		logger:  logger,
		ctx:     ctx,
		cancel:  cancel,
	}

	f.wg.Add(1)
	go f.processEvents()
	return f, nil
}

// Current returns the location currently stored in the file, or "" if
// the file cannot be read.
func (f *FileFeed) Current() string {
	data, err := os.ReadFile(f.path)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(data))
}

// Changes returns the notification channel. It is closed by Close.
func (f *FileFeed) Changes() <-chan string {
	return f.changes
}

// Close stops watching and closes the change channel.
func (f *FileFeed) Close() error {
	f.cancel()
	err := f.watcher.Close()
	f.wg.Wait()
	return err
}

func (f *FileFeed) processEvents() {
	defer f.wg.Done()
	defer close(f.changes)

	for {
		select {
		case <-f.ctx.Done():
			return

		case event, ok := <-f.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != f.path {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}

			select {
			case f.changes <- f.Current():
			case <-f.ctx.Done():
				return
			}

		case err, ok := <-f.watcher.Errors:
			if !ok {
				return
			}
			f.logger.Warn("location watcher error", "error", err)
		}
	}
}
