package artifact

import (
	"context"
	"fmt"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"medpredict/ml"
)

// Watcher reloads a condition whenever one of its artifact files changes in
// the watched directory. Bursts of events for one condition are debounced.
type Watcher struct {
	store    *Store
	dir      string
	debounce time.Duration
	logger   *zap.Logger
	fsw      *fsnotify.Watcher
}

func NewWatcher(store *Store, dir string, debounce time.Duration, logger *zap.Logger) (*Watcher, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	if err := fsw.Add(dir); err != nil {
		fsw.Close()
		return nil, fmt.Errorf("watch %s: %w", dir, err)
	}
	return &Watcher{
		store:    store,
		dir:      dir,
		debounce: debounce,
		logger:   logger,
		fsw:      fsw,
	}, nil
}

// Run processes file events until ctx is done, then closes the watcher.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.fsw.Close()

	fire := make(chan ml.Condition)
	timers := make(map[ml.Condition]*time.Timer)
	defer func() {
		for _, t := range timers {
			t.Stop()
		}
	}()

	w.logger.Info("watching artifact directory", zap.String("dir", w.dir))
	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) &&
				!event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
				continue
			}
			c, ok := ConditionForFile(event.Name)
			if !ok {
				continue
			}
			w.logger.Debug("artifact changed",
				zap.String("file", event.Name),
				zap.String("op", event.Op.String()),
			)
			if t, exists := timers[c]; exists {
				t.Reset(w.debounce)
				continue
			}
			timers[c] = time.AfterFunc(w.debounce, func() {
				select {
				case fire <- c:
				case <-ctx.Done():
				}
			})

		case c := <-fire:
			delete(timers, c)
			if err := w.store.Reload(ctx, c); err != nil {
				w.logger.Warn("reload after file change failed",
					zap.String("condition", c.String()),
					zap.Error(err),
				)
			}

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			w.logger.Error("artifact watcher error", zap.Error(err))
		}
	}
}
