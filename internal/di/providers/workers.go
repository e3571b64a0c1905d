package providers

import (
	"context"
	"errors"

	"github.com/samber/do/v2"

	"github.com/keepstackapp/keepstack-server/internal/config"
	"github.com/keepstackapp/keepstack-server/internal/logger"
	"github.com/keepstackapp/keepstack-server/internal/service"
	"github.com/keepstackapp/keepstack-server/internal/watcher"
)

// DropWatcherHandle wraps the drop-folder watcher with shutdown capability.
// The watcher is nil when no drop folder is configured.
type DropWatcherHandle struct {
	*watcher.DropWatcher
	cancel context.CancelFunc
}

// Shutdown implements do.Shutdownable.
func (h *DropWatcherHandle) Shutdown() error {
	if h.DropWatcher == nil {
		return nil
	}
	h.cancel()
	return h.Stop()
}

// ProvideDropWatcher provides the drop-folder watcher.
func ProvideDropWatcher(i do.Injector) (*DropWatcherHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	if cfg.Drop.Path == "" {
		log.Info("Drop folder not configured, watcher disabled")
		return &DropWatcherHandle{}, nil
	}

	ingest := do.MustInvoke[*service.IngestService](i)

	w, err := watcher.New(watcher.Options{
		Path:   cfg.Drop.Path,
		UserID: cfg.Drop.UserID,
	}, ingest, log.Logger)
	if err != nil {
		return nil, err
	}

	// Start in background
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		if err := w.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Error("Drop folder watcher error", "error", err)
		}
	}()

	log.Info("Drop folder watcher started", "path", cfg.Drop.Path, "user_id", cfg.Drop.UserID)

	return &DropWatcherHandle{
		DropWatcher: w,
		cancel:      cancel,
	}, nil
}
