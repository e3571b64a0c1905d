package providers

import (
	"context"

	"github.com/samber/do/v2"

	"github.com/keepstackapp/keepstack-server/internal/config"
	"github.com/keepstackapp/keepstack-server/internal/events"
	"github.com/keepstackapp/keepstack-server/internal/logger"
	"github.com/keepstackapp/keepstack-server/internal/store"
)

// EventManagerHandle wraps the event manager with its context for lifecycle management.
type EventManagerHandle struct {
	*events.Manager
	cancel context.CancelFunc
}

// Shutdown implements do.Shutdownable.
func (h *EventManagerHandle) Shutdown() error {
	h.cancel()
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return h.Manager.Shutdown(ctx)
}

// ProvideEventManager provides the server-sent events manager.
func ProvideEventManager(i do.Injector) (*EventManagerHandle, error) {
	log := do.MustInvoke[*logger.Logger](i)

	manager := events.NewManager(log.Logger)

	// Start in background
	ctx, cancel := context.WithCancel(context.Background())
	go manager.Start(ctx)

	log.Info("Event manager started")

	return &EventManagerHandle{
		Manager: manager,
		cancel:  cancel,
	}, nil
}

// StoreHandle wraps the record store with shutdown capability.
type StoreHandle struct {
	*store.Store
}

// Shutdown implements do.Shutdownable.
func (h *StoreHandle) Shutdown() error {
	return h.Close()
}

// ProvideStore provides the embedded record store.
func ProvideStore(i do.Injector) (*StoreHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)
	eventHandle := do.MustInvoke[*EventManagerHandle](i)

	storePath := cfg.StorePath()
	db, err := store.New(storePath, log.Logger, eventHandle.Manager)
	if err != nil {
		return nil, err
	}

	log.Info("Record store initialized", "path", storePath)

	return &StoreHandle{Store: db}, nil
}
