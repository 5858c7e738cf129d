// Package backend selects the configured storage implementation.
package backend

import (
	"context"
	"fmt"

	"github.com/angelmondragon/bomcatalog-backend/pkg/config"
	"github.com/angelmondragon/bomcatalog-backend/pkg/logger"
	"github.com/angelmondragon/bomcatalog-backend/pkg/storage"
	"github.com/angelmondragon/bomcatalog-backend/pkg/storage/gcs"
	"github.com/angelmondragon/bomcatalog-backend/pkg/storage/local"
)

// Opened is a ready store plus its shutdown hook. Pinger is nil for backends
// without a remote dependency worth probing.
type Opened struct {
	Store  storage.Store
	Pinger gcs.Pinger
	Close  func() error
}

func Open(ctx context.Context, cfg *config.Config, logg *logger.Logger) (*Opened, error) {
	if cfg.Storage.IsGCS() {
		store, err := gcs.New(ctx, cfg.GCS, cfg.GCP, logg)
		if err != nil {
			return nil, fmt.Errorf("open gcs storage: %w", err)
		}
		return &Opened{Store: store, Pinger: store, Close: store.Close}, nil
	}

	store, err := local.NewOS(cfg.Storage.LocalRoot)
	if err != nil {
		return nil, fmt.Errorf("open local storage: %w", err)
	}
	if logg != nil {
		logg.Info(logg.WithField(ctx, "root", cfg.Storage.LocalRoot), "local store initialized")
	}
	return &Opened{Store: store, Close: func() error { return nil }}, nil
}
