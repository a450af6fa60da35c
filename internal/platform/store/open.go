// Package store picks the job and course store named by STORE_DRIVER.
package store

import (
	"context"
	"fmt"

	"coursecrawler/internal/config"
	"coursecrawler/internal/core/catalog"
	"coursecrawler/internal/platform/postgres"
)

// Handle is an opened store. DB is set only for the postgres driver.
type Handle struct {
	catalog.Store
	DB *postgres.DB
}

func (h *Handle) Close() {
	if h.DB != nil {
		h.DB.Close()
	}
}

// Open connects the configured store. The postgres schema is applied when
// migrate is true.
func Open(ctx context.Context, cfg config.Config, migrate bool) (*Handle, error) {
	switch cfg.StoreDriver {
	case "memory":
		return &Handle{Store: catalog.NewMemoryStore()}, nil
	case "postgres":
		db, err := postgres.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		if migrate {
			if err := db.Migrate(ctx); err != nil {
				db.Close()
				return nil, err
			}
		}
		return &Handle{Store: db, DB: db}, nil
	default:
		return nil, fmt.Errorf("unknown STORE_DRIVER %q", cfg.StoreDriver)
	}
}
