package store

import (
	"fmt"

	"github.com/DoyleJ11/lol-balancer/internal/config"
)

// Open builds the backend selected by cfg.Driver.
func Open(cfg config.StoreConfig) (Store, error) {
	var (
		s   Store
		err error
	)
	switch cfg.Driver {
	case "", "file":
		s, err = NewFileStore(cfg.Dir)
	case "sqlite":
		s, err = NewSQLiteStore(cfg.SQLitePath)
	case "postgres":
		s, err = NewGormStore(cfg.PostgresDSN)
	default:
		return nil, fmt.Errorf("store: unknown driver %q", cfg.Driver)
	}
	if err != nil {
		return nil, err
	}
	return s, nil
}
