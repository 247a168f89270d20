package store

import (
	"context"
	"fmt"

	"github.com/dusk-indust/termex/internal/config"
)

// Open returns the backend named by cfg with its schema initialized.
func Open(ctx context.Context, cfg config.StoreConfig, projectCode string) (Store, error) {
	var (
		s   Store
		err error
	)
	switch cfg.Backend {
	case "", "memory":
		s = NewMemStore()
	case "kuzu":
		if cfg.Path == "" {
			s, err = NewKuzuStore()
		} else {
			s, err = NewKuzuFileStore(cfg.Path)
		}
	case "postgres":
		if cfg.DSN == "" {
			return nil, fmt.Errorf("store: postgres backend needs a dsn")
		}
		s, err = ConnectPostgres(ctx, cfg.DSN, projectCode)
	default:
		return nil, fmt.Errorf("store: unknown backend %q", cfg.Backend)
	}
	if err != nil {
		return nil, err
	}
	if err := s.InitSchema(ctx); err != nil {
		s.Close()
		return nil, err
	}
	return s, nil
}
