package storage

import (
	"fmt"

	"job-board-go/internal/config"
	"job-board-go/pkg/httpclient"
)

// New builds the binding named by cfg.Driver. The returned close function
// releases backend resources and is never nil.
func New(cfg config.BackendConfig) (Store, func() error, error) {
	noop := func() error { return nil }

	switch cfg.Driver {
	case config.DriverREST:
		store, err := NewRESTStore(httpclient.NewHttpClient(cfg.RequestTimeout), cfg.RESTBaseURL)
		if err != nil {
			return nil, noop, err
		}
		return store, noop, nil
	case config.DriverSupabase:
		store, err := NewSupabaseStore(cfg.SupabaseURL, cfg.SupabaseKey, cfg.Table)
		if err != nil {
			return nil, noop, err
		}
		return store, noop, nil
	case config.DriverLocal:
		store, err := NewLocalStore(cfg.DataDir)
		if err != nil {
			return nil, noop, err
		}
		return store, store.Close, nil
	default:
		return nil, noop, fmt.Errorf("unknown backend driver: %s", cfg.Driver)
	}
}
