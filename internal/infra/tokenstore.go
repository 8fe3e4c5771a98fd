package infra

import (
	"context"
	"fmt"

	"github.com/jrsteele09/go-dolar-client/internal/config"
	"github.com/jrsteele09/go-dolar-client/tokenstore"
	"github.com/jrsteele09/go-dolar-client/tokenstore/filestore"
	"github.com/jrsteele09/go-dolar-client/tokenstore/memstore"
	"github.com/jrsteele09/go-dolar-client/tokenstore/pgstore"
	"github.com/jrsteele09/go-dolar-client/tokenstore/redisstore"
	"github.com/rs/zerolog/log"
)

// OpenTokenStore builds the session store selected by STORE_BACKEND.
func OpenTokenStore(ctx context.Context, cfg config.StoreConfig) (tokenstore.Store, error) {
	backend := tokenstore.NormalizeBackend(cfg.GetStoreBackend())
	log.Debug().Str("backend", backend).Str("namespace", cfg.GetSessionNamespace()).Msg("opening token store")

	switch backend {
	case tokenstore.BackendMemory:
		return memstore.New(), nil

	case tokenstore.BackendFile:
		return filestore.New(cfg.GetStorePath(), filestore.WithPassphrase(cfg.GetStoreKey()))

	case tokenstore.BackendRedis:
		client, err := NewRedisClient(ctx, cfg.GetRedisURL())
		if err != nil {
			return nil, err
		}
		return redisstore.New(client, cfg.GetSessionNamespace()), nil

	case tokenstore.BackendPostgres:
		pool, err := NewPostgresPool(ctx, cfg.GetDatabaseURL())
		if err != nil {
			return nil, err
		}
		store := pgstore.New(pool, cfg.GetSessionNamespace(), pgstore.WithClose(pool.Close))
		if err := store.EnsureSchema(ctx); err != nil {
			pool.Close()
			return nil, err
		}
		return store, nil
	}
	return nil, fmt.Errorf("unknown store backend %q", backend)
}

// CloseTokenStore releases stores that hold connections.
func CloseTokenStore(store tokenstore.Store) {
	if c, ok := store.(tokenstore.Closer); ok {
		if err := c.Close(); err != nil {
			log.Warn().Err(err).Msg("closing token store")
		}
	}
}
