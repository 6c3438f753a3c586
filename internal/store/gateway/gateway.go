// Package gateway selects exactly one backend adapter at process start.
// Priority: relational when a Postgres DSN is configured, then document when
// a Mongo URI is configured, then the flat-file fallback. Switching backends
// is purely a configuration change.
package gateway

import (
	"context"
	"log"

	"github.com/tavukcu/ahmetlimedya/internal/config"
	"github.com/tavukcu/ahmetlimedya/internal/store"
	"github.com/tavukcu/ahmetlimedya/internal/store/flatfile"
	"github.com/tavukcu/ahmetlimedya/internal/store/mongodb"
	"github.com/tavukcu/ahmetlimedya/internal/store/postgres"
)

// Open connects the configured backend and returns it with a close func.
// Adapter constructors run their own idempotent schema/collection setup.
func Open(ctx context.Context, cfg config.Config, logger *log.Logger) (store.Store, func(context.Context) error, error) {
	if logger == nil {
		logger = log.Default()
	}

	if cfg.PostgresDSN != "" {
		db, err := postgres.Connect(cfg.PostgresDSN)
		if err != nil {
			return nil, nil, err
		}
		s, err := postgres.New(db, logger)
		if err != nil {
			_ = db.Close()
			return nil, nil, err
		}
		logger.Println("store: using relational backend")
		return s, func(context.Context) error { return db.Close() }, nil
	}

	if cfg.MongoURI != "" {
		client, err := mongodb.Connect(ctx, cfg.MongoURI)
		if err != nil {
			return nil, nil, err
		}
		s, err := mongodb.New(client.Database(cfg.MongoDBName), logger)
		if err != nil {
			_ = client.Disconnect(ctx)
			return nil, nil, err
		}
		logger.Println("store: using document backend")
		return s, client.Disconnect, nil
	}

	s, err := flatfile.New(cfg.DataDir, logger)
	if err != nil {
		return nil, nil, err
	}
	logger.Printf("store: using flat-file backend in %s", cfg.DataDir)
	return s, func(context.Context) error { return nil }, nil
}
