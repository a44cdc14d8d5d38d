// server/internal/database/database.go
package database

import (
	"context"
	"fmt"

	"disaster-relief-api-server/config"
	"disaster-relief-api-server/internal/store"
	"disaster-relief-api-server/internal/store/memstore"
	"disaster-relief-api-server/internal/store/mongostore"
)

// Open builds the store named by cfg.Store.Driver. The returned func
// releases it.
func Open(ctx context.Context, cfg config.Config) (store.Store, func(context.Context) error, error) {
	switch cfg.Store.Driver {
	case "memory":
		return memstore.New(), func(context.Context) error { return nil }, nil
	case "mongo", "":
		if cfg.Mongo.URI == "" {
			return nil, nil, fmt.Errorf("mongo.uri is required for the mongo store")
		}
		st, err := mongostore.Connect(ctx, cfg.Mongo.URI, cfg.Mongo.DBName)
		if err != nil {
			return nil, nil, err
		}
		if err := st.EnsureIndexes(ctx); err != nil {
			st.Close(ctx)
			return nil, nil, fmt.Errorf("ensure indexes: %w", err)
		}
		return st, st.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown store driver %q", cfg.Store.Driver)
	}
}
