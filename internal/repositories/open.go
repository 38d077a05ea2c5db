package repositories

import (
	"context"
	"fmt"
)

// OpenConfig selects and locates the backend for Open.
type OpenConfig struct {
	// Driver is "mongo", "postgres" or "sqlite".
	Driver        string
	DSN           string
	MongoURI      string
	MongoDatabase string
}

// Open connects the configured backend and returns its repositories.
func Open(ctx context.Context, cfg OpenConfig) (*Store, error) {
	switch cfg.Driver {
	case "mongo":
		client, err := ConnectMongo(ctx, cfg.MongoURI)
		if err != nil {
			return nil, err
		}
		store, err := NewMongoStore(ctx, client.Database(cfg.MongoDatabase))
		if err != nil {
			_ = client.Disconnect(ctx)
			return nil, err
		}
		return store, nil
	case "postgres", "sqlite":
		db, err := OpenSQL(cfg.Driver, cfg.DSN)
		if err != nil {
			return nil, err
		}
		return NewGORMStore(db), nil
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Driver)
	}
}
