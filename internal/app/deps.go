package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/creativecanvas/backend/internal/config"
	"github.com/creativecanvas/backend/internal/db"
	"github.com/creativecanvas/backend/internal/handlers"
	"github.com/creativecanvas/backend/internal/metrics"
	"github.com/creativecanvas/backend/internal/middleware"
	"github.com/creativecanvas/backend/internal/relay"
	"github.com/creativecanvas/backend/internal/repositories"
	"github.com/creativecanvas/backend/internal/storage"
	"github.com/creativecanvas/backend/internal/vertex"
)

type cleanupFunc func(ctx context.Context) error

// metadataStores groups the metadata persistence chosen by configuration.
type metadataStores struct {
	creations relay.CreationStore
	users     relay.UserStore
	health    handlers.HealthCheck
	close     cleanupFunc
}

// buildDependencies dials every backing service named by cfg and wires the HTTP handlers.
// The returned cleanup releases whatever was opened, also on partial failure.
func buildDependencies(ctx context.Context, cfg config.Config, collector *metrics.Collector) (handlers.Dependencies, cleanupFunc, error) {
	var closers []cleanupFunc
	cleanup := func(ctx context.Context) error {
		var errs []error
		for i := len(closers) - 1; i >= 0; i-- {
			errs = append(errs, closers[i](ctx))
		}
		return errors.Join(errs...)
	}
	fail := func(err error) (handlers.Dependencies, cleanupFunc, error) {
		_ = cleanup(context.Background())
		return handlers.Dependencies{}, nil, err
	}

	objects, closeObjects, err := buildObjectStore(ctx, cfg, collector)
	if err != nil {
		return fail(err)
	}
	closers = append(closers, closeObjects)

	stores, err := buildMetadataStores(ctx, cfg)
	if err != nil {
		return fail(err)
	}
	closers = append(closers, stores.close)

	platform, err := vertex.New(ctx, vertex.Config{
		Project:       cfg.Platform.Project,
		Location:      cfg.Platform.Location,
		VideoLocation: cfg.Platform.VideoLocation,
	}, collector)
	if err != nil {
		return fail(err)
	}

	deps, err := assembleDependencies(cfg, platform, objects, stores, collector)
	if err != nil {
		return fail(err)
	}
	return deps, cleanup, nil
}

// assembleDependencies builds the relay service and handler collaborators from
// already constructed backends.
func assembleDependencies(cfg config.Config, platform relay.Platform, objects relay.ObjectStore, stores metadataStores, collector *metrics.Collector) (handlers.Dependencies, error) {
	service, err := relay.NewService(platform, objects, stores.creations, stores.users, relay.Options{
		Models: relay.ModelSet{
			Understand: cfg.Platform.UnderstandModel,
			Image:      cfg.Platform.ImageModel,
			Video:      cfg.Platform.VideoModel,
		},
		Prefix:       cfg.ObjectStore.Prefix,
		SignedURLTTL: cfg.SignedURLTTL,
	})
	if err != nil {
		return handlers.Dependencies{}, err
	}

	deps := handlers.Dependencies{
		Relay:        service,
		Limiter:      middleware.NewRateLimiter(cfg.RateLimit.Requests, cfg.RateLimit.Window, cfg.RateLimit.Burst, cfg.RateLimit.TTL),
		MaxBodyBytes: cfg.MaxBodyBytes,
		HealthChecks: map[string]handlers.HealthCheck{},
	}
	if stores.health != nil {
		deps.HealthChecks["metadata"] = stores.health
	}
	if collector != nil {
		deps.RateLimitMetrics = collector
		deps.Metrics = collector.Handler()
	}
	return deps, nil
}

func buildObjectStore(ctx context.Context, cfg config.Config, observer storage.Observer) (relay.ObjectStore, cleanupFunc, error) {
	noop := func(context.Context) error { return nil }

	switch cfg.StorageBackend {
	case config.StorageBackendS3:
		store, err := storage.NewS3Storage(ctx, cfg.ObjectStore, observer)
		if err != nil {
			return nil, nil, err
		}
		return store, noop, nil
	case config.StorageBackendGCS:
		store, err := storage.NewGCSStorage(ctx, cfg.ObjectStore.Bucket, observer)
		if err != nil {
			return nil, nil, err
		}
		return store, func(context.Context) error { return store.Close() }, nil
	default:
		return nil, nil, fmt.Errorf("unknown storage backend %q", cfg.StorageBackend)
	}
}

func buildMetadataStores(ctx context.Context, cfg config.Config) (metadataStores, error) {
	switch cfg.MetadataBackend {
	case config.MetadataBackendPostgres:
		pool, err := db.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			return metadataStores{}, err
		}
		return postgresStores(pool), nil
	case config.MetadataBackendMongo:
		client, err := repositories.ConnectMongo(ctx, cfg.Mongo.URI)
		if err != nil {
			return metadataStores{}, err
		}
		database := client.Database(cfg.Mongo.Database)
		if err := repositories.EnsureMongoIndexes(ctx, database); err != nil {
			_ = client.Disconnect(context.Background())
			return metadataStores{}, err
		}
		return metadataStores{
			creations: repositories.NewMongoCreationRepository(database),
			users:     repositories.NewMongoUserRepository(database),
			health:    func(ctx context.Context) error { return client.Ping(ctx, nil) },
			close:     client.Disconnect,
		}, nil
	default:
		return metadataStores{}, fmt.Errorf("unknown metadata backend %q", cfg.MetadataBackend)
	}
}

func postgresStores(pool db.Pool) metadataStores {
	return metadataStores{
		creations: repositories.NewPostgresCreationRepository(pool),
		users:     repositories.NewPostgresUserRepository(pool),
		health:    pool.Ping,
		close: func(context.Context) error {
			pool.Close()
			return nil
		},
	}
}
