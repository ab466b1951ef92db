package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"workboard/internal/metrics"
	"workboard/pkg/events"
	"workboard/pkg/store"
)

// Store drivers accepted by Config.StoreDriver.
const (
	DriverMemory   = "memory"
	DriverPostgres = "postgres"
	DriverMongo    = "mongo"
)

// Config holds runtime configuration for the core application.
type Config struct {
	StoreDriver   string
	DatabaseURL   string
	MongoURI      string
	MongoDatabase string

	// Store overrides StoreDriver when set.
	Store     store.Store
	Publisher events.Publisher
	Metrics   metrics.Recorder
	Now       func() time.Time
}

// App holds the workload, progress and insight rules on top of a store.
type App struct {
	store   store.Store
	events  events.Publisher
	metrics metrics.Recorder
	now     func() time.Time
}

// New constructs the application, opening the configured store when none is injected.
func New(cfg Config) (*App, error) {
	dataStore := cfg.Store
	if dataStore == nil {
		var err error
		dataStore, err = OpenStore(context.Background(), cfg)
		if err != nil {
			return nil, err
		}
	}
	publisher := cfg.Publisher
	if publisher == nil {
		publisher = events.Nop{}
	}
	recorder := cfg.Metrics
	if recorder == nil {
		recorder = metrics.Nop{}
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &App{
		store:   dataStore,
		events:  publisher,
		metrics: recorder,
		now:     func() time.Time { return now().UTC() },
	}, nil
}

// OpenStore opens the store selected by cfg.StoreDriver. An empty driver means memory.
func OpenStore(ctx context.Context, cfg Config) (store.Store, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.StoreDriver)) {
	case "", DriverMemory:
		return store.NewMemoryStore(), nil
	case DriverPostgres:
		if cfg.DatabaseURL == "" {
			return nil, errors.New("database URL required")
		}
		s, err := store.NewGormStore(cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("init postgres store: %w", err)
		}
		return s, nil
	case DriverMongo:
		if cfg.MongoURI == "" || cfg.MongoDatabase == "" {
			return nil, errors.New("mongo URI and database required")
		}
		ctx, cancel := context.WithTimeout(ctx, 15*time.Second)
		defer cancel()
		s, err := store.NewMongoStore(ctx, cfg.MongoURI, cfg.MongoDatabase)
		if err != nil {
			return nil, fmt.Errorf("init mongo store: %w", err)
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
	}
}

// Ping reports store health. Stores without a Ping are assumed healthy.
func (a *App) Ping(ctx context.Context) error {
	if p, ok := a.store.(store.Pinger); ok {
		return p.Ping(ctx)
	}
	return nil
}

// Close releases the store connection and the event publisher.
func (a *App) Close(ctx context.Context) error {
	var errs []error
	if c, ok := a.store.(store.Closer); ok {
		errs = append(errs, c.Close(ctx))
	}
	errs = append(errs, a.events.Close())
	return errors.Join(errs...)
}
