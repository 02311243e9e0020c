package main

import (
	"context"
	"net/http"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/mikedoall/home-data-hub/internal/broadband"
	"github.com/mikedoall/home-data-hub/internal/store"
	"github.com/mikedoall/home-data-hub/pkg/census"
	"github.com/mikedoall/home-data-hub/pkg/geocode"
)

// pipelineEnv bundles the wired resolution pipeline for commands.
type pipelineEnv struct {
	Store    store.Store
	Resolver *broadband.Resolver
}

func (e *pipelineEnv) Close() {
	if err := e.Store.Close(); err != nil {
		zap.L().Warn("close store", zap.Error(err))
	}
}

func initStore(ctx context.Context) (store.Store, error) {
	switch cfg.Store.Driver {
	case "sqlite":
		return store.NewSQLite(cfg.Store.SQLitePath)
	case "postgres":
		return store.NewPostgres(ctx, cfg.Store.DatabaseURL, &store.PoolConfig{
			MaxConns: cfg.Store.MaxConns,
			MinConns: cfg.Store.MinConns,
		})
	default:
		return nil, eris.Errorf("unsupported store driver: %s", cfg.Store.Driver)
	}
}

// initPipeline builds the full resolution pipeline: store, geocoder,
// census resolver, and the source ladder.
func initPipeline(ctx context.Context) (*pipelineEnv, error) {
	st, err := initStore(ctx)
	if err != nil {
		return nil, eris.Wrap(err, "init store")
	}
	if err := st.Migrate(ctx); err != nil {
		st.Close() //nolint:errcheck
		return nil, eris.Wrap(err, "migrate store")
	}

	if cfg.Store.Seed {
		if _, err := store.Seed(ctx, st); err != nil {
			zap.L().Warn("seed store", zap.Error(err))
		}
	}

	geocoder := geocode.NewClient(
		geocode.WithRateLimit(float64(cfg.Geocode.RateLimit)),
		geocode.WithTimeout(time.Duration(cfg.Geocode.TimeoutSecs)*time.Second),
	)
	blocks := census.NewResolver(geocoder,
		census.WithHTTPClient(&http.Client{Timeout: time.Duration(cfg.Census.TimeoutSecs) * time.Second}),
	)

	resolverCfg := resolverConfig()
	sources := []broadband.Source{
		broadband.NewOpenDataSource(),
		broadband.NewBDCMapSource(),
	}

	// The mirror source reads the Postgres FCC tables; a SQLite store has
	// no mirror to query.
	if pg, ok := st.(*store.PostgresStore); ok {
		sources = append(sources, broadband.NewMirrorSource(pg.Pool()))
	} else {
		zap.L().Debug("mirror source unavailable without postgres store")
	}

	resolver := broadband.NewResolver(resolverCfg, geocoder, blocks, st, sources...)
	return &pipelineEnv{Store: st, Resolver: resolver}, nil
}

// resolverConfig assembles the ladder config, preferring a dedicated
// YAML file when one is configured.
func resolverConfig() broadband.ResolverConfig {
	if path := cfg.Broadband.ResolverConfigPath; path != "" {
		loaded, err := broadband.LoadResolverConfig(path)
		if err != nil {
			zap.L().Warn("resolver config file unreadable, using app config",
				zap.String("path", path),
				zap.Error(err),
			)
		} else {
			return *loaded
		}
	}

	rc := broadband.DefaultResolverConfig()
	if len(cfg.Broadband.SourceOrder) > 0 {
		rc.SourceOrder = cfg.Broadband.SourceOrder
	}
	if cfg.Broadband.CacheTTLHours > 0 {
		rc.CacheTTL = cfg.Broadband.CacheTTL()
	}
	if cfg.Broadband.SourceTimeoutSecs > 0 {
		rc.SourceTimeout = cfg.Broadband.SourceTimeout()
	}
	return rc
}
