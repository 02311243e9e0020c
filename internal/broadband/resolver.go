package broadband

import (
	"context"
	"math"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/mikedoall/home-data-hub/internal/model"
	"github.com/mikedoall/home-data-hub/pkg/geocode"
)

// ErrInvalidInput is the only error the resolver surfaces: an empty
// address or a non-finite coordinate. Every other failure is absorbed by
// a fallback step.
var ErrInvalidInput = eris.New("broadband: invalid input")

// resolvedMessage annotates a genuine address-level result.
const resolvedMessage = "Providers available at this location according to FCC data"

// Cache persists resolved results keyed by GEOID. A nil result with nil
// error is a miss; expired entries are reported as misses, not deleted.
type Cache interface {
	GetBroadband(ctx context.Context, geoid string) (*model.BroadbandResult, error)
	PutBroadband(ctx context.Context, geoid string, result *model.BroadbandResult, ttl time.Duration) error
}

// BlockResolver converts a coordinate pair into a census block.
type BlockResolver interface {
	BlockFromCoordinates(ctx context.Context, lat, lon float64) (*model.CensusBlock, error)
}

// sourceLabels maps source names to the labels stamped on results.
var sourceLabels = map[string]string{
	"mirror":   "FCC Availability Mirror",
	"opendata": "FCC Open Data API",
	"bdcmap":   "FCC Broadband Map",
}

// Resolver sequences geocoding, block resolution, cache lookup, and the
// source ladder into a single resolution pipeline. It is the only
// component the rest of the system calls.
type Resolver struct {
	cfg      ResolverConfig
	geocoder geocode.Client
	blocks   BlockResolver
	cache    Cache
	sources  []Source
}

// NewResolver builds a Resolver. Sources are tried in cfg.SourceOrder;
// sources not named in the config are ignored.
func NewResolver(cfg ResolverConfig, gc geocode.Client, blocks BlockResolver, cache Cache, sources ...Source) *Resolver {
	byName := make(map[string]Source, len(sources))
	for _, s := range sources {
		byName[s.Name()] = s
	}

	ordered := make([]Source, 0, len(sources))
	for _, name := range cfg.SourceOrder {
		if s, ok := byName[name]; ok {
			ordered = append(ordered, s)
		} else {
			zap.L().Warn("resolver: configured source not registered", zap.String("source", name))
		}
	}

	return &Resolver{
		cfg:      cfg,
		geocoder: gc,
		blocks:   blocks,
		cache:    cache,
		sources:  ordered,
	}
}

// ResolveAddress resolves broadband availability for a free-text address.
func (r *Resolver) ResolveAddress(ctx context.Context, address string) (*model.BroadbandResult, error) {
	if strings.TrimSpace(address) == "" {
		return nil, eris.Wrap(ErrInvalidInput, "empty address")
	}

	loc, err := r.geocoder.Geocode(ctx, address)
	if err != nil {
		if eris.Is(err, geocode.ErrEmptyAddress) {
			return nil, eris.Wrap(ErrInvalidInput, "empty address")
		}
		// The geocoder only fails on empty input or cancellation.
		return nil, err
	}

	return r.resolve(ctx, loc.Latitude, loc.Longitude)
}

// ResolveCoordinates resolves broadband availability for a raw
// coordinate pair, bypassing the geocoder.
func (r *Resolver) ResolveCoordinates(ctx context.Context, lat, lon float64) (*model.BroadbandResult, error) {
	if !validCoordinates(lat, lon) {
		return nil, eris.Wrapf(ErrInvalidInput, "coordinates %v,%v", lat, lon)
	}
	return r.resolve(ctx, lat, lon)
}

// resolve runs the fallback ladder: block lookup, cache, source priority
// order, regional approximation.
func (r *Resolver) resolve(ctx context.Context, lat, lon float64) (*model.BroadbandResult, error) {
	log := zap.L().With(zap.Float64("lat", lat), zap.Float64("lon", lon))

	// A failed block lookup degrades to coordinate-based source queries;
	// without a key the cache is skipped entirely.
	var geoid string
	block, err := r.blocks.BlockFromCoordinates(ctx, lat, lon)
	switch {
	case err == nil:
		geoid = block.GEOID
	case ctx.Err() != nil:
		return nil, eris.Wrap(ctx.Err(), "broadband: resolve")
	default:
		log.Debug("resolver: no census block, proceeding by coordinates", zap.Error(err))
	}

	if geoid != "" {
		if cached := r.checkCache(ctx, geoid); cached != nil {
			log.Debug("resolver: cache hit", zap.String("geoid", geoid))
			return cached, nil
		}
	}

	records, sourceName := r.querySources(ctx, geoid, lat, lon)
	if ctx.Err() != nil {
		// Abort promptly without writing a partial result.
		return nil, eris.Wrap(ctx.Err(), "broadband: resolve")
	}

	if len(records) == 0 {
		log.Info("resolver: all sources empty or failed, returning regional approximation")
		return RegionalFallback(), nil
	}

	result := &model.BroadbandResult{
		Providers: Normalize(records, sourceLabels[sourceName]),
		Message:   resolvedMessage,
		Source:    sourceName,
		GEOID:     geoid,
		Error:     false,
	}

	if geoid != "" {
		r.writeCache(ctx, geoid, result)
	}
	return result, nil
}

// querySources walks the priority ladder and returns the first non-empty
// record set. Source failures are logged and skipped, never fatal.
func (r *Resolver) querySources(ctx context.Context, geoid string, lat, lon float64) ([]model.RawProviderRecord, string) {
	for _, src := range r.sources {
		records, err := r.querySource(ctx, src, geoid, lat, lon)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ""
			}
			zap.L().Warn("resolver: source failed, trying next",
				zap.String("source", src.Name()),
				zap.Error(err),
			)
			continue
		}
		if len(records) > 0 {
			return records, src.Name()
		}
		zap.L().Debug("resolver: source returned no records", zap.String("source", src.Name()))
	}
	return nil, ""
}

// querySource tries the block-keyed lookup first when a block id is
// available, falling back to coordinates if the source does not serve
// that mode or finds nothing for the block.
func (r *Resolver) querySource(ctx context.Context, src Source, geoid string, lat, lon float64) ([]model.RawProviderRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, r.cfg.SourceTimeout)
	defer cancel()

	if geoid != "" {
		records, err := src.FetchByBlock(ctx, geoid)
		if err == nil && len(records) > 0 {
			return records, nil
		}
		if err != nil && !eris.Is(err, ErrUnsupportedQuery) {
			return nil, err
		}
	}

	records, err := src.FetchByCoordinates(ctx, lat, lon)
	if eris.Is(err, ErrUnsupportedQuery) {
		return nil, nil
	}
	return records, err
}

// checkCache returns a cached unexpired result, treating any cache
// failure as a miss.
func (r *Resolver) checkCache(ctx context.Context, geoid string) *model.BroadbandResult {
	if r.cache == nil {
		return nil
	}
	cached, err := r.cache.GetBroadband(ctx, geoid)
	if err != nil {
		zap.L().Warn("resolver: cache read failed, treating as miss",
			zap.String("geoid", geoid),
			zap.Error(err),
		)
		return nil
	}
	return cached
}

// writeCache stores a fresh result; failures are logged, never surfaced.
func (r *Resolver) writeCache(ctx context.Context, geoid string, result *model.BroadbandResult) {
	if r.cache == nil {
		return
	}
	if err := r.cache.PutBroadband(ctx, geoid, result, r.cfg.CacheTTL); err != nil {
		zap.L().Warn("resolver: cache write failed",
			zap.String("geoid", geoid),
			zap.Error(err),
		)
	}
}

func validCoordinates(lat, lon float64) bool {
	if math.IsNaN(lat) || math.IsNaN(lon) || math.IsInf(lat, 0) || math.IsInf(lon, 0) {
		return false
	}
	return lat >= -90 && lat <= 90 && lon >= -180 && lon <= 180
}
