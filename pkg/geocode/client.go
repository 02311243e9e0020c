// Package geocode converts free-text addresses into coordinates via the
// Census Geocoder, falling back to deterministic synthetic locations when
// the service is unreachable or yields no match.
package geocode

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/mikedoall/home-data-hub/internal/model"
)

// ErrEmptyAddress is the only error Geocode surfaces: the input address
// was empty or whitespace. Network and upstream failures fall back to a
// synthetic location instead.
var ErrEmptyAddress = eris.New("geocode: empty address")

// Client geocodes a free-text address into a Location.
type Client interface {
	Geocode(ctx context.Context, address string) (*model.Location, error)
}

// Option configures the geocoder.
type Option func(*geocoder)

// WithHTTPClient sets a custom HTTP client for Census requests.
func WithHTTPClient(hc *http.Client) Option {
	return func(g *geocoder) {
		g.httpClient = hc
	}
}

// WithRateLimit sets the requests-per-second rate limit for Census API calls.
func WithRateLimit(rps float64) Option {
	return func(g *geocoder) {
		g.limiter = rate.NewLimiter(rate.Limit(rps), int(rps))
	}
}

// WithTimeout bounds each Census request.
func WithTimeout(d time.Duration) Option {
	return func(g *geocoder) {
		g.httpClient.Timeout = d
	}
}

type geocoder struct {
	httpClient *http.Client
	limiter    *rate.Limiter
}

// NewClient creates a geocoding Client with the given options.
func NewClient(opts ...Option) Client {
	g := &geocoder{
		httpClient: &http.Client{Timeout: 15 * time.Second},
		limiter:    rate.NewLimiter(50, 50), // Census default: 50 req/s
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Geocode resolves an address via the Census one-line API. Any upstream
// failure or zero-match response degrades to a synthetic location so the
// pipeline stays usable without live network access.
func (g *geocoder) Geocode(ctx context.Context, address string) (*model.Location, error) {
	address = strings.TrimSpace(address)
	if address == "" {
		return nil, ErrEmptyAddress
	}

	loc, err := g.geocodeCensus(ctx, address)
	if err == nil && loc != nil {
		return loc, nil
	}
	if err != nil {
		// Cancellation is the caller's decision, not a reason to fabricate data.
		if ctx.Err() != nil {
			return nil, eris.Wrap(ctx.Err(), "geocode")
		}
		zap.L().Debug("geocode: census unavailable, using synthetic fallback",
			zap.String("address", address),
			zap.Error(err),
		)
	}

	return SyntheticLocation(address), nil
}
