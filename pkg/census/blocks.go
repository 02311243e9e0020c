// Package census resolves coordinate pairs to 2020 census blocks via the
// Census Geocoder geographies API.
package census

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/mikedoall/home-data-hub/internal/model"
	"github.com/mikedoall/home-data-hub/pkg/geocode"
)

const (
	coordinatesURL = "https://geocoding.geo.census.gov/geocoder/geographies/coordinates"
	benchmark      = "Public_AR_Current"
	vintage        = "Current_Current"
	blockLayer     = "2020 Census Blocks"
)

// ErrBlockNotFound is returned when the geocoder has no block for the
// coordinates (outside covered territory) or answers with a non-success
// status. Callers degrade to coordinate-based provider lookup.
var ErrBlockNotFound = eris.New("census: block not found")

// Resolver converts coordinates or addresses into census blocks.
type Resolver struct {
	httpClient *http.Client
	geocoder   geocode.Client
}

// Option configures the Resolver.
type Option func(*Resolver)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(r *Resolver) {
		r.httpClient = hc
	}
}

// NewResolver creates a block Resolver. The geocoder handles the
// address-based overload and may be nil if only coordinates are used.
func NewResolver(gc geocode.Client, opts ...Option) *Resolver {
	r := &Resolver{
		httpClient: &http.Client{Timeout: 15 * time.Second},
		geocoder:   gc,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// blockResponse mirrors the geographies API payload for the block layer.
type blockResponse struct {
	Result struct {
		Geographies map[string][]struct {
			GEOID    string `json:"GEOID"`
			State    string `json:"STATE"`
			County   string `json:"COUNTY"`
			Tract    string `json:"TRACT"`
			Block    string `json:"BLOCK"`
			IntPtLat string `json:"INTPTLAT"`
			IntPtLon string `json:"INTPTLON"`
			Name     string `json:"NAME"`
		} `json:"geographies"`
	} `json:"result"`
}

// BlockFromCoordinates looks up the census block containing a coordinate pair.
func (r *Resolver) BlockFromCoordinates(ctx context.Context, lat, lon float64) (*model.CensusBlock, error) {
	params := url.Values{
		"x":         {strconv.FormatFloat(lon, 'f', -1, 64)},
		"y":         {strconv.FormatFloat(lat, 'f', -1, 64)},
		"benchmark": {benchmark},
		"vintage":   {vintage},
		"format":    {"json"},
		"layers":    {blockLayer},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, coordinatesURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, eris.Wrap(err, "census: build request")
	}

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "census: request")
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode != http.StatusOK {
		zap.L().Debug("census: non-success status",
			zap.Int("status", resp.StatusCode),
			zap.Float64("lat", lat),
			zap.Float64("lon", lon),
		)
		return nil, eris.Wrapf(ErrBlockNotFound, "status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "census: read body")
	}

	var br blockResponse
	if err := json.Unmarshal(body, &br); err != nil {
		return nil, eris.Wrap(err, "census: parse response")
	}

	blocks := br.Result.Geographies[blockLayer]
	if len(blocks) == 0 {
		return nil, eris.Wrapf(ErrBlockNotFound, "lat %.5f lon %.5f", lat, lon)
	}

	b := blocks[0]
	blockLat, _ := strconv.ParseFloat(b.IntPtLat, 64)
	blockLon, _ := strconv.ParseFloat(b.IntPtLon, 64)

	block := &model.CensusBlock{
		GEOID:     b.GEOID,
		State:     b.State,
		County:    b.County,
		Tract:     b.Tract,
		Block:     b.Block,
		Latitude:  blockLat,
		Longitude: blockLon,
		Name:      b.Name,
	}

	zap.L().Debug("census: resolved block",
		zap.String("geoid", block.GEOID),
		zap.Float64("lat", lat),
		zap.Float64("lon", lon),
	)
	return block, nil
}

// BlockFromAddress geocodes the address first, then resolves the block
// from the resulting coordinates.
func (r *Resolver) BlockFromAddress(ctx context.Context, address string) (*model.CensusBlock, error) {
	if r.geocoder == nil {
		return nil, eris.New("census: no geocoder configured")
	}

	loc, err := r.geocoder.Geocode(ctx, address)
	if err != nil {
		return nil, err
	}
	return r.BlockFromCoordinates(ctx, loc.Latitude, loc.Longitude)
}
