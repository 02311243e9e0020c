package broadband

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/mikedoall/home-data-hub/internal/model"
	"github.com/mikedoall/home-data-hub/internal/resilience"
)

// bdcMapURL is the vendor broadband map's ArcGIS query endpoint.
const bdcMapURL = "https://broadbandmap.fcc.gov/arcgis/rest/services/BroadbandData/MapServer/2/query"

// BDCMapSource queries the vendor map API by point geometry. It is the
// last rung of the default ladder: slowest and least structured, but it
// works from raw coordinates alone.
type BDCMapSource struct {
	httpClient *http.Client
	baseURL    string
	retry      resilience.RetryConfig
}

// BDCMapOption configures the BDCMapSource.
type BDCMapOption func(*BDCMapSource)

// WithBDCMapHTTPClient sets a custom HTTP client.
func WithBDCMapHTTPClient(hc *http.Client) BDCMapOption {
	return func(s *BDCMapSource) {
		s.httpClient = hc
	}
}

// WithBDCMapBaseURL overrides the query endpoint (used in tests).
func WithBDCMapBaseURL(u string) BDCMapOption {
	return func(s *BDCMapSource) {
		s.baseURL = u
	}
}

// NewBDCMapSource creates a BDCMapSource.
func NewBDCMapSource(opts ...BDCMapOption) *BDCMapSource {
	s := &BDCMapSource{
		httpClient: &http.Client{Timeout: 20 * time.Second},
		baseURL:    bdcMapURL,
		retry: resilience.RetryConfig{
			MaxAttempts: 2,
			OnRetry:     resilience.RetryLogger("bdc-map", "fetch"),
		},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Name implements Source.
func (s *BDCMapSource) Name() string { return "bdcmap" }

// FetchByBlock is not supported: the map service is queried by geometry.
func (s *BDCMapSource) FetchByBlock(_ context.Context, _ string) ([]model.RawProviderRecord, error) {
	return nil, ErrUnsupportedQuery
}

// bdcMapResponse is the ArcGIS feature query payload.
type bdcMapResponse struct {
	Features []struct {
		Attributes struct {
			ProviderName string  `json:"ProviderName"`
			FRN          string  `json:"FRN"`
			TechCode     string  `json:"TechCode"`
			MaxAdDown    float64 `json:"MaxAdDown"`
			MaxAdUp      float64 `json:"MaxAdUp"`
		} `json:"attributes"`
	} `json:"features"`
}

// FetchByCoordinates runs a point-intersection feature query.
func (s *BDCMapSource) FetchByCoordinates(ctx context.Context, lat, lon float64) ([]model.RawProviderRecord, error) {
	params := url.Values{
		"f":            {"json"},
		"geometry":     {fmt.Sprintf("%f,%f", lon, lat)},
		"geometryType": {"esriGeometryPoint"},
		"inSR":         {"4326"},
		"spatialRel":   {"esriSpatialRelIntersects"},
		"outFields":    {"*"},
	}
	reqURL := s.baseURL + "?" + params.Encode()

	mapResp, err := resilience.Retry(ctx, s.retry, func(ctx context.Context) (*bdcMapResponse, error) {
		return s.fetch(ctx, reqURL)
	})
	if err != nil {
		return nil, newSourceError(s.Name(), err)
	}

	records := make([]model.RawProviderRecord, 0, len(mapResp.Features))
	for _, f := range mapResp.Features {
		attr := f.Attributes
		frn := attr.FRN
		if frn == "" {
			// The map service omits FRNs on some layers; fall back to the
			// provider name as the grouping identity.
			frn = attr.ProviderName
		}
		records = append(records, model.RawProviderRecord{
			FRN:            frn,
			ProviderName:   attr.ProviderName,
			TechnologyCode: attr.TechCode,
			MaxDownload:    attr.MaxAdDown,
			MaxUpload:      attr.MaxAdUp,
		})
	}

	zap.L().Debug("bdcmap: fetched records",
		zap.Float64("lat", lat),
		zap.Float64("lon", lon),
		zap.Int("count", len(records)),
	)
	return records, nil
}

func (s *BDCMapSource) fetch(ctx context.Context, reqURL string) (*bdcMapResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, eris.Wrap(err, "build request")
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "request")
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode != http.StatusOK {
		err := eris.Errorf("status %d", resp.StatusCode)
		if resilience.IsTransientHTTPStatus(resp.StatusCode) {
			return nil, resilience.NewTransientError(err, resp.StatusCode)
		}
		return nil, err
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "read body")
	}

	var mapResp bdcMapResponse
	if err := json.Unmarshal(body, &mapResp); err != nil {
		return nil, eris.Wrap(err, "parse response")
	}
	return &mapResp, nil
}
