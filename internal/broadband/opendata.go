package broadband

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
	"github.com/mikedoall/home-data-hub/internal/resilience"
)

// openDataURL is the FCC Open Data fixed-broadband deployment dataset.
const openDataURL = "https://opendata.fcc.gov/resource/jdr4-3q4p.json"

// openDataLimit caps records per query, matching the mirror adapter.
const openDataLimit = 50

// OpenDataSource queries the FCC Open Data API by census block code.
// It cannot serve coordinate lookups: the dataset is keyed by block.
type OpenDataSource struct {
	httpClient *http.Client
	baseURL    string
	retry      resilience.RetryConfig
}

// OpenDataOption configures the OpenDataSource.
type OpenDataOption func(*OpenDataSource)

// WithOpenDataHTTPClient sets a custom HTTP client.
func WithOpenDataHTTPClient(hc *http.Client) OpenDataOption {
	return func(s *OpenDataSource) {
		s.httpClient = hc
	}
}

// WithOpenDataBaseURL overrides the dataset URL (used in tests).
func WithOpenDataBaseURL(u string) OpenDataOption {
	return func(s *OpenDataSource) {
		s.baseURL = u
	}
}

// NewOpenDataSource creates an OpenDataSource.
func NewOpenDataSource(opts ...OpenDataOption) *OpenDataSource {
	s := &OpenDataSource{
		httpClient: &http.Client{Timeout: 20 * time.Second},
		baseURL:    openDataURL,
		retry: resilience.RetryConfig{
			MaxAttempts: 2,
			OnRetry:     resilience.RetryLogger("fcc-opendata", "fetch"),
		},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Name implements Source.
func (s *OpenDataSource) Name() string { return "opendata" }

// openDataRecord is one row of the Open Data JSON payload. The dataset
// serves numbers as strings.
type openDataRecord struct {
	FRN          string `json:"frn"`
	ProviderName string `json:"providername"`
	TechCode     string `json:"techcode"`
	MaxAdDown    string `json:"maxaddown"`
	MaxAdUp      string `json:"maxadup"`
}

// FetchByBlock queries the dataset by blockcode.
func (s *OpenDataSource) FetchByBlock(ctx context.Context, geoid string) ([]model.RawProviderRecord, error) {
	params := url.Values{
		"blockcode": {geoid},
		"$limit":    {strconv.Itoa(openDataLimit)},
	}
	reqURL := s.baseURL + "?" + params.Encode()

	raw, err := resilience.Retry(ctx, s.retry, func(ctx context.Context) ([]openDataRecord, error) {
		return s.fetch(ctx, reqURL)
	})
	if err != nil {
		return nil, newSourceError(s.Name(), err)
	}

	records := make([]model.RawProviderRecord, 0, len(raw))
	for _, r := range raw {
		down, _ := strconv.ParseFloat(r.MaxAdDown, 64)
		up, _ := strconv.ParseFloat(r.MaxAdUp, 64)
		records = append(records, model.RawProviderRecord{
			FRN:            r.FRN,
			ProviderName:   r.ProviderName,
			TechnologyCode: r.TechCode,
			MaxDownload:    down,
			MaxUpload:      up,
		})
	}

	zap.L().Debug("opendata: fetched records",
		zap.String("geoid", geoid),
		zap.Int("count", len(records)),
	)
	return records, nil
}

// FetchByCoordinates is not supported: the dataset is keyed by block code.
func (s *OpenDataSource) FetchByCoordinates(_ context.Context, _, _ float64) ([]model.RawProviderRecord, error) {
	return nil, ErrUnsupportedQuery
}

func (s *OpenDataSource) fetch(ctx context.Context, reqURL string) ([]openDataRecord, error) {
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

	var raw []openDataRecord
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, eris.Wrap(err, "parse response")
	}
	return raw, nil
}
