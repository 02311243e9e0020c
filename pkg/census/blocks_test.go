package census

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mikedoall/home-data-hub/internal/model"
)

const blockJSON = `{
	"result": {
		"geographies": {
			"2020 Census Blocks": [{
				"GEOID": "110010062021031",
				"STATE": "11",
				"COUNTY": "001",
				"TRACT": "006202",
				"BLOCK": "1031",
				"INTPTLAT": "38.8974",
				"INTPTLON": "-77.0365",
				"NAME": "Block 1031"
			}]
		}
	}
}`

func newResolver(srvURL string, gc *stubGeocoder) *Resolver {
	r := NewResolver(gc)
	r.httpClient = &http.Client{Transport: &rewriteTransport{base: http.DefaultTransport, testServer: srvURL, targetPrefix: coordinatesURL}}
	return r
}

func TestBlockFromCoordinates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "2020 Census Blocks", r.URL.Query().Get("layers"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, blockJSON)
	}))
	defer srv.Close()

	r := newResolver(srv.URL, nil)
	block, err := r.BlockFromCoordinates(context.Background(), 38.8977, -77.0365)
	require.NoError(t, err)
	assert.Equal(t, "110010062021031", block.GEOID)
	assert.Equal(t, "11", block.State)
	assert.Equal(t, "001", block.County)
	assert.Equal(t, "006202", block.Tract)
	assert.Equal(t, "1031", block.Block)
	assert.InDelta(t, 38.8974, block.Latitude, 1e-9)
}

func TestBlockFromCoordinates_NoBlocks(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"result": {"geographies": {"2020 Census Blocks": []}}}`)
	}))
	defer srv.Close()

	r := newResolver(srv.URL, nil)
	_, err := r.BlockFromCoordinates(context.Background(), 0, 0)
	require.ErrorIs(t, err, ErrBlockNotFound)
}

func TestBlockFromCoordinates_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	r := newResolver(srv.URL, nil)
	_, err := r.BlockFromCoordinates(context.Background(), 38.9, -77.0)
	require.ErrorIs(t, err, ErrBlockNotFound)
}

func TestBlockFromAddress_GeocodesFirst(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "-77.0365", r.URL.Query().Get("x"))
		assert.Equal(t, "38.8977", r.URL.Query().Get("y"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, blockJSON)
	}))
	defer srv.Close()

	gc := &stubGeocoder{loc: &model.Location{Latitude: 38.8977, Longitude: -77.0365}}
	r := newResolver(srv.URL, gc)

	block, err := r.BlockFromAddress(context.Background(), "1600 Pennsylvania Ave, Washington DC")
	require.NoError(t, err)
	assert.Equal(t, "110010062021031", block.GEOID)
	assert.Equal(t, 1, gc.calls)
}

// stubGeocoder returns a fixed location.
type stubGeocoder struct {
	loc   *model.Location
	calls int
}

func (s *stubGeocoder) Geocode(_ context.Context, _ string) (*model.Location, error) {
	s.calls++
	return s.loc, nil
}

// rewriteTransport redirects requests matching a URL prefix to a test server.
type rewriteTransport struct {
	base         http.RoundTripper
	testServer   string
	targetPrefix string
}

func (t *rewriteTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	origURL := req.URL.String()
	if strings.HasPrefix(origURL, t.targetPrefix) {
		newReq := req.Clone(req.Context())
		parsed, err := req.URL.Parse(t.testServer + origURL[len(t.targetPrefix):])
		if err != nil {
			return nil, err
		}
		newReq.URL = parsed
		newReq.Host = parsed.Host
		return t.base.RoundTrip(newReq)
	}
	return t.base.RoundTrip(req)
}
