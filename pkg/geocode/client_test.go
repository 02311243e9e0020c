package geocode

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGeocode_CensusMatch(t *testing.T) {
	censusSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{
			"result": {
				"addressMatches": [{
					"coordinates": {"x": -77.0365, "y": 38.8977},
					"addressComponents": {"city": "WASHINGTON", "state": "DC", "zip": "20500"},
					"matchedAddress": "1600 PENNSYLVANIA AVE NW, WASHINGTON, DC, 20500"
				}]
			}
		}`)
	}))
	defer censusSrv.Close()

	g := &geocoder{
		httpClient: newRewriteClient(censusSrv.URL, censusOneLineURL),
		limiter:    newTestLimiter(),
	}

	loc, err := g.Geocode(context.Background(), "1600 Pennsylvania Ave, Washington DC")
	require.NoError(t, err)
	assert.Equal(t, "WASHINGTON", loc.City)
	assert.Equal(t, "DC", loc.State)
	assert.Equal(t, "20500", loc.Zip)
	assert.InDelta(t, 38.8977, loc.Latitude, 1e-9)
	assert.InDelta(t, -77.0365, loc.Longitude, 1e-9)
}

func TestGeocode_EmptyAddress(t *testing.T) {
	var called int
	censusSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		called++
		w.WriteHeader(http.StatusOK)
	}))
	defer censusSrv.Close()

	g := &geocoder{
		httpClient: newRewriteClient(censusSrv.URL, censusOneLineURL),
		limiter:    newTestLimiter(),
	}

	_, err := g.Geocode(context.Background(), "   ")
	require.ErrorIs(t, err, ErrEmptyAddress)
	assert.Equal(t, 0, called, "no network call for empty input")
}

func TestGeocode_ZeroMatches_SyntheticFallback(t *testing.T) {
	censusSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"result": {"addressMatches": []}}`)
	}))
	defer censusSrv.Close()

	g := &geocoder{
		httpClient: newRewriteClient(censusSrv.URL, censusOneLineURL),
		limiter:    newTestLimiter(),
	}

	loc, err := g.Geocode(context.Background(), "000 Nowhere Ln, Faketown")
	require.NoError(t, err)
	assert.Equal(t, *SyntheticLocation("000 Nowhere Ln, Faketown"), *loc)
}

func TestGeocode_ServerError_SyntheticFallback(t *testing.T) {
	censusSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer censusSrv.Close()

	g := &geocoder{
		httpClient: newRewriteClient(censusSrv.URL, censusOneLineURL),
		limiter:    newTestLimiter(),
	}

	loc, err := g.Geocode(context.Background(), "123 Main St, Springfield")
	require.NoError(t, err, "upstream failure never surfaces")
	require.NotNil(t, loc)
	assert.NotEmpty(t, loc.State)
}
