package broadband

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const bdcMapFixture = `{
  "features": [
    {"attributes": {"ProviderName": "Acme Fiber", "FRN": "0001", "TechCode": "20", "MaxAdDown": 1000, "MaxAdUp": 1000}},
    {"attributes": {"ProviderName": "Delta Satellite", "FRN": "", "TechCode": "50", "MaxAdDown": 100, "MaxAdUp": 12}}
  ]
}`

func TestBDCMapFetchByCoordinates(t *testing.T) {
	var gotQuery map[string][]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query()
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(bdcMapFixture))
	}))
	defer srv.Close()

	src := NewBDCMapSource(WithBDCMapBaseURL(srv.URL))
	records, err := src.FetchByCoordinates(context.Background(), 38.9, -77.03)
	require.NoError(t, err)

	// Geometry is lon,lat per the ArcGIS convention.
	assert.Equal(t, []string{"-77.030000,38.900000"}, gotQuery["geometry"])
	assert.Equal(t, []string{"esriGeometryPoint"}, gotQuery["geometryType"])
	assert.Equal(t, []string{"4326"}, gotQuery["inSR"])

	require.Len(t, records, 2)
	assert.Equal(t, "0001", records[0].FRN)
	// A missing FRN falls back to the provider name as identity.
	assert.Equal(t, "Delta Satellite", records[1].FRN)
	assert.Equal(t, "50", records[1].TechnologyCode)
}

func TestBDCMapServerErrorIsSourceError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	src := NewBDCMapSource(WithBDCMapBaseURL(srv.URL))
	_, err := src.FetchByCoordinates(context.Background(), 38.9, -77.03)
	require.Error(t, err)

	var srcErr *SourceError
	require.ErrorAs(t, err, &srcErr)
	assert.Equal(t, "bdcmap", srcErr.Source)
}

func TestBDCMapBlockUnsupported(t *testing.T) {
	src := NewBDCMapSource()
	_, err := src.FetchByBlock(context.Background(), testGEOID)
	require.ErrorIs(t, err, ErrUnsupportedQuery)
}
