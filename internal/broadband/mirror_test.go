package broadband

import (
	"context"
	"testing"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMirrorFetchByBlock(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	rows := pgxmock.NewRows([]string{"frn", "provider_name", "technology_code", "max_download", "max_upload"}).
		AddRow("0001", "Acme Fiber", "20", 1000.0, 1000.0).
		AddRow("0002", "Beta Cable", "31", 400.0, 20.0)

	mock.ExpectQuery(`SELECT a\.frn, p\.provider_name, a\.technology_code`).
		WithArgs(testGEOID, mirrorLimit).
		WillReturnRows(rows)

	src := NewMirrorSource(mock)
	records, err := src.FetchByBlock(context.Background(), testGEOID)
	require.NoError(t, err)

	require.Len(t, records, 2)
	assert.Equal(t, "Acme Fiber", records[0].ProviderName)
	assert.Equal(t, "20", records[0].TechnologyCode)
	assert.Equal(t, 1000.0, records[0].MaxDownload)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestMirrorFetchByCoordinatesBoundingBox(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	lat, lon := 38.9, -77.03
	rows := pgxmock.NewRows([]string{"frn", "provider_name", "technology_code", "max_download", "max_upload"}).
		AddRow("0003", "Gamma Wireless", "42", 245.0, 31.0)

	mock.ExpectQuery(`WHERE a\.latitude BETWEEN`).
		WithArgs(lat-mirrorRadius, lat+mirrorRadius, lon-mirrorRadius, lon+mirrorRadius, mirrorLimit).
		WillReturnRows(rows)

	src := NewMirrorSource(mock)
	records, err := src.FetchByCoordinates(context.Background(), lat, lon)
	require.NoError(t, err)

	require.Len(t, records, 1)
	assert.Equal(t, "Gamma Wireless", records[0].ProviderName)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestMirrorQueryErrorIsSourceError(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectQuery(`SELECT a\.frn`).
		WithArgs(testGEOID, mirrorLimit).
		WillReturnError(assertableErr{})

	src := NewMirrorSource(mock)
	_, err = src.FetchByBlock(context.Background(), testGEOID)
	require.Error(t, err)

	var srcErr *SourceError
	require.ErrorAs(t, err, &srcErr)
	assert.Equal(t, "mirror", srcErr.Source)
}

type assertableErr struct{}

func (assertableErr) Error() string { return "relation does not exist" }
