package fccload

import (
	"context"
	"strings"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleCSV = `frn,provider_name,block_geoid,technology,max_advertised_download_speed,max_advertised_upload_speed,latitude,longitude
0017963236,Acme Fiber,110010062021031,50,100,20,38.905,-77.032
0017963236,Acme Fiber,110010062021031,70,25,3,38.905,-77.032
0004441778,Beta Cable,110010062021032,42,245,31,,
,No FRN Provider,110010062021033,10,10,1,,
`

func expectUpsert(mock pgxmock.PgxPoolIface, tempTable string, columns []string, rows int64) {
	mock.ExpectBegin()
	mock.ExpectExec(`CREATE TEMP TABLE`).WillReturnResult(pgxmock.NewResult("CREATE", 0))
	mock.ExpectCopyFrom(pgx.Identifier{tempTable}, columns).WillReturnResult(rows)
	mock.ExpectExec(`INSERT INTO`).WillReturnResult(pgxmock.NewResult("INSERT", rows))
	mock.ExpectCommit()
}

func TestLoaderImportsProvidersThenAvailability(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	expectUpsert(mock, "_tmp_upsert_fcc_providers", providerUpsert.Columns, 2)
	expectUpsert(mock, "_tmp_upsert_fcc_availability", availabilityUpsert.Columns, 3)

	loader := NewLoader(mock, 0)
	stats, err := loader.Load(context.Background(), strings.NewReader(sampleCSV))
	require.NoError(t, err)

	assert.Equal(t, int64(2), stats.Providers)
	assert.Equal(t, int64(3), stats.Availability)
	assert.Equal(t, 1, stats.Skipped)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestLoaderBatches(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	// Batch size 2 splits the three valid rows into two flushes.
	expectUpsert(mock, "_tmp_upsert_fcc_providers", providerUpsert.Columns, 1)
	expectUpsert(mock, "_tmp_upsert_fcc_availability", availabilityUpsert.Columns, 2)
	expectUpsert(mock, "_tmp_upsert_fcc_providers", providerUpsert.Columns, 1)
	expectUpsert(mock, "_tmp_upsert_fcc_availability", availabilityUpsert.Columns, 1)

	loader := NewLoader(mock, 2)
	stats, err := loader.Load(context.Background(), strings.NewReader(sampleCSV))
	require.NoError(t, err)

	assert.Equal(t, int64(3), stats.Availability)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestLoaderMissingColumn(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	loader := NewLoader(mock, 0)
	_, err = loader.Load(context.Background(), strings.NewReader("frn,provider_name\n1,Acme\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing")
}

func TestMapHeaderAliases(t *testing.T) {
	fields, err := mapHeader([]string{"FRN", "brand_name", "blockcode", "techcode", "maxaddown", "maxadup"})
	require.NoError(t, err)

	assert.Equal(t, 0, fields["frn"])
	assert.Equal(t, 1, fields["provider_name"])
	assert.Equal(t, 2, fields["block_id"])
	assert.Equal(t, 3, fields["technology_code"])
}

func TestParseRowOptionalCoordinates(t *testing.T) {
	fields, err := mapHeader([]string{"frn", "provider_name", "block_geoid", "technology", "max_download", "max_upload", "latitude", "longitude"})
	require.NoError(t, err)

	row, ok := parseRow([]string{"1", "Acme", "110010062021031", "50", "100", "20", "", ""}, fields)
	require.True(t, ok)
	assert.Nil(t, row.latitude)
	assert.Nil(t, row.longitude)

	row, ok = parseRow([]string{"1", "Acme", "110010062021031", "50", "100", "20", "38.9", "-77.0"}, fields)
	require.True(t, ok)
	assert.Equal(t, 38.9, row.latitude)
	assert.Equal(t, -77.0, row.longitude)
}
