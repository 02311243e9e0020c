// Package fccload imports FCC broadband availability CSV exports into
// the local mirror tables the resolver's mirror source queries.
package fccload

import (
	"context"
	"encoding/csv"
	"io"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/mikedoall/home-data-hub/internal/db"
)

// DefaultBatchSize is how many availability rows are upserted per batch.
const DefaultBatchSize = 5000

// Stats summarizes one import run.
type Stats struct {
	Providers    int64
	Availability int64
	Skipped      int
}

// Loader streams an availability CSV into the fcc_providers and
// fcc_availability tables.
type Loader struct {
	pool      db.Pool
	batchSize int
}

// NewLoader creates a Loader. A batchSize of zero uses the default.
func NewLoader(pool db.Pool, batchSize int) *Loader {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	return &Loader{pool: pool, batchSize: batchSize}
}

var providerUpsert = db.UpsertConfig{
	Table:        "fcc_providers",
	Columns:      []string{"frn", "provider_name"},
	ConflictKeys: []string{"frn"},
}

var availabilityUpsert = db.UpsertConfig{
	Table:        "fcc_availability",
	Columns:      []string{"frn", "block_id", "technology_code", "max_download", "max_upload", "latitude", "longitude"},
	ConflictKeys: []string{"frn", "block_id", "technology_code"},
}

// columnAliases maps the header names seen across FCC export vintages to
// the canonical field each feeds.
var columnAliases = map[string]string{
	"frn":                           "frn",
	"provider_name":                 "provider_name",
	"brand_name":                    "provider_name",
	"block_geoid":                   "block_id",
	"block_id":                      "block_id",
	"blockcode":                     "block_id",
	"technology":                    "technology_code",
	"technology_code":               "technology_code",
	"techcode":                      "technology_code",
	"max_advertised_download_speed": "max_download",
	"max_download":                  "max_download",
	"maxaddown":                     "max_download",
	"max_advertised_upload_speed":   "max_upload",
	"max_upload":                    "max_upload",
	"maxadup":                       "max_upload",
	"latitude":                      "latitude",
	"longitude":                     "longitude",
}

// requiredFields must all be present in the header for an import to start.
var requiredFields = []string{"frn", "provider_name", "block_id", "technology_code", "max_download", "max_upload"}

type csvRow struct {
	frn         string
	provider    string
	blockID     string
	techCode    string
	maxDownload float64
	maxUpload   float64
	latitude    any
	longitude   any
}

// Load streams the CSV from r into the mirror tables. Rows missing an
// FRN or block id are counted as skipped, never fatal.
func (l *Loader) Load(ctx context.Context, r io.Reader) (*Stats, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, eris.Wrap(err, "fccload: read header")
	}
	fields, err := mapHeader(header)
	if err != nil {
		return nil, err
	}

	stats := &Stats{}
	providers := make(map[string]string)
	var batch []csvRow

	flush := func() error {
		if err := l.flushProviders(ctx, providers, stats); err != nil {
			return err
		}
		if len(batch) == 0 {
			return nil
		}
		rows := make([][]any, 0, len(batch))
		for _, row := range batch {
			rows = append(rows, []any{
				row.frn, row.blockID, row.techCode,
				row.maxDownload, row.maxUpload, row.latitude, row.longitude,
			})
		}
		n, err := db.BulkUpsert(ctx, l.pool, availabilityUpsert, rows)
		if err != nil {
			return eris.Wrap(err, "fccload: upsert availability")
		}
		stats.Availability += n
		batch = batch[:0]
		return nil
	}

	for {
		if err := ctx.Err(); err != nil {
			return nil, eris.Wrap(err, "fccload: cancelled")
		}

		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, eris.Wrap(err, "fccload: read row")
		}

		row, ok := parseRow(record, fields)
		if !ok {
			stats.Skipped++
			continue
		}

		providers[row.frn] = row.provider
		batch = append(batch, row)

		if len(batch) >= l.batchSize {
			if err := flush(); err != nil {
				return nil, err
			}
		}
	}

	if err := flush(); err != nil {
		return nil, err
	}

	zap.L().Info("fccload: import complete",
		zap.Int64("providers", stats.Providers),
		zap.Int64("availability", stats.Availability),
		zap.Int("skipped", stats.Skipped),
	)
	return stats, nil
}

// flushProviders upserts the provider rows accumulated so far. Providers
// go first so the availability foreign key always resolves.
func (l *Loader) flushProviders(ctx context.Context, providers map[string]string, stats *Stats) error {
	if len(providers) == 0 {
		return nil
	}
	rows := make([][]any, 0, len(providers))
	for frn, name := range providers {
		rows = append(rows, []any{frn, name})
	}
	n, err := db.BulkUpsert(ctx, l.pool, providerUpsert, rows)
	if err != nil {
		return eris.Wrap(err, "fccload: upsert providers")
	}
	stats.Providers += n
	for frn := range providers {
		delete(providers, frn)
	}
	return nil
}

// mapHeader resolves each canonical field to its column index.
func mapHeader(header []string) (map[string]int, error) {
	fields := make(map[string]int)
	for i, col := range header {
		name := strings.ToLower(strings.TrimSpace(col))
		if field, ok := columnAliases[name]; ok {
			if _, seen := fields[field]; !seen {
				fields[field] = i
			}
		}
	}
	for _, f := range requiredFields {
		if _, ok := fields[f]; !ok {
			return nil, eris.Errorf("fccload: header missing %s column", f)
		}
	}
	return fields, nil
}

func parseRow(record []string, fields map[string]int) (csvRow, bool) {
	get := func(field string) string {
		i, ok := fields[field]
		if !ok || i >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[i])
	}

	row := csvRow{
		frn:      get("frn"),
		provider: get("provider_name"),
		blockID:  get("block_id"),
		techCode: get("technology_code"),
	}
	if row.frn == "" || row.blockID == "" || row.techCode == "" {
		return csvRow{}, false
	}

	row.maxDownload, _ = strconv.ParseFloat(get("max_download"), 64)
	row.maxUpload, _ = strconv.ParseFloat(get("max_upload"), 64)

	// Coordinates are optional; NULL beats a fake 0,0 off the African coast.
	if lat, err := strconv.ParseFloat(get("latitude"), 64); err == nil {
		row.latitude = lat
	}
	if lon, err := strconv.ParseFloat(get("longitude"), 64); err == nil {
		row.longitude = lon
	}
	return row, true
}
