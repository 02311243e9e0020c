package broadband

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/mikedoall/home-data-hub/internal/db"
	"github.com/mikedoall/home-data-hub/internal/model"
)

// mirrorRadius is the bounding-box half-width in degrees (~1 km). Exact
// block matching is unavailable in the bulk data, so nearby records are
// accepted as a precision/recall trade-off.
const mirrorRadius = 0.01

// mirrorLimit caps how many availability rows one lookup considers.
const mirrorLimit = 50

// MirrorSource reads availability from the locally mirrored FCC tables
// populated by the fccload importer. It has no external dependency and
// is therefore first in the default priority order.
type MirrorSource struct {
	pool db.Pool
}

// NewMirrorSource creates a MirrorSource over the given pool.
func NewMirrorSource(pool db.Pool) *MirrorSource {
	return &MirrorSource{pool: pool}
}

// Name implements Source.
func (s *MirrorSource) Name() string { return "mirror" }

const mirrorByBlockSQL = `
SELECT a.frn, p.provider_name, a.technology_code, a.max_download, a.max_upload
FROM fcc_availability a
JOIN fcc_providers p ON p.frn = a.frn
WHERE a.block_id = $1
ORDER BY a.id
LIMIT $2`

// FetchByBlock returns mirror records matching the block id exactly.
func (s *MirrorSource) FetchByBlock(ctx context.Context, geoid string) ([]model.RawProviderRecord, error) {
	rows, err := s.pool.Query(ctx, mirrorByBlockSQL, geoid, mirrorLimit)
	if err != nil {
		return nil, newSourceError(s.Name(), eris.Wrap(err, "block query"))
	}
	defer rows.Close()

	return s.scanRecords(rows)
}

const mirrorByCoordsSQL = `
SELECT a.frn, p.provider_name, a.technology_code, a.max_download, a.max_upload
FROM fcc_availability a
JOIN fcc_providers p ON p.frn = a.frn
WHERE a.latitude BETWEEN $1 AND $2
  AND a.longitude BETWEEN $3 AND $4
ORDER BY a.id
LIMIT $5`

// FetchByCoordinates returns mirror records within the bounding box
// around the target point.
func (s *MirrorSource) FetchByCoordinates(ctx context.Context, lat, lon float64) ([]model.RawProviderRecord, error) {
	rows, err := s.pool.Query(ctx, mirrorByCoordsSQL,
		lat-mirrorRadius, lat+mirrorRadius,
		lon-mirrorRadius, lon+mirrorRadius,
		mirrorLimit,
	)
	if err != nil {
		return nil, newSourceError(s.Name(), eris.Wrap(err, "bounding box query"))
	}
	defer rows.Close()

	return s.scanRecords(rows)
}

func (s *MirrorSource) scanRecords(rows pgx.Rows) ([]model.RawProviderRecord, error) {
	var records []model.RawProviderRecord
	for rows.Next() {
		var rec model.RawProviderRecord
		if err := rows.Scan(&rec.FRN, &rec.ProviderName, &rec.TechnologyCode, &rec.MaxDownload, &rec.MaxUpload); err != nil {
			return nil, newSourceError(s.Name(), eris.Wrap(err, "scan row"))
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, newSourceError(s.Name(), eris.Wrap(err, "rows iteration"))
	}

	zap.L().Debug("mirror: fetched records", zap.Int("count", len(records)))
	return records, nil
}
