package store

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/mikedoall/home-data-hub/internal/db"
	"github.com/mikedoall/home-data-hub/internal/model"
)

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool    db.Pool
	closeFn func()
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// preparedStatements lists queries to prepare on each new connection for
// faster execution of the hot cache path.
var preparedStatements = map[string]string{
	"get_broadband":  `SELECT payload FROM broadband_cache WHERE geoid = $1 AND expires_at > now()`,
	"put_broadband":  `INSERT INTO broadband_cache (geoid, payload, fetched_at, expires_at) VALUES ($1, $2, $3, $4) ON CONFLICT (geoid) DO UPDATE SET payload = $2, fetched_at = $3, expires_at = $4`,
	"get_property":   `SELECT id, address, city, state, zip, latitude, longitude, property_type, sqft, beds, baths, price, created_at, updated_at FROM properties WHERE id = $1`,
	"delete_expired": `DELETE FROM broadband_cache WHERE expires_at <= now()`,
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	// Apply pool sizing from config with sensible defaults.
	maxConns := int32(10)
	minConns := int32(2)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	// Prepare frequently-used statements on each new connection.
	pgxCfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		for name, sql := range preparedStatements {
			if _, err := conn.Prepare(ctx, name, sql); err != nil {
				return eris.Wrapf(err, "postgres: prepare %s", name)
			}
		}
		return nil
	}

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

// Pool returns the underlying database pool for subsystems that need
// direct query access (the availability mirror and the FCC loader).
func (s *PostgresStore) Pool() db.Pool {
	return s.pool
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS broadband_cache (
	geoid      TEXT PRIMARY KEY,
	payload    JSONB NOT NULL,
	fetched_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	expires_at TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS properties (
	id            TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	address       TEXT NOT NULL,
	city          TEXT NOT NULL,
	state         TEXT NOT NULL,
	zip           TEXT NOT NULL,
	latitude      DOUBLE PRECISION NOT NULL DEFAULT 0,
	longitude     DOUBLE PRECISION NOT NULL DEFAULT 0,
	property_type TEXT,
	sqft          INTEGER,
	beds          INTEGER,
	baths         DOUBLE PRECISION,
	price         INTEGER,
	created_at    TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at    TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS fcc_providers (
	frn           TEXT PRIMARY KEY,
	provider_name TEXT NOT NULL,
	loaded_at     TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS fcc_availability (
	id              BIGSERIAL PRIMARY KEY,
	frn             TEXT NOT NULL REFERENCES fcc_providers(frn),
	block_id        TEXT NOT NULL,
	technology_code TEXT NOT NULL,
	max_download    DOUBLE PRECISION NOT NULL DEFAULT 0,
	max_upload      DOUBLE PRECISION NOT NULL DEFAULT 0,
	latitude        DOUBLE PRECISION,
	longitude       DOUBLE PRECISION,
	loaded_at       TIMESTAMPTZ NOT NULL DEFAULT now(),
	UNIQUE (frn, block_id, technology_code)
);

CREATE INDEX IF NOT EXISTS idx_broadband_cache_expires_at ON broadband_cache(expires_at);
CREATE INDEX IF NOT EXISTS idx_properties_city_state ON properties(city, state);
CREATE INDEX IF NOT EXISTS idx_properties_zip ON properties(zip);
CREATE INDEX IF NOT EXISTS idx_fcc_availability_block ON fcc_availability(block_id);
CREATE INDEX IF NOT EXISTS idx_fcc_availability_coords ON fcc_availability(latitude, longitude);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, "SELECT 1")
	return eris.Wrap(err, "postgres: ping")
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

func (s *PostgresStore) GetBroadband(ctx context.Context, geoid string) (*model.BroadbandResult, error) {
	var payload []byte
	err := s.pool.QueryRow(ctx,
		`SELECT payload FROM broadband_cache
		 WHERE geoid = $1 AND expires_at > now()`,
		geoid,
	).Scan(&payload)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, eris.Wrap(err, "postgres: get broadband cache")
	}

	var result model.BroadbandResult
	if err := json.Unmarshal(payload, &result); err != nil {
		return nil, eris.Wrap(err, "postgres: unmarshal cached result")
	}
	return &result, nil
}

func (s *PostgresStore) PutBroadband(ctx context.Context, geoid string, result *model.BroadbandResult, ttl time.Duration) error {
	payload, err := json.Marshal(result)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal result")
	}

	now := time.Now().UTC()
	_, err = s.pool.Exec(ctx,
		`INSERT INTO broadband_cache (geoid, payload, fetched_at, expires_at) VALUES ($1, $2, $3, $4)
		 ON CONFLICT (geoid) DO UPDATE SET payload = $2, fetched_at = $3, expires_at = $4`,
		geoid, payload, now, now.Add(ttl),
	)
	return eris.Wrap(err, "postgres: put broadband cache")
}

func (s *PostgresStore) DeleteExpiredBroadband(ctx context.Context) (int, error) {
	tag, err := s.pool.Exec(ctx,
		`DELETE FROM broadband_cache WHERE expires_at <= now()`,
	)
	if err != nil {
		return 0, eris.Wrap(err, "postgres: delete expired cache")
	}
	return int(tag.RowsAffected()), nil
}

func (s *PostgresStore) CreateProperty(ctx context.Context, p model.Property) (*model.Property, error) {
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	p.CreatedAt = now
	p.UpdatedAt = now

	_, err := s.pool.Exec(ctx,
		`INSERT INTO properties (id, address, city, state, zip, latitude, longitude,
		   property_type, sqft, beds, baths, price, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`,
		p.ID, p.Address, p.City, p.State, p.Zip, p.Latitude, p.Longitude,
		p.PropertyType, p.Sqft, p.Beds, p.Baths, p.Price, now, now,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: insert property")
	}
	return &p, nil
}

func (s *PostgresStore) GetProperty(ctx context.Context, id string) (*model.Property, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT id, address, city, state, zip, latitude, longitude,
		   property_type, sqft, beds, baths, price, created_at, updated_at
		 FROM properties WHERE id = $1`,
		id,
	)

	p, err := scanPgProperty(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrPropertyNotFound
		}
		return nil, eris.Wrap(err, "postgres: get property")
	}
	return p, nil
}

func (s *PostgresStore) ListProperties(ctx context.Context, filter PropertyFilter) ([]model.Property, error) {
	query := `SELECT id, address, city, state, zip, latitude, longitude,
		property_type, sqft, beds, baths, price, created_at, updated_at
		FROM properties WHERE 1=1`
	var args []any

	if filter.City != "" {
		args = append(args, filter.City)
		query += ` AND city = $` + strconv.Itoa(len(args))
	}
	if filter.State != "" {
		args = append(args, filter.State)
		query += ` AND state = $` + strconv.Itoa(len(args))
	}
	if filter.Zip != "" {
		args = append(args, filter.Zip)
		query += ` AND zip = $` + strconv.Itoa(len(args))
	}
	query += ` ORDER BY created_at DESC, id`

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	args = append(args, limit)
	query += ` LIMIT $` + strconv.Itoa(len(args))

	if filter.Offset > 0 {
		args = append(args, filter.Offset)
		query += ` OFFSET $` + strconv.Itoa(len(args))
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list properties")
	}
	defer rows.Close()

	var properties []model.Property
	for rows.Next() {
		p, err := scanPgProperty(rows)
		if err != nil {
			return nil, eris.Wrap(err, "postgres: scan property")
		}
		properties = append(properties, *p)
	}
	return properties, eris.Wrap(rows.Err(), "postgres: list properties iterate")
}

func (s *PostgresStore) UpdatePropertyCoordinates(ctx context.Context, id string, lat, lon float64) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE properties SET latitude = $1, longitude = $2, updated_at = $3 WHERE id = $4`,
		lat, lon, time.Now().UTC(), id,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: update property coordinates %s", id)
	}
	if tag.RowsAffected() == 0 {
		return eris.Wrapf(ErrPropertyNotFound, "%s", id)
	}
	return nil
}

func scanPgProperty(row scannable) (*model.Property, error) {
	var p model.Property
	var propertyType *string
	var sqft, beds, price *int
	var baths *float64

	err := row.Scan(&p.ID, &p.Address, &p.City, &p.State, &p.Zip,
		&p.Latitude, &p.Longitude, &propertyType, &sqft, &beds, &baths, &price,
		&p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}

	if propertyType != nil {
		p.PropertyType = *propertyType
	}
	if sqft != nil {
		p.Sqft = *sqft
	}
	if beds != nil {
		p.Beds = *beds
	}
	if baths != nil {
		p.Baths = *baths
	}
	if price != nil {
		p.Price = *price
	}
	return &p, nil
}
