package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/mikedoall/home-data-hub/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS broadband_cache (
	geoid      TEXT PRIMARY KEY,
	payload    TEXT NOT NULL,
	fetched_at DATETIME NOT NULL DEFAULT (datetime('now')),
	expires_at DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS properties (
	id            TEXT PRIMARY KEY,
	address       TEXT NOT NULL,
	city          TEXT NOT NULL,
	state         TEXT NOT NULL,
	zip           TEXT NOT NULL,
	latitude      REAL NOT NULL DEFAULT 0,
	longitude     REAL NOT NULL DEFAULT 0,
	property_type TEXT,
	sqft          INTEGER,
	beds          INTEGER,
	baths         REAL,
	price         INTEGER,
	created_at    DATETIME NOT NULL DEFAULT (datetime('now')),
	updated_at    DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_broadband_cache_expires_at ON broadband_cache(expires_at);
CREATE INDEX IF NOT EXISTS idx_properties_city_state ON properties(city, state);
CREATE INDEX IF NOT EXISTS idx_properties_zip ON properties(zip);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) GetBroadband(ctx context.Context, geoid string) (*model.BroadbandResult, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT payload FROM broadband_cache
		 WHERE geoid = ? AND expires_at > datetime('now')`,
		geoid,
	)

	var payload string
	err := row.Scan(&payload)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: get broadband cache")
	}

	var result model.BroadbandResult
	if err := json.Unmarshal([]byte(payload), &result); err != nil {
		return nil, eris.Wrap(err, "sqlite: unmarshal cached result")
	}
	return &result, nil
}

func (s *SQLiteStore) PutBroadband(ctx context.Context, geoid string, result *model.BroadbandResult, ttl time.Duration) error {
	payload, err := json.Marshal(result)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal result")
	}

	now := time.Now().UTC()
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO broadband_cache (geoid, payload, fetched_at, expires_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT(geoid) DO UPDATE SET payload = excluded.payload,
		   fetched_at = excluded.fetched_at, expires_at = excluded.expires_at`,
		geoid, string(payload), now, now.Add(ttl),
	)
	return eris.Wrap(err, "sqlite: put broadband cache")
}

func (s *SQLiteStore) DeleteExpiredBroadband(ctx context.Context) (int, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM broadband_cache WHERE expires_at <= datetime('now')`,
	)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: delete expired cache")
	}
	n, err := res.RowsAffected()
	return int(n), eris.Wrap(err, "sqlite: rows affected")
}

func (s *SQLiteStore) CreateProperty(ctx context.Context, p model.Property) (*model.Property, error) {
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	p.CreatedAt = now
	p.UpdatedAt = now

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO properties (id, address, city, state, zip, latitude, longitude,
		   property_type, sqft, beds, baths, price, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.Address, p.City, p.State, p.Zip, p.Latitude, p.Longitude,
		p.PropertyType, p.Sqft, p.Beds, p.Baths, p.Price, now, now,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: insert property")
	}
	return &p, nil
}

func (s *SQLiteStore) GetProperty(ctx context.Context, id string) (*model.Property, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, address, city, state, zip, latitude, longitude,
		   property_type, sqft, beds, baths, price, created_at, updated_at
		 FROM properties WHERE id = ?`,
		id,
	)
	return scanProperty(row)
}

func (s *SQLiteStore) ListProperties(ctx context.Context, filter PropertyFilter) ([]model.Property, error) {
	query := `SELECT id, address, city, state, zip, latitude, longitude,
		property_type, sqft, beds, baths, price, created_at, updated_at
		FROM properties WHERE 1=1`
	var args []any

	if filter.City != "" {
		query += ` AND city = ?`
		args = append(args, filter.City)
	}
	if filter.State != "" {
		query += ` AND state = ?`
		args = append(args, filter.State)
	}
	if filter.Zip != "" {
		query += ` AND zip = ?`
		args = append(args, filter.Zip)
	}
	query += ` ORDER BY created_at DESC, id`

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	query += ` LIMIT ?`
	args = append(args, limit)

	if filter.Offset > 0 {
		query += ` OFFSET ?`
		args = append(args, filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list properties")
	}
	defer rows.Close()

	var properties []model.Property
	for rows.Next() {
		p, err := scanProperty(rows)
		if err != nil {
			return nil, err
		}
		properties = append(properties, *p)
	}
	return properties, eris.Wrap(rows.Err(), "sqlite: list properties iterate")
}

func (s *SQLiteStore) UpdatePropertyCoordinates(ctx context.Context, id string, lat, lon float64) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE properties SET latitude = ?, longitude = ?, updated_at = ? WHERE id = ?`,
		lat, lon, time.Now().UTC(), id,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: update property coordinates %s", id)
	}
	return checkRowsAffected(res, id)
}

// helpers

func checkRowsAffected(res sql.Result, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "rows affected")
	}
	if n == 0 {
		return eris.Wrapf(ErrPropertyNotFound, "%s", id)
	}
	return nil
}

type scannable interface {
	Scan(dest ...any) error
}

func scanProperty(row scannable) (*model.Property, error) {
	var p model.Property
	var propertyType sql.NullString
	var sqft, beds, price sql.NullInt64
	var baths sql.NullFloat64

	err := row.Scan(&p.ID, &p.Address, &p.City, &p.State, &p.Zip,
		&p.Latitude, &p.Longitude, &propertyType, &sqft, &beds, &baths, &price,
		&p.CreatedAt, &p.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrPropertyNotFound
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: scan property")
	}

	p.PropertyType = propertyType.String
	p.Sqft = int(sqft.Int64)
	p.Beds = int(beds.Int64)
	p.Baths = baths.Float64
	p.Price = int(price.Int64)
	return &p, nil
}
