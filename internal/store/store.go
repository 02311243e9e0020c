// Package store provides the persistence layer: the broadband result
// cache keyed by census block GEOID and the property records the HTTP
// API serves. Two backends implement the same interface, SQLite for
// local/demo use and Postgres for deployments.
package store

import (
	"context"
	"time"

	"github.com/rotisserie/eris"

	"github.com/mikedoall/home-data-hub/internal/model"
)

// ErrPropertyNotFound is returned when a property id does not exist.
var ErrPropertyNotFound = eris.New("store: property not found")

// PropertyFilter specifies criteria for listing properties.
type PropertyFilter struct {
	City   string `json:"city,omitempty"`
	State  string `json:"state,omitempty"`
	Zip    string `json:"zip,omitempty"`
	Limit  int    `json:"limit,omitempty"`
	Offset int    `json:"offset,omitempty"`
}

// Store defines the persistence interface. Its broadband cache methods
// satisfy the resolver's Cache dependency directly.
type Store interface {
	// Broadband cache
	GetBroadband(ctx context.Context, geoid string) (*model.BroadbandResult, error)
	PutBroadband(ctx context.Context, geoid string, result *model.BroadbandResult, ttl time.Duration) error
	DeleteExpiredBroadband(ctx context.Context) (int, error)

	// Properties
	CreateProperty(ctx context.Context, p model.Property) (*model.Property, error)
	GetProperty(ctx context.Context, id string) (*model.Property, error)
	ListProperties(ctx context.Context, filter PropertyFilter) ([]model.Property, error)
	UpdatePropertyCoordinates(ctx context.Context, id string, lat, lon float64) error

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}
