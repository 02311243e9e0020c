// Package broadband implements the broadband availability resolution
// pipeline: source adapters for FCC availability data, provider
// normalization, result caching, and the orchestrating resolver.
package broadband

import (
	"context"
	"fmt"

	"github.com/rotisserie/eris"

	"github.com/mikedoall/home-data-hub/internal/model"
)

// ErrUnsupportedQuery is returned by a Source for a lookup mode it does
// not serve (e.g. a coordinate-only source asked for a block query). The
// resolver skips the source and tries the next one.
var ErrUnsupportedQuery = eris.New("broadband: unsupported query mode")

// Source is a single upstream broadband availability data service. Each
// implementation owns its wire format and translates its technology
// codes before records leave the adapter boundary.
type Source interface {
	Name() string

	// FetchByBlock returns raw availability records for a census block.
	FetchByBlock(ctx context.Context, geoid string) ([]model.RawProviderRecord, error)

	// FetchByCoordinates returns raw availability records near a point.
	FetchByCoordinates(ctx context.Context, lat, lon float64) ([]model.RawProviderRecord, error)
}

// SourceError marks an adapter failure (network, non-2xx status,
// malformed payload). The resolver treats it as "skip this source",
// never as a pipeline failure.
type SourceError struct {
	Source string
	Err    error
}

func (e *SourceError) Error() string {
	return fmt.Sprintf("broadband: source %s: %v", e.Source, e.Err)
}

func (e *SourceError) Unwrap() error { return e.Err }

// newSourceError wraps err with the source name, passing nil through.
func newSourceError(source string, err error) error {
	if err == nil {
		return nil
	}
	return &SourceError{Source: source, Err: err}
}
