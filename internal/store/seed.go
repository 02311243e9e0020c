package store

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/mikedoall/home-data-hub/internal/model"
)

// sampleProperties is the demo dataset loaded into an empty store so the
// API has something to serve before real listings are imported.
var sampleProperties = []model.Property{
	{
		ID:           "prop-austin-1",
		Address:      "2207 Leon St",
		City:         "Austin",
		State:        "TX",
		Zip:          "78705",
		Latitude:     30.2861,
		Longitude:    -97.7474,
		PropertyType: "condo",
		Sqft:         850,
		Beds:         2,
		Baths:        1,
		Price:        315000,
	},
	{
		ID:           "prop-denver-1",
		Address:      "1490 Lafayette St",
		City:         "Denver",
		State:        "CO",
		Zip:          "80218",
		Latitude:     39.7408,
		Longitude:    -104.9703,
		PropertyType: "single-family",
		Sqft:         2100,
		Beds:         4,
		Baths:        2.5,
		Price:        725000,
	},
	{
		ID:           "prop-seattle-1",
		Address:      "516 E Thomas St",
		City:         "Seattle",
		State:        "WA",
		Zip:          "98102",
		Latitude:     47.6206,
		Longitude:    -122.3249,
		PropertyType: "townhouse",
		Sqft:         1400,
		Beds:         3,
		Baths:        2,
		Price:        899000,
	},
	{
		ID:           "prop-raleigh-1",
		Address:      "310 S Harrington St",
		City:         "Raleigh",
		State:        "NC",
		Zip:          "27601",
		Latitude:     35.7773,
		Longitude:    -78.6439,
		PropertyType: "condo",
		Sqft:         1100,
		Beds:         2,
		Baths:        2,
		Price:        410000,
	},
}

// Seed inserts the sample properties into an empty store. A store that
// already holds properties is left untouched.
func Seed(ctx context.Context, s Store) (int, error) {
	existing, err := s.ListProperties(ctx, PropertyFilter{Limit: 1})
	if err != nil {
		return 0, eris.Wrap(err, "store: check before seed")
	}
	if len(existing) > 0 {
		zap.L().Debug("store: already populated, skipping seed")
		return 0, nil
	}

	for _, p := range sampleProperties {
		if _, err := s.CreateProperty(ctx, p); err != nil {
			return 0, eris.Wrapf(err, "store: seed property %s", p.ID)
		}
	}

	zap.L().Info("store: seeded sample properties", zap.Int("count", len(sampleProperties)))
	return len(sampleProperties), nil
}
