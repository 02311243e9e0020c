// Package model defines the core data shapes shared across the broadband
// resolution pipeline and the property store.
package model

import "time"

// Location is the geocoder's output for a free-text address. It is a
// transient resolution artifact and is never persisted on its own.
type Location struct {
	Address   string  `json:"address"`
	City      string  `json:"city"`
	State     string  `json:"state"`
	Zip       string  `json:"zip"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// CensusBlock identifies the 2020 census block containing a coordinate
// pair. GEOID is the unique key used for broadband caching.
type CensusBlock struct {
	GEOID     string  `json:"geoid"`
	State     string  `json:"state"`
	County    string  `json:"county"`
	Tract     string  `json:"tract"`
	Block     string  `json:"block"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Name      string  `json:"name"`
}

// RawProviderRecord is a single source-specific availability record.
// One provider typically appears in several records, one per technology.
type RawProviderRecord struct {
	FRN            string  `json:"frn"`
	ProviderName   string  `json:"provider_name"`
	TechnologyCode string  `json:"technology_code"`
	MaxDownload    float64 `json:"max_download"`
	MaxUpload      float64 `json:"max_upload"`
}

// NormalizedProvider aggregates all raw records for one provider at a
// location. Technologies holds deduplicated human-readable names;
// MaxDownload/MaxUpload are the maxima across every record, never an
// average and never the last-seen value.
type NormalizedProvider struct {
	Name         string   `json:"name"`
	Technologies []string `json:"technologies"`
	MaxDownload  int      `json:"max_download"`
	MaxUpload    int      `json:"max_upload"`
	Source       string   `json:"source"`
}

// BroadbandResult is the pipeline's terminal output. Provider ordering is
// the first-seen order of FRNs in the raw data and must be preserved.
type BroadbandResult struct {
	Providers []NormalizedProvider `json:"providers"`
	Message   string               `json:"message"`
	Source    string               `json:"source"`
	GEOID     string               `json:"geoid,omitempty"`
	Error     bool                 `json:"error"`
}

// CacheEntry is a persisted BroadbandResult keyed by GEOID. Expiry is
// checked at read time; entries are only removed by overwrite or an
// explicit sweep.
type CacheEntry struct {
	GEOID     string          `json:"geoid"`
	Payload   BroadbandResult `json:"payload"`
	FetchedAt time.Time       `json:"fetched_at"`
	ExpiresAt time.Time       `json:"expires_at"`
}

// Expired reports whether the entry's TTL has elapsed at the given time.
// An entry is unusable at exactly its expiry instant, matching the
// strict comparison the stores use on read.
func (e CacheEntry) Expired(now time.Time) bool {
	return !now.Before(e.ExpiresAt)
}
