package geocode

import (
	"fmt"

	"github.com/mikedoall/home-data-hub/internal/model"
)

// SyntheticLocation derives a deterministic Location from a hash of the
// input address. Identical inputs always yield identical output, which
// keeps demos and tests reproducible when no geocoding service is
// reachable. It never implies a genuine geocode.
func SyntheticLocation(address string) *model.Location {
	h := hashString(address)

	state := syntheticStates[h%uint32(len(syntheticStates))]
	city := syntheticCities[hashString(address+"city")%uint32(len(syntheticCities))]

	centroid := stateCentroids[state]
	// Offset within ±0.05 degrees of the state centroid.
	latOffset := float64(hashString(address+"lat")%100)*0.001 - 0.05
	lonOffset := float64(hashString(address+"lon")%100)*0.001 - 0.05

	zip := fmt.Sprintf("%s%03d", zipPrefixes[state], hashString(address+state)%1000)

	return &model.Location{
		Address:   address,
		City:      city,
		State:     state,
		Zip:       zip,
		Latitude:  centroid.lat + latOffset,
		Longitude: centroid.lon + lonOffset,
	}
}

// hashString is a 31-multiplier string hash reduced to a non-negative
// 32-bit value. The exact function is part of the fallback contract:
// changing it changes every synthetic location.
func hashString(s string) uint32 {
	var h int32
	for _, r := range s {
		h = h*31 + int32(r)
	}
	if h < 0 {
		return uint32(-int64(h))
	}
	return uint32(h)
}

var syntheticCities = []string{
	"Los Angeles", "San Francisco", "New York", "Chicago", "Miami",
	"Seattle", "Portland", "Austin", "Denver", "Boston", "Philadelphia",
	"Atlanta", "Dallas", "Houston", "Phoenix", "San Diego", "Las Vegas",
}

var syntheticStates = []string{
	"AL", "AK", "AZ", "AR", "CA", "CO", "CT", "DE", "FL", "GA",
	"HI", "ID", "IL", "IN", "IA", "KS", "KY", "LA", "ME", "MD",
	"MA", "MI", "MN", "MS", "MO", "MT", "NE", "NV", "NH", "NJ",
	"NM", "NY", "NC", "ND", "OH", "OK", "OR", "PA", "RI", "SC",
	"SD", "TN", "TX", "UT", "VT", "VA", "WA", "WV", "WI", "WY",
}

// zipPrefixes maps each state to a common two-digit ZIP prefix.
var zipPrefixes = map[string]string{
	"AL": "35", "AK": "99", "AZ": "85", "AR": "72",
	"CA": "90", "CO": "80", "CT": "06", "DE": "19",
	"FL": "33", "GA": "30", "HI": "96", "ID": "83",
	"IL": "60", "IN": "46", "IA": "50", "KS": "66",
	"KY": "40", "LA": "70", "ME": "04", "MD": "21",
	"MA": "02", "MI": "48", "MN": "55", "MS": "39",
	"MO": "63", "MT": "59", "NE": "68", "NV": "89",
	"NH": "03", "NJ": "07", "NM": "87", "NY": "10",
	"NC": "27", "ND": "58", "OH": "44", "OK": "73",
	"OR": "97", "PA": "15", "RI": "02", "SC": "29",
	"SD": "57", "TN": "37", "TX": "75", "UT": "84",
	"VT": "05", "VA": "22", "WA": "98", "WV": "25",
	"WI": "53", "WY": "82",
}

type coord struct {
	lat, lon float64
}

// stateCentroids holds approximate geographic centers for each state.
var stateCentroids = map[string]coord{
	"AL": {32.7794, -86.8287}, "AK": {64.0685, -152.2782}, "AZ": {34.2744, -111.6602},
	"AR": {34.8938, -92.4426}, "CA": {37.1841, -119.4696}, "CO": {38.9972, -105.5478},
	"CT": {41.6219, -72.7273}, "DE": {38.9896, -75.5050}, "FL": {28.6305, -82.4497},
	"GA": {32.6415, -83.4426}, "HI": {20.2927, -156.3737}, "ID": {44.3509, -114.6130},
	"IL": {40.0417, -89.1965}, "IN": {39.8942, -86.2816}, "IA": {42.0751, -93.4960},
	"KS": {38.4937, -98.3804}, "KY": {37.5347, -85.3021}, "LA": {31.0689, -91.9968},
	"ME": {45.3695, -69.2428}, "MD": {39.0550, -76.7909}, "MA": {42.2596, -71.8083},
	"MI": {44.3467, -85.4102}, "MN": {46.2807, -94.3053}, "MS": {32.7364, -89.6678},
	"MO": {38.3566, -92.4580}, "MT": {47.0527, -109.6333}, "NE": {41.5378, -99.7951},
	"NV": {39.3289, -116.6312}, "NH": {43.6805, -71.5811}, "NJ": {40.1907, -74.6728},
	"NM": {34.4071, -106.1126}, "NY": {42.9538, -75.5268}, "NC": {35.5557, -79.3877},
	"ND": {47.4501, -100.4659}, "OH": {40.2862, -82.7937}, "OK": {35.5889, -97.4943},
	"OR": {43.9336, -120.5583}, "PA": {40.8781, -77.7996}, "RI": {41.6762, -71.5562},
	"SC": {33.9169, -80.8964}, "SD": {44.4443, -100.2263}, "TN": {35.8580, -86.3505},
	"TX": {31.4757, -99.3312}, "UT": {39.3055, -111.6703}, "VT": {44.0687, -72.6658},
	"VA": {37.5215, -78.8537}, "WA": {47.3826, -120.4472}, "WV": {38.6409, -80.6227},
	"WI": {44.6243, -89.9941}, "WY": {42.9957, -107.5512},
}
