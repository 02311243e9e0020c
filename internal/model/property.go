package model

import "time"

// Property is a stored residential property record. When broadband data
// is resolved for an existing property its stored coordinates are used
// directly, bypassing the geocoder.
type Property struct {
	ID           string    `json:"id"`
	Address      string    `json:"address"`
	City         string    `json:"city"`
	State        string    `json:"state"`
	Zip          string    `json:"zip"`
	Latitude     float64   `json:"latitude"`
	Longitude    float64   `json:"longitude"`
	PropertyType string    `json:"property_type,omitempty"`
	Sqft         int       `json:"sqft,omitempty"`
	Beds         int       `json:"beds,omitempty"`
	Baths        float64   `json:"baths,omitempty"`
	Price        int       `json:"price,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// HasCoordinates reports whether the property carries a usable lat/lon pair.
func (p Property) HasCoordinates() bool {
	return p.Latitude != 0 || p.Longitude != 0
}
