// Package geo defines resolved visitor location types.
package geo

// Location is the result of resolving a client IP, or a platform geo hint.
type Location struct {
	City     string  `json:"city"`
	Region   string  `json:"region"`
	Country  string  `json:"country"`
	Postcode string  `json:"postcode"`
	Lat      float64 `json:"lat"`
	Lng      float64 `json:"lng"`
}

// LatLng is a geographic coordinate pair.
type LatLng struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Valid reports whether the coordinates are plausible. The zero value is
// treated as missing rather than a point in the Gulf of Guinea.
func (p LatLng) Valid() bool {
	if p.Lat == 0 && p.Lng == 0 {
		return false
	}
	return p.Lat >= -90 && p.Lat <= 90 && p.Lng >= -180 && p.Lng <= 180
}

// Coords returns the location's coordinate pair.
func (l Location) Coords() LatLng {
	return LatLng{Lat: l.Lat, Lng: l.Lng}
}
