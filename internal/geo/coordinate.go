package geo

import "time"

// Coordinate is a single resolved device location ("fix") suitable for JSON.
// Altitude, accuracy, heading and speed are zero when the backend does not
// report them.
type Coordinate struct {
	Latitude  float64   `json:"lat"`                // decimal degrees, -90..90
	Longitude float64   `json:"lon"`                // decimal degrees, -180..180
	Altitude  float64   `json:"alt,omitempty"`      // meters above sea level
	Accuracy  float64   `json:"accuracy,omitempty"` // estimated error radius, meters
	Heading   float64   `json:"heading,omitempty"`  // course over ground, degrees
	Speed     float64   `json:"speed,omitempty"`    // speed over ground, m/s
	Time      time.Time `json:"time"`               // when the backend produced the fix
}

// Valid reports whether the coordinate lies inside the WGS84 range.
func (c Coordinate) Valid() bool {
	return c.Latitude >= -90 && c.Latitude <= 90 &&
		c.Longitude >= -180 && c.Longitude <= 180
}

// KnotsToMetersPerSecond converts a speed over ground as reported by NMEA
// sentences (knots) to m/s.
func KnotsToMetersPerSecond(knots float64) float64 {
	return knots * 0.514444
}
