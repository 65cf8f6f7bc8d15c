// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package geo

// Zoom span bounds in degrees. The bounds are enforced only at the zoom
// transitions below; a fix-driven recenter ignores the current zoom entirely.
const (
	MinZoomDelta = 0.01
	MaxZoomDelta = 1.5

	// RecenterDelta is the street-level span applied whenever a fix
	// recenters the map.
	RecenterDelta = 0.01
)

// Region is the visible map viewport: a center coordinate plus two angular
// spans.
type Region struct {
	Center         Coordinate `json:"center"`
	LatitudeDelta  float64    `json:"lat_delta"`
	LongitudeDelta float64    `json:"lon_delta"`
}

// Recenter returns a region centered on c at street-level zoom, regardless of
// any previous zoom.
func Recenter(c Coordinate) Region {
	return Region{
		Center:         c,
		LatitudeDelta:  RecenterDelta,
		LongitudeDelta: RecenterDelta,
	}
}

// ZoomIn halves both spans. At or below MinZoomDelta the region is returned
// unchanged; the caller is expected to disable the zoom-in control there.
func ZoomIn(r Region) Region {
	if r.LatitudeDelta <= MinZoomDelta {
		return r
	}
	r.LatitudeDelta /= 2
	r.LongitudeDelta /= 2
	return r
}

// ZoomOut doubles both spans, a no-op at or above MaxZoomDelta.
func ZoomOut(r Region) Region {
	if r.LatitudeDelta >= MaxZoomDelta {
		return r
	}
	r.LatitudeDelta *= 2
	r.LongitudeDelta *= 2
	return r
}
