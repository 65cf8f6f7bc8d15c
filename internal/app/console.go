package app

import (
	"fmt"

	"github.com/relabs-tech/location_viewer/internal/geo"
)

// consoleBinding stands in for the map surface when running headless: every
// viewport update is printed instead of drawn.
type consoleBinding struct{}

func (consoleBinding) ApplyRegion(r geo.Region, marker *geo.Coordinate) {
	if marker != nil {
		fmt.Printf(
			"[VIEW]  center=%.6f,%.6f  span=%.4f  marker=%.6f,%.6f\n",
			r.Center.Latitude, r.Center.Longitude, r.LatitudeDelta,
			marker.Latitude, marker.Longitude,
		)
		return
	}
	fmt.Printf(
		"[VIEW]  center=%.6f,%.6f  span=%.4f\n",
		r.Center.Latitude, r.Center.Longitude, r.LatitudeDelta,
	)
}
