// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/relabs-tech/location_viewer/internal/geo"
)

var (
	snapshotBG     = color.RGBA{16, 24, 32, 255}
	snapshotFrame  = color.RGBA{90, 110, 130, 255}
	snapshotGrid   = color.RGBA{40, 52, 64, 255}
	snapshotMarker = color.RGBA{255, 80, 80, 255}
	snapshotText   = color.RGBA{220, 230, 240, 255}
)

// renderSnapshot draws the viewport as a small bitmap: frame, center grid,
// marker crosshair and a coordinate caption.
func renderSnapshot(r geo.Region, marker *geo.Coordinate, w, h int) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), image.NewUniform(snapshotBG), image.Point{}, draw.Src)

	for x := 0; x < w; x++ {
		img.Set(x, 0, snapshotFrame)
		img.Set(x, h-1, snapshotFrame)
		img.Set(x, h/2, snapshotGrid)
	}
	for y := 0; y < h; y++ {
		img.Set(0, y, snapshotFrame)
		img.Set(w-1, y, snapshotFrame)
		img.Set(w/2, y, snapshotGrid)
	}

	if marker != nil {
		if x, y, ok := project(r, *marker, w, h); ok {
			drawMarker(img, x, y)
		}
	}

	caption := fmt.Sprintf("%.5f %.5f  span %.3f",
		r.Center.Latitude, r.Center.Longitude, r.LatitudeDelta)
	drawText(img, 6, h-6, caption)

	return img
}

// project maps a coordinate into pixel space, north up. ok is false for
// points outside the region.
func project(r geo.Region, c geo.Coordinate, w, h int) (int, int, bool) {
	if r.LatitudeDelta <= 0 || r.LongitudeDelta <= 0 {
		return 0, 0, false
	}
	fx := (c.Longitude - (r.Center.Longitude - r.LongitudeDelta/2)) / r.LongitudeDelta
	fy := (c.Latitude - (r.Center.Latitude - r.LatitudeDelta/2)) / r.LatitudeDelta
	if fx < 0 || fx > 1 || fy < 0 || fy > 1 {
		return 0, 0, false
	}
	return int(fx * float64(w-1)), int((1 - fy) * float64(h-1)), true
}

func drawMarker(img draw.Image, x, y int) {
	for d := -4; d <= 4; d++ {
		img.Set(x+d, y, snapshotMarker)
		img.Set(x, y+d, snapshotMarker)
	}
}

func drawText(img draw.Image, x, y int, s string) {
	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(snapshotText),
		Face: basicfont.Face7x13,
		Dot:  fixed.P(x, y),
	}
	d.DrawString(s)
}
