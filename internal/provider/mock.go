// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package provider

import (
	"context"
	"math"
	"time"

	"github.com/relabs-tech/location_viewer/internal/geo"
)

// MockProvider generates a smooth synthetic track circling a center point,
// for developing the screen without a receiver or a broker.
type MockProvider struct {
	center   geo.Coordinate
	start    time.Time
	interval time.Duration
}

func NewMockProvider(center geo.Coordinate) *MockProvider {
	return &MockProvider{
		center:   center,
		start:    time.Now(),
		interval: time.Second,
	}
}

func (p *MockProvider) Kind() Kind { return KindMock }

func (p *MockProvider) RequestPermission(_ context.Context) error { return nil }

func (p *MockProvider) GetOnce(_ context.Context) (geo.Coordinate, error) {
	return p.at(time.Now()), nil
}

func (p *MockProvider) StartWatch(onFix FixFunc, _ ErrorFunc) (*Watch, error) {
	done := make(chan struct{})
	w := NewWatch(KindMock, func() { close(done) })

	go func() {
		ticker := time.NewTicker(p.interval)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case now := <-ticker.C:
				onFix(p.at(now))
			}
		}
	}()
	return w, nil
}

// at walks a slow circle roughly 200 m across.
func (p *MockProvider) at(now time.Time) geo.Coordinate {
	elapsed := now.Sub(p.start).Seconds()
	return geo.Coordinate{
		Latitude:  p.center.Latitude + 0.002*math.Sin(elapsed/10),
		Longitude: p.center.Longitude + 0.002*math.Cos(elapsed/10),
		Speed:     1.5,
		Heading:   math.Mod(elapsed*6, 360),
		Time:      now,
	}
}
