// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package provider

import (
	"context"

	"github.com/relabs-tech/location_viewer/internal/geo"
)

// Kind identifies one of the interchangeable location backends.
type Kind string

const (
	// KindSerial is the primary backend: an NMEA receiver on a serial port.
	KindSerial Kind = "serial"
	// KindFeed is the secondary backend: a JSON location feed over MQTT.
	KindFeed Kind = "feed"
	// KindMock is a synthetic source for development without hardware.
	KindMock Kind = "mock"
)

// FixFunc receives each fix delivered by an active watch.
type FixFunc func(geo.Coordinate)

// ErrorFunc receives watch failures. All reported failures are transient; the
// watch stays alive after a call and the session decides what to surface.
type ErrorFunc func(error)

// Provider is a single location backend: a one-shot read plus a continuous
// watch. The backends differ in permission model, callback shape and error
// signaling; this interface is the one shape the session controller sees.
type Provider interface {
	Kind() Kind

	// RequestPermission acquires whatever access the backend needs before
	// first use (device node, broker session). Idempotent.
	RequestPermission(ctx context.Context) error

	// GetOnce resolves a single fix. Timeout behavior is backend specific:
	// the feed backend gives up after its configured timeout, the serial
	// backend blocks until a fix arrives or ctx is canceled.
	GetOnce(ctx context.Context) (geo.Coordinate, error)

	// StartWatch begins a continuous stream of fixes delivered through
	// onFix until the returned handle is stopped.
	StartWatch(onFix FixFunc, onError ErrorFunc) (*Watch, error)
}
