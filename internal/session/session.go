// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package session

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/relabs-tech/location_viewer/internal/geo"
	"github.com/relabs-tech/location_viewer/internal/provider"
)

// ErrClosed is returned by operations on a torn-down session.
var ErrClosed = errors.New("session closed")

// ViewBinding is the host map surface the controller drives. ApplyRegion is
// called with the authoritative region and the marker coordinate after every
// fix-driven or zoom-driven change. Implementations must not call back into
// the controller from ApplyRegion.
type ViewBinding interface {
	ApplyRegion(r geo.Region, marker *geo.Coordinate)
}

// Snapshot is a copy of the observable session state for the UI layer.
type Snapshot struct {
	State    State
	Provider provider.Kind
	Tracking bool
	Region   geo.Region
	LastFix  *geo.Coordinate
	LastErr  string
}

// Controller owns provider selection, tracking state, the last known fix and
// the authoritative map region. All state lives behind one mutex; provider
// callbacks additionally carry a generation token, so anything a backend
// delivers after a stop, switch or close is dropped instead of applied.
type Controller struct {
	log  *zap.SugaredLogger
	view ViewBinding

	primary   provider.Provider
	secondary provider.Provider

	mu           sync.Mutex
	useSecondary bool
	state        State
	lastFix      *geo.Coordinate
	lastErr      error
	region       geo.Region
	watch        *provider.Watch
	gen          uint64
	closed       bool
}

// New creates an idle controller with the primary provider active and the
// given region on screen.
func New(primary, secondary provider.Provider, initial geo.Region, view ViewBinding, log *zap.SugaredLogger) *Controller {
	return &Controller{
		log:       log,
		view:      view,
		primary:   primary,
		secondary: secondary,
		state:     StateIdle,
		region:    initial,
	}
}

func (c *Controller) activeLocked() provider.Provider {
	if c.useSecondary {
		return c.secondary
	}
	return c.primary
}

// RequestOnce resolves a single fix from the active provider and recenters
// the region on it. Safe from any state; a running tracking session is
// superseded only in data, never stopped.
func (c *Controller) RequestOnce(ctx context.Context) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	p := c.activeLocked()
	c.mu.Unlock()

	fix, err := p.GetOnce(ctx)

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrClosed
	}
	if err != nil {
		c.log.Warnf("session: one-shot via %s: %v", p.Kind(), err)
		c.lastErr = err
		if c.watch == nil {
			c.state = StateErrored
		}
		return err
	}
	c.applyFixLocked(fix)
	return nil
}

// StartTracking starts a watch on the active provider. A no-op while a watch
// is already running. On failure the session moves to Errored and stays
// untracked.
func (c *Controller) StartTracking() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	if c.watch != nil {
		c.mu.Unlock()
		return nil
	}
	p := c.activeLocked()
	c.mu.Unlock()

	if err := c.startWatch(p); err != nil {
		c.mu.Lock()
		c.lastErr = err
		c.state = StateErrored
		c.mu.Unlock()
		return err
	}
	return nil
}

// StopTracking releases the watch handle, keeping the last fix on screen.
func (c *Controller) StopTracking() {
	c.mu.Lock()
	w := c.watch
	c.watch = nil
	if w != nil {
		c.gen++ // anything still in flight from the watch is now stale
		if c.lastFix != nil {
			c.state = StateLocated
		} else {
			c.state = StateIdle
		}
	}
	c.mu.Unlock()

	w.Stop()
}

// SwitchProvider toggles the active backend. While tracking, the old watch is
// released and its callbacks invalidated before the new backend's watch is
// started, so no fix from the old provider can land after the switch. If the
// new watch fails to start the session moves to Errored and is no longer
// tracking.
func (c *Controller) SwitchProvider() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	c.useSecondary = !c.useSecondary
	p := c.activeLocked()
	old := c.watch
	c.watch = nil
	wasTracking := old != nil
	if wasTracking {
		c.gen++
	}
	c.mu.Unlock()

	old.Stop()
	if !wasTracking {
		return nil
	}

	if err := c.startWatch(p); err != nil {
		wrapped := fmt.Errorf("%w: %v", provider.ErrSwitchFailed, err)
		c.mu.Lock()
		c.lastErr = wrapped
		c.state = StateErrored
		c.mu.Unlock()
		return wrapped
	}
	return nil
}

// startWatch claims a new generation, starts the watch and installs the
// handle. If the session was closed or superseded while the backend was
// starting, the fresh watch is released immediately.
func (c *Controller) startWatch(p provider.Provider) error {
	c.mu.Lock()
	c.gen++
	gen := c.gen
	c.mu.Unlock()

	w, err := p.StartWatch(
		func(fix geo.Coordinate) { c.handleFix(gen, fix) },
		func(err error) { c.handleWatchError(gen, err) },
	)

	c.mu.Lock()
	defer c.mu.Unlock()
	if err != nil {
		return err
	}
	if c.closed || gen != c.gen {
		w.Stop()
		return nil
	}
	c.watch = w
	c.state = StateTracking
	return nil
}

// handleFix applies a watch-delivered fix unless its generation is stale.
func (c *Controller) handleFix(gen uint64, fix geo.Coordinate) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed || gen != c.gen {
		return
	}
	c.applyFixLocked(fix)
}

// handleWatchError records a transient watch failure. The watch stays alive
// and so does the Tracking state.
func (c *Controller) handleWatchError(gen uint64, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed || gen != c.gen {
		return
	}
	c.log.Warnf("session: watch error: %v", err)
	c.lastErr = err
}

func (c *Controller) applyFixLocked(fix geo.Coordinate) {
	c.lastFix = &fix
	c.lastErr = nil
	c.region = geo.Recenter(fix)
	if c.watch != nil {
		c.state = StateTracking
	} else {
		c.state = StateLocated
	}
	c.pushLocked()
}

// OverrideRegion replaces the region with a user-driven pan/zoom from the map
// surface. The override is taken as-is, without recentering, and is not
// echoed back to the view, which already shows it.
func (c *Controller) OverrideRegion(r geo.Region) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.region = r
}

// ZoomIn halves the region spans, a no-op at the minimum span.
func (c *Controller) ZoomIn() geo.Region {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.region = geo.ZoomIn(c.region)
	c.pushLocked()
	return c.region
}

// ZoomOut doubles the region spans, a no-op at the maximum span.
func (c *Controller) ZoomOut() geo.Region {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.region = geo.ZoomOut(c.region)
	c.pushLocked()
	return c.region
}

// Close tears the session down: the live watch, if any, is released and
// every callback arriving afterwards is dropped.
func (c *Controller) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	c.gen++
	w := c.watch
	c.watch = nil
	c.mu.Unlock()

	w.Stop()
}

func (c *Controller) pushLocked() {
	if c.view == nil {
		return
	}
	var marker *geo.Coordinate
	if c.lastFix != nil {
		m := *c.lastFix
		marker = &m
	}
	c.view.ApplyRegion(c.region, marker)
}

// Snapshot returns a copy of the observable state.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := Snapshot{
		State:    c.state,
		Provider: c.activeLocked().Kind(),
		Tracking: c.watch != nil,
		Region:   c.region,
	}
	if c.lastFix != nil {
		m := *c.lastFix
		s.LastFix = &m
	}
	if c.lastErr != nil {
		s.LastErr = c.lastErr.Error()
	}
	return s
}

// Region returns the current authoritative region.
func (c *Controller) Region() geo.Region {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.region
}

// State returns the current session state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// ActiveProvider reports which backend a new watch or one-shot would use.
func (c *Controller) ActiveProvider() provider.Kind {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.activeLocked().Kind()
}
