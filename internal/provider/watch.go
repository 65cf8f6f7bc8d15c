// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package provider

import "sync/atomic"

// Watch is a live subscription to a backend's fix stream. It exists so that
// teardown and provider-switch logic have exactly one thing to release.
type Watch struct {
	kind    Kind
	stopped atomic.Bool
	release func()
}

// NewWatch wraps a release function in a handle. Backends (including test
// fakes outside this package) use it to hand out their subscriptions.
func NewWatch(kind Kind, release func()) *Watch {
	return &Watch{kind: kind, release: release}
}

// Kind reports which backend the watch targets.
func (w *Watch) Kind() Kind { return w.kind }

// Stop releases the underlying subscription. Idempotent: stopping twice, or
// stopping an already-stopped handle, is a no-op.
func (w *Watch) Stop() {
	if w == nil {
		return
	}
	if w.stopped.CompareAndSwap(false, true) {
		if w.release != nil {
			w.release()
		}
	}
}

// Stopped reports whether Stop has been called.
func (w *Watch) Stopped() bool {
	return w != nil && w.stopped.Load()
}
