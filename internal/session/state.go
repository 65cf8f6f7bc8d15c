// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package session

// State of the location session.
type State int

const (
	// StateIdle: no fix yet.
	StateIdle State = iota
	// StateLocated: have a fix, not tracking.
	StateLocated
	// StateTracking: a watch is active.
	StateTracking
	// StateErrored: the last action failed; a previous fix, if any, stays
	// on display.
	StateErrored
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateLocated:
		return "located"
	case StateTracking:
		return "tracking"
	case StateErrored:
		return "errored"
	default:
		return "unknown"
	}
}
