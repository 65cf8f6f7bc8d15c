// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"context"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/relabs-tech/location_viewer/internal/geo"
	"github.com/relabs-tech/location_viewer/internal/session"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // the screen is served to localhost only
	},
}

// wsCommand is what the map page sends: a button press or a user-driven
// region change (pan/zoom on the map itself).
type wsCommand struct {
	Action string      `json:"action"` // locate, track_start, track_stop, switch_provider, zoom_in, zoom_out, region
	Region *geo.Region `json:"region,omitempty"`
}

// wsEvent is what the hub pushes to the page.
type wsEvent struct {
	Type     string          `json:"type"` // viewport, status
	Region   *geo.Region     `json:"region,omitempty"`
	Marker   *geo.Coordinate `json:"marker,omitempty"`
	State    string          `json:"state,omitempty"`
	Provider string          `json:"provider,omitempty"`
	Tracking bool            `json:"tracking,omitempty"`
	Error    string          `json:"error,omitempty"`
}

// viewHub is the websocket side of the map view binding: it fans viewport
// updates out to every connected page and turns page actions into controller
// calls.
type viewHub struct {
	log *zap.SugaredLogger

	mu    sync.Mutex
	conns map[*websocket.Conn]bool
}

func newViewHub(log *zap.SugaredLogger) *viewHub {
	return &viewHub{log: log, conns: make(map[*websocket.Conn]bool)}
}

// ApplyRegion implements session.ViewBinding.
func (h *viewHub) ApplyRegion(r geo.Region, marker *geo.Coordinate) {
	h.broadcast(wsEvent{Type: "viewport", Region: &r, Marker: marker})
}

func (h *viewHub) broadcastStatus(s session.Snapshot) {
	h.broadcast(wsEvent{
		Type:     "status",
		Region:   &s.Region,
		Marker:   s.LastFix,
		State:    s.State.String(),
		Provider: string(s.Provider),
		Tracking: s.Tracking,
		Error:    s.LastErr,
	})
}

func (h *viewHub) broadcast(ev wsEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for conn := range h.conns {
		if err := conn.WriteJSON(ev); err != nil {
			h.log.Debugf("view: write error, dropping page: %v", err)
			conn.Close()
			delete(h.conns, conn)
		}
	}
}

// handleWS is the websocket endpoint behind the map page.
func (h *viewHub) handleWS(ctrl *session.Controller) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			h.log.Warnf("view: websocket upgrade error: %v", err)
			return
		}

		h.mu.Lock()
		h.conns[conn] = true
		h.mu.Unlock()
		defer func() {
			h.mu.Lock()
			delete(h.conns, conn)
			h.mu.Unlock()
			conn.Close()
		}()

		// New page: show it where the session currently is.
		h.broadcastStatus(ctrl.Snapshot())

		for {
			var cmd wsCommand
			if err := conn.ReadJSON(&cmd); err != nil {
				return
			}
			h.dispatch(ctrl, cmd)
		}
	}
}

// dispatch runs one page action. A one-shot can block on the serial backend
// until it has satellite lock, so every action runs off the read loop.
func (h *viewHub) dispatch(ctrl *session.Controller, cmd wsCommand) {
	go func() {
		switch cmd.Action {
		case "locate":
			if err := ctrl.RequestOnce(context.Background()); err != nil {
				h.log.Warnf("view: locate: %v", err)
			}
		case "track_start":
			if err := ctrl.StartTracking(); err != nil {
				h.log.Warnf("view: start tracking: %v", err)
			}
		case "track_stop":
			ctrl.StopTracking()
		case "switch_provider":
			if err := ctrl.SwitchProvider(); err != nil {
				h.log.Warnf("view: switch provider: %v", err)
			}
		case "zoom_in":
			ctrl.ZoomIn()
		case "zoom_out":
			ctrl.ZoomOut()
		case "region":
			if cmd.Region != nil {
				ctrl.OverrideRegion(*cmd.Region)
			}
		default:
			h.log.Debugf("view: unknown action %q", cmd.Action)
		}
		h.broadcastStatus(ctrl.Snapshot())
	}()
}
