package app

import (
	"encoding/json"
	"fmt"
	"image/png"
	"net/http"

	"github.com/relabs-tech/location_viewer/internal/config"
	"github.com/relabs-tech/location_viewer/internal/logging"
	"github.com/relabs-tech/location_viewer/internal/session"
)

// RunMapView serves the map screen: the static page, the websocket binding,
// and two plain HTTP fallbacks for the latest fix and a rendered viewport.
func RunMapView() error {
	cfg := config.Get()
	logger, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return err
	}
	defer logger.Sync()

	primary, secondary := buildProviders(cfg, logger)
	hub := newViewHub(logger)
	ctrl := session.New(primary, secondary, defaultRegion(cfg), hub, logger)
	defer ctrl.Close()

	http.HandleFunc("/ws", hub.handleWS(ctrl))

	// JSON API endpoint: latest fix
	http.HandleFunc("/api/location", func(w http.ResponseWriter, r *http.Request) {
		s := ctrl.Snapshot()
		if s.LastFix == nil {
			http.Error(w, "no fix yet", http.StatusServiceUnavailable)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(s.LastFix); err != nil {
			logger.Warnf("json encode error: %v", err)
		}
	})

	// Rendered viewport for clients that cannot run the map page
	http.HandleFunc("/api/snapshot.png", func(w http.ResponseWriter, r *http.Request) {
		s := ctrl.Snapshot()
		img := renderSnapshot(s.Region, s.LastFix, 320, 240)
		w.Header().Set("Content-Type", "image/png")
		if err := png.Encode(w, img); err != nil {
			logger.Warnf("png encode error: %v", err)
		}
	})

	// Static files from ./web as the root
	http.Handle("/", http.FileServer(http.Dir("web")))

	addr := fmt.Sprintf(":%d", cfg.WebServerPort)
	logger.Infof("map view listening on %s (primary=%s)", addr, primary.Kind())
	return http.ListenAndServe(addr, nil)
}
