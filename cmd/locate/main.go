// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package main

import (
	"log"
	"os"

	"github.com/relabs-tech/location_viewer/internal/app"
	"github.com/relabs-tech/location_viewer/internal/config"
)

func main() {
	log.Println("starting location-viewer one-shot locate")

	if err := config.InitGlobal("viewer_config.txt"); err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	// "locate feed" asks the MQTT feed instead of the receiver
	useFeed := len(os.Args) > 1 && os.Args[1] == "feed"

	if err := app.RunLocate(useFeed); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}
