// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package main

import (
	"log"

	"github.com/relabs-tech/location_viewer/internal/app"
	"github.com/relabs-tech/location_viewer/internal/config"
)

func main() {
	log.Println("starting location-viewer feed simulator (mock → MQTT)")

	if err := config.InitGlobal("viewer_config.txt"); err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	if err := app.RunFeedSimulator(); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}
