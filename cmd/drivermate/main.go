package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"

	"github.com/tmoreno/drivermate/internal/api"
	"github.com/tmoreno/drivermate/internal/config"
	"github.com/tmoreno/drivermate/internal/credfile"
	"github.com/tmoreno/drivermate/internal/database"
	"github.com/tmoreno/drivermate/internal/database/repository"
	"github.com/tmoreno/drivermate/internal/location"
	"github.com/tmoreno/drivermate/internal/routing"
	"github.com/tmoreno/drivermate/internal/session"
	"github.com/tmoreno/drivermate/internal/tui"
)

func main() {
	ctx := context.Background()

	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	// the TUI owns stdout, so logs go to a file next to the cache
	if err := os.MkdirAll(filepath.Dir(cfg.Database.Path), 0o755); err != nil {
		log.Fatalf("mkdir data dir: %v", err)
	}
	logFile, err := os.OpenFile(filepath.Join(filepath.Dir(cfg.Database.Path), "drivermate.log"),
		os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		log.Fatalf("open log file: %v", err)
	}
	defer logFile.Close()
	log.SetOutput(logFile)

	db, err := database.Open(cfg.Database.Path)
	if err != nil {
		log.Fatalf("open db: %v", err)
	}
	defer db.Close()

	if err := database.RunMigrations(db); err != nil {
		log.Fatalf("migrate: %v", err)
	}

	creds, err := credfile.New()
	if err != nil {
		log.Fatalf("credential store: %v", err)
	}

	client := api.New(cfg.API.BaseURL, cfg.API.Timeout)
	sessions := session.New(client, creds)

	// restore decides the first view; nothing renders before it finishes
	if err := sessions.Restore(); err != nil {
		log.Fatalf("session restore: %v", err)
	}

	var directions *routing.Directions
	if cfg.Routing.MapsAPIKey != "" {
		directions = routing.NewDirections(cfg.Routing.MapsAPIKey, cfg.API.Timeout)
	}

	var sampler location.Sampler
	if cfg.Location.StaticLat != 0 || cfg.Location.StaticLng != 0 {
		sampler = location.Static(routing.Point{
			Latitude:  cfg.Location.StaticLat,
			Longitude: cfg.Location.StaticLng,
		})
	}

	loc, err := time.LoadLocation(cfg.UI.Timezone)
	if err != nil {
		log.Printf("warn: using local timezone due to load failure: %v", err)
		loc = time.Local
	}

	deps := tui.Deps{
		Sessions:   sessions,
		Client:     client,
		Cache:      repository.NewOrderRepo(db),
		Directions: directions,
		Sampler:    sampler,
	}

	p := tea.NewProgram(tui.New(ctx, cfg, deps, loc), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		fmt.Printf("error: %v\n", err)
	}
}
