// Command nestbot runs the rookery game: a console chat loop plus the
// HTTP admin plane. Lines on stdin look like "<player> <command...>",
// mirroring how the chat relay delivers messages.
package main

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/talgya/rookery/internal/api"
	"github.com/talgya/rookery/internal/catalog"
	"github.com/talgya/rookery/internal/config"
	"github.com/talgya/rookery/internal/entropy"
	"github.com/talgya/rookery/internal/game"
	"github.com/talgya/rookery/internal/gateway"
	"github.com/talgya/rookery/internal/store"
	"github.com/talgya/rookery/internal/taxonomy"
	"github.com/talgya/rookery/internal/weather"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}

	level := slog.LevelInfo
	if cfg.LogLevel == "debug" {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	slog.Info("nestbot starting", "db", cfg.DBPath, "tz", cfg.Timezone)

	cat, err := catalog.Load()
	if err != nil {
		slog.Error("failed to load catalog", "error", err)
		os.Exit(1)
	}
	slog.Info("catalog loaded",
		"species", len(cat.Species),
		"plants", len(cat.Plants),
		"treasures", len(cat.Treasures),
		"adversaries", len(cat.Adversaries),
	)

	db, err := store.Open(cfg.DBPath)
	if err != nil {
		slog.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer db.Close()
	slog.Info("database opened", "path", cfg.DBPath)

	clock, err := game.NewClock(cfg.Timezone)
	if err != nil {
		slog.Error("bad timezone", "tz", cfg.Timezone, "error", err)
		os.Exit(1)
	}

	rng := entropy.NewSource(cfg.RandomOrgKey)
	slog.Info("entropy source ready", "random_org", rng.Enabled())

	engine := game.New(db, clock, rng, cat)
	engine.AllowSelfBrood = cfg.AllowSelfBrood
	engine.SetTaxonomy(taxonomy.NewClient(cfg.TaxonomyBaseURL))

	forecaster := weather.NewForecaster(
		weather.NewClient(cfg.WeatherAPIKey, cfg.WeatherLocation), 1)

	gw := gateway.New(engine, forecaster, logger)
	engine.ForageDone = func(o game.ForageOutcome) {
		if o.Err != nil {
			slog.Error("forage completion failed", "player", o.PlayerID, "error", o.Err)
			return
		}
		fmt.Printf("[%s] returns from the %s with: %s\n", o.PlayerID, o.Location, o.Treasure)
	}

	srv := &api.Server{Engine: engine, Addr: cfg.AdminAddr, AdminKey: cfg.AdminToken}
	srv.Start()

	slog.Info("reading chat from stdin", "format", "<player> <command...>")
	scanner := bufio.NewScanner(os.Stdin)
	ctx := context.Background()
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		player, rest, ok := strings.Cut(line, " ")
		if !ok {
			continue
		}
		reply, handled := gw.Handle(ctx, player, rest)
		if handled {
			fmt.Printf("[%s] %s\n", player, reply)
		}
	}
	if err := scanner.Err(); err != nil {
		slog.Error("stdin read failed", "error", err)
	}
	slog.Info("nestbot stopping")
}
