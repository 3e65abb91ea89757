// Package main is the entrypoint for the schema migration tool.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"time"

	"github.com/devops-challenge/userapi/internal/config"
	"github.com/devops-challenge/userapi/internal/logger"
	"github.com/devops-challenge/userapi/internal/migrate"
)

func main() {
	command := flag.String("command", "up", "migrate command (up|status|down|reset|version)")
	timeout := flag.Duration("timeout", time.Minute, "command timeout")
	target := flag.Int64("target", 0, "target version for down command (optional)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	log := logger.New("migrate", cfg.LogFormat, cfg.LogLevel)

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	runner, err := migrate.New(cfg.DatabaseURL, cfg.MigrationsTable, log)
	if err != nil {
		log.Error("failed to configure migration runner", "error", err)
		os.Exit(1)
	}

	switch *command {
	case "up":
		err = runner.Up(ctx)
	case "status":
		err = runner.Status(ctx)
	case "down":
		err = runner.Down(ctx, *target, false)
	case "reset":
		err = runner.Down(ctx, 0, true)
	case "version":
		var version int64
		version, err = runner.Version(ctx)
		if err == nil {
			log.Info("schema version", "version", version)
		}
	default:
		log.Error("unsupported command", "command", *command)
		os.Exit(1)
	}

	if err != nil {
		log.Error("migration command failed",
			"command", *command,
			"error", logger.SanitizeError(err, cfg.DatabaseURL),
		)
		os.Exit(1)
	}

	log.Info("migration command completed", "command", *command)
}
