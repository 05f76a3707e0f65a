// Command server runs the CityInfo API.
//
// Configuration comes from defaults, an optional YAML file (--config or
// CITYINFO_CONFIG) and CITYINFO_* environment variables. The only required
// setting is the token signing secret:
//
//	CITYINFO_AUTH_SECRET=$(openssl rand -hex 32) go run ./cmd/server
package main

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/pflag"

	"github.com/sakif/cityinfo/internal/config"
	sqliteRepo "github.com/sakif/cityinfo/internal/repository/sqlite"
	"github.com/sakif/cityinfo/internal/server"
)

func main() {
	configFile := pflag.String("config", "", "path to a YAML config file (overrides "+config.EnvConfigFile+")")
	pflag.Parse()

	if err := run(*configFile); err != nil {
		slog.Error("server exited", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func run(configFile string) error {
	cfg, err := config.Load(configFile)
	if err != nil {
		return err
	}

	logger := newLogger(os.Stdout, cfg.Server)
	slog.SetDefault(logger)

	if dir := filepath.Dir(cfg.Database.ConnectionString); dir != "." && !isMemory(cfg.Database.ConnectionString) {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}

	db, err := sqliteRepo.New(cfg.Database.ConnectionString, logger)
	if err != nil {
		return err
	}

	if cfg.Database.Seed {
		if _, err := db.Seed(context.Background()); err != nil {
			db.Close()
			return err
		}
	}

	srv, err := server.New(cfg, db, logger)
	if err != nil {
		db.Close()
		return err
	}

	// Start blocks until SIGINT/SIGTERM and closes the database on return.
	return srv.Start()
}

func newLogger(w io.Writer, cfg config.ServerConfig) *slog.Logger {
	opts := &slog.HandlerOptions{Level: cfg.SlogLevel()}
	if cfg.LogFormat == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

func isMemory(connectionString string) bool {
	return connectionString == ":memory:"
}
