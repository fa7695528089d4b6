// Package server parses server command flags and starts the raid API.
package server

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"time"

	entrypoint "github.com/louisbranch/extraction.zone/internal/platform/cmd"
	raidhttp "github.com/louisbranch/extraction.zone/internal/raid/api/http"
	"github.com/louisbranch/extraction.zone/internal/raid/service"
	"github.com/louisbranch/extraction.zone/internal/raid/storage/sqlite"
	"github.com/louisbranch/extraction.zone/internal/raid/token"
)

const shutdownTimeout = 5 * time.Second

// Config holds server command configuration.
type Config struct {
	Port   int    `env:"EXTRACTION_ZONE_PORT" envDefault:"8090"`
	Addr   string `env:"EXTRACTION_ZONE_ADDR"`
	DBPath string `env:"EXTRACTION_ZONE_DB_PATH" envDefault:"extraction.db"`
}

// ParseConfig parses environment and flags into a Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := entrypoint.ParseConfig(&cfg); err != nil {
		return Config{}, err
	}
	fs.IntVar(&cfg.Port, "port", cfg.Port, "The raid server port")
	fs.StringVar(&cfg.Addr, "addr", cfg.Addr, "The raid server listen address (overrides -port)")
	fs.StringVar(&cfg.DBPath, "db", cfg.DBPath, "Path to the SQLite database file")
	if err := entrypoint.ParseArgs(fs, args); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Run starts the raid API service.
func Run(ctx context.Context, cfg Config) error {
	return entrypoint.RunWithTelemetry(ctx, entrypoint.ServiceServer, func(ctx context.Context) error {
		return serve(ctx, cfg)
	})
}

func serve(ctx context.Context, cfg Config) error {
	// Token signing material is required; the service must not come up
	// without it.
	tokens, err := token.LoadConfigFromEnv(time.Now)
	if err != nil {
		return err
	}

	store, err := sqlite.Open(cfg.DBPath)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	svc, err := service.New(ctx, store, tokens)
	if err != nil {
		return err
	}

	mux := http.NewServeMux()
	raidhttp.NewServer(svc).RegisterRoutes(mux)

	addr := cfg.Addr
	if addr == "" {
		addr = fmt.Sprintf(":%d", cfg.Port)
	}
	httpServer := &http.Server{Addr: addr, Handler: mux}

	errCh := make(chan error, 1)
	go func() {
		errCh <- httpServer.ListenAndServe()
	}()
	log.Printf("raid server listening addr=%s db=%s", addr, cfg.DBPath)

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown http server: %w", err)
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
