// Package seed loads the built-in item catalog into storage.
package seed

import (
	"context"
	"flag"
	"log"

	entrypoint "github.com/louisbranch/extraction.zone/internal/platform/cmd"
	"github.com/louisbranch/extraction.zone/internal/raid/item"
	"github.com/louisbranch/extraction.zone/internal/raid/storage/sqlite"
)

// Config holds seed command configuration.
type Config struct {
	DBPath string `env:"EXTRACTION_ZONE_DB_PATH" envDefault:"extraction.db"`
}

// ParseConfig parses environment and flags into a Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := entrypoint.ParseConfig(&cfg); err != nil {
		return Config{}, err
	}
	fs.StringVar(&cfg.DBPath, "db", cfg.DBPath, "Path to the SQLite database file")
	if err := entrypoint.ParseArgs(fs, args); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Run upserts every default item into the catalog. Re-running refreshes
// existing definitions in place.
func Run(ctx context.Context, cfg Config) error {
	return entrypoint.RunWithTelemetry(ctx, entrypoint.ServiceSeed, func(ctx context.Context) error {
		store, err := sqlite.Open(cfg.DBPath)
		if err != nil {
			return err
		}
		defer func() { _ = store.Close() }()

		items := item.Defaults()
		for _, it := range items {
			if err := store.UpsertItem(ctx, it); err != nil {
				return err
			}
		}
		log.Printf("catalog seeded db=%s items=%d", cfg.DBPath, len(items))
		return nil
	})
}
