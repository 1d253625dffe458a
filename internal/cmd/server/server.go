// Package server parses server command flags and starts the repository
// HTTP service.
package server

import (
	"context"
	"flag"
	"fmt"
	"log"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/industrialdt/aashub/internal/aasx"
	"github.com/industrialdt/aashub/internal/activity"
	"github.com/industrialdt/aashub/internal/api/rest"
	"github.com/industrialdt/aashub/internal/importer"
	entrypoint "github.com/industrialdt/aashub/internal/platform/cmd"
	"github.com/industrialdt/aashub/internal/stats"
	"github.com/industrialdt/aashub/internal/storage/sqlite"
)

// Config holds server command configuration.
type Config struct {
	Port   int    `env:"AASHUB_PORT" envDefault:"8080"`
	Addr   string `env:"AASHUB_ADDR"`
	DBPath string `env:"AASHUB_DB_PATH" envDefault:"aashub.db"`
	// StatsVerifyInterval is how often the counters are checked against a
	// full recount. Zero disables the check.
	StatsVerifyInterval time.Duration `env:"AASHUB_STATS_VERIFY_INTERVAL" envDefault:"10m"`
}

// ParseConfig parses environment and flags into a Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := entrypoint.ParseConfig(&cfg); err != nil {
		return Config{}, err
	}
	fs.IntVar(&cfg.Port, "port", cfg.Port, "The HTTP server port")
	fs.StringVar(&cfg.Addr, "addr", cfg.Addr, "The HTTP listen address (overrides -port)")
	fs.StringVar(&cfg.DBPath, "db", cfg.DBPath, "Path to the sqlite database file")
	if err := entrypoint.ParseArgs(fs, args); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Run starts the repository service.
func Run(ctx context.Context, cfg Config) error {
	return entrypoint.RunWithTelemetry(ctx, entrypoint.ServiceServer, func(ctx context.Context) error {
		store, err := sqlite.Open(cfg.DBPath)
		if err != nil {
			return fmt.Errorf("open storage: %w", err)
		}
		defer func() {
			if err := store.Close(); err != nil {
				log.Printf("server close storage: %v", err)
			}
		}()

		statsService := stats.New(store)
		handler := rest.NewHandler(
			store,
			importer.New(store, aasx.NewZipDecoder()),
			statsService,
			activity.NewRecorder(store),
		)

		addr := cfg.Addr
		if addr == "" {
			addr = fmt.Sprintf(":%d", cfg.Port)
		}
		server, err := rest.NewServer(addr, handler)
		if err != nil {
			return fmt.Errorf("build server: %w", err)
		}

		group, ctx := errgroup.WithContext(ctx)
		group.Go(func() error {
			return server.ListenAndServe(ctx)
		})
		group.Go(func() error {
			return verifyStatsLoop(ctx, statsService, cfg.StatsVerifyInterval)
		})
		return group.Wait()
	})
}

// verifyStatsLoop periodically checks the incremental counters against a
// full recount and logs any divergence.
func verifyStatsLoop(ctx context.Context, statsService *stats.Service, interval time.Duration) error {
	if interval <= 0 {
		<-ctx.Done()
		return nil
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if _, err := statsService.Verify(ctx); err != nil {
				log.Printf("server stats verify: %v", err)
			}
		}
	}
}
