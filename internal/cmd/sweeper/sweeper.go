// Package sweeper parses sweeper configuration and launches the stale turn
// sweep loop.
package sweeper

import (
	"context"
	"flag"
	"fmt"
	"log"
	"time"

	entrypoint "github.com/louisbranch/turnforge/internal/platform/cmd"
	"github.com/louisbranch/turnforge/internal/storage/sqlite"
	"github.com/louisbranch/turnforge/internal/telemetry"
	turnservice "github.com/louisbranch/turnforge/internal/turn/service"
)

// Config holds sweeper command configuration.
type Config struct {
	DBPath   string        `env:"TURNFORGE_DB_PATH" envDefault:"turnforge.db"`
	Interval time.Duration `env:"TURNFORGE_SWEEP_INTERVAL" envDefault:"1m"`
	Once     bool          `env:"TURNFORGE_SWEEP_ONCE" envDefault:"false"`
}

// ParseConfig parses environment and flags into Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := entrypoint.ParseConfig(&cfg); err != nil {
		return Config{}, err
	}
	fs.StringVar(&cfg.DBPath, "db", cfg.DBPath, "sqlite database path")
	fs.DurationVar(&cfg.Interval, "interval", cfg.Interval, "sweep interval")
	fs.BoolVar(&cfg.Once, "once", cfg.Once, "run a single sweep and exit")
	if err := entrypoint.ParseArgs(fs, args); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Run starts the sweep loop and blocks until ctx is cancelled.
func Run(ctx context.Context, cfg Config) error {
	return entrypoint.RunWithTelemetry(ctx, entrypoint.ServiceSweeper, func(ctx context.Context) error {
		return sweepLoop(ctx, cfg)
	})
}

func sweepLoop(ctx context.Context, cfg Config) error {
	store, err := sqlite.Open(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			log.Printf("op=store.close error=%v", err)
		}
	}()

	emitter := telemetry.NewEmitter(store)
	turns := turnservice.New(store, store, turnservice.DefaultConfig(),
		turnservice.WithTelemetry(emitter))

	if cfg.Once {
		return sweep(ctx, turns)
	}

	ticker := time.NewTicker(cfg.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := sweep(ctx, turns); err != nil {
				log.Printf("op=sweep error=%v", err)
			}
		}
	}
}

func sweep(ctx context.Context, turns *turnservice.Service) error {
	stale, err := turns.StaleTurns(ctx)
	if err != nil {
		return err
	}
	for _, rec := range stale {
		log.Printf("op=sweep.stale turn=%s scene=%s phase=%s mode=%s pending_since=%s",
			rec.ID, rec.SceneID, rec.Phase, rec.Mode, rec.PendingSince.Format(time.RFC3339))
	}
	log.Printf("op=sweep stale=%d", len(stale))
	return nil
}
