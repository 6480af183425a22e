// Package turnforge parses service configuration and launches the turn
// enforcement HTTP service.
package turnforge

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/louisbranch/turnforge/internal/api/rest"
	"github.com/louisbranch/turnforge/internal/catalog"
	"github.com/louisbranch/turnforge/internal/dice"
	"github.com/louisbranch/turnforge/internal/intent"
	"github.com/louisbranch/turnforge/internal/mechanics/execute"
	"github.com/louisbranch/turnforge/internal/mechanics/validate"
	"github.com/louisbranch/turnforge/internal/pipeline"
	entrypoint "github.com/louisbranch/turnforge/internal/platform/cmd"
	"github.com/louisbranch/turnforge/internal/storage/sqlite"
	"github.com/louisbranch/turnforge/internal/telemetry"
	turnservice "github.com/louisbranch/turnforge/internal/turn/service"
)

// Config holds turnforge service configuration.
type Config struct {
	Addr          string `env:"TURNFORGE_ADDR" envDefault:":8080"`
	DBPath        string `env:"TURNFORGE_DB_PATH" envDefault:"turnforge.db"`
	ClassifierURL string `env:"TURNFORGE_CLASSIFIER_URL"`
	DiceSeed      int64  `env:"TURNFORGE_DICE_SEED"`
}

// ParseConfig parses environment and flags into Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := entrypoint.ParseConfig(&cfg); err != nil {
		return Config{}, err
	}
	fs.StringVar(&cfg.Addr, "addr", cfg.Addr, "HTTP listen address")
	fs.StringVar(&cfg.DBPath, "db", cfg.DBPath, "sqlite database path")
	fs.StringVar(&cfg.ClassifierURL, "classifier-url", cfg.ClassifierURL, "intent classification endpoint")
	if err := entrypoint.ParseArgs(fs, args); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Run starts the turnforge HTTP service and blocks until ctx is cancelled.
func Run(ctx context.Context, cfg Config) error {
	return entrypoint.RunWithTelemetry(ctx, entrypoint.ServiceTurnforge, func(ctx context.Context) error {
		return serve(ctx, cfg)
	})
}

func serve(ctx context.Context, cfg Config) error {
	if cfg.ClassifierURL == "" {
		return fmt.Errorf("classifier url is required (TURNFORGE_CLASSIFIER_URL)")
	}

	store, err := sqlite.Open(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			log.Printf("op=store.close error=%v", err)
		}
	}()

	classifier, err := intent.NewHTTPClassifier(intent.HTTPClassifierConfig{URL: cfg.ClassifierURL})
	if err != nil {
		return fmt.Errorf("build classifier: %w", err)
	}

	cat, err := catalog.Load()
	if err != nil {
		return fmt.Errorf("load catalog: %w", err)
	}

	emitter := telemetry.NewEmitter(store)
	pipe := pipeline.New(
		intent.NewClassifier(classifier),
		validate.NewRouter(cat),
		execute.NewRouter(store, store, cat),
		store, store, emitter,
	)
	turns := turnservice.New(store, store, turnservice.DefaultConfig(),
		turnservice.WithTelemetry(emitter))

	seed := cfg.DiceSeed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	roller := dice.NewSeededResolver(seed)

	server := &http.Server{
		Addr:              cfg.Addr,
		Handler:           rest.New(turns, pipe, roller, store, store, store),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("op=serve addr=%s db=%s", cfg.Addr, cfg.DBPath)
		errCh <- server.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
