// Package membercore parses service flags and launches the membership core runtime.
package membercore

import (
	"context"
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/studiofit/membercore/internal/app"
	"github.com/studiofit/membercore/internal/platform/config"
	"github.com/studiofit/membercore/internal/platform/otel"
	"github.com/studiofit/membercore/internal/storage/sqlite"
)

// Config holds membercore command configuration.
type Config struct {
	EventsDBPath string        `env:"MEMBERCORE_EVENTS_DB_PATH" envDefault:"data/events.db"`
	ViewsDBPath  string        `env:"MEMBERCORE_VIEWS_DB_PATH" envDefault:"data/views.db"`
	AwaitTimeout time.Duration `env:"MEMBERCORE_AWAIT_TIMEOUT" envDefault:"5s"`
}

// ParseConfig parses environment and flags into a Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := config.ParseEnv(&cfg); err != nil {
		return Config{}, err
	}
	fs.StringVar(&cfg.EventsDBPath, "events-db", cfg.EventsDBPath, "The event journal SQLite database path")
	fs.StringVar(&cfg.ViewsDBPath, "views-db", cfg.ViewsDBPath, "The projection views SQLite database path")
	fs.DurationVar(&cfg.AwaitTimeout, "await-timeout", cfg.AwaitTimeout, "Read-your-writes wait timeout")
	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Run starts the membership core runtime and blocks until ctx is cancelled.
func Run(ctx context.Context, cfg Config) error {
	shutdown, err := otel.Setup(ctx, "membercore")
	if err != nil {
		return fmt.Errorf("setup telemetry: %w", err)
	}
	defer func() {
		if err := shutdown(context.Background()); err != nil {
			log.Printf("shutdown telemetry: %v", err)
		}
	}()

	registry, err := app.EventRegistry()
	if err != nil {
		return err
	}
	events, err := sqlite.OpenEvents(cfg.EventsDBPath, registry)
	if err != nil {
		return fmt.Errorf("open events store: %w", err)
	}
	defer events.Close()
	views, err := sqlite.OpenViews(cfg.ViewsDBPath)
	if err != nil {
		return fmt.Errorf("open views store: %w", err)
	}
	defer views.Close()

	core, err := app.New(app.Options{
		EventStore:    events,
		Outbox:        events,
		Checkpoints:   events,
		CustomerViews: views,
		ProductViews:  views,
		ContractViews: views,
		InvoiceViews:  views,
		AwaitTimeout:  cfg.AwaitTimeout,
	})
	if err != nil {
		return fmt.Errorf("build app: %w", err)
	}

	log.Printf("membercore started events_db=%s views_db=%s await_timeout=%s",
		cfg.EventsDBPath, cfg.ViewsDBPath, cfg.AwaitTimeout)
	return core.Run(ctx)
}
