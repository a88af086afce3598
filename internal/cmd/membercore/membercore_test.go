package membercore

import (
	"flag"
	"testing"
	"time"
)

func TestParseConfig_Defaults(t *testing.T) {
	fs := flag.NewFlagSet("membercore", flag.ContinueOnError)

	cfg, err := ParseConfig(fs, nil)
	if err != nil {
		t.Fatalf("parse config: %v", err)
	}
	if cfg.EventsDBPath != "data/events.db" {
		t.Fatalf("events db = %q, want %q", cfg.EventsDBPath, "data/events.db")
	}
	if cfg.ViewsDBPath != "data/views.db" {
		t.Fatalf("views db = %q, want %q", cfg.ViewsDBPath, "data/views.db")
	}
	if cfg.AwaitTimeout != 5*time.Second {
		t.Fatalf("await timeout = %s, want 5s", cfg.AwaitTimeout)
	}
}

func TestParseConfig_EnvAndFlags(t *testing.T) {
	fs := flag.NewFlagSet("membercore", flag.ContinueOnError)
	t.Setenv("MEMBERCORE_EVENTS_DB_PATH", "/tmp/events.db")
	t.Setenv("MEMBERCORE_AWAIT_TIMEOUT", "2s")

	cfg, err := ParseConfig(fs, []string{"-views-db", "/tmp/views.db", "-await-timeout", "250ms"})
	if err != nil {
		t.Fatalf("parse config: %v", err)
	}
	if cfg.EventsDBPath != "/tmp/events.db" {
		t.Fatalf("events db = %q, want %q", cfg.EventsDBPath, "/tmp/events.db")
	}
	if cfg.ViewsDBPath != "/tmp/views.db" {
		t.Fatalf("views db = %q, want %q", cfg.ViewsDBPath, "/tmp/views.db")
	}
	if cfg.AwaitTimeout != 250*time.Millisecond {
		t.Fatalf("await timeout = %s, want 250ms", cfg.AwaitTimeout)
	}
}
