package importer

import (
	"context"
	"flag"
	"strings"
	"testing"
)

func TestParseConfigFlags(t *testing.T) {
	fs := flag.NewFlagSet("importer", flag.ContinueOnError)
	cfg, err := ParseConfig(fs, []string{"-dir", "/data/aasx", "-db", "/tmp/hub.db"})
	if err != nil {
		t.Fatalf("parse config: %v", err)
	}
	if cfg.Dir != "/data/aasx" {
		t.Fatalf("dir = %q, want /data/aasx", cfg.Dir)
	}
	if cfg.DBPath != "/tmp/hub.db" {
		t.Fatalf("db path = %q, want /tmp/hub.db", cfg.DBPath)
	}
}

func TestRunRequiresDirectory(t *testing.T) {
	err := Run(context.Background(), Config{DBPath: "x.db"}, &strings.Builder{})
	if err == nil {
		t.Fatal("expected missing directory error")
	}
}
