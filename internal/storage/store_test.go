package storage

import (
	"testing"
	"time"

	"sales-leaderboard/internal/config"
)

func TestBuildPoolConfig(t *testing.T) {
	pc, err := buildPoolConfig(config.DatabaseConfig{
		DSN:             "postgres://app@localhost:5432/sales",
		MaxOpenConns:    4,
		MaxIdleConns:    2,
		ConnMaxLifetime: 30 * time.Minute,
	})
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if pc.MaxConns != 5 {
		t.Fatalf("MaxConns = %d, want 5 (4 + listener)", pc.MaxConns)
	}
	if pc.MinConns != 2 || pc.MaxConnLifetime != 30*time.Minute {
		t.Fatalf("unexpected pool limits min=%d lifetime=%s", pc.MinConns, pc.MaxConnLifetime)
	}
	if got := pc.ConnConfig.RuntimeParams["application_name"]; got != applicationName {
		t.Fatalf("application_name = %q", got)
	}
}

func TestBuildPoolConfigKeepsApplicationName(t *testing.T) {
	pc, err := buildPoolConfig(config.DatabaseConfig{
		DSN: "postgres://app@localhost:5432/sales?application_name=tv-wall",
	})
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if got := pc.ConnConfig.RuntimeParams["application_name"]; got != "tv-wall" {
		t.Fatalf("application_name = %q, want tv-wall", got)
	}
}

func TestBuildPoolConfigRequiresDSN(t *testing.T) {
	if _, err := buildPoolConfig(config.DatabaseConfig{}); err == nil {
		t.Fatal("expected an error without a dsn")
	}
}
