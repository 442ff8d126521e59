package config

import (
	"os"
	"testing"
)

func TestLoad_RequiredFields(t *testing.T) {
	os.Unsetenv("MYSQL_DSN")
	os.Unsetenv("JWT_SECRET")

	_, err := Load()
	if err == nil {
		t.Error("Load() should fail when MYSQL_DSN is missing")
	}

	os.Setenv("MYSQL_DSN", "user:pass@tcp(localhost:3306)/registry")
	defer os.Unsetenv("MYSQL_DSN")

	_, err = Load()
	if err == nil {
		t.Error("Load() should fail when JWT_SECRET is missing")
	}

	os.Setenv("JWT_SECRET", "test-secret")
	defer os.Unsetenv("JWT_SECRET")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if cfg.MySQL.DSN != "user:pass@tcp(localhost:3306)/registry" {
		t.Errorf("Unexpected DSN: %s", cfg.MySQL.DSN)
	}
}

func TestLoad_Defaults(t *testing.T) {
	os.Setenv("MYSQL_DSN", "dsn")
	os.Setenv("JWT_SECRET", "secret")
	defer os.Unsetenv("MYSQL_DSN")
	defer os.Unsetenv("JWT_SECRET")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.HTTPAddr != ":8080" {
		t.Errorf("Expected default HTTP_ADDR :8080, got %s", cfg.HTTPAddr)
	}
	if cfg.JWT.ExpireMinutes != 1440 {
		t.Errorf("Expected default expire minutes 1440, got %d", cfg.JWT.ExpireMinutes)
	}
	if cfg.Peering.FetchTimeoutSec != 30 {
		t.Errorf("Expected default peer fetch timeout 30, got %d", cfg.Peering.FetchTimeoutSec)
	}
	if cfg.Peering.WorkerEnabled {
		t.Error("Peer sync worker should be disabled by default")
	}
	if cfg.Peering.DefaultIntervalMinutes != 60 {
		t.Errorf("Expected default sync interval 60, got %d", cfg.Peering.DefaultIntervalMinutes)
	}
	if cfg.Search.IndexPath != "data/agents.bleve" {
		t.Errorf("Unexpected default index path: %s", cfg.Search.IndexPath)
	}
}

func TestLoad_EnvOverride(t *testing.T) {
	os.Setenv("MYSQL_DSN", "dsn")
	os.Setenv("JWT_SECRET", "secret")
	os.Setenv("PEER_FETCH_TIMEOUT_SEC", "10")
	os.Setenv("PEER_SYNC_WORKER_ENABLED", "1")
	defer func() {
		os.Unsetenv("MYSQL_DSN")
		os.Unsetenv("JWT_SECRET")
		os.Unsetenv("PEER_FETCH_TIMEOUT_SEC")
		os.Unsetenv("PEER_SYNC_WORKER_ENABLED")
	}()

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if cfg.Peering.FetchTimeoutSec != 10 {
		t.Errorf("Expected peer fetch timeout 10, got %d", cfg.Peering.FetchTimeoutSec)
	}
	if !cfg.Peering.WorkerEnabled {
		t.Error("Expected peer sync worker enabled")
	}
}
