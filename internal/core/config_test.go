package core

import (
	"testing"
	"time"
)

func TestConfig_DatabaseURL(t *testing.T) {
	cfg := &Config{}
	cfg.Database.Engine = "postgres"
	cfg.Database.Host = "localhost"
	cfg.Database.Port = 5432
	cfg.Database.Name = "testdb"
	cfg.Database.Username = "testuser"
	cfg.Database.Password = "testpassword"

	url := cfg.DatabaseURL()
	expected := "host=localhost port=5432 dbname=testdb user=testuser password=testpassword sslmode="
	if url != expected {
		t.Errorf("DatabaseURL() want = %s, got = %s", expected, url)
	}
}

func TestConfig_TurnTimeout(t *testing.T) {
	cfg := &Config{}
	if cfg.TurnTimeout() != 0 {
		t.Errorf("TurnTimeout() with no config want 0, got = %v", cfg.TurnTimeout())
	}

	cfg.GameServer.TurnTimeout = 30
	if cfg.TurnTimeout() != 30*time.Second {
		t.Errorf("TurnTimeout() want 30s, got = %v", cfg.TurnTimeout())
	}
}

func TestConfig_CreditHold(t *testing.T) {
	cfg := &Config{}
	cfg.GameServer.CreditHoldMinutes = 15

	if cfg.CreditHold() != 15*time.Minute {
		t.Errorf("CreditHold() want 15m, got = %v", cfg.CreditHold())
	}
}
