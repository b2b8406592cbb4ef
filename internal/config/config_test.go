package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "test.toml")
	if err := os.WriteFile(p, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return p
}

func TestLoadOverridesDefaults(t *testing.T) {
	p := writeConfig(t, `
[simulation]
tick_rate = "50ms"

[senses.throttle]
misc = "1s"

[logging]
level = "debug"
`)
	cfg, err := Load(p)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Simulation.TickRate != 50*time.Millisecond {
		t.Errorf("tick_rate = %v", cfg.Simulation.TickRate)
	}
	if cfg.Senses.Throttle.Misc != time.Second {
		t.Errorf("throttle.misc = %v", cfg.Senses.Throttle.Misc)
	}
	if cfg.Senses.Throttle.HighPriority != 150*time.Millisecond {
		t.Errorf("untouched default lost: %v", cfg.Senses.Throttle.HighPriority)
	}
	if cfg.Simulation.Ticks != 100 || cfg.Logging.Level != "debug" {
		t.Errorf("unexpected values: ticks=%d level=%s", cfg.Simulation.Ticks, cfg.Logging.Level)
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"bad toml", `[simulation`},
		{"zero tick", "[simulation]\ntick_rate = \"0s\""},
		{"negative look", "[senses]\nlook_distance = -1.0"},
		{"empty feed", "[sound]\ncapacity = 0"},
	}
	for _, tt := range tests {
		if _, err := Load(writeConfig(t, tt.body)); err == nil {
			t.Errorf("%s: Load accepted invalid config", tt.name)
		}
	}
	if _, err := Load(filepath.Join(t.TempDir(), "missing.toml")); err == nil {
		t.Error("missing file accepted")
	}
}

func TestShippedConfigLoads(t *testing.T) {
	cfg, err := Load(filepath.Join("..", "..", "config", "sensesim.toml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Database.DSN != "" {
		t.Error("shipped config should not enable the database")
	}
}

func TestPathFromEnv(t *testing.T) {
	t.Setenv(EnvPath, "/tmp/other.toml")
	if got := Path("config/sensesim.toml"); got != "/tmp/other.toml" {
		t.Errorf("Path = %q", got)
	}
	t.Setenv(EnvPath, "")
	if got := Path("config/sensesim.toml"); got != "config/sensesim.toml" {
		t.Errorf("Path = %q", got)
	}
}
