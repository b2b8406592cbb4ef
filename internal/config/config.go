package config

import (
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
)

// EnvPath names the environment variable that overrides the config path.
const EnvPath = "AISENSES_CONFIG"

type Config struct {
	Simulation SimulationConfig `toml:"simulation"`
	Senses     SensesConfig     `toml:"senses"`
	Sound      SoundConfig      `toml:"sound"`
	Scripting  ScriptingConfig  `toml:"scripting"`
	Data       DataConfig       `toml:"data"`
	Database   DatabaseConfig   `toml:"database"`
	Output     OutputConfig     `toml:"output"`
	Logging    LoggingConfig    `toml:"logging"`
}

type SimulationConfig struct {
	TickRate time.Duration `toml:"tick_rate"` // simulated time per tick
	Ticks    int           `toml:"ticks"`     // 0 = run until interrupted
	Realtime bool          `toml:"realtime"`  // sleep tick_rate between ticks
	CellSize float64       `toml:"cell_size"` // AOI grid cell edge
}

type SensesConfig struct {
	LookDistance    float64        `toml:"look_distance"`
	EnableNextBots  bool           `toml:"enable_nextbots"`
	SoundInterests  []string       `toml:"sound_interests"` // default for agents whose class sets none
	Throttle        ThrottleConfig `toml:"throttle"`
	SummaryInterval int            `toml:"summary_interval"` // ticks between per-agent debug summaries, 0 = off
}

type ThrottleConfig struct {
	HighPriority time.Duration `toml:"high_priority"`
	NPCs         time.Duration `toml:"npcs"`
	EfficientNPC time.Duration `toml:"efficient_npcs"`
	Misc         time.Duration `toml:"misc"`
	NextBots     time.Duration `toml:"nextbots"`
}

type SoundConfig struct {
	Capacity int `toml:"capacity"`
}

type ScriptingConfig struct {
	Dir     string `toml:"dir"`
	Enabled bool   `toml:"enabled"`
}

type DataConfig struct {
	Classes  string `toml:"classes"`
	Scenario string `toml:"scenario"`
}

type DatabaseConfig struct {
	DSN             string        `toml:"dsn"` // empty disables persistence
	MaxOpenConns    int           `toml:"max_open_conns"`
	MaxIdleConns    int           `toml:"max_idle_conns"`
	ConnMaxLifetime time.Duration `toml:"conn_max_lifetime"`
	SaveInterval    int           `toml:"save_interval"` // ticks between snapshot saves
	Timeout         time.Duration `toml:"timeout"`
}

type OutputConfig struct {
	StatsCSV string `toml:"stats_csv"` // empty disables the per-tick CSV
}

type LoggingConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"` // "json" or "console"
}

// Load reads path over the defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	cfg := Defaults()
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Path returns the config path to use: $AISENSES_CONFIG if set, else def.
func Path(def string) string {
	if p := os.Getenv(EnvPath); p != "" {
		return p
	}
	return def
}

func (c *Config) validate() error {
	if c.Simulation.TickRate <= 0 {
		return fmt.Errorf("simulation.tick_rate must be positive")
	}
	if c.Senses.LookDistance < 0 {
		return fmt.Errorf("senses.look_distance must not be negative")
	}
	if c.Sound.Capacity <= 0 {
		return fmt.Errorf("sound.capacity must be positive")
	}
	return nil
}

// Defaults is the configuration used for keys the file leaves out.
func Defaults() *Config {
	return &Config{
		Simulation: SimulationConfig{
			TickRate: 100 * time.Millisecond,
			Ticks:    100,
			CellSize: 512,
		},
		Senses: SensesConfig{
			LookDistance:   2048,
			EnableNextBots: true,
			SoundInterests: []string{"all_sounds"},
			Throttle: ThrottleConfig{
				HighPriority: 150 * time.Millisecond,
				NPCs:         250 * time.Millisecond,
				EfficientNPC: 350 * time.Millisecond,
				Misc:         450 * time.Millisecond,
				NextBots:     250 * time.Millisecond,
			},
		},
		Sound: SoundConfig{
			Capacity: 64,
		},
		Scripting: ScriptingConfig{
			Dir:     "scripts",
			Enabled: true,
		},
		Data: DataConfig{
			Classes:  "data/yaml/classes.yaml",
			Scenario: "data/yaml/scenario.yaml",
		},
		Database: DatabaseConfig{
			MaxOpenConns:    5,
			MaxIdleConns:    2,
			ConnMaxLifetime: 30 * time.Minute,
			SaveInterval:    50,
			Timeout:         5 * time.Second,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}
