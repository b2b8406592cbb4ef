package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/l1jgo/aisenses/internal/config"
	"github.com/l1jgo/aisenses/internal/core/ecs"
	"github.com/l1jgo/aisenses/internal/core/event"
	coresys "github.com/l1jgo/aisenses/internal/core/system"
	"github.com/l1jgo/aisenses/internal/data"
	"github.com/l1jgo/aisenses/internal/persist"
	"github.com/l1jgo/aisenses/internal/scripting"
	"github.com/l1jgo/aisenses/internal/senses"
	"github.com/l1jgo/aisenses/internal/sound"
	"github.com/l1jgo/aisenses/internal/system"
	"github.com/l1jgo/aisenses/internal/world"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

// ── Startup display helpers ────────────────────────────────────────

func printSection(title string) {
	lineLen := max(46-len(title)-1, 3)
	fmt.Printf("  \033[33m── %s %s\033[0m\n", title, strings.Repeat("─", lineLen))
}

func printStat(label string, count int) {
	numStr := fmt.Sprintf("%d", count)
	dotsLen := max(42-len(label)-len(numStr), 3)
	fmt.Printf("  %s \033[90m%s\033[0m \033[32m%s\033[0m\n", label, strings.Repeat("·", dotsLen), numStr)
}

func printOK(msg string) {
	fmt.Printf("  \033[32m✓\033[0m %s\n", msg)
}

// ── Simulation ─────────────────────────────────────────────────────

func run() error {
	// 1. Config and logger
	cfg, err := config.Load(config.Path("config/sensesim.toml"))
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	log, err := newLogger(cfg.Logging)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer log.Sync()

	// 2. Data
	printSection("data")
	classes, err := data.LoadClassTable(cfg.Data.Classes)
	if err != nil {
		return fmt.Errorf("load classes: %w", err)
	}
	printStat("classes", classes.Count())
	scenario, err := data.LoadScenario(cfg.Data.Scenario, classes)
	if err != nil {
		return fmt.Errorf("load scenario: %w", err)
	}
	printStat("scenario entities", len(scenario.Entities))
	printStat("scenario events", len(scenario.Events))

	interests, err := data.ParseSoundMask(cfg.Senses.SoundInterests)
	if err != nil {
		return fmt.Errorf("senses.sound_interests: %w", err)
	}

	// 3. World, feed, filter rules
	ecsWorld := ecs.NewWorld()
	bus := event.NewBus()
	ecsWorld.AddListener(event.NewForwarder(bus))
	worldState := world.NewState(ecsWorld, cfg.Simulation.CellSize, log.Named("world"))
	feed := sound.NewFeed(cfg.Sound.Capacity, log.Named("sound"))
	objects := senses.NewRegistry(log.Named("registry"))

	deps := &senses.Deps{
		World:    worldState,
		Tracer:   worldState,
		Sounds:   feed,
		Objects:  objects,
		Schedule: newSchedule(cfg.Senses),
		Log:      log.Named("senses"),
	}

	if cfg.Scripting.Enabled {
		engine, err := scripting.NewEngine(cfg.Scripting.Dir, log.Named("lua"))
		if err != nil {
			return fmt.Errorf("scripting: %w", err)
		}
		defer engine.Close()
		deps.Filter = engine
		printOK("lua sense filters loaded")
	}

	// 4. Scenario setup, then the registry sees the starting objects
	scenarioSys := system.NewScenarioSystem(worldState, bus, classes, scenario, deps,
		system.AgentDefaults{LookDistance: cfg.Senses.LookDistance, SoundInterests: interests},
		log.Named("scenario"))
	if err := scenarioSys.Setup(); err != nil {
		return fmt.Errorf("scenario: %w", err)
	}
	objects.Init(worldState, bus)
	defer objects.Term()
	printStat("agents", worldState.AgentCount())
	printStat("sensed objects", objects.Len())

	// 5. Systems
	runner := coresys.NewRunner()
	sensingSys := system.NewSensingSystem(worldState, cfg.Senses.SummaryInterval, log.Named("sensing"))
	runner.Register(system.NewEventDispatchSystem(bus, objects, log.Named("events")))
	runner.Register(scenarioSys)
	runner.Register(system.NewSoundSystem(feed, worldState, bus, log.Named("sound")))
	runner.Register(sensingSys)
	runner.Register(system.NewCleanupSystem(worldState))

	stats, err := system.NewStatsSystem(cfg.Output.StatsCSV, sensingSys, worldState, feed, objects, log.Named("stats"))
	if err != nil {
		return err
	}
	if stats != nil {
		defer stats.Close()
		runner.Register(stats)
		printOK("stats csv: " + cfg.Output.StatsCSV)
	}

	var persistSys *system.PersistenceSystem
	if cfg.Database.DSN != "" {
		printSection("database")
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		db, err := persist.NewDB(ctx, cfg.Database, log.Named("db"))
		if err != nil {
			return fmt.Errorf("database: %w", err)
		}
		defer db.Close()
		printOK("postgres connected")

		if _, err := db.RunMigrations(ctx); err != nil {
			return fmt.Errorf("migrations: %w", err)
		}
		printOK("migrations applied")

		persistSys = system.NewPersistenceSystem(worldState, persist.NewSensesRepo(db),
			cfg.Database.SaveInterval, cfg.Database.Timeout, log.Named("persist"))
		n, err := persistSys.RestoreAll(ctx)
		if err != nil {
			return fmt.Errorf("restore senses: %w", err)
		}
		printStat("agents restored", n)
		runner.Register(persistSys)
	}
	fmt.Println()

	// 6. Tick loop
	shutdownCh := make(chan os.Signal, 1)
	signal.Notify(shutdownCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(shutdownCh)

	var ticker *time.Ticker
	if cfg.Simulation.Realtime {
		ticker = time.NewTicker(cfg.Simulation.TickRate)
		defer ticker.Stop()
	}

	log.Info("simulation started",
		zap.Duration("tick_rate", cfg.Simulation.TickRate),
		zap.Int("ticks", cfg.Simulation.Ticks),
		zap.Bool("realtime", cfg.Simulation.Realtime),
	)
	start := time.Now()

loop:
	for cfg.Simulation.Ticks == 0 || int(runner.Ticks()) < cfg.Simulation.Ticks {
		if ticker != nil {
			select {
			case <-ticker.C:
			case sig := <-shutdownCh:
				log.Info("shutdown signal", zap.String("signal", sig.String()))
				break loop
			}
		} else {
			select {
			case sig := <-shutdownCh:
				log.Info("shutdown signal", zap.String("signal", sig.String()))
				break loop
			default:
			}
		}
		runner.Tick(cfg.Simulation.TickRate)
	}

	log.Info("simulation finished",
		zap.Uint64("ticks", runner.Ticks()),
		zap.Duration("sim_time", worldState.Now()),
		zap.Duration("wall_time", time.Since(start)),
		zap.Int("sounds_dropped", feed.Dropped()),
	)
	sensingSys.Summary(zapcore.InfoLevel)

	if persistSys != nil {
		if _, err := persistSys.SaveAll(); err != nil {
			return fmt.Errorf("final save: %w", err)
		}
	}
	return nil
}

// newSchedule applies the configured throttle intervals.
func newSchedule(cfg config.SensesConfig) *senses.Schedule {
	s := senses.DefaultSchedule()
	s.SetInterval(senses.SeenHighPriority, cfg.Throttle.HighPriority)
	s.SetInterval(senses.SeenNPCs, cfg.Throttle.NPCs)
	s.SetInterval(senses.SeenMisc, cfg.Throttle.Misc)
	s.SetInterval(senses.SeenNextBots, cfg.Throttle.NextBots)
	s.SetEfficientNPCInterval(cfg.Throttle.EfficientNPC)
	s.Enable(senses.SeenNextBots, cfg.EnableNextBots)
	return s
}

func newLogger(cfg config.LoggingConfig) (*zap.Logger, error) {
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level = zapcore.InfoLevel
	}

	var zapCfg zap.Config
	if cfg.Format == "json" {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
		zapCfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		zapCfg.EncoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05")
		zapCfg.EncoderConfig.ConsoleSeparator = "  "
		zapCfg.DisableCaller = true
		zapCfg.DisableStacktrace = true
	}
	zapCfg.Level = zap.NewAtomicLevelAt(level)

	return zapCfg.Build()
}
