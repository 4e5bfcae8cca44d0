package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"petri/config"
	"petri/sim"
	"petri/telemetry"
)

func main() {
	var (
		configPath = flag.String("config", "", "path to config file (uses embedded defaults if empty)")
		seed       = flag.Int64("seed", time.Now().UnixNano(), "world seed")
		maxTicks   = flag.Uint64("max-ticks", 0, "stop after this many ticks (0 runs until interrupted)")
		outputDir  = flag.String("output-dir", "", "telemetry output directory (disabled if empty)")
		engineMode = flag.String("engine", "serial", "tick backend: serial, parallel, or atomic")
		workers    = flag.Int("workers", 0, "worker goroutines for parallel backends (0 uses config)")
		realtime   = flag.Bool("realtime", false, "pace ticks at the configured interval instead of flat out")
		logLevel   = flag.String("log-level", "info", "log level: debug, info, warn, error")
	)
	flag.Parse()

	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: parseLevel(*logLevel),
	}))
	slog.SetDefault(logger)

	if err := run(*configPath, *seed, *maxTicks, *outputDir, *engineMode, *workers, *realtime); err != nil {
		slog.Error("petri failed", "error", err)
		os.Exit(1)
	}
}

func run(configPath string, seed int64, maxTicks uint64, outputDir, engineMode string, workers int, realtime bool) error {
	if err := config.Init(configPath); err != nil {
		return err
	}
	cfg := config.Cfg()

	mode, err := parseMode(engineMode)
	if err != nil {
		return err
	}

	engine, err := sim.NewEngine(cfg, sim.Options{
		Seed:    seed,
		Mode:    mode,
		Workers: workers,
	})
	if err != nil {
		return err
	}
	slog.Info("simulation started",
		"seed", seed,
		"engine", engineMode,
		"world", fmt.Sprintf("%dx%d", cfg.World.Width, cfg.World.Height),
		"colonies", engine.World().Registry.ActiveCount(),
	)

	var output *telemetry.OutputManager
	if outputDir != "" {
		output, err = telemetry.NewOutputManager(outputDir)
		if err != nil {
			return err
		}
		defer output.Close()
		// Keep the effective config next to the run's data.
		if err := cfg.WriteYAML(filepath.Join(outputDir, "config.yaml")); err != nil {
			return err
		}
	}
	collector := telemetry.NewCollector()

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt, syscall.SIGTERM)

	window := uint64(cfg.Telemetry.StatsWindow)
	if window == 0 {
		window = 100
	}

	for {
		select {
		case <-interrupt:
			slog.Info("interrupted", "tick", engine.Tick())
			return finish(engine, collector, output, outputDir)
		default:
		}

		engine.Step()

		if engine.Tick()%window == 0 {
			ws := collector.Collect(engine)
			slog.Info("window", "stats", ws)
			if output != nil {
				if err := output.Append(ws); err != nil {
					return err
				}
			}
			if ws.Colonies == 0 {
				slog.Info("dish is sterile, stopping", "tick", engine.Tick())
				return finish(engine, collector, output, outputDir)
			}
		}

		if maxTicks > 0 && engine.Tick() >= maxTicks {
			return finish(engine, collector, output, outputDir)
		}
		if realtime {
			time.Sleep(engine.TickInterval())
		}
	}
}

// finish writes the closing stats window and, when an output directory is
// configured, a final world snapshot.
func finish(engine *sim.Engine, collector *telemetry.Collector, output *telemetry.OutputManager, outputDir string) error {
	ws := collector.Collect(engine)
	slog.Info("final", "stats", ws)
	if output != nil {
		if err := output.Append(ws); err != nil {
			return err
		}
	}
	if outputDir != "" {
		snap := telemetry.BuildSnapshot(engine.World())
		data, err := json.MarshalIndent(snap, "", "  ")
		if err != nil {
			return err
		}
		path := filepath.Join(outputDir, "snapshot.json")
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return fmt.Errorf("writing snapshot: %w", err)
		}
		slog.Info("snapshot written", "path", path, "colonies", len(snap.Colonies))
	}
	return nil
}

func parseMode(s string) (sim.Mode, error) {
	switch s {
	case "serial":
		return sim.ModeSerial, nil
	case "parallel":
		return sim.ModeParallel, nil
	case "atomic":
		return sim.ModeAtomic, nil
	default:
		return 0, fmt.Errorf("unknown engine %q (want serial, parallel, or atomic)", s)
	}
}

func parseLevel(s string) slog.Level {
	switch s {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
