package config

import "flag"

var (
	flagConfig  = flag.String("config", "", "Path to config file")
	flagDebug   = flag.Bool("debug", false, "Enable debug logging")
	flagSeed    = flag.Int64("seed", 0, "Noise seed (0 keeps the configured seed)")
	flagTicks   = flag.Int("ticks", 0, "Number of ticks to simulate")
	flagWorkers = flag.Int("workers", 0, "Background worker count")
	flagSpeed   = flag.Float64("speed", 0, "Viewer speed in world units per tick")
	flagPath    = flag.String("path", "", "Viewer path: line or circle")
	flagTrace   = flag.String("trace", "", "Write a per-tick trace to this file")
	flagSnaps   = flag.String("snapshots", "", "Write grid map PNGs to this directory")
)

// ParseFlags parses command-line flags. Call this early in main().
func ParseFlags() {
	flag.Parse()
}

// ConfigPath returns the explicit config path if provided via --config flag.
func ConfigPath() string {
	return *flagConfig
}

// applyFlags applies CLI flag overrides to the config.
func applyFlags(cfg *Config) {
	if *flagDebug {
		cfg.Logging.Level = "debug"
	}
	if *flagSeed != 0 {
		cfg.Noise.Seed = *flagSeed
	}
	if *flagTicks > 0 {
		cfg.Viewer.Ticks = *flagTicks
	}
	if *flagWorkers > 0 {
		cfg.Workers.Count = *flagWorkers
	}
	if *flagSpeed > 0 {
		cfg.Viewer.Speed = float32(*flagSpeed)
	}
	if *flagPath != "" {
		cfg.Viewer.Path = *flagPath
	}
	if *flagTrace != "" {
		cfg.Trace.Enabled = true
		cfg.Trace.Path = *flagTrace
	}
	if *flagSnaps != "" {
		cfg.Debug.SnapshotDir = *flagSnaps
	}
}
