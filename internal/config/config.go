// Package config handles terrain streamer configuration loading and management.
package config

import (
	"fmt"
	"time"

	"github.com/Faultbox/midgard-terrain/internal/engine/streaming"
	"github.com/Faultbox/midgard-terrain/internal/engine/terrain"
	vec "github.com/Faultbox/midgard-terrain/pkg/math"
)

// Config holds all streamer settings.
type Config struct {
	Terrain TerrainConfig `yaml:"terrain"`
	Noise   NoiseConfig   `yaml:"noise"`
	Workers WorkersConfig `yaml:"workers"`
	Viewer  ViewerConfig  `yaml:"viewer"`
	Trace   TraceConfig   `yaml:"trace"`
	Debug   DebugConfig   `yaml:"debug"`
	Logging LoggingConfig `yaml:"logging"`
}

// TerrainConfig holds the chunk grid and LOD settings.
type TerrainConfig struct {
	ChunkSize                  int         `yaml:"chunk_size"`  // Heightfield cells per chunk edge
	WorldScale                 float32     `yaml:"world_scale"` // World units per cell
	LODs                       []LODConfig `yaml:"lods"`
	ColliderLODIndex           int         `yaml:"collider_lod_index"`
	ColliderActivationDistance float32     `yaml:"collider_activation_distance"`
	ViewerMoveThreshold        float32     `yaml:"viewer_move_threshold"`
}

// LODConfig is one distance band.
type LODConfig struct {
	Level           int     `yaml:"level"`
	VisibleDistance float32 `yaml:"visible_distance"`
}

// NoiseConfig holds heightfield synthesis settings.
type NoiseConfig struct {
	Seed             int64              `yaml:"seed"`
	Octaves          int                `yaml:"octaves"`
	Persistence      float64            `yaml:"persistence"`
	Lacunarity       float64            `yaml:"lacunarity"`
	Scale            float64            `yaml:"scale"`
	OffsetX          float32            `yaml:"offset_x"`
	OffsetZ          float32            `yaml:"offset_z"`
	HeightMultiplier float32            `yaml:"height_multiplier"`
	Normalize        string             `yaml:"normalize"` // global or local
	Curve            []terrain.CurveKey `yaml:"curve"`
}

// WorkersConfig holds background job settings.
type WorkersConfig struct {
	Count int `yaml:"count"` // 0 = one per CPU
}

// ViewerConfig describes the simulated viewer driven by terrainsim.
type ViewerConfig struct {
	Path       string        `yaml:"path"`   // line or circle
	Speed      float32       `yaml:"speed"`  // World units per tick
	Radius     float32       `yaml:"radius"` // Circle radius
	Ticks      int           `yaml:"ticks"`
	TickRate   int           `yaml:"tick_rate"` // Ticks per second, 0 = unthrottled
	StatsEvery time.Duration `yaml:"stats_every"`
}

// TraceConfig controls the per-tick trace file.
type TraceConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// DebugConfig controls grid map snapshots.
type DebugConfig struct {
	SnapshotDir   string `yaml:"snapshot_dir"`   // Empty disables snapshots
	SnapshotEvery int    `yaml:"snapshot_every"` // Ticks between snapshots, 0 = final only
	CellPixels    int    `yaml:"cell_pixels"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	noise := terrain.DefaultNoiseSettings()
	return &Config{
		Terrain: TerrainConfig{
			ChunkSize:  240,
			WorldScale: 1,
			LODs: []LODConfig{
				{Level: 0, VisibleDistance: 300},
				{Level: 1, VisibleDistance: 600},
				{Level: 2, VisibleDistance: 900},
			},
			ColliderLODIndex:           1,
			ColliderActivationDistance: 5,
			ViewerMoveThreshold:        25,
		},
		Noise: NoiseConfig{
			Seed:             noise.Seed,
			Octaves:          noise.Octaves,
			Persistence:      noise.Persistence,
			Lacunarity:       noise.Lacunarity,
			Scale:            noise.Scale,
			HeightMultiplier: noise.HeightMultiplier,
			Normalize:        string(noise.Normalize),
		},
		Viewer: ViewerConfig{
			Path:       "line",
			Speed:      8,
			Radius:     600,
			Ticks:      600,
			TickRate:   60,
			StatsEvery: time.Second,
		},
		Trace: TraceConfig{
			Enabled: false,
			Path:    "trace.jsonl.zst",
		},
		Debug: DebugConfig{
			SnapshotDir:   "",
			SnapshotEvery: 0,
			CellPixels:    8,
		},
		Logging: LoggingConfig{
			Level:   "info",
			LogFile: "",
		},
	}
}

// StreamingConfig converts the terrain section for streaming.NewManager.
func (c *Config) StreamingConfig() streaming.Config {
	lods := make([]streaming.LODLevel, len(c.Terrain.LODs))
	for i, l := range c.Terrain.LODs {
		lods[i] = streaming.LODLevel{Level: l.Level, VisibleDistance: l.VisibleDistance}
	}
	return streaming.Config{
		ChunkSize:                  c.Terrain.ChunkSize,
		WorldScale:                 c.Terrain.WorldScale,
		LODs:                       lods,
		ColliderLODIndex:           c.Terrain.ColliderLODIndex,
		ColliderActivationDistance: c.Terrain.ColliderActivationDistance,
		ViewerMoveThreshold:        c.Terrain.ViewerMoveThreshold,
	}
}

// NoiseSettings converts the noise section for terrain.NewNoiseProvider.
func (c *Config) NoiseSettings() terrain.NoiseSettings {
	return terrain.NoiseSettings{
		Seed:             c.Noise.Seed,
		Octaves:          c.Noise.Octaves,
		Persistence:      c.Noise.Persistence,
		Lacunarity:       c.Noise.Lacunarity,
		Scale:            c.Noise.Scale,
		Offset:           vec.Vec2{X: c.Noise.OffsetX, Y: c.Noise.OffsetZ},
		HeightMultiplier: c.Noise.HeightMultiplier,
		Curve:            terrain.Curve(c.Noise.Curve),
		Normalize:        terrain.NormalizeMode(c.Noise.Normalize),
	}
}

// Validate checks the settings that would otherwise fail at runtime.
func (c *Config) Validate() error {
	if err := c.StreamingConfig().Validate(); err != nil {
		return err
	}
	switch terrain.NormalizeMode(c.Noise.Normalize) {
	case terrain.NormalizeGlobal, terrain.NormalizeLocal:
	default:
		return fmt.Errorf("noise: unknown normalize mode %q", c.Noise.Normalize)
	}
	if c.Noise.Octaves < 1 {
		return fmt.Errorf("noise: octaves must be at least 1, got %d", c.Noise.Octaves)
	}
	switch c.Viewer.Path {
	case "line", "circle":
	default:
		return fmt.Errorf("viewer: unknown path %q", c.Viewer.Path)
	}
	if c.Debug.SnapshotEvery < 0 {
		return fmt.Errorf("debug: snapshot interval must not be negative, got %d", c.Debug.SnapshotEvery)
	}
	if c.Workers.Count < 0 {
		return fmt.Errorf("workers: count must not be negative, got %d", c.Workers.Count)
	}
	return nil
}
