package main

import (
	"context"
	"math"
	"path/filepath"
	"testing"

	"github.com/Faultbox/midgard-terrain/internal/config"
	"github.com/Faultbox/midgard-terrain/internal/tracelog"
)

func TestViewerPath(t *testing.T) {
	line, err := newViewerPath("line", 8, 0)
	if err != nil {
		t.Fatalf("line: %v", err)
	}
	if p := line.At(10); p.X != 80 || p.Z != 0 {
		t.Errorf("expected (80, 0), got %+v", p)
	}

	circle, err := newViewerPath("circle", 5, 100)
	if err != nil {
		t.Fatalf("circle: %v", err)
	}
	for _, tick := range []int{0, 7, 31, 200} {
		p := circle.At(tick)
		r := math.Hypot(float64(p.X), float64(p.Z))
		if math.Abs(r-100) > 1e-3 {
			t.Errorf("tick %d: expected radius 100, got %v", tick, r)
		}
	}

	if _, err := newViewerPath("circle", 5, 0); err == nil {
		t.Error("expected error for a zero-radius circle")
	}
	if _, err := newViewerPath("zigzag", 5, 10); err == nil {
		t.Error("expected error for an unknown path")
	}
}

func smallConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.Terrain.ChunkSize = 24
	cfg.Terrain.LODs = []config.LODConfig{
		{Level: 0, VisibleDistance: 30},
		{Level: 1, VisibleDistance: 60},
	}
	cfg.Terrain.ColliderLODIndex = 0
	cfg.Terrain.ViewerMoveThreshold = 4
	cfg.Workers.Count = 2
	cfg.Viewer.Speed = 3
	cfg.Viewer.Ticks = 20
	cfg.Viewer.TickRate = 0
	cfg.Trace.Enabled = true
	cfg.Trace.Path = filepath.Join(t.TempDir(), "trace.jsonl.zst")
	if err := cfg.Validate(); err != nil {
		t.Fatalf("invalid test config: %v", err)
	}
	return cfg
}

func TestSimulationRun(t *testing.T) {
	cfg := smallConfig(t)

	sim, err := newSimulation(cfg)
	if err != nil {
		t.Fatalf("newSimulation: %v", err)
	}
	if err := sim.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if err := sim.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	st := sim.manager.Stats()
	if st.Ticks != 20 {
		t.Errorf("expected 20 ticks, got %d", st.Ticks)
	}
	if st.Resident < 49 {
		t.Errorf("expected at least 49 resident chunks, got %d", st.Resident)
	}
	if sim.scene.Stats().Colliders == 0 {
		t.Error("expected a collider under the viewer's path")
	}
	if sim.dispatcher.Pending() != 0 {
		t.Errorf("expected no pending jobs after run, got %d", sim.dispatcher.Pending())
	}

	recs, err := tracelog.ReadAll(cfg.Trace.Path)
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if len(recs) != 20 {
		t.Fatalf("expected 20 trace records, got %d", len(recs))
	}
	if !recs[0].Recomputed || recs[0].Created != 49 {
		t.Errorf("expected first tick to create 49 chunks, got %+v", recs[0])
	}
	if recs[19].Viewer[0] != 57 {
		t.Errorf("expected last viewer x 57, got %v", recs[19].Viewer[0])
	}
}

func TestSimulationSnapshots(t *testing.T) {
	cfg := smallConfig(t)
	cfg.Trace.Enabled = false
	cfg.Debug.SnapshotDir = t.TempDir()
	cfg.Debug.SnapshotEvery = 10

	sim, err := newSimulation(cfg)
	if err != nil {
		t.Fatalf("newSimulation: %v", err)
	}
	defer sim.Close()
	if err := sim.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}

	// Ticks 10 and 20, and the final one after the flush overwrites 20.
	files, err := filepath.Glob(filepath.Join(cfg.Debug.SnapshotDir, "grid_*.png"))
	if err != nil {
		t.Fatalf("Glob: %v", err)
	}
	if len(files) != 2 {
		t.Errorf("expected 2 snapshots, got %v", files)
	}
}

func TestSimulationStopsOnCancel(t *testing.T) {
	cfg := smallConfig(t)
	cfg.Trace.Enabled = false

	sim, err := newSimulation(cfg)
	if err != nil {
		t.Fatalf("newSimulation: %v", err)
	}
	defer sim.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := sim.Run(ctx); err != nil {
		t.Fatalf("expected clean stop, got %v", err)
	}
	if got := sim.manager.Stats().Ticks; got != 0 {
		t.Errorf("expected no ticks after cancel, got %d", got)
	}
}
