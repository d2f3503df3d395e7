package main

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/Faultbox/midgard-terrain/internal/config"
	"github.com/Faultbox/midgard-terrain/internal/engine/debug"
	"github.com/Faultbox/midgard-terrain/internal/engine/headless"
	"github.com/Faultbox/midgard-terrain/internal/engine/jobs"
	"github.com/Faultbox/midgard-terrain/internal/engine/streaming"
	"github.com/Faultbox/midgard-terrain/internal/engine/terrain"
	"github.com/Faultbox/midgard-terrain/internal/logger"
	"github.com/Faultbox/midgard-terrain/internal/tracelog"
	vec "github.com/Faultbox/midgard-terrain/pkg/math"
)

// simulation wires the streaming stack to a headless scene and a scripted
// viewer.
type simulation struct {
	cfg *config.Config
	log *zap.Logger

	dispatcher *jobs.Dispatcher
	scene      *headless.Scene
	manager    *streaming.Manager
	path       viewerPath
	trace      *tracelog.Writer
	snapshots  *debug.SnapshotWriter

	lastViewer vec.Vec3
}

func newSimulation(cfg *config.Config) (*simulation, error) {
	path, err := newViewerPath(cfg.Viewer.Path, cfg.Viewer.Speed, cfg.Viewer.Radius)
	if err != nil {
		return nil, err
	}

	noise := terrain.NewNoiseProvider(cfg.NoiseSettings(), cfg.Terrain.ChunkSize)
	scale := cfg.Terrain.WorldScale

	s := &simulation{
		cfg:        cfg,
		log:        logger.Named("sim"),
		dispatcher: jobs.New(jobs.Options{Workers: cfg.Workers.Count, Logger: logger.Named("jobs")}),
		scene:      headless.NewScene(logger.Named("scene")),
		path:       path,
	}

	s.manager, err = streaming.NewManager(cfg.StreamingConfig(), streaming.Deps{
		Dispatcher: s.dispatcher,
		Heights:    noise.Generate,
		Meshes: func(h *terrain.HeightField, level int) *terrain.Mesh {
			return terrain.BuildMesh(h, level, scale)
		},
		Backend: s.scene,
		Logger:  logger.Named("streaming"),
	})
	if err != nil {
		s.dispatcher.Close()
		return nil, fmt.Errorf("creating streaming manager: %w", err)
	}

	s.manager.OnActiveChange(func(coord streaming.GridCoord, active bool) {
		s.log.Debug("active set changed", zap.Stringer("chunk", coord), zap.Bool("active", active))
	})

	if cfg.Trace.Enabled {
		s.trace, err = tracelog.Create(cfg.Trace.Path)
		if err != nil {
			s.dispatcher.Close()
			return nil, fmt.Errorf("creating trace %s: %w", cfg.Trace.Path, err)
		}
		s.log.Info("writing tick trace", zap.String("path", cfg.Trace.Path))
	}
	if cfg.Debug.SnapshotDir != "" {
		s.snapshots = debug.NewSnapshotWriter(cfg.Debug.SnapshotDir, "grid")
	}
	return s, nil
}

// Run ticks the manager along the viewer path until the configured tick
// count is reached or ctx is cancelled, then waits for outstanding jobs.
func (s *simulation) Run(ctx context.Context) error {
	var tick <-chan time.Time
	if rate := s.cfg.Viewer.TickRate; rate > 0 {
		ticker := time.NewTicker(time.Second / time.Duration(rate))
		defer ticker.Stop()
		tick = ticker.C
	}

	s.log.Info("simulation started",
		zap.String("path", s.cfg.Viewer.Path),
		zap.Float32("speed", s.cfg.Viewer.Speed),
		zap.Int("ticks", s.cfg.Viewer.Ticks),
		zap.Int("tickRate", s.cfg.Viewer.TickRate),
	)

	start := time.Now()
	lastStats := start
	for i := 0; i < s.cfg.Viewer.Ticks; i++ {
		if tick != nil {
			select {
			case <-ctx.Done():
				return s.interrupted(i)
			case <-tick:
			}
		} else if ctx.Err() != nil {
			return s.interrupted(i)
		}

		if err := s.step(s.path.At(i)); err != nil {
			return s.finish(err)
		}
		if every := s.cfg.Debug.SnapshotEvery; every > 0 && (i+1)%every == 0 {
			s.snapshot()
		}

		if every := s.cfg.Viewer.StatsEvery; every > 0 && time.Since(lastStats) >= every {
			lastStats = time.Now()
			s.logStats()
		}
	}

	s.log.Info("viewer path complete", zap.Duration("elapsed", time.Since(start)))
	return s.finish(nil)
}

func (s *simulation) step(viewer vec.Vec3) error {
	res := s.manager.Tick(viewer)
	s.lastViewer = viewer
	if s.trace == nil {
		return nil
	}
	return s.trace.Write(tracelog.TickRecord{
		Tick:       res.Tick,
		Viewer:     [3]float32{viewer.X, viewer.Y, viewer.Z},
		Recomputed: res.Recomputed,
		Created:    res.Created,
		Applied:    res.Applied,
		Active:     res.Active,
		Resident:   res.Resident,
		InFlight:   s.dispatcher.Pending(),
		Triangles:  s.scene.Stats().RenderTriangles,
	})
}

func (s *simulation) interrupted(ticks int) error {
	s.log.Info("simulation interrupted", zap.Int("ticks", ticks))
	return s.finish(nil)
}

// finish applies every outstanding result so the final stats are complete.
func (s *simulation) finish(err error) error {
	applied := s.dispatcher.Flush()
	s.log.Debug("flushed outstanding jobs", zap.Int("applied", applied))
	s.logStats()
	s.snapshot()
	return err
}

// snapshot writes a grid map of the current scene when snapshots are on.
// Failures are logged and do not stop the run.
func (s *simulation) snapshot() {
	if s.snapshots == nil {
		return
	}

	objs := s.scene.Objects()
	cells := make([]debug.Cell, len(objs))
	for i, obj := range objs {
		cells[i] = debug.Cell{
			X:        obj.Coord.X,
			Y:        obj.Coord.Y,
			Active:   obj.Active,
			LODIndex: obj.LODIndex,
			Collider: obj.Collider != nil,
		}
	}

	size := s.cfg.StreamingConfig().ChunkWorldSize()
	img := debug.GridMap{
		Cells:      cells,
		ViewerX:    s.lastViewer.X / size,
		ViewerY:    s.lastViewer.Z / size,
		CellPixels: s.cfg.Debug.CellPixels,
	}.Draw()

	tick := s.manager.Stats().Ticks
	path, err := s.snapshots.Save(img, tick)
	if err != nil {
		s.log.Warn("grid snapshot failed", zap.Error(err))
		return
	}
	s.log.Debug("grid snapshot written", zap.String("path", path), zap.Uint64("tick", tick))
}

func (s *simulation) logStats() {
	js := s.dispatcher.Stats()
	s.log.Info("streaming stats",
		zap.Stringer("grid", s.manager.Stats()),
		zap.Stringer("scene", s.scene.Stats()),
		zap.Uint64("jobsSubmitted", js.Submitted),
		zap.Int("jobsInFlight", js.InFlight),
		zap.Int64("workers", js.RunningWorkers),
	)
}

// Close stops the worker pool and closes the trace.
func (s *simulation) Close() error {
	s.dispatcher.Close()
	if s.trace != nil {
		return s.trace.Close()
	}
	return nil
}
