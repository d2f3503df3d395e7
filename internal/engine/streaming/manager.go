package streaming

import (
	"errors"
	"fmt"
	"math"

	"go.uber.org/zap"

	vec "github.com/Faultbox/midgard-terrain/pkg/math"
)

// Deps are the collaborators a Manager drives.
type Deps struct {
	Dispatcher Dispatcher
	Heights    HeightProvider
	Meshes     MeshBuilder
	// Backend may be nil, in which case effects are discarded.
	Backend Backend
	Logger  *zap.Logger
}

// TickResult summarizes one Tick.
type TickResult struct {
	Tick       uint64
	Recomputed bool
	Created    int
	Applied    int
	Active     int
	Resident   int
}

// Stats reports cumulative streaming counters.
type Stats struct {
	Ticks             uint64
	Recomputes        uint64
	Resident          int
	Active            int
	HeightsReceived   int
	MeshesReceived    int
	MeshesApplied     int
	CollidersAttached int
}

// Manager owns the coordinate to chunk map and the set of visible chunks.
type Manager struct {
	env *env

	chunks map[GridCoord]*Chunk
	active *activeSet

	visibleRadius   int
	moveThresholdSq float32

	lastRecompute vec.Vec2
	recomputed    bool

	ticks      uint64
	recomputes uint64

	activeListeners []func(coord GridCoord, active bool)
}

// NewManager validates cfg and returns an empty manager. Chunks are created
// on the first Tick.
func NewManager(cfg Config, deps Deps) (*Manager, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if deps.Dispatcher == nil {
		return nil, errors.New("streaming: dispatcher is required")
	}
	if deps.Heights == nil || deps.Meshes == nil {
		return nil, errors.New("streaming: height provider and mesh builder are required")
	}
	if deps.Backend == nil {
		deps.Backend = nopBackend{}
	}
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}

	cfg.LODs = append([]LODLevel(nil), cfg.LODs...)
	colliderRange := cfg.LODs[cfg.ColliderLODIndex].VisibleDistance
	e := &env{
		cfg:             cfg,
		chunkWorldSize:  cfg.ChunkWorldSize(),
		maxViewDistance: cfg.MaxViewDistance(),
		colliderRangeSq: colliderRange * colliderRange,
		activationSq:    cfg.ColliderActivationDistance * cfg.ColliderActivationDistance,
		dispatcher:      deps.Dispatcher,
		backend:         deps.Backend,
		heights:         deps.Heights,
		meshes:          deps.Meshes,
		log:             deps.Logger,
	}

	m := &Manager{
		env:             e,
		chunks:          make(map[GridCoord]*Chunk),
		active:          newActiveSet(),
		visibleRadius:   int(math.Round(float64(e.maxViewDistance / e.chunkWorldSize))),
		moveThresholdSq: cfg.ViewerMoveThreshold * cfg.ViewerMoveThreshold,
	}

	e.log.Info("terrain streaming ready",
		zap.Float32("chunkWorldSize", e.chunkWorldSize),
		zap.Float32("maxViewDistance", e.maxViewDistance),
		zap.Int("visibleRadius", m.visibleRadius),
		zap.Int("lods", len(cfg.LODs)),
	)
	return m, nil
}

// OnActiveChange registers fn to be told whenever a chunk joins or leaves
// the visible set.
func (m *Manager) OnActiveChange(fn func(coord GridCoord, active bool)) {
	m.activeListeners = append(m.activeListeners, fn)
}

// Tick advances streaming for the viewer's current world position.
func (m *Manager) Tick(viewer vec.Vec3) TickResult {
	m.ticks++
	pos := viewer.XZ()
	m.env.viewer = pos

	res := TickResult{Tick: m.ticks}

	// Results that finished since the last tick land before anything is
	// evaluated against the new position.
	res.Applied = m.env.dispatcher.Drain()

	if m.active.len() > 0 {
		for _, c := range m.active.snapshot() {
			c.updateCollisionMesh()
		}
	}

	if !m.recomputed || m.lastRecompute.DistanceSq(pos) >= m.moveThresholdSq {
		m.lastRecompute = pos
		m.recomputed = true
		res.Recomputed = true
		res.Created = m.updateVisibleChunks(pos)
	}

	res.Active = m.active.len()
	res.Resident = len(m.chunks)
	return res
}

// updateVisibleChunks re-evaluates every visible chunk and every cell in the
// view square, creating chunks that do not exist yet. Returns the number
// created.
func (m *Manager) updateVisibleChunks(pos vec.Vec2) int {
	m.recomputes++

	updated := make(map[GridCoord]struct{}, m.active.len())
	for _, c := range m.active.snapshot() {
		updated[c.coord] = struct{}{}
		c.update()
	}

	center := coordAt(pos, m.env.chunkWorldSize)
	created := 0
	r := m.visibleRadius
	for dy := -r; dy <= r; dy++ {
		for dx := -r; dx <= r; dx++ {
			coord := GridCoord{X: center.X + dx, Y: center.Y + dy}
			if _, ok := updated[coord]; ok {
				continue
			}
			if c, ok := m.chunks[coord]; ok {
				c.update()
				continue
			}
			c := newChunk(m.env, coord)
			c.onVisibilityChanged(m.onChunkVisibility)
			m.chunks[coord] = c
			c.load()
			created++
		}
	}

	m.env.log.Debug("visible chunks updated",
		zap.Stringer("center", center),
		zap.Int("created", created),
		zap.Int("active", m.active.len()),
		zap.Int("resident", len(m.chunks)),
	)
	return created
}

func (m *Manager) onChunkVisibility(c *Chunk, visible bool) {
	var changed bool
	if visible {
		changed = m.active.add(c)
	} else {
		changed = m.active.remove(c)
	}
	if !changed {
		return
	}
	for _, fn := range m.activeListeners {
		fn(c.coord, visible)
	}
}

// Chunk returns the resident chunk at coord, if any.
func (m *Manager) Chunk(coord GridCoord) (*Chunk, bool) {
	c, ok := m.chunks[coord]
	return c, ok
}

// IsActive reports whether the chunk at coord is in the visible set.
func (m *Manager) IsActive(coord GridCoord) bool {
	return m.active.contains(coord)
}

// ActiveCoords returns the coordinates of all visible chunks.
func (m *Manager) ActiveCoords() []GridCoord {
	out := make([]GridCoord, 0, m.active.len())
	for _, c := range m.active.chunks {
		out = append(out, c.coord)
	}
	return out
}

// Resident returns the number of chunks ever created.
func (m *Manager) Resident() int {
	return len(m.chunks)
}

// VisibleRadius returns the half-width, in chunks, of the view square.
func (m *Manager) VisibleRadius() int {
	return m.visibleRadius
}

// Stats returns cumulative counters.
func (m *Manager) Stats() Stats {
	c := m.env.counters
	return Stats{
		Ticks:             m.ticks,
		Recomputes:        m.recomputes,
		Resident:          len(m.chunks),
		Active:            m.active.len(),
		HeightsReceived:   c.heightsReceived,
		MeshesReceived:    c.meshesReceived,
		MeshesApplied:     c.meshesApplied,
		CollidersAttached: c.collidersAttached,
	}
}

// String implements fmt.Stringer for log lines.
func (s Stats) String() string {
	return fmt.Sprintf("resident=%d active=%d heights=%d meshes=%d applied=%d colliders=%d",
		s.Resident, s.Active, s.HeightsReceived, s.MeshesReceived, s.MeshesApplied, s.CollidersAttached)
}
