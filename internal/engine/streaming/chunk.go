package streaming

import (
	"fmt"
	"math"

	"go.uber.org/zap"

	"github.com/Faultbox/midgard-terrain/internal/engine/jobs"
	"github.com/Faultbox/midgard-terrain/internal/engine/terrain"
	vec "github.com/Faultbox/midgard-terrain/pkg/math"
)

// ChunkState tracks a chunk's heightfield.
type ChunkState int

const (
	StateCreated ChunkState = iota
	StateHeightPending
	StateHeightReady
)

func (s ChunkState) String() string {
	switch s {
	case StateCreated:
		return "created"
	case StateHeightPending:
		return "height-pending"
	case StateHeightReady:
		return "height-ready"
	default:
		return fmt.Sprintf("ChunkState(%d)", int(s))
	}
}

// noLOD marks a chunk that has not displayed any mesh yet.
const noLOD = -1

// Chunk is one grid cell: its heightfield, its per-LOD meshes, and whether
// it is shown and collidable.
type Chunk struct {
	env *env

	coord        GridCoord
	bounds       vec.Rect
	sampleCenter vec.Vec2

	state   ChunkState
	heights *terrain.HeightField
	slots   []*lodMeshSlot

	lodIndex         int
	visible          bool
	colliderAttached bool

	visibilityListeners []func(c *Chunk, visible bool)
}

func newChunk(e *env, coord GridCoord) *Chunk {
	center := vec.Vec2{X: float32(coord.X), Y: float32(coord.Y)}
	c := &Chunk{
		env:          e,
		coord:        coord,
		bounds:       vec.RectFromCenter(center.Scale(e.chunkWorldSize), e.chunkWorldSize/2),
		sampleCenter: center.Scale(float32(e.cfg.ChunkSize)),
		lodIndex:     noLOD,
		slots:        make([]*lodMeshSlot, len(e.cfg.LODs)),
	}

	for i := range c.slots {
		slot := newLODMeshSlot(e, coord, i)
		slot.subscribe(c.update)
		if i == e.cfg.ColliderLODIndex {
			slot.subscribe(c.updateCollisionMesh)
		}
		c.slots[i] = slot
	}

	e.backend.CreateChunk(coord, c.bounds)
	return c
}

func (c *Chunk) onVisibilityChanged(fn func(c *Chunk, visible bool)) {
	c.visibilityListeners = append(c.visibilityListeners, fn)
}

// load requests the heightfield. Only the first call has an effect.
func (c *Chunk) load() {
	if c.state != StateCreated {
		return
	}
	c.state = StateHeightPending

	provide, center := c.env.heights, c.sampleCenter
	c.env.dispatcher.Submit(jobs.Job{
		Name:    fmt.Sprintf("heightmap %v", c.coord),
		Compute: func() any { return provide(center) },
		Apply:   func(r any) { c.onHeightsReceived(r.(*terrain.HeightField)) },
	})
}

func (c *Chunk) onHeightsReceived(h *terrain.HeightField) {
	c.heights = h
	c.state = StateHeightReady
	c.env.counters.heightsReceived++
	c.update()
}

// update re-evaluates visibility and the displayed LOD against the current
// viewer position.
func (c *Chunk) update() {
	if c.state != StateHeightReady {
		return
	}

	distance := float32(math.Sqrt(float64(c.bounds.SqrDistance(c.env.viewer))))
	wasVisible := c.visible
	visible := distance <= c.env.maxViewDistance

	if visible {
		lodIndex := SelectLOD(c.env.cfg.LODs, distance)
		if lodIndex != c.lodIndex {
			slot := c.slots[lodIndex]
			if slot.ready {
				c.lodIndex = lodIndex
				c.env.backend.SetRenderMesh(c.coord, lodIndex, slot.mesh)
				c.env.counters.meshesApplied++
			} else if !slot.requested {
				slot.requestIfNeeded(c.heights)
			}
		}
	}

	if wasVisible != visible {
		c.setVisible(visible)
	}
}

// updateCollisionMesh requests the collider LOD when the viewer is within its
// visual range and attaches it once the viewer is close enough. After the
// first attach it does nothing.
func (c *Chunk) updateCollisionMesh() {
	if c.colliderAttached || c.state != StateHeightReady {
		return
	}

	sqDist := c.bounds.SqrDistance(c.env.viewer)
	slot := c.slots[c.env.cfg.ColliderLODIndex]

	if sqDist < c.env.colliderRangeSq {
		slot.requestIfNeeded(c.heights)
	}
	if sqDist < c.env.activationSq && slot.ready {
		c.env.backend.SetCollisionMesh(c.coord, slot.mesh)
		c.colliderAttached = true
		c.env.counters.collidersAttached++
		c.env.log.Debug("collider attached",
			zap.Stringer("chunk", c.coord),
			zap.Int("lod", c.env.cfg.ColliderLODIndex),
		)
	}
}

func (c *Chunk) setVisible(visible bool) {
	c.visible = visible
	c.env.backend.SetActive(c.coord, visible)
	for _, fn := range c.visibilityListeners {
		fn(c, visible)
	}
}

// Coord returns the chunk's grid cell.
func (c *Chunk) Coord() GridCoord { return c.coord }

// Bounds returns the chunk's footprint in world units.
func (c *Chunk) Bounds() vec.Rect { return c.bounds }

// State returns the heightfield state.
func (c *Chunk) State() ChunkState { return c.state }

// HeightField returns the chunk's heights, or nil while pending.
func (c *Chunk) HeightField() *terrain.HeightField { return c.heights }

// Visible reports whether the chunk is within view distance.
func (c *Chunk) Visible() bool { return c.visible }

// LODIndex returns the LOD currently displayed, or -1 if none.
func (c *Chunk) LODIndex() int { return c.lodIndex }

// ColliderAttached reports whether the collision mesh has been attached.
func (c *Chunk) ColliderAttached() bool { return c.colliderAttached }

// MeshRequested reports whether the mesh for lodIndex has been requested.
func (c *Chunk) MeshRequested(lodIndex int) bool { return c.slots[lodIndex].requested }

// MeshReady reports whether the mesh for lodIndex has arrived.
func (c *Chunk) MeshReady(lodIndex int) bool { return c.slots[lodIndex].ready }
