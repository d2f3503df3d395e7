package streaming

import (
	"github.com/Faultbox/midgard-terrain/internal/engine/jobs"
	"github.com/Faultbox/midgard-terrain/internal/engine/terrain"
	vec "github.com/Faultbox/midgard-terrain/pkg/math"
)

// HeightProvider builds the heightfield for a chunk whose centre sits at
// sampleCenter (heightfield cells). It runs on worker goroutines and must be
// deterministic.
type HeightProvider func(sampleCenter vec.Vec2) *terrain.HeightField

// MeshBuilder builds the mesh for one detail level. It runs on worker
// goroutines and must not modify h.
type MeshBuilder func(h *terrain.HeightField, level int) *terrain.Mesh

// Dispatcher runs jobs off the update goroutine. *jobs.Dispatcher satisfies it.
type Dispatcher interface {
	Submit(job jobs.Job)
	Drain() int
}

// Backend receives the render and physics effects of streaming. Every call
// is made from the update goroutine.
type Backend interface {
	// CreateChunk is called once per chunk, which starts hidden.
	CreateChunk(coord GridCoord, bounds vec.Rect)
	SetActive(coord GridCoord, active bool)
	SetRenderMesh(coord GridCoord, lodIndex int, mesh *terrain.Mesh)
	SetCollisionMesh(coord GridCoord, mesh *terrain.Mesh)
}

type nopBackend struct{}

func (nopBackend) CreateChunk(GridCoord, vec.Rect) {}

func (nopBackend) SetActive(GridCoord, bool) {}

func (nopBackend) SetRenderMesh(GridCoord, int, *terrain.Mesh) {}

func (nopBackend) SetCollisionMesh(GridCoord, *terrain.Mesh) {}
