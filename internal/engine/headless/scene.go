// Package headless provides a streaming backend that keeps per-chunk render
// and physics state in memory instead of on a GPU.
package headless

import (
	"cmp"
	"fmt"
	"slices"

	"go.uber.org/zap"

	"github.com/Faultbox/midgard-terrain/internal/engine/streaming"
	"github.com/Faultbox/midgard-terrain/internal/engine/terrain"
	vec "github.com/Faultbox/midgard-terrain/pkg/math"
)

// ChunkObject is the in-memory stand-in for a chunk's scene object.
type ChunkObject struct {
	Coord  streaming.GridCoord
	Bounds vec.Rect
	Active bool

	// LODIndex is the LOD of the assigned render mesh, or -1.
	LODIndex   int
	RenderMesh *terrain.Mesh
	// MeshSwaps counts render mesh assignments.
	MeshSwaps int

	Collider *terrain.Mesh
}

// Stats summarizes the scene.
type Stats struct {
	Objects           int
	Active            int
	RenderTriangles   int
	ColliderTriangles int
	MeshSwaps         int
	Colliders         int
}

func (s Stats) String() string {
	return fmt.Sprintf("objects=%d active=%d tris=%d colliders=%d collider_tris=%d swaps=%d",
		s.Objects, s.Active, s.RenderTriangles, s.Colliders, s.ColliderTriangles, s.MeshSwaps)
}

// Scene implements streaming.Backend. It is not safe for concurrent use;
// streaming only calls it from the update goroutine.
type Scene struct {
	log     *zap.Logger
	objects map[streaming.GridCoord]*ChunkObject

	active            int
	renderTriangles   int
	colliderTriangles int
	colliders         int
	meshSwaps         int
}

var _ streaming.Backend = (*Scene)(nil)

// NewScene creates an empty scene. log may be nil.
func NewScene(log *zap.Logger) *Scene {
	if log == nil {
		log = zap.NewNop()
	}
	return &Scene{
		log:     log,
		objects: make(map[streaming.GridCoord]*ChunkObject),
	}
}

// CreateChunk adds a hidden object for coord.
func (s *Scene) CreateChunk(coord streaming.GridCoord, bounds vec.Rect) {
	if _, ok := s.objects[coord]; ok {
		s.log.Warn("chunk object already exists", zap.Stringer("chunk", coord))
		return
	}
	s.objects[coord] = &ChunkObject{Coord: coord, Bounds: bounds, LODIndex: -1}
}

// SetActive shows or hides the object at coord.
func (s *Scene) SetActive(coord streaming.GridCoord, active bool) {
	obj := s.object(coord)
	if obj == nil || obj.Active == active {
		return
	}
	obj.Active = active
	if active {
		s.active++
		s.renderTriangles += triangles(obj.RenderMesh)
	} else {
		s.active--
		s.renderTriangles -= triangles(obj.RenderMesh)
	}
}

// SetRenderMesh replaces the object's render mesh.
func (s *Scene) SetRenderMesh(coord streaming.GridCoord, lodIndex int, mesh *terrain.Mesh) {
	obj := s.object(coord)
	if obj == nil {
		return
	}
	if obj.Active {
		s.renderTriangles += triangles(mesh) - triangles(obj.RenderMesh)
	}
	obj.LODIndex = lodIndex
	obj.RenderMesh = mesh
	obj.MeshSwaps++
	s.meshSwaps++

	s.log.Debug("render mesh assigned",
		zap.Stringer("chunk", coord),
		zap.Int("lod", lodIndex),
		zap.Int("triangles", triangles(mesh)),
	)
}

// SetCollisionMesh attaches mesh as the object's collider.
func (s *Scene) SetCollisionMesh(coord streaming.GridCoord, mesh *terrain.Mesh) {
	obj := s.object(coord)
	if obj == nil {
		return
	}
	if obj.Collider == nil {
		s.colliders++
	}
	s.colliderTriangles += triangles(mesh) - triangles(obj.Collider)
	obj.Collider = mesh
}

func (s *Scene) object(coord streaming.GridCoord) *ChunkObject {
	obj, ok := s.objects[coord]
	if !ok {
		s.log.Warn("effect for unknown chunk", zap.Stringer("chunk", coord))
	}
	return obj
}

// Object returns the object at coord.
func (s *Scene) Object(coord streaming.GridCoord) (*ChunkObject, bool) {
	obj, ok := s.objects[coord]
	return obj, ok
}

// Objects returns a copy of every object ordered by row, then column.
func (s *Scene) Objects() []ChunkObject {
	out := make([]ChunkObject, 0, len(s.objects))
	for _, obj := range s.objects {
		out = append(out, *obj)
	}
	slices.SortFunc(out, func(a, b ChunkObject) int {
		if c := cmp.Compare(a.Coord.Y, b.Coord.Y); c != 0 {
			return c
		}
		return cmp.Compare(a.Coord.X, b.Coord.X)
	})
	return out
}

// Stats returns scene totals.
func (s *Scene) Stats() Stats {
	return Stats{
		Objects:           len(s.objects),
		Active:            s.active,
		RenderTriangles:   s.renderTriangles,
		ColliderTriangles: s.colliderTriangles,
		MeshSwaps:         s.meshSwaps,
		Colliders:         s.colliders,
	}
}

func triangles(m *terrain.Mesh) int {
	if m == nil {
		return 0
	}
	return m.TriangleCount()
}
