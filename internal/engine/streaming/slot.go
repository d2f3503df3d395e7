package streaming

import (
	"fmt"

	"github.com/Faultbox/midgard-terrain/internal/engine/jobs"
	"github.com/Faultbox/midgard-terrain/internal/engine/terrain"
)

// lodMeshSlot caches the mesh of one chunk at one LOD. It moves only
// forward: idle, requested, ready. A ready mesh is kept for the chunk's
// lifetime.
type lodMeshSlot struct {
	env      *env
	coord    GridCoord
	lodIndex int
	level    int

	requested bool
	ready     bool
	mesh      *terrain.Mesh

	// subscribers run, in order, when the mesh arrives.
	subscribers []func()
}

func newLODMeshSlot(e *env, coord GridCoord, lodIndex int) *lodMeshSlot {
	return &lodMeshSlot{
		env:      e,
		coord:    coord,
		lodIndex: lodIndex,
		level:    e.cfg.LODs[lodIndex].Level,
	}
}

func (s *lodMeshSlot) subscribe(fn func()) {
	s.subscribers = append(s.subscribers, fn)
}

// requestIfNeeded submits the mesh job the first time it is called.
func (s *lodMeshSlot) requestIfNeeded(h *terrain.HeightField) {
	if s.requested {
		return
	}
	s.requested = true

	build, level := s.env.meshes, s.level
	s.env.dispatcher.Submit(jobs.Job{
		Name:    fmt.Sprintf("mesh %v lod %d", s.coord, s.lodIndex),
		Compute: func() any { return build(h, level) },
		Apply:   func(r any) { s.onMeshReceived(r.(*terrain.Mesh)) },
	})
}

func (s *lodMeshSlot) onMeshReceived(m *terrain.Mesh) {
	s.mesh = m
	s.ready = true
	s.env.counters.meshesReceived++
	for _, fn := range s.subscribers {
		fn()
	}
}
