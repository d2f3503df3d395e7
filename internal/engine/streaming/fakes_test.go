package streaming

import (
	"strings"
	"testing"

	"github.com/Faultbox/midgard-terrain/internal/engine/jobs"
	"github.com/Faultbox/midgard-terrain/internal/engine/terrain"
	vec "github.com/Faultbox/midgard-terrain/pkg/math"
)

// manualDispatcher runs nothing until the test says so, which lets tests
// choose exactly which jobs finish and in what order.
type manualDispatcher struct {
	queued    []jobs.Job
	done      []func()
	submitted []string
}

func (d *manualDispatcher) Submit(job jobs.Job) {
	d.queued = append(d.queued, job)
	d.submitted = append(d.submitted, job.Name)
}

func (d *manualDispatcher) Drain() int {
	batch := d.done
	d.done = nil
	for _, apply := range batch {
		apply()
	}
	return len(batch)
}

// complete runs the compute step of every queued job whose name starts with
// prefix, moving it to the completion queue.
func (d *manualDispatcher) complete(prefix string) int {
	var keep []jobs.Job
	n := 0
	for _, job := range d.queued {
		if !strings.HasPrefix(job.Name, prefix) {
			keep = append(keep, job)
			continue
		}
		result := job.Compute()
		apply := job.Apply
		d.done = append(d.done, func() { apply(result) })
		n++
	}
	d.queued = keep
	return n
}

func (d *manualDispatcher) completeAll() int {
	return d.complete("")
}

func (d *manualDispatcher) count(prefix string) int {
	n := 0
	for _, name := range d.submitted {
		if strings.HasPrefix(name, prefix) {
			n++
		}
	}
	return n
}

type renderCall struct {
	lodIndex int
	mesh     *terrain.Mesh
}

type fakeBackend struct {
	created     map[GridCoord]int
	active      map[GridCoord]bool
	activations int
	render      map[GridCoord][]renderCall
	colliders   map[GridCoord][]*terrain.Mesh
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		created:   make(map[GridCoord]int),
		active:    make(map[GridCoord]bool),
		render:    make(map[GridCoord][]renderCall),
		colliders: make(map[GridCoord][]*terrain.Mesh),
	}
}

func (b *fakeBackend) CreateChunk(coord GridCoord, _ vec.Rect) {
	b.created[coord]++
}

func (b *fakeBackend) SetActive(coord GridCoord, active bool) {
	b.active[coord] = active
	b.activations++
}

func (b *fakeBackend) SetRenderMesh(coord GridCoord, lodIndex int, mesh *terrain.Mesh) {
	b.render[coord] = append(b.render[coord], renderCall{lodIndex: lodIndex, mesh: mesh})
}

func (b *fakeBackend) SetCollisionMesh(coord GridCoord, mesh *terrain.Mesh) {
	b.colliders[coord] = append(b.colliders[coord], mesh)
}

func (b *fakeBackend) lastRender(coord GridCoord) (renderCall, bool) {
	calls := b.render[coord]
	if len(calls) == 0 {
		return renderCall{}, false
	}
	return calls[len(calls)-1], true
}

// scenarioConfig is chunk size 240 with LOD bands at 300, 600 and 900.
func scenarioConfig() Config {
	return Config{
		ChunkSize:  240,
		WorldScale: 1,
		LODs: []LODLevel{
			{Level: 0, VisibleDistance: 300},
			{Level: 1, VisibleDistance: 600},
			{Level: 2, VisibleDistance: 900},
		},
		ColliderLODIndex:           1,
		ColliderActivationDistance: 5,
		ViewerMoveThreshold:        25,
	}
}

type harness struct {
	m       *Manager
	d       *manualDispatcher
	backend *fakeBackend
}

func newHarness(t *testing.T, cfg Config) *harness {
	t.Helper()
	d := &manualDispatcher{}
	b := newFakeBackend()
	m, err := NewManager(cfg, Deps{
		Dispatcher: d,
		Backend:    b,
		Heights: func(center vec.Vec2) *terrain.HeightField {
			return &terrain.HeightField{Size: 3, Min: center.X, Max: center.Y}
		},
		Meshes: func(h *terrain.HeightField, level int) *terrain.Mesh {
			return &terrain.Mesh{Level: level}
		},
	})
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}
	return &harness{m: m, d: d, backend: b}
}

// at ticks with the viewer at (x, 0, z).
func (h *harness) at(x, z float32) TickResult {
	return h.m.Tick(vec.Vec3{X: x, Z: z})
}

func (h *harness) chunk(t *testing.T, x, y int) *Chunk {
	t.Helper()
	c, ok := h.m.Chunk(GridCoord{X: x, Y: y})
	if !ok {
		t.Fatalf("chunk (%d,%d) not resident", x, y)
	}
	return c
}
