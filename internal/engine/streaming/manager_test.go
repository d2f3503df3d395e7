package streaming

import (
	"errors"
	"testing"

	"github.com/Faultbox/midgard-terrain/internal/engine/terrain"
	vec "github.com/Faultbox/midgard-terrain/pkg/math"
)

func TestFirstTickRequestsNineByNine(t *testing.T) {
	h := newHarness(t, scenarioConfig())

	res := h.at(0, 0)

	if !res.Recomputed {
		t.Fatal("expected first tick to recompute the grid")
	}
	if h.m.VisibleRadius() != 4 {
		t.Errorf("expected visible radius 4, got %d", h.m.VisibleRadius())
	}
	if res.Created != 81 || res.Resident != 81 {
		t.Errorf("expected 81 chunks created, got created=%d resident=%d", res.Created, res.Resident)
	}
	if n := h.d.count("heightmap"); n != 81 {
		t.Errorf("expected 81 heightmap requests, got %d", n)
	}
	for y := -4; y <= 4; y++ {
		for x := -4; x <= 4; x++ {
			c := h.chunk(t, x, y)
			if c.State() != StateHeightPending {
				t.Errorf("chunk (%d,%d): expected height-pending, got %v", x, y, c.State())
			}
			if h.backend.created[c.Coord()] != 1 {
				t.Errorf("chunk (%d,%d): expected one CreateChunk call", x, y)
			}
		}
	}
	if _, ok := h.m.Chunk(GridCoord{X: 5, Y: 0}); ok {
		t.Error("expected (5,0) to be outside the view square")
	}
}

func TestGridRefreshGating(t *testing.T) {
	h := newHarness(t, scenarioConfig()) // threshold 25

	tests := []struct {
		x    float32
		want bool
	}{
		{0, true},   // first tick
		{24, false}, // 24^2 < 625
		{25, true},  // 25^2 == 625
		{30, false}, // 5 from the last recompute
		{49, false},
		{50, true},
	}
	for _, tt := range tests {
		res := h.at(tt.x, 0)
		if res.Recomputed != tt.want {
			t.Errorf("viewer x=%v: expected recomputed=%v, got %v", tt.x, tt.want, res.Recomputed)
		}
	}
	if s := h.m.Stats(); s.Recomputes != 3 {
		t.Errorf("expected 3 recomputes, got %d", s.Recomputes)
	}
}

func TestChunkAtDistance450UsesLOD1(t *testing.T) {
	h := newHarness(t, scenarioConfig())

	// Chunk (0,0) spans [-120, 120]; its nearest edge is 450 away.
	h.at(570, 0)
	h.d.complete("heightmap")
	h.at(570, 0)

	c := h.chunk(t, 0, 0)
	if !c.Visible() {
		t.Fatal("expected chunk to be visible at 450")
	}
	if got := h.d.count("mesh (0,0) lod 1"); got != 1 {
		t.Errorf("expected one LOD 1 request, got %d", got)
	}
	if got := h.d.count("mesh (0,0) lod 0") + h.d.count("mesh (0,0) lod 2"); got != 0 {
		t.Errorf("expected no other LOD requests, got %d", got)
	}

	h.d.complete("mesh")
	h.at(570, 0)

	if c.LODIndex() != 1 {
		t.Errorf("expected LOD index 1, got %d", c.LODIndex())
	}
	call, ok := h.backend.lastRender(c.Coord())
	if !ok || call.lodIndex != 1 || call.mesh.Level != 1 {
		t.Errorf("expected render mesh for LOD 1, got %+v", call)
	}
}

func TestColliderRequestedThenAttachedAndKept(t *testing.T) {
	h := newHarness(t, scenarioConfig()) // collider LOD 1, activation 5
	coord := GridCoord{}

	// Nearest edge 400 away, distance squared 160000.
	h.at(520, 0)
	h.d.complete("heightmap")
	h.at(520, 0)

	c := h.chunk(t, 0, 0)
	if !c.MeshRequested(1) {
		t.Fatal("expected collider LOD to be requested at 400")
	}
	if c.ColliderAttached() {
		t.Fatal("expected no collider at 400")
	}

	h.d.completeAll()
	h.at(520, 0)
	if !c.MeshReady(1) {
		t.Fatal("expected collider LOD mesh to be ready")
	}
	if c.ColliderAttached() {
		t.Fatal("expected no collider while still 400 away")
	}

	// Three units from the +X edge.
	h.at(123, 0)
	if !c.ColliderAttached() {
		t.Fatal("expected collider to attach at 3 units")
	}
	if got := h.backend.colliders[coord]; len(got) != 1 || got[0].Level != 1 {
		t.Fatalf("expected one LOD 1 collision mesh, got %v", got)
	}

	// Retreat to 500 and keep ticking.
	for i := 0; i < 10; i++ {
		h.d.completeAll()
		h.at(620, 0)
	}
	if !c.ColliderAttached() {
		t.Error("expected collider to stay attached after retreat")
	}
	if got := len(h.backend.colliders[coord]); got != 1 {
		t.Errorf("expected exactly one attach, got %d", got)
	}
}

func TestColliderAttachesOnceWhileClose(t *testing.T) {
	h := newHarness(t, scenarioConfig())

	for i := 0; i < 30; i++ {
		h.d.completeAll()
		h.at(float32(i%3), 0) // jitter inside chunk (0,0)
	}

	c := h.chunk(t, 0, 0)
	if !c.ColliderAttached() {
		t.Fatal("expected collider to be attached")
	}
	if got := len(h.backend.colliders[c.Coord()]); got != 1 {
		t.Errorf("expected one attach event, got %d", got)
	}
	if got := h.m.Stats().CollidersAttached; got < 1 {
		t.Errorf("expected collider counter to move, got %d", got)
	}
}

func TestLateMeshDoesNotReplaceCurrentLOD(t *testing.T) {
	h := newHarness(t, scenarioConfig())
	coord := GridCoord{}

	h.at(0, 0)
	h.d.complete("heightmap")
	h.at(0, 0) // chunk (0,0) asks for LOD 0

	c := h.chunk(t, 0, 0)
	if !c.MeshRequested(0) {
		t.Fatal("expected LOD 0 request")
	}

	// Move so LOD 1 is desired before LOD 0 arrives.
	h.at(570, 0)
	if !c.MeshRequested(1) {
		t.Fatal("expected LOD 1 request after moving to 450")
	}

	h.d.complete("mesh (0,0) lod 1")
	h.at(570, 0)
	if c.LODIndex() != 1 {
		t.Fatalf("expected LOD 1 displayed, got %d", c.LODIndex())
	}

	h.d.complete("mesh (0,0) lod 0")
	h.at(570, 0)

	if !c.MeshReady(0) {
		t.Error("expected late LOD 0 mesh to be cached")
	}
	if c.LODIndex() != 1 {
		t.Errorf("expected LOD 1 to remain displayed, got %d", c.LODIndex())
	}
	if calls := h.backend.render[coord]; len(calls) != 1 || calls[0].lodIndex != 1 {
		t.Errorf("expected a single LOD 1 render assignment, got %+v", calls)
	}

	// Coming back uses the cached mesh without another request.
	h.at(0, 0)
	if c.LODIndex() != 0 {
		t.Errorf("expected cached LOD 0 to be displayed on return, got %d", c.LODIndex())
	}
	if got := h.d.count("mesh (0,0) lod 0"); got != 1 {
		t.Errorf("expected LOD 0 requested once, got %d", got)
	}
}

func TestActiveSetFollowsVisibility(t *testing.T) {
	h := newHarness(t, scenarioConfig())

	adds := make(map[GridCoord]int)
	removes := make(map[GridCoord]int)
	h.m.OnActiveChange(func(coord GridCoord, active bool) {
		if active {
			adds[coord]++
		} else {
			removes[coord]++
		}
	})

	h.at(0, 0)
	h.d.completeAll()
	for i := 0; i < 3; i++ {
		h.at(0, 0)
		h.d.completeAll()
	}

	if !h.m.IsActive(GridCoord{}) {
		t.Fatal("expected (0,0) to be active")
	}
	// (4,4) is over 1100 away and must stay hidden.
	if h.m.IsActive(GridCoord{X: 4, Y: 4}) {
		t.Error("expected (4,4) to be hidden")
	}
	active := len(h.m.ActiveCoords())
	if active == 0 || active >= 81 {
		t.Fatalf("unexpected active count %d", active)
	}
	for coord, n := range adds {
		if n != 1 {
			t.Errorf("chunk %v added %d times", coord, n)
		}
	}

	// Jump far away: every previously visible chunk must leave exactly once.
	h.at(100000, 0)
	if h.m.IsActive(GridCoord{}) {
		t.Error("expected (0,0) to be hidden after moving away")
	}
	if h.backend.active[GridCoord{}] {
		t.Error("expected backend to deactivate (0,0)")
	}
	for coord := range adds {
		if removes[coord] != 1 {
			t.Errorf("chunk %v removed %d times", coord, removes[coord])
		}
	}
}

func TestChunksAreReusedOnReturn(t *testing.T) {
	h := newHarness(t, scenarioConfig())

	h.at(0, 0)
	h.d.completeAll()
	h.at(5000, 0)
	h.d.completeAll()
	resident := h.m.Resident()

	res := h.at(0, 0)
	if res.Created != 0 {
		t.Errorf("expected no new chunks on return, got %d", res.Created)
	}
	if h.m.Resident() != resident {
		t.Errorf("expected resident count %d, got %d", resident, h.m.Resident())
	}
	if got := h.backend.created[GridCoord{}]; got != 1 {
		t.Errorf("expected (0,0) created once, got %d", got)
	}
	if got := h.d.count("heightmap (0,0)"); got != 1 {
		t.Errorf("expected one heightmap request for (0,0), got %d", got)
	}
}

func TestPendingChunkIgnoresUpdates(t *testing.T) {
	h := newHarness(t, scenarioConfig())

	h.at(0, 0)
	h.at(100, 0) // recompute while heights are still pending

	c := h.chunk(t, 0, 0)
	if c.Visible() || c.LODIndex() != -1 {
		t.Errorf("expected pending chunk to stay hidden, got visible=%v lod=%d", c.Visible(), c.LODIndex())
	}
	if h.d.count("mesh") != 0 {
		t.Errorf("expected no mesh requests before heights, got %d", h.d.count("mesh"))
	}
	if h.backend.activations != 0 {
		t.Errorf("expected no activations, got %d", h.backend.activations)
	}
}

func TestTickAppliesCompletedBeforeEvaluating(t *testing.T) {
	h := newHarness(t, scenarioConfig())

	h.at(0, 0)
	h.d.complete("heightmap")
	res := h.at(0, 0)

	if res.Applied != 81 {
		t.Errorf("expected 81 completions applied, got %d", res.Applied)
	}
	if res.Active == 0 {
		t.Error("expected chunks to become active in the same tick their heights land")
	}
}

func TestNewManagerRejectsBadInput(t *testing.T) {
	heights := func(vec.Vec2) *terrain.HeightField { return nil }
	meshes := func(*terrain.HeightField, int) *terrain.Mesh { return nil }

	cfg := scenarioConfig()
	cfg.LODs = nil
	_, err := NewManager(cfg, Deps{Dispatcher: &manualDispatcher{}, Heights: heights, Meshes: meshes})
	if !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("expected ErrInvalidConfig for empty LODs, got %v", err)
	}

	if _, err := NewManager(scenarioConfig(), Deps{Heights: heights, Meshes: meshes}); err == nil {
		t.Error("expected error without a dispatcher")
	}
	if _, err := NewManager(scenarioConfig(), Deps{Dispatcher: &manualDispatcher{}}); err == nil {
		t.Error("expected error without collaborators")
	}

	m, err := NewManager(scenarioConfig(), Deps{Dispatcher: &manualDispatcher{}, Heights: heights, Meshes: meshes})
	if err != nil {
		t.Fatalf("expected nil backend to be accepted, got %v", err)
	}
	m.Tick(vec.Vec3{})
}
