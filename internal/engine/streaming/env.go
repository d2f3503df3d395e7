package streaming

import (
	"go.uber.org/zap"

	vec "github.com/Faultbox/midgard-terrain/pkg/math"
)

// env is the state every chunk shares with its manager. Only the update
// goroutine reads or writes it.
type env struct {
	cfg             Config
	chunkWorldSize  float32
	maxViewDistance float32
	colliderRangeSq float32
	activationSq    float32

	viewer vec.Vec2

	dispatcher Dispatcher
	backend    Backend
	heights    HeightProvider
	meshes     MeshBuilder
	log        *zap.Logger

	counters counters
}

type counters struct {
	heightsReceived   int
	meshesReceived    int
	meshesApplied     int
	collidersAttached int
}
