package streaming

import (
	"errors"
	"fmt"

	"github.com/Faultbox/midgard-terrain/internal/engine/terrain"
)

// ErrInvalidConfig is wrapped by every Config.Validate failure.
var ErrInvalidConfig = errors.New("invalid streaming config")

// LODLevel maps a distance band to a mesh detail level.
type LODLevel struct {
	// Level is the simplification level handed to the mesh builder.
	Level int
	// VisibleDistance is the furthest distance, in world units, at which
	// this level is used.
	VisibleDistance float32
}

// Config is shared by every chunk and never changes after NewManager.
type Config struct {
	// ChunkSize is the chunk edge length in heightfield cells.
	ChunkSize int
	// WorldScale converts heightfield cells to world units.
	WorldScale float32
	// LODs must be sorted by ascending VisibleDistance. The last entry's
	// distance is the maximum view distance.
	LODs []LODLevel
	// ColliderLODIndex is the index into LODs whose mesh is reused for
	// collision.
	ColliderLODIndex int
	// ColliderActivationDistance is the edge distance below which a chunk
	// attaches its collision mesh.
	ColliderActivationDistance float32
	// ViewerMoveThreshold is how far the viewer must travel before the
	// visible grid is recomputed.
	ViewerMoveThreshold float32
}

// ChunkWorldSize returns the chunk edge length in world units.
func (c Config) ChunkWorldSize() float32 {
	return float32(c.ChunkSize) * c.WorldScale
}

// MaxViewDistance returns the last LOD's visible distance.
func (c Config) MaxViewDistance() float32 {
	return c.LODs[len(c.LODs)-1].VisibleDistance
}

// Validate reports the first misconfiguration found.
func (c Config) Validate() error {
	if c.ChunkSize <= 0 {
		return fmt.Errorf("%w: chunk size %d must be positive", ErrInvalidConfig, c.ChunkSize)
	}
	if c.WorldScale <= 0 {
		return fmt.Errorf("%w: world scale %v must be positive", ErrInvalidConfig, c.WorldScale)
	}
	if len(c.LODs) == 0 {
		return fmt.Errorf("%w: at least one LOD level is required", ErrInvalidConfig)
	}
	var prev float32
	for i, lod := range c.LODs {
		if lod.VisibleDistance <= prev {
			return fmt.Errorf("%w: LOD %d distance %v must be greater than %v", ErrInvalidConfig, i, lod.VisibleDistance, prev)
		}
		prev = lod.VisibleDistance
		if lod.Level < 0 || lod.Level > terrain.MaxLevel {
			return fmt.Errorf("%w: LOD %d level %d outside [0, %d]", ErrInvalidConfig, i, lod.Level, terrain.MaxLevel)
		}
		if inc := terrain.SimplificationIncrement(lod.Level); c.ChunkSize%inc != 0 {
			return fmt.Errorf("%w: chunk size %d not divisible by level %d stride %d", ErrInvalidConfig, c.ChunkSize, lod.Level, inc)
		}
	}
	if c.ColliderLODIndex < 0 || c.ColliderLODIndex >= len(c.LODs) {
		return fmt.Errorf("%w: collider LOD index %d outside [0, %d)", ErrInvalidConfig, c.ColliderLODIndex, len(c.LODs))
	}
	if c.ColliderActivationDistance < 0 {
		return fmt.Errorf("%w: collider activation distance %v is negative", ErrInvalidConfig, c.ColliderActivationDistance)
	}
	if c.ViewerMoveThreshold < 0 {
		return fmt.Errorf("%w: viewer move threshold %v is negative", ErrInvalidConfig, c.ViewerMoveThreshold)
	}
	return nil
}
