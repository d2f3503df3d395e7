// Package streaming keeps an infinite chunked terrain resident around a
// moving viewer. It decides which chunks exist, which LOD each shows and
// when each gets a collision mesh, and pushes the heavy work onto a job
// dispatcher.
//
// All exported methods must be called from one goroutine, the one that
// drives Manager.Tick. Background results only reach chunk state through the
// dispatcher's Drain, which Tick calls on that same goroutine.
package streaming

import (
	"fmt"

	vec "github.com/Faultbox/midgard-terrain/pkg/math"
)

// GridCoord identifies one chunk cell. Integer so that it is an exact map key.
type GridCoord struct {
	X, Y int
}

// String implements fmt.Stringer.
func (c GridCoord) String() string {
	return fmt.Sprintf("(%d,%d)", c.X, c.Y)
}

// coordAt returns the cell whose centre is nearest to p.
func coordAt(p vec.Vec2, chunkWorldSize float32) GridCoord {
	x, y := p.RoundDiv(chunkWorldSize)
	return GridCoord{X: x, Y: y}
}
