package main

import (
	"fmt"
	"math"

	vec "github.com/Faultbox/midgard-terrain/pkg/math"
)

// viewerPath moves the simulated viewer a fixed distance per tick.
type viewerPath struct {
	kind   string
	speed  float32
	radius float32
}

func newViewerPath(kind string, speed, radius float32) (viewerPath, error) {
	switch kind {
	case "line":
	case "circle":
		if radius <= 0 {
			return viewerPath{}, fmt.Errorf("circle path needs a positive radius, got %v", radius)
		}
	default:
		return viewerPath{}, fmt.Errorf("unknown viewer path %q", kind)
	}
	return viewerPath{kind: kind, speed: speed, radius: radius}, nil
}

// At returns the viewer position at tick.
func (p viewerPath) At(tick int) vec.Vec3 {
	travelled := p.speed * float32(tick)
	if p.kind == "circle" {
		angle := float64(travelled / p.radius)
		return vec.Vec3{
			X: p.radius * float32(math.Cos(angle)),
			Z: p.radius * float32(math.Sin(angle)),
		}
	}
	return vec.Vec3{X: travelled}
}
