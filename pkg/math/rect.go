package math

// Rect is an axis-aligned box on the XZ plane.
type Rect struct {
	Min, Max Vec2
}

// RectFromCenter returns the box centered on c with the given half extent.
func RectFromCenter(c Vec2, halfExtent float32) Rect {
	return Rect{
		Min: Vec2{c.X - halfExtent, c.Y - halfExtent},
		Max: Vec2{c.X + halfExtent, c.Y + halfExtent},
	}
}

// Center returns the midpoint of the box.
func (r Rect) Center() Vec2 {
	return Vec2{(r.Min.X + r.Max.X) / 2, (r.Min.Y + r.Max.Y) / 2}
}

// Contains reports whether p lies inside or on the edge of the box.
func (r Rect) Contains(p Vec2) bool {
	return p.X >= r.Min.X && p.X <= r.Max.X && p.Y >= r.Min.Y && p.Y <= r.Max.Y
}

// SqrDistance returns the squared distance from p to the nearest point of the
// box. Points inside the box are at distance zero.
func (r Rect) SqrDistance(p Vec2) float32 {
	var dx, dy float32
	switch {
	case p.X < r.Min.X:
		dx = r.Min.X - p.X
	case p.X > r.Max.X:
		dx = p.X - r.Max.X
	}
	switch {
	case p.Y < r.Min.Y:
		dy = r.Min.Y - p.Y
	case p.Y > r.Max.Y:
		dy = p.Y - r.Max.Y
	}
	return dx*dx + dy*dy
}
