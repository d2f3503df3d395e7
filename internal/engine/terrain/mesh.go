package terrain

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// MaxLevel is the coarsest supported simplification level.
const MaxLevel = 4

// SimplificationIncrement returns the sample stride used for a detail level:
// level 0 meshes every sample, level n every 2n-th.
func SimplificationIncrement(level int) int {
	if level <= 0 {
		return 1
	}
	return level * 2
}

// BuildMesh creates the chunk mesh for one detail level. scale converts
// heightfield cells to world units on X and Z. The mesh is centred on the
// chunk origin; the heightfield border is used for normals only.
func BuildMesh(h *HeightField, level int, scale float32) *Mesh {
	chunkSize := h.ChunkSize()
	inc := SimplificationIncrement(level)
	perLine := chunkSize/inc + 1
	half := float32(h.Size-1) / 2

	vertices := make([]Vertex, 0, perLine*perLine)
	indices := make([]uint32, 0, (perLine-1)*(perLine-1)*6)

	bounds := Bounds{
		Min: [3]float32{math.MaxFloat32, math.MaxFloat32, math.MaxFloat32},
		Max: [3]float32{-math.MaxFloat32, -math.MaxFloat32, -math.MaxFloat32},
	}

	for xi := 0; xi < perLine; xi++ {
		for zi := 0; zi < perLine; zi++ {
			// +1 skips the border ring.
			x := 1 + xi*inc
			z := 1 + zi*inc

			pos := [3]float32{
				(float32(x) - half) * scale,
				h.At(x, z),
				(float32(z) - half) * scale,
			}
			updateBounds(&bounds, pos)

			vertices = append(vertices, Vertex{
				Position: pos,
				Normal:   sampleNormal(h, x, z, scale),
				TexCoord: [2]float32{float32(x-1) / float32(chunkSize), float32(z-1) / float32(chunkSize)},
			})

			if xi < perLine-1 && zi < perLine-1 {
				a := uint32(xi*perLine + zi)
				b := a + uint32(perLine)
				indices = append(indices,
					a, a+1, b,
					b, a+1, b+1,
				)
			}
		}
	}

	return &Mesh{
		Level:    level,
		Vertices: vertices,
		Indices:  indices,
		Bounds:   bounds,
	}
}

// sampleNormal estimates the surface normal at (x, z) from its four
// neighbours. Callers never pass border samples, so all neighbours exist.
func sampleNormal(h *HeightField, x, z int, scale float32) [3]float32 {
	left, right := h.At(x-1, z), h.At(x+1, z)
	down, up := h.At(x, z-1), h.At(x, z+1)
	n := mgl32.Vec3{left - right, 2 * scale, down - up}
	if n.Len() < 0.0001 {
		return [3]float32{0, 1, 0}
	}
	n = n.Normalize()
	return [3]float32{n.X(), n.Y(), n.Z()}
}

func updateBounds(b *Bounds, p [3]float32) {
	for i := 0; i < 3; i++ {
		if p[i] < b.Min[i] {
			b.Min[i] = p[i]
		}
		if p[i] > b.Max[i] {
			b.Max[i] = p[i]
		}
	}
}
