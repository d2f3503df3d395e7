// Package debug provides debug visualization utilities.
package debug

import (
	"image"
	"image/color"
	"math"
)

// Cell is one chunk as drawn on a grid map.
type Cell struct {
	X, Y     int
	Active   bool
	LODIndex int // -1 when no mesh is shown
	Collider bool
}

var (
	colorBackground = color.RGBA{16, 16, 16, 255}
	colorResident   = color.RGBA{64, 64, 64, 255}
	colorNoMesh     = color.RGBA{110, 110, 110, 255}
	colorCollider   = color.RGBA{220, 40, 40, 255}
	colorViewer     = color.RGBA{255, 255, 255, 255}

	// Finest LOD first.
	lodColors = []color.RGBA{
		{40, 180, 70, 255},
		{150, 200, 60, 255},
		{230, 190, 50, 255},
		{230, 120, 40, 255},
		{170, 70, 160, 255},
	}
)

// LODColor returns the fill used for a chunk shown at lodIndex.
func LODColor(lodIndex int) color.RGBA {
	if lodIndex < 0 {
		return colorNoMesh
	}
	return lodColors[min(lodIndex, len(lodColors)-1)]
}

// GridMap is a top-down view of the chunk grid. +Y points up in the image.
type GridMap struct {
	Cells []Cell
	// ViewerX and ViewerY are the viewer position in chunk units.
	ViewerX, ViewerY float32
	// CellPixels is the edge length of one chunk in pixels.
	CellPixels int
}

// Draw renders the map. Hidden chunks are dark grey, visible chunks are
// coloured by LOD and chunks with a collider get a red outline.
func (g GridMap) Draw() *image.RGBA {
	if len(g.Cells) == 0 {
		return image.NewRGBA(image.Rect(0, 0, 0, 0))
	}
	px := max(g.CellPixels, 3)

	minX, minY := g.Cells[0].X, g.Cells[0].Y
	maxX, maxY := minX, minY
	for _, c := range g.Cells[1:] {
		minX, maxX = min(minX, c.X), max(maxX, c.X)
		minY, maxY = min(minY, c.Y), max(maxY, c.Y)
	}

	w := (maxX - minX + 1) * px
	h := (maxY - minY + 1) * px
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	fill(img, img.Bounds(), colorBackground)

	for _, c := range g.Cells {
		// Flip Y so the map reads like a top-down view
		x0 := (c.X - minX) * px
		y0 := (maxY - c.Y) * px
		r := image.Rect(x0, y0, x0+px, y0+px)

		fg := colorResident
		if c.Active {
			fg = LODColor(c.LODIndex)
		}
		fill(img, r, fg)
		if c.Collider {
			outline(img, r, colorCollider)
		}
	}

	vx := int(math.Floor(float64((g.ViewerX - float32(minX) + 0.5) * float32(px))))
	vy := int(math.Floor(float64((float32(maxY) + 0.5 - g.ViewerY) * float32(px))))
	fill(img, image.Rect(vx-1, vy-1, vx+2, vy+2).Intersect(img.Bounds()), colorViewer)

	return img
}

func fill(img *image.RGBA, r image.Rectangle, c color.RGBA) {
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			img.SetRGBA(x, y, c)
		}
	}
}

func outline(img *image.RGBA, r image.Rectangle, c color.RGBA) {
	for x := r.Min.X; x < r.Max.X; x++ {
		img.SetRGBA(x, r.Min.Y, c)
		img.SetRGBA(x, r.Max.Y-1, c)
	}
	for y := r.Min.Y; y < r.Max.Y; y++ {
		img.SetRGBA(r.Min.X, y, c)
		img.SetRGBA(r.Max.X-1, y, c)
	}
}
