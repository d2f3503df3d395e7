package terrain

import (
	"math"
	"math/rand"
	"sort"

	"github.com/aquilax/go-perlin"

	vec "github.com/Faultbox/midgard-terrain/pkg/math"
)

// NormalizeMode selects how raw noise is mapped into [0, 1].
type NormalizeMode string

const (
	// NormalizeGlobal scales by the largest value the octaves could produce.
	// Neighbouring chunks agree on edge heights.
	NormalizeGlobal NormalizeMode = "global"
	// NormalizeLocal stretches each chunk's own min..max to 0..1. Chunks will
	// not line up at their edges; useful for previewing a single chunk.
	NormalizeLocal NormalizeMode = "local"
)

// CurveKey is one control point of a height curve.
type CurveKey struct {
	T float32 `yaml:"t"`
	V float32 `yaml:"v"`
}

// Curve is a piecewise-linear remap of normalized heights.
type Curve []CurveKey

// Evaluate returns the curve value at t. Outside the key range the nearest
// key's value is held. An empty curve evaluates to 1.
func (c Curve) Evaluate(t float32) float32 {
	if len(c) == 0 {
		return 1
	}
	if t <= c[0].T {
		return c[0].V
	}
	last := c[len(c)-1]
	if t >= last.T {
		return last.V
	}
	i := sort.Search(len(c), func(i int) bool { return c[i].T >= t })
	a, b := c[i-1], c[i]
	if b.T == a.T {
		return b.V
	}
	f := (t - a.T) / (b.T - a.T)
	return a.V + (b.V-a.V)*f
}

// NoiseSettings configures the fractal noise heightfield.
type NoiseSettings struct {
	Seed             int64
	Octaves          int
	Persistence      float64
	Lacunarity       float64
	Scale            float64
	Offset           vec.Vec2
	HeightMultiplier float32
	Curve            Curve
	Normalize        NormalizeMode
}

// DefaultNoiseSettings returns gentle rolling hills.
func DefaultNoiseSettings() NoiseSettings {
	return NoiseSettings{
		Seed:             1,
		Octaves:          4,
		Persistence:      0.5,
		Lacunarity:       2,
		Scale:            60,
		HeightMultiplier: 40,
		Normalize:        NormalizeGlobal,
	}
}

// NoiseProvider synthesizes heightfields from octave perlin noise.
// It holds only read-only tables and can be shared between workers.
type NoiseProvider struct {
	settings      NoiseSettings
	size          int
	noise         *perlin.Perlin
	octaveOffsets []vec.Vec2
	maxAmplitude  float64
}

// NewNoiseProvider returns a provider producing heightfields for chunks of
// chunkSize cells (chunkSize+3 samples per edge, border included).
func NewNoiseProvider(s NoiseSettings, chunkSize int) *NoiseProvider {
	if s.Octaves < 1 {
		s.Octaves = 1
	}
	if s.Scale <= 0 {
		s.Scale = 0.0001
	}
	if s.Normalize == "" {
		s.Normalize = NormalizeGlobal
	}
	keys := append(Curve(nil), s.Curve...)
	sort.Slice(keys, func(i, j int) bool { return keys[i].T < keys[j].T })
	s.Curve = keys

	prng := rand.New(rand.NewSource(s.Seed))
	offsets := make([]vec.Vec2, s.Octaves)
	maxAmp, amp := 0.0, 1.0
	for i := range offsets {
		offsets[i] = vec.Vec2{
			X: float32(prng.Intn(200000) - 100000),
			Y: float32(prng.Intn(200000) - 100000),
		}
		maxAmp += amp
		amp *= s.Persistence
	}

	return &NoiseProvider{
		settings:      s,
		size:          chunkSize + 3,
		noise:         perlin.NewPerlin(2, 2, 1, s.Seed),
		octaveOffsets: offsets,
		maxAmplitude:  maxAmp,
	}
}

// SampleSize returns the number of samples along one heightfield edge.
func (p *NoiseProvider) SampleSize() int {
	return p.size
}

// Generate builds the heightfield centred on center (mesh units).
// The same settings and center always produce the same heights.
func (p *NoiseProvider) Generate(center vec.Vec2) *HeightField {
	s := p.settings
	size := p.size
	half := float64(size-1) / 2

	values := make([][]float32, size)
	for x := range values {
		values[x] = make([]float32, size)
	}

	localMin, localMax := math.MaxFloat64, -math.MaxFloat64
	raw := make([]float64, size*size)
	for z := 0; z < size; z++ {
		for x := 0; x < size; x++ {
			amplitude, frequency, h := 1.0, 1.0, 0.0
			for _, off := range p.octaveOffsets {
				sx := (float64(x) - half + float64(center.X) + float64(s.Offset.X) + float64(off.X)) / s.Scale * frequency
				sz := (float64(z) - half + float64(center.Y) + float64(s.Offset.Y) + float64(off.Y)) / s.Scale * frequency
				h += p.noise.Noise2D(sx, sz) * amplitude
				amplitude *= s.Persistence
				frequency *= s.Lacunarity
			}
			localMin = math.Min(localMin, h)
			localMax = math.Max(localMax, h)
			raw[x*size+z] = h
		}
	}

	hf := &HeightField{Values: values, Size: size, Min: math.MaxFloat32, Max: -math.MaxFloat32}
	for x := 0; x < size; x++ {
		for z := 0; z < size; z++ {
			n := p.normalize(raw[x*size+z], localMin, localMax)
			h := n * s.Curve.Evaluate(n) * s.HeightMultiplier
			values[x][z] = h
			if h < hf.Min {
				hf.Min = h
			}
			if h > hf.Max {
				hf.Max = h
			}
		}
	}
	return hf
}

func (p *NoiseProvider) normalize(h, localMin, localMax float64) float32 {
	if p.settings.Normalize == NormalizeLocal {
		if localMax <= localMin {
			return 0
		}
		return float32((h - localMin) / (localMax - localMin))
	}
	n := (h + 1) / (p.maxAmplitude / 0.9)
	if n < 0 {
		n = 0
	}
	return float32(n)
}
