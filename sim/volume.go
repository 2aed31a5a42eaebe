package sim

import (
	"fmt"
	"math"
	"math/rand/v2"
)

// Vec3 is a point in the simulation volume. It serializes as a JSON array [x, y, z].
type Vec3 [3]float64

// Dist returns the euclidean distance between p and q.
func (p Vec3) Dist(q Vec3) float64 {
	dx := p[0] - q[0]
	dy := p[1] - q[1]
	dz := p[2] - q[2]
	return math.Sqrt(dx*dx + dy*dy + dz*dz)
}

// Box is the axis-aligned simulation volume. Bounds are inclusive.
type Box struct {
	Min Vec3 `yaml:"min"`
	Max Vec3 `yaml:"max"`
}

// UnitCube returns the default simulation volume [0,1]^3.
func UnitCube() Box {
	return Box{Min: Vec3{0, 0, 0}, Max: Vec3{1, 1, 1}}
}

// Volume returns the geometric volume of the box.
func (b Box) Volume() float64 {
	return (b.Max[0] - b.Min[0]) * (b.Max[1] - b.Min[1]) * (b.Max[2] - b.Min[2])
}

// Contains reports whether p lies inside the box, bounds included.
func (b Box) Contains(p Vec3) bool {
	for i := 0; i < 3; i++ {
		if p[i] < b.Min[i] || p[i] > b.Max[i] {
			return false
		}
	}
	return true
}

// Validate checks that every extent of the box is finite and positive.
func (b Box) Validate() error {
	for i := 0; i < 3; i++ {
		if math.IsNaN(b.Min[i]) || math.IsInf(b.Min[i], 0) || math.IsNaN(b.Max[i]) || math.IsInf(b.Max[i], 0) {
			return fmt.Errorf("box axis %d must have finite bounds, got [%v, %v]", i, b.Min[i], b.Max[i])
		}
		if b.Max[i] <= b.Min[i] {
			return fmt.Errorf("box axis %d must have max > min, got [%v, %v]", i, b.Min[i], b.Max[i])
		}
	}
	return nil
}

// VolumeSampler draws independent uniform points from a Box.
// It holds no state beyond the injected random source.
type VolumeSampler struct {
	box Box
	rng *rand.Rand
}

// NewVolumeSampler creates a sampler over box driven by rng.
func NewVolumeSampler(box Box, rng *rand.Rand) *VolumeSampler {
	return &VolumeSampler{box: box, rng: rng}
}

// Box returns the sampled volume.
func (s *VolumeSampler) Box() Box {
	return s.box
}

// SamplePoint draws a single uniform point. Coordinates are drawn x, y, z in order.
func (s *VolumeSampler) SamplePoint() Vec3 {
	var p Vec3
	for i := 0; i < 3; i++ {
		p[i] = s.box.Min[i] + s.rng.Float64()*(s.box.Max[i]-s.box.Min[i])
	}
	return p
}

// SamplePoints draws n independent uniform points in order.
func (s *VolumeSampler) SamplePoints(n int) []Vec3 {
	if n <= 0 {
		return nil
	}
	pts := make([]Vec3, n)
	for i := range pts {
		pts[i] = s.SamplePoint()
	}
	return pts
}
