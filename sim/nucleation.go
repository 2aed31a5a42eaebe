package sim

import (
	"fmt"
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/stat/distuv"
)

// DefaultMaxExpectedNuclei caps the Poisson mean of a single step.
const DefaultMaxExpectedNuclei = 1e7

// RateParams parameterizes the nucleation intensity λ(t) = Lambda0 · exp(Alpha · t).
type RateParams struct {
	Lambda0 float64
	Alpha   float64
}

// Intensity returns λ(t). A zero Lambda0 is zero at every t, including where
// exp(Alpha·t) overflows.
func (r RateParams) Intensity(t float64) float64 {
	if r.Lambda0 == 0 {
		return 0
	}
	return r.Lambda0 * math.Exp(r.Alpha*t)
}

// StepOutcome is the result of one nucleation step.
type StepOutcome struct {
	Expected float64 // Poisson mean for the step
	Drawn    int     // candidates drawn from Poisson(Expected)
	Accepted []Vec3  // candidates outside every pre-step grain, in draw order
}

// Rejected returns the number of candidates discarded by hard-core thinning.
func (o StepOutcome) Rejected() int {
	return o.Drawn - len(o.Accepted)
}

// NucleationProcess generates new grain positions for one time step: a Poisson
// number of uniform candidates, thinned against the existing grains. Rejected
// candidates are discarded, never resampled, which makes the accepted set a
// Matérn-type hard-core process rather than a plain Poisson one.
type NucleationProcess struct {
	sampler     *VolumeSampler
	rng         *rand.Rand
	rates       RateParams
	volumeTotal float64
	dt          float64
	maxExpected float64
}

// NewNucleationProcess creates a process sampling candidates in box. rng drives
// both the Poisson draw and the candidate positions, so a step consumes a
// single stream.
func NewNucleationProcess(box Box, rng *rand.Rand, rates RateParams, volumeTotal, dt, maxExpected float64) *NucleationProcess {
	if maxExpected <= 0 {
		maxExpected = DefaultMaxExpectedNuclei
	}
	return &NucleationProcess{
		sampler:     NewVolumeSampler(box, rng),
		rng:         rng,
		rates:       rates,
		volumeTotal: volumeTotal,
		dt:          dt,
		maxExpected: maxExpected,
	}
}

// ExpectedCount returns λ(t) · freeFraction · volumeTotal · dt, the left-endpoint
// approximation of the intensity integral over [t, t+dt) restricted to free volume.
// A step with no free volume expects zero nuclei whatever the intensity.
func (p *NucleationProcess) ExpectedCount(t, freeFraction float64) float64 {
	if freeFraction == 0 {
		return 0
	}
	return p.rates.Intensity(t) * freeFraction * p.volumeTotal * p.dt
}

// Step draws and thins the candidates of the step starting at t. view must be
// the field as it stood before this step; accepted centers are returned, not
// appended, so every candidate of the step is tested against the same grains.
func (p *NucleationProcess) Step(t, freeFraction float64, view FieldView) (StepOutcome, error) {
	expected := p.ExpectedCount(t, freeFraction)
	if math.IsNaN(expected) || math.IsInf(expected, 0) {
		return StepOutcome{}, fmt.Errorf("%w: expected nucleation count at t=%g is %v", ErrNumericOverflow, t, expected)
	}
	if expected > p.maxExpected {
		return StepOutcome{}, fmt.Errorf("%w: expected nucleation count %.4g at t=%g exceeds limit %.4g",
			ErrNumericOverflow, expected, t, p.maxExpected)
	}

	out := StepOutcome{Expected: expected}
	out.Drawn = p.drawCount(expected)
	out.Accepted = make([]Vec3, 0, out.Drawn)
	for i := 0; i < out.Drawn; i++ {
		candidate := p.sampler.SamplePoint()
		if view.ContainsPoint(candidate, t) {
			continue
		}
		out.Accepted = append(out.Accepted, candidate)
	}
	return out, nil
}

// drawCount samples Poisson(mean). A zero mean consumes no randomness.
func (p *NucleationProcess) drawCount(mean float64) int {
	if mean <= 0 {
		return 0
	}
	return int(distuv.Poisson{Lambda: mean, Src: p.rng}.Rand())
}
