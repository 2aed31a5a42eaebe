package sim

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inference-sim/nucleation-sim/sim/internal/testutil"
)

func newTestNucleation(seed uint64, rates RateParams, dt float64) *NucleationProcess {
	rng := newTestRand(seed)
	return NewNucleationProcess(UnitCube(), rng, rates, 1.0, dt, DefaultMaxExpectedNuclei)
}

func TestNucleation_ExpectedCount_Formula(t *testing.T) {
	rates := RateParams{Lambda0: 100, Alpha: 0.1}
	rng := newTestRand(1)
	p := NewNucleationProcess(UnitCube(), rng, rates, 2.0, 0.5, 0)

	got := p.ExpectedCount(3, 0.4)
	want := 100 * math.Exp(0.1*3) * 0.4 * 2.0 * 0.5
	testutil.AssertFloat64Equal(t, "expected", want, got, 1e-12)
}

func TestNucleation_Step_AcceptedNeverExceedsDrawn(t *testing.T) {
	// GIVEN a partly covered field
	f := NewSphereField(UnitCube(), 0.2)
	for _, p := range NewVolumeSampler(UnitCube(), newTestRand(2)).SamplePoints(30) {
		require.NoError(t, f.Append(Grain{Center: p, BirthTime: 0}))
	}
	proc := newTestNucleation(9, RateParams{Lambda0: 200}, 1)

	// WHEN many steps are run against the same view
	sawRejection := false
	for i := 0; i < 50; i++ {
		out, err := proc.Step(1, 0.5, f.View())
		require.NoError(t, err)

		// THEN accepted <= drawn every time
		require.LessOrEqual(t, len(out.Accepted), out.Drawn)
		assert.Equal(t, out.Drawn-len(out.Accepted), out.Rejected())
		if out.Rejected() > 0 {
			sawRejection = true
		}
	}
	assert.True(t, sawRejection, "a partly covered field should reject some candidates")
}

func TestNucleation_Step_RejectsWithoutReplacement(t *testing.T) {
	// GIVEN a field that covers the whole cube
	f := NewSphereField(UnitCube(), 1.0)
	require.NoError(t, f.Append(grainAt(0.5, 0.5, 0.5, 0)))
	proc := newTestNucleation(4, RateParams{Lambda0: 50}, 1)

	// WHEN a step draws candidates
	out, err := proc.Step(2, 1.0, f.View())
	require.NoError(t, err)

	// THEN every candidate is discarded and none is resampled
	assert.Greater(t, out.Drawn, 0)
	assert.Empty(t, out.Accepted)
}

func TestNucleation_Step_EmptyFieldAcceptsAll(t *testing.T) {
	proc := newTestNucleation(4, RateParams{Lambda0: 50}, 1)
	out, err := proc.Step(0, 1.0, NewSphereField(UnitCube(), 1).View())
	require.NoError(t, err)
	assert.Equal(t, out.Drawn, len(out.Accepted))
	for _, c := range out.Accepted {
		assert.True(t, UnitCube().Contains(c))
	}
}

func TestNucleation_Step_ZeroRateDrawsNothing(t *testing.T) {
	// GIVEN lambda0 = 0
	rng := newTestRand(4)
	proc := NewNucleationProcess(UnitCube(), rng, RateParams{}, 1, 1, 0)

	out, err := proc.Step(3, 1.0, NewSphereField(UnitCube(), 1).View())
	require.NoError(t, err)
	assert.Equal(t, 0.0, out.Expected)
	assert.Equal(t, 0, out.Drawn)
	assert.Empty(t, out.Accepted)

	// AND no randomness was consumed
	assert.Equal(t, newTestRand(4).Float64(), rng.Float64())
}

func TestNucleation_ExpectedCount_ZeroFactorsStayZero(t *testing.T) {
	// GIVEN t large enough that exp(alpha*t) is +Inf
	view := NewSphereField(UnitCube(), 1).View()

	// WHEN either lambda0 or the free fraction is zero
	zeroRate := newTestNucleation(1, RateParams{Lambda0: 0, Alpha: 1}, 100)
	noFreeVolume := newTestNucleation(1, RateParams{Lambda0: 100, Alpha: 1}, 100)

	// THEN the expected count is exactly 0 and the step succeeds
	assert.Equal(t, 0.0, zeroRate.ExpectedCount(800, 0.5))
	assert.Equal(t, 0.0, noFreeVolume.ExpectedCount(800, 0))

	out, err := zeroRate.Step(800, 0.5, view)
	require.NoError(t, err)
	assert.Equal(t, 0, out.Drawn)

	out, err = noFreeVolume.Step(800, 0, view)
	require.NoError(t, err)
	assert.Equal(t, 0, out.Drawn)
}

func TestNucleation_Step_CandidatesInsideBox(t *testing.T) {
	// GIVEN a process over a box away from the origin
	box := Box{Min: Vec3{1, 1, 1}, Max: Vec3{2, 3, 4}}
	proc := NewNucleationProcess(box, newTestRand(6), RateParams{Lambda0: 50}, 1, 1, 0)

	// WHEN a step runs on an empty field
	out, err := proc.Step(0, 1.0, NewSphereField(box, 1).View())
	require.NoError(t, err)

	// THEN every candidate is accepted and lies in the box
	require.Equal(t, out.Drawn, len(out.Accepted))
	require.NotEmpty(t, out.Accepted)
	for _, c := range out.Accepted {
		assert.True(t, box.Contains(c), "candidate %v outside box", c)
	}
}

func TestNucleation_Step_PoissonMeanMatchesExpected(t *testing.T) {
	proc := newTestNucleation(8, RateParams{Lambda0: 12}, 1)
	view := NewSphereField(UnitCube(), 1).View()

	total := 0
	steps := 2000
	for i := 0; i < steps; i++ {
		out, err := proc.Step(0, 1.0, view)
		require.NoError(t, err)
		total += out.Drawn
	}
	mean := float64(total) / float64(steps)
	// stderr of the mean = sqrt(12/2000) ≈ 0.077
	assert.InDelta(t, 12.0, mean, 0.4)
}

func TestNucleation_Step_OverflowIsSurfaced(t *testing.T) {
	tests := []struct {
		name  string
		rates RateParams
		t     float64
	}{
		{"exceeds limit", RateParams{Lambda0: 1, Alpha: 100}, 1},
		{"infinite intensity", RateParams{Lambda0: 1, Alpha: 1000}, 1000},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			proc := newTestNucleation(1, tt.rates, 1)
			_, err := proc.Step(tt.t, 1.0, NewSphereField(UnitCube(), 1).View())
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrNumericOverflow))
		})
	}
}

func TestNucleation_Step_NaNIsSurfaced(t *testing.T) {
	proc := newTestNucleation(1, RateParams{Lambda0: 1, Alpha: 1}, 1)
	_, err := proc.Step(1, math.NaN(), NewSphereField(UnitCube(), 1).View())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNumericOverflow))
}

func TestRateParams_Intensity(t *testing.T) {
	r := RateParams{Lambda0: 3, Alpha: 0}
	assert.Equal(t, 3.0, r.Intensity(100))
	r.Alpha = math.Log(2)
	assert.InDelta(t, 12.0, r.Intensity(2), 1e-12)
}
