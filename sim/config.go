package sim

import (
	"fmt"
	"math"

	"github.com/inference-sim/nucleation-sim/sim/trace"
)

// maxTicks bounds ceil(TMax/DT) so the tick counter and snapshot stride stay in int range.
const maxTicks = 1 << 31

// Config holds every recognized option of a simulation run. All draft
// variants of the model (different constants, with or without an HTTP wrapper)
// are expressed as values of this one struct.
type Config struct {
	VolumeTotal      float64 `yaml:"volume_total"`       // volume scaling the nucleation intensity
	GrowthSpeed      float64 `yaml:"v"`                  // linear radial growth speed (>= 0)
	Lambda0          float64 `yaml:"lambda0"`            // base nucleation intensity at t=0 (>= 0)
	Alpha            float64 `yaml:"alpha"`              // exponential growth rate of the intensity (>= 0)
	DT               float64 `yaml:"dt"`                 // time step (> 0)
	TMax             float64 `yaml:"t_max"`              // time horizon (>= 0)
	FreeVolThreshold float64 `yaml:"free_vol_threshold"` // early stop when the free fraction drops below this
	NFreeMC          int     `yaml:"n_free_mc"`          // Monte Carlo samples per free-volume estimate (> 0)
	SnapshotStride   int     `yaml:"snapshot_stride"`    // record every k-th tick (>= 1)
	Seed             int64   `yaml:"seed"`

	Box               Box              `yaml:"box"`                 // sampled volume, unit cube by default
	MaxExpectedNuclei float64          `yaml:"max_expected_nuclei"` // per-step Poisson mean above which the run fails
	SnapshotFinal     bool             `yaml:"snapshot_final"`      // also record the final state when the stride missed it
	Workers           int              `yaml:"workers"`             // goroutines classifying Monte Carlo points (0 or 1 = sequential)
	Trace             trace.TraceLevel `yaml:"trace"`
}

// DefaultConfig returns the baseline parameters of the model.
func DefaultConfig() Config {
	return Config{
		VolumeTotal:       1.0,
		GrowthSpeed:       0.01,
		Lambda0:           100,
		Alpha:             0.1,
		DT:                0.1,
		TMax:              100.0,
		FreeVolThreshold:  0.001,
		NFreeMC:           5000,
		SnapshotStride:    1,
		Seed:              42,
		Box:               UnitCube(),
		MaxExpectedNuclei: DefaultMaxExpectedNuclei,
		Trace:             trace.TraceLevelNone,
	}
}

// RateParams returns the nucleation intensity parameters.
func (c Config) RateParams() RateParams {
	return RateParams{Lambda0: c.Lambda0, Alpha: c.Alpha}
}

// MaxTicks returns the number of ticks a run executes when the free volume is
// never exhausted: the smallest k with float64(k)*DT >= TMax, evaluated the
// way the loop evaluates it. This is ceil(TMax/DT) except where the division
// rounds across an integer (t_max=2.1, dt=0.3 gives 7, not 8).
// Call only on a validated config.
func (c Config) MaxTicks() int {
	if c.TMax <= 0 {
		return 0
	}
	k := int(math.Ceil(c.TMax / c.DT))
	for k > 0 && float64(k-1)*c.DT >= c.TMax {
		k--
	}
	for float64(k)*c.DT < c.TMax {
		k++
	}
	return k
}

// Validate checks the configuration. Every failure wraps ErrInvalidConfiguration;
// a zero NFreeMC additionally wraps ErrSamplingDegenerate.
func (c Config) Validate() error {
	if err := validateFinitePositive("dt", c.DT); err != nil {
		return err
	}
	if err := validateFinitePositive("volume_total", c.VolumeTotal); err != nil {
		return err
	}
	if c.NFreeMC == 0 {
		return fmt.Errorf("%w: %w: n_free_mc must be positive, got 0", ErrInvalidConfiguration, ErrSamplingDegenerate)
	}
	if c.NFreeMC < 0 {
		return fmt.Errorf("%w: n_free_mc must be positive, got %d", ErrInvalidConfiguration, c.NFreeMC)
	}
	for _, p := range []struct {
		name string
		val  float64
	}{
		{"v", c.GrowthSpeed},
		{"lambda0", c.Lambda0},
		{"alpha", c.Alpha},
		{"t_max", c.TMax},
	} {
		if err := validateFiniteNonNegative(p.name, p.val); err != nil {
			return err
		}
	}
	if math.IsNaN(c.FreeVolThreshold) || c.FreeVolThreshold < 0 || c.FreeVolThreshold > 1 {
		return fmt.Errorf("%w: free_vol_threshold must be in [0, 1], got %v", ErrInvalidConfiguration, c.FreeVolThreshold)
	}
	if c.SnapshotStride < 1 {
		return fmt.Errorf("%w: snapshot_stride must be >= 1, got %d", ErrInvalidConfiguration, c.SnapshotStride)
	}
	if err := validateFinitePositive("max_expected_nuclei", c.MaxExpectedNuclei); err != nil {
		return err
	}
	if c.Workers < 0 {
		return fmt.Errorf("%w: workers must be non-negative, got %d", ErrInvalidConfiguration, c.Workers)
	}
	if err := c.Box.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfiguration, err)
	}
	if !trace.IsValidTraceLevel(string(c.Trace)) {
		return fmt.Errorf("%w: unknown trace level %q; valid: none, ticks", ErrInvalidConfiguration, c.Trace)
	}
	if c.TMax/c.DT >= maxTicks {
		return fmt.Errorf("%w: t_max/dt = %g exceeds the tick limit %d", ErrInvalidConfiguration, c.TMax/c.DT, maxTicks)
	}
	return nil
}

func validateFinitePositive(name string, val float64) error {
	if math.IsNaN(val) || math.IsInf(val, 0) {
		return fmt.Errorf("%w: %s must be a finite number, got %f", ErrInvalidConfiguration, name, val)
	}
	if val <= 0 {
		return fmt.Errorf("%w: %s must be positive, got %f", ErrInvalidConfiguration, name, val)
	}
	return nil
}

func validateFiniteNonNegative(name string, val float64) error {
	if math.IsNaN(val) || math.IsInf(val, 0) {
		return fmt.Errorf("%w: %s must be a finite number, got %f", ErrInvalidConfiguration, name, val)
	}
	if val < 0 {
		return fmt.Errorf("%w: %s must be non-negative, got %f", ErrInvalidConfiguration, name, val)
	}
	return nil
}
