package sim

import "errors"

// Failure kinds surfaced by a SimulationRun. Callers match them with errors.Is;
// every error returned by this package wraps exactly one (or, for a zero Monte
// Carlo sample count, both ErrInvalidConfiguration and ErrSamplingDegenerate).
var (
	// ErrInvalidConfiguration is returned before any computation starts.
	ErrInvalidConfiguration = errors.New("invalid configuration")

	// ErrNumericOverflow is returned when the expected nucleation count for a
	// step is non-finite or exceeds Config.MaxExpectedNuclei.
	ErrNumericOverflow = errors.New("numeric overflow")

	// ErrSamplingDegenerate is returned when a free-volume estimate is requested
	// with no Monte Carlo samples.
	ErrSamplingDegenerate = errors.New("degenerate sampling")

	// ErrSerialization wraps I/O and encoding failures while emitting results.
	ErrSerialization = errors.New("serialization failure")
)
