package sim

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/inference-sim/nucleation-sim/sim/trace"
)

// RunState represents the lifecycle state of a SimulationRun.
type RunState string

const (
	StateRunning             RunState = "running"
	StateFreeVolumeExhausted RunState = "terminated_free_volume_exhausted"
	StateTimeLimitReached    RunState = "terminated_time_limit_reached"
	StateFailed              RunState = "failed"
	StateCancelled           RunState = "cancelled"
)

// Terminal reports whether no further tick can execute in state s.
func (s RunState) Terminal() bool {
	return s != StateRunning
}

// Result is everything a completed run hands back to its caller.
type Result struct {
	RunID       string
	State       RunState
	Ticks       int     // ticks that ran to completion
	FinalTime   float64 // clock when the run stopped
	GrowthSpeed float64
	Grains      []Grain
	Snapshots   []Snapshot
	Trace       *trace.SimulationTrace
}

// FinalSpheres returns every grain with its radius at FinalTime, the shape of
// the file-output mode.
func (r *Result) FinalSpheres() []SphereState {
	out := make([]SphereState, 0, len(r.Grains))
	for _, g := range r.Grains {
		out = append(out, SphereState{Center: g.Center, Radius: g.Radius(r.FinalTime, r.GrowthSpeed)})
	}
	return out
}

// SimulationRun owns the state of one nucleation-and-growth simulation: its
// configuration, random streams, grain field and snapshot sequence. Nothing
// outlives the run; two runs never share state.
//
// A run is single-threaded: the loop is the only writer of the field, and every
// estimation or rejection pass reads a FieldView taken before the tick mutates it.
type SimulationRun struct {
	ID string

	cfg        Config
	field      *SphereField
	estimator  *FreeVolumeEstimator
	nucleation *NucleationProcess
	recorder   *SnapshotRecorder
	trace      *trace.SimulationTrace
	log        *logrus.Entry

	state    RunState
	tick     int
	maxTicks int
	clock    float64
	started  bool
}

// NewSimulationRun validates cfg and wires a run ready to execute. An invalid
// configuration is rejected here, before any random draw.
func NewSimulationRun(cfg Config) (*SimulationRun, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.Trace == "" {
		cfg.Trace = trace.TraceLevelNone
	}

	id := uuid.NewString()
	rng := NewPartitionedRNG(NewSimulationKey(cfg.Seed))
	mcSampler := NewVolumeSampler(cfg.Box, rng.ForSubsystem(SubsystemFreeVolume))
	nucRNG := rng.ForSubsystem(SubsystemNucleation)

	return &SimulationRun{
		ID:        id,
		cfg:       cfg,
		field:     NewSphereField(cfg.Box, cfg.GrowthSpeed),
		estimator: NewFreeVolumeEstimator(mcSampler, cfg.Workers),
		nucleation: NewNucleationProcess(cfg.Box, nucRNG,
			cfg.RateParams(), cfg.VolumeTotal, cfg.DT, cfg.MaxExpectedNuclei),
		recorder: NewSnapshotRecorder(),
		trace:    trace.NewSimulationTrace(trace.TraceConfig{Level: cfg.Trace}),
		log:      logrus.WithField("run", id),
		state:    StateRunning,
		maxTicks: cfg.MaxTicks(),
	}, nil
}

// Config returns the validated configuration of the run.
func (r *SimulationRun) Config() Config {
	return r.cfg
}

// State returns the current lifecycle state.
func (r *SimulationRun) State() RunState {
	return r.state
}

// Tick returns the number of completed ticks.
func (r *SimulationRun) Tick() int {
	return r.tick
}

// Field returns a read-only view of the current grain field.
func (r *SimulationRun) Field() FieldView {
	return r.field.View()
}

// Run executes ticks until a stop condition holds and returns the result.
// ctx is checked once per tick. On any failure the run is aborted and no
// partial result is returned.
func (r *SimulationRun) Run(ctx context.Context) (*Result, error) {
	if r.started {
		return nil, fmt.Errorf("simulation run %s already executed", r.ID)
	}
	r.started = true

	r.log.Infof("Starting simulation: t_max=%g dt=%g max_ticks=%d lambda0=%g alpha=%g v=%g n_free_mc=%d seed=%d",
		r.cfg.TMax, r.cfg.DT, r.maxTicks, r.cfg.Lambda0, r.cfg.Alpha, r.cfg.GrowthSpeed, r.cfg.NFreeMC, r.cfg.Seed)

	if r.maxTicks == 0 {
		r.state = StateTimeLimitReached
	}
	for r.state == StateRunning {
		if err := ctx.Err(); err != nil {
			r.state = StateCancelled
			return nil, fmt.Errorf("simulation cancelled at tick %d: %w", r.tick, err)
		}
		if err := r.Step(); err != nil {
			r.state = StateFailed
			return nil, err
		}
	}

	if r.cfg.SnapshotFinal {
		r.recordFinalSnapshot()
	}

	r.log.Infof("[tick %07d] Simulation ended: state=%s grains=%d snapshots=%d",
		r.tick, r.state, r.field.Len(), r.recorder.Len())
	if r.trace.Config.Enabled() {
		s := trace.Summarize(r.trace)
		r.log.Infof("Trace summary: drawn=%d accepted=%d acceptance=%.3f free_mean=%.4f free_std=%.4f free_min=%.4f",
			s.TotalDrawn, s.TotalAccepted, s.AcceptanceRatio, s.MeanFreeFraction, s.StdFreeFraction, s.MinFreeFraction)
	}

	return &Result{
		RunID:       r.ID,
		State:       r.state,
		Ticks:       r.tick,
		FinalTime:   r.clock,
		GrowthSpeed: r.cfg.GrowthSpeed,
		Grains:      r.field.Grains(),
		Snapshots:   r.recorder.Snapshots(),
		Trace:       r.trace,
	}, nil
}

// Step executes one tick at t = tick*dt:
//  1. estimate the free fraction on the pre-tick field;
//  2. stop with StateFreeVolumeExhausted if it is below the threshold;
//  3. nucleate against the pre-tick field and append the accepted grains;
//  4. record a snapshot when the tick index is a multiple of the stride;
//  5. advance the clock and stop with StateTimeLimitReached once it reaches
//     t_max; maxTicks bounds the loop independently.
func (r *SimulationRun) Step() error {
	if r.state.Terminal() {
		return fmt.Errorf("step on terminated run (state %s)", r.state)
	}
	if r.maxTicks == 0 {
		r.state = StateTimeLimitReached
		return nil
	}

	t := float64(r.tick) * r.cfg.DT
	r.clock = t
	view := r.field.View()

	free, err := r.estimator.EstimateFreeFraction(t, view, r.cfg.NFreeMC)
	if err != nil {
		return fmt.Errorf("tick %d: %w", r.tick, err)
	}
	if free < r.cfg.FreeVolThreshold {
		r.state = StateFreeVolumeExhausted
		r.trace.RecordTick(trace.TickRecord{
			Tick: r.tick, Time: t, FreeFraction: free, TotalGrains: view.Len(), Exhausted: true,
		})
		r.log.Warnf("[tick %07d] Free volume exhausted: fraction %.5f < threshold %g", r.tick, free, r.cfg.FreeVolThreshold)
		return nil
	}

	outcome, err := r.nucleation.Step(t, free, view)
	if err != nil {
		return fmt.Errorf("tick %d: %w", r.tick, err)
	}
	for _, c := range outcome.Accepted {
		if err := r.field.Append(Grain{Center: c, BirthTime: t}); err != nil {
			return fmt.Errorf("tick %d: %w", r.tick, err)
		}
	}

	if r.tick%r.cfg.SnapshotStride == 0 {
		r.recorder.Record(t, r.field.View())
	}

	r.trace.RecordTick(trace.TickRecord{
		Tick:         r.tick,
		Time:         t,
		FreeFraction: free,
		Expected:     outcome.Expected,
		Drawn:        outcome.Drawn,
		Accepted:     len(outcome.Accepted),
		TotalGrains:  r.field.Len(),
	})
	r.log.Debugf("[tick %07d] t=%.4f free=%.4f expected=%.3f drawn=%d accepted=%d grains=%d",
		r.tick, t, free, outcome.Expected, outcome.Drawn, len(outcome.Accepted), r.field.Len())

	r.tick++
	r.clock = float64(r.tick) * r.cfg.DT
	if r.clock >= r.cfg.TMax || r.tick >= r.maxTicks {
		r.state = StateTimeLimitReached
	}
	return nil
}

// recordFinalSnapshot captures the field at the stop time unless the last
// recorded snapshot already shows that exact state.
func (r *SimulationRun) recordFinalSnapshot() {
	if last, ok := r.recorder.Last(); ok && last.Time == r.clock {
		return
	}
	if r.maxTicks == 0 {
		return
	}
	r.recorder.Record(r.clock, r.field.View())
}

// Simulate is the one-call entry point used by the CLI and the HTTP trigger:
// it builds a run from cfg and executes it to completion.
func Simulate(ctx context.Context, cfg Config) (*Result, error) {
	run, err := NewSimulationRun(cfg)
	if err != nil {
		return nil, err
	}
	res, err := run.Run(ctx)
	if err != nil {
		if !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
			run.log.Errorf("Simulation failed: %v", err)
		}
		return nil, err
	}
	return res, nil
}
