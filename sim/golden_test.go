package sim

import (
	"flag"
	"testing"

	"github.com/inference-sim/nucleation-sim/sim/internal/testutil"
)

var updateGolden = flag.Bool("update", false, "rewrite golden files in testdata/")

// Scenario C: a fixed-seed reference run recorded once in testdata/ and
// compared on every later run. Any change to the random stream layout, the
// Poisson draw or the loop order shows up here.
func TestGolden_ScenarioC(t *testing.T) {
	cfg := scenarioCConfig()
	res := runConfig(t, cfg)

	got := testutil.GoldenRun{
		Seed:       cfg.Seed,
		State:      string(res.State),
		Ticks:      res.Ticks,
		FinalTime:  res.FinalTime,
		GrainCount: len(res.Grains),
	}
	for _, s := range res.FinalSpheres() {
		got.Grains = append(got.Grains, testutil.GoldenGrain{Center: s.Center, Radius: s.Radius})
	}

	testutil.AssertGolden(t, "scenario_c.golden.json", got, *updateGolden)
}
