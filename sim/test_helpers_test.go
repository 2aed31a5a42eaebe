package sim

import "math/rand/v2"

// newTestRand returns a standalone seeded source for component tests.
func newTestRand(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^pcgStream))
}

// scenarioCConfig is the fixed-seed reference configuration recorded in
// testdata/scenario_c.golden.json.
func scenarioCConfig() Config {
	cfg := DefaultConfig()
	cfg.Seed = 42
	cfg.VolumeTotal = 1
	cfg.GrowthSpeed = 0.05
	cfg.Lambda0 = 100
	cfg.Alpha = 0.1
	cfg.DT = 1.0
	cfg.TMax = 10
	cfg.FreeVolThreshold = 0.001
	cfg.NFreeMC = 1000
	return cfg
}

// quickConfig is a small, fast configuration for loop tests.
func quickConfig() Config {
	cfg := DefaultConfig()
	cfg.GrowthSpeed = 0.05
	cfg.Lambda0 = 20
	cfg.DT = 0.5
	cfg.TMax = 5
	cfg.NFreeMC = 200
	return cfg
}

// grainAt builds a grain born at birth centered at (x, y, z).
func grainAt(x, y, z, birth float64) Grain {
	return Grain{Center: Vec3{x, y, z}, BirthTime: birth}
}
