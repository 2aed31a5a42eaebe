// Package sim provides the nucleation-and-growth simulation kernel.
//
// # Reading Guide
//
// Start with these three files to understand the kernel:
//   - field.go: Grain (center + birth time, radius derived) and the append-only SphereField
//   - nucleation.go: Poisson draw of candidates and hard-core thinning against the field
//   - simulator.go: the tick loop, its termination states, and snapshot recording
//
// # Model
//
// Each tick at t = k·dt estimates the free volume fraction f by Monte Carlo,
// stops early if f falls below the configured threshold, then draws
// Poisson(λ0·exp(α·t)·f·V·dt) uniform candidates and keeps those not strictly
// inside an existing grain. Kept candidates become grains born at t; a grain's
// radius at time t is v·(t − birth). Grains never merge or disappear.
//
// # Determinism
//
// All randomness comes from PartitionedRNG: the Monte Carlo estimator and the
// nucleation process draw from separate seeded streams. The same Config
// (including Seed) reproduces a run bit for bit, whatever Config.Workers is.
//
// # Sub-packages
//   - sim/trace/: per-tick decision records and their summary
//   - sim/output/: JSON encoding of snapshot sequences and final grains
package sim
