package cmd

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"

	sim "github.com/inference-sim/nucleation-sim/sim"
	"github.com/inference-sim/nucleation-sim/sim/trace"
)

// Flag-backed simulation parameters. Defaults mirror sim.DefaultConfig so
// `--help` shows the effective baseline.
var (
	volumeTotal       float64
	growthSpeed       float64
	lambda0           float64
	alpha             float64
	dt                float64
	tMax              float64
	freeVolThreshold  float64
	nFreeMC           int
	snapshotStride    int
	snapshotFinal     bool
	seed              int64
	maxExpectedNuclei float64
	workers           int
	traceLevel        string
)

func registerSimFlags(fs *pflag.FlagSet) {
	d := sim.DefaultConfig()
	fs.Float64Var(&volumeTotal, "volume-total", d.VolumeTotal, "Volume scaling the nucleation intensity")
	fs.Float64Var(&growthSpeed, "v", d.GrowthSpeed, "Linear radial growth speed of grains")
	fs.Float64Var(&lambda0, "lambda0", d.Lambda0, "Base nucleation intensity at t=0")
	fs.Float64Var(&alpha, "alpha", d.Alpha, "Exponential growth rate of the nucleation intensity")
	fs.Float64Var(&dt, "dt", d.DT, "Time step")
	fs.Float64Var(&tMax, "t-max", d.TMax, "Time horizon")
	fs.Float64Var(&freeVolThreshold, "free-vol-threshold", d.FreeVolThreshold, "Stop when the free volume fraction drops below this")
	fs.IntVar(&nFreeMC, "n-free-mc", d.NFreeMC, "Monte Carlo samples per free-volume estimate")
	fs.IntVar(&snapshotStride, "snapshot-stride", d.SnapshotStride, "Record a snapshot every k-th tick")
	fs.BoolVar(&snapshotFinal, "snapshot-final", d.SnapshotFinal, "Also record the final state when the stride missed it")
	fs.Int64Var(&seed, "seed", d.Seed, "Seed for the simulation random streams")
	fs.Float64Var(&maxExpectedNuclei, "max-expected-nuclei", d.MaxExpectedNuclei, "Fail when a step's expected nucleation count exceeds this")
	fs.IntVar(&workers, "workers", d.Workers, "Goroutines classifying Monte Carlo points (0 or 1 = sequential)")
	fs.StringVar(&traceLevel, "trace", string(d.Trace), "Trace level (none, ticks)")
}

// loadConfigFile parses a YAML config on top of sim.DefaultConfig, so omitted
// keys keep their defaults. Uses strict field checking: typos are errors.
func loadConfigFile(path string) (sim.Config, error) {
	cfg := sim.DefaultConfig()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("reading config: %w", err)
	}
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return cfg, fmt.Errorf("parsing config %s: %w", path, err)
	}
	return cfg, nil
}

// applyFlagOverrides copies every explicitly set flag into cfg.
func applyFlagOverrides(fs *pflag.FlagSet, cfg *sim.Config) {
	overrides := []struct {
		flag  string
		apply func()
	}{
		{"volume-total", func() { cfg.VolumeTotal = volumeTotal }},
		{"v", func() { cfg.GrowthSpeed = growthSpeed }},
		{"lambda0", func() { cfg.Lambda0 = lambda0 }},
		{"alpha", func() { cfg.Alpha = alpha }},
		{"dt", func() { cfg.DT = dt }},
		{"t-max", func() { cfg.TMax = tMax }},
		{"free-vol-threshold", func() { cfg.FreeVolThreshold = freeVolThreshold }},
		{"n-free-mc", func() { cfg.NFreeMC = nFreeMC }},
		{"snapshot-stride", func() { cfg.SnapshotStride = snapshotStride }},
		{"snapshot-final", func() { cfg.SnapshotFinal = snapshotFinal }},
		{"seed", func() { cfg.Seed = seed }},
		{"max-expected-nuclei", func() { cfg.MaxExpectedNuclei = maxExpectedNuclei }},
		{"workers", func() { cfg.Workers = workers }},
		{"trace", func() { cfg.Trace = trace.TraceLevel(traceLevel) }},
	}
	for _, o := range overrides {
		if fs.Changed(o.flag) {
			o.apply()
		}
	}
}

// resolveConfig loads the config file, applies flag overrides and validates
// the result.
func resolveConfig(fs *pflag.FlagSet, path string) (sim.Config, error) {
	cfg, err := loadConfigFile(path)
	if err != nil {
		return cfg, err
	}
	applyFlagOverrides(fs, &cfg)
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// configCmd prints the resolved configuration as YAML
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Print the resolved simulation configuration as YAML",
	Run: func(cmd *cobra.Command, args []string) {
		setupLogging()
		cfg, err := resolveConfig(cmd.Flags(), configPath)
		if err != nil {
			logrus.Fatalf("%v", err)
		}
		enc := yaml.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent(2)
		if err := enc.Encode(cfg); err != nil {
			logrus.Fatalf("Failed to encode config: %v", err)
		}
		_ = enc.Close()
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
}
