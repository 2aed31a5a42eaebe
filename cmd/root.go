package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	sim "github.com/inference-sim/nucleation-sim/sim"
	"github.com/inference-sim/nucleation-sim/sim/output"
)

var (
	logLevel      string // Log verbosity level
	configPath    string // Optional YAML config file; flags override its values
	outputPath    string // File-output mode: final grains JSON
	snapshotsPath string // Snapshot sequence JSON; stdout when neither path is set
)

// rootCmd is the base command for the CLI
var rootCmd = &cobra.Command{
	Use:   "nucleation-sim",
	Short: "Stochastic nucleation-and-growth simulator for spherical grains",
}

// runCmd executes one simulation using parameters from the config file and CLI flags
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run one simulation to completion and write its results",
	Run: func(cmd *cobra.Command, args []string) {
		setupLogging()

		cfg, err := resolveConfig(cmd.Flags(), configPath)
		if err != nil {
			logrus.Fatalf("%v", err)
		}

		startTime := time.Now()
		res, err := sim.Simulate(cmd.Context(), cfg)
		if err != nil {
			logrus.Fatalf("Simulation failed: %v", err)
		}
		logrus.Infof("Run %s finished in %v: state=%s ticks=%d final_time=%g",
			res.RunID, time.Since(startTime), res.State, res.Ticks, res.FinalTime)

		if err := writeResults(res); err != nil {
			logrus.Fatalf("%v", err)
		}
		fmt.Fprintf(os.Stderr, "Simulation completed with %d spheres.\n", len(res.Grains))
	},
}

// writeResults emits res in every requested shape.
func writeResults(res *sim.Result) error {
	if outputPath != "" {
		if err := output.WriteFinalGrainsFile(outputPath, res); err != nil {
			return err
		}
		logrus.Infof("Final grains written to %s", outputPath)
	}
	if snapshotsPath != "" {
		if err := output.WriteSnapshotsFile(snapshotsPath, res); err != nil {
			return err
		}
		logrus.Infof("Snapshots written to %s", snapshotsPath)
	}
	if outputPath == "" && snapshotsPath == "" {
		return output.EncodeSnapshots(os.Stdout, res.Snapshots)
	}
	return nil
}

func setupLogging() {
	level, err := logrus.ParseLevel(logLevel)
	if err != nil {
		logrus.Fatalf("Invalid log level: %s", logLevel)
	}
	logrus.SetLevel(level)
}

// Execute runs the CLI root command. An interrupt cancels the running
// simulation at its next tick.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}

// init sets up CLI flags and subcommands
func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log", "error", "Log level (trace, debug, info, warn, error, fatal, panic)")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "YAML config file (flags override its values)")
	registerSimFlags(rootCmd.PersistentFlags())

	runCmd.Flags().StringVar(&outputPath, "output", "", "Write the final grains as a JSON array to this file")
	runCmd.Flags().StringVar(&snapshotsPath, "snapshots", "", "Write the snapshot sequence as a JSON array to this file")

	// Attach `run` as a subcommand to `root`
	rootCmd.AddCommand(runCmd)
}
