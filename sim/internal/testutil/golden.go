// Package testutil provides shared test infrastructure for the nucleation
// simulator: golden regression files and floating-point assertion helpers.
package testutil

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// GoldenRun is the recorded outcome of a fixed-seed reference run.
type GoldenRun struct {
	Seed       int64         `json:"seed"`
	State      string        `json:"state"`
	Ticks      int           `json:"ticks"`
	FinalTime  float64       `json:"final_time"`
	GrainCount int           `json:"grain_count"`
	Grains     []GoldenGrain `json:"grains"`
}

// GoldenGrain is one final grain of a golden run, in insertion order.
type GoldenGrain struct {
	Center [3]float64 `json:"center"`
	Radius float64    `json:"radius"`
}

// GoldenPath resolves name inside the repo-root testdata directory.
// The path is resolved relative to this source file: sim/internal/testutil/ → testdata/.
func GoldenPath(t *testing.T, name string) string {
	t.Helper()

	_, thisFile, _, ok := runtime.Caller(0)
	if !ok {
		t.Fatal("Failed to get current file path")
	}
	return filepath.Join(filepath.Dir(thisFile), "..", "..", "..", "testdata", name)
}

// AssertGolden compares got against the checked-in golden file name. A
// missing or unreadable file fails the test; with update set, got is written
// as the new reference instead.
func AssertGolden(t *testing.T, name string, got GoldenRun, update bool) {
	t.Helper()

	path := GoldenPath(t, name)
	if update {
		data, err := json.MarshalIndent(got, "", "  ")
		require.NoError(t, err)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, append(data, '\n'), 0o644))
		t.Logf("recorded golden file %s (%d grains)", path, got.GrainCount)
		return
	}

	want, err := ReadGolden(path)
	if err != nil {
		t.Fatalf("golden file %s: %v (rerun with -update to record it)", path, err)
	}
	assert.Equal(t, want, got, "golden mismatch for %s; rerun with -update only if the change is intended", name)
}

// ReadGolden loads a golden run from path.
func ReadGolden(path string) (GoldenRun, error) {
	var run GoldenRun
	data, err := os.ReadFile(path)
	if err != nil {
		return run, err
	}
	if err := json.Unmarshal(data, &run); err != nil {
		return run, fmt.Errorf("parsing %s: %w", path, err)
	}
	return run, nil
}

// AssertFloat64Equal compares two float64 values with relative tolerance.
func AssertFloat64Equal(t *testing.T, name string, want, got, relTol float64) {
	t.Helper()
	if want == 0 && got == 0 {
		return
	}
	diff := math.Abs(want - got)
	maxVal := math.Max(math.Abs(want), math.Abs(got))
	if diff/maxVal > relTol {
		t.Errorf("%s: got %v, want %v (diff=%v, relDiff=%v)", name, got, want, diff, diff/maxVal)
	}
}
