package output

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	sim "github.com/inference-sim/nucleation-sim/sim"
)

func sampleSnapshots() []sim.Snapshot {
	return []sim.Snapshot{
		{Time: 0, Spheres: []sim.SphereState{}},
		{Time: 0.1, Spheres: []sim.SphereState{
			{Center: sim.Vec3{0.1, 0.2, 0.30000000000000004}, Radius: 0},
			{Center: sim.Vec3{1.0 / 3.0, 2.0 / 3.0, 0.999999}, Radius: 0.0010000000000000002},
		}},
	}
}

func TestEncodeSnapshots_RoundTripPreservesValues(t *testing.T) {
	// GIVEN snapshots with values that need full float64 precision
	snaps := sampleSnapshots()

	// WHEN encoded and decoded
	var buf bytes.Buffer
	require.NoError(t, EncodeSnapshots(&buf, snaps))
	got, err := DecodeSnapshots(&buf)
	require.NoError(t, err)

	// THEN centers and radii are bit-identical
	if diff := cmp.Diff(snaps, got); diff != "" {
		t.Errorf("round trip changed snapshots (-want +got):\n%s", diff)
	}
}

func TestEncodeSnapshots_WireShape(t *testing.T) {
	var buf bytes.Buffer
	snaps := []sim.Snapshot{{Time: 0.5, Spheres: []sim.SphereState{{Center: sim.Vec3{0.5, 0.5, 0.5}, Radius: 0.2}}}}
	require.NoError(t, EncodeSnapshots(&buf, snaps))
	assert.JSONEq(t, `[{"time":0.5,"spheres":[{"center":[0.5,0.5,0.5],"radius":0.2}]}]`, buf.String())
}

func TestEncodeSnapshots_NilIsEmptyArray(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, EncodeSnapshots(&buf, nil))
	assert.Equal(t, "[]", strings.TrimSpace(buf.String()))
}

func TestEncodeFinalGrains_WireShape(t *testing.T) {
	var buf bytes.Buffer
	spheres := []sim.SphereState{{Center: sim.Vec3{0.1, 0.2, 0.3}, Radius: 0.05}}
	require.NoError(t, EncodeFinalGrains(&buf, spheres))
	assert.JSONEq(t, `[{"center":[0.1,0.2,0.3],"radius":0.05}]`, buf.String())

	got, err := DecodeFinalGrains(&buf)
	require.NoError(t, err)
	assert.Equal(t, spheres, got)
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("disk full") }

func TestEncode_WriteFailureIsSerializationError(t *testing.T) {
	err := EncodeSnapshots(failingWriter{}, sampleSnapshots())
	assert.True(t, errors.Is(err, sim.ErrSerialization))

	err = EncodeFinalGrains(failingWriter{}, nil)
	assert.True(t, errors.Is(err, sim.ErrSerialization))
}

func TestDecodeSnapshots_MalformedInput(t *testing.T) {
	_, err := DecodeSnapshots(strings.NewReader(`{"time":`))
	assert.True(t, errors.Is(err, sim.ErrSerialization))
}

func TestWriteFiles(t *testing.T) {
	// GIVEN a result with one grain
	res := &sim.Result{
		FinalTime:   2,
		GrowthSpeed: 0.25,
		Grains:      []sim.Grain{{Center: sim.Vec3{0.5, 0.5, 0.5}, BirthTime: 1}},
		Snapshots:   sampleSnapshots(),
	}
	dir := t.TempDir()

	// WHEN both files are written
	grainsPath := filepath.Join(dir, "output.json")
	snapsPath := filepath.Join(dir, "snapshots.json")
	require.NoError(t, WriteFinalGrainsFile(grainsPath, res))
	require.NoError(t, WriteSnapshotsFile(snapsPath, res))

	// THEN the final grains carry the radius at the final time
	data, err := os.ReadFile(grainsPath)
	require.NoError(t, err)
	assert.JSONEq(t, `[{"center":[0.5,0.5,0.5],"radius":0.25}]`, string(data))

	f, err := os.Open(snapsPath)
	require.NoError(t, err)
	defer f.Close()
	snaps, err := DecodeSnapshots(f)
	require.NoError(t, err)
	assert.Len(t, snaps, 2)

	// AND no temporary files are left behind
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 2)
}

func TestWriteFile_MissingDirectoryIsSerializationError(t *testing.T) {
	res := &sim.Result{}
	err := WriteFinalGrainsFile(filepath.Join(t.TempDir(), "missing", "out.json"), res)
	assert.True(t, errors.Is(err, sim.ErrSerialization))
}
