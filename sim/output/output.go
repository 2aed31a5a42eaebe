// Package output encodes simulation results into the JSON shapes consumed by
// visualization clients: a chronological snapshot sequence, or the final
// grains of a run without a time dimension.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"

	sim "github.com/inference-sim/nucleation-sim/sim"
)

// EncodeSnapshots writes snaps as a JSON array of {"time", "spheres"} objects.
// A nil sequence encodes as an empty array.
func EncodeSnapshots(w io.Writer, snaps []sim.Snapshot) error {
	if snaps == nil {
		snaps = []sim.Snapshot{}
	}
	if err := json.NewEncoder(w).Encode(snaps); err != nil {
		return fmt.Errorf("%w: encoding snapshots: %v", sim.ErrSerialization, err)
	}
	return nil
}

// EncodeFinalGrains writes spheres as a JSON array of {"center", "radius"} objects.
func EncodeFinalGrains(w io.Writer, spheres []sim.SphereState) error {
	if spheres == nil {
		spheres = []sim.SphereState{}
	}
	if err := json.NewEncoder(w).Encode(spheres); err != nil {
		return fmt.Errorf("%w: encoding final grains: %v", sim.ErrSerialization, err)
	}
	return nil
}

// DecodeSnapshots parses a snapshot sequence written by EncodeSnapshots.
func DecodeSnapshots(r io.Reader) ([]sim.Snapshot, error) {
	var snaps []sim.Snapshot
	if err := json.NewDecoder(r).Decode(&snaps); err != nil {
		return nil, fmt.Errorf("%w: decoding snapshots: %v", sim.ErrSerialization, err)
	}
	return snaps, nil
}

// DecodeFinalGrains parses a final-grains array written by EncodeFinalGrains.
func DecodeFinalGrains(r io.Reader) ([]sim.SphereState, error) {
	var spheres []sim.SphereState
	if err := json.NewDecoder(r).Decode(&spheres); err != nil {
		return nil, fmt.Errorf("%w: decoding final grains: %v", sim.ErrSerialization, err)
	}
	return spheres, nil
}

// WriteSnapshotsFile writes the snapshot sequence of res to path.
func WriteSnapshotsFile(path string, res *sim.Result) error {
	return writeFile(path, func(w io.Writer) error { return EncodeSnapshots(w, res.Snapshots) })
}

// WriteFinalGrainsFile writes the final grains of res to path.
func WriteFinalGrainsFile(path string, res *sim.Result) error {
	return writeFile(path, func(w io.Writer) error { return EncodeFinalGrains(w, res.FinalSpheres()) })
}

// writeFile encodes into a temporary file next to path and renames it into
// place, so a failed write never leaves a truncated result behind.
func writeFile(path string, encode func(io.Writer) error) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("%w: creating %s: %v", sim.ErrSerialization, path, err)
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	if err := encode(tmp); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("%w: closing %s: %v", sim.ErrSerialization, tmpName, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("%w: renaming %s: %v", sim.ErrSerialization, path, err)
	}
	logrus.Debugf("Wrote %s", path)
	return nil
}
