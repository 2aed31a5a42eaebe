package sim

// SphereState is one grain as seen at a snapshot time.
type SphereState struct {
	Center Vec3    `json:"center"`
	Radius float64 `json:"radius"`
}

// Snapshot is an immutable record of every grain existing at Time.
type Snapshot struct {
	Time    float64       `json:"time"`
	Spheres []SphereState `json:"spheres"`
}

// CaptureSnapshot reads view at time t. Grains born at or before t are
// included in insertion order; grains born exactly at t have radius 0.
func CaptureSnapshot(t float64, view FieldView) Snapshot {
	spheres := make([]SphereState, 0, view.Len())
	for i := 0; i < view.Len(); i++ {
		g := view.At(i)
		if g.BirthTime > t {
			continue
		}
		spheres = append(spheres, SphereState{Center: g.Center, Radius: g.Radius(t, view.GrowthSpeed())})
	}
	return Snapshot{Time: t, Spheres: spheres}
}

// SnapshotRecorder accumulates the ordered snapshot sequence of a run.
// Recording never mutates the field.
type SnapshotRecorder struct {
	snapshots []Snapshot
}

// NewSnapshotRecorder creates an empty recorder.
func NewSnapshotRecorder() *SnapshotRecorder {
	return &SnapshotRecorder{snapshots: make([]Snapshot, 0)}
}

// Record captures view at t and appends it to the sequence.
func (r *SnapshotRecorder) Record(t float64, view FieldView) Snapshot {
	snap := CaptureSnapshot(t, view)
	r.snapshots = append(r.snapshots, snap)
	return snap
}

// Len returns the number of recorded snapshots.
func (r *SnapshotRecorder) Len() int {
	return len(r.snapshots)
}

// Last returns the most recent snapshot, if any.
func (r *SnapshotRecorder) Last() (Snapshot, bool) {
	if len(r.snapshots) == 0 {
		return Snapshot{}, false
	}
	return r.snapshots[len(r.snapshots)-1].clone(), true
}

// Snapshots returns a deep copy of the recorded sequence in chronological
// order; callers may modify it without affecting the recorder.
func (r *SnapshotRecorder) Snapshots() []Snapshot {
	out := make([]Snapshot, len(r.snapshots))
	for i, s := range r.snapshots {
		out[i] = s.clone()
	}
	return out
}

func (s Snapshot) clone() Snapshot {
	spheres := make([]SphereState, len(s.Spheres))
	copy(spheres, s.Spheres)
	return Snapshot{Time: s.Time, Spheres: spheres}
}
