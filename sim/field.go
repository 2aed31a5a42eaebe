package sim

import "fmt"

// Grain is a sphere nucleated at Center at BirthTime. Its radius is derived,
// never stored: it grows linearly with age at the field's growth speed.
type Grain struct {
	Center    Vec3
	BirthTime float64
}

// Radius returns growthSpeed * max(0, t - BirthTime).
func (g Grain) Radius(t, growthSpeed float64) float64 {
	age := t - g.BirthTime
	if age <= 0 {
		return 0
	}
	return growthSpeed * age
}

// SphereField is the append-only, insertion-ordered set of grains of one run.
// Overlapping grains are valid and are never merged or removed.
//
// Thread-safety: one writer. Readers take a FieldView; a view never observes
// grains appended after it was taken.
type SphereField struct {
	box         Box
	growthSpeed float64
	grains      []Grain
}

// NewSphereField creates an empty field over box whose grains grow at growthSpeed.
func NewSphereField(box Box, growthSpeed float64) *SphereField {
	return &SphereField{
		box:         box,
		growthSpeed: growthSpeed,
		grains:      make([]Grain, 0),
	}
}

// Append adds g to the end of the field. The only validation is that the
// center lies inside the configured box.
func (f *SphereField) Append(g Grain) error {
	if !f.box.Contains(g.Center) {
		return fmt.Errorf("%w: grain center %v outside box %v..%v", ErrInvalidConfiguration, g.Center, f.box.Min, f.box.Max)
	}
	f.grains = append(f.grains, g)
	return nil
}

// Len returns the number of grains in the field.
func (f *SphereField) Len() int {
	return len(f.grains)
}

// GrowthSpeed returns the linear radial growth speed shared by all grains.
func (f *SphereField) GrowthSpeed() float64 {
	return f.growthSpeed
}

// Grains returns a copy of the grains in insertion order.
func (f *SphereField) Grains() []Grain {
	out := make([]Grain, len(f.grains))
	copy(out, f.grains)
	return out
}

// ContainsPoint reports whether p is strictly inside any grain at time t.
func (f *SphereField) ContainsPoint(p Vec3, t float64) bool {
	return f.View().ContainsPoint(p, t)
}

// View returns an immutable view of the field as it stands now.
func (f *SphereField) View() FieldView {
	n := len(f.grains)
	return FieldView{grains: f.grains[:n:n], growthSpeed: f.growthSpeed}
}

// FieldView is a read-only snapshot of a SphereField. The capacity-clipped
// slice guarantees later appends to the field are invisible here, so a view can
// be shared across goroutines for the duration of an estimation pass.
type FieldView struct {
	grains      []Grain
	growthSpeed float64
}

// Len returns the number of grains visible in the view.
func (v FieldView) Len() int {
	return len(v.grains)
}

// At returns the i-th grain in insertion order.
func (v FieldView) At(i int) Grain {
	return v.grains[i]
}

// GrowthSpeed returns the growth speed of the underlying field.
func (v FieldView) GrowthSpeed() float64 {
	return v.growthSpeed
}

// ContainsPoint reports whether some grain born at or before t has its center
// strictly closer to p than its radius at t. A point exactly on a surface is free.
func (v FieldView) ContainsPoint(p Vec3, t float64) bool {
	for _, g := range v.grains {
		if g.BirthTime > t {
			continue
		}
		if p.Dist(g.Center) < g.Radius(t, v.growthSpeed) {
			return true
		}
	}
	return false
}
