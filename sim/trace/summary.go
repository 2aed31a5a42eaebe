package trace

import "gonum.org/v1/gonum/stat"

// TraceSummary aggregates statistics from a SimulationTrace.
type TraceSummary struct {
	TotalTicks       int
	TotalDrawn       int
	TotalAccepted    int
	TotalRejected    int
	AcceptanceRatio  float64 // accepted / drawn; 0 when nothing was drawn
	MeanFreeFraction float64
	StdFreeFraction  float64 // sample standard deviation; 0 for fewer than two ticks
	MinFreeFraction  float64
	PeakExpected     float64
}

// Summarize computes aggregate statistics from a SimulationTrace.
// Safe for nil or empty traces (returns zero-value fields).
func Summarize(st *SimulationTrace) *TraceSummary {
	summary := &TraceSummary{}
	if st == nil || len(st.Ticks) == 0 {
		return summary
	}

	summary.TotalTicks = len(st.Ticks)
	free := make([]float64, 0, len(st.Ticks))
	summary.MinFreeFraction = st.Ticks[0].FreeFraction
	for _, r := range st.Ticks {
		summary.TotalDrawn += r.Drawn
		summary.TotalAccepted += r.Accepted
		if r.Expected > summary.PeakExpected {
			summary.PeakExpected = r.Expected
		}
		if r.FreeFraction < summary.MinFreeFraction {
			summary.MinFreeFraction = r.FreeFraction
		}
		free = append(free, r.FreeFraction)
	}
	summary.TotalRejected = summary.TotalDrawn - summary.TotalAccepted
	if summary.TotalDrawn > 0 {
		summary.AcceptanceRatio = float64(summary.TotalAccepted) / float64(summary.TotalDrawn)
	}

	if len(free) < 2 {
		summary.MeanFreeFraction = free[0]
		return summary
	}
	summary.MeanFreeFraction, summary.StdFreeFraction = stat.MeanStdDev(free, nil)
	return summary
}
