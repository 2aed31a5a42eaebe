// Package trace provides per-tick recording for nucleation runs.
// This package has no dependencies on sim/: it stores pure data types.
package trace

// TickRecord captures the decisions of a single simulation tick.
type TickRecord struct {
	Tick         int     `json:"tick"`
	Time         float64 `json:"time"`
	FreeFraction float64 `json:"free_fraction"`
	Expected     float64 `json:"expected"` // Poisson mean; 0 when the tick stopped before nucleation
	Drawn        int     `json:"drawn"`
	Accepted     int     `json:"accepted"`
	TotalGrains  int     `json:"total_grains"`
	Exhausted    bool    `json:"exhausted"` // free fraction fell below the threshold; no nucleation ran
}
