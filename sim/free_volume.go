package sim

import (
	"fmt"

	"golang.org/x/sync/errgroup"
)

// minParallelSamples is the smallest sample count worth splitting across workers.
const minParallelSamples = 256

// FreeVolumeEstimator estimates the fraction of the volume not covered by any
// grain with a single-pass Monte Carlo count. Sampling noise feeds into the
// nucleation rate unsmoothed.
type FreeVolumeEstimator struct {
	sampler *VolumeSampler
	workers int
}

// NewFreeVolumeEstimator creates an estimator drawing points from sampler.
// workers <= 1 classifies points on the calling goroutine.
func NewFreeVolumeEstimator(sampler *VolumeSampler, workers int) *FreeVolumeEstimator {
	return &FreeVolumeEstimator{sampler: sampler, workers: workers}
}

// EstimateFreeFraction draws n points and returns the fraction of them that no
// grain in view contains at time t. The result lies in [0, 1] and is exactly
// 1.0 for an empty view.
//
// All points are drawn sequentially before classification, so the result is
// bit-identical whatever the worker count.
func (e *FreeVolumeEstimator) EstimateFreeFraction(t float64, view FieldView, n int) (float64, error) {
	if n <= 0 {
		return 0, fmt.Errorf("%w: free-volume estimate needs a positive sample count, got %d", ErrSamplingDegenerate, n)
	}
	pts := e.sampler.SamplePoints(n)
	free, err := e.countFree(t, view, pts)
	if err != nil {
		return 0, err
	}
	return float64(free) / float64(n), nil
}

func (e *FreeVolumeEstimator) countFree(t float64, view FieldView, pts []Vec3) (int, error) {
	if e.workers <= 1 || len(pts) < minParallelSamples || view.Len() == 0 {
		return countFreeRange(t, view, pts), nil
	}

	chunk := (len(pts) + e.workers - 1) / e.workers
	counts := make([]int, e.workers)
	var g errgroup.Group
	for w := 0; w < e.workers; w++ {
		lo := w * chunk
		if lo >= len(pts) {
			break
		}
		hi := min(lo+chunk, len(pts))
		g.Go(func() error {
			counts[w] = countFreeRange(t, view, pts[lo:hi])
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return 0, fmt.Errorf("classifying free-volume samples: %w", err)
	}

	total := 0
	for _, c := range counts {
		total += c
	}
	return total, nil
}

func countFreeRange(t float64, view FieldView, pts []Vec3) int {
	free := 0
	for _, p := range pts {
		if !view.ContainsPoint(p, t) {
			free++
		}
	}
	return free
}
