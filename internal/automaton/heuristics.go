package automaton

import "math"

// TransitionRateHeuristic reports stable iff the last K consecutive ticks
// each have a transition rate below Threshold.
type TransitionRateHeuristic struct {
	K         int
	Threshold float64
}

// NewTransitionRateHeuristic builds a TransitionRateHeuristic with the
// default window and threshold.
func NewTransitionRateHeuristic() TransitionRateHeuristic {
	return TransitionRateHeuristic{K: 3, Threshold: 0.01}
}

func (h TransitionRateHeuristic) IsStable(history []TickResult) bool {
	if len(history) < h.K {
		return false
	}
	window := history[len(history)-h.K:]
	for _, t := range window {
		if t.TransitionRate() >= h.Threshold {
			return false
		}
	}
	return true
}

// ActivationConvergenceHeuristic reports stable iff the variance of
// avg_activation over the last K tick results is below MaxVariance.
type ActivationConvergenceHeuristic struct {
	K           int
	MaxVariance float64
}

// NewActivationConvergenceHeuristic builds one with sensible defaults.
func NewActivationConvergenceHeuristic() ActivationConvergenceHeuristic {
	return ActivationConvergenceHeuristic{K: 5, MaxVariance: 0.001}
}

func (h ActivationConvergenceHeuristic) IsStable(history []TickResult) bool {
	if len(history) < h.K {
		return false
	}
	window := history[len(history)-h.K:]

	var sum float64
	for _, t := range window {
		sum += t.AvgActivation
	}
	mean := sum / float64(len(window))

	var variance float64
	for _, t := range window {
		d := t.AvgActivation - mean
		variance += d * d
	}
	variance /= float64(len(window))

	return variance < h.MaxVariance && !math.IsNaN(variance)
}
