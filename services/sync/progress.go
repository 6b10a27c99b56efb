package sync

import "math"

// calculateProgress maps (completedSteps, totalSteps, within-step fraction)
// to a 0-100 percentage. totalSteps == 0 reports fully complete; any
// overshoot from a fraction above 1.0 clamps to 100.
func calculateProgress(completedSteps, totalSteps int, fraction float64) int {
	if totalSteps == 0 {
		return 100
	}
	pct := 100 * (float64(completedSteps) + fraction) / float64(totalSteps)
	if pct > 100 {
		pct = 100
	}
	if pct < 0 {
		pct = 0
	}
	return int(math.Floor(pct))
}
