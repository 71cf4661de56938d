package domain

// DistanceAccumulator maintains the running total distance for the active
// journey. The total is monotonically non-decreasing between resets; rejected
// samples contribute nothing. Not safe for concurrent use; the owning session
// serializes access.
type DistanceAccumulator struct {
	totalMeters float64
}

// Apply folds a filter decision into the total and returns the new total.
func (a *DistanceAccumulator) Apply(d Decision) float64 {
	if d.Accepted() {
		a.totalMeters += d.DistanceMeters
	}
	return a.totalMeters
}

// Total returns the running total in meters.
func (a *DistanceAccumulator) Total() float64 {
	return a.totalMeters
}

// Reset zeroes the total. Called only on a day boundary or when a session
// ends; never while a journey is open.
func (a *DistanceAccumulator) Reset() {
	a.totalMeters = 0
}
