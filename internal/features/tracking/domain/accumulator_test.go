package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestDistanceAccumulator_SumOfAccepted verifies the total equals the sum of
// accepted per-step distances, independent of interleaved rejects.
func TestDistanceAccumulator_SumOfAccepted(t *testing.T) {
	var acc DistanceAccumulator

	decisions := []Decision{
		Accept(0),
		Accept(50.5),
		{Kind: DecisionRejectLowAccuracy},
		Accept(49.5),
		{Kind: DecisionRejectImplausibleSpeed},
		{Kind: DecisionRejectBelowMinimumMovement},
		Accept(50),
	}

	var total float64
	for _, d := range decisions {
		total = acc.Apply(d)
	}

	assert.InDelta(t, 150.0, total, 1e-9)
	assert.Equal(t, total, acc.Total())
}

// TestDistanceAccumulator_Monotonic verifies the total never decreases while
// the journey is open.
func TestDistanceAccumulator_Monotonic(t *testing.T) {
	var acc DistanceAccumulator

	prev := 0.0
	steps := []Decision{
		Accept(10),
		{Kind: DecisionRejectImplausibleSpeed},
		Accept(0),
		Accept(2.5),
		{Kind: DecisionRejectLowAccuracy},
	}
	for _, d := range steps {
		got := acc.Apply(d)
		assert.GreaterOrEqual(t, got, prev)
		prev = got
	}
}

// TestDistanceAccumulator_Reset verifies the day-boundary reset zeroes the total.
func TestDistanceAccumulator_Reset(t *testing.T) {
	var acc DistanceAccumulator

	acc.Apply(Accept(123.4))
	acc.Reset()

	assert.Equal(t, 0.0, acc.Total())
	assert.Equal(t, 5.0, acc.Apply(Accept(5)))
}
