package domain

import (
	"math"

	"fieldtrack/internal/core/geo"
)

// DecisionKind enumerates the closed set of sample filter outcomes.
type DecisionKind string

const (
	// DecisionAccept counts the candidate toward journey distance.
	DecisionAccept DecisionKind = "accept"
	// DecisionRejectLowAccuracy drops a fix with accuracy above the ceiling.
	DecisionRejectLowAccuracy DecisionKind = "reject_low_accuracy"
	// DecisionRejectImplausibleSpeed drops a fix implying an unrealistic
	// speed, an out-of-order capture time, or malformed coordinates.
	DecisionRejectImplausibleSpeed DecisionKind = "reject_implausible_speed"
	// DecisionRejectBelowMinimumMovement drops stationary jitter.
	DecisionRejectBelowMinimumMovement DecisionKind = "reject_below_minimum_movement"
)

// Decision is the outcome of evaluating one candidate position.
type Decision struct {
	Kind DecisionKind
	// DistanceMeters is the incremental distance; set only on accept.
	DistanceMeters float64
}

// Accepted reports whether the candidate was accepted.
func (d Decision) Accepted() bool {
	return d.Kind == DecisionAccept
}

// Accept builds an accepting decision carrying the incremental distance.
func Accept(distanceMeters float64) Decision {
	return Decision{Kind: DecisionAccept, DistanceMeters: distanceMeters}
}

func reject(kind DecisionKind) Decision {
	return Decision{Kind: kind}
}

// speedEpsilonSeconds guards the implied-speed division when two fixes
// carry the same capture time.
const speedEpsilonSeconds = 0.001

// Policy holds the sample filter thresholds.
type Policy struct {
	// AccuracyCeilingMeters is the worst acceptable reported accuracy.
	AccuracyCeilingMeters float64
	// MaxSpeedMPS is the highest physically plausible speed.
	MaxSpeedMPS float64
	// MinMovementMeters is the smallest displacement counted as movement.
	MinMovementMeters float64
}

// DefaultPolicy returns the representative thresholds: 50 m accuracy
// ceiling, 50 m/s (~180 km/h) speed ceiling, 2 m minimum movement.
func DefaultPolicy() Policy {
	return Policy{
		AccuracyCeilingMeters: 50,
		MaxSpeedMPS:           50,
		MinMovementMeters:     2,
	}
}

// Evaluate decides whether a candidate fix should be accepted given the last
// accepted fix. It is pure: no side effects, deterministic for a given pair
// of positions and policy.
//
// The first fix of a journey (last == nil) is always accepted with zero
// distance. Arrival events bypass the minimum-movement rule so a shop visit
// is recorded even from a standstill.
func (p Policy) Evaluate(last *Position, candidate Position, kind EventKind) Decision {
	if last == nil {
		return Accept(0)
	}

	distance := geo.HaversineMeters(
		last.Latitude, last.Longitude,
		candidate.Latitude, candidate.Longitude,
	)
	if math.IsNaN(distance) || math.IsInf(distance, 0) || distance < 0 {
		return reject(DecisionRejectImplausibleSpeed)
	}

	if candidate.AccuracyMeters > p.AccuracyCeilingMeters {
		return reject(DecisionRejectLowAccuracy)
	}

	elapsed := candidate.CapturedAt.Sub(last.CapturedAt).Seconds()
	if elapsed < 0 {
		// Backfilled or out-of-order delivery; never compare against an
		// older fix than the one already counted.
		return reject(DecisionRejectImplausibleSpeed)
	}
	speed := distance / math.Max(speedEpsilonSeconds, elapsed)
	if speed > p.MaxSpeedMPS {
		return reject(DecisionRejectImplausibleSpeed)
	}

	if distance < p.MinMovementMeters && kind != EventShopArrival {
		return reject(DecisionRejectBelowMinimumMovement)
	}

	return Accept(distance)
}
