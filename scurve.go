/*
Package scurve computes jerk-limited ("S-curve") point-to-point motion
profiles. Given limits for jerk, acceleration and velocity, and a target
distance, package planner derives a schedule of constant-jerk phases, and
package profile integrates that schedule into acceleration, velocity and
position curves at arbitrary sample times.

This package holds what the sub-packages share: the kinematic limits of a
move and a couple of numeric helpers.

# BSD License

# Copyright (c) Norbert Pillmayer

All rights reserved.

Please refer to the license file for more information.
*/
package scurve

import (
	"errors"
	"fmt"
	"math"

	"github.com/npillmayer/schuko/tracing"
)

// tracer writes to trace with key 'scurve'
func tracer() tracing.Trace {
	return tracing.Select("scurve")
}

// === Numeric Data Type =====================================================

// Epsilon : numbers below ε are considered 0
var Epsilon float64 = 0.0000001

// Is0 is a predicate: is n = 0 ?
func Is0(n float64) bool {
	return math.Abs(n) <= Epsilon
}

// Zap makes n = 0 if n "means" to be zero
func Zap(n float64) float64 {
	if Is0(n) {
		n = 0
	}
	return n
}

// IsFinite is a predicate: is n neither NaN nor ±Inf ?
func IsFinite(n float64) bool {
	return !math.IsNaN(n) && !math.IsInf(n, 0)
}

// Linspace returns n evenly spaced values from `from` to `to`, both
// included. For n = 1 it returns [from], for n < 1 an empty slice.
func Linspace(from, to float64, n int) []float64 {
	if n < 1 {
		return []float64{}
	}
	xs := make([]float64, n)
	if n == 1 {
		xs[0] = from
		return xs
	}
	step := (to - from) / float64(n-1)
	for i := range xs {
		xs[i] = from + float64(i)*step
	}
	xs[n-1] = to
	return xs
}

// === Kinematic Limits ======================================================

// ErrInvalidLimits indicates a limit which is non-positive, NaN or infinite.
var ErrInvalidLimits = errors.New("invalid kinematic limits")

// Limits are the constraints of a symmetric, rest-to-rest point-to-point move.
// All values have to be finite and strictly positive.
type Limits struct {
	JerkMax  float64 `json:"jerk_max"`
	AccelMax float64 `json:"accel_max"`
	VelMax   float64 `json:"vel_max"`
	Distance float64 `json:"distance"`
}

// L is a quick notation for constructing limits.
func L(jerk, accel, vel, distance float64) Limits {
	return Limits{JerkMax: jerk, AccelMax: accel, VelMax: vel, Distance: distance}
}

// Validate checks every limit eagerly. The first offending limit is named
// in the error, which wraps ErrInvalidLimits.
func (l Limits) Validate() error {
	for _, lim := range []struct {
		name  string
		value float64
	}{
		{"jerk_max", l.JerkMax},
		{"accel_max", l.AccelMax},
		{"vel_max", l.VelMax},
		{"distance", l.Distance},
	} {
		if !IsFinite(lim.value) || lim.value <= 0 {
			tracer().Debugf("rejecting limit %s = %g", lim.name, lim.value)
			return fmt.Errorf("%w: %s = %g", ErrInvalidLimits, lim.name, lim.value)
		}
	}
	return nil
}

// Pretty Stringer for limits.
func (l Limits) String() string {
	return fmt.Sprintf("[j=%g, a=%g, v=%g, d=%g]", l.JerkMax, l.AccelMax, l.VelMax, l.Distance)
}
