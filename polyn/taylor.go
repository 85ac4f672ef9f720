// Package polyn evaluates the polynomials of motion under constant jerk.
/*
A phase of constant jerk j, starting in state (a0, v0, p0), is described by
the chain of antiderivatives

	jerk(x)     = j
	accel(x)    = j⋅x + a0
	velocity(x) = j⋅x²/2 + a0⋅x + v0
	position(x) = j⋅x³/6 + a0⋅x²/2 + v0⋅x + p0

where x is the time offset from the start of the phase. Every one of these is
a truncated Taylor polynomial in x, so a single routine serves all four
of them: Taylor(x, j, a0, v0, p0) is the position, Taylor(x, j, a0) the
acceleration, and so on.

BSD 3-Clause License

Copyright (c) 2017–21, Norbert Pillmayer.

All rights reserved.

Please refer to the license file for more information.
*/
package polyn

import (
	"bytes"
	"fmt"

	"github.com/npillmayer/schuko/tracing"
)

// T traces to the polynomials tracer.
func T() tracing.Trace {
	return tracing.Select("scurve.polyn")
}

// MaxDegree is the highest degree of a kinematic polynomial: position is
// cubic in time.
const MaxDegree = 3

// Taylor evaluates
//
//	c[0]⋅xⁿ/n! + c[1]⋅xⁿ⁻¹/(n-1)! + ... + c[n-1]⋅x + c[n]
//
// for n = len(c)-1, i.e. coefficients are given highest derivative first.
// For an empty coefficient list the result is 0.
//
// Evaluation uses a Horner scheme with the factorials folded in, which
// is exact for x = 0.
func Taylor(x float64, c ...float64) float64 {
	if len(c) == 0 {
		return 0
	}
	n := len(c) - 1
	r := c[0]
	for k := 1; k <= n; k++ {
		r = r*x/float64(n-k+1) + c[k]
	}
	return r
}

// Kinematics is the state of a constant-jerk motion at a local time origin.
type Kinematics struct {
	Jerk  float64 // constant throughout the phase
	Accel float64
	Vel   float64
	Pos   float64
}

// K is a quick notation for constructing a kinematic state.
func K(j, a, v, p float64) Kinematics {
	return Kinematics{Jerk: j, Accel: a, Vel: v, Pos: p}
}

// Degree returns the coefficients for the polynomial of degree d, 0 ≤ d ≤ 3,
// highest derivative first. Degree 0 is jerk, 3 is position.
func (k Kinematics) Degree(d int) []float64 {
	c := [MaxDegree + 1]float64{k.Jerk, k.Accel, k.Vel, k.Pos}
	if d < 0 || d > MaxDegree {
		T().Errorf("kinematic polynomial of degree %d requested", d)
		panic(fmt.Sprintf("kinematic polynomial degree %d out of range 0…%d", d, MaxDegree))
	}
	return c[:d+1]
}

// Eval evaluates the kinematic polynomial of degree d at offset x.
func (k Kinematics) Eval(d int, x float64) float64 {
	return Taylor(x, k.Degree(d)...)
}

// At returns the state reached after time x. Jerk stays constant.
func (k Kinematics) At(x float64) Kinematics {
	return Kinematics{
		Jerk:  k.Jerk,
		Accel: Taylor(x, k.Jerk, k.Accel),
		Vel:   Taylor(x, k.Jerk, k.Accel, k.Vel),
		Pos:   Taylor(x, k.Jerk, k.Accel, k.Vel, k.Pos),
	}
}

// Continue starts a new phase with jerk j from the state reached after time x.
func (k Kinematics) Continue(x float64, j float64) Kinematics {
	next := k.At(x)
	next.Jerk = j
	return next
}

// Pretty Stringer for kinematic states.
func (k Kinematics) String() string {
	var s bytes.Buffer
	s.WriteString("{ ")
	for i, part := range []struct {
		name  string
		value float64
	}{{"j", k.Jerk}, {"a", k.Accel}, {"v", k.Vel}, {"p", k.Pos}} {
		if i > 0 {
			s.WriteString(", ")
		}
		s.WriteString(fmt.Sprintf("%s=%.6g", part.name, part.value))
	}
	s.WriteString(" }")
	return s.String()
}
