package planner

import (
	"errors"
	"fmt"
	"math"

	"github.com/npillmayer/schuko/tracing"

	"github.com/npillmayer/scurve"
	"github.com/npillmayer/scurve/profile"
)

// tracer writes to trace with key 'scurve.planner'
func tracer() tracing.Trace {
	return tracing.Select("scurve.planner")
}

// ErrDegenerateMove indicates limits which are valid each on its own, but
// combine to a non-physical schedule.
var ErrDegenerateMove = errors.New("degenerate move")

// Tolerance is the relative tolerance of the endpoint check: a planned
// profile has to end at rest at the target distance, and must not exceed
// its limits, within this fraction of the respective scale.
var Tolerance = 1e-6

// roundoff is the relative size below which phase lengths are treated as
// rounding noise at a shape boundary.
const roundoff = 1e-12

// timeRounding bounds the relative error of summing up phase lengths to the
// duration of a move.
const timeRounding = 4 * 0x1p-52

// === Shapes ================================================================

// Shape classifies a move by the limits it saturates.
type Shape int

// The four shapes of a rest-to-rest move, see package documentation.
const (
	Unconstrained   Shape = iota // neither acceleration nor velocity limit is reached
	VelocityLimited              // velocity limit is reached and held
	AccelLimited                 // acceleration limit is reached and held
	FullyLimited                 // both limits are reached and held
)

func (s Shape) String() string {
	switch s {
	case Unconstrained:
		return "unconstrained"
	case VelocityLimited:
		return "velocity-limited"
	case AccelLimited:
		return "acceleration-limited"
	case FullyLimited:
		return "fully-limited"
	}
	return fmt.Sprintf("Shape(%d)", int(s))
}

// Signs returns the sequence of jerk signs of a shape's phases.
func (s Shape) Signs() []int {
	switch s {
	case Unconstrained:
		return []int{+1, -1, +1}
	case VelocityLimited:
		return []int{+1, -1, 0, -1, +1}
	case AccelLimited:
		return []int{+1, 0, -1, 0, +1}
	case FullyLimited:
		return []int{+1, 0, -1, 0, -1, 0, +1}
	}
	return nil
}

// === Classification ========================================================

// Candidates are the critical times which decide the shape of a move.
type Candidates struct {
	Dt1Distance float64 // jerk ramp covering the distance, ignoring a and v
	Dt1Velocity float64 // jerk ramp reaching v
	Dt1Accel    float64 // jerk ramp reaching a
	Dt3Distance float64 // hold at a, limited by the distance
	Dt3Velocity float64 // hold at a, limited by v
}

func candidates(l scurve.Limits) Candidates {
	j, a, v, d := l.JerkMax, l.AccelMax, l.VelMax, l.Distance
	return Candidates{
		Dt1Distance: math.Cbrt(d / (2 * j)),
		Dt1Velocity: math.Sqrt(v / j),
		Dt1Accel:    a / j,
		Dt3Distance: -(3*a)/(2*j) + math.Sqrt(a*a/(j*j)+4*d/a)/2,
		Dt3Velocity: v/a - a/j,
	}
}

// Timing holds the phase lengths of a move of a given shape.
type Timing struct {
	Shape Shape
	Dt1   float64 // length of a single jerk ramp
	Dt2   float64 // cruise at the velocity limit
	Dt3   float64 // hold at the acceleration limit
}

// Classify determines the shape of a move and its phase lengths.
//
// The shape is identified by comparing the candidate times themselves,
// never a derived minimum against one of its operands. Ties resolve in the
// order distance, velocity, acceleration for the jerk ramp, and distance
// before velocity for the acceleration hold.
func Classify(l scurve.Limits) (Timing, error) {
	if err := l.Validate(); err != nil {
		return Timing{}, err
	}
	c := candidates(l)
	tm := classify(l, c)
	tracer().Debugf("%s: dt1=%g/%g/%g, dt3=%g/%g => %s", l, c.Dt1Distance, c.Dt1Velocity,
		c.Dt1Accel, c.Dt3Distance, c.Dt3Velocity, tm.Shape)
	return tm, nil
}

func classify(l scurve.Limits, c Candidates) Timing {
	j, a, v, d := l.JerkMax, l.AccelMax, l.VelMax, l.Distance
	switch {
	case c.Dt1Distance <= c.Dt1Velocity && c.Dt1Distance <= c.Dt1Accel:
		return Timing{Shape: Unconstrained, Dt1: c.Dt1Distance}
	case c.Dt1Velocity <= c.Dt1Accel:
		dt1 := c.Dt1Velocity
		return Timing{
			Shape: VelocityLimited,
			Dt1:   dt1,
			Dt2:   (d - 2*j*dt1*dt1*dt1) / v,
		}
	case c.Dt3Distance <= c.Dt3Velocity:
		return Timing{Shape: AccelLimited, Dt1: c.Dt1Accel, Dt3: c.Dt3Distance}
	}
	dt3 := c.Dt3Velocity
	dt2 := 2 * (d/2 - (3*a*a)/(2*j)*dt3 - a*dt3*dt3/2 - a*a*a/(j*j)) / v
	return Timing{Shape: FullyLimited, Dt1: c.Dt1Accel, Dt2: dt2, Dt3: dt3}
}

// Duration returns the total duration of a move.
func (tm Timing) Duration() float64 {
	switch tm.Shape {
	case Unconstrained:
		return 4 * tm.Dt1
	case VelocityLimited:
		return 4*tm.Dt1 + tm.Dt2
	case AccelLimited:
		return 4*tm.Dt1 + 2*tm.Dt3
	}
	return 4*tm.Dt1 + 2*tm.Dt3 + tm.Dt2
}

// phases returns the length of each phase of the move, in time order.
func (tm Timing) phases() []float64 {
	t1, t2, t3 := tm.Dt1, tm.Dt2, tm.Dt3
	switch tm.Shape {
	case Unconstrained:
		return []float64{t1, 2 * t1, t1}
	case VelocityLimited:
		return []float64{t1, t1, t2, t1, t1}
	case AccelLimited:
		return []float64{t1, t3, 2 * t1, t3, t1}
	}
	return []float64{t1, t3, t1, t2, t1, t3, t1}
}

// Phases returns the lengths and jerk values of the phases of a move with
// jerk limit j. Phases of zero length are left out.
func (tm Timing) Phases(j float64) (lengths, jerks []float64) {
	signs := tm.Shape.Signs()
	for i, length := range tm.phases() {
		if length == 0 {
			continue
		}
		lengths = append(lengths, length)
		jerks = append(jerks, float64(signs[i])*j)
	}
	return lengths, jerks
}

// Schedule returns breakpoints and jerk values for a move with jerk limit j.
// Phases of zero length are left out, so breakpoints strictly increase.
func (tm Timing) Schedule(j float64) (starts, jerks []float64, duration float64) {
	lengths, jerks := tm.Phases(j)
	starts = make([]float64, len(lengths))
	for i, length := range lengths {
		starts[i] = duration
		duration += length
	}
	return starts, jerks, duration
}

// check rejects timings with negative or non-finite phases, and snaps
// phases within rounding noise of 0 to 0.
func (tm Timing) check() (Timing, error) {
	if !scurve.IsFinite(tm.Dt1) || tm.Dt1 <= 0 {
		return tm, fmt.Errorf("%w: jerk ramp of length %g", ErrDegenerateMove, tm.Dt1)
	}
	if !scurve.IsFinite(tm.Dt2) || !scurve.IsFinite(tm.Dt3) {
		return tm, fmt.Errorf("%w: non-finite phase length %g/%g", ErrDegenerateMove, tm.Dt2, tm.Dt3)
	}
	noise := roundoff * (tm.Dt1 + math.Abs(tm.Dt3))
	for _, dt := range []*float64{&tm.Dt2, &tm.Dt3} {
		if *dt < -noise {
			return tm, fmt.Errorf("%w: negative phase length %g", ErrDegenerateMove, *dt)
		}
		if *dt < noise {
			*dt = 0
		}
	}
	if d := tm.Duration(); !scurve.IsFinite(d) || d <= 0 {
		return tm, fmt.Errorf("%w: duration %g", ErrDegenerateMove, d)
	}
	return tm, nil
}

// === Planning ==============================================================

// Plan computes the profile of a rest-to-rest move over distance, with
// limits jerkMax, accelMax and velMax.
func Plan(jerkMax, accelMax, velMax, distance float64) (*profile.Profile, error) {
	return PlanLimits(scurve.L(jerkMax, accelMax, velMax, distance))
}

// PlanLimits computes the profile of a rest-to-rest move. The result is a
// pure function of l.
func PlanLimits(l scurve.Limits) (*profile.Profile, error) {
	prof, _, err := PlanShape(l)
	return prof, err
}

// PlanShape computes the profile of a rest-to-rest move, together with the
// timing it has been built from.
func PlanShape(l scurve.Limits) (*profile.Profile, Timing, error) {
	tm, err := Classify(l)
	if err != nil {
		return nil, tm, err
	}
	if tm, err = tm.check(); err != nil {
		tracer().Errorf("%s: %v", l, err)
		return nil, tm, err
	}
	prof, err := profile.FromPhases(tm.Phases(l.JerkMax))
	if err != nil {
		return nil, tm, fmt.Errorf("%w: %v", ErrDegenerateMove, err)
	}
	if err = verify(prof, l); err != nil {
		tracer().Errorf("%s: %s profile failed endpoint check: %v", l, tm.Shape, err)
		return nil, tm, err
	}
	return prof, tm, nil
}

// MustPlan is a compatibility helper which panics on planning errors.
func MustPlan(jerkMax, accelMax, velMax, distance float64) *profile.Profile {
	p, err := Plan(jerkMax, accelMax, velMax, distance)
	if err != nil {
		panic(err)
	}
	return p
}

// verify checks that a planned profile ends at rest at the target distance
// and stays within the acceleration and velocity limits.
//
// The end state is evaluated at the summed duration, which is off from the
// exact sum of the phase lengths by up to one rounding step of the duration.
// The final phase runs with jerk j, so the end state is allowed to deviate
// by what j, the peak acceleration and the peak velocity make of that step.
func verify(prof *profile.Profile, l scurve.Limits) error {
	end, err := prof.At(prof.Duration())
	if err != nil {
		return fmt.Errorf("%w: %v", ErrDegenerateMove, err)
	}
	peakA, peakV := prof.Peak()
	step := timeRounding * prof.Duration()
	switch {
	case math.Abs(end.Accel) > Tolerance*peakA+l.JerkMax*step:
		return fmt.Errorf("%w: final acceleration %g", ErrDegenerateMove, end.Accel)
	case math.Abs(end.Vel) > Tolerance*peakV+peakA*step:
		return fmt.Errorf("%w: final velocity %g", ErrDegenerateMove, end.Vel)
	case math.Abs(end.Pos-l.Distance) > Tolerance*l.Distance+peakV*step:
		return fmt.Errorf("%w: final position %g, expected %g", ErrDegenerateMove, end.Pos, l.Distance)
	case peakA > l.AccelMax*(1+Tolerance):
		return fmt.Errorf("%w: acceleration %g exceeds limit %g", ErrDegenerateMove, peakA, l.AccelMax)
	case peakV > l.VelMax*(1+Tolerance):
		return fmt.Errorf("%w: velocity %g exceeds limit %g", ErrDegenerateMove, peakV, l.VelMax)
	}
	return nil
}
