// Package profile holds piecewise constant-jerk motion profiles and
// evaluates them at arbitrary sample times.
//
// A Profile is an ordered, contiguous sequence of segments. Each segment
// carries its constant jerk and the boundary state (acceleration, velocity,
// position) at its start time, inherited from the end of the previous
// segment. Profiles are immutable after construction and may be evaluated
// concurrently.
package profile

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/emirpasic/gods/maps/treemap"
	"github.com/emirpasic/gods/utils"
	"github.com/npillmayer/schuko/tracing"

	"github.com/npillmayer/scurve"
	"github.com/npillmayer/scurve/polyn"
)

// tracer writes to trace with key 'scurve.profile'
func tracer() tracing.Trace {
	return tracing.Select("scurve.profile")
}

var (
	// ErrEmptyProfile indicates a profile without any segments.
	ErrEmptyProfile = errors.New("profile has no segments")
	// ErrBadSchedule indicates breakpoints or jerks which do not form a valid schedule.
	ErrBadSchedule = errors.New("malformed segment schedule")
)

// Segment is one phase of constant jerk.
type Segment struct {
	Start  float64 `json:"start"`  // offset from motion start
	Jerk   float64 `json:"jerk"`   // constant jerk throughout the phase
	Accel0 float64 `json:"accel0"` // acceleration at Start
	Vel0   float64 `json:"vel0"`   // velocity at Start
	Pos0   float64 `json:"pos0"`   // position at Start
}

// State returns the kinematic state of the segment at its start time.
func (seg Segment) State() polyn.Kinematics {
	return polyn.K(seg.Jerk, seg.Accel0, seg.Vel0, seg.Pos0)
}

// At returns the kinematic state at absolute time t, extrapolating the
// segment's polynomials if t lies outside of it.
func (seg Segment) At(t float64) polyn.Kinematics {
	return seg.State().At(t - seg.Start)
}

// Profile is an immutable motion profile: segments plus overall duration.
// The zero value is an empty profile.
type Profile struct {
	segments []Segment
	lengths  []float64 // phase lengths the boundary states were propagated over
	duration float64
	index    *treemap.Map // start time → segment index, for floor lookups
}

// New creates a profile from a schedule of breakpoints and jerk values.
// starts[i] is the start time of phase i, which runs with jerk jerks[i].
// The first breakpoint must be 0, breakpoints must strictly increase and
// the duration must lie beyond the last breakpoint.
//
// Boundary states are propagated forward from rest: segment i+1 starts in
// the state segment i reaches at its own end.
func New(starts, jerks []float64, duration float64) (*Profile, error) {
	if len(starts) == 0 {
		return nil, ErrEmptyProfile
	}
	if len(starts) != len(jerks) {
		return nil, fmt.Errorf("%w: %d breakpoints, but %d jerk values", ErrBadSchedule,
			len(starts), len(jerks))
	}
	if starts[0] != 0 {
		return nil, fmt.Errorf("%w: first breakpoint at %g, expected 0", ErrBadSchedule, starts[0])
	}
	for i := range starts {
		if !scurve.IsFinite(starts[i]) || !scurve.IsFinite(jerks[i]) {
			return nil, fmt.Errorf("%w: non-finite phase %d", ErrBadSchedule, i)
		}
		if i > 0 && starts[i] <= starts[i-1] {
			return nil, fmt.Errorf("%w: breakpoint %d at %g does not follow %g", ErrBadSchedule,
				i, starts[i], starts[i-1])
		}
	}
	last := starts[len(starts)-1]
	if !scurve.IsFinite(duration) || duration <= last {
		return nil, fmt.Errorf("%w: duration %g does not exceed last breakpoint %g", ErrBadSchedule,
			duration, last)
	}
	lengths := make([]float64, len(starts))
	for i := range starts {
		lengths[i] = endOf(starts, i, duration) - starts[i]
	}
	return build(starts, lengths, jerks, duration), nil
}

// FromPhases creates a profile from a sequence of phase lengths and jerk
// values. Breakpoints are the running sums of the lengths.
//
// Different from New, boundary states are propagated over the lengths as
// given, not over differences of the summed breakpoints. Phases which are
// short compared to their start time therefore keep their exact effect on
// the state, e.g. two ramps of equal length and opposite jerk return the
// acceleration to exactly 0.
func FromPhases(lengths, jerks []float64) (*Profile, error) {
	if len(lengths) == 0 {
		return nil, ErrEmptyProfile
	}
	if len(lengths) != len(jerks) {
		return nil, fmt.Errorf("%w: %d phases, but %d jerk values", ErrBadSchedule,
			len(lengths), len(jerks))
	}
	starts := make([]float64, len(lengths))
	var t float64
	for i, length := range lengths {
		if !scurve.IsFinite(length) || !scurve.IsFinite(jerks[i]) || length <= 0 {
			return nil, fmt.Errorf("%w: phase %d of length %g with jerk %g", ErrBadSchedule,
				i, length, jerks[i])
		}
		starts[i] = t
		if t+length <= t {
			return nil, fmt.Errorf("%w: phase %d of length %g vanishes at t=%g", ErrBadSchedule,
				i, length, t)
		}
		t += length
	}
	if !scurve.IsFinite(t) {
		return nil, fmt.Errorf("%w: duration overflows", ErrBadSchedule)
	}
	return build(starts, append([]float64(nil), lengths...), jerks, t), nil
}

func endOf(starts []float64, i int, duration float64) float64 {
	if i+1 < len(starts) {
		return starts[i+1]
	}
	return duration
}

// build propagates boundary states forward from rest: segment i+1 starts in
// the state segment i reaches after lengths[i].
func build(starts, lengths, jerks []float64, duration float64) *Profile {
	p := &Profile{
		segments: make([]Segment, len(starts)),
		lengths:  lengths,
		duration: duration,
		index:    treemap.NewWith(utils.Float64Comparator),
	}
	k := polyn.K(jerks[0], 0, 0, 0) // rest-to-rest: start from rest at the origin
	for i := range starts {
		if i > 0 {
			k = k.Continue(lengths[i-1], jerks[i])
		}
		p.segments[i] = Segment{
			Start:  starts[i],
			Jerk:   k.Jerk,
			Accel0: k.Accel,
			Vel0:   k.Vel,
			Pos0:   k.Pos,
		}
		p.index.Put(starts[i], i)
	}
	tracer().Debugf("profile with %d segments, duration %g", len(p.segments), duration)
	return p
}

// Len returns the number of segments.
func (p *Profile) Len() int {
	if p == nil {
		return 0
	}
	return len(p.segments)
}

// Duration returns the total duration of the move.
func (p *Profile) Duration() float64 {
	if p == nil {
		return 0
	}
	return p.duration
}

// Segment returns segment i.
func (p *Profile) Segment(i int) Segment {
	return p.segments[i]
}

// Segments returns a copy of all segments, in time order.
func (p *Profile) Segments() []Segment {
	if p == nil {
		return nil
	}
	segs := make([]Segment, len(p.segments))
	copy(segs, p.segments)
	return segs
}

// Breakpoints returns the start times of all segments.
func (p *Profile) Breakpoints() []float64 {
	if p == nil {
		return nil
	}
	b := make([]float64, len(p.segments))
	for i, seg := range p.segments {
		b[i] = seg.Start
	}
	return b
}

// Jerks returns the jerk values of all segments.
func (p *Profile) Jerks() []float64 {
	if p == nil {
		return nil
	}
	j := make([]float64, len(p.segments))
	for i, seg := range p.segments {
		j[i] = seg.Jerk
	}
	return j
}

// End returns the end time of segment i. The last segment ends at the
// profile's duration.
func (p *Profile) End(i int) float64 {
	if i+1 < len(p.segments) {
		return p.segments[i+1].Start
	}
	return p.duration
}

// Length returns the length of phase i, as used for propagating the
// boundary state of phase i+1.
func (p *Profile) Length(i int) float64 {
	return p.lengths[i]
}

// locate finds the segment owning time t: the last segment starting at or
// before t, or segment 0 for times before the first breakpoint (and NaN).
func (p *Profile) locate(t float64) int {
	if math.IsNaN(t) || p.index == nil {
		return 0
	}
	_, i := p.index.Floor(t)
	if i == nil {
		return 0
	}
	return i.(int)
}

// At evaluates the profile at time t. Times at or beyond the duration are
// extrapolated with the final segment.
func (p *Profile) At(t float64) (polyn.Kinematics, error) {
	if p.Len() == 0 {
		return polyn.Kinematics{}, ErrEmptyProfile
	}
	return p.segments[p.locate(t)].At(t), nil
}

// Peak returns the maximum absolute acceleration and velocity reached
// within [0, duration].
func (p *Profile) Peak() (accel, vel float64) {
	for i, seg := range p.segments {
		k := seg.State()
		length := p.lengths[i]
		end := k.At(length)
		accel = math.Max(accel, math.Max(math.Abs(k.Accel), math.Abs(end.Accel)))
		vel = math.Max(vel, math.Max(math.Abs(k.Vel), math.Abs(end.Vel)))
		if k.Jerk != 0 { // velocity is extremal where acceleration crosses 0
			if x := -k.Accel / k.Jerk; x > 0 && x < length {
				vel = math.Max(vel, math.Abs(k.Eval(2, x)))
			}
		}
	}
	return
}

// Debug Stringer for a profile, one line per segment.
func (p *Profile) String() string {
	if p.Len() == 0 {
		return "<empty profile>"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "profile of %d segments, duration %.6g\n", len(p.segments), p.duration)
	for i, seg := range p.segments {
		fmt.Fprintf(&b, "  %d: t=[%.6g,%.6g) j=%+.6g a0=%.6g v0=%.6g p0=%.6g\n", i,
			seg.Start, p.End(i), seg.Jerk, scurve.Zap(seg.Accel0), scurve.Zap(seg.Vel0),
			scurve.Zap(seg.Pos0))
	}
	return b.String()
}
