package profile

import (
	"github.com/npillmayer/scurve"
)

// DefaultSamples is the number of sample times used by Sample when the
// caller does not care.
const DefaultSamples = 101

// Evaluate computes jerk, acceleration, velocity and position of profile p
// for each of the given times. The output slices have the same length and
// order as times; times need not be sorted.
//
// A time t belongs to the last segment starting at or before t. Times before
// 0 use the first segment, times at or after the duration the last one, i.e.
// the motion is extrapolated, not clamped.
//
// Evaluate fails only for an empty profile.
func Evaluate(p *Profile, times []float64) (jerk, accel, vel, pos []float64, err error) {
	if p.Len() == 0 {
		tracer().Errorf("evaluating empty profile")
		return nil, nil, nil, nil, ErrEmptyProfile
	}
	jerk = make([]float64, len(times))
	accel = make([]float64, len(times))
	vel = make([]float64, len(times))
	pos = make([]float64, len(times))
	for i, t := range times {
		k := p.segments[p.locate(t)].At(t)
		jerk[i], accel[i], vel[i], pos[i] = k.Jerk, k.Accel, k.Vel, k.Pos
	}
	return
}

// Series is a sampled profile: four curves over a common time axis.
type Series struct {
	Time  []float64 `json:"time"`
	Jerk  []float64 `json:"jerk"`
	Accel []float64 `json:"acceleration"`
	Vel   []float64 `json:"velocity"`
	Pos   []float64 `json:"position"`
}

// Len returns the number of samples.
func (s Series) Len() int {
	return len(s.Time)
}

// EvaluateSeries is Evaluate, bundling times and results into a Series.
func EvaluateSeries(p *Profile, times []float64) (Series, error) {
	j, a, v, x, err := Evaluate(p, times)
	if err != nil {
		return Series{}, err
	}
	t := make([]float64, len(times))
	copy(t, times)
	return Series{Time: t, Jerk: j, Accel: a, Vel: v, Pos: x}, nil
}

// Sample evaluates p at n evenly spaced times from 0 to its duration.
// n < 1 selects DefaultSamples.
func Sample(p *Profile, n int) (Series, error) {
	if n < 1 {
		n = DefaultSamples
	}
	return EvaluateSeries(p, scurve.Linspace(0, p.Duration(), n))
}
