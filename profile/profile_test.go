package profile

import (
	"errors"
	"math"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/npillmayer/schuko/tracing/gotestingadapter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// triangle is the unconstrained profile of jerk j with breakpoints at 1/4
// and 3/4 of a unit duration.
func triangle(t *testing.T, j float64) *Profile {
	t.Helper()
	p, err := New([]float64{0, 0.25, 0.75}, []float64{j, -j, j}, 1)
	require.NoError(t, err)
	return p
}

func TestNewRejectsBadSchedules(t *testing.T) {
	teardown := gotestingadapter.RedirectTracing(t)
	defer teardown()
	_, err := New(nil, nil, 1)
	assert.True(t, errors.Is(err, ErrEmptyProfile))
	for _, c := range []struct {
		name     string
		starts   []float64
		jerks    []float64
		duration float64
	}{
		{"length mismatch", []float64{0, 1}, []float64{1}, 2},
		{"late start", []float64{0.5, 1}, []float64{1, -1}, 2},
		{"not increasing", []float64{0, 1, 1}, []float64{1, -1, 1}, 2},
		{"decreasing", []float64{0, 1, 0.5}, []float64{1, -1, 1}, 2},
		{"short duration", []float64{0, 1}, []float64{1, -1}, 1},
		{"NaN breakpoint", []float64{0, math.NaN()}, []float64{1, -1}, 2},
		{"infinite jerk", []float64{0, 1}, []float64{math.Inf(1), -1}, 2},
		{"infinite duration", []float64{0, 1}, []float64{1, -1}, math.Inf(1)},
	} {
		_, err := New(c.starts, c.jerks, c.duration)
		assert.Truef(t, errors.Is(err, ErrBadSchedule), "%s: expected ErrBadSchedule, got %v", c.name, err)
	}
}

func TestBoundaryStatePropagation(t *testing.T) {
	teardown := gotestingadapter.RedirectTracing(t)
	defer teardown()
	p := triangle(t, 1)
	require.Equal(t, 3, p.Len())
	want := []Segment{
		{Start: 0, Jerk: 1},
		{Start: 0.25, Jerk: -1, Accel0: 0.25, Vel0: 1.0 / 32, Pos0: 1.0 / 384},
		{Start: 0.75, Jerk: 1, Accel0: -0.25, Vel0: 1.0 / 32},
	}
	opts := cmp.Options{
		cmpopts.EquateApprox(0, 1e-12),
		cmpopts.IgnoreFields(Segment{}, "Pos0"),
	}
	if d := cmp.Diff(want, p.Segments(), opts...); d != "" {
		t.Error(d)
	}
	assert.InDelta(t, 1.0/384, p.Segment(1).Pos0, 1e-15)
	assert.Equal(t, []float64{0, 0.25, 0.75}, p.Breakpoints())
	assert.Equal(t, []float64{1, -1, 1}, p.Jerks())
	assert.Equal(t, 1.0, p.End(2))
	t.Logf("\n%s", p)
}

func TestFromPhases(t *testing.T) {
	teardown := gotestingadapter.RedirectTracing(t)
	defer teardown()
	p, err := FromPhases([]float64{0.25, 0.5, 0.25}, []float64{1, -1, 1})
	require.NoError(t, err)
	if d := cmp.Diff(triangle(t, 1).Segments(), p.Segments()); d != "" {
		t.Error(d)
	}
	assert.Equal(t, 1.0, p.Duration())
	assert.Equal(t, 0.5, p.Length(1))
	//
	_, err = FromPhases(nil, nil)
	assert.True(t, errors.Is(err, ErrEmptyProfile))
	for _, c := range []struct {
		name    string
		lengths []float64
		jerks   []float64
	}{
		{"length mismatch", []float64{1, 1}, []float64{1}},
		{"empty phase", []float64{1, 0}, []float64{1, -1}},
		{"negative phase", []float64{1, -1}, []float64{1, -1}},
		{"NaN phase", []float64{1, math.NaN()}, []float64{1, -1}},
		{"infinite jerk", []float64{1, 1}, []float64{1, math.Inf(-1)}},
		{"vanishing phase", []float64{1e8, 1e-9}, []float64{0, 1}},
	} {
		_, err := FromPhases(c.lengths, c.jerks)
		assert.Truef(t, errors.Is(err, ErrBadSchedule), "%s: expected ErrBadSchedule, got %v", c.name, err)
	}
}

func TestShortPhasesAfterLongOnes(t *testing.T) {
	teardown := gotestingadapter.RedirectTracing(t)
	defer teardown()
	// a ramp of 1e-8 after 1e8 is wider than a rounding step of the time axis
	p, err := FromPhases([]float64{1e-8, 1e8, 1e-8}, []float64{1, 0, -1})
	require.NoError(t, err)
	assert.NotEqual(t, 1e-8, p.End(2)-p.Segment(2).Start)
	assert.Equal(t, 1e-8, p.Length(2))
	end := p.Segment(2).State().At(p.Length(2))
	assert.Equal(t, 0.0, end.Accel)
	assert.InDelta(t, 1, end.Vel, 1e-12)
	a, v := p.Peak()
	assert.Equal(t, 1e-8, a)
	assert.InDelta(t, 1, v, 1e-12)
}

func TestRestToRest(t *testing.T) {
	teardown := gotestingadapter.RedirectTracing(t)
	defer teardown()
	p := triangle(t, 2)
	start, err := p.At(0)
	require.NoError(t, err)
	assert.Equal(t, 0.0, start.Accel)
	assert.Equal(t, 0.0, start.Vel)
	end, err := p.At(p.Duration())
	require.NoError(t, err)
	assert.InDelta(t, 0, end.Accel, 1e-12)
	assert.InDelta(t, 0, end.Vel, 1e-12)
	assert.InDelta(t, 2*2*math.Pow(0.25, 3), end.Pos, 1e-12) // d = 2⋅j⋅T³
}

func TestEvaluateMembership(t *testing.T) {
	teardown := gotestingadapter.RedirectTracing(t)
	defer teardown()
	p := triangle(t, 1)
	times := []float64{-0.5, 0, 0.2499, 0.25, 0.5, 0.75, 1, 1.5}
	jerk, accel, vel, pos, err := Evaluate(p, times)
	require.NoError(t, err)
	// breakpoints belong to the segment starting there
	assert.Equal(t, []float64{1, 1, 1, -1, -1, 1, 1, 1}, jerk)
	assert.Len(t, accel, len(times))
	assert.Len(t, vel, len(times))
	assert.Len(t, pos, len(times))
	// before 0, the first segment is extrapolated backwards
	assert.InDelta(t, -0.5, accel[0], 1e-15)
	// beyond the duration, the last segment is extrapolated
	last := p.Segment(2).At(1.5)
	assert.InDelta(t, last.Accel, accel[7], 1e-15)
	assert.InDelta(t, last.Vel, vel[7], 1e-15)
	assert.InDelta(t, last.Pos, pos[7], 1e-15)
	// peak velocity is reached in the middle of the move
	assert.InDelta(t, 1.0/16, vel[4], 1e-15)
}

func TestEvaluateUnordered(t *testing.T) {
	teardown := gotestingadapter.RedirectTracing(t)
	defer teardown()
	p := triangle(t, 1)
	up := []float64{0, 0.1, 0.3, 0.6, 0.8, 1}
	down := []float64{1, 0.8, 0.6, 0.3, 0.1, 0}
	s1, err := EvaluateSeries(p, up)
	require.NoError(t, err)
	s2, err := EvaluateSeries(p, down)
	require.NoError(t, err)
	reverse := func(xs []float64) []float64 {
		r := make([]float64, len(xs))
		for i, x := range xs {
			r[len(xs)-1-i] = x
		}
		return r
	}
	if d := cmp.Diff(s1.Pos, reverse(s2.Pos)); d != "" {
		t.Error(d)
	}
	if d := cmp.Diff(s1.Vel, reverse(s2.Vel)); d != "" {
		t.Error(d)
	}
}

func TestEvaluateEmpty(t *testing.T) {
	teardown := gotestingadapter.RedirectTracing(t)
	defer teardown()
	for _, p := range []*Profile{nil, {}} {
		_, _, _, _, err := Evaluate(p, []float64{0, 1})
		assert.True(t, errors.Is(err, ErrEmptyProfile))
		_, err = p.At(0)
		assert.True(t, errors.Is(err, ErrEmptyProfile))
		_, err = Sample(p, 10)
		assert.True(t, errors.Is(err, ErrEmptyProfile))
	}
	assert.Equal(t, "<empty profile>", (&Profile{}).String())
}

func TestEvaluateNaN(t *testing.T) {
	teardown := gotestingadapter.RedirectTracing(t)
	defer teardown()
	p := triangle(t, 1)
	jerk, accel, _, _, err := Evaluate(p, []float64{math.NaN()})
	require.NoError(t, err)
	assert.Equal(t, 1.0, jerk[0])
	assert.True(t, math.IsNaN(accel[0]))
}

func TestSample(t *testing.T) {
	teardown := gotestingadapter.RedirectTracing(t)
	defer teardown()
	p := triangle(t, 1)
	s, err := Sample(p, 0)
	require.NoError(t, err)
	require.Equal(t, DefaultSamples, s.Len())
	assert.Equal(t, 0.0, s.Time[0])
	assert.Equal(t, 1.0, s.Time[DefaultSamples-1])
	assert.InDelta(t, 1.0/32, s.Pos[DefaultSamples-1], 1e-12)
	for i := 1; i < s.Len(); i++ {
		assert.GreaterOrEqual(t, s.Pos[i], s.Pos[i-1], "position must not decrease")
	}
}

func TestPeak(t *testing.T) {
	teardown := gotestingadapter.RedirectTracing(t)
	defer teardown()
	p := triangle(t, 1)
	a, v := p.Peak()
	assert.InDelta(t, 0.25, a, 1e-15)
	assert.InDelta(t, 1.0/16, v, 1e-15)
}

func TestConcurrentEvaluation(t *testing.T) {
	teardown := gotestingadapter.RedirectTracing(t)
	defer teardown()
	p := triangle(t, 3)
	want, err := Sample(p, 257)
	require.NoError(t, err)
	var wg sync.WaitGroup
	results := make([]Series, 8)
	for g := range results {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			results[g], _ = Sample(p, 257)
		}(g)
	}
	wg.Wait()
	for _, got := range results {
		if d := cmp.Diff(want, got); d != "" {
			t.Error(d)
		}
	}
}
