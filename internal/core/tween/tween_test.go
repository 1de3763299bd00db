package tween

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ocfkit/ocf/internal/core/value"
)

func TestParseStyle(t *testing.T) {
	for name, want := range map[string]Style{
		"linear":    Linear,
		"EaseIn":    EaseIn,
		"easeOut":   EaseOut,
		"EASEINOUT": EaseInOut,
		"":          None,
	} {
		got, err := ParseStyle(name)
		require.NoError(t, err, name)
		assert.Equal(t, want, got, name)
	}

	got, err := ParseStyle("bounce")
	assert.ErrorIs(t, err, ErrUnknownStyle)
	assert.Equal(t, None, got)
}

func TestCurveEndpoints(t *testing.T) {
	for _, s := range []Style{Linear, EaseIn, EaseOut, EaseInOut} {
		assert.Equal(t, 0.0, s.Eval(0), s.String())
		assert.Equal(t, 1.0, s.Eval(1), s.String())
		assert.InDelta(t, 0.5, s.Eval(0.5), 0.26, s.String())
	}
	assert.Less(t, EaseIn.Eval(0.25), Linear.Eval(0.25))
	assert.Greater(t, EaseOut.Eval(0.25), Linear.Eval(0.25))
	assert.InDelta(t, 0.5, EaseInOut.Eval(0.5), 1e-9)
}

func TestLinearFloatTween(t *testing.T) {
	var got value.Value
	task := NewValueTask("cube", value.Float(0), value.Float(10), 2*time.Second, Linear, func(v value.Value) { got = v })

	assert.Equal(t, InProgress, task.Advance(time.Second))
	assert.InDelta(t, 5.0, got.Float(), 1e-9)

	assert.Equal(t, Done, task.Advance(1500*time.Millisecond))
	assert.Equal(t, 10.0, got.Float())
}

func TestNonInterpolableSnaps(t *testing.T) {
	var got value.Value
	task := NewValueTask("cube", value.String("a"), value.String("b"), time.Second, Linear, func(v value.Value) { got = v })
	assert.Equal(t, Done, task.Advance(10*time.Millisecond))
	assert.Equal(t, "b", got.Text())
}

func TestVectorTweenHitsExactEnd(t *testing.T) {
	var writes int
	var got value.Value
	task := NewValueTask("cube", value.Vector3(0, 0, 0), value.Vector3(1, 2, 3), 100*time.Millisecond, EaseInOut, func(v value.Value) {
		writes++
		got = v
	})

	s := NewScheduler()
	s.Start(task)
	for i := 0; i < 20 && s.Len() > 0; i++ {
		s.Advance(16 * time.Millisecond)
	}
	assert.Equal(t, 0, s.Len())
	assert.Equal(t, 7, writes)
	assert.Equal(t, value.Vec3{X: 1, Y: 2, Z: 3}, got.Vec3())
}

func TestWaitFiresOnce(t *testing.T) {
	fired := 0
	s := NewScheduler()
	s.Start(NewWait("cube", 50*time.Millisecond, func() { fired++ }))

	s.Advance(30 * time.Millisecond)
	assert.Equal(t, 0, fired)
	s.Advance(30 * time.Millisecond)
	assert.Equal(t, 1, fired)
	s.Advance(30 * time.Millisecond)
	assert.Equal(t, 1, fired)
}

func TestCancelByOwner(t *testing.T) {
	s := NewScheduler()
	writes := map[string]int{}
	for _, owner := range []string{"a", "b", "a"} {
		owner := owner
		s.Start(NewValueTask(owner, value.Float(0), value.Float(1), time.Second, Linear, func(value.Value) { writes[owner]++ }))
	}

	s.Cancel("a")
	assert.Equal(t, 1, s.Len())
	s.Advance(10 * time.Millisecond)
	assert.Equal(t, 0, writes["a"])
	assert.Equal(t, 1, writes["b"])
}

func TestCancelDuringAdvance(t *testing.T) {
	s := NewScheduler()
	second := 0
	s.Start(NewValueTask("a", value.Float(0), value.Float(1), time.Second, Linear, func(value.Value) { s.Cancel("a") }))
	s.Start(NewValueTask("a", value.Float(0), value.Float(1), time.Second, Linear, func(value.Value) { second++ }))

	s.Advance(10 * time.Millisecond)
	assert.Equal(t, 0, second)
	assert.Equal(t, 0, s.Len())
}
