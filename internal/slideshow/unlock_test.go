package slideshow

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func newTestGesture(clock *fakeClock, unlocks *int) *UnlockGesture {
	return NewUnlockGesture(clock, 0, 0, func() { *unlocks++ }, nil)
}

func TestUnlockGesture_ReleaseBeforeHoldResets(t *testing.T) {
	clock := newFakeClock()
	unlocks := 0
	g := newTestGesture(clock, &unlocks)

	g.Press()
	clock.Advance(2500 * time.Millisecond)
	assert.InDelta(t, 50, g.Progress(), 0.001)

	g.Release()
	assert.Equal(t, 0.0, g.Progress())
	assert.False(t, g.Active())
	assert.Equal(t, 0, unlocks)

	clock.Advance(10 * time.Second)
	assert.Equal(t, 0, unlocks)
	assert.Equal(t, 0, clock.pending())
}

func TestUnlockGesture_FullHoldUnlocksOnce(t *testing.T) {
	clock := newFakeClock()
	unlocks := 0
	g := newTestGesture(clock, &unlocks)

	g.Press()
	clock.Advance(4950 * time.Millisecond)
	assert.InDelta(t, 99, g.Progress(), 0.001)
	assert.Equal(t, 0, unlocks)

	clock.Advance(50 * time.Millisecond)
	assert.Equal(t, 1, unlocks)
	assert.Equal(t, 0.0, g.Progress())
	assert.False(t, g.Active())

	clock.Advance(time.Minute)
	assert.Equal(t, 1, unlocks, "the unlock fires exactly once")
}

func TestUnlockGesture_SecondPressRestarts(t *testing.T) {
	clock := newFakeClock()
	unlocks := 0
	g := newTestGesture(clock, &unlocks)

	g.Press()
	clock.Advance(4 * time.Second)
	g.Press()
	assert.Equal(t, 1, clock.pending(), "presses never stack timers")

	clock.Advance(4 * time.Second)
	assert.Equal(t, 0, unlocks)
	assert.InDelta(t, 80, g.Progress(), 0.001)

	clock.Advance(time.Second)
	assert.Equal(t, 1, unlocks)
}
