package slideshow

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTimerSlot_ArmReplacesPendingTimer(t *testing.T) {
	clock := newFakeClock()
	slot := timerSlot{clock: clock}

	var fired []string
	slot.arm(time.Second, func() { fired = append(fired, "first") })
	slot.arm(2*time.Second, func() { fired = append(fired, "second") })

	assert.Equal(t, 1, clock.pending())
	clock.Advance(5 * time.Second)
	assert.Equal(t, []string{"second"}, fired)
	assert.False(t, slot.armed())
}

func TestTimerSlot_IgnoresCallbackQueuedBeforeStop(t *testing.T) {
	clock := newFakeClock()
	slot := timerSlot{clock: clock}

	fired := 0
	slot.arm(time.Second, func() { fired++ })
	stale := clock.timers[0].f

	slot.stop()
	// A real timer may already have handed its callback to the loop.
	stale()

	assert.Equal(t, 0, fired)
}

func TestTimerSlot_CallbackMayRearm(t *testing.T) {
	clock := newFakeClock()
	slot := timerSlot{clock: clock}

	ticks := 0
	var tick func()
	tick = func() {
		ticks++
		if ticks < 3 {
			slot.arm(time.Second, tick)
		}
	}
	slot.arm(time.Second, tick)
	clock.Advance(10 * time.Second)

	assert.Equal(t, 3, ticks)
	assert.Equal(t, 0, clock.pending())
}
