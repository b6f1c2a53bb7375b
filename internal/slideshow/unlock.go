package slideshow

import "time"

const (
	DefaultUnlockHold = 5 * time.Second
	DefaultUnlockTick = 50 * time.Millisecond
)

// UnlockGesture turns a long press into an unlock. Progress is a percentage
// in [0,100]; it snaps back to 0 on release or once the unlock fired.
type UnlockGesture struct {
	clock    Clock
	hold     time.Duration
	tick     time.Duration
	slot     timerSlot
	start    time.Time
	active   bool
	progress float64

	onUnlock   func()
	onProgress func()
}

func NewUnlockGesture(clock Clock, hold, tick time.Duration, onUnlock, onProgress func()) *UnlockGesture {
	if hold <= 0 {
		hold = DefaultUnlockHold
	}
	if tick <= 0 {
		tick = DefaultUnlockTick
	}
	if onProgress == nil {
		onProgress = func() {}
	}
	return &UnlockGesture{
		clock:      clock,
		hold:       hold,
		tick:       tick,
		slot:       timerSlot{clock: clock},
		onUnlock:   onUnlock,
		onProgress: onProgress,
	}
}

// Press starts accumulating. Pressing again while held restarts from zero.
func (g *UnlockGesture) Press() {
	g.slot.stop()
	g.start = g.clock.Now()
	g.active = true
	g.progress = 0
	g.slot.arm(g.tick, g.onTick)
}

// Release abandons the gesture without unlocking.
func (g *UnlockGesture) Release() {
	g.slot.stop()
	g.active = false
	g.progress = 0
}

func (g *UnlockGesture) Active() bool      { return g.active }
func (g *UnlockGesture) Progress() float64 { return g.progress }

func (g *UnlockGesture) onTick() {
	elapsed := g.clock.Now().Sub(g.start)
	p := float64(elapsed) / float64(g.hold) * 100
	if p >= 100 {
		g.active = false
		g.progress = 0
		g.onUnlock()
		return
	}
	g.progress = p
	g.slot.arm(g.tick, g.onTick)
	g.onProgress()
}
