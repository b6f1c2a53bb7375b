package slideshow

import "time"

// autoplay advances image items after a dwell. Video items are advanced by
// the display's "ended" event, so no timer is held for them.
type autoplay struct {
	slot    timerSlot
	enabled bool
	dwell   time.Duration
	// armedFor is the item the pending timer was started for.
	armedFor string
}

func newAutoplay(clock Clock, dwell time.Duration) autoplay {
	return autoplay{
		slot:    timerSlot{clock: clock},
		enabled: true,
		dwell:   dwell,
	}
}

// sync arms or cancels the dwell timer. run says whether playback may
// proceed at all; restart forces a fresh dwell even if a timer is pending
// for the same item.
func (a *autoplay) sync(run bool, item Item, restart bool, advance func()) {
	if !run || item.Kind == MediaVideo {
		a.cancel()
		return
	}
	if !restart && a.slot.armed() && a.armedFor == item.ID {
		return
	}
	a.armedFor = item.ID
	a.slot.arm(a.dwell, func() {
		a.armedFor = ""
		advance()
	})
}

func (a *autoplay) cancel() {
	a.slot.stop()
	a.armedFor = ""
}

func (a *autoplay) pending() bool { return a.slot.armed() }
