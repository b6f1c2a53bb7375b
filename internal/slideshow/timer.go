package slideshow

import "time"

// Timer is a pending callback that can be cancelled.
type Timer interface {
	Stop() bool
}

// Clock schedules callbacks. The session wraps the real clock so that
// callbacks run on its loop instead of the timer goroutine.
type Clock interface {
	Now() time.Time
	AfterFunc(d time.Duration, f func()) Timer
}

type realClock struct{}

// RealClock is backed by the time package.
func RealClock() Clock { return realClock{} }

func (realClock) Now() time.Time { return time.Now() }

func (realClock) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// timerSlot holds at most one live timer. Arming stops the previous one,
// and a callback already queued by a stopped timer is ignored through the
// generation check.
type timerSlot struct {
	clock Clock
	timer Timer
	gen   uint64
}

func (s *timerSlot) arm(d time.Duration, f func()) {
	s.stop()
	gen := s.gen
	s.timer = s.clock.AfterFunc(d, func() {
		if s.gen != gen || s.timer == nil {
			return
		}
		s.timer = nil
		f()
	})
}

func (s *timerSlot) stop() {
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.gen++
}

func (s *timerSlot) armed() bool { return s.timer != nil }
