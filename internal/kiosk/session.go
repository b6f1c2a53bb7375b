package kiosk

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/GillesGroulard/familisapp/internal/realtime"
	"github.com/GillesGroulard/familisapp/internal/slideshow"
)

var ErrSessionEnded = errors.New("kiosk session ended")

// feedRetry is how long a session waits before subscribing again after the
// change feed failed. feedTimeout bounds a single subscribe attempt.
const (
	feedRetry   = 5 * time.Second
	feedTimeout = 5 * time.Second
)

// Session runs one family's slideshow. A single goroutine owns the
// controller: HTTP calls, timer callbacks and backend results all reach it
// through the inbox.
type Session struct {
	familyID string
	viewerID string

	ctrl  *slideshow.Controller
	hub   *realtime.Hub
	feed  *realtime.ChangeFeed
	inbox chan func()
	done  chan struct{}

	ctx    context.Context
	cancel context.CancelFunc

	sub        *realtime.Subscription
	changes    <-chan realtime.Change
	subscribed chan subscribeResult
	retry      slideshow.Timer
	exited     bool
}

type subscribeResult struct {
	sub *realtime.Subscription
	err error
}

type SessionConfig struct {
	FamilyID string
	ViewerID string
	Backend  slideshow.Backend
	Hub      *realtime.Hub
	// Feed may be nil; the session then only sees its own writes and the
	// reminder poll.
	Feed      *realtime.ChangeFeed
	HostChime bool
	Options   slideshow.Options
}

// StartSession starts the session loop. It stops when ctx is cancelled,
// when Stop is called or once the viewer unlocked the kiosk.
func StartSession(ctx context.Context, cfg SessionConfig) *Session {
	ctx, cancel := context.WithCancel(ctx)
	s := &Session{
		familyID:   cfg.FamilyID,
		viewerID:   cfg.ViewerID,
		hub:        cfg.Hub,
		feed:       cfg.Feed,
		inbox:      make(chan func(), 64),
		done:       make(chan struct{}),
		subscribed: make(chan subscribeResult),
		ctx:        ctx,
		cancel:     cancel,
	}
	var platform slideshow.Platform
	if cfg.Hub != nil {
		platform = NewDisplay(cfg.Hub, cfg.FamilyID, cfg.HostChime)
	}
	s.ctrl = slideshow.NewController(slideshow.Params{
		FamilyID: cfg.FamilyID,
		ViewerID: cfg.ViewerID,
		Backend:  cfg.Backend,
		Platform: platform,
		Runner:   loopRunner{s},
		Clock:    loopClock{s},
		Options:  cfg.Options,
		OnChange: s.broadcast,
		OnExit:   func() { s.exited = true },
	})
	go s.run()
	return s
}

func (s *Session) FamilyID() string { return s.familyID }
func (s *Session) ViewerID() string { return s.viewerID }

// Done is closed once the loop has exited and every resource is released.
func (s *Session) Done() <-chan struct{} { return s.done }

func (s *Session) ended() bool {
	select {
	case <-s.done:
		return true
	default:
		return false
	}
}

func (s *Session) Stop() {
	s.cancel()
	<-s.done
}

// Do runs fn on the session loop and returns its error.
func (s *Session) Do(ctx context.Context, fn func(c *slideshow.Controller) error) error {
	res := make(chan error, 1)
	if !s.post(func() { res <- fn(s.ctrl) }) {
		return ErrSessionEnded
	}
	select {
	case err := <-res:
		return err
	case <-s.done:
		return ErrSessionEnded
	case <-ctx.Done():
		return ctx.Err()
	}
}

// View returns the current snapshot.
func (s *Session) View(ctx context.Context) (slideshow.View, error) {
	var v slideshow.View
	err := s.Do(ctx, func(c *slideshow.Controller) error {
		v = c.View()
		return nil
	})
	return v, err
}

func (s *Session) post(fn func()) bool {
	select {
	case s.inbox <- fn:
		return true
	case <-s.done:
		return false
	case <-s.ctx.Done():
		return false
	}
}

func (s *Session) run() {
	defer close(s.done)
	defer s.cancel()
	defer s.closeFeed()
	defer s.ctrl.Close()

	s.subscribe()
	s.ctrl.Start()
	for {
		select {
		case <-s.ctx.Done():
			return
		case fn := <-s.inbox:
			fn()
		case r := <-s.subscribed:
			s.feedReady(r)
		case ch, ok := <-s.changes:
			if !ok {
				s.feedLost(errors.New("subscription closed"))
				continue
			}
			s.apply(ch)
		}
		if s.exited {
			log.Printf("slideshow-service: kiosk unlocked family=%s", s.familyID)
			return
		}
	}
}

func (s *Session) apply(ch realtime.Change) {
	switch ch.Type {
	case realtime.ItemsChanged:
		s.ctrl.ReloadItems()
	case realtime.SettingsChanged:
		s.ctrl.ReloadSettings()
	case realtime.RemindersChanged:
		s.ctrl.CheckReminders()
	}
}

// subscribe asks Redis for the change feed off the loop. The loop picks the
// result up from s.subscribed; a subscription nobody is left to receive is
// closed here.
func (s *Session) subscribe() {
	if s.feed == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(s.ctx, feedTimeout)
		defer cancel()
		sub, err := s.feed.Subscribe(ctx, s.familyID)
		select {
		case s.subscribed <- subscribeResult{sub: sub, err: err}:
		case <-s.ctx.Done():
			if sub != nil {
				_ = sub.Close()
			}
		}
	}()
}

func (s *Session) feedReady(r subscribeResult) {
	if r.err != nil {
		s.feedLost(r.err)
		return
	}
	s.sub = r.sub
	s.changes = r.sub.C()
	s.ctrl.FeedRestored()
}

func (s *Session) feedLost(err error) {
	s.closeFeed()
	s.ctrl.FeedLost(err)
	s.retry = loopClock{s}.AfterFunc(feedRetry, s.subscribe)
}

func (s *Session) closeFeed() {
	if s.retry != nil {
		s.retry.Stop()
		s.retry = nil
	}
	if s.sub != nil {
		_ = s.sub.Close()
		s.sub = nil
	}
	s.changes = nil
}

func (s *Session) broadcast(v slideshow.View) {
	if s.hub == nil {
		return
	}
	data, err := realtime.Encode(realtime.TypeView, v)
	if err != nil {
		log.Printf("slideshow-service: encode view family=%s: %v", s.familyID, err)
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := s.hub.Publish(ctx, s.familyID, data); err != nil && !errors.Is(err, realtime.ErrHubStopped) {
		log.Printf("slideshow-service: push view family=%s: %v", s.familyID, err)
	}
}

// loopClock delivers timer callbacks on the session loop.
type loopClock struct{ s *Session }

func (c loopClock) Now() time.Time { return time.Now() }

func (c loopClock) AfterFunc(d time.Duration, f func()) slideshow.Timer {
	return time.AfterFunc(d, func() { c.s.post(f) })
}

// loopRunner runs backend calls on their own goroutine and hands the
// continuation back to the loop.
type loopRunner struct{ s *Session }

func (r loopRunner) Go(fn func(ctx context.Context) func()) {
	go func() {
		if cont := fn(r.s.ctx); cont != nil {
			r.s.post(cont)
		}
	}()
}
