package slideshow

import (
	"context"
	"errors"
	"testing"
	"time"
)

var t0 = time.Date(2026, 10, 17, 9, 0, 0, 0, time.UTC)

// fakeClock fires timers synchronously from Advance, in due order.
type fakeClock struct {
	now    time.Time
	timers []*fakeTimer
	seq    int
}

type fakeTimer struct {
	at      time.Time
	f       func()
	id      int
	stopped bool
	fired   bool
}

func newFakeClock() *fakeClock { return &fakeClock{now: t0} }

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) AfterFunc(d time.Duration, f func()) Timer {
	c.seq++
	t := &fakeTimer{at: c.now.Add(d), f: f, id: c.seq}
	c.timers = append(c.timers, t)
	return t
}

func (t *fakeTimer) Stop() bool {
	if t.stopped || t.fired {
		return false
	}
	t.stopped = true
	return true
}

func (c *fakeClock) Advance(d time.Duration) {
	end := c.now.Add(d)
	for {
		var next *fakeTimer
		for _, t := range c.timers {
			if t.stopped || t.fired || t.at.After(end) {
				continue
			}
			if next == nil || t.at.Before(next.at) || (t.at.Equal(next.at) && t.id < next.id) {
				next = t
			}
		}
		if next == nil {
			break
		}
		c.now = next.at
		next.fired = true
		next.f()
	}
	c.now = end
}

func (c *fakeClock) pending() int {
	n := 0
	for _, t := range c.timers {
		if !t.stopped && !t.fired {
			n++
		}
	}
	return n
}

// fakeRunner queues work until drained, so tests decide when backend
// results land.
type fakeRunner struct {
	queue []func(ctx context.Context) func()
}

func (r *fakeRunner) Go(fn func(ctx context.Context) func()) {
	r.queue = append(r.queue, fn)
}

func (r *fakeRunner) drain() {
	for len(r.queue) > 0 {
		r.runAt(0)
	}
}

func (r *fakeRunner) runAt(i int) {
	fn := r.queue[i]
	r.queue = append(r.queue[:i], r.queue[i+1:]...)
	if cont := fn(context.Background()); cont != nil {
		cont()
	}
}

type fakeBackend struct {
	items        []Item
	itemsErr     error
	settings     Settings
	settingsErr  error
	reminders    []Reminder
	remindersErr error
	ackErr       error
	reactionErr  error
	favoriteErr  error

	reactions     map[string]Reaction
	acked         []string
	listCalls     int
	reminderCalls int
}

func newFakeBackend(items ...Item) *fakeBackend {
	return &fakeBackend{
		items:     items,
		settings:  Settings{DisplayLimit: 20, Dwell: 15 * time.Second},
		reactions: make(map[string]Reaction),
	}
}

func (b *fakeBackend) ListItems(ctx context.Context, familyID, viewerID string) ([]Item, error) {
	b.listCalls++
	if b.itemsErr != nil {
		return nil, b.itemsErr
	}
	out := make([]Item, len(b.items))
	copy(out, b.items)
	for i := range out {
		out[i].Reaction = b.reactions[out[i].ID+"|"+viewerID]
	}
	return out, nil
}

func (b *fakeBackend) Settings(ctx context.Context, familyID string) (Settings, error) {
	return b.settings, b.settingsErr
}

func (b *fakeBackend) ActiveReminders(ctx context.Context, familyID string, day time.Time) ([]Reminder, error) {
	b.reminderCalls++
	if b.remindersErr != nil {
		return nil, b.remindersErr
	}
	out := make([]Reminder, len(b.reminders))
	copy(out, b.reminders)
	return out, nil
}

func (b *fakeBackend) AcknowledgeReminder(ctx context.Context, reminderID string) error {
	if b.ackErr != nil {
		return b.ackErr
	}
	for i := range b.reminders {
		r := &b.reminders[i]
		if r.ID != reminderID {
			continue
		}
		switch r.Recurrence {
		case RecurDaily:
			r.Date = r.Date.AddDate(0, 0, 1)
		case RecurWeekly:
			r.Date = r.Date.AddDate(0, 0, 7)
		case RecurMonthly:
			r.Date = r.Date.AddDate(0, 1, 0)
		default:
			r.Acknowledged = true
		}
	}
	b.acked = append(b.acked, reminderID)
	return nil
}

func (b *fakeBackend) SetReaction(ctx context.Context, itemID, viewerID string, r Reaction) error {
	if b.reactionErr != nil {
		return b.reactionErr
	}
	b.reactions[itemID+"|"+viewerID] = r
	return nil
}

func (b *fakeBackend) Reaction(ctx context.Context, itemID, viewerID string) (Reaction, error) {
	return b.reactions[itemID+"|"+viewerID], nil
}

func (b *fakeBackend) SetFavorite(ctx context.Context, itemID string, favorite bool) error {
	if b.favoriteErr != nil {
		return b.favoriteErr
	}
	for i := range b.items {
		if b.items[i].ID == itemID {
			b.items[i].Favorite = favorite
		}
	}
	return nil
}

type fakePlatform struct {
	enter, exit int
	sounds      []string
	err         error
}

func (p *fakePlatform) EnterFullscreen(ctx context.Context) error { p.enter++; return p.err }
func (p *fakePlatform) ExitFullscreen(ctx context.Context) error  { p.exit++; return p.err }
func (p *fakePlatform) PlaySound(ctx context.Context, name string) error {
	p.sounds = append(p.sounds, name)
	return p.err
}

var errBoom = errors.New("boom")

type harness struct {
	t        *testing.T
	clock    *fakeClock
	runner   *fakeRunner
	backend  *fakeBackend
	platform *fakePlatform
	ctrl     *Controller
	views    int
	exits    int
}

func newHarness(t *testing.T, b *fakeBackend) *harness {
	t.Helper()
	h := &harness{
		t:        t,
		clock:    newFakeClock(),
		runner:   &fakeRunner{},
		backend:  b,
		platform: &fakePlatform{},
	}
	h.ctrl = NewController(Params{
		FamilyID: "fam-1",
		ViewerID: "grandma",
		Backend:  b,
		Platform: h.platform,
		Runner:   h.runner,
		Clock:    h.clock,
		OnChange: func(View) { h.views++ },
		OnExit:   func() { h.exits++ },
	})
	return h
}

func (h *harness) start() {
	h.ctrl.Start()
	h.runner.drain()
}

func (h *harness) advance(d time.Duration) {
	h.clock.Advance(d)
	h.runner.drain()
}

func (h *harness) view() View { return h.ctrl.View() }

func image(id string, at time.Time) Item {
	return Item{ID: id, Kind: MediaImage, MediaURL: "https://cdn.example/" + id + ".jpg", CreatedAt: at}
}

func video(id string, at time.Time) Item {
	return Item{ID: id, Kind: MediaVideo, MediaURL: "https://cdn.example/" + id + ".mp4", CreatedAt: at}
}

func reminder(id string, day time.Time) Reminder {
	return Reminder{
		ID:          id,
		FamilyID:    "fam-1",
		Description: "Reminder " + id,
		Date:        day,
		Audience:    AudienceElder,
		Recurrence:  RecurNone,
		CreatedAt:   t0.Add(-time.Hour),
	}
}
