// Package slideshow implements the kiosk playback state machine: playlist
// derivation, autoplay, overlay arbitration (gift, reminder, reaction
// picker), the long-press unlock and the pan/zoom frame.
//
// A Controller is not safe for concurrent use. Its owner must call every
// method, every Clock callback and every Runner continuation from a single
// goroutine.
package slideshow

import (
	"context"
	"errors"
	"log"
	"time"
)

var (
	ErrClosed        = errors.New("slideshow closed")
	ErrEmpty         = errors.New("nothing to display")
	ErrOverlayActive = errors.New("another overlay is shown")
	ErrNoOverlay     = errors.New("overlay not shown")
)

// Backend is the data source the slideshow reads from and writes to.
type Backend interface {
	ListItems(ctx context.Context, familyID, viewerID string) ([]Item, error)
	Settings(ctx context.Context, familyID string) (Settings, error)
	ActiveReminders(ctx context.Context, familyID string, day time.Time) ([]Reminder, error)
	AcknowledgeReminder(ctx context.Context, reminderID string) error
	SetReaction(ctx context.Context, itemID, viewerID string, r Reaction) error
	Reaction(ctx context.Context, itemID, viewerID string) (Reaction, error)
	SetFavorite(ctx context.Context, itemID string, favorite bool) error
}

// Platform is the kiosk display. Every call is best effort.
type Platform interface {
	EnterFullscreen(ctx context.Context) error
	ExitFullscreen(ctx context.Context) error
	PlaySound(ctx context.Context, name string) error
}

// Runner executes fn off the owner's goroutine and later runs the returned
// continuation back on it. A nil continuation is skipped.
type Runner interface {
	Go(fn func(ctx context.Context) func())
}

type Options struct {
	Defaults     Settings
	ReminderPoll time.Duration
	UnlockHold   time.Duration
	UnlockTick   time.Duration
	NewItemSound string
	// PlatformTimeout bounds a single Platform call.
	PlatformTimeout time.Duration
}

const DefaultReminderPoll = 30 * time.Second

func (o Options) withDefaults() Options {
	o.Defaults = o.Defaults.Normalize(DefaultSettings())
	if o.ReminderPoll <= 0 {
		o.ReminderPoll = DefaultReminderPoll
	}
	if o.UnlockHold <= 0 {
		o.UnlockHold = DefaultUnlockHold
	}
	if o.UnlockTick <= 0 {
		o.UnlockTick = DefaultUnlockTick
	}
	if o.NewItemSound == "" {
		o.NewItemSound = "new-photo"
	}
	if o.PlatformTimeout <= 0 {
		o.PlatformTimeout = 2 * time.Second
	}
	return o
}

type Params struct {
	FamilyID string
	ViewerID string
	Backend  Backend
	Platform Platform
	Runner   Runner
	Clock    Clock
	Options  Options
	OnChange func(View)
	// OnExit runs once the viewer unlocked the kiosk.
	OnExit func()
}

type Controller struct {
	familyID string
	viewerID string
	backend  Backend
	platform Platform
	runner   Runner
	clock    Clock
	opts     Options
	onChange func(View)
	onExit   func()

	settings    Settings
	items       []Item
	playlist    []Item
	cursor      Cursor
	itemsLoaded bool
	itemsErr    error
	settingsErr error
	feedErr     error

	itemsSeq, itemsApplied         uint64
	settingsSeq, settingsApplied   uint64
	remindersSeq, remindersApplied uint64

	processed  map[string]struct{}
	lastHeadAt time.Time
	reminders  []Reminder

	arbiter   Arbiter
	auto      autoplay
	poll      timerSlot
	unlock    *UnlockGesture
	frame     Frame
	favorites favoriteOverrides

	ackPending      bool
	reactionPending bool

	locked     bool
	fullscreen bool
	closed     bool
}

func NewController(p Params) *Controller {
	if p.Clock == nil {
		p.Clock = RealClock()
	}
	opts := p.Options.withDefaults()
	c := &Controller{
		familyID:  p.FamilyID,
		viewerID:  p.ViewerID,
		backend:   p.Backend,
		platform:  p.Platform,
		runner:    p.Runner,
		clock:     p.Clock,
		opts:      opts,
		onChange:  p.OnChange,
		onExit:    p.OnExit,
		settings:  Settings{Dwell: opts.Defaults.Dwell},
		processed: make(map[string]struct{}),
		auto:      newAutoplay(p.Clock, opts.Defaults.Dwell),
		poll:      timerSlot{clock: p.Clock},
		frame:     NewFrame(),
		locked:    true,
	}
	c.unlock = NewUnlockGesture(p.Clock, opts.UnlockHold, opts.UnlockTick, c.exitKiosk, c.emit)
	return c
}

// Start enters fullscreen, issues the first loads and starts the reminder
// poll.
func (c *Controller) Start() {
	if c.closed {
		return
	}
	c.fullscreen = true
	c.platformCall("enter fullscreen", func(ctx context.Context) error {
		return c.platform.EnterFullscreen(ctx)
	})
	c.ReloadSettings()
	c.ReloadItems()
	c.pollReminders()
	c.emit()
}

// Close releases every timer and leaves fullscreen. It is idempotent.
func (c *Controller) Close() {
	if c.closed {
		return
	}
	c.closed = true
	c.auto.cancel()
	c.poll.stop()
	c.unlock.Release()
	c.frame.videoPlaying = false
	if c.fullscreen {
		c.fullscreen = false
		c.platformCall("exit fullscreen", func(ctx context.Context) error {
			return c.platform.ExitFullscreen(ctx)
		})
	}
	c.emit()
}

func (c *Controller) Closed() bool { return c.closed }

// ReloadItems fetches the item list again, typically after a change
// notification.
func (c *Controller) ReloadItems() {
	if c.closed {
		return
	}
	c.itemsSeq++
	seq := c.itemsSeq
	familyID, viewerID := c.familyID, c.viewerID
	c.runner.Go(func(ctx context.Context) func() {
		items, err := c.backend.ListItems(ctx, familyID, viewerID)
		return func() { c.applyItems(seq, items, err) }
	})
}

func (c *Controller) ReloadSettings() {
	if c.closed {
		return
	}
	c.settingsSeq++
	seq := c.settingsSeq
	familyID := c.familyID
	c.runner.Go(func(ctx context.Context) func() {
		s, err := c.backend.Settings(ctx, familyID)
		return func() { c.applySettings(seq, s, err) }
	})
}

// CheckReminders fetches active reminders unless an overlay is shown.
func (c *Controller) CheckReminders() {
	if c.closed || !c.arbiter.Idle() {
		return
	}
	c.remindersSeq++
	seq := c.remindersSeq
	familyID := c.familyID
	day := c.clock.Now()
	c.runner.Go(func(ctx context.Context) func() {
		rs, err := c.backend.ActiveReminders(ctx, familyID, day)
		return func() { c.applyReminders(seq, rs, err) }
	})
}

// FeedLost puts the view in the error state while change notifications are
// unavailable.
func (c *Controller) FeedLost(err error) {
	if c.closed {
		return
	}
	log.Printf("slideshow-service: change feed family=%s: %v", c.familyID, err)
	c.feedErr = err
	c.syncAutoplay(false)
	c.emit()
}

// FeedRestored clears a FeedLost error. Everything is reloaded since
// changes may have been missed meanwhile.
func (c *Controller) FeedRestored() {
	if c.closed || c.feedErr == nil {
		return
	}
	c.feedErr = nil
	c.ReloadSettings()
	c.ReloadItems()
	c.CheckReminders()
	c.emit()
}

func (c *Controller) pollReminders() {
	c.poll.arm(c.opts.ReminderPoll, c.pollReminders)
	c.CheckReminders()
}

func (c *Controller) applyItems(seq uint64, items []Item, err error) {
	if c.closed || seq <= c.itemsApplied {
		return
	}
	c.itemsApplied = seq
	if err != nil {
		log.Printf("slideshow-service: load items family=%s: %v", c.familyID, err)
		c.itemsErr = err
		c.syncAutoplay(false)
		c.emit()
		return
	}
	c.itemsErr = nil
	c.itemsLoaded = true
	c.items = append([]Item(nil), items...)
	c.favorites.reconcile(items, seq)
	c.rebuild()
	if !c.checkGift() {
		c.showNextReminder()
	}
	c.syncAutoplay(false)
	c.emit()
}

func (c *Controller) applySettings(seq uint64, s Settings, err error) {
	if c.closed || seq <= c.settingsApplied {
		return
	}
	c.settingsApplied = seq
	if err != nil {
		log.Printf("slideshow-service: load settings family=%s: %v", c.familyID, err)
		c.settingsErr = err
		c.syncAutoplay(false)
		c.emit()
		return
	}
	c.settingsErr = nil
	s = s.Normalize(c.opts.Defaults)
	dwellChanged := s.Dwell != c.auto.dwell
	c.settings = s
	c.auto.dwell = s.Dwell
	c.rebuild()
	if !c.checkGift() {
		c.showNextReminder()
	}
	c.syncAutoplay(dwellChanged)
	c.emit()
}

func (c *Controller) applyReminders(seq uint64, rs []Reminder, err error) {
	if c.closed || seq <= c.remindersApplied {
		return
	}
	c.remindersApplied = seq
	if err != nil {
		// The next poll retries.
		log.Printf("slideshow-service: load reminders family=%s: %v", c.familyID, err)
		return
	}
	c.reminders = EligibleReminders(rs, c.clock.Now())
	if c.showNextReminder() {
		c.syncAutoplay(false)
		c.emit()
	}
}

// rebuild derives the playlist from the loaded items and local overrides.
func (c *Controller) rebuild() {
	prev, hadPrev := c.current()
	c.playlist = BuildPlaylist(c.favorites.apply(c.items), c.settings.DisplayLimit)
	c.cursor.Resize(len(c.playlist))
	if cur, ok := c.current(); ok && (!hadPrev || cur.ID != prev.ID) {
		c.frame.Reset()
	}
}

func (c *Controller) current() (Item, bool) {
	if !c.cursor.Valid() {
		return Item{}, false
	}
	return c.playlist[c.cursor.Index()], true
}

// checkGift announces the newest item once per session. A qualifying item
// found while another overlay is shown is picked up on the next idle
// transition.
func (c *Controller) checkGift() bool {
	if c.status() != StatusPlaying || !c.arbiter.Idle() {
		return false
	}
	head := c.playlist[0]
	if _, seen := c.processed[head.ID]; seen {
		return false
	}
	if head.CreatedAt.Equal(c.lastHeadAt) {
		return false
	}
	c.processed[head.ID] = struct{}{}
	c.lastHeadAt = head.CreatedAt
	c.arbiter.ShowGift(head)
	if c.cursor.Index() != 0 {
		c.cursor.Reset()
		c.frame.Reset()
		c.fetchReaction()
	}
	sound := c.opts.NewItemSound
	c.platformCall("play sound", func(ctx context.Context) error {
		return c.platform.PlaySound(ctx, sound)
	})
	return true
}

func (c *Controller) showNextReminder() bool {
	st := c.status()
	if (st != StatusPlaying && st != StatusEmpty) || !c.arbiter.Idle() || len(c.reminders) == 0 {
		return false
	}
	return c.arbiter.ShowReminder(c.reminders[0])
}

// toIdle runs after an overlay was dismissed: autoplay is re-enabled, then
// a pending gift wins over the next cached reminder.
func (c *Controller) toIdle(was Overlay) {
	c.auto.enabled = true
	if !c.checkGift() {
		c.showNextReminder()
	}
	if was == OverlayGift || was == OverlayReactions {
		c.CheckReminders()
	}
	c.syncAutoplay(true)
}

func (c *Controller) syncAutoplay(restart bool) {
	item, ok := c.current()
	run := ok && !c.closed && c.status() == StatusPlaying && c.auto.enabled && c.arbiter.Idle()
	c.frame.videoPlaying = run && item.Kind == MediaVideo
	c.auto.sync(run, item, restart, c.advanceFromTimer)
}

func (c *Controller) advanceFromTimer() {
	c.cursor.Next()
	c.cursorMoved()
	c.emit()
}

func (c *Controller) cursorMoved() {
	c.frame.Reset()
	c.fetchReaction()
	c.syncAutoplay(true)
}

// fetchReaction refreshes the viewer's reaction on the current item.
func (c *Controller) fetchReaction() {
	item, ok := c.current()
	if !ok || c.closed {
		return
	}
	itemID, viewerID := item.ID, c.viewerID
	c.runner.Go(func(ctx context.Context) func() {
		r, err := c.backend.Reaction(ctx, itemID, viewerID)
		return func() {
			if c.closed {
				return
			}
			if err != nil {
				log.Printf("slideshow-service: get reaction item=%s: %v", itemID, err)
				return
			}
			if c.setItemReaction(itemID, r) {
				c.emit()
			}
		}
	})
}

func (c *Controller) setItemReaction(itemID string, r Reaction) bool {
	changed := false
	for i := range c.items {
		if c.items[i].ID == itemID && c.items[i].Reaction != r {
			c.items[i].Reaction = r
			changed = true
		}
	}
	if changed {
		c.rebuild()
	}
	return changed
}

// Next and Previous are manual navigation: they wrap and turn autoplay off
// until an overlay is dismissed or a new item arrives.
func (c *Controller) Next() error     { return c.navigate(c.cursor.Next) }
func (c *Controller) Previous() error { return c.navigate(c.cursor.Prev) }

func (c *Controller) navigate(move func()) error {
	if c.closed {
		return ErrClosed
	}
	if c.status() != StatusPlaying {
		return ErrEmpty
	}
	move()
	c.auto.enabled = false
	c.cursorMoved()
	c.emit()
	return nil
}

// VideoEnded advances past a finished video. Events for anything but the
// current, unobstructed video are ignored.
func (c *Controller) VideoEnded(itemID string) error {
	if c.closed {
		return ErrClosed
	}
	item, ok := c.current()
	if !ok || item.ID != itemID || item.Kind != MediaVideo || !c.arbiter.Idle() {
		return nil
	}
	c.cursor.Next()
	c.auto.enabled = true
	c.cursorMoved()
	c.emit()
	return nil
}

// OpenGift acknowledges the new-item announcement and restarts from the
// newest item.
func (c *Controller) OpenGift() error {
	if c.closed {
		return ErrClosed
	}
	if _, ok := c.arbiter.Gift(); !ok {
		return ErrNoOverlay
	}
	c.arbiter.Clear()
	c.cursor.Reset()
	c.frame.Reset()
	c.fetchReaction()
	c.toIdle(OverlayGift)
	c.emit()
	return nil
}

// AcknowledgeReminder persists the acknowledgment; the overlay only goes
// away once the backend confirmed it.
func (c *Controller) AcknowledgeReminder() error {
	if c.closed {
		return ErrClosed
	}
	r, ok := c.arbiter.Reminder()
	if !ok {
		return ErrNoOverlay
	}
	if c.ackPending {
		return nil
	}
	c.ackPending = true
	reminderID := r.ID
	c.runner.Go(func(ctx context.Context) func() {
		err := c.backend.AcknowledgeReminder(ctx, reminderID)
		return func() { c.applyAck(reminderID, err) }
	})
	c.emit()
	return nil
}

func (c *Controller) applyAck(reminderID string, err error) {
	c.ackPending = false
	if c.closed {
		return
	}
	if err != nil {
		log.Printf("slideshow-service: acknowledge reminder=%s: %v", reminderID, err)
		c.emit()
		return
	}
	kept := c.reminders[:0]
	for _, r := range c.reminders {
		if r.ID != reminderID {
			kept = append(kept, r)
		}
	}
	c.reminders = kept
	if cur, ok := c.arbiter.Reminder(); ok && cur.ID == reminderID {
		c.arbiter.Clear()
		c.toIdle(OverlayReminder)
	}
	c.emit()
}

func (c *Controller) OpenReactions() error {
	if c.closed {
		return ErrClosed
	}
	item, ok := c.current()
	if !ok || c.status() != StatusPlaying {
		return ErrEmpty
	}
	if !c.arbiter.OpenPicker(item.ID) {
		return ErrOverlayActive
	}
	c.syncAutoplay(false)
	c.emit()
	return nil
}

func (c *Controller) CloseReactions() error {
	if c.closed {
		return ErrClosed
	}
	if _, ok := c.arbiter.PickerItem(); !ok {
		return ErrNoOverlay
	}
	c.arbiter.Clear()
	c.toIdle(OverlayReactions)
	c.emit()
	return nil
}

// React stores the viewer's reaction for the item under the picker,
// replacing any earlier one. The picker stays open until the write is
// confirmed.
func (c *Controller) React(r Reaction) error {
	if c.closed {
		return ErrClosed
	}
	if _, err := ParseReaction(string(r)); err != nil {
		return err
	}
	itemID, ok := c.arbiter.PickerItem()
	if !ok {
		return ErrNoOverlay
	}
	if c.reactionPending {
		return nil
	}
	c.reactionPending = true
	viewerID := c.viewerID
	c.runner.Go(func(ctx context.Context) func() {
		err := c.backend.SetReaction(ctx, itemID, viewerID, r)
		return func() { c.applyReaction(itemID, r, err) }
	})
	c.emit()
	return nil
}

func (c *Controller) applyReaction(itemID string, r Reaction, err error) {
	c.reactionPending = false
	if c.closed {
		return
	}
	if err != nil {
		log.Printf("slideshow-service: set reaction item=%s: %v", itemID, err)
		c.emit()
		return
	}
	c.setItemReaction(itemID, r)
	if id, ok := c.arbiter.PickerItem(); ok && id == itemID {
		c.arbiter.Clear()
		c.toIdle(OverlayReactions)
	}
	c.emit()
}

// ToggleFavorite flips the current item's favorite flag optimistically and
// rolls it back if the write fails.
func (c *Controller) ToggleFavorite() error {
	if c.closed {
		return ErrClosed
	}
	item, ok := c.current()
	if !ok || c.status() != StatusPlaying {
		return ErrEmpty
	}
	want := !item.Favorite
	token := c.favorites.set(item.ID, want)
	c.rebuild()
	itemID := item.ID
	c.runner.Go(func(ctx context.Context) func() {
		err := c.backend.SetFavorite(ctx, itemID, want)
		return func() { c.applyFavorite(itemID, token, err) }
	})
	c.emit()
	return nil
}

func (c *Controller) applyFavorite(itemID string, token uint64, err error) {
	if c.closed {
		return
	}
	if err != nil {
		log.Printf("slideshow-service: toggle favorite item=%s: %v", itemID, err)
		if c.favorites.rollback(itemID, token) {
			c.rebuild()
			c.emit()
		}
		return
	}
	c.ReloadItems()
	c.favorites.confirm(itemID, token, c.itemsSeq)
}

func (c *Controller) PressUnlock() error {
	if c.closed {
		return ErrClosed
	}
	c.unlock.Press()
	c.emit()
	return nil
}

func (c *Controller) ReleaseUnlock() error {
	if c.closed {
		return ErrClosed
	}
	c.unlock.Release()
	c.emit()
	return nil
}

func (c *Controller) exitKiosk() {
	if c.closed {
		return
	}
	c.locked = false
	if c.fullscreen {
		c.fullscreen = false
		c.platformCall("exit fullscreen", func(ctx context.Context) error {
			return c.platform.ExitFullscreen(ctx)
		})
	}
	c.emit()
	if c.onExit != nil {
		c.onExit()
	}
}

// Layout records the display geometry for pan clamping.
func (c *Controller) Layout(container, media Size) error {
	if c.closed {
		return ErrClosed
	}
	c.frame.SetLayout(container, media)
	c.emit()
	return nil
}

func (c *Controller) Zoom(z float64) error {
	if err := c.requireImage(); err != nil {
		return err
	}
	c.frame.SetZoom(z)
	c.emit()
	return nil
}

func (c *Controller) DragStart(x, y float64) error {
	if err := c.requireImage(); err != nil {
		return err
	}
	c.frame.BeginDrag(x, y)
	return nil
}

func (c *Controller) DragMove(x, y float64) error {
	if err := c.requireImage(); err != nil {
		return err
	}
	c.frame.DragTo(x, y)
	c.emit()
	return nil
}

func (c *Controller) DragEnd() error {
	if c.closed {
		return ErrClosed
	}
	c.frame.EndDrag()
	return nil
}

// requireImage gates pan and zoom, which only apply to a displayed image.
func (c *Controller) requireImage() error {
	if c.closed {
		return ErrClosed
	}
	if item, ok := c.current(); !ok || item.Kind != MediaImage {
		return ErrEmpty
	}
	return nil
}

func (c *Controller) platformCall(what string, fn func(ctx context.Context) error) {
	if c.platform == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), c.opts.PlatformTimeout)
	defer cancel()
	if err := fn(ctx); err != nil {
		log.Printf("slideshow-service: warning: %s family=%s: %v", what, c.familyID, err)
	}
}

func (c *Controller) emit() {
	if c.onChange != nil {
		c.onChange(c.View())
	}
}
