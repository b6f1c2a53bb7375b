package slideshow

import (
	"sort"
	"time"
)

// Overlay names the full-view notice currently covering the slideshow.
type Overlay string

const (
	OverlayNone      Overlay = ""
	OverlayGift      Overlay = "gift"
	OverlayReminder  Overlay = "reminder"
	OverlayReactions Overlay = "reactions"
)

// Arbiter guarantees that at most one overlay is shown. Every Show/Open
// call fails unless the arbiter is idle.
type Arbiter struct {
	active     Overlay
	gift       Item
	reminder   Reminder
	pickerItem string
}

func (a *Arbiter) Active() Overlay { return a.active }
func (a *Arbiter) Idle() bool      { return a.active == OverlayNone }

func (a *Arbiter) ShowGift(it Item) bool {
	if !a.Idle() {
		return false
	}
	a.active = OverlayGift
	a.gift = it
	return true
}

func (a *Arbiter) ShowReminder(r Reminder) bool {
	if !a.Idle() {
		return false
	}
	a.active = OverlayReminder
	a.reminder = r
	return true
}

func (a *Arbiter) OpenPicker(itemID string) bool {
	if !a.Idle() {
		return false
	}
	a.active = OverlayReactions
	a.pickerItem = itemID
	return true
}

// Clear returns to idle and reports which overlay was dismissed.
func (a *Arbiter) Clear() Overlay {
	was := a.active
	*a = Arbiter{}
	return was
}

func (a *Arbiter) Gift() (Item, bool) {
	return a.gift, a.active == OverlayGift
}

func (a *Arbiter) Reminder() (Reminder, bool) {
	return a.reminder, a.active == OverlayReminder
}

func (a *Arbiter) PickerItem() (string, bool) {
	return a.pickerItem, a.active == OverlayReactions
}

// EligibleReminders keeps the unacknowledged kiosk reminders, oldest date
// first. A one-off reminder is eligible from creation through its date. A
// repeating one only once its date has come: acknowledging it moves the date
// to the next occurrence, which hides it until then.
func EligibleReminders(rs []Reminder, now time.Time) []Reminder {
	today := civilDay(now)
	out := make([]Reminder, 0, len(rs))
	for _, r := range rs {
		if r.Acknowledged || r.Audience != AudienceElder {
			continue
		}
		d := civilDay(r.Date)
		if r.Repeats() && d > today {
			continue
		}
		if !r.Repeats() && d < today {
			continue
		}
		out = append(out, r)
	}
	sort.SliceStable(out, func(i, j int) bool {
		di, dj := civilDay(out[i].Date), civilDay(out[j].Date)
		if di != dj {
			return di < dj
		}
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// civilDay turns a timestamp into a comparable yyyymmdd in its own location.
func civilDay(t time.Time) int {
	y, m, d := t.Date()
	return y*10000 + int(m)*100 + d
}
