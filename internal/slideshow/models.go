package slideshow

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// MediaKind tells the display how to render an item.
type MediaKind string

const (
	MediaImage MediaKind = "image"
	MediaVideo MediaKind = "video"
)

// Reaction is the emoji a viewer can leave on an item from the slideshow.
// The zero value means "no reaction".
type Reaction string

const (
	ReactionLove  Reaction = "LOVE"
	ReactionSmile Reaction = "SMILE"
	ReactionHug   Reaction = "HUG"
	ReactionProud Reaction = "PROUD"
)

var ErrUnknownReaction = errors.New("unknown reaction")

// Reactions lists the reactions offered by the picker, in display order.
var Reactions = []Reaction{ReactionLove, ReactionSmile, ReactionHug, ReactionProud}

// ParseReaction accepts a reaction name case-insensitively.
func ParseReaction(s string) (Reaction, error) {
	r := Reaction(strings.ToUpper(strings.TrimSpace(s)))
	for _, known := range Reactions {
		if r == known {
			return r, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownReaction, s)
}

// Item is a shared photo or video as seen by one viewer.
type Item struct {
	ID              string    `json:"id"`
	Kind            MediaKind `json:"mediaType"`
	MediaURL        string    `json:"mediaUrl"`
	Caption         string    `json:"caption"`
	AuthorName      string    `json:"username"`
	AuthorAvatarURL string    `json:"avatarUrl"`
	CreatedAt       time.Time `json:"timestamp"`
	Favorite        bool      `json:"isFavorite"`
	Reaction        Reaction  `json:"reaction,omitempty"`
}

// Audience selects who a reminder is meant for.
type Audience string

const (
	AudienceElder  Audience = "ELDER"
	AudienceFamily Audience = "FAMILY"
)

// Recurrence controls how a reminder repeats.
type Recurrence string

const (
	RecurNone    Recurrence = "NONE"
	RecurDaily   Recurrence = "DAILY"
	RecurWeekly  Recurrence = "WEEKLY"
	RecurMonthly Recurrence = "MONTHLY"
)

// Reminder is a dated notice shown on the kiosk until acknowledged.
// Date only carries a calendar day; Time is an optional "15:04" wall clock.
type Reminder struct {
	ID            string     `json:"id"`
	FamilyID      string     `json:"familyId"`
	Description   string     `json:"description"`
	Date          time.Time  `json:"date"`
	Time          *string    `json:"time,omitempty"`
	Audience      Audience   `json:"targetAudience"`
	Recurrence    Recurrence `json:"recurrenceType"`
	RecurrenceDay *int       `json:"recurrenceDay,omitempty"`
	Acknowledged  bool       `json:"isAcknowledged"`
	CreatedAt     time.Time  `json:"createdAt"`
}

// Repeats reports whether acknowledging r moves it to a later date rather
// than closing it.
func (r Reminder) Repeats() bool {
	return r.Recurrence != "" && r.Recurrence != RecurNone
}

// Settings are the per-family slideshow knobs.
type Settings struct {
	DisplayLimit int           `json:"displayLimit"`
	Dwell        time.Duration `json:"dwell"`
}

const (
	DefaultDisplayLimit = 20
	DefaultDwell        = 15 * time.Second
)

// DefaultSettings is used until the family row has been read.
func DefaultSettings() Settings {
	return Settings{DisplayLimit: DefaultDisplayLimit, Dwell: DefaultDwell}
}

// Normalize fills unset or invalid values from defaults.
func (s Settings) Normalize(def Settings) Settings {
	if s.DisplayLimit <= 0 {
		s.DisplayLimit = def.DisplayLimit
	}
	if s.Dwell <= 0 {
		s.Dwell = def.Dwell
	}
	return s
}
