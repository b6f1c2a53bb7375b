package slideshow

// Status is the coarse state of the whole slideshow view.
type Status string

const (
	StatusLoading Status = "loading"
	StatusError   Status = "error"
	StatusEmpty   Status = "empty"
	StatusPlaying Status = "playing"
	StatusClosed  Status = "closed"
)

// View is the snapshot pushed to the kiosk display after every change.
type View struct {
	FamilyID string `json:"familyId"`
	Status   Status `json:"status"`
	Error    string `json:"error,omitempty"`

	Index   int   `json:"index"`
	Count   int   `json:"count"`
	Item    *Item `json:"item,omitempty"`
	DwellMs int64 `json:"dwellMs"`

	Autoplay     bool    `json:"autoplay"`
	VideoPlaying bool    `json:"videoPlaying"`
	PanZoom      PanZoom `json:"panZoom"`

	Overlay   Overlay    `json:"overlay,omitempty"`
	Gift      *Item      `json:"gift,omitempty"`
	Reminder  *Reminder  `json:"reminder,omitempty"`
	Reactions []Reaction `json:"reactions,omitempty"`
	Pending   bool       `json:"pending,omitempty"`

	Locked         bool    `json:"locked"`
	UnlockProgress float64 `json:"unlockProgress"`
}

func (c *Controller) status() Status {
	switch {
	case c.closed:
		return StatusClosed
	case c.itemsErr != nil || c.settingsErr != nil || c.feedErr != nil:
		return StatusError
	case !c.itemsLoaded:
		return StatusLoading
	case len(c.playlist) == 0:
		return StatusEmpty
	default:
		return StatusPlaying
	}
}

// View returns the current snapshot.
func (c *Controller) View() View {
	v := View{
		FamilyID:       c.familyID,
		Status:         c.status(),
		Index:          c.cursor.Index(),
		Count:          len(c.playlist),
		DwellMs:        c.auto.dwell.Milliseconds(),
		Autoplay:       c.auto.enabled,
		VideoPlaying:   c.frame.VideoPlaying(),
		PanZoom:        c.frame.PanZoom(),
		Overlay:        c.arbiter.Active(),
		Locked:         c.locked,
		UnlockProgress: c.unlock.Progress(),
	}
	if v.Status == StatusError {
		v.Error = "failed to load photos"
		return v
	}
	if item, ok := c.current(); ok {
		v.Item = &item
	}
	switch v.Overlay {
	case OverlayGift:
		gift, _ := c.arbiter.Gift()
		v.Gift = &gift
	case OverlayReminder:
		r, _ := c.arbiter.Reminder()
		v.Reminder = &r
		v.Pending = c.ackPending
	case OverlayReactions:
		v.Reactions = Reactions
		v.Pending = c.reactionPending
	}
	return v
}
