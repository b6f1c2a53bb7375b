package kiosk

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/GillesGroulard/familisapp/internal/realtime"
	"github.com/GillesGroulard/familisapp/internal/slideshow"
)

// memBackend is a goroutine-safe slideshow.Backend kept in memory.
type memBackend struct {
	mu        sync.Mutex
	items     []slideshow.Item
	reminders []slideshow.Reminder
	reactions map[string]slideshow.Reaction
	acked     []string
}

func newMemBackend(n int) *memBackend {
	b := &memBackend{reactions: make(map[string]slideshow.Reaction)}
	now := time.Now()
	for i := 0; i < n; i++ {
		b.items = append(b.items, slideshow.Item{
			ID:        fmt.Sprintf("item-%d", i+1),
			Kind:      slideshow.MediaImage,
			MediaURL:  fmt.Sprintf("https://cdn.example.com/%d.jpg", i+1),
			CreatedAt: now.Add(-time.Duration(i+1) * time.Hour),
		})
	}
	return b
}

func (b *memBackend) addItem(id string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.items = append([]slideshow.Item{{
		ID:        id,
		Kind:      slideshow.MediaImage,
		CreatedAt: time.Now(),
	}}, b.items...)
}

func (b *memBackend) ListItems(ctx context.Context, familyID, viewerID string) ([]slideshow.Item, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]slideshow.Item, len(b.items))
	copy(out, b.items)
	for i := range out {
		out[i].Reaction = b.reactions[out[i].ID]
	}
	return out, nil
}

func (b *memBackend) Settings(ctx context.Context, familyID string) (slideshow.Settings, error) {
	return slideshow.Settings{DisplayLimit: 20, Dwell: time.Minute}, nil
}

func (b *memBackend) ActiveReminders(ctx context.Context, familyID string, day time.Time) ([]slideshow.Reminder, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	var out []slideshow.Reminder
	for _, r := range b.reminders {
		if !r.Acknowledged {
			out = append(out, r)
		}
	}
	return out, nil
}

func (b *memBackend) AcknowledgeReminder(ctx context.Context, reminderID string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i := range b.reminders {
		if b.reminders[i].ID == reminderID {
			b.reminders[i].Acknowledged = true
		}
	}
	b.acked = append(b.acked, reminderID)
	return nil
}

func (b *memBackend) SetReaction(ctx context.Context, itemID, viewerID string, r slideshow.Reaction) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.reactions[itemID] = r
	return nil
}

func (b *memBackend) Reaction(ctx context.Context, itemID, viewerID string) (slideshow.Reaction, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.reactions[itemID], nil
}

func (b *memBackend) SetFavorite(ctx context.Context, itemID string, favorite bool) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i := range b.items {
		if b.items[i].ID == itemID {
			b.items[i].Favorite = favorite
		}
	}
	return nil
}

func startHub(t *testing.T) *realtime.Hub {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	hub := realtime.NewHub()
	go hub.Run(ctx)
	return hub
}

// waitView polls the session until cond holds for its view.
func waitView(t *testing.T, s *Session, cond func(v slideshow.View) bool) slideshow.View {
	t.Helper()
	var last slideshow.View
	require.Eventually(t, func() bool {
		v, err := s.View(context.Background())
		if err != nil {
			return false
		}
		last = v
		return cond(v)
	}, 2*time.Second, 10*time.Millisecond, "last view: %+v", last)
	return last
}

func giftShown(v slideshow.View) bool {
	return v.Status == slideshow.StatusPlaying && v.Overlay == slideshow.OverlayGift
}
