package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"

	"github.com/redis/go-redis/v9"
)

// ChangesChannel is the Redis channel every data write is announced on.
const ChangesChannel = "familisapp:changes"

// Change types.
const (
	ItemsChanged     = "items.changed"
	RemindersChanged = "reminders.changed"
	SettingsChanged  = "settings.changed"
)

// Change tells subscribers that some family data was written. It carries
// no data: subscribers re-read what they need.
type Change struct {
	Type     string `json:"type"`
	FamilyID string `json:"familyId"`
}

// ChangeFeed is a Redis pub/sub channel of Change notifications.
type ChangeFeed struct {
	rdb *redis.Client
}

func NewChangeFeed(rdb *redis.Client) *ChangeFeed {
	return &ChangeFeed{rdb: rdb}
}

func (f *ChangeFeed) Publish(ctx context.Context, ch Change) error {
	data, err := json.Marshal(ch)
	if err != nil {
		return err
	}
	return f.rdb.Publish(ctx, ChangesChannel, string(data)).Err()
}

// Subscription delivers the changes for a single family until closed.
type Subscription struct {
	sub  *redis.PubSub
	out  chan Change
	once sync.Once
	done chan struct{}
}

// Subscribe confirms the subscription with Redis before returning, so a
// dead Redis is reported here rather than as a silent feed.
func (f *ChangeFeed) Subscribe(ctx context.Context, familyID string) (*Subscription, error) {
	sub := f.rdb.Subscribe(ctx, ChangesChannel)
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return nil, fmt.Errorf("subscribe %s: %w", ChangesChannel, err)
	}
	s := &Subscription{
		sub:  sub,
		out:  make(chan Change, 16),
		done: make(chan struct{}),
	}
	go s.forward(sub.Channel(), familyID)
	return s, nil
}

func (s *Subscription) forward(msgs <-chan *redis.Message, familyID string) {
	defer close(s.out)
	for msg := range msgs {
		var ch Change
		if err := json.Unmarshal([]byte(msg.Payload), &ch); err != nil {
			log.Printf("slideshow-service: bad change payload: %v", err)
			continue
		}
		if ch.FamilyID != familyID {
			continue
		}
		select {
		case s.out <- ch:
		case <-s.done:
			return
		default:
			log.Printf("slideshow-service: change feed family=%s: subscriber busy, dropped %s", familyID, ch.Type)
		}
	}
}

// C is closed once the subscription ends.
func (s *Subscription) C() <-chan Change { return s.out }

func (s *Subscription) Close() error {
	var err error
	s.once.Do(func() {
		close(s.done)
		err = s.sub.Close()
	})
	return err
}
