package kiosk

import (
	"context"
	"errors"
	"log"
	"sync"

	"github.com/GillesGroulard/familisapp/internal/realtime"
	"github.com/GillesGroulard/familisapp/internal/slideshow"
)

var (
	ErrNoSession   = errors.New("no kiosk session")
	ErrViewerInUse = errors.New("kiosk already running for another viewer")
)

// Manager keeps at most one running Session per family.
type Manager struct {
	ctx       context.Context
	backend   slideshow.Backend
	hub       *realtime.Hub
	feed      *realtime.ChangeFeed
	hostChime bool
	opts      slideshow.Options

	mu       sync.Mutex
	sessions map[string]*Session
}

type ManagerConfig struct {
	Backend   slideshow.Backend
	Hub       *realtime.Hub
	Feed      *realtime.ChangeFeed
	HostChime bool
	Options   slideshow.Options
}

// NewManager ties every session to ctx: cancelling it stops them all.
func NewManager(ctx context.Context, cfg ManagerConfig) *Manager {
	return &Manager{
		ctx:       ctx,
		backend:   cfg.Backend,
		hub:       cfg.Hub,
		feed:      cfg.Feed,
		hostChime: cfg.HostChime,
		opts:      cfg.Options,
		sessions:  make(map[string]*Session),
	}
}

// Start returns the family's running session, starting one if needed.
// created reports whether a new session was started.
func (m *Manager) Start(familyID, viewerID string) (s *Session, created bool, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if cur, ok := m.sessions[familyID]; ok && !cur.ended() {
		if cur.viewerID != viewerID {
			return nil, false, ErrViewerInUse
		}
		return cur, false, nil
	}
	s = StartSession(m.ctx, SessionConfig{
		FamilyID:  familyID,
		ViewerID:  viewerID,
		Backend:   m.backend,
		Hub:       m.hub,
		Feed:      m.feed,
		HostChime: m.hostChime,
		Options:   m.opts,
	})
	m.sessions[familyID] = s
	log.Printf("slideshow-service: kiosk started family=%s viewer=%s", familyID, viewerID)

	go func() {
		<-s.Done()
		m.mu.Lock()
		if m.sessions[familyID] == s {
			delete(m.sessions, familyID)
		}
		m.mu.Unlock()
	}()
	return s, true, nil
}

func (m *Manager) Get(familyID string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[familyID]
	if !ok {
		return nil, ErrNoSession
	}
	return s, nil
}

func (m *Manager) Stop(familyID string) error {
	s, err := m.Get(familyID)
	if err != nil {
		return err
	}
	s.Stop()
	log.Printf("slideshow-service: kiosk stopped family=%s", familyID)
	return nil
}

// StopAll stops every session and waits for them to release their
// resources.
func (m *Manager) StopAll() {
	m.mu.Lock()
	sessions := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		sessions = append(sessions, s)
	}
	m.mu.Unlock()

	for _, s := range sessions {
		s.Stop()
	}
}
