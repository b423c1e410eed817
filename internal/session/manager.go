package session

import (
	"context"
	"errors"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

type Status string

const (
	StatusActive Status = "active"
	StatusEnded  Status = "ended"
)

var ErrNotFound = errors.New("peer not found")

// Peer is one connection to the relay.
type Peer struct {
	ID             string
	Name           string
	Status         Status
	Messages       int
	ConnectedAt    time.Time
	LastActivityAt time.Time
}

func (p *Peer) Info() PeerInfo {
	return PeerInfo{
		ID:             p.ID,
		Name:           p.Name,
		Status:         p.Status,
		Messages:       p.Messages,
		ConnectedAt:    p.ConnectedAt,
		LastActivityAt: p.LastActivityAt,
	}
}

// Manager tracks relay peers and expires the ones that go quiet.
type Manager struct {
	mu                sync.RWMutex
	peers             map[string]*Peer
	inactivityTimeout time.Duration
	onExpire          func(*Peer)
}

func NewManager(inactivityTimeout time.Duration) *Manager {
	if inactivityTimeout <= 0 {
		inactivityTimeout = 10 * time.Minute
	}
	return &Manager{
		peers:             make(map[string]*Peer),
		inactivityTimeout: inactivityTimeout,
	}
}

func (m *Manager) SetExpireHook(hook func(*Peer)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onExpire = hook
}

// Create registers a new active peer. An empty name becomes "anonymous".
func (m *Manager) Create(name string) *Peer {
	name = strings.TrimSpace(name)
	if name == "" {
		name = "anonymous"
	}
	now := time.Now().UTC()
	p := &Peer{
		ID:             uuid.NewString(),
		Name:           name,
		Status:         StatusActive,
		ConnectedAt:    now,
		LastActivityAt: now,
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.peers[p.ID] = p
	return clone(p)
}

func (m *Manager) Get(id string) (*Peer, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.peers[id]
	if !ok {
		return nil, ErrNotFound
	}
	return clone(p), nil
}

// RecordMessage marks activity from the peer and counts the message.
func (m *Manager) RecordMessage(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.peers[id]
	if !ok {
		return ErrNotFound
	}
	p.Messages++
	p.LastActivityAt = time.Now().UTC()
	return nil
}

// End marks the peer as gone and forgets it.
func (m *Manager) End(id string) (*Peer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.peers[id]
	if !ok {
		return nil, ErrNotFound
	}
	p.Status = StatusEnded
	p.LastActivityAt = time.Now().UTC()
	delete(m.peers, id)
	return clone(p), nil
}

// Active returns the active peers ordered by connection time.
func (m *Manager) Active() []PeerInfo {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]PeerInfo, 0, len(m.peers))
	for _, p := range m.peers {
		if p.Status == StatusActive {
			out = append(out, p.Info())
		}
	}
	slices.SortFunc(out, func(a, b PeerInfo) int {
		if c := a.ConnectedAt.Compare(b.ConnectedAt); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})
	return out
}

func (m *Manager) ActiveCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	count := 0
	for _, p := range m.peers {
		if p.Status == StatusActive {
			count++
		}
	}
	return count
}

func (m *Manager) StartJanitor(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = 5 * time.Second
	}
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				m.expireInactive()
			}
		}
	}()
}

func (m *Manager) expireInactive() {
	now := time.Now().UTC()
	var expired []*Peer

	m.mu.Lock()
	for _, p := range m.peers {
		if p.Status != StatusActive {
			continue
		}
		if now.Sub(p.LastActivityAt) < m.inactivityTimeout {
			continue
		}
		p.Status = StatusEnded
		p.LastActivityAt = now
		expired = append(expired, clone(p))
	}
	hook := m.onExpire
	m.mu.Unlock()

	if hook != nil {
		for _, p := range expired {
			hook(p)
		}
	}
}

func clone(p *Peer) *Peer {
	c := *p
	return &c
}
