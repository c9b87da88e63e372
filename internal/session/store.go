// Package session keeps the gallery state of each visitor.
package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/mitmedialab/labracadabra-media-lab-browser/internal/gallery"
)

var ErrSessionNotFound = errors.New("session not found")

// Session is one visitor's page: the controller owning the selection and
// the view it renders into.
type Session struct {
	ID         string
	Expires    time.Time
	Controller *gallery.Controller
	View       *gallery.View

	mu          sync.Mutex
	subscribers map[chan gallery.Snapshot]struct{}
}

// Factory builds the controller of a new session around its view.
type Factory func(ctx context.Context, view *gallery.View) *gallery.Controller

func newSession(id string, expires time.Time) *Session {
	s := &Session{
		ID:          id,
		Expires:     expires,
		subscribers: make(map[chan gallery.Snapshot]struct{}),
	}
	s.View = gallery.NewView(s.publish)
	return s
}

// Subscribe returns a channel receiving the page after every transition and
// a function that ends the subscription.
func (s *Session) Subscribe() (<-chan gallery.Snapshot, func()) {
	ch := make(chan gallery.Snapshot, 1)

	s.mu.Lock()
	s.subscribers[ch] = struct{}{}
	s.mu.Unlock()

	cancel := func() {
		s.mu.Lock()
		if _, ok := s.subscribers[ch]; ok {
			delete(s.subscribers, ch)
			close(ch)
		}
		s.mu.Unlock()
	}
	return ch, cancel
}

// publish hands the snapshot to every subscriber, replacing a snapshot the
// subscriber has not read yet.
func (s *Session) publish(snap gallery.Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for ch := range s.subscribers {
		select {
		case ch <- snap:
			continue
		default:
		}
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- snap:
		default:
		}
	}
}

func (s *Session) close() {
	if s.Controller != nil {
		s.Controller.Close()
	}
	s.mu.Lock()
	for ch := range s.subscribers {
		delete(s.subscribers, ch)
		close(ch)
	}
	s.mu.Unlock()
}

type Store struct {
	ttl    time.Duration
	logger *zap.Logger
	now    func() time.Time

	mutex    sync.RWMutex
	sessions map[string]*Session
}

func NewStore(ttl time.Duration, logger *zap.Logger) *Store {
	return &Store{
		ttl:      ttl,
		logger:   logger,
		now:      time.Now,
		sessions: make(map[string]*Session),
	}
}

// Create registers a new session under id and builds its controller.
func (st *Store) Create(ctx context.Context, id string, build Factory) *Session {
	s := newSession(id, st.now().Add(st.ttl))
	s.Controller = build(ctx, s.View)

	st.mutex.Lock()
	if old, ok := st.sessions[id]; ok {
		old.close()
	}
	st.sessions[id] = s
	st.mutex.Unlock()

	st.logger.Debug("🆕 Session created", zap.String("session", id))
	return s
}

// Get returns a live session.
func (st *Store) Get(id string) (*Session, error) {
	st.mutex.RLock()
	s, ok := st.sessions[id]
	st.mutex.RUnlock()

	if !ok || st.now().After(s.Expires) {
		return nil, ErrSessionNotFound
	}
	return s, nil
}

// Len reports the number of stored sessions, expired ones included.
func (st *Store) Len() int {
	st.mutex.RLock()
	defer st.mutex.RUnlock()
	return len(st.sessions)
}

// Sweep drops expired sessions and returns how many were removed.
func (st *Store) Sweep() int {
	st.mutex.Lock()
	defer st.mutex.Unlock()

	removed := 0
	for id, s := range st.sessions {
		if st.now().After(s.Expires) {
			s.close()
			delete(st.sessions, id)
			removed++
		}
	}
	return removed
}

// Janitor sweeps expired sessions every interval until ctx is done.
func (st *Store) Janitor(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := st.Sweep(); n > 0 {
				st.logger.Info("🧹 Expired sessions removed", zap.Int("count", n))
			}
		}
	}
}

// Close shuts every session down.
func (st *Store) Close() {
	st.mutex.Lock()
	defer st.mutex.Unlock()

	for id, s := range st.sessions {
		s.close()
		delete(st.sessions, id)
	}
}
