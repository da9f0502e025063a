package main

import (
	"context"
	"sync"
	"time"

	"github.com/fpang/photo-restorer/internal/workflow"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

const sessionCookie = "restorer_session"

// session is one browser's workflow.
type session struct {
	id       string
	ctrl     *workflow.Controller
	lastSeen time.Time // guarded by sessionStore.mu
}

// sessionStore keeps one workflow controller per browser session and closes
// the ones idle for longer than ttl.
type sessionStore struct {
	newController func() *workflow.Controller
	ttl           time.Duration
	now           func() time.Time

	mu       sync.Mutex
	sessions map[string]*session
}

func newSessionStore(newController func() *workflow.Controller, ttl time.Duration) *sessionStore {
	return &sessionStore{
		newController: newController,
		ttl:           ttl,
		now:           time.Now,
		sessions:      make(map[string]*session),
	}
}

// get returns the live session with the given id and marks it as seen.
func (s *sessionStore) get(id string) (*session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if ok {
		sess.lastSeen = s.now()
	}
	return sess, ok
}

func (s *sessionStore) create() *session {
	sess := &session{
		id:   uuid.NewString(),
		ctrl: s.newController(),
	}

	s.mu.Lock()
	sess.lastSeen = s.now()
	s.sessions[sess.id] = sess
	live := len(s.sessions)
	s.mu.Unlock()

	log.Debug().Str("session", sess.id).Int("live", live).Msg("Session created")
	return sess
}

func (s *sessionStore) len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// sweep closes sessions idle for longer than ttl and returns how many.
func (s *sessionStore) sweep() int {
	cutoff := s.now().Add(-s.ttl)

	s.mu.Lock()
	var expired []*session
	for id, sess := range s.sessions {
		if sess.lastSeen.Before(cutoff) {
			expired = append(expired, sess)
			delete(s.sessions, id)
		}
	}
	s.mu.Unlock()

	for _, sess := range expired {
		sess.ctrl.Close()
		log.Info().Str("session", sess.id).Msg("Closed idle session")
	}
	return len(expired)
}

// closeAll closes every session, cancelling in-flight calls.
func (s *sessionStore) closeAll() {
	s.mu.Lock()
	all := s.sessions
	s.sessions = make(map[string]*session)
	s.mu.Unlock()

	for _, sess := range all {
		sess.ctrl.Close()
	}
	log.Debug().Int("count", len(all)).Msg("Closed all sessions")
}

// run sweeps every interval until ctx is done, then closes all sessions.
func (s *sessionStore) run(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			s.closeAll()
			return nil
		case <-ticker.C:
			s.sweep()
		}
	}
}
