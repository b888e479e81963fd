// ABOUTME: Per-browser sessions keyed by the dealflow_profile cookie
// ABOUTME: Each session owns a deal store, a drag engine and form actions; idle ones are evicted
package web

import (
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/harperreed/dealflow/kanban"
	"github.com/harperreed/dealflow/store"
	"github.com/harperreed/dealflow/views"
)

const ProfileCookie = "dealflow_profile"

// Backend builds the per-profile pieces a session needs.
type Backend interface {
	NewStore(profile string) *store.Store
	NewEngine(s *store.Store) *kanban.Engine
}

type session struct {
	profile string
	store   *store.Store
	engine  *kanban.Engine
	actions *views.Actions

	mu        sync.Mutex
	lastSeen  time.Time
	signalled map[string]bool
}

// unsignalled reports notification IDs the browser has not been told about
// yet and marks them as told.
func (s *session) unsignalled() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	fresh := false
	for _, n := range s.store.Notifications() {
		if !s.signalled[n.ID] {
			s.signalled[n.ID] = true
			fresh = true
		}
	}
	return fresh
}

type sessionManager struct {
	backend Backend
	delays  views.Delays
	ttl     time.Duration
	now     func() time.Time

	mu       sync.Mutex
	sessions map[string]*session
}

func newSessionManager(backend Backend, delays views.Delays, ttl time.Duration, now func() time.Time) *sessionManager {
	return &sessionManager{
		backend:  backend,
		delays:   delays,
		ttl:      ttl,
		now:      now,
		sessions: make(map[string]*session),
	}
}

// get returns the session for profile, creating it on first use.
func (m *sessionManager) get(profile string) (*session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if sess, ok := m.sessions[profile]; ok {
		sess.mu.Lock()
		sess.lastSeen = m.now()
		sess.mu.Unlock()
		return sess, false
	}

	st := m.backend.NewStore(profile)
	sess := &session{
		profile:   profile,
		store:     st,
		engine:    m.backend.NewEngine(st),
		actions:   views.NewActions(st, m.delays),
		lastSeen:  m.now(),
		signalled: make(map[string]bool),
	}
	m.sessions[profile] = sess
	log.Printf("[web] session=%s created", profile)
	return sess, true
}

// evictIdle drops sessions not seen within the TTL. Writes still in flight
// for an evicted session land on a store nothing references.
func (m *sessionManager) evictIdle() int {
	if m.ttl <= 0 {
		return 0
	}
	cutoff := m.now().Add(-m.ttl)

	m.mu.Lock()
	defer m.mu.Unlock()
	evicted := 0
	for profile, sess := range m.sessions {
		sess.mu.Lock()
		idle := sess.lastSeen.Before(cutoff)
		sess.mu.Unlock()
		if idle {
			delete(m.sessions, profile)
			evicted++
			log.Printf("[web] session=%s evicted", profile)
		}
	}
	return evicted
}

func (m *sessionManager) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// profileFor reads the profile cookie, issuing a fresh UUID when it is
// missing or malformed.
func profileFor(w http.ResponseWriter, r *http.Request) string {
	if c, err := r.Cookie(ProfileCookie); err == nil {
		if _, err := uuid.Parse(c.Value); err == nil {
			return c.Value
		}
	}
	profile := uuid.NewString()
	http.SetCookie(w, &http.Cookie{
		Name:     ProfileCookie,
		Value:    profile,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   365 * 24 * 60 * 60,
	})
	return profile
}
