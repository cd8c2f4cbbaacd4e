package usecases

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/samirrijal/pizzazones/internal/core/domain"
	"github.com/samirrijal/pizzazones/internal/core/editor"
)

// SessionService keeps server-side drawing sessions for clients that send
// raw pointer clicks. Each session owns its own capture state machine.
type SessionService struct {
	zones *ZoneService

	mu       sync.Mutex
	sessions map[string]*session
}

type session struct {
	capture  *editor.Capture
	lastSeen time.Time

	// Set once the polygon is closed. The session lives on until the zone
	// is stored so a failed write can be retried.
	committed *domain.Zone
	closed    domain.DrawingSession
}

// NewSessionService creates a new SessionService.
func NewSessionService(zones *ZoneService) *SessionService {
	return &SessionService{zones: zones, sessions: make(map[string]*session)}
}

// Start opens a session for the given window and surface. When redrawID is
// set, the session redraws that stored zone and defaults are ignored.
func (s *SessionService) Start(ctx context.Context, window domain.GeoWindow, size domain.SurfaceSize, defaults domain.ZoneAttributes, redrawID string) (*domain.DrawingSession, error) {
	if err := size.Validate(); err != nil {
		return nil, err
	}
	c := editor.NewCapture(size)
	if redrawID != "" {
		z, err := s.zones.Get(ctx, redrawID)
		if err != nil {
			return nil, err
		}
		if err := c.StartRedraw(window, *z); err != nil {
			return nil, err
		}
	} else if err := c.Start(window, defaults); err != nil {
		return nil, err
	}

	sess, _ := c.Session()
	s.mu.Lock()
	s.sessions[sess.ID] = &session{capture: c, lastSeen: time.Now()}
	s.mu.Unlock()
	return &sess, nil
}

// Get returns the current state of a session.
func (s *SessionService) Get(id string) (*domain.DrawingSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.lookup(id)
	if err != nil {
		return nil, err
	}
	if sess.committed != nil {
		ds := sess.closed
		z := sess.committed.Clone()
		ds.Committed = &z
		return &ds, nil
	}
	ds, _ := sess.capture.Session()
	return &ds, nil
}

// AddVertex appends a surface-space click to the session.
func (s *SessionService) AddVertex(id string, pt domain.SurfacePoint) (domain.GeoPoint, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.lookup(id)
	if err != nil {
		return domain.GeoPoint{}, err
	}
	sess.lastSeen = time.Now()
	return sess.capture.AddVertex(pt)
}

// Commit closes the polygon and persists the zone. Validation failures
// leave the session drawing. A failed write keeps the closed zone on the
// session; committing again retries the write and ignores attrs.
func (s *SessionService) Commit(ctx context.Context, id string, attrs domain.ZoneAttributes) (*domain.Zone, error) {
	s.mu.Lock()
	sess, err := s.lookup(id)
	if err != nil {
		s.mu.Unlock()
		return nil, err
	}
	sess.lastSeen = time.Now()
	if sess.committed == nil {
		closed, _ := sess.capture.Session()
		z, err := sess.capture.Commit(attrs)
		if err != nil {
			s.mu.Unlock()
			return nil, err
		}
		sess.committed = &z
		sess.closed = closed
	}
	z := sess.committed.Clone()
	s.mu.Unlock()

	stored, err := s.zones.Upsert(ctx, z)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	if s.sessions[id] == sess {
		delete(s.sessions, id)
	}
	s.mu.Unlock()
	return stored, nil
}

// Cancel discards a session.
func (s *SessionService) Cancel(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.lookup(id)
	if err != nil {
		return err
	}
	_ = sess.capture.Cancel()
	delete(s.sessions, id)
	return nil
}

// Expire drops sessions idle since before cutoff and returns how many.
func (s *SessionService) Expire(cutoff time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for id, sess := range s.sessions {
		if sess.lastSeen.Before(cutoff) {
			delete(s.sessions, id)
			n++
		}
	}
	return n
}

// Len returns the number of open sessions.
func (s *SessionService) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

func (s *SessionService) lookup(id string) (*session, error) {
	sess, ok := s.sessions[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrSessionNotFound, id)
	}
	return sess, nil
}
