// Package session keeps uploaded datasets and the user's choices in memory
// between API calls.
package session

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/vedanthq/SLMGen/internal/models"
)

// Defaults for the session store.
const (
	DefaultTTL              = 30 * time.Minute
	DefaultMaxSessions      = 25
	DefaultDownloadTokenTTL = 60 * time.Minute
)

var (
	// ErrSessionNotFound is returned for unknown, expired or foreign sessions.
	ErrSessionNotFound = errors.New("session not found, expired, or access denied")
	// ErrInvalidToken is returned when a download token does not match.
	ErrInvalidToken = errors.New("invalid or expired download token")
)

// Session is one user's upload and the selections made for it.
type Session struct {
	ID        string    `json:"id"`
	Owner     string    `json:"owner,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`

	FilePath         string `json:"file_path,omitempty"`
	OriginalFilename string `json:"original_filename,omitempty"`

	Records         []models.Conversation          `json:"-"`
	Raw             []byte                         `json:"-"`
	Stats           *models.DatasetStats           `json:"stats,omitempty"`
	Characteristics *models.DatasetCharacteristics `json:"characteristics,omitempty"`

	Task            models.TaskType         `json:"task,omitempty"`
	Deployment      models.DeploymentTarget `json:"deployment,omitempty"`
	SelectedModelID string                  `json:"selected_model_id,omitempty"`
	NotebookPath    string                  `json:"notebook_path,omitempty"`

	downloadToken  string
	tokenExpiresAt time.Time
}

// Reason says why a session left the store.
type Reason string

const (
	ReasonExpired Reason = "expired"
	ReasonEvicted Reason = "evicted"
	ReasonDeleted Reason = "deleted"
)

// Config configures a Store. Zero values take the defaults.
type Config struct {
	TTL              time.Duration
	MaxSessions      int
	DownloadTokenTTL time.Duration
	// Clock returns the current time.
	Clock func() time.Time
	// OnEvict is called, outside the store lock, for every session that
	// leaves the store.
	OnEvict func(Session, Reason)
	// Events receives lifecycle events.
	Events EventSink
}

// Store is a bounded, expiring, goroutine-safe session map. Expired sessions
// are purged on every access and the oldest session is evicted when full.
type Store struct {
	mu       sync.Mutex
	cfg      Config
	sessions map[string]*Session
}

// NewStore creates a store from cfg.
func NewStore(cfg Config) *Store {
	if cfg.TTL <= 0 {
		cfg.TTL = DefaultTTL
	}
	if cfg.MaxSessions <= 0 {
		cfg.MaxSessions = DefaultMaxSessions
	}
	if cfg.DownloadTokenTTL <= 0 {
		cfg.DownloadTokenTTL = DefaultDownloadTokenTTL
	}
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}
	if cfg.Events == nil {
		cfg.Events = Discard
	}
	return &Store{cfg: cfg, sessions: make(map[string]*Session)}
}

type departure struct {
	sess   Session
	reason Reason
}

// finish reports departures after the lock has been released.
func (s *Store) finish(gone []departure) {
	for _, d := range gone {
		typ := EventDeleted
		switch d.reason {
		case ReasonExpired:
			typ = EventExpired
		case ReasonEvicted:
			typ = EventEvicted
		}
		s.Record(typ, d.sess.ID, nil)
		if s.cfg.OnEvict != nil {
			s.cfg.OnEvict(d.sess, d.reason)
		}
	}
}

// Record logs a lifecycle event for a session.
func (s *Store) Record(typ EventType, id string, data map[string]any) {
	if err := s.cfg.Events.Write(NewEvent(s.cfg.Clock(), typ, id, data)); err != nil {
		slog.Warn("Failed to record session event", "type", typ, "error", err)
	}
}

// purgeExpired must be called with s.mu held.
func (s *Store) purgeExpired(now time.Time) []departure {
	var gone []departure
	for id, sess := range s.sessions {
		if now.After(sess.ExpiresAt) {
			delete(s.sessions, id)
			gone = append(gone, departure{*sess, ReasonExpired})
		}
	}
	if len(gone) > 0 {
		slog.Info("Cleaned up expired sessions", "count", len(gone))
	}
	return gone
}

// enforceLimit must be called with s.mu held.
func (s *Store) enforceLimit() []departure {
	var gone []departure
	for len(s.sessions) >= s.cfg.MaxSessions {
		var oldest *Session
		for _, sess := range s.sessions {
			if oldest == nil || sess.CreatedAt.Before(oldest.CreatedAt) ||
				(sess.CreatedAt.Equal(oldest.CreatedAt) && sess.ID < oldest.ID) {
				oldest = sess
			}
		}
		delete(s.sessions, oldest.ID)
		gone = append(gone, departure{*oldest, ReasonEvicted})
		slog.Info("Evicted old session to make room", "session_id", oldest.ID)
	}
	return gone
}

// Create starts a new session owned by owner ("" for anonymous).
func (s *Store) Create(owner string) Session {
	s.mu.Lock()
	now := s.cfg.Clock()
	gone := s.purgeExpired(now)
	gone = append(gone, s.enforceLimit()...)

	sess := &Session{
		ID:        uuid.NewString(),
		Owner:     owner,
		CreatedAt: now,
		ExpiresAt: now.Add(s.cfg.TTL),
	}
	s.sessions[sess.ID] = sess
	out := *sess
	s.mu.Unlock()

	s.finish(gone)
	s.Record(EventCreated, out.ID, nil)
	slog.Info("Created new session", "session_id", out.ID)
	return out
}

// Get returns a copy of the session and refreshes its expiry.
func (s *Store) Get(id string) (Session, error) {
	return s.get(id, func(*Session) bool { return true })
}

// GetOwned is Get restricted to sessions visible to owner. Anonymous
// sessions are visible to everyone; owned sessions only to their owner.
func (s *Store) GetOwned(id, owner string) (Session, error) {
	return s.get(id, func(sess *Session) bool {
		return sess.Owner == "" || sess.Owner == owner
	})
}

func (s *Store) get(id string, visible func(*Session) bool) (Session, error) {
	s.mu.Lock()
	now := s.cfg.Clock()
	gone := s.purgeExpired(now)

	var (
		out Session
		err = ErrSessionNotFound
	)
	if sess, ok := s.sessions[id]; ok && visible(sess) {
		sess.ExpiresAt = now.Add(s.cfg.TTL)
		out, err = *sess, nil
	}
	s.mu.Unlock()

	s.finish(gone)
	return out, err
}

// Modify runs fn on the stored session under the store lock and returns a
// copy of the result. fn must only set the fields it owns. ID, Owner and
// CreatedAt are restored after fn returns.
func (s *Store) Modify(id string, fn func(*Session)) (Session, error) {
	s.mu.Lock()
	now := s.cfg.Clock()
	gone := s.purgeExpired(now)

	var (
		out Session
		err = ErrSessionNotFound
	)
	if sess, ok := s.sessions[id]; ok {
		owner, created := sess.Owner, sess.CreatedAt
		fn(sess)
		sess.ID, sess.Owner, sess.CreatedAt = id, owner, created
		sess.ExpiresAt = now.Add(s.cfg.TTL)
		out, err = *sess, nil
	}
	s.mu.Unlock()

	s.finish(gone)
	return out, err
}

// Delete removes a session. It reports whether the session existed.
func (s *Store) Delete(id string) bool {
	s.mu.Lock()
	sess, ok := s.sessions[id]
	if ok {
		delete(s.sessions, id)
	}
	s.mu.Unlock()

	if !ok {
		return false
	}
	s.finish([]departure{{*sess, ReasonDeleted}})
	slog.Info("Deleted session", "session_id", id)
	return true
}

// Len returns the number of live sessions.
func (s *Store) Len() int {
	s.mu.Lock()
	gone := s.purgeExpired(s.cfg.Clock())
	n := len(s.sessions)
	s.mu.Unlock()

	s.finish(gone)
	return n
}

// IssueDownloadToken creates a fresh single-purpose token for downloading
// the session's notebook.
func (s *Store) IssueDownloadToken(id string) (string, error) {
	buf := make([]byte, 24)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	token := hex.EncodeToString(buf)

	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if !ok {
		return "", ErrSessionNotFound
	}
	sess.downloadToken = token
	sess.tokenExpiresAt = s.cfg.Clock().Add(s.cfg.DownloadTokenTTL)
	return token, nil
}

// ValidateDownloadToken checks token against the session's current token.
func (s *Store) ValidateDownloadToken(id, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if !ok || sess.downloadToken == "" || token == "" {
		return ErrInvalidToken
	}
	if s.cfg.Clock().After(sess.tokenExpiresAt) {
		return ErrInvalidToken
	}
	if subtle.ConstantTimeCompare([]byte(sess.downloadToken), []byte(token)) != 1 {
		return ErrInvalidToken
	}
	return nil
}
