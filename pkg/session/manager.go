package session

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Config encapsulates the memory bounds of the session store.
type Config struct {
	TTL           time.Duration // inactivity window before a session expires
	MaxSessions   int           // hard cap on concurrent sessions
	MaxDocuments  int           // attached documents per session
	DocumentTTL   time.Duration // lifetime of an attached summary
	SweepInterval time.Duration // background eviction cadence
	MinEvictIdle  time.Duration // a session must be this idle to be evicted for room
}

// DefaultConfig returns the default session bounds.
func DefaultConfig() Config {
	return Config{
		TTL:           1 * time.Hour,
		MaxSessions:   50,
		MaxDocuments:  3,
		DocumentTTL:   30 * time.Minute,
		SweepInterval: 10 * time.Minute,
		MinEvictIdle:  1 * time.Minute,
	}
}

// Manager owns every Session instance. The map lock is held only for
// lookup and insertion; per-session mutation happens under the session's
// own mutex so unrelated conversations never serialize.
type Manager struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	cfg      Config
	nowFn    func() time.Time
	logger   *log.Logger
}

// NewManager creates an empty session manager.
func NewManager(cfg Config, logger *log.Logger) *Manager {
	if cfg.TTL <= 0 {
		cfg.TTL = DefaultConfig().TTL
	}
	if cfg.MaxSessions <= 0 {
		cfg.MaxSessions = DefaultConfig().MaxSessions
	}
	if cfg.MaxDocuments <= 0 {
		cfg.MaxDocuments = DefaultConfig().MaxDocuments
	}
	if cfg.DocumentTTL <= 0 {
		cfg.DocumentTTL = DefaultConfig().DocumentTTL
	}
	if cfg.SweepInterval <= 0 {
		cfg.SweepInterval = DefaultConfig().SweepInterval
	}
	if cfg.MinEvictIdle <= 0 {
		cfg.MinEvictIdle = DefaultConfig().MinEvictIdle
	}
	return &Manager{
		sessions: make(map[string]*Session),
		cfg:      cfg,
		nowFn:    time.Now,
		logger:   logger,
	}
}

// Append adds a message to a session, creating the session lazily when
// the identifier is empty or unknown. Returns the session ID actually
// used, so callers learn the ID of a freshly created session.
func (m *Manager) Append(sessionID string, msg Message) (string, error) {
	now := m.nowFn()
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = now
	}

	s, err := m.getOrCreate(sessionID, now)
	if err != nil {
		return "", err
	}

	s.mu.Lock()
	s.Messages = append(s.Messages, msg)
	s.LastActivity = now
	s.mu.Unlock()

	return s.ID, nil
}

// AttachDocument adds a document summary to an existing session and
// returns the stored document with its assigned ID and expiry. The fourth
// attach on a session holding three documents is rejected with a
// DocumentCapacityError and leaves the existing documents untouched.
func (m *Manager) AttachDocument(sessionID string, doc Document) (Document, error) {
	now := m.nowFn()
	s := m.lookup(sessionID, now)
	if s == nil {
		return Document{}, ErrSessionNotFound
	}

	if doc.ID == "" {
		doc.ID = uuid.NewString()
	}
	if doc.ExpiresAt.IsZero() {
		doc.ExpiresAt = now.Add(m.cfg.DocumentTTL)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.Documents = pruneDocuments(s.Documents, now)
	if len(s.Documents) >= m.cfg.MaxDocuments {
		return Document{}, &DocumentCapacityError{Limit: m.cfg.MaxDocuments}
	}
	s.Documents = append(s.Documents, doc)
	s.LastActivity = now
	return doc, nil
}

// GetContext returns the most recent maxMessages messages plus unexpired
// document summaries. The caller builds the LLM prompt from this; the
// manager itself never calls the LLM.
func (m *Manager) GetContext(sessionID string, maxMessages int) (*Context, error) {
	now := m.nowFn()
	s := m.lookup(sessionID, now)
	if s == nil {
		return nil, ErrSessionNotFound
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.Documents = pruneDocuments(s.Documents, now)
	s.LastActivity = now

	msgs := s.Messages
	if maxMessages > 0 && len(msgs) > maxMessages {
		msgs = msgs[len(msgs)-maxMessages:]
	}

	ctx := &Context{
		SessionID: s.ID,
		Messages:  make([]Message, len(msgs)),
		Documents: make([]Document, len(s.Documents)),
	}
	copy(ctx.Messages, msgs)
	copy(ctx.Documents, s.Documents)
	return ctx, nil
}

// Delete removes a session and all of its documents in one operation.
func (m *Manager) Delete(sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sessions[sessionID]; !ok {
		return ErrSessionNotFound
	}
	delete(m.sessions, sessionID)
	return nil
}

// Count returns the number of live sessions.
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// Sweep removes every session whose inactivity exceeds the TTL. Returns
// the number of sessions evicted.
func (m *Manager) Sweep() int {
	now := m.nowFn()
	m.mu.Lock()
	defer m.mu.Unlock()

	evicted := 0
	for id, s := range m.sessions {
		if m.expired(s, now) {
			delete(m.sessions, id)
			evicted++
		}
	}
	return evicted
}

// Run starts the background sweep loop and blocks until the context is
// cancelled. Intended to be launched as a goroutine from main.
func (m *Manager) Run(ctx context.Context) {
	ticker := time.NewTicker(m.cfg.SweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := m.Sweep(); n > 0 {
				m.logger.Printf("[SESSION] sweep evicted %d expired sessions", n)
			}
		}
	}
}

// lookup returns a live session or nil. Expired sessions are removed on
// the spot so a stale ID behaves identically before and after a sweep.
func (m *Manager) lookup(sessionID string, now time.Time) *Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[sessionID]
	if !ok {
		return nil
	}
	if m.expired(s, now) {
		delete(m.sessions, sessionID)
		return nil
	}
	return s
}

func (m *Manager) getOrCreate(sessionID string, now time.Time) (*Session, error) {
	if sessionID != "" {
		if s := m.lookup(sessionID, now); s != nil {
			return s, nil
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	// Re-check under the write lock: a concurrent caller carrying the
	// same unknown ID may have created the session since the lookup.
	if sessionID != "" {
		if s, ok := m.sessions[sessionID]; ok {
			return s, nil
		}
	}

	if len(m.sessions) >= m.cfg.MaxSessions {
		if !m.evictOldestLocked(now) {
			return nil, &SessionCapacityError{Limit: m.cfg.MaxSessions}
		}
	}

	if sessionID == "" {
		sessionID = uuid.NewString()
	}
	s := &Session{
		ID:           sessionID,
		CreatedAt:    now,
		LastActivity: now,
	}
	m.sessions[sessionID] = s
	return s, nil
}

// evictOldestLocked frees one slot by dropping the longest-inactive
// session, provided it has been idle at least MinEvictIdle. Refusing to
// evict sessions mid-conversation is what makes the capacity error
// reachable at all.
func (m *Manager) evictOldestLocked(now time.Time) bool {
	var oldestID string
	var oldestAt time.Time
	for id, s := range m.sessions {
		s.mu.Lock()
		last := s.LastActivity
		s.mu.Unlock()
		if oldestID == "" || last.Before(oldestAt) {
			oldestID = id
			oldestAt = last
		}
	}
	if oldestID == "" || now.Sub(oldestAt) < m.cfg.MinEvictIdle {
		return false
	}
	delete(m.sessions, oldestID)
	return true
}

func (m *Manager) expired(s *Session, now time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return now.Sub(s.LastActivity) > m.cfg.TTL
}

func pruneDocuments(docs []Document, now time.Time) []Document {
	kept := docs[:0]
	for _, d := range docs {
		if now.Before(d.ExpiresAt) {
			kept = append(kept, d)
		}
	}
	return kept
}
