package session

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stemsi/coderunner-dash/internal/model"
	"github.com/stemsi/coderunner-dash/internal/moodle"
)

// Session is one instructor's dashboard context: the authenticated Moodle
// client, the current snapshot and report, and the auto-sync preference.
// Sessions share nothing; concurrent dashboards each own their copy.
// Credentials live only inside the Moodle client and die with the session.
type Session struct {
	ID       uuid.UUID
	Username string
	QuizID   string
	Client   *moodle.Client

	// mu serializes syncs for this session: a sync is a single blocking
	// fetch→aggregate→store sequence.
	mu sync.Mutex

	// stateMu guards the result and auto-sync fields, which handlers and
	// the auto-sync worker read while a sync may be writing.
	stateMu sync.RWMutex

	snapshot *model.Snapshot
	report   *model.Report
	stale    bool

	autoSync         bool
	autoSyncInterval time.Duration
	lastAutoRun      time.Time

	CreatedAt time.Time
	lastSeen  time.Time
}

// Lock serializes sync runs for this session.
func (s *Session) Lock() { s.mu.Lock() }

// Unlock releases the sync lock.
func (s *Session) Unlock() { s.mu.Unlock() }

// SetResult replaces the session's snapshot and report wholesale and clears
// the stale flag. The stored report is never mutated afterwards; readers get
// copies from Report.
func (s *Session) SetResult(snap *model.Snapshot, report *model.Report) {
	s.stateMu.Lock()
	defer s.stateMu.Unlock()
	s.snapshot = snap
	s.report = report
	s.stale = false
}

// MarkStale flags the current report as a preserved previous snapshot after
// a failed sync. The report stays on screen: stale beats blank.
func (s *Session) MarkStale() {
	s.stateMu.Lock()
	defer s.stateMu.Unlock()
	s.stale = true
}

// Report returns a copy of the current report with the stale flag stamped
// on, or nil when no sync has succeeded yet. Handlers serialize the copy
// without holding any session lock, so the stored report must stay untouched.
func (s *Session) Report() *model.Report {
	s.stateMu.RLock()
	defer s.stateMu.RUnlock()
	if s.report == nil {
		return nil
	}
	report := *s.report
	report.Stale = s.stale
	return &report
}

// Snapshot returns the current raw snapshot, or nil.
func (s *Session) Snapshot() *model.Snapshot {
	s.stateMu.RLock()
	defer s.stateMu.RUnlock()
	return s.snapshot
}

// SetAutoSync updates the auto-sync preference and interval.
func (s *Session) SetAutoSync(enabled bool, interval time.Duration) {
	s.stateMu.Lock()
	defer s.stateMu.Unlock()
	s.autoSync = enabled
	s.autoSyncInterval = interval
}

// AutoSync reports the current auto-sync preference and interval.
func (s *Session) AutoSync() (bool, time.Duration) {
	s.stateMu.RLock()
	defer s.stateMu.RUnlock()
	return s.autoSync, s.autoSyncInterval
}

// DueForAutoSync reports whether an auto-sync run is due and, if so, stamps
// the run time so concurrent worker ticks schedule it once.
func (s *Session) DueForAutoSync(now time.Time) bool {
	s.stateMu.Lock()
	defer s.stateMu.Unlock()
	if !s.autoSync {
		return false
	}
	if !s.lastAutoRun.IsZero() && now.Sub(s.lastAutoRun) < s.autoSyncInterval {
		return false
	}
	s.lastAutoRun = now
	return true
}

// Store is the in-memory registry of live dashboard sessions, evicted after
// a TTL of inactivity. There is deliberately no persistent backing: spec'd
// behavior is that credentials never touch disk.
type Store struct {
	mu       sync.RWMutex
	sessions map[uuid.UUID]*Session
	ttl      time.Duration
	log      zerolog.Logger
}

// NewStore creates a session store with the given idle TTL.
func NewStore(ttl time.Duration, log zerolog.Logger) *Store {
	return &Store{
		sessions: make(map[uuid.UUID]*Session),
		ttl:      ttl,
		log:      log.With().Str("component", "session_store").Logger(),
	}
}

// Create registers a new session around an authenticated Moodle client.
func (st *Store) Create(username, quizID string, client *moodle.Client, autoSyncInterval time.Duration) *Session {
	now := time.Now()
	s := &Session{
		ID:               uuid.New(),
		Username:         username,
		QuizID:           quizID,
		Client:           client,
		autoSyncInterval: autoSyncInterval,
		CreatedAt:        now,
		lastSeen:         now,
	}

	st.mu.Lock()
	st.sessions[s.ID] = s
	st.mu.Unlock()

	st.log.Info().Str("session_id", s.ID.String()).Str("user", username).Str("quiz_id", quizID).Msg("Session created")
	return s
}

// Get returns a live session and refreshes its idle timer.
func (st *Store) Get(id uuid.UUID) (*Session, bool) {
	st.mu.Lock()
	defer st.mu.Unlock()
	s, ok := st.sessions[id]
	if !ok {
		return nil, false
	}
	s.lastSeen = time.Now()
	return s, true
}

// Delete drops a session and with it the held credentials.
func (st *Store) Delete(id uuid.UUID) {
	st.mu.Lock()
	delete(st.sessions, id)
	st.mu.Unlock()
}

// Range calls fn for each live session. Used by the auto-sync worker.
func (st *Store) Range(fn func(*Session)) {
	st.mu.RLock()
	snapshot := make([]*Session, 0, len(st.sessions))
	for _, s := range st.sessions {
		snapshot = append(snapshot, s)
	}
	st.mu.RUnlock()

	for _, s := range snapshot {
		fn(s)
	}
}

// StartJanitor evicts idle sessions once a minute until ctx is done.
func (st *Store) StartJanitor(ctx context.Context) {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			st.evictIdle()
		}
	}
}

func (st *Store) evictIdle() {
	cutoff := time.Now().Add(-st.ttl)

	st.mu.Lock()
	defer st.mu.Unlock()
	for id, s := range st.sessions {
		if s.lastSeen.Before(cutoff) {
			delete(st.sessions, id)
			st.log.Info().Str("session_id", id.String()).Msg("Idle session evicted")
		}
	}
}
