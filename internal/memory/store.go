// Package memory keeps per-session conversation history in memory.
package memory

import (
	"context"
	"io"
	"log"
	"sync"
	"time"

	"github.com/Cyclone1070/beachai/internal/clock"
	"github.com/google/uuid"
)

type session struct {
	mu         sync.Mutex
	id         string
	turns      []Turn
	lastSeq    int64
	created    time.Time
	lastActive time.Time
	closed     bool // set once the session is evicted
}

// Store holds sessions keyed by id. Operations on one session serialize on
// that session's lock; the store-wide lock only guards the id map.
type Store struct {
	mu          sync.Mutex
	sessions    map[string]*session
	maxTurns    int
	idleTimeout time.Duration
	clock       clock.Clock
	logger      *log.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithClock overrides the time source.
func WithClock(c clock.Clock) Option {
	return func(s *Store) { s.clock = c }
}

// WithLogger sets the logger for eviction messages.
func WithLogger(l *log.Logger) Option {
	return func(s *Store) { s.logger = l }
}

// NewStore creates a Store retaining at most maxTurns turns per session.
// Sessions idle for longer than idleTimeout are treated as gone; a
// non-positive idleTimeout disables expiry.
func NewStore(maxTurns int, idleTimeout time.Duration, opts ...Option) *Store {
	if maxTurns < 1 {
		maxTurns = 1
	}
	s := &Store{
		sessions:    make(map[string]*session),
		maxTurns:    maxTurns,
		idleTimeout: idleTimeout,
		clock:       clock.Real{},
		logger:      log.New(io.Discard, "", 0),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// NewSessionID returns a fresh random session id.
func NewSessionID() string {
	return uuid.NewString()
}

func (s *Store) expired(sess *session, now time.Time) bool {
	return s.idleTimeout > 0 && now.Sub(sess.lastActive) > s.idleTimeout
}

// acquire returns the live session for id, creating it if needed, with its
// lock held.
func (s *Store) acquire(id string) *session {
	for {
		now := s.clock.Now()

		s.mu.Lock()
		sess, ok := s.sessions[id]
		if ok {
			sess.mu.Lock()
			if s.expired(sess, now) {
				sess.closed = true
				sess.mu.Unlock()
				delete(s.sessions, id)
				s.logger.Printf("[memory] session %s expired after %s idle", id, now.Sub(sess.lastActive).Round(time.Second))
				ok = false
			} else {
				sess.mu.Unlock()
			}
		}
		if !ok {
			sess = &session{id: id, created: now, lastActive: now}
			s.sessions[id] = sess
		}
		s.mu.Unlock()

		sess.mu.Lock()
		if !sess.closed {
			return sess
		}
		// Evicted between lookup and lock.
		sess.mu.Unlock()
	}
}

// Append adds turn to the session, creating the session on first use.
// The stored turn, with its sequence number and timestamp, is returned.
func (s *Store) Append(sessionID string, turn Turn) (Turn, error) {
	stored, err := s.AppendAll(sessionID, turn)
	if err != nil {
		return Turn{}, err
	}
	return stored[0], nil
}

// AppendAll adds turns atomically and in order: no other append to the same
// session can interleave with them.
func (s *Store) AppendAll(sessionID string, turns ...Turn) ([]Turn, error) {
	if sessionID == "" {
		return nil, ErrEmptySessionID
	}
	for _, t := range turns {
		if err := t.validate(); err != nil {
			return nil, err
		}
	}

	sess := s.acquire(sessionID)
	defer sess.mu.Unlock()

	now := s.clock.Now()
	stored := make([]Turn, len(turns))
	for i, t := range turns {
		sess.lastSeq++
		t.Seq = sess.lastSeq
		t.At = now
		t.ToolCalls = cloneCalls(t.ToolCalls)
		sess.turns = append(sess.turns, t)
		stored[i] = t
	}
	if over := len(sess.turns) - s.maxTurns; over > 0 {
		sess.turns = append([]Turn(nil), sess.turns[over:]...)
	}
	sess.lastActive = now
	return stored, nil
}

// History returns up to maxTurns of the most recent turns, oldest first.
// A non-positive maxTurns returns every retained turn. Leading tool turns
// whose assistant call was trimmed away are skipped. An unknown session id
// creates an empty session.
func (s *Store) History(sessionID string, maxTurns int) []Turn {
	if sessionID == "" {
		return nil
	}
	sess := s.acquire(sessionID)
	defer sess.mu.Unlock()

	sess.lastActive = s.clock.Now()

	turns := sess.turns
	if maxTurns > 0 && len(turns) > maxTurns {
		turns = turns[len(turns)-maxTurns:]
	}
	for len(turns) > 0 && turns[0].Role == RoleTool {
		turns = turns[1:]
	}

	out := make([]Turn, len(turns))
	for i, t := range turns {
		t.ToolCalls = cloneCalls(t.ToolCalls)
		out[i] = t
	}
	return out
}

// Lookup describes a live session without creating it.
func (s *Store) Lookup(sessionID string) (Info, error) {
	sess, err := s.existing(sessionID)
	if err != nil {
		return Info{}, err
	}
	defer sess.mu.Unlock()

	return Info{
		ID:         sess.id,
		Created:    sess.created,
		LastActive: sess.lastActive,
		Turns:      len(sess.turns),
		LastSeq:    sess.lastSeq,
	}, nil
}

// Clear drops a session's turns. Sequence numbers keep increasing from where
// they were.
func (s *Store) Clear(sessionID string) error {
	sess, err := s.existing(sessionID)
	if err != nil {
		return err
	}
	defer sess.mu.Unlock()

	sess.turns = nil
	sess.lastActive = s.clock.Now()
	return nil
}

// existing returns a live session with its lock held.
func (s *Store) existing(sessionID string) (*session, error) {
	now := s.clock.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[sessionID]
	if !ok {
		return nil, &UnknownSessionError{ID: sessionID}
	}
	sess.mu.Lock()
	if s.expired(sess, now) {
		sess.closed = true
		sess.mu.Unlock()
		delete(s.sessions, sessionID)
		return nil, &UnknownSessionError{ID: sessionID}
	}
	return sess, nil
}

// Sweep evicts idle sessions and returns how many were removed.
func (s *Store) Sweep() int {
	now := s.clock.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for id, sess := range s.sessions {
		sess.mu.Lock()
		if s.expired(sess, now) {
			sess.closed = true
			delete(s.sessions, id)
			n++
		}
		sess.mu.Unlock()
	}
	if n > 0 {
		s.logger.Printf("[memory] swept %d idle sessions", n)
	}
	return n
}

// RunSweeper calls Sweep every interval until ctx is done.
func (s *Store) RunSweeper(ctx context.Context, interval time.Duration) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-s.clock.After(interval):
			s.Sweep()
		}
	}
}

// Len returns the number of sessions held, including idle ones not yet swept.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

func cloneCalls(calls []ToolCall) []ToolCall {
	if calls == nil {
		return nil
	}
	out := make([]ToolCall, len(calls))
	copy(out, calls)
	return out
}
