package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/fluentia/exam-engine/internal/model"
	"github.com/fluentia/exam-engine/internal/snapshot"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// ErrExamUnavailable wraps a catalog fetch failure. Fatal for the attempt:
// no session is created, so there is nothing to recover.
var ErrExamUnavailable = errors.New("exam definition unavailable")

// CatalogSource fetches read-only exam definitions.
type CatalogSource interface {
	GetExam(ctx context.Context, examID uuid.UUID) (*model.Exam, error)
}

// Manager owns the live sessions of this node. A given (exam, device
// namespace) pair has at most one session: opening an exam that already has
// a persisted snapshot resumes it instead of starting over.
type Manager struct {
	mu       sync.Mutex
	sessions map[string]*Session

	catalog        CatalogSource
	store          snapshot.Store
	submitter      Submitter
	queue          ResultQueue
	newTicker      func() TickSource
	endingClipBase string
	log            zerolog.Logger
}

// NewManager wires the session factory. newTicker produces one TickSource
// per session; pass nil to disable the loop (tests pump ticks directly).
func NewManager(
	catalog CatalogSource,
	store snapshot.Store,
	submitter Submitter,
	queue ResultQueue,
	newTicker func() TickSource,
	endingClipBase string,
	log zerolog.Logger,
) *Manager {
	return &Manager{
		sessions:       make(map[string]*Session),
		catalog:        catalog,
		store:          store,
		submitter:      submitter,
		queue:          queue,
		newTicker:      newTicker,
		endingClipBase: endingClipBase,
		log:            log.With().Str("component", "session_manager").Logger(),
	}
}

func sessionKey(examID uuid.UUID, namespace string) string {
	return namespace + "|" + examID.String()
}

// Open returns the live session for (exam, namespace), creating one if
// needed. A fresh session restores from its snapshot when present — the
// recovery path after a reload or crash — and resumes its tick loop if it
// comes back in a live phase.
func (m *Manager) Open(ctx context.Context, examID uuid.UUID, namespace string, mode model.AttemptMode) (*Session, error) {
	key := sessionKey(examID, namespace)

	m.mu.Lock()
	if existing, ok := m.sessions[key]; ok {
		m.mu.Unlock()
		return existing, nil
	}
	m.mu.Unlock()

	// Fetched outside the manager lock — catalog calls can be slow.
	exam, err := m.catalog.GetExam(ctx, examID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrExamUnavailable, err)
	}
	if len(exam.Parts) == 0 {
		m.log.Error().Str("exam_id", examID.String()).Msg("Content integrity: exam has no parts")
		return nil, fmt.Errorf("%w: exam has no parts", ErrExamUnavailable)
	}

	var ticker TickSource
	if m.newTicker != nil {
		ticker = m.newTicker()
	}

	finisher := NewFinishCoordinator(m.submitter, m.store, m.queue, m.log)
	sess := NewSession(exam, mode, namespace, m.store, finisher, ticker, m.endingClipBase, m.log)

	restored := sess.Restore(ctx)

	m.mu.Lock()
	defer m.mu.Unlock()
	if existing, ok := m.sessions[key]; ok {
		// Concurrent open raced us; keep the first one.
		return existing, nil
	}
	m.sessions[key] = sess

	if restored {
		sess.Run()
	}
	return sess, nil
}

// Get returns the live session for (exam, namespace) if one exists.
func (m *Manager) Get(examID uuid.UUID, namespace string) (*Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	sess, ok := m.sessions[sessionKey(examID, namespace)]
	return sess, ok
}

// Abandon tears down a session and deletes its snapshot.
func (m *Manager) Abandon(ctx context.Context, examID uuid.UUID, namespace string) error {
	m.mu.Lock()
	sess, ok := m.sessions[sessionKey(examID, namespace)]
	if ok {
		delete(m.sessions, sessionKey(examID, namespace))
	}
	m.mu.Unlock()

	if !ok {
		// No live session; still clear any orphaned snapshot.
		return m.store.Delete(ctx, namespace, examID)
	}
	return sess.Abandon(ctx)
}

// Reap evicts finished sessions and sessions idle longer than ttl. Evicted
// in-progress sessions keep their snapshot, so a later Open resumes them.
func (m *Manager) Reap(ttl time.Duration) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	evicted := 0
	now := time.Now()
	for key, sess := range m.sessions {
		phase := sess.Phase()
		if phase == model.PhaseFinished || now.Sub(sess.LastTouched()) > ttl {
			sess.mu.Lock()
			sess.stopLoopLocked()
			sess.mu.Unlock()
			delete(m.sessions, key)
			evicted++
		}
	}
	return evicted
}

// StartJanitor runs the reaper loop until ctx is cancelled. Call in a
// goroutine.
func (m *Manager) StartJanitor(ctx context.Context, interval, ttl time.Duration) {
	m.log.Info().Dur("interval", interval).Msg("Janitor started")

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			m.log.Info().Msg("Janitor stopped")
			return
		case <-ticker.C:
			if n := m.Reap(ttl); n > 0 {
				m.log.Debug().Int("count", n).Msg("Evicted idle sessions")
			}
		}
	}
}
