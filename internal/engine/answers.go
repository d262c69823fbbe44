package engine

import (
	"strings"
	"sync"
)

// AnswerStore maps native question id → current answer value. Values are
// always strings, including choice questions (the chosen option key).
//
// Presence in the map does not imply "answered": an answer counts only when
// its trimmed value is non-empty, and that is computed per call, never cached.
type AnswerStore struct {
	mu     sync.RWMutex
	values map[string]string
}

// NewAnswerStore creates an empty AnswerStore.
func NewAnswerStore() *AnswerStore {
	return &AnswerStore{values: make(map[string]string)}
}

// Set stores the answer for a question. Idempotent: setting the same value
// twice is a no-op, setting a new value always overwrites.
func (s *AnswerStore) Set(nativeID, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[nativeID] = value
}

// Get returns the stored value for a question, or "" when none exists.
func (s *AnswerStore) Get(nativeID string) string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.values[nativeID]
}

// Answered reports whether the question has a non-whitespace answer.
func (s *AnswerStore) Answered(nativeID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return strings.TrimSpace(s.values[nativeID]) != ""
}

// All returns a copy of the current answer map.
func (s *AnswerStore) All() map[string]string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]string, len(s.values))
	for k, v := range s.values {
		out[k] = v
	}
	return out
}

// Replace swaps in a full answer map, used when restoring from a snapshot.
func (s *AnswerStore) Replace(values map[string]string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values = make(map[string]string, len(values))
	for k, v := range values {
		s.values[k] = v
	}
}

// Clear removes all stored answers.
func (s *AnswerStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values = make(map[string]string)
}
