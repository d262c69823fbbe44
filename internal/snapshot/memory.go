package snapshot

import (
	"context"
	"sync"

	"github.com/fluentia/exam-engine/internal/model"
	"github.com/google/uuid"
)

// MemoryStore is an in-process Store used by tests and local development.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string][]byte
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string][]byte)}
}

func memoryKey(namespace string, examID uuid.UUID) string {
	return namespace + "|" + examID.String()
}

func (s *MemoryStore) Save(ctx context.Context, snap *model.Snapshot) error {
	raw, err := Encode(snap)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[memoryKey(snap.Namespace, snap.ExamID)] = raw
	return nil
}

func (s *MemoryStore) Load(ctx context.Context, namespace string, examID uuid.UUID) (*model.Snapshot, error) {
	s.mu.RLock()
	raw, ok := s.entries[memoryKey(namespace, examID)]
	s.mu.RUnlock()

	if !ok {
		return nil, ErrNotFound
	}
	return Decode(raw)
}

func (s *MemoryStore) Delete(ctx context.Context, namespace string, examID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, memoryKey(namespace, examID))
	return nil
}

// Raw returns the stored bytes for a key, or nil. Test helper.
func (s *MemoryStore) Raw(namespace string, examID uuid.UUID) []byte {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.entries[memoryKey(namespace, examID)]
}

// Corrupt overwrites the stored bytes for a key with garbage. Test helper
// for the unparseable-snapshot recovery path.
func (s *MemoryStore) Corrupt(namespace string, examID uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[memoryKey(namespace, examID)] = []byte("{not json")
}
