// Package snapshot implements the write-through recovery persistence for
// exam attempts. Every answer mutation and phase transition produces a full
// snapshot write; a new write always fully replaces the previous value so no
// stale fields can survive a partial merge. Snapshots are deleted only after
// a successful submission.
package snapshot

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/fluentia/exam-engine/internal/model"
	"github.com/google/uuid"
)

// ErrNotFound is returned when no snapshot exists for the given key.
var ErrNotFound = errors.New("snapshot not found")

// Store persists at most one snapshot per (namespace, exam).
type Store interface {
	// Save fully replaces the snapshot for the snapshot's own key.
	Save(ctx context.Context, snap *model.Snapshot) error
	// Load returns the stored snapshot or ErrNotFound.
	Load(ctx context.Context, namespace string, examID uuid.UUID) (*model.Snapshot, error)
	// Delete removes the snapshot. Deleting a missing snapshot is not an error.
	Delete(ctx context.Context, namespace string, examID uuid.UUID) error
}

// Encode serializes a snapshot. All backends share this codec so the same
// state always produces the same bytes regardless of where it is stored.
func Encode(snap *model.Snapshot) ([]byte, error) {
	raw, err := json.Marshal(snap)
	if err != nil {
		return nil, fmt.Errorf("encode snapshot: %w", err)
	}
	return raw, nil
}

// Decode deserializes a snapshot previously produced by Encode.
func Decode(raw []byte) (*model.Snapshot, error) {
	var snap model.Snapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	return &snap, nil
}
