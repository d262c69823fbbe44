package snapshot

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fluentia/exam-engine/internal/model"
)

func testSnapshot(examID uuid.UUID) *model.Snapshot {
	return &model.Snapshot{
		ExamID:     examID,
		Namespace:  "cand-1/dev-1",
		Mode:       model.ModeListening,
		Phase:      model.PhasePlaying,
		ActivePart: 1,
		Time:       model.TimeState{Kind: model.TimePlayback, Seconds: 42},
		Answers:    map[string]string{"q-1": "a", "q-2": "tide"},
		StartedAt:  time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC),
	}
}

func TestCodecRoundTrip(t *testing.T) {
	snap := testSnapshot(uuid.New())

	raw, err := Encode(snap)
	require.NoError(t, err)

	got, err := Decode(raw)
	require.NoError(t, err)
	assert.Equal(t, snap, got)
}

func TestCodecDeterministic(t *testing.T) {
	examID := uuid.New()

	a, err := Encode(testSnapshot(examID))
	require.NoError(t, err)
	b, err := Encode(testSnapshot(examID))
	require.NoError(t, err)

	// Equal state always serializes to identical bytes, regardless of map
	// insertion order.
	assert.Equal(t, a, b)
}

func TestMemoryStoreFullReplace(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	examID := uuid.New()

	snap := testSnapshot(examID)
	require.NoError(t, store.Save(ctx, snap))

	// A later write fully replaces the previous value: the dropped answer
	// must not survive the overwrite.
	next := testSnapshot(examID)
	next.Answers = map[string]string{"q-1": "b"}
	next.ActivePart = 0
	require.NoError(t, store.Save(ctx, next))

	got, err := store.Load(ctx, snap.Namespace, examID)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"q-1": "b"}, got.Answers)
	assert.Equal(t, 0, got.ActivePart)
}

func TestMemoryStoreMissingAndDelete(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	examID := uuid.New()

	_, err := store.Load(ctx, "cand-1/dev-1", examID)
	assert.ErrorIs(t, err, ErrNotFound)

	// Deleting a missing snapshot is not an error.
	require.NoError(t, store.Delete(ctx, "cand-1/dev-1", examID))

	snap := testSnapshot(examID)
	require.NoError(t, store.Save(ctx, snap))
	require.NoError(t, store.Delete(ctx, snap.Namespace, examID))
	_, err = store.Load(ctx, snap.Namespace, examID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStoreKeysAreScoped(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	a := testSnapshot(uuid.New())
	b := testSnapshot(uuid.New())
	b.Namespace = "cand-2/dev-2"
	b.Answers = map[string]string{"q-9": "z"}

	require.NoError(t, store.Save(ctx, a))
	require.NoError(t, store.Save(ctx, b))

	gotA, err := store.Load(ctx, a.Namespace, a.ExamID)
	require.NoError(t, err)
	assert.Equal(t, a.Answers, gotA.Answers)

	gotB, err := store.Load(ctx, b.Namespace, b.ExamID)
	require.NoError(t, err)
	assert.Equal(t, b.Answers, gotB.Answers)
}
