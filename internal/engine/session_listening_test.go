package engine

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fluentia/exam-engine/internal/model"
	"github.com/fluentia/exam-engine/internal/snapshot"
)

func TestListeningPartCycle(t *testing.T) {
	store := snapshot.NewMemoryStore()
	sub := &stubSubmitter{}
	sess := newTestSession(listeningExam(), model.ModeListening, store, sub, nil)
	ctx := context.Background()

	require.NoError(t, sess.Start(ctx))
	st := sess.State()
	assert.Equal(t, model.PhaseReading, st.Phase)
	assert.Equal(t, model.TimeCountdown, st.Time.Kind)
	assert.Equal(t, 10, st.Time.Seconds)

	// Preparation countdown expires into PLAYING with part 1's audio loaded.
	pumpTicks(sess, 10)
	st = sess.State()
	assert.Equal(t, model.PhasePlaying, st.Phase)
	assert.Equal(t, model.TimePlayback, st.Time.Kind)

	// The playback clock mirrors client-reported positions; ticks are ignored.
	sess.OnMediaEvent(ctx, MediaEvent{Kind: MediaTimeUpdate, Position: 7.8})
	pumpTicks(sess, 5)
	assert.Equal(t, 7, sess.State().Time.Seconds)

	// Clip end moves into the fixed transition clip for part 1.
	sess.OnMediaEvent(ctx, MediaEvent{Kind: MediaEnded})
	assert.Equal(t, model.PhaseEnding, sess.Phase())

	// Transition clip end opens part 2 with a fresh full preparation window.
	sess.OnMediaEvent(ctx, MediaEvent{Kind: MediaEnded})
	st = sess.State()
	assert.Equal(t, model.PhaseReading, st.Phase)
	assert.Equal(t, 1, st.ActivePart)
	assert.Equal(t, 10, st.Time.Seconds)

	// Last part: PLAYING, ENDING, then the finish-confirmation gate.
	pumpTicks(sess, 10)
	sess.OnMediaEvent(ctx, MediaEvent{Kind: MediaEnded})
	sess.OnMediaEvent(ctx, MediaEvent{Kind: MediaEnded})
	assert.Equal(t, model.PhaseConfirm, sess.Phase())

	result, err := sess.Finish(ctx)
	require.NoError(t, err)
	assert.NotEmpty(t, result.ResultID)
	assert.Equal(t, model.PhaseFinished, sess.Phase())
}

func TestListeningMediaErrorAdvances(t *testing.T) {
	store := snapshot.NewMemoryStore()
	sess := newTestSession(listeningExam(), model.ModeListening, store, &stubSubmitter{}, nil)
	ctx := context.Background()

	require.NoError(t, sess.Start(ctx))
	pumpTicks(sess, 10)
	require.Equal(t, model.PhasePlaying, sess.Phase())

	// A failed clip is treated like a completed one: no retry, no stall.
	sess.OnMediaEvent(ctx, MediaEvent{Kind: MediaError})
	assert.Equal(t, model.PhaseEnding, sess.Phase())

	sess.OnMediaEvent(ctx, MediaEvent{Kind: MediaError})
	st := sess.State()
	assert.Equal(t, model.PhaseReading, st.Phase)
	assert.Equal(t, 1, st.ActivePart)
}

func TestListeningStaleMediaEventsIgnored(t *testing.T) {
	store := snapshot.NewMemoryStore()
	sess := newTestSession(listeningExam(), model.ModeListening, store, &stubSubmitter{}, nil)
	ctx := context.Background()

	require.NoError(t, sess.Start(ctx))

	// READING: a late "ended" from the previous clip must not advance anything.
	sess.OnMediaEvent(ctx, MediaEvent{Kind: MediaEnded})
	st := sess.State()
	assert.Equal(t, model.PhaseReading, st.Phase)
	assert.Equal(t, 0, st.ActivePart)
}

func TestListeningSkipResetsPrepWindow(t *testing.T) {
	store := snapshot.NewMemoryStore()
	sess := newTestSession(listeningExam(), model.ModeListening, store, &stubSubmitter{}, nil)
	ctx := context.Background()

	require.NoError(t, sess.Start(ctx))
	pumpTicks(sess, 3)
	require.Equal(t, 7, sess.State().Time.Seconds)

	// Skip from mid-countdown jumps to the next part with a full window.
	require.NoError(t, sess.Skip(ctx))
	st := sess.State()
	assert.Equal(t, model.PhaseReading, st.Phase)
	assert.Equal(t, 1, st.ActivePart)
	assert.Equal(t, 10, st.Time.Seconds)

	// Skipping the last part lands on the finish-confirmation gate; skipping
	// there is a no-op.
	require.NoError(t, sess.Skip(ctx))
	assert.Equal(t, model.PhaseConfirm, sess.Phase())
	require.NoError(t, sess.Skip(ctx))
	assert.Equal(t, model.PhaseConfirm, sess.Phase())
}

func TestListeningFinishOnlyFromGate(t *testing.T) {
	store := snapshot.NewMemoryStore()
	sub := &stubSubmitter{}
	sess := newTestSession(listeningExam(), model.ModeListening, store, sub, nil)
	ctx := context.Background()

	require.NoError(t, sess.Start(ctx))

	_, err := sess.Finish(ctx)
	assert.ErrorIs(t, err, ErrFinishNotAllowed)
	assert.Equal(t, 0, sub.Calls())

	pumpTicks(sess, 10)
	_, err = sess.Finish(ctx)
	assert.ErrorIs(t, err, ErrFinishNotAllowed)
}

func TestListeningRestoreResumesMidClip(t *testing.T) {
	store := snapshot.NewMemoryStore()
	exam := listeningExam()
	ctx := context.Background()

	first := newTestSession(exam, model.ModeListening, store, &stubSubmitter{}, nil)
	require.NoError(t, first.Start(ctx))
	pumpTicks(first, 10)
	first.OnMediaEvent(ctx, MediaEvent{Kind: MediaTimeUpdate, Position: 42})

	// Reload: the session comes back in PLAYING at the persisted position,
	// without re-running the preparation countdown.
	second := newTestSession(exam, model.ModeListening, store, &stubSubmitter{}, nil)
	require.True(t, second.Restore(ctx))

	st := second.State()
	assert.Equal(t, model.PhasePlaying, st.Phase)
	assert.Equal(t, model.TimePlayback, st.Time.Kind)
	assert.Equal(t, 42, st.Time.Seconds)
}

func TestRestoreSnapshotModeWins(t *testing.T) {
	store := snapshot.NewMemoryStore()
	exam := listeningExam()
	ctx := context.Background()

	first := newTestSession(exam, model.ModeListening, store, &stubSubmitter{}, nil)
	require.NoError(t, first.Start(ctx))

	// Opening with a different requested mode resumes what was in progress.
	second := newTestSession(exam, model.ModeReading, store, &stubSubmitter{}, nil)
	require.True(t, second.Restore(ctx))
	assert.Equal(t, model.ModeListening, second.Mode())
	assert.Equal(t, model.PhaseReading, second.Phase())
}

func TestListeningPartlessExamReachesConfirmGate(t *testing.T) {
	// A definition with no parts must not blow up inside the tick loop when
	// the preparation countdown expires.
	exam := &model.Exam{ID: uuid.New(), Title: "Empty Section", DurationMinutes: 30}
	sess := newTestSession(exam, model.ModeListening, snapshot.NewMemoryStore(), &stubSubmitter{}, nil)
	ctx := context.Background()

	require.NoError(t, sess.Start(ctx))
	pumpTicks(sess, prepSeconds)

	assert.Equal(t, model.PhaseConfirm, sess.Phase())
}
