package engine

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fluentia/exam-engine/internal/model"
	"github.com/fluentia/exam-engine/internal/snapshot"
)

func TestReadingStartInitializesCountdown(t *testing.T) {
	store := snapshot.NewMemoryStore()
	sess := newTestSession(readingExam(1), model.ModeReading, store, &stubSubmitter{}, nil)
	ctx := context.Background()

	require.NoError(t, sess.Start(ctx))

	st := sess.State()
	assert.Equal(t, model.PhaseInProgress, st.Phase)
	assert.Equal(t, model.TimeCountdown, st.Time.Kind)
	assert.Equal(t, 60, st.Time.Seconds)

	// Start wrote the first snapshot.
	snap, err := store.Load(ctx, testNamespace, sess.Exam().ID)
	require.NoError(t, err)
	assert.Equal(t, model.PhaseInProgress, snap.Phase)

	// Starting again is a no-op.
	require.NoError(t, sess.Start(ctx))
	assert.Equal(t, 60, sess.State().Time.Seconds)
}

func TestReadingDeadlineSubmitsExactlyOnce(t *testing.T) {
	store := snapshot.NewMemoryStore()
	sub := &stubSubmitter{}
	queue := &recordQueue{}
	sess := newTestSession(readingExam(1), model.ModeReading, store, sub, queue)
	ctx := context.Background()

	require.NoError(t, sess.Start(ctx))
	require.NoError(t, sess.SetAnswer(ctx, "q-101", "a"))

	pumpTicks(sess, 59)
	assert.Equal(t, 1, sess.State().Time.Seconds)
	assert.Equal(t, 0, sub.Calls(), "no submission before the deadline")

	// The 60th tick crosses zero and forces submission.
	pumpTicks(sess, 1)
	require.Eventually(t, func() bool {
		return sess.Phase() == model.PhaseFinished
	}, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, 1, sub.Calls())

	// Extra ticks after the deadline never trigger a second submission.
	pumpTicks(sess, 10)
	assert.Equal(t, 1, sub.Calls())
	assert.Equal(t, 0, sess.State().Time.Seconds, "clock never goes negative")

	// Snapshot is gone, the durable record is queued.
	_, err := store.Load(ctx, testNamespace, sess.Exam().ID)
	assert.ErrorIs(t, err, snapshot.ErrNotFound)
	recs := queue.Records()
	require.Len(t, recs, 1)
	assert.Equal(t, 1, recs[0].AnswerCount)
	assert.Equal(t, model.ModeReading, recs[0].Mode)
}

func TestReadingDeadlineFailureAllowsManualRetry(t *testing.T) {
	store := snapshot.NewMemoryStore()
	sub := &stubSubmitter{failures: 1}
	sess := newTestSession(readingExam(1), model.ModeReading, store, sub, nil)
	ctx := context.Background()

	require.NoError(t, sess.Start(ctx))
	pumpTicks(sess, 60)

	// Auto-submission fails; the guard returns to IDLE and the snapshot
	// survives so nothing is lost.
	require.Eventually(t, func() bool {
		return sub.Calls() == 1 && sess.GuardState() == GuardIdle
	}, 2*time.Second, 10*time.Millisecond)
	assert.NotEqual(t, model.PhaseFinished, sess.Phase())

	_, err := store.Load(ctx, testNamespace, sess.Exam().ID)
	require.NoError(t, err)

	// Manual retry succeeds with the identical payload.
	result, err := sess.Finish(ctx)
	require.NoError(t, err)
	assert.NotEmpty(t, result.ResultID)
	assert.Equal(t, model.PhaseFinished, sess.Phase())
	assert.Equal(t, 2, sub.Calls())
}

func TestReadingManualFinish(t *testing.T) {
	store := snapshot.NewMemoryStore()
	sub := &stubSubmitter{}
	sess := newTestSession(readingExam(2), model.ModeReading, store, sub, nil)
	ctx := context.Background()

	require.NoError(t, sess.Start(ctx))
	require.NoError(t, sess.SetAnswer(ctx, "q-101", "b"))
	require.NoError(t, sess.SetAnswer(ctx, "q-201", "   ")) // stored but unanswered

	// Unanswered list is advisory and in display order.
	assert.Equal(t, []int{2, 3, 4}, sess.Unanswered())

	result, err := sess.Finish(ctx)
	require.NoError(t, err)
	assert.Equal(t, "result-1", result.ResultID)
	assert.Equal(t, "/result/reading/view?id=result-1", result.ViewPath(sess.Mode()))

	// Mutations and repeat finishes are rejected after FINISHED.
	assert.ErrorIs(t, sess.SetAnswer(ctx, "q-101", "a"), ErrAttemptFinished)
	_, err = sess.Finish(ctx)
	assert.ErrorIs(t, err, ErrAlreadySubmitted)
}

func TestSetAnswerValidation(t *testing.T) {
	store := snapshot.NewMemoryStore()
	sess := newTestSession(readingExam(1), model.ModeReading, store, &stubSubmitter{}, nil)
	ctx := context.Background()

	assert.ErrorIs(t, sess.SetAnswer(ctx, "q-101", "a"), ErrAttemptNotStarted)

	require.NoError(t, sess.Start(ctx))
	assert.ErrorIs(t, sess.SetAnswer(ctx, "q-999", "a"), ErrUnknownQuestion)
	assert.ErrorIs(t, sess.Skip(ctx), ErrSkipUnavailable)
}

func TestReadingRestoreResumesCountdown(t *testing.T) {
	store := snapshot.NewMemoryStore()
	exam := readingExam(1)
	ctx := context.Background()

	first := newTestSession(exam, model.ModeReading, store, &stubSubmitter{}, nil)
	require.NoError(t, first.Start(ctx))
	pumpTicks(first, 20)
	require.NoError(t, first.SetAnswer(ctx, "q-102", "a"))

	// A new session over the same store resumes where the first left off.
	second := newTestSession(exam, model.ModeReading, store, &stubSubmitter{}, nil)
	require.True(t, second.Restore(ctx))

	st := second.State()
	assert.Equal(t, model.PhaseInProgress, st.Phase)
	assert.Equal(t, 40, st.Time.Seconds)
	assert.Equal(t, "a", st.Answers["q-102"])
}

func TestRestoreCorruptSnapshotStartsFresh(t *testing.T) {
	store := snapshot.NewMemoryStore()
	exam := readingExam(1)
	ctx := context.Background()

	first := newTestSession(exam, model.ModeReading, store, &stubSubmitter{}, nil)
	require.NoError(t, first.Start(ctx))

	store.Corrupt(testNamespace, exam.ID)

	second := newTestSession(exam, model.ModeReading, store, &stubSubmitter{}, nil)
	assert.False(t, second.Restore(ctx), "unparseable snapshot must be treated as absent")
	assert.Equal(t, model.PhaseNotStarted, second.Phase())
}
