package engine

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fluentia/exam-engine/internal/model"
	"github.com/fluentia/exam-engine/internal/snapshot"
)

func TestFinishCoordinatorCollapsesConcurrentCalls(t *testing.T) {
	store := snapshot.NewMemoryStore()
	sub := &stubSubmitter{release: make(chan struct{})}
	sess := newTestSession(readingExam(5), model.ModeReading, store, sub, nil)
	ctx := context.Background()

	require.NoError(t, sess.Start(ctx))

	// First finish parks inside the submitter.
	var wg sync.WaitGroup
	wg.Add(1)
	var firstErr error
	go func() {
		defer wg.Done()
		_, firstErr = sess.Finish(ctx)
	}()

	require.Eventually(t, func() bool {
		return sess.GuardState() == GuardSubmitting
	}, 2*time.Second, 5*time.Millisecond)

	// Second finish while one is on the wire is rejected without a network call.
	_, err := sess.Finish(ctx)
	assert.ErrorIs(t, err, ErrSubmissionInFlight)

	close(sub.release)
	wg.Wait()

	require.NoError(t, firstErr)
	assert.Equal(t, 1, sub.Calls())
	assert.Equal(t, GuardSubmitted, sess.GuardState())
	assert.Equal(t, model.PhaseFinished, sess.Phase())
}

func TestFinishFailureKeepsStateForRetry(t *testing.T) {
	store := snapshot.NewMemoryStore()
	sub := &stubSubmitter{failures: 1}
	queue := &recordQueue{}
	sess := newTestSession(readingExam(5), model.ModeReading, store, sub, queue)
	ctx := context.Background()

	require.NoError(t, sess.Start(ctx))
	require.NoError(t, sess.SetAnswer(ctx, "q-101", "a"))

	_, err := sess.Finish(ctx)
	require.Error(t, err)

	// Nothing was lost: phase, answers and snapshot are intact, the guard is
	// back in IDLE and no record was queued.
	assert.Equal(t, model.PhaseInProgress, sess.Phase())
	assert.Equal(t, GuardIdle, sess.GuardState())
	assert.Empty(t, queue.Records())
	snap, loadErr := store.Load(ctx, testNamespace, sess.Exam().ID)
	require.NoError(t, loadErr)
	assert.Equal(t, "a", snap.Answers["q-101"])

	// Retry with the identical payload succeeds and cleans up.
	result, err := sess.Finish(ctx)
	require.NoError(t, err)
	assert.NotEmpty(t, result.ResultID)

	_, loadErr = store.Load(ctx, testNamespace, sess.Exam().ID)
	assert.ErrorIs(t, loadErr, snapshot.ErrNotFound)
	require.Len(t, queue.Records(), 1)
}

func TestFinishCoordinatorCountsNonEmptyAnswers(t *testing.T) {
	store := snapshot.NewMemoryStore()
	queue := &recordQueue{}
	fin := NewFinishCoordinator(&stubSubmitter{}, store, queue, zerolog.Nop())

	exam := readingExam(5)
	// Empty and whitespace-only values are unanswered, same as the preview.
	answers := map[string]string{"q-101": "a", "q-102": "", "q-201": "tide", "q-202": "   "}

	_, err := fin.Finish(context.Background(), exam, testNamespace, model.ModeReading, answers)
	require.NoError(t, err)

	recs := queue.Records()
	require.Len(t, recs, 1)
	assert.Equal(t, 2, recs[0].AnswerCount)
	assert.Equal(t, exam.ID, recs[0].ExamID)
	assert.Equal(t, testNamespace, recs[0].Namespace)
}
