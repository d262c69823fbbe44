package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/fluentia/exam-engine/internal/model"
	"github.com/fluentia/exam-engine/internal/snapshot"
	"github.com/rs/zerolog"
)

// GuardState is the in-flight state of the finish coordinator. A failed
// submission returns to IDLE so a retry is possible.
type GuardState string

const (
	GuardIdle       GuardState = "IDLE"
	GuardSubmitting GuardState = "SUBMITTING"
	GuardSubmitted  GuardState = "SUBMITTED"
)

var (
	// ErrSubmissionInFlight is returned when a second finish arrives while
	// one is already on the wire (double-click, deadline racing manual finish).
	ErrSubmissionInFlight = errors.New("submission already in flight")
	// ErrAlreadySubmitted is returned after a successful submission.
	ErrAlreadySubmitted = errors.New("attempt already submitted")
)

// Submitter performs the actual network submission.
type Submitter interface {
	Submit(ctx context.Context, req *model.SubmissionRequest) (*model.SubmissionResult, error)
}

// ResultQueue receives the durable record of a finished attempt after a
// successful submission. Optional — nil disables recording.
type ResultQueue interface {
	Enqueue(ctx context.Context, rec *model.AttemptRecord) error
}

// FinishCoordinator performs the at-most-once submission of an attempt.
// Concurrent invocations collapse to a single network call; the snapshot is
// deleted only on success so a failed submission loses no progress.
type FinishCoordinator struct {
	mu        sync.Mutex
	state     GuardState
	submitter Submitter
	store     snapshot.Store
	queue     ResultQueue
	log       zerolog.Logger
}

// NewFinishCoordinator creates a coordinator in the IDLE state.
func NewFinishCoordinator(submitter Submitter, store snapshot.Store, queue ResultQueue, log zerolog.Logger) *FinishCoordinator {
	return &FinishCoordinator{
		state:     GuardIdle,
		submitter: submitter,
		store:     store,
		queue:     queue,
		log:       log.With().Str("component", "finish_coordinator").Logger(),
	}
}

// State returns the current guard state.
func (f *FinishCoordinator) State() GuardState {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

// Finish builds the submission payload and performs the at-most-once network
// call. On success it deletes the persisted snapshot and enqueues the attempt
// record. On failure the guard returns to IDLE and the snapshot is retained
// so the caller can retry with identical payload.
func (f *FinishCoordinator) Finish(ctx context.Context, exam *model.Exam, namespace string, mode model.AttemptMode, answers map[string]string) (*model.SubmissionResult, error) {
	f.mu.Lock()
	switch f.state {
	case GuardSubmitting:
		f.mu.Unlock()
		return nil, ErrSubmissionInFlight
	case GuardSubmitted:
		f.mu.Unlock()
		return nil, ErrAlreadySubmitted
	}
	f.state = GuardSubmitting
	f.mu.Unlock()

	// The payload is keyed by native question id — the backend does not
	// understand display sequence numbers.
	req := &model.SubmissionRequest{
		ExamID:      exam.ID.String(),
		UserAnswers: answers,
	}

	// Network call outside the lock; the guard is what prevents a double submit.
	result, err := f.submitter.Submit(ctx, req)

	f.mu.Lock()
	defer f.mu.Unlock()

	if err != nil {
		f.state = GuardIdle
		f.log.Error().Err(err).Str("exam_id", exam.ID.String()).Msg("Submission failed, guard released")
		return nil, fmt.Errorf("submit attempt: %w", err)
	}

	f.state = GuardSubmitted

	if delErr := f.store.Delete(ctx, namespace, exam.ID); delErr != nil {
		// Submission went through; a stale snapshot is only a cleanup issue.
		f.log.Warn().Err(delErr).Str("exam_id", exam.ID.String()).Msg("Snapshot delete failed after submission")
	}

	if f.queue != nil {
		// Whitespace-only values count as unanswered, same as the preview.
		answered := 0
		for _, v := range answers {
			if strings.TrimSpace(v) != "" {
				answered++
			}
		}
		rec := &model.AttemptRecord{
			ExamID:      exam.ID,
			Namespace:   namespace,
			ResultID:    result.ResultID,
			Mode:        mode,
			AnswerCount: answered,
			SubmittedAt: time.Now().UTC(),
		}
		if qErr := f.queue.Enqueue(ctx, rec); qErr != nil {
			f.log.Warn().Err(qErr).Str("exam_id", exam.ID.String()).Msg("Attempt record enqueue failed")
		}
	}

	f.log.Info().
		Str("exam_id", exam.ID.String()).
		Str("result_id", result.ResultID).
		Msg("Attempt submitted")

	return result, nil
}
