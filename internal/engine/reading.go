package engine

import (
	"context"

	"github.com/fluentia/exam-engine/internal/model"
)

// tickExamCountdown decrements the whole-exam countdown of a reading
// attempt. Reaching zero is a hard deadline: the coordinator is invoked
// automatically for a silent forced submission.
func (s *Session) tickExamCountdown(ctx context.Context) {
	if s.timeState.Kind != model.TimeCountdown || s.deadlineReached {
		return
	}

	s.timeState.Seconds--
	if s.timeState.Seconds > 0 {
		s.persistLocked(ctx)
		s.publishLocked()
		return
	}

	s.timeState.Seconds = 0
	s.deadlineReached = true
	s.persistLocked(ctx)
	s.publishLocked()
	s.log.Info().Msg("Deadline reached, forcing submission")

	// The submission must not run under the session lock — the guard, not
	// the lock, deduplicates against a racing manual finish.
	go s.autoFinish()
}

// autoFinish is the best-effort forced submission at deadline zero. On
// failure the attempt is left in a finished-intent limbo: phase stays put,
// the guard is released and the snapshot retained, so the user gets a manual
// retry instead of silently losing the attempt.
func (s *Session) autoFinish() {
	s.mu.Lock()
	if s.phase == model.PhaseFinished {
		s.mu.Unlock()
		return
	}
	answers := s.answers.All()
	s.mu.Unlock()

	if _, err := s.submit(context.Background(), answers); err != nil {
		s.log.Error().Err(err).Msg("Deadline auto-submission failed, awaiting manual retry")
	}
}
