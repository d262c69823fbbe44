// Package engine implements the timed exam session runtime: the phase state
// machine, answer store, question identity mapping, audio phase control and
// the at-most-once finish path for a single attempt.
//
// All event sources — the 1-second tick, client media events and user
// actions — are serialized through one mutex, so phase transitions are
// atomic with respect to each other. The order of near-simultaneous events
// is not guaranteed; every transition is therefore idempotent on re-entry
// (moving into the phase you are already in is a no-op).
package engine

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/fluentia/exam-engine/internal/model"
	"github.com/fluentia/exam-engine/internal/snapshot"
	"github.com/rs/zerolog"
)

// prepSeconds is the fixed per-part preparation countdown for listening parts.
const prepSeconds = 10

var (
	// ErrUnknownQuestion is returned when an answer targets a native id that
	// does not belong to this exam.
	ErrUnknownQuestion = errors.New("unknown question id")
	// ErrAttemptFinished is returned for mutations after FINISHED.
	ErrAttemptFinished = errors.New("attempt already finished")
	// ErrAttemptNotStarted is returned for actions that need a running attempt.
	ErrAttemptNotStarted = errors.New("attempt not started")
	// ErrFinishNotAllowed is returned when finish is invoked outside the
	// finish-confirmation gate of a listening attempt.
	ErrFinishNotAllowed = errors.New("finish not allowed in current phase")
	// ErrSkipUnavailable is returned when skip is invoked on a reading attempt.
	ErrSkipUnavailable = errors.New("skip is only available for listening attempts")
)

// Session drives a single exam attempt from start to submission.
type Session struct {
	mu  sync.Mutex
	log zerolog.Logger

	exam      *model.Exam
	mode      model.AttemptMode
	namespace string

	mapper  *Mapper
	answers *AnswerStore
	store   snapshot.Store
	finish  *FinishCoordinator
	audio   *AudioPhaseController
	events  *broadcaster
	ticker  TickSource

	phase           model.Phase
	activePart      int
	timeState       model.TimeState
	startedAt       time.Time
	deadlineReached bool

	loopCancel  context.CancelFunc
	lastTouched time.Time
}

// NewSession builds a session in NOT_STARTED over a read-only exam
// definition. A gap-fill marker/question mismatch is logged as a
// content-integrity error; rendering degrades to unbound trailing markers.
func NewSession(
	exam *model.Exam,
	mode model.AttemptMode,
	namespace string,
	store snapshot.Store,
	finish *FinishCoordinator,
	ticker TickSource,
	endingClipBase string,
	log zerolog.Logger,
) *Session {
	s := &Session{
		log:       log.With().Str("component", "session").Str("exam_id", exam.ID.String()).Logger(),
		exam:      exam,
		mode:      mode,
		namespace: namespace,
		mapper:    NewMapper(exam),
		answers:   NewAnswerStore(),
		store:     store,
		finish:    finish,
		audio:     NewAudioPhaseController(endingClipBase),
		events:    newBroadcaster(),
		ticker:    ticker,
		phase:     model.PhaseNotStarted,
		timeState: model.TimeState{Kind: model.TimeCountdown, Seconds: exam.DurationMinutes * 60},
	}

	for pi := range exam.Parts {
		part := &exam.Parts[pi]
		if part.Passage == "" {
			continue
		}
		if _, _, err := BindGaps(part.Passage, part.Questions); err != nil {
			s.log.Error().Err(err).Int("part", pi).Msg("Content integrity: gap binding mismatch")
		}
	}

	return s
}

// Restore loads the persisted snapshot, if any, and rebuilds phase, clock,
// active part and answers from it. A corrupt snapshot is treated as missing.
// Returns true when state was restored.
func (s *Session) Restore(ctx context.Context) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap, err := s.store.Load(ctx, s.namespace, s.exam.ID)
	if err != nil {
		if !errors.Is(err, snapshot.ErrNotFound) {
			s.log.Warn().Err(err).Msg("Snapshot unreadable, starting fresh")
		}
		return false
	}

	// The snapshot's own mode wins over the requested mode.
	s.mode = snap.Mode
	s.phase = snap.Phase
	s.activePart = snap.ActivePart
	s.timeState = snap.Time
	s.startedAt = snap.StartedAt
	s.answers.Replace(snap.Answers)
	s.lastTouched = time.Now()

	// Re-arm the audio slot so PLAYING/ENDING resume mid-clip.
	switch s.phase {
	case model.PhasePlaying:
		if s.activePart < len(s.exam.Parts) {
			s.audio.LoadPart(&s.exam.Parts[s.activePart])
			s.audio.SetElapsed(snap.Time.Seconds)
		}
	case model.PhaseEnding:
		s.audio.LoadEnding(s.activePart + 1)
	}

	s.log.Info().
		Str("phase", string(s.phase)).
		Int("active_part", s.activePart).
		Int("answers", len(snap.Answers)).
		Msg("Session restored from snapshot")
	return true
}

// Start moves the session out of NOT_STARTED: clears stale answers, sets the
// clock for the selected mode, writes the first snapshot and begins the tick
// loop. No-op on a running session.
func (s *Session) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.phase == model.PhaseFinished {
		return ErrAttemptFinished
	}
	if s.phase != model.PhaseNotStarted {
		return nil
	}

	s.answers.Clear()
	s.startedAt = time.Now().UTC()
	s.lastTouched = time.Now()
	s.deadlineReached = false

	switch s.mode {
	case model.ModeListening:
		s.phase = model.PhaseReading
		s.activePart = 0
		s.timeState = model.TimeState{Kind: model.TimeCountdown, Seconds: prepSeconds}
		s.audio.Unload()
	default:
		s.phase = model.PhaseInProgress
		s.timeState = model.TimeState{Kind: model.TimeCountdown, Seconds: s.exam.DurationMinutes * 60}
	}

	s.persistLocked(ctx)
	s.publishLocked()
	s.startLoopLocked()

	s.log.Info().Str("mode", string(s.mode)).Msg("Session started")
	return nil
}

// Run begins the tick loop for a session restored into a live phase.
func (s *Session) Run() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.phase == model.PhaseNotStarted || s.phase == model.PhaseFinished {
		return
	}
	s.startLoopLocked()
}

// OnTick advances countdown clocks by one second. Ticks are ignored while a
// playback clock is authoritative and after FINISHED.
func (s *Session) OnTick(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.phase {
	case model.PhaseInProgress:
		s.tickExamCountdown(ctx)
	case model.PhaseReading:
		s.tickPrepCountdown(ctx)
	}
}

// SetAnswer stores an answer by native question id and writes a snapshot.
// Always overwrites; a whitespace-only value is stored but counts as
// unanswered.
func (s *Session) SetAnswer(ctx context.Context, nativeID, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.phase == model.PhaseFinished {
		return ErrAttemptFinished
	}
	if s.phase == model.PhaseNotStarted {
		return ErrAttemptNotStarted
	}
	if _, ok := s.mapper.Sequence(nativeID); !ok {
		return ErrUnknownQuestion
	}

	s.answers.Set(nativeID, value)
	s.lastTouched = time.Now()
	s.persistLocked(ctx)
	return nil
}

// Unanswered returns the display sequence numbers of all questions without a
// non-whitespace answer, in display order. Advisory only — submission is
// never blocked by unanswered questions.
func (s *Session) Unanswered() []int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.unansweredLocked()
}

func (s *Session) unansweredLocked() []int {
	var out []int
	for seq := 1; seq <= s.mapper.Count(); seq++ {
		id, _ := s.mapper.NativeID(seq)
		if !s.answers.Answered(id) {
			out = append(out, seq)
		}
	}
	return out
}

// Finish performs the user-confirmed submission. Reading attempts may finish
// from IN_PROGRESS at any time; listening attempts only from the
// finish-confirmation gate. Both routes, and the deadline auto-submit, pass
// through the same coordinator guard.
func (s *Session) Finish(ctx context.Context) (*model.SubmissionResult, error) {
	s.mu.Lock()
	switch {
	case s.phase == model.PhaseFinished:
		s.mu.Unlock()
		return nil, ErrAlreadySubmitted
	case s.phase == model.PhaseNotStarted:
		s.mu.Unlock()
		return nil, ErrAttemptNotStarted
	case s.mode == model.ModeListening && s.phase != model.PhaseConfirm:
		s.mu.Unlock()
		return nil, ErrFinishNotAllowed
	}
	answers := s.answers.All()
	s.mu.Unlock()

	return s.submit(ctx, answers)
}

// submit runs the coordinator outside the session lock — the countdown keeps
// ticking during an in-flight submission.
func (s *Session) submit(ctx context.Context, answers map[string]string) (*model.SubmissionResult, error) {
	result, err := s.finish.Finish(ctx, s.exam, s.namespace, s.mode, answers)

	s.mu.Lock()
	defer s.mu.Unlock()

	if err != nil {
		if errors.Is(err, ErrSubmissionInFlight) || errors.Is(err, ErrAlreadySubmitted) {
			return nil, err
		}
		// State left intact; the snapshot survives and the guard is back in
		// IDLE, so a retry is possible.
		s.publishEventLocked(StateEvent{
			Phase:      s.phase,
			ActivePart: s.activePart,
			Time:       s.timeState,
			Error:      "submission failed",
		})
		return nil, err
	}

	s.phase = model.PhaseFinished
	s.stopLoopLocked()
	s.publishEventLocked(StateEvent{
		Phase:      s.phase,
		ActivePart: s.activePart,
		Time:       s.timeState,
		ResultID:   result.ResultID,
	})
	return result, nil
}

// Abandon tears the session down and removes its snapshot. Explicit user
// action; a crashed tab keeps its snapshot.
func (s *Session) Abandon(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.stopLoopLocked()
	s.phase = model.PhaseFinished
	if err := s.store.Delete(ctx, s.namespace, s.exam.ID); err != nil {
		return err
	}
	s.log.Info().Msg("Session abandoned")
	return nil
}

// State returns a copy of the externally visible session state.
func (s *Session) State() model.SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return model.SessionState{
		ExamID:     s.exam.ID,
		Mode:       s.mode,
		Phase:      s.phase,
		ActivePart: s.activePart,
		Time:       s.timeState,
		Answers:    s.answers.All(),
		StartedAt:  s.startedAt,
	}
}

// Phase returns the current phase.
func (s *Session) Phase() model.Phase {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.phase
}

// Mode returns the attempt mode.
func (s *Session) Mode() model.AttemptMode { return s.mode }

// Exam returns the read-only exam definition.
func (s *Session) Exam() *model.Exam { return s.exam }

// Mapper returns the display-sequence mapper.
func (s *Session) Mapper() *Mapper { return s.mapper }

// Events exposes the state event stream for the WebSocket relay.
func (s *Session) Events() *broadcaster { return s.events }

// GuardState reports the finish coordinator's guard, for state introspection.
func (s *Session) GuardState() GuardState { return s.finish.State() }

// LastTouched reports the last user interaction, used by the janitor.
func (s *Session) LastTouched() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastTouched
}

// ─── internal ────────────────────────────────────────────────────────

func (s *Session) snapshotLocked() *model.Snapshot {
	return &model.Snapshot{
		ExamID:     s.exam.ID,
		Namespace:  s.namespace,
		Mode:       s.mode,
		Phase:      s.phase,
		ActivePart: s.activePart,
		Time:       s.timeState,
		Answers:    s.answers.All(),
		StartedAt:  s.startedAt,
	}
}

// persistLocked writes the full snapshot, best-effort: a failed write is
// logged and never blocks a transition.
func (s *Session) persistLocked(ctx context.Context) {
	if err := s.store.Save(ctx, s.snapshotLocked()); err != nil {
		s.log.Warn().Err(err).Msg("Snapshot write failed")
	}
}

func (s *Session) publishLocked() {
	s.publishEventLocked(StateEvent{
		Phase:      s.phase,
		ActivePart: s.activePart,
		Time:       s.timeState,
		AudioSrc:   s.audio.Source(),
	})
}

func (s *Session) publishEventLocked(ev StateEvent) {
	s.events.Publish(ev)
}

func (s *Session) startLoopLocked() {
	if s.loopCancel != nil || s.ticker == nil {
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	s.loopCancel = cancel
	go s.ticker.Run(ctx, func() {
		s.OnTick(context.Background())
	})
}

func (s *Session) stopLoopLocked() {
	if s.loopCancel != nil {
		s.loopCancel()
		s.loopCancel = nil
	}
}
