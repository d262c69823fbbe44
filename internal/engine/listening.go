package engine

import (
	"context"
	"time"

	"github.com/fluentia/exam-engine/internal/model"
)

// tickPrepCountdown decrements the 10-second preparation countdown of a
// listening part. No audio plays during READING; at zero the part's audio
// asset is loaded and playback begins.
func (s *Session) tickPrepCountdown(ctx context.Context) {
	if s.timeState.Kind != model.TimeCountdown {
		return
	}

	s.timeState.Seconds--
	if s.timeState.Seconds > 0 {
		s.persistLocked(ctx)
		s.publishLocked()
		return
	}

	s.toPlayingLocked(ctx)
}

// OnMediaEvent feeds a client-side audio element lifecycle event into the
// machine. Events outside PLAYING/ENDING are stale deliveries and ignored.
func (s *Session) OnMediaEvent(ctx context.Context, ev MediaEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.mode != model.ModeListening {
		return
	}
	s.lastTouched = time.Now()

	switch s.phase {
	case model.PhasePlaying:
		switch ev.Kind {
		case MediaTimeUpdate:
			s.audio.OnTimeUpdate(ev.Position)
			s.timeState = model.TimeState{Kind: model.TimePlayback, Seconds: s.audio.Elapsed()}
			s.persistLocked(ctx)
			s.publishLocked()
		case MediaEnded, MediaError:
			// Playback failure is not retried; advance as if the clip completed.
			s.toEndingLocked(ctx)
		}
	case model.PhaseEnding:
		switch ev.Kind {
		case MediaEnded, MediaError:
			s.advanceAfterEndingLocked(ctx)
		}
	}
}

// Skip performs the manual "skip to next part" forward transition. Works
// from any listening phase and always resets the next part's preparation
// countdown to the full window.
func (s *Session) Skip(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.mode != model.ModeListening {
		return ErrSkipUnavailable
	}

	switch s.phase {
	case model.PhaseNotStarted:
		return ErrAttemptNotStarted
	case model.PhaseFinished:
		return ErrAttemptFinished
	case model.PhaseConfirm:
		return nil
	}

	s.lastTouched = time.Now()
	s.advancePartLocked(ctx)
	return nil
}

// toPlayingLocked hands control to the audio phase controller: the part's
// asset is loaded and the displayed clock switches from the preparation
// countdown to elapsed playback time.
func (s *Session) toPlayingLocked(ctx context.Context) {
	if s.phase == model.PhasePlaying {
		return
	}
	if s.activePart >= len(s.exam.Parts) {
		// Degenerate definition with no part to play; go straight to the
		// confirm gate.
		s.log.Error().Int("active_part", s.activePart).Msg("Content integrity: no part to play")
		s.phase = model.PhaseConfirm
		s.audio.Unload()
		s.timeState = model.TimeState{Kind: model.TimeCountdown, Seconds: 0}
		s.persistLocked(ctx)
		s.publishLocked()
		return
	}
	s.phase = model.PhasePlaying
	s.audio.LoadPart(&s.exam.Parts[s.activePart])
	s.timeState = model.TimeState{Kind: model.TimePlayback, Seconds: 0}
	s.persistLocked(ctx)
	s.publishLocked()
}

// toEndingLocked loads the fixed transition clip for the active part.
func (s *Session) toEndingLocked(ctx context.Context) {
	if s.phase == model.PhaseEnding {
		return
	}
	s.phase = model.PhaseEnding
	s.audio.LoadEnding(s.activePart + 1)
	s.timeState = model.TimeState{Kind: model.TimePlayback, Seconds: 0}
	s.persistLocked(ctx)
	s.publishLocked()
}

// advanceAfterEndingLocked moves past a finished transition clip: either
// into the next part's preparation countdown or, after the last part, to the
// finish-confirmation gate.
func (s *Session) advanceAfterEndingLocked(ctx context.Context) {
	s.advancePartLocked(ctx)
}

func (s *Session) advancePartLocked(ctx context.Context) {
	if s.activePart+1 < len(s.exam.Parts) {
		s.activePart++
		s.phase = model.PhaseReading
		s.audio.Unload()
		s.timeState = model.TimeState{Kind: model.TimeCountdown, Seconds: prepSeconds}
	} else {
		s.phase = model.PhaseConfirm
		s.audio.Unload()
		s.timeState = model.TimeState{Kind: model.TimeCountdown, Seconds: 0}
	}
	s.persistLocked(ctx)
	s.publishLocked()
}
