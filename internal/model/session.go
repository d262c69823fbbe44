package model

import (
	"time"

	"github.com/google/uuid"
)

// AttemptMode selects which section variant drives the attempt.
type AttemptMode string

const (
	ModeReading   AttemptMode = "reading"
	ModeListening AttemptMode = "listening"
)

// Phase enumerates the runtime states of a single exam attempt.
//
// Reading attempts move NOT_STARTED → IN_PROGRESS → FINISHED.
// Listening attempts cycle READING → PLAYING → ENDING per part, then pass
// through CONFIRM_FINISH before FINISHED.
type Phase string

const (
	PhaseNotStarted Phase = "NOT_STARTED"
	PhaseInProgress Phase = "IN_PROGRESS"
	PhaseReading    Phase = "READING"
	PhasePlaying    Phase = "PLAYING"
	PhaseEnding     Phase = "ENDING"
	PhaseConfirm    Phase = "CONFIRM_FINISH"
	PhaseFinished   Phase = "FINISHED"
)

// TimeKind tags which clock is authoritative for the displayed time.
type TimeKind string

const (
	// TimeCountdown counts down: full exam duration (reading) or the
	// per-part preparation window (listening).
	TimeCountdown TimeKind = "countdown"
	// TimePlayback counts up and mirrors the audio element's position.
	// The tick source is ignored while this clock is active.
	TimePlayback TimeKind = "playback"
)

// TimeState is a tagged clock value. Keeping the kind explicit avoids
// persisting the wrong clock across a restore.
type TimeState struct {
	Kind    TimeKind `json:"kind"`
	Seconds int      `json:"seconds"`
}

// SessionState is the externally visible state of a live attempt.
type SessionState struct {
	ExamID     uuid.UUID         `json:"exam_id"`
	Mode       AttemptMode       `json:"mode"`
	Phase      Phase             `json:"phase"`
	ActivePart int               `json:"active_part"`
	Time       TimeState         `json:"time"`
	Answers    map[string]string `json:"answers"`
	StartedAt  time.Time         `json:"started_at"`
}

// Snapshot is the persisted copy of session state used for crash and reload
// recovery. At most one snapshot exists per (namespace, exam); every write
// fully replaces the previous value.
type Snapshot struct {
	ExamID     uuid.UUID         `json:"exam_id"`
	Namespace  string            `json:"namespace"`
	Mode       AttemptMode       `json:"mode"`
	Phase      Phase             `json:"phase"`
	ActivePart int               `json:"active_part"`
	Time       TimeState         `json:"time"`
	Answers    map[string]string `json:"answers"`
	StartedAt  time.Time         `json:"started_at"`
}

// OpenAttemptRequest is the payload for opening (or resuming) an attempt.
type OpenAttemptRequest struct {
	Mode AttemptMode `json:"mode" binding:"required,oneof=reading listening"`
}

// SetAnswerRequest is the payload for saving a single answer.
type SetAnswerRequest struct {
	QuestionID string `json:"question_id" binding:"required,max=64"`
	Value      string `json:"value" binding:"max=4000"`
}

// FinishAttemptRequest confirms submission after the finish gate.
type FinishAttemptRequest struct {
	Confirm bool `json:"confirm"`
}
