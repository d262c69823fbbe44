package model

import (
	"github.com/google/uuid"
)

// TaskType enumerates the question formats a part can carry.
type TaskType string

const (
	TaskTypeFreeText       TaskType = "FREE_TEXT"
	TaskTypeMultipleChoice TaskType = "MULTIPLE_CHOICE"
	TaskTypeMatching       TaskType = "MATCHING"
	TaskTypeGapFill        TaskType = "GAP_FILL"
	TaskTypeMapLabel       TaskType = "MAP_LABEL"
)

// Option is a selectable choice. Key is the discriminator stored as the
// answer value for choice-type questions.
type Option struct {
	Key   string `json:"key"`
	Label string `json:"label"`
}

// Question is a single exam question. NativeID is assigned by the catalog
// backend and is opaque — not necessarily contiguous or ordered.
type Question struct {
	NativeID      string   `json:"native_id"`
	Type          TaskType `json:"type"`
	Prompt        string   `json:"prompt"`
	Options       []Option `json:"options,omitempty"`
	CorrectAnswer string   `json:"correct_answer,omitempty"` // practice mode only, absent in production payloads
}

// Part is an ordered block of questions with an optional passage and audio
// asset. Part order and in-part question order are fixed for the lifetime of
// an exam; the engine never reorders them.
type Part struct {
	TaskType  TaskType   `json:"task_type"`
	Passage   string     `json:"passage,omitempty"`
	AudioURL  string     `json:"audio_url,omitempty"`
	Questions []Question `json:"questions"`
}

// Exam is the immutable exam definition fetched once from the catalog
// service. The engine treats it as read-only input.
type Exam struct {
	ID              uuid.UUID `json:"id"`
	Title           string    `json:"title"`
	DurationMinutes int       `json:"duration_minutes"`
	Parts           []Part    `json:"parts"`
}

// QuestionCount returns the total number of questions across all parts.
func (e *Exam) QuestionCount() int {
	n := 0
	for i := range e.Parts {
		n += len(e.Parts[i].Questions)
	}
	return n
}
