package model

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// SubmissionRequest is the wire payload sent to the scoring backend.
// Answers are keyed by native question id — the backend does not understand
// display sequence numbers.
type SubmissionRequest struct {
	ExamID      string            `json:"exam_id"`
	UserAnswers map[string]string `json:"user_answers"`
}

// SubmissionResult carries the server-assigned result identifier returned by
// a successful submission.
type SubmissionResult struct {
	ResultID string `json:"result_id"`
}

// ViewPath returns the frontend route for viewing this result.
func (r *SubmissionResult) ViewPath(section AttemptMode) string {
	return fmt.Sprintf("/result/%s/view?id=%s", section, r.ResultID)
}

// AttemptRecord is the durable trace of a finished attempt. It backs the
// result-pointer lookup and the already-finished check when the same exam is
// reopened on the same device.
type AttemptRecord struct {
	ExamID      uuid.UUID   `json:"exam_id"`
	Namespace   string      `json:"namespace"`
	ResultID    string      `json:"result_id"`
	Mode        AttemptMode `json:"mode"`
	AnswerCount int         `json:"answer_count"`
	SubmittedAt time.Time   `json:"submitted_at"`
}
