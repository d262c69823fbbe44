package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/fluentia/exam-engine/internal/model"
	"github.com/fluentia/exam-engine/internal/snapshot"
)

const testNamespace = "cand-1/dev-1"

func readingExam(durationMinutes int) *model.Exam {
	return &model.Exam{
		ID:              uuid.New(),
		Title:           "Reading Section",
		DurationMinutes: durationMinutes,
		Parts: []model.Part{
			{
				TaskType: model.TaskTypeMultipleChoice,
				Questions: []model.Question{
					{NativeID: "q-101", Type: model.TaskTypeMultipleChoice, Prompt: "First question",
						Options: []model.Option{{Key: "a", Label: "Yes"}, {Key: "b", Label: "No"}}},
					{NativeID: "q-102", Type: model.TaskTypeMultipleChoice, Prompt: "Second question",
						Options: []model.Option{{Key: "a", Label: "True"}, {Key: "b", Label: "False"}}},
				},
			},
			{
				TaskType: model.TaskTypeGapFill,
				Passage:  "The tide ___ twice a day, and sailors plan ___ accordingly.",
				Questions: []model.Question{
					{NativeID: "q-201", Type: model.TaskTypeGapFill},
					{NativeID: "q-202", Type: model.TaskTypeGapFill},
				},
			},
		},
	}
}

func listeningExam() *model.Exam {
	return &model.Exam{
		ID:              uuid.New(),
		Title:           "Listening Section",
		DurationMinutes: 30,
		Parts: []model.Part{
			{
				TaskType: model.TaskTypeMultipleChoice,
				AudioURL: "http://media.local/part-1.mp3",
				Questions: []model.Question{
					{NativeID: "l-1", Type: model.TaskTypeMultipleChoice, Prompt: "Speaker one",
						Options: []model.Option{{Key: "a", Label: "Bus"}, {Key: "b", Label: "Train"}}},
				},
			},
			{
				TaskType: model.TaskTypeFreeText,
				AudioURL: "http://media.local/part-2.mp3",
				Questions: []model.Question{
					{NativeID: "l-2", Type: model.TaskTypeFreeText, Prompt: "Summarize the dialogue"},
				},
			},
		},
	}
}

// stubSubmitter counts submissions, fails the first failures calls, and can
// optionally block in-flight until release is closed.
type stubSubmitter struct {
	mu       sync.Mutex
	calls    int
	failures int
	release  chan struct{}
}

func (s *stubSubmitter) Submit(ctx context.Context, req *model.SubmissionRequest) (*model.SubmissionResult, error) {
	if s.release != nil {
		<-s.release
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.calls <= s.failures {
		return nil, errors.New("scoring backend down")
	}
	return &model.SubmissionResult{ResultID: fmt.Sprintf("result-%d", s.calls)}, nil
}

func (s *stubSubmitter) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

// recordQueue captures enqueued attempt records.
type recordQueue struct {
	mu   sync.Mutex
	recs []*model.AttemptRecord
}

func (q *recordQueue) Enqueue(ctx context.Context, rec *model.AttemptRecord) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.recs = append(q.recs, rec)
	return nil
}

func (q *recordQueue) Records() []*model.AttemptRecord {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := make([]*model.AttemptRecord, len(q.recs))
	copy(out, q.recs)
	return out
}

// newTestSession wires a session with a nil ticker so tests pump OnTick
// directly.
func newTestSession(exam *model.Exam, mode model.AttemptMode, store snapshot.Store, sub Submitter, queue ResultQueue) *Session {
	log := zerolog.Nop()
	fin := NewFinishCoordinator(sub, store, queue, log)
	return NewSession(exam, mode, testNamespace, store, fin, nil, "http://media.local/clips", log)
}

func pumpTicks(s *Session, n int) {
	for i := 0; i < n; i++ {
		s.OnTick(context.Background())
	}
}
