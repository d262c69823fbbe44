package engine

import (
	"github.com/fluentia/exam-engine/internal/model"
)

// PaperQuestion is the render-ready view of one question: addressed by
// display sequence for the user, bound to the native id for answer storage.
type PaperQuestion struct {
	NativeID   string         `json:"native_id"`
	DisplaySeq int            `json:"display_seq"`
	Type       model.TaskType `json:"type"`
	Prompt     string         `json:"prompt,omitempty"`
	Options    []model.Option `json:"options,omitempty"`
	Answer     string         `json:"answer"`
	Answered   bool           `json:"answered"`
}

// PaperSegment is a passage fragment followed by an optional inline gap
// input. A nil Question marks a trailing unmatched marker: the text still
// renders, the input does not.
type PaperSegment struct {
	Text     string         `json:"text"`
	Question *PaperQuestion `json:"question,omitempty"`
}

// PaperPart is the render-ready view of one part.
type PaperPart struct {
	Index     int             `json:"index"`
	TaskType  model.TaskType  `json:"task_type"`
	AudioURL  string          `json:"audio_url,omitempty"`
	Segments  []PaperSegment  `json:"segments,omitempty"`
	Questions []PaperQuestion `json:"questions"`
}

// Paper builds the read-only render model for the whole exam from the
// current answers. It consumes the AnswerStore but never mutates it.
func (s *Session) Paper() []PaperPart {
	s.mu.Lock()
	defer s.mu.Unlock()

	parts := make([]PaperPart, 0, len(s.exam.Parts))
	for pi := range s.exam.Parts {
		part := &s.exam.Parts[pi]
		view := PaperPart{
			Index:    pi,
			TaskType: part.TaskType,
			AudioURL: part.AudioURL,
		}

		for qi := range part.Questions {
			view.Questions = append(view.Questions, s.paperQuestionLocked(&part.Questions[qi]))
		}

		if part.Passage != "" {
			slots, tail, _ := BindGaps(part.Passage, part.Questions)
			for _, slot := range slots {
				seg := PaperSegment{Text: slot.Leading}
				if slot.Question != nil {
					q := s.paperQuestionLocked(slot.Question)
					seg.Question = &q
				}
				view.Segments = append(view.Segments, seg)
			}
			if tail != "" {
				view.Segments = append(view.Segments, PaperSegment{Text: tail})
			}
		}

		parts = append(parts, view)
	}
	return parts
}

func (s *Session) paperQuestionLocked(q *model.Question) PaperQuestion {
	seq, _ := s.mapper.Sequence(q.NativeID)
	return PaperQuestion{
		NativeID:   q.NativeID,
		DisplaySeq: seq,
		Type:       q.Type,
		Prompt:     q.Prompt,
		Options:    q.Options,
		Answer:     s.answers.Get(q.NativeID),
		Answered:   s.answers.Answered(q.NativeID),
	}
}
