package engine

import (
	"github.com/fluentia/exam-engine/internal/model"
)

// Mapper holds the bidirectional mapping between native question ids and the
// dense 1..N display sequence used by navigation and labels.
//
// Native ids are backend-assigned and not guaranteed contiguous or ordered,
// so the UI addresses questions by a small stable integer instead. The
// mapping is computed once per loaded exam and never recomputed mid-session,
// even if the same exam is re-fetched — renumbering answered questions under
// the user is worse than serving a slightly stale definition.
type Mapper struct {
	forward []string       // forward[seq-1] = nativeID
	reverse map[string]int // reverse[nativeID] = seq
}

// NewMapper flattens the exam's parts in fixed order (part order, then
// in-part order) and assigns display sequence 1..N.
func NewMapper(exam *model.Exam) *Mapper {
	m := &Mapper{
		forward: make([]string, 0, exam.QuestionCount()),
		reverse: make(map[string]int, exam.QuestionCount()),
	}
	for pi := range exam.Parts {
		for qi := range exam.Parts[pi].Questions {
			id := exam.Parts[pi].Questions[qi].NativeID
			m.forward = append(m.forward, id)
			m.reverse[id] = len(m.forward)
		}
	}
	return m
}

// NativeID resolves a display sequence (1-based) to its native question id.
func (m *Mapper) NativeID(seq int) (string, bool) {
	if seq < 1 || seq > len(m.forward) {
		return "", false
	}
	return m.forward[seq-1], true
}

// Sequence resolves a native question id to its display sequence.
func (m *Mapper) Sequence(nativeID string) (int, bool) {
	seq, ok := m.reverse[nativeID]
	return seq, ok
}

// Count returns the total number of mapped questions.
func (m *Mapper) Count() int {
	return len(m.forward)
}
