package engine

import (
	"errors"
	"fmt"
	"regexp"

	"github.com/fluentia/exam-engine/internal/model"
)

// gapMarker matches an inline blank in a passage: a run of three or more
// consecutive underscores counts as a single marker.
var gapMarker = regexp.MustCompile(`_{3,}`)

// ErrGapCountMismatch flags a content-integrity problem: the number of gap
// markers in a passage does not equal the number of gap-type questions in
// the part. The pairing is positional, so a mismatch means the author's
// intent cannot be known. Rendering still proceeds — trailing markers are
// simply left without an input.
var ErrGapCountMismatch = errors.New("gap marker count does not match gap question count")

// SplitPassage splits a passage on gap markers. k markers yield k+1 segments.
func SplitPassage(passage string) []string {
	return gapMarker.Split(passage, -1)
}

// GapSlot pairs the passage text leading up to a marker with the question
// bound to that marker. Question is nil for a trailing unmatched marker.
type GapSlot struct {
	Leading  string
	Question *model.Question
}

// BindGaps splits the passage and pairs the i-th marker with the i-th
// gap-type question of the part, by position only — there is no explicit
// linkage field in the data model.
//
// Returns the slots, the passage text after the last marker, and a non-nil
// ErrGapCountMismatch when marker and question counts differ. The slots are
// valid either way; the error exists to be surfaced loudly at construction
// time instead of silently truncating.
func BindGaps(passage string, questions []model.Question) ([]GapSlot, string, error) {
	segments := SplitPassage(passage)
	markers := len(segments) - 1

	gaps := make([]*model.Question, 0, markers)
	for i := range questions {
		if questions[i].Type == model.TaskTypeGapFill {
			gaps = append(gaps, &questions[i])
		}
	}

	var err error
	if markers != len(gaps) {
		err = fmt.Errorf("%w: %d markers, %d questions", ErrGapCountMismatch, markers, len(gaps))
	}

	slots := make([]GapSlot, markers)
	for i := 0; i < markers; i++ {
		slots[i] = GapSlot{Leading: segments[i]}
		if i < len(gaps) {
			slots[i].Question = gaps[i]
		}
	}

	return slots, segments[markers], err
}
