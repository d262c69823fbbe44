package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAnswerStoreOverwrites(t *testing.T) {
	s := NewAnswerStore()

	s.Set("q-1", "first")
	s.Set("q-1", "second")
	assert.Equal(t, "second", s.Get("q-1"))
}

func TestAnswerStoreWhitespaceIsUnanswered(t *testing.T) {
	s := NewAnswerStore()

	s.Set("q-1", "   ")
	assert.False(t, s.Answered("q-1"), "whitespace-only value must not count as answered")
	assert.Equal(t, "   ", s.Get("q-1"), "the raw value is still stored")

	s.Set("q-1", " a ")
	assert.True(t, s.Answered("q-1"))
}

func TestAnswerStoreAllReturnsCopy(t *testing.T) {
	s := NewAnswerStore()
	s.Set("q-1", "x")

	all := s.All()
	all["q-1"] = "mutated"
	assert.Equal(t, "x", s.Get("q-1"))
}

func TestAnswerStoreReplaceAndClear(t *testing.T) {
	s := NewAnswerStore()
	s.Set("q-1", "x")

	s.Replace(map[string]string{"q-2": "y"})
	assert.Equal(t, "", s.Get("q-1"))
	assert.Equal(t, "y", s.Get("q-2"))

	s.Clear()
	assert.Empty(t, s.All())
}
