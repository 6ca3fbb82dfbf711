package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRankOrdersByPriorityDescending(t *testing.T) {
	in := []AIAnalysis{
		{ID: "a", PriorityScore: 10},
		{ID: "b", PriorityScore: 99},
		{ID: "c", PriorityScore: 42},
	}
	ranked := Rank(in)
	assert.Equal(t, []string{"b", "c", "a"}, ids(ranked))
	assert.Equal(t, "a", in[0].ID, "input must not be reordered")
}

func TestRankTiesKeepInputOrder(t *testing.T) {
	in := []AIAnalysis{
		{ID: "first", PriorityScore: 50},
		{ID: "top", PriorityScore: 70},
		{ID: "second", PriorityScore: 50},
		{ID: "third", PriorityScore: 50},
	}
	assert.Equal(t, []string{"top", "first", "second", "third"}, ids(Rank(in)))
}

func TestTop(t *testing.T) {
	_, ok := Top(nil)
	assert.False(t, ok)

	top, ok := Top([]AIAnalysis{
		{ID: "x", PriorityScore: 5},
		{ID: "y", PriorityScore: 8},
		{ID: "z", PriorityScore: 8},
	})
	assert.True(t, ok)
	assert.Equal(t, "y", top.ID)
}

func ids(list []AIAnalysis) []string {
	out := make([]string, len(list))
	for i, a := range list {
		out[i] = a.ID
	}
	return out
}
