package testdump

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMarkingRendersSorted(t *testing.T) {
	assert.Equal(t, "{0, 1, 4}", Marking([]int{4, 0, 1}))
}

func TestMarkingEmpty(t *testing.T) {
	assert.Equal(t, "{}", Marking(nil))
}

func TestDiffMarkingHighlightsAddedPlace(t *testing.T) {
	out := DiffMarking([]int{0, 1}, []int{0, 1, 2})
	assert.Contains(t, out, "2")
}

func TestDiffTallyKeysByTagRegardlessOfMapOrder(t *testing.T) {
	want := map[string]int{"a": 1, "b": 2}
	got := map[string]int{"b": 2, "a": 1}
	out := DiffTally(want, got)
	assert.Contains(t, out, "a=1")
	assert.Contains(t, out, "b=2")
}

func TestDiffTallyHighlightsChangedCount(t *testing.T) {
	out := DiffTally(map[string]int{"a": 1}, map[string]int{"a": 2})
	assert.Contains(t, out, "a=2")
}
