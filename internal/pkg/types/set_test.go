package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSet(t *testing.T) {
	t.Run("new set with initial elements", func(t *testing.T) {
		set := NewSet("a", "b", "a")

		assert.Equal(t, 2, set.Len())
		assert.True(t, set.Has("a"))
		assert.True(t, set.Has("b"))
		assert.False(t, set.Has("c"))
	})

	t.Run("add and delete", func(t *testing.T) {
		set := NewSet[string]()

		set.Add("x", "y")
		assert.Equal(t, 2, set.Len())

		set.Delete("x")
		assert.False(t, set.Has("x"))
		assert.True(t, set.Has("y"))
	})

	t.Run("to slice contains every element", func(t *testing.T) {
		set := NewSet(1, 2, 3)

		slice := set.ToSlice()

		assert.Len(t, slice, 3)
		assert.ElementsMatch(t, []int{1, 2, 3}, slice)
	})

	t.Run("iteration yields every element", func(t *testing.T) {
		set := NewSet("a", "b")

		seen := make(map[string]bool)
		for v := range set.ToIter() {
			seen[v] = true
		}

		assert.Len(t, seen, 2)
	})
}
