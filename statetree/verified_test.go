package statetree

import (
	"testing"

	"github.com/go-playground/assert/v2"
)

func monotoneIncrease(c Change) bool {
	from, ok := c.From.(int)
	if !ok {
		return true
	}
	to, ok := c.To.(int)
	if !ok {
		return false
	}
	return to >= from
}

func TestVerifiedStateRejectsNonMonotoneWrite(t *testing.T) {
	root := Root(map[string]any{"counter": 5})
	counter := Verified(root.Sub("counter"), monotoneIncrease)

	var seen []any
	counter.SubscribeFunc(func(v any) { seen = append(seen, v) })
	assert.Equal(t, seen[0], 5)

	counter.SetValue(3)
	assert.Equal(t, len(seen), 1)
	assert.Equal(t, counter.Value(), 5)

	counter.SetValue(7)
	assert.Equal(t, len(seen), 2)
	assert.Equal(t, seen[1], 7)
	assert.Equal(t, counter.Value(), 7)
}

func TestVerifiedStateSubAppliesSamePredicateToDescendants(t *testing.T) {
	root := Root(map[string]any{
		"stats": map[string]any{"score": 10},
	})
	stats := Verified(root, monotoneIncrease)
	score := stats.Sub("stats").Sub("score")

	score.SetValue(4)
	assert.Equal(t, score.Value(), 10)

	score.SetValue(20)
	assert.Equal(t, score.Value(), 20)
}

func TestVerifiedStateObserveIsGated(t *testing.T) {
	root := Root(map[string]any{"counter": 5})
	counter := Verified(root.Sub("counter"), monotoneIncrease)

	counter.Observe(1)
	assert.Equal(t, counter.Value(), 5)

	counter.Observe(9)
	assert.Equal(t, counter.Value(), 9)
}
