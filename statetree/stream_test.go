package statetree

import (
	"testing"

	"github.com/go-playground/assert/v2"
)

func TestMapAppliesFnAndReplaysToLateSubscriber(t *testing.T) {
	src := NewStream[int]()
	doubled := Map(src, func(v int) int { return v * 2 })

	src.Emit(3)
	src.Emit(4)

	var got []int
	doubled.SubscribeFunc(func(v int) { got = append(got, v) })
	assert.Equal(t, got, []int{8})

	src.Emit(5)
	assert.Equal(t, got, []int{8, 10})
}

func TestFilterOnlyForwardsValuesPassingPredicate(t *testing.T) {
	src := NewStream[int]()
	evens := Filter(src, func(v int) bool { return v%2 == 0 })

	var got []int
	evens.SubscribeFunc(func(v int) { got = append(got, v) })

	src.Emit(1)
	src.Emit(2)
	src.Emit(3)
	src.Emit(4)

	assert.Equal(t, got, []int{2, 4})
}

func TestDistinctSuppressesOnlyConsecutiveEqualValues(t *testing.T) {
	src := NewStream[int]()
	distinct := Distinct(src, func(a, b int) bool { return a == b })

	var got []int
	distinct.SubscribeFunc(func(v int) { got = append(got, v) })

	src.Emit(1)
	src.Emit(1)
	src.Emit(2)
	src.Emit(2)
	src.Emit(1)

	assert.Equal(t, got, []int{1, 2, 1})
}

func TestPairwiseEmitsFromSecondValueOnwardWithCorrectWindow(t *testing.T) {
	src := NewStream[int]()
	pairs := Pairwise(src)

	var got []Pair[int]
	pairs.SubscribeFunc(func(p Pair[int]) { got = append(got, p) })

	src.Emit(1)
	assert.Equal(t, len(got), 0)

	src.Emit(2)
	assert.Equal(t, len(got), 1)
	assert.Equal(t, got[0], Pair[int]{Prev: 1, Curr: 2})

	src.Emit(3)
	assert.Equal(t, len(got), 2)
	assert.Equal(t, got[1], Pair[int]{Prev: 2, Curr: 3})
}

func TestMergeInterleavesEverySourceInEmissionOrder(t *testing.T) {
	a := NewStream[int]()
	b := NewStream[int]()
	merged := Merge(a, b)

	var got []int
	merged.SubscribeFunc(func(v int) { got = append(got, v) })

	a.Emit(1)
	b.Emit(2)
	a.Emit(3)

	assert.Equal(t, got, []int{1, 2, 3})
}

func TestTakeUntilStopsForwardingAfterUntilEmitsOnce(t *testing.T) {
	src := NewStream[int]()
	until := NewStream[struct{}]()
	limited := TakeUntil(src, until)

	var got []int
	limited.SubscribeFunc(func(v int) { got = append(got, v) })

	src.Emit(1)
	src.Emit(2)
	until.Emit(struct{}{})
	src.Emit(3)
	src.Emit(4)

	assert.Equal(t, got, []int{1, 2})
}
