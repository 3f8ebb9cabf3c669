package statetree

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPluckNestedMapAndSlice(t *testing.T) {
	root := map[string]any{
		"user": map[string]any{
			"name": "Jill",
			"tags": []any{"a", "b"},
		},
	}

	v, err := pluck(root, []any{"user", "name"})
	require.NoError(t, err)
	require.Equal(t, "Jill", v)

	v, err = pluck(root, []any{"user", "tags", 1})
	require.NoError(t, err)
	require.Equal(t, "b", v)
}

func TestPluckMissingFieldIsNilNotError(t *testing.T) {
	root := map[string]any{"user": map[string]any{}}
	v, err := pluck(root, []any{"user", "nickname"})
	require.NoError(t, err, "missing field should not error")
	require.Nil(t, v, "missing field should pluck as nil")
}

func TestPluckOutOfRangeIndexIsNil(t *testing.T) {
	root := []any{"x"}
	v, err := pluck(root, []any{5})
	require.NoError(t, err)
	require.Nil(t, v)
}

func TestPluckThroughLeafIsAddressingError(t *testing.T) {
	root := map[string]any{"user": "Jill"}
	_, err := pluck(root, []any{"user", "name"})
	require.Error(t, err, "walking through a leaf should be an addressing error")
	require.ErrorIs(t, err, ErrNotAddressable)
}

func TestReplaceDoesNotMutateOriginal(t *testing.T) {
	original := map[string]any{
		"user":  map[string]any{"name": "Jill"},
		"other": "untouched",
	}

	updated, err := replace(original, []any{"user", "name"}, "Jack")
	require.NoError(t, err)

	got, _ := pluck(original, []any{"user", "name"})
	require.Equal(t, "Jill", got, "original should be untouched")

	got, _ = pluck(updated, []any{"user", "name"})
	require.Equal(t, "Jack", got)

	got, _ = pluck(updated, []any{"other"})
	require.Equal(t, "untouched", got, "sibling fields should be preserved")
}

func TestReplaceGrowsMissingStructure(t *testing.T) {
	updated, err := replace(nil, []any{"a", 2, "b"}, "x")
	require.NoError(t, err)

	got, err := pluck(updated, []any{"a", 2, "b"})
	require.NoError(t, err)
	require.Equal(t, "x", got)
}

func TestReplaceThroughLeafIsAddressingError(t *testing.T) {
	_, err := replace(map[string]any{"user": "Jill"}, []any{"user", "name"}, "x")
	require.ErrorIs(t, err, ErrNotAddressable)
}

func TestDefaultEqualLeavesByValue(t *testing.T) {
	require.True(t, defaultEqual("a", "a"))
	require.False(t, defaultEqual("a", "b"))
	require.True(t, defaultEqual(nil, nil))
}

func TestDefaultEqualMapsByReference(t *testing.T) {
	m := map[string]any{"a": 1}
	clone := map[string]any{"a": 1}

	require.True(t, defaultEqual(m, m), "a map should equal itself")
	require.False(t, defaultEqual(m, clone), "two distinct maps with equal contents are not reference-equal")
}

func TestDeepEqualComparesStructurally(t *testing.T) {
	a := map[string]any{"a": []any{1, 2}}
	b := map[string]any{"a": []any{1, 2}}
	require.True(t, DeepEqual(a, b), "structurally identical values should deep-equal")
}
