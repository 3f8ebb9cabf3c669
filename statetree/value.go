package statetree

import "reflect"

// Key is documentation-only: a path element must be a string (field name)
// or a non-negative int (sequence index). Values are otherwise untyped: a
// mapping is a map[string]any, a sequence is a []any, and anything else is
// a leaf.

// pluck reads the value addressed by path within root. A missing field or
// an out-of-range index plucks as nil rather than erroring, since absence
// is treated as a node whose value happens to be nil. Walking through a
// leaf with path remaining is an addressing error, since a leaf has no
// further structure.
func pluck(root any, path []any) (any, error) {
	v := root
	for i, key := range path {
		switch k := key.(type) {
		case string:
			if v == nil {
				return nil, nil
			}
			m, ok := v.(map[string]any)
			if !ok {
				return nil, notAddressableErr(k, path[:i], v)
			}
			v = m[k]
		case int:
			if k < 0 {
				return nil, invalidKeyErr(key)
			}
			if v == nil {
				return nil, nil
			}
			s, ok := v.([]any)
			if !ok {
				return nil, notAddressableErr(k, path[:i], v)
			}
			if k >= len(s) {
				return nil, nil
			}
			v = s[k]
		default:
			return nil, invalidKeyErr(key)
		}
	}
	return v, nil
}

// replace returns a new root with the value at path replaced by to. Every
// ancestor container along path is shallow-copied - a mapping becomes a new
// mapping with only the addressed field differing, a sequence becomes a new
// sequence of at least the same length - so siblings are shared by
// reference with the original root. A missing field or short sequence is
// grown on demand, consistent with pluck treating them as present-but-nil.
func replace(root any, path []any, to any) (any, error) {
	if len(path) == 0 {
		return to, nil
	}
	key := path[0]
	switch k := key.(type) {
	case string:
		m := map[string]any{}
		if existing, ok := root.(map[string]any); ok {
			for field, v := range existing {
				m[field] = v
			}
		} else if root != nil {
			return nil, notAddressableErr(k, nil, root)
		}
		child, err := replace(m[k], path[1:], to)
		if err != nil {
			return nil, err
		}
		m[k] = child
		return m, nil
	case int:
		if k < 0 {
			return nil, invalidKeyErr(key)
		}
		var s []any
		if existing, ok := root.([]any); ok {
			s = make([]any, len(existing))
			copy(s, existing)
		} else if root != nil {
			return nil, notAddressableErr(k, nil, root)
		}
		for len(s) <= k {
			s = append(s, nil)
		}
		child, err := replace(s[k], path[1:], to)
		if err != nil {
			return nil, err
		}
		s[k] = child
		return s, nil
	default:
		return nil, invalidKeyErr(key)
	}
}

// EqualFunc decides whether two values are equal for the purpose of
// distinctUntilChanged deduplication. It is supplied at root construction
// and inherited by every node derived from that root.
type EqualFunc func(a, b any) bool

// defaultEqual is reference equality under the caller's immutability
// discipline: a leaf is compared by value (the natural meaning of "did not
// change" for a string or number), while a mapping or sequence is compared
// by the identity of its backing map or slice header, since Go panics on
// == between two uncomparable dynamic types (maps and slices) boxed in an
// any.
func defaultEqual(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	av := reflect.ValueOf(a)
	bv := reflect.ValueOf(b)
	if av.Kind() != bv.Kind() {
		return false
	}
	switch av.Kind() {
	case reflect.Map:
		return av.Pointer() == bv.Pointer()
	case reflect.Slice:
		return av.Pointer() == bv.Pointer() && av.Len() == bv.Len()
	default:
		if !av.Comparable() {
			return false
		}
		return a == b
	}
}

// DeepEqual is a structural-equality EqualFunc, offered for callers with
// aliasing concerns who are willing to trade comparison cost for precision.
func DeepEqual(a, b any) bool {
	return reflect.DeepEqual(a, b)
}
