package common

import "sort"

// Value is an entry in the key/value domain: bool, float64, string, []Value,
// map[string]Value or nil. Keys and values share this domain. Comparator
// implementations only need to handle these concrete shapes.
type Value interface{}

// Comparator totally orders two Values, returning <0, 0, >0 like bytes.Compare.
type Comparator func(a, b Value) int

// valueRank assigns the default ordering's type precedence:
// boolean < number < string < array < object < null.
func valueRank(v Value) int {
	switch v.(type) {
	case bool:
		return 0
	case float64, int, int64:
		return 1
	case string:
		return 2
	case []Value:
		return 3
	case map[string]Value:
		return 4
	case nil:
		return 5
	default:
		return 5
	}
}

func numericOf(v Value) float64 {
	switch t := v.(type) {
	case float64:
		return t
	case int:
		return float64(t)
	case int64:
		return float64(t)
	}
	return 0
}

// DefaultComparator implements the comparator described in the data model:
// boolean < number < string < array < object < null; lexicographic strings
// (by code point) and arrays; objects compare shorter-key-set first, then
// key-wise then value-wise over lexicographically sorted key sets.
func DefaultComparator(a, b Value) int {
	ra, rb := valueRank(a), valueRank(b)
	if ra != rb {
		return ra - rb
	}
	switch ra {
	case 0:
		ba, bb := a.(bool), b.(bool)
		if ba == bb {
			return 0
		}
		if !ba && bb {
			return -1
		}
		return 1
	case 1:
		na, nb := numericOf(a), numericOf(b)
		switch {
		case na < nb:
			return -1
		case na > nb:
			return 1
		default:
			return 0
		}
	case 2:
		sa, sb := a.(string), b.(string)
		switch {
		case sa < sb:
			return -1
		case sa > sb:
			return 1
		default:
			return 0
		}
	case 3:
		return compareArrays(a.([]Value), b.([]Value))
	case 4:
		return compareObjects(a.(map[string]Value), b.(map[string]Value))
	default:
		return 0
	}
}

func compareArrays(a, b []Value) int {
	for i := 0; i < len(a) && i < len(b); i++ {
		if c := DefaultComparator(a[i], b[i]); c != 0 {
			return c
		}
	}
	return len(a) - len(b)
}

func compareObjects(a, b map[string]Value) int {
	ka, kb := sortedKeys(a), sortedKeys(b)
	if len(ka) != len(kb) {
		return len(ka) - len(kb)
	}
	for i := range ka {
		if ka[i] != kb[i] {
			if ka[i] < kb[i] {
				return -1
			}
			return 1
		}
	}
	for _, k := range ka {
		if c := DefaultComparator(a[k], b[k]); c != 0 {
			return c
		}
	}
	return 0
}

func sortedKeys(m map[string]Value) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// ValueEqual is the default value-equality predicate used to elide a write
// when the incoming value compares equal to the value already stored
// (see the "equal-value optimization", §4.4).
func ValueEqual(cmp Comparator, a, b Value) bool {
	return cmp(a, b) == 0
}
