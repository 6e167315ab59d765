package memdocs

import (
	"reflect"

	"github.com/dalemusser/dispatchhub/internal/app/store/docstore"
)

// match evaluates `v op want`. Numbers compare by value regardless of Go type;
// mismatched kinds only satisfy "!=".
func match(v any, op docstore.Op, want any) bool {
	if op == docstore.OpIn {
		list := reflect.ValueOf(want)
		if list.Kind() != reflect.Slice && list.Kind() != reflect.Array {
			return false
		}
		for i := 0; i < list.Len(); i++ {
			if c, ok := compare(v, list.Index(i).Interface()); ok && c == 0 {
				return true
			}
		}
		return false
	}

	c, ok := compare(v, want)
	if !ok {
		return op == docstore.OpNotEqual
	}
	switch op {
	case docstore.OpEqual:
		return c == 0
	case docstore.OpNotEqual:
		return c != 0
	case docstore.OpLess:
		return c < 0
	case docstore.OpLessOrEqual:
		return c <= 0
	case docstore.OpGreater:
		return c > 0
	case docstore.OpGreaterOrEqual:
		return c >= 0
	}
	return false
}

// compare orders a against b. ok is false when the two are not comparable.
func compare(a, b any) (int, bool) {
	if af, ok := toFloat(a); ok {
		bf, ok := toFloat(b)
		if !ok {
			return 0, false
		}
		switch {
		case af < bf:
			return -1, true
		case af > bf:
			return 1, true
		}
		return 0, true
	}

	switch av := a.(type) {
	case string:
		bv, ok := b.(string)
		if !ok {
			return 0, false
		}
		switch {
		case av < bv:
			return -1, true
		case av > bv:
			return 1, true
		}
		return 0, true
	case bool:
		bv, ok := b.(bool)
		if !ok {
			return 0, false
		}
		if av == bv {
			return 0, true
		}
		if !av {
			return -1, true
		}
		return 1, true
	case nil:
		if b == nil {
			return 0, true
		}
		return 0, false
	}
	return 0, false
}

func toFloat(v any) (float64, bool) {
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(rv.Int()), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return float64(rv.Uint()), true
	case reflect.Float32, reflect.Float64:
		return rv.Float(), true
	}
	return 0, false
}
