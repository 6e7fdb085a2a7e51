package enums

import (
	"fmt"
	"slices"
)

// The enums are stored and sent as their upper-case names; parsing is exact.

func known[T ~string](set []T, v T) bool {
	return slices.Contains(set, v)
}

func parse[T ~string](set []T, value, kind string) (T, error) {
	if v := T(value); known(set, v) {
		return v, nil
	}
	var zero T
	return zero, fmt.Errorf("invalid %s %q", kind, value)
}
