package util

import "reflect"

// IsZeroVal reports whether v holds zero value of its type.
// Unlike comparison with reflect.Zero it works for non comparable types too.
func IsZeroVal(v reflect.Value) bool {
	return !v.IsValid() || v.IsZero()
}
