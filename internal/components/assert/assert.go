// Package assert holds constructor preconditions, a failed assertion is a programming
// error so it panics instead of returning an error.
package assert

import (
	"fmt"
	"reflect"
)

func isNil(value any) bool {
	if value == nil {
		return true
	}
	v := reflect.ValueOf(value)
	switch v.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan, reflect.Interface:
		return v.IsNil()
	}
	return false
}

// NotNil panics if `value` is nil, a nil pointer (or map, slice, func, chan) stored
// in an interface counts as nil too.
func NotNil(value any) {
	if isNil(value) {
		panic(fmt.Sprintf("expected %T to be not nil", value))
	}
}

func NotEmptyStr(str string) {
	if str == "" {
		panic("expected string to be non-empty")
	}
}
