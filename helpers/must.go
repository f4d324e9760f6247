package helpers

import "reflect"

// StrPanic panics with panicMessage if p is empty, otherwise returns p unchanged.
//
// Used for fail-fast validation of required constructor strings (broker address, channel prefix, host name).
func StrPanic(p string, panicMessage string) string {
	if p == "" {
		panic(panicMessage)
	}
	return p
}

// NilPanic panics with panicMessage if v is nil (nil interface, pointer, slice, map, chan or func), otherwise returns v.
//
// Called from every constructor in service and adapters to reject missing collaborators (transport, logger, resolver, client factory).
func NilPanic[T any](v T, panicMessage string) T {
	if isNil(v) {
		panic(panicMessage)
	}
	return v
}

// isNil treats typed nils (nil pointer stored in an interface, nil slice, ...) as nil.
func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Ptr, reflect.Slice, reflect.Map, reflect.Chan, reflect.Func, reflect.Interface:
		return rv.IsNil()
	default:
		return false
	}
}
