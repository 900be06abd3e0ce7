// Package domain holds the catalog's core types.
package domain

// Optional marks whether a value was supplied. The zero Optional is "not provided",
// which is distinct from a provided zero value.
type Optional[T any] struct {
	Value T
	Set   bool
}

// Some returns a provided Optional holding v.
func Some[T any](v T) Optional[T] {
	return Optional[T]{Value: v, Set: true}
}

// None returns an Optional that was not provided.
func None[T any]() Optional[T] {
	return Optional[T]{}
}

// Get returns the value and whether it was provided.
func (o Optional[T]) Get() (T, bool) {
	return o.Value, o.Set
}

// Or returns the value when provided, otherwise fallback.
func (o Optional[T]) Or(fallback T) T {
	if o.Set {
		return o.Value
	}
	return fallback
}
