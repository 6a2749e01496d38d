package domain

// Field is an optionally supplied value in a partial update. The zero value
// means "unchanged"; SetTo marks the field as supplied, even when v is the
// zero value of T (a nil *string clears a nullable attribute).
type Field[T any] struct {
	Set   bool
	Value T
}

// SetTo returns a supplied field holding v.
func SetTo[T any](v T) Field[T] {
	return Field[T]{Set: true, Value: v}
}

// Unchanged returns an omitted field.
func Unchanged[T any]() Field[T] {
	return Field[T]{}
}

// Or returns the field value when set, otherwise fallback.
func (f Field[T]) Or(fallback T) T {
	if f.Set {
		return f.Value
	}
	return fallback
}
