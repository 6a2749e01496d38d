package handler

import (
	"encoding/json"

	"github.com/clinictrack/user-service/internal/core/domain"
)

// optional records whether a JSON key was present, and whether it was null.
// Keys absent from the body never reach UnmarshalJSON, so Set stays false.
type optional[T any] struct {
	Set   bool
	Null  bool
	Value T
}

func (o *optional[T]) UnmarshalJSON(data []byte) error {
	o.Set = true
	if string(data) == "null" {
		o.Null = true
		return nil
	}
	return json.Unmarshal(data, &o.Value)
}

// presentText converts a string key into a field update. Null and "" leave
// the attribute unchanged.
func presentText(o optional[string]) domain.Field[string] {
	if !o.Set || o.Null || o.Value == "" {
		return domain.Unchanged[string]()
	}
	return domain.SetTo(o.Value)
}

// nullableText converts a nullable string key: null or "" clears the attribute.
func nullableText(o optional[string]) domain.Field[*string] {
	if !o.Set {
		return domain.Unchanged[*string]()
	}
	if o.Null || o.Value == "" {
		return domain.SetTo[*string](nil)
	}
	v := o.Value
	return domain.SetTo(&v)
}
