package model

import (
	"bytes"
	"encoding/json"
)

type Note struct {
	ID          int64   `json:"id"`
	Name        string  `json:"name"`
	Description *string `json:"description"`
}

// NotePatch carries the fields of a partial update. Fields that are not Set
// keep their stored value.
type NotePatch struct {
	Name        OptionalString
	Description OptionalString
}

// Empty reports whether the patch would change nothing.
func (p NotePatch) Empty() bool {
	return !p.Name.Set && !p.Description.Set
}

// OptionalString tracks whether a JSON field was present at all, separately
// from whether it was null.
type OptionalString struct {
	Set   bool
	Value *string
}

// Some returns a set OptionalString holding s.
func Some(s string) OptionalString {
	return OptionalString{Set: true, Value: &s}
}

// Null returns a set OptionalString holding an explicit null.
func Null() OptionalString {
	return OptionalString{Set: true}
}

// UnmarshalJSON is only invoked by encoding/json when the key is present.
func (o *OptionalString) UnmarshalJSON(data []byte) error {
	o.Set = true
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		o.Value = nil
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	o.Value = &s
	return nil
}
