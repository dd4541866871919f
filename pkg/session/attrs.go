package session

import "encoding/json"

// Attrs holds metadata scoped to a single message (timestamps, provenance,
// tool-call ids). Same shape and immutability rules as Vars, kept as a
// distinct type so message metadata and conversation state cannot be mixed up.
type Attrs struct {
	m map[string]any
}

// NewAttrs creates an Attrs from an initial map. The input is copied.
func NewAttrs(init map[string]any) Attrs {
	return Attrs{m: copyMap(init)}
}

// Get returns the value for key and whether it was present.
func (a Attrs) Get(key string) (any, bool) {
	val, ok := a.m[key]
	return val, ok
}

// GetDefault returns the value for key, or def if the key is absent.
func (a Attrs) GetDefault(key string, def any) any {
	if val, ok := a.m[key]; ok {
		return val
	}
	return def
}

// Set returns a new Attrs with key bound to value.
func (a Attrs) Set(key string, value any) Attrs {
	next := copyMap(a.m)
	next[key] = value
	return Attrs{m: next}
}

// Len returns the number of entries.
func (a Attrs) Len() int {
	return len(a.m)
}

// AsMap returns a copy of the underlying map.
func (a Attrs) AsMap() map[string]any {
	return copyMap(a.m)
}

// MarshalJSON encodes the Attrs as a plain JSON object.
func (a Attrs) MarshalJSON() ([]byte, error) {
	if a.m == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(a.m)
}

// UnmarshalJSON decodes a plain JSON object into the Attrs.
func (a *Attrs) UnmarshalJSON(data []byte) error {
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return err
	}
	a.m = m
	return nil
}
