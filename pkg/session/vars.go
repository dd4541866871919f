package session

import (
	"encoding/json"
	"sort"
)

// Vars holds conversation-level state (counters, extracted facts, profile
// fields) as an immutable string-keyed map. The zero value is an empty, usable
// Vars. Every mutation returns a new value; the original is never altered.
//
// No ordering is guaranteed across keys. Keys() sorts purely for stable output.
type Vars struct {
	m map[string]any
}

// NewVars creates a Vars from an initial map. The input is copied, so later
// mutation of the argument is not observable through the returned value.
func NewVars(init map[string]any) Vars {
	return Vars{m: copyMap(init)}
}

// Get returns the value for key and whether it was present.
func (v Vars) Get(key string) (any, bool) {
	val, ok := v.m[key]
	return val, ok
}

// GetDefault returns the value for key, or def if the key is absent.
func (v Vars) GetDefault(key string, def any) any {
	if val, ok := v.m[key]; ok {
		return val
	}
	return def
}

// Set returns a new Vars with key bound to value.
func (v Vars) Set(key string, value any) Vars {
	next := copyMap(v.m)
	next[key] = value
	return Vars{m: next}
}

// Delete returns a new Vars without key.
func (v Vars) Delete(key string) Vars {
	next := copyMap(v.m)
	delete(next, key)
	return Vars{m: next}
}

// Merge returns a new Vars with all entries of other applied on top of v.
func (v Vars) Merge(other Vars) Vars {
	next := copyMap(v.m)
	for k, val := range other.m {
		next[k] = val
	}
	return Vars{m: next}
}

// Patch returns a new Vars with all entries of the given map applied on top.
func (v Vars) Patch(values map[string]any) Vars {
	next := copyMap(v.m)
	for k, val := range values {
		next[k] = val
	}
	return Vars{m: next}
}

// Len returns the number of entries.
func (v Vars) Len() int {
	return len(v.m)
}

// Keys returns all keys, sorted.
func (v Vars) Keys() []string {
	keys := make([]string, 0, len(v.m))
	for k := range v.m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// AsMap returns a copy of the underlying map.
func (v Vars) AsMap() map[string]any {
	return copyMap(v.m)
}

// MarshalJSON encodes the Vars as a plain JSON object.
func (v Vars) MarshalJSON() ([]byte, error) {
	if v.m == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(v.m)
}

// UnmarshalJSON decodes a plain JSON object into the Vars.
func (v *Vars) UnmarshalJSON(data []byte) error {
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return err
	}
	v.m = m
	return nil
}

func copyMap(src map[string]any) map[string]any {
	dst := make(map[string]any, len(src))
	for k, val := range src {
		dst[k] = val
	}
	return dst
}
