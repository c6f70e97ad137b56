// Copyright © 2025 jackelyj <dreamerlyj@gmail.com>
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in
// all copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN
// THE SOFTWARE.
//

package store

import (
	"encoding/json"
	"reflect"
	"sort"
)

// State is an immutable mapping from string keys to JSON-like values.
//
// A State is never changed after construction. Methods that derive a new
// state (With, Without, Merge) return a new *State and leave the receiver
// untouched, which is what lets the store detect no-op reductions by pointer
// comparison. Values handed in are deep-copied and values handed out are deep
// copies, so callers cannot reach the stored maps and slices.
//
// Values are stored in the form encoding/json decodes into (float64 numbers,
// map[string]any, []any), so a state survives a persist and load unchanged.
//
// The read methods of a nil *State behave like an empty state.
type State struct {
	values map[string]any
}

// NewState creates a State holding a deep copy of values.
func NewState(values map[string]any) *State {
	return &State{values: cloneMap(values)}
}

// Len returns the number of keys.
func (s *State) Len() int {
	if s == nil {
		return 0
	}
	return len(s.values)
}

// Has reports whether key is present.
func (s *State) Has(key string) bool {
	if s == nil {
		return false
	}
	_, ok := s.values[key]
	return ok
}

// Get returns a copy of the value stored under key.
func (s *State) Get(key string) (any, bool) {
	if s == nil {
		return nil, false
	}
	v, ok := s.values[key]
	if !ok {
		return nil, false
	}
	return cloneValue(v), true
}

// Value returns a copy of the value stored under key, or nil.
func (s *State) Value(key string) any {
	v, _ := s.Get(key)
	return v
}

// Keys returns the keys in sorted order.
func (s *State) Keys() []string {
	if s == nil {
		return nil
	}
	keys := make([]string, 0, len(s.values))
	for k := range s.values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Map returns a deep copy of the state as a plain map.
func (s *State) Map() map[string]any {
	if s == nil {
		return map[string]any{}
	}
	return cloneMap(s.values)
}

// With returns a new State where key holds value.
func (s *State) With(key string, value any) *State {
	next := s.shallowCopy(1)
	next[key] = cloneValue(value)
	return &State{values: next}
}

// Without returns a new State with key removed.
func (s *State) Without(key string) *State {
	next := s.shallowCopy(0)
	delete(next, key)
	return &State{values: next}
}

// Merge returns a new State with every entry of values set.
func (s *State) Merge(values map[string]any) *State {
	next := s.shallowCopy(len(values))
	for k, v := range values {
		next[k] = cloneValue(v)
	}
	return &State{values: next}
}

// Equal reports whether both states hold structurally equal values.
func (s *State) Equal(other *State) bool {
	if s == other {
		return true
	}
	return reflect.DeepEqual(s.mapOrEmpty(), other.mapOrEmpty())
}

// MarshalJSON encodes the state as a JSON object.
func (s *State) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.mapOrEmpty())
}

// stored values are never mutated, so sharing them between states is safe.
func (s *State) shallowCopy(extra int) map[string]any {
	next := make(map[string]any, s.Len()+extra)
	if s != nil {
		for k, v := range s.values {
			next[k] = v
		}
	}
	return next
}

func (s *State) mapOrEmpty() map[string]any {
	if s == nil || s.values == nil {
		return map[string]any{}
	}
	return s.values
}

func cloneMap(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = cloneValue(v)
	}
	return out
}

// cloneValue returns a deep copy of v in the shape encoding/json decodes
// into: numbers become float64, maps with string keys become map[string]any
// and slices become []any. Anything else goes through a JSON round trip. A
// value that cannot be encoded is kept as it is and fails at persist time.
func cloneValue(v any) any {
	switch t := v.(type) {
	case nil, string, bool, float64:
		return v
	case map[string]any:
		return cloneMap(t)
	case []any:
		out := make([]any, len(t))
		for i := range t {
			out[i] = cloneValue(t[i])
		}
		return out
	case json.Number:
		if f, err := t.Float64(); err == nil {
			return f
		}
		return t.String()
	case []byte:
		return jsonValue(v)
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(rv.Int())
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return float64(rv.Uint())
	case reflect.Float32:
		return rv.Float()
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			return jsonValue(v)
		}
		if rv.IsNil() {
			return nil
		}
		out := make(map[string]any, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			out[iter.Key().String()] = cloneValue(iter.Value().Interface())
		}
		return out
	case reflect.Slice, reflect.Array:
		if rv.Kind() == reflect.Slice && rv.IsNil() {
			return nil
		}
		out := make([]any, rv.Len())
		for i := 0; i < rv.Len(); i++ {
			out[i] = cloneValue(rv.Index(i).Interface())
		}
		return out
	default:
		return jsonValue(v)
	}
}

// JSONValue returns a deep copy of v in the form a State stores it, which is
// the form it takes after a JSON round trip.
func JSONValue(v any) any {
	return cloneValue(v)
}

func jsonValue(v any) any {
	data, err := json.Marshal(v)
	if err != nil {
		return v
	}
	var out any
	if err := json.Unmarshal(data, &out); err != nil {
		return v
	}
	return out
}

// Int converts a numeric state value to int. Numbers decoded from persisted
// snapshots are float64, so reducers reading counters should go through Int.
func Int(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int32:
		return int(n), true
	case int64:
		return int(n), true
	case float32:
		return int(n), true
	case float64:
		return int(n), true
	case json.Number:
		i, err := n.Int64()
		if err != nil {
			f, ferr := n.Float64()
			if ferr != nil {
				return 0, false
			}
			return int(f), true
		}
		return int(i), true
	default:
		return 0, false
	}
}

// String returns v as a string if it is one.
func String(v any) (string, bool) {
	s, ok := v.(string)
	return s, ok
}
