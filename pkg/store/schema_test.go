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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSchema_ValidateState(t *testing.T) {
	schema := Schema{
		"title":   {Required: true, Type: FieldString},
		"count":   {Type: FieldNumber, Validate: func(v any) bool { n, _ := Int(v); return n >= 0 }},
		"dirty":   {Type: FieldBoolean},
		"meta":    {Type: FieldObject},
		"tags":    {Type: FieldArray},
		"comment": {},
	}

	tests := []struct {
		name     string
		state    map[string]any
		wantKeys []string
	}{
		{
			name:  "valid",
			state: map[string]any{"title": "a", "count": 1, "dirty": false, "meta": map[string]any{}, "tags": []any{}},
		},
		{
			name:  "optional keys absent",
			state: map[string]any{"title": "a"},
		},
		{
			name:  "float counts as number",
			state: map[string]any{"title": "a", "count": 2.0},
		},
		{
			name:     "required missing",
			state:    map[string]any{"count": 1},
			wantKeys: []string{"title"},
		},
		{
			name:     "wrong types",
			state:    map[string]any{"title": 1, "dirty": "yes", "meta": []any{}, "tags": "x"},
			wantKeys: []string{"dirty", "meta", "tags", "title"},
		},
		{
			name:     "custom validator",
			state:    map[string]any{"title": "a", "count": -1},
			wantKeys: []string{"count"},
		},
		{
			name:     "nil value does not match type",
			state:    map[string]any{"title": nil},
			wantKeys: []string{"title"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := schema.ValidateState(tt.state)
			if len(tt.wantKeys) == 0 {
				assert.NoError(t, err)
				return
			}
			var schemaErr *SchemaError
			require.ErrorAs(t, err, &schemaErr)
			keys := make([]string, 0, len(schemaErr.Violations))
			for _, v := range schemaErr.Violations {
				keys = append(keys, v.Key)
			}
			assert.Equal(t, tt.wantKeys, keys)
		})
	}
}

func TestStore_ValidateState(t *testing.T) {
	s := New(map[string]any{"title": "draft", "count": 0})
	s.RegisterReducer("clear", func(state *State, _ Action) (*State, error) {
		return state.Without("title"), nil
	})

	schema := Schema{"title": {Required: true, Type: FieldString}}
	assert.True(t, s.ValidateState(schema))
	assert.True(t, s.ValidateState(nil))
	assert.True(t, s.ValidateStateWith(nil))

	require.NoError(t, s.Dispatch(Action{Type: "clear"}))
	before := s.GetState()
	assert.False(t, s.ValidateState(schema))
	assert.Equal(t, before, s.GetState(), "validation never changes state")
}

func TestJSONSchema(t *testing.T) {
	validator, err := CompileJSONSchema(`{
		"type": "object",
		"required": ["title"],
		"properties": {
			"title": {"type": "string", "maxLength": 10},
			"wordCount": {"type": "integer", "minimum": 0}
		}
	}`)
	require.NoError(t, err)

	assert.NoError(t, validator.ValidateState(map[string]any{"title": "memo", "wordCount": 3}))
	assert.Error(t, validator.ValidateState(map[string]any{"wordCount": 3}))
	assert.Error(t, validator.ValidateState(map[string]any{"title": "far too long a title"}))
	assert.Error(t, validator.ValidateState(map[string]any{"title": "memo", "wordCount": -1}))

	s := New(map[string]any{"title": "memo"})
	assert.True(t, s.ValidateStateWith(validator))
}

func TestCompileJSONSchema_Invalid(t *testing.T) {
	_, err := CompileJSONSchema(`{"type": 12}`)
	assert.Error(t, err)
}
