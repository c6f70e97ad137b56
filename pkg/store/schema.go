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
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"go.uber.org/zap"
)

// FieldType names the value kinds understood by Schema.
type FieldType string

const (
	FieldString  FieldType = "string"
	FieldNumber  FieldType = "number"
	FieldBoolean FieldType = "boolean"
	FieldObject  FieldType = "object"
	FieldArray   FieldType = "array"
)

// FieldRule constrains a single state key.
type FieldRule struct {
	// Required fails validation when the key is absent.
	Required bool
	// Type, when set, must match the kind of a present value.
	Type FieldType
	// Validate, when set, must accept a present value.
	Validate func(value any) bool
}

// Schema is a shallow set of rules keyed by state key. Keys missing from the
// state are only checked for Required.
type Schema map[string]FieldRule

// StateValidator checks a copy of the state values.
type StateValidator interface {
	ValidateState(values map[string]any) error
}

// Violation describes one key that failed a Schema rule.
type Violation struct {
	Key    string
	Reason string
}

// SchemaError lists every violation found by Schema.ValidateState.
type SchemaError struct {
	Violations []Violation
}

func (e *SchemaError) Error() string {
	parts := make([]string, 0, len(e.Violations))
	for _, v := range e.Violations {
		parts = append(parts, v.Key+": "+v.Reason)
	}
	return "state does not match schema: " + strings.Join(parts, "; ")
}

// ValidateState implements StateValidator.
func (sc Schema) ValidateState(values map[string]any) error {
	keys := make([]string, 0, len(sc))
	for key := range sc {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	var violations []Violation
	for _, key := range keys {
		rule := sc[key]
		value, ok := values[key]
		if !ok {
			if rule.Required {
				violations = append(violations, Violation{Key: key, Reason: "required"})
			}
			continue
		}
		if rule.Type != "" && !matchesType(rule.Type, value) {
			violations = append(violations, Violation{Key: key, Reason: fmt.Sprintf("expected %s", rule.Type)})
			continue
		}
		if rule.Validate != nil && !rule.Validate(value) {
			violations = append(violations, Violation{Key: key, Reason: "rejected by validator"})
		}
	}

	if len(violations) > 0 {
		return &SchemaError{Violations: violations}
	}
	return nil
}

func matchesType(t FieldType, value any) bool {
	if value == nil {
		return false
	}
	kind := reflect.TypeOf(value).Kind()
	switch t {
	case FieldString:
		return kind == reflect.String
	case FieldBoolean:
		return kind == reflect.Bool
	case FieldNumber:
		if _, ok := value.(json.Number); ok {
			return true
		}
		switch kind {
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
			reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
			reflect.Float32, reflect.Float64:
			return true
		}
		return false
	case FieldObject:
		return kind == reflect.Map || kind == reflect.Struct
	case FieldArray:
		return kind == reflect.Slice || kind == reflect.Array
	default:
		return false
	}
}

// JSONSchema validates state against a JSON Schema document.
type JSONSchema struct {
	schema *jsonschema.Schema
}

// CompileJSONSchema compiles a JSON Schema document.
func CompileJSONSchema(src string) (*JSONSchema, error) {
	schema, err := jsonschema.CompileString("state.schema.json", src)
	if err != nil {
		return nil, fmt.Errorf("compile state schema: %w", err)
	}
	return &JSONSchema{schema: schema}, nil
}

// ValidateState implements StateValidator. The values are converted to their
// JSON form before validation.
func (j *JSONSchema) ValidateState(values map[string]any) error {
	data, err := json.Marshal(values)
	if err != nil {
		return fmt.Errorf("encode state: %w", err)
	}
	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("decode state: %w", err)
	}
	return j.schema.Validate(doc)
}

// ValidateState checks the current state against schema. It never changes
// the state.
func (s *Store) ValidateState(schema Schema) bool {
	return s.ValidateStateWith(schema)
}

// ValidateStateWith checks the current state with any StateValidator.
func (s *Store) ValidateStateWith(validator StateValidator) bool {
	if validator == nil {
		return true
	}
	if err := validator.ValidateState(s.GetState()); err != nil {
		s.logger.Debug("state validation failed", zap.Error(err))
		return false
	}
	return true
}
