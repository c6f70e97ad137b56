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

// Package document implements the action family of the editor document: a
// title, an HTML body built from named templates, free-form metadata and the
// derived word count and dirty flag.
//
// Every action has a typed payload validated when the action is built.
// Decode turns untyped input, such as a YAML script entry or an HTTP body,
// into the same typed actions.
package document

import (
	"errors"

	"github.com/go-playground/validator/v10"

	"github.com/innovationmech/scribe/pkg/store"
)

// Action types.
const (
	TypeSetTitle      = "document/setTitle"
	TypeSetContent    = "document/setContent"
	TypeAppendContent = "document/appendContent"
	TypeApplyTemplate = "document/applyTemplate"
	TypeSetMetadata   = "document/setMetadata"
	TypeMarkSaved     = "document/markSaved"
)

// State keys.
const (
	KeyTitle     = "title"
	KeyContent   = "content"
	KeyTemplate  = "template"
	KeyMetadata  = "metadata"
	KeyWordCount = "wordCount"
	KeyDirty     = "dirty"
)

var (
	// ErrUnknownAction is returned by Decode for types outside the family.
	ErrUnknownAction = errors.New("unknown document action")
	// ErrInvalidPayload wraps payload decoding and validation failures.
	ErrInvalidPayload = errors.New("invalid document payload")
)

// SetTitle replaces the document title.
type SetTitle struct {
	Title string `json:"title" mapstructure:"title" validate:"max=200"`
}

// SetContent replaces the document body.
type SetContent struct {
	HTML string `json:"html" mapstructure:"html"`
}

// AppendContent appends a fragment to the document body.
type AppendContent struct {
	HTML string `json:"html" mapstructure:"html" validate:"required"`
}

// ApplyTemplate resets title and body from a named template.
type ApplyTemplate struct {
	Name string `json:"name" mapstructure:"name" validate:"required,template"`
}

// SetMetadata sets one metadata entry. A nil Value removes the entry.
type SetMetadata struct {
	Key   string `json:"key" mapstructure:"key" validate:"required,max=64"`
	Value any    `json:"value" mapstructure:"value"`
}

// MarkSaved clears the dirty flag.
type MarkSaved struct{}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	_ = v.RegisterValidation("template", func(fl validator.FieldLevel) bool {
		_, ok := LookupTemplate(fl.Field().String())
		return ok
	})
	return v
}

// Validator returns the validator used for document payloads, with the
// "template" tag registered. It suits the store validation middleware.
func Validator() *validator.Validate {
	return validate
}

func build(actionType string, payload any) (store.Action, error) {
	if err := validate.Struct(payload); err != nil {
		return store.Action{}, payloadError(actionType, err)
	}
	return store.Action{Type: actionType, Payload: payload}, nil
}

// NewSetTitle builds a TypeSetTitle action.
func NewSetTitle(title string) (store.Action, error) {
	return build(TypeSetTitle, SetTitle{Title: title})
}

// NewSetContent builds a TypeSetContent action.
func NewSetContent(html string) (store.Action, error) {
	return build(TypeSetContent, SetContent{HTML: html})
}

// NewAppendContent builds a TypeAppendContent action.
func NewAppendContent(html string) (store.Action, error) {
	return build(TypeAppendContent, AppendContent{HTML: html})
}

// NewApplyTemplate builds a TypeApplyTemplate action.
func NewApplyTemplate(name string) (store.Action, error) {
	return build(TypeApplyTemplate, ApplyTemplate{Name: name})
}

// NewSetMetadata builds a TypeSetMetadata action.
func NewSetMetadata(key string, value any) (store.Action, error) {
	return build(TypeSetMetadata, SetMetadata{Key: key, Value: value})
}

// NewMarkSaved builds a TypeMarkSaved action.
func NewMarkSaved() store.Action {
	return store.Action{Type: TypeMarkSaved, Payload: MarkSaved{}}
}

// InitialState returns the state of a new, blank document.
func InitialState() map[string]any {
	return map[string]any{
		KeyTitle:     "",
		KeyContent:   "",
		KeyTemplate:  "blank",
		KeyMetadata:  map[string]any{},
		KeyWordCount: 0,
		KeyDirty:     false,
	}
}

// Schema returns the shape every document state must keep.
func Schema() store.Schema {
	return store.Schema{
		KeyTitle:    {Required: true, Type: store.FieldString},
		KeyContent:  {Required: true, Type: store.FieldString},
		KeyTemplate: {Type: store.FieldString},
		KeyMetadata: {Type: store.FieldObject},
		KeyWordCount: {
			Required: true,
			Type:     store.FieldNumber,
			Validate: func(v any) bool {
				n, ok := store.Int(v)
				return ok && n >= 0
			},
		},
		KeyDirty: {Type: store.FieldBoolean},
	}
}
