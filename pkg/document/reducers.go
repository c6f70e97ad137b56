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

package document

import (
	"fmt"
	"html"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/go-viper/mapstructure/v2"

	"github.com/innovationmech/scribe/pkg/store"
)

// Register installs the document reducers on s.
func Register(s *store.Store) {
	s.RegisterReducer(TypeSetTitle, reduceSetTitle)
	s.RegisterReducer(TypeSetContent, reduceSetContent)
	s.RegisterReducer(TypeAppendContent, reduceAppendContent)
	s.RegisterReducer(TypeApplyTemplate, reduceApplyTemplate)
	s.RegisterReducer(TypeSetMetadata, reduceSetMetadata)
	s.RegisterReducer(TypeMarkSaved, reduceMarkSaved)
}

// Types returns every action type of the family.
func Types() []string {
	return []string{
		TypeSetTitle,
		TypeSetContent,
		TypeAppendContent,
		TypeApplyTemplate,
		TypeSetMetadata,
		TypeMarkSaved,
	}
}

// Decode builds a typed action from untyped input. Unknown fields and
// payloads failing validation are rejected.
func Decode(actionType string, raw map[string]any) (store.Action, error) {
	var (
		payload any
		err     error
	)
	switch actionType {
	case TypeSetTitle:
		payload, err = decodeInto[SetTitle](actionType, raw)
	case TypeSetContent:
		payload, err = decodeInto[SetContent](actionType, raw)
	case TypeAppendContent:
		payload, err = decodeInto[AppendContent](actionType, raw)
	case TypeApplyTemplate:
		payload, err = decodeInto[ApplyTemplate](actionType, raw)
	case TypeSetMetadata:
		payload, err = decodeInto[SetMetadata](actionType, raw)
	case TypeMarkSaved:
		payload, err = decodeInto[MarkSaved](actionType, raw)
	default:
		return store.Action{}, fmt.Errorf("%w: %q", ErrUnknownAction, actionType)
	}
	if err != nil {
		return store.Action{}, err
	}
	return build(actionType, payload)
}

func decodeInto[T any](actionType string, raw map[string]any) (T, error) {
	var out T
	if len(raw) == 0 {
		return out, nil
	}
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:      &out,
		TagName:     "mapstructure",
		ErrorUnused: true,
	})
	if err != nil {
		return out, err
	}
	if err := dec.Decode(raw); err != nil {
		return out, fmt.Errorf("%w for %q: %v", ErrInvalidPayload, actionType, err)
	}
	return out, nil
}

// payloadAs extracts a typed payload from action. Reducers accept the struct,
// a pointer to it, or an untyped map, so actions replayed from scripts and
// actions built in code behave the same.
func payloadAs[T any](action store.Action) (T, error) {
	var out T
	switch p := action.Payload.(type) {
	case T:
		out = p
	case *T:
		if p != nil {
			out = *p
		}
	case map[string]any:
		decoded, err := decodeInto[T](action.Type, p)
		if err != nil {
			return out, err
		}
		out = decoded
	case nil:
	default:
		return out, fmt.Errorf("%w for %q: unexpected %T", ErrInvalidPayload, action.Type, action.Payload)
	}
	if err := validate.Struct(out); err != nil {
		return out, payloadError(action.Type, err)
	}
	return out, nil
}

func payloadError(actionType string, err error) error {
	verrs, ok := err.(validator.ValidationErrors)
	if !ok || len(verrs) == 0 {
		return fmt.Errorf("%w for %q: %v", ErrInvalidPayload, actionType, err)
	}
	fields := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, fmt.Sprintf("%s failed on %q", fe.Field(), fe.Tag()))
	}
	return fmt.Errorf("%w for %q: %s", ErrInvalidPayload, actionType, strings.Join(fields, ", "))
}

// update merges updates into state and marks it dirty. It returns state itself
// when nothing would change, which the store treats as a no-op.
func update(state *store.State, updates map[string]any) *store.State {
	changed := false
	for key, value := range updates {
		if !sameValue(state.Value(key), value) {
			changed = true
			break
		}
	}
	if !changed {
		return state
	}
	updates[KeyDirty] = true
	return state.Merge(updates)
}

// sameValue compares values in their stored form, so an int payload matches
// the float64 the state holds.
func sameValue(a, b any) bool {
	return reflect.DeepEqual(store.JSONValue(a), store.JSONValue(b))
}

func content(state *store.State) string {
	s, _ := store.String(state.Value(KeyContent))
	return s
}

func withBody(body string, updates map[string]any) map[string]any {
	updates[KeyContent] = body
	updates[KeyWordCount] = WordCount(body)
	return updates
}

func reduceSetTitle(state *store.State, action store.Action) (*store.State, error) {
	p, err := payloadAs[SetTitle](action)
	if err != nil {
		return nil, err
	}
	return update(state, map[string]any{KeyTitle: p.Title}), nil
}

func reduceSetContent(state *store.State, action store.Action) (*store.State, error) {
	p, err := payloadAs[SetContent](action)
	if err != nil {
		return nil, err
	}
	if p.HTML == content(state) {
		return state, nil
	}
	return update(state, withBody(p.HTML, map[string]any{})), nil
}

func reduceAppendContent(state *store.State, action store.Action) (*store.State, error) {
	p, err := payloadAs[AppendContent](action)
	if err != nil {
		return nil, err
	}
	return update(state, withBody(content(state)+p.HTML, map[string]any{})), nil
}

func reduceApplyTemplate(state *store.State, action store.Action) (*store.State, error) {
	p, err := payloadAs[ApplyTemplate](action)
	if err != nil {
		return nil, err
	}
	t, _ := LookupTemplate(p.Name)
	return update(state, withBody(t.Body, map[string]any{
		KeyTitle:    t.Title,
		KeyTemplate: t.Name,
	})), nil
}

func reduceSetMetadata(state *store.State, action store.Action) (*store.State, error) {
	p, err := payloadAs[SetMetadata](action)
	if err != nil {
		return nil, err
	}

	meta, _ := state.Value(KeyMetadata).(map[string]any)
	if meta == nil {
		meta = map[string]any{}
	}
	current, exists := meta[p.Key]
	if p.Value == nil {
		if !exists {
			return state, nil
		}
		delete(meta, p.Key)
	} else {
		if exists && sameValue(current, p.Value) {
			return state, nil
		}
		meta[p.Key] = p.Value
	}
	return state.Merge(map[string]any{KeyMetadata: meta, KeyDirty: true}), nil
}

func reduceMarkSaved(state *store.State, action store.Action) (*store.State, error) {
	if _, err := payloadAs[MarkSaved](action); err != nil {
		return nil, err
	}
	if dirty, _ := state.Value(KeyDirty).(bool); !dirty {
		return state, nil
	}
	return state.With(KeyDirty, false), nil
}

var tagPattern = regexp.MustCompile(`<[^>]*>`)

// WordCount counts the words of an HTML fragment, ignoring markup.
func WordCount(fragment string) int {
	text := html.UnescapeString(tagPattern.ReplaceAllString(fragment, " "))
	return len(strings.Fields(text))
}
