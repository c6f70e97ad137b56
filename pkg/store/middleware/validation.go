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

package middleware

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/innovationmech/scribe/pkg/store"
)

// ErrInvalidPayload is returned when a struct payload fails validation.
var ErrInvalidPayload = errors.New("invalid action payload")

// ValidationMiddleware validates struct payloads using their `validate` tags.
// Payloads that are not structs, or pointers to structs, pass unchanged.
type ValidationMiddleware struct {
	validate *validator.Validate
}

// Validation creates a ValidationMiddleware. A nil validator selects a new
// validator.Validate with required struct checks enabled.
func Validation(v *validator.Validate) *ValidationMiddleware {
	if v == nil {
		v = validator.New(validator.WithRequiredStructEnabled())
	}
	return &ValidationMiddleware{validate: v}
}

// Name implements store.Middleware.
func (m *ValidationMiddleware) Name() string { return "validation" }

// Apply implements store.Middleware.
func (m *ValidationMiddleware) Apply(action store.Action, _ *store.State) (store.Action, error) {
	if !isStruct(action.Payload) {
		return action, nil
	}

	if err := m.validate.Struct(action.Payload); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			fields := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				fields = append(fields, fmt.Sprintf("%s failed on %q", fe.Field(), fe.Tag()))
			}
			return action, fmt.Errorf("%w for %q: %s", ErrInvalidPayload, action.Type, strings.Join(fields, ", "))
		}
		return action, fmt.Errorf("%w for %q: %v", ErrInvalidPayload, action.Type, err)
	}
	return action, nil
}

func isStruct(v any) bool {
	if v == nil {
		return false
	}
	t := reflect.TypeOf(v)
	if t.Kind() == reflect.Pointer {
		if reflect.ValueOf(v).IsNil() {
			return false
		}
		t = t.Elem()
	}
	return t.Kind() == reflect.Struct
}
