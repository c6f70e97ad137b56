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
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tagMiddleware(name string) Middleware {
	return NamedMiddleware(name, func(action Action, _ *State) (Action, error) {
		trail, _ := action.Payload.([]string)
		action.Payload = append(append([]string(nil), trail...), name)
		return action, nil
	})
}

func TestPipeline_AppliesInOrder(t *testing.T) {
	p := NewPipeline(tagMiddleware("first"))
	p.Use(tagMiddleware("second"), nil, tagMiddleware("third"))

	require.Equal(t, 3, p.Len())

	out, err := p.Apply(Action{Type: "t"}, NewState(nil))
	require.NoError(t, err)
	assert.Equal(t, []string{"first", "second", "third"}, out.Payload)
}

func TestPipeline_Remove(t *testing.T) {
	p := NewPipeline(tagMiddleware("a"), tagMiddleware("b"), tagMiddleware("a"))

	assert.True(t, p.Remove("a"))
	names := make([]string, 0, p.Len())
	for _, mw := range p.Middleware() {
		names = append(names, mw.Name())
	}
	assert.Equal(t, []string{"b", "a"}, names)
	assert.False(t, p.Remove("missing"))

	p.Clear()
	assert.Zero(t, p.Len())
}

func TestPipeline_StopsAtFirstFailure(t *testing.T) {
	reached := false
	p := NewPipeline(
		NamedMiddleware("reject", func(Action, *State) (Action, error) {
			return Action{}, errors.New("nope")
		}),
		NamedMiddleware("after", func(action Action, _ *State) (Action, error) {
			reached = true
			return action, nil
		}),
	)

	in := Action{Type: "t"}
	out, err := p.Apply(in, nil)

	var dispatchErr *DispatchError
	require.ErrorAs(t, err, &dispatchErr)
	assert.Equal(t, "reject", dispatchErr.Middleware)
	assert.Equal(t, in, out)
	assert.False(t, reached)
}

func TestPipeline_RecoversPanics(t *testing.T) {
	p := NewPipeline(MiddlewareFunc(func(Action, *State) (Action, error) {
		panic("boom")
	}))

	_, err := p.Apply(Action{Type: "t"}, nil)
	var dispatchErr *DispatchError
	require.ErrorAs(t, err, &dispatchErr)
	assert.Equal(t, "middleware-func", dispatchErr.Middleware)
	assert.EqualError(t, dispatchErr.Err, "panic: boom")
}

func TestCreateAction(t *testing.T) {
	assert.Equal(t, Action{Type: "a", Payload: 1}, CreateAction("a")(1))
	assert.Equal(t, Action{Type: "a", Async: true}, CreateAsyncAction("a")(nil))
}
