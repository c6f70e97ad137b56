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

package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStorage(t *testing.T) {
	st := NewMemoryStorage(0)
	defer st.Close()
	exerciseStorage(t, st)
}

func TestMemoryStorage_Quota(t *testing.T) {
	ctx := context.Background()
	st := NewMemoryStorage(10)

	require.NoError(t, st.Set(ctx, "a", []byte("12345")))
	require.NoError(t, st.Set(ctx, "b", []byte("12345")))
	assert.Equal(t, 10, st.Size())

	assert.ErrorIs(t, st.Set(ctx, "c", []byte("1")), ErrQuotaExceeded)

	// replacing a slot only counts the difference
	require.NoError(t, st.Set(ctx, "a", []byte("123")))
	assert.Equal(t, 8, st.Size())
	require.NoError(t, st.Set(ctx, "c", []byte("12")))

	require.NoError(t, st.Delete(ctx, "b"))
	assert.Equal(t, 5, st.Size())
}

func TestMemoryStorage_CopiesValues(t *testing.T) {
	ctx := context.Background()
	st := NewMemoryStorage(0)

	value := []byte("abc")
	require.NoError(t, st.Set(ctx, "k", value))
	value[0] = 'z'

	got, err := st.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "abc", string(got))

	got[1] = 'z'
	again, err := st.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "abc", string(again))
}

func TestMemoryStorage_Closed(t *testing.T) {
	ctx := context.Background()
	st := NewMemoryStorage(0)
	require.NoError(t, st.Close())

	_, err := st.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrClosed)
	assert.ErrorIs(t, st.Set(ctx, "k", nil), ErrClosed)
	assert.ErrorIs(t, st.Delete(ctx, "k"), ErrClosed)
}

func TestMemoryStorage_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	st := NewMemoryStorage(0)
	assert.ErrorIs(t, st.Set(ctx, "k", nil), context.Canceled)
	_, err := st.Get(ctx, "k")
	assert.ErrorIs(t, err, context.Canceled)
}
