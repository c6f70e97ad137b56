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
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBadgerStorage_InMemory(t *testing.T) {
	st, err := NewBadgerStorage(BadgerConfig{InMemory: true})
	require.NoError(t, err)
	defer st.Close()
	exerciseStorage(t, st)
}

func TestBadgerStorage_OnDisk(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "badger")
	ctx := context.Background()

	st, err := NewBadgerStorage(BadgerConfig{Path: dir})
	require.NoError(t, err)
	require.NoError(t, st.Set(ctx, "draft", []byte("kept")))
	require.NoError(t, st.Close())
	require.NoError(t, st.Close())

	reopened, err := NewBadgerStorage(BadgerConfig{Path: dir})
	require.NoError(t, err)
	defer reopened.Close()

	got, err := reopened.Get(ctx, "draft")
	require.NoError(t, err)
	assert.Equal(t, "kept", string(got))
}

func TestNewBadgerStorage_RequiresPath(t *testing.T) {
	_, err := NewBadgerStorage(BadgerConfig{})
	assert.Error(t, err)
}
