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
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileStorage(t *testing.T) {
	st, err := NewFileStorage(filepath.Join(t.TempDir(), "nested", "slots"))
	require.NoError(t, err)
	defer st.Close()
	exerciseStorage(t, st)
}

func TestFileStorage_LayoutAndNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	st, err := NewFileStorage(dir)
	require.NoError(t, err)

	require.NoError(t, st.Set(context.Background(), "draft", []byte("{}")))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "draft.json", entries[0].Name())
}

func TestFileStorage_SurvivesReopen(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	first, err := NewFileStorage(dir)
	require.NoError(t, err)
	require.NoError(t, first.Set(ctx, "draft", []byte("persisted")))
	require.NoError(t, first.Close())

	_, err = first.Get(ctx, "draft")
	assert.ErrorIs(t, err, ErrClosed)

	second, err := NewFileStorage(dir)
	require.NoError(t, err)
	got, err := second.Get(ctx, "draft")
	require.NoError(t, err)
	assert.Equal(t, "persisted", string(got))
}

func TestNewFileStorage_EmptyPath(t *testing.T) {
	_, err := NewFileStorage("")
	assert.Error(t, err)
}
