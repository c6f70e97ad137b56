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

package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/innovationmech/scribe/pkg/config/testutil"
)

func waitChange(t *testing.T, r *HotReloader) ConfigChange {
	t.Helper()
	select {
	case change, ok := <-r.Events():
		require.True(t, ok, "events channel closed")
		return change
	case <-time.After(5 * time.Second):
		t.Fatal("no config change delivered")
		return ConfigChange{}
	}
}

func TestHotReloader_DeliversChanges(t *testing.T) {
	sb := testutil.NewSandbox(t)
	sb.WriteFile("scribe.yaml", "logging:\n  level: info\n")

	m := newTestManager(sb.Dir, "")
	require.NoError(t, m.Load())

	r := NewHotReloader(m, 50*time.Millisecond)
	require.NoError(t, r.Start())
	defer func() { _ = r.Stop() }()
	assert.ErrorIs(t, r.Start(), ErrReloaderStarted)

	sb.WriteFile("scribe.yaml", "logging:\n  level: debug\n")
	change := waitChange(t, r)
	require.NoError(t, change.Err)
	assert.Equal(t, []string{"logging.level"}, change.ChangedKeys)
	assert.Equal(t, "debug", change.Settings["logging"].(map[string]interface{})["level"])

	// the override file does not exist yet; creating it is picked up
	sb.WriteFile("scribe.override.yaml", "http:\n  address: 127.0.0.1:9999\n")
	change = waitChange(t, r)
	require.NoError(t, change.Err)
	assert.Equal(t, []string{"http.address"}, change.ChangedKeys)
}

func TestHotReloader_ReportsErrors(t *testing.T) {
	sb := testutil.NewSandbox(t)
	sb.WriteFile("scribe.yaml", "logging:\n  level: info\n")

	m := newTestManager(sb.Dir, "")
	require.NoError(t, m.Load())

	r := NewHotReloader(m, 50*time.Millisecond)
	require.NoError(t, r.Start())
	defer func() { _ = r.Stop() }()

	sb.WriteFile("scribe.yaml", "logging: [broken")
	change := waitChange(t, r)
	assert.Error(t, change.Err)
	assert.Equal(t, "info", m.Get("logging.level"))
}

func TestHotReloader_IgnoresUnrelatedFiles(t *testing.T) {
	sb := testutil.NewSandbox(t)
	m := newTestManager(sb.Dir, "")
	require.NoError(t, m.Load())

	r := NewHotReloader(m, 20*time.Millisecond)
	require.NoError(t, r.Start())

	sb.WriteFile("notes.txt", "hello")
	select {
	case change := <-r.Events():
		t.Fatalf("unexpected change: %+v", change)
	case <-time.After(200 * time.Millisecond):
	}

	require.NoError(t, r.Stop())
	_, ok := <-r.Events()
	assert.False(t, ok, "Stop closes the events channel")
	assert.NoError(t, r.Stop())
}
