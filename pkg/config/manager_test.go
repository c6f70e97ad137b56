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

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/innovationmech/scribe/pkg/config/testutil"
)

type testConfig struct {
	Store struct {
		MaxHistorySize int `mapstructure:"max_history_size"`
	} `mapstructure:"store"`
	Storage struct {
		Type string `mapstructure:"type"`
		Path string `mapstructure:"path"`
	} `mapstructure:"storage"`
	Logging struct {
		Level string `mapstructure:"level"`
	} `mapstructure:"logging"`
}

func newTestManager(dir, env string) *Manager {
	opts := DefaultOptions()
	opts.WorkDir = dir
	opts.EnvironmentName = env
	return NewManager(opts)
}

func TestHierarchicalPrecedence(t *testing.T) {
	sb := testutil.NewSandbox(t)
	sb.SetEnv("SCRIBE_LOGGING_LEVEL", "error")

	// Base: lowest precedence (over defaults)
	sb.WriteFile("scribe.yaml", `
store:
  max_history_size: 10
storage:
  type: file
  path: /var/lib/scribe
logging:
  level: info
`)

	// Env file: overrides base
	sb.WriteFile("scribe.dev.yaml", `
store:
  max_history_size: 20
storage:
  type: sql
logging:
  level: debug
`)

	// Override: overrides env file
	sb.WriteFile("scribe.override.yaml", `
storage:
  type: memory
logging:
  level: warn
`)

	m := newTestManager(sb.Dir, "dev")
	m.SetDefault("store.max_history_size", 50)
	m.SetDefault("storage.type", "file")
	m.SetDefault("logging.level", "info")

	require.NoError(t, m.Load())

	var cfg testConfig
	require.NoError(t, m.Unmarshal(&cfg))

	// defaults(50) < base(10) < env(20)
	assert.Equal(t, 20, cfg.Store.MaxHistorySize)
	// base path survives nested merges
	assert.Equal(t, "/var/lib/scribe", cfg.Storage.Path)
	// env(sql) < override(memory)
	assert.Equal(t, "memory", cfg.Storage.Type)
	// override(warn) < env var(error)
	assert.Equal(t, "error", cfg.Logging.Level)
}

func TestMissingFilesAreIgnored(t *testing.T) {
	sb := testutil.NewSandbox(t)
	sb.WriteFile("scribe.yaml", `storage: { type: badger }`)

	m := newTestManager(sb.Dir, "prod")
	require.NoError(t, m.Load())

	var cfg testConfig
	require.NoError(t, m.Unmarshal(&cfg))
	assert.Equal(t, "badger", cfg.Storage.Type)
}

func TestLoadRejectsBrokenFile(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		env     string
		wantErr string
	}{
		{name: "base", file: "scribe.yaml", wantErr: "load base config"},
		{name: "env", file: "scribe.qa.yaml", env: "QA", wantErr: "load env config"},
		{name: "override", file: "scribe.override.yaml", wantErr: "load override config"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sb := testutil.NewSandbox(t)
			sb.WriteFile(tt.file, "storage: [unterminated")

			err := newTestManager(sb.Dir, tt.env).Load()
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestUnmarshalNilTarget(t *testing.T) {
	m := NewManager(DefaultOptions())
	assert.ErrorIs(t, m.Unmarshal(nil), ErrNilTarget)
}

func TestFiles(t *testing.T) {
	m := newTestManager("/etc/scribe", "")
	assert.Equal(t, []string{"/etc/scribe/scribe.yaml", "/etc/scribe/scribe.override.yaml"}, m.Files())

	m = newTestManager("/etc/scribe", "Prod")
	assert.Equal(t, []string{
		"/etc/scribe/scribe.yaml",
		"/etc/scribe/scribe.prod.yaml",
		"/etc/scribe/scribe.override.yaml",
	}, m.Files())
}

func TestReloadDropsRemovedKeys(t *testing.T) {
	sb := testutil.NewSandbox(t)
	sb.WriteFile("scribe.yaml", "storage:\n  type: redis\n  path: /tmp/a\n")

	m := newTestManager(sb.Dir, "")
	m.SetDefault("storage.type", "file")
	require.NoError(t, m.MergeConfigMap(map[string]interface{}{"feed": map[string]interface{}{"enabled": true}}))
	require.NoError(t, m.Load())
	assert.Equal(t, "/tmp/a", m.Get("storage.path"))

	sb.WriteFile("scribe.yaml", "logging:\n  level: debug\n")
	require.NoError(t, m.Reload())

	assert.Nil(t, m.Get("storage.path"))
	assert.Equal(t, "file", m.Get("storage.type"), "defaults survive a reload")
	assert.Equal(t, true, m.Get("feed.enabled"), "merged maps survive a reload")
	assert.Equal(t, "debug", m.Get("logging.level"))
}

func TestReloadKeepsSettingsOnError(t *testing.T) {
	sb := testutil.NewSandbox(t)
	sb.WriteFile("scribe.yaml", "logging:\n  level: debug\n")

	m := newTestManager(sb.Dir, "")
	require.NoError(t, m.Load())

	sb.WriteFile("scribe.yaml", "logging: [broken")
	require.Error(t, m.Reload())
	assert.Equal(t, "debug", m.Get("logging.level"))
}

func TestChangedKeys(t *testing.T) {
	tests := []struct {
		name     string
		previous map[string]interface{}
		current  map[string]interface{}
		want     []string
	}{
		{name: "identical", previous: map[string]interface{}{"a": 1}, current: map[string]interface{}{"a": 1}, want: []string{}},
		{
			name:     "nested leaf",
			previous: map[string]interface{}{"logging": map[string]interface{}{"level": "info", "format": "json"}},
			current:  map[string]interface{}{"logging": map[string]interface{}{"level": "debug", "format": "json"}},
			want:     []string{"logging.level"},
		},
		{
			name:     "section added",
			previous: map[string]interface{}{},
			current:  map[string]interface{}{"feed": map[string]interface{}{"enabled": true, "url": "nats://x"}},
			want:     []string{"feed.enabled", "feed.url"},
		},
		{
			name:     "section removed",
			previous: map[string]interface{}{"http": map[string]interface{}{"address": ":8080"}},
			current:  nil,
			want:     []string{"http.address"},
		},
		{
			name:     "list changed",
			previous: map[string]interface{}{"tags": []interface{}{"a"}},
			current:  map[string]interface{}{"tags": []interface{}{"a", "b"}},
			want:     []string{"tags"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ChangedKeys(tt.previous, tt.current))
		})
	}
}
