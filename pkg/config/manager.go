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
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/spf13/viper"
)

// ErrNilTarget is returned by Unmarshal when given a nil target.
var ErrNilTarget = errors.New("config: unmarshal target is nil")

// Options configures a Manager. Settings resolve in this order, later
// entries winning: SetDefault values, maps given to MergeConfigMap,
// <base>.<ext>, <base>.<env>.<ext>, the override file, then environment
// variables named <EnvPrefix>_<KEY_WITH_UNDERSCORES>.
type Options struct {
	WorkDir            string
	ConfigBaseName     string
	ConfigType         string // yaml, yml, json, toml or hcl
	EnvironmentName    string
	OverrideFilename   string // defaults to <base>.override.<ext>
	EnvPrefix          string
	EnableAutomaticEnv bool
}

// DefaultOptions returns the options scribe uses: scribe.yaml in the working
// directory with SCRIBE_ environment overrides.
func DefaultOptions() Options {
	return Options{
		WorkDir:            ".",
		ConfigBaseName:     "scribe",
		ConfigType:         "yaml",
		OverrideFilename:   "scribe.override.yaml",
		EnvPrefix:          "SCRIBE",
		EnableAutomaticEnv: true,
	}
}

// fileLayer is one configuration file merged on top of the layers before it.
type fileLayer struct {
	name string
	path string
}

// Manager loads layered configuration into a viper instance. It remembers
// defaults and merged maps so Reload can rebuild the settings from scratch.
type Manager struct {
	mu       sync.RWMutex
	v        *viper.Viper
	options  Options
	defaults map[string]any
	extra    []map[string]any
}

// NewManager creates a Manager. Nothing is read until Load.
func NewManager(options Options) *Manager {
	if options.ConfigType == "" {
		options.ConfigType = "yaml"
	}
	if options.ConfigBaseName == "" {
		options.ConfigBaseName = "scribe"
	}
	if options.WorkDir == "" {
		options.WorkDir = "."
	}
	return &Manager{v: newViper(options), options: options, defaults: map[string]any{}}
}

func newViper(options Options) *viper.Viper {
	v := viper.New()
	if !options.EnableAutomaticEnv {
		return v
	}
	if options.EnvPrefix != "" {
		v.SetEnvPrefix(options.EnvPrefix)
	}
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// SetDefault registers the fallback value of key.
func (m *Manager) SetDefault(key string, value any) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.defaults[key] = value
	m.v.SetDefault(key, value)
}

// MergeConfigMap merges settings above the defaults and below every file.
func (m *Manager) MergeConfigMap(settings map[string]any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.extra = append(m.extra, settings)
	return m.v.MergeConfigMap(settings)
}

// Load merges the configuration files that exist. Missing files are skipped.
func (m *Manager) Load() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.mergeFiles(m.v)
}

// Reload discards file settings and loads every layer again, so keys removed
// from a file disappear. On error the previous settings are kept.
func (m *Manager) Reload() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	next := newViper(m.options)
	for key, value := range m.defaults {
		next.SetDefault(key, value)
	}
	for _, settings := range m.extra {
		if err := next.MergeConfigMap(settings); err != nil {
			return err
		}
	}
	if err := m.mergeFiles(next); err != nil {
		return err
	}
	m.v = next
	return nil
}

// Files returns the paths of the file layers in precedence order, whether or
// not they exist.
func (m *Manager) Files() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	layers := m.fileLayers()
	paths := make([]string, len(layers))
	for i, l := range layers {
		paths[i] = l.path
	}
	return paths
}

// Unmarshal decodes the merged settings into target.
func (m *Manager) Unmarshal(target any) error {
	if target == nil {
		return ErrNilTarget
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.v.Unmarshal(target)
}

// Get returns the merged value of key.
func (m *Manager) Get(key string) any {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.v.Get(key)
}

// AllSettings returns the merged settings as nested maps.
func (m *Manager) AllSettings() map[string]any {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.v.AllSettings()
}

func (m *Manager) fileLayers() []fileLayer {
	ext := m.extension()
	base := m.options.ConfigBaseName
	dir := m.options.WorkDir

	layers := []fileLayer{{name: "base", path: filepath.Join(dir, base+"."+ext)}}
	if env := strings.ToLower(m.options.EnvironmentName); env != "" {
		layers = append(layers, fileLayer{name: "env", path: filepath.Join(dir, base+"."+env+"."+ext)})
	}
	override := m.options.OverrideFilename
	if override == "" {
		override = base + ".override." + ext
	}
	return append(layers, fileLayer{name: "override", path: filepath.Join(dir, override)})
}

func (m *Manager) mergeFiles(v *viper.Viper) error {
	for _, l := range m.fileLayers() {
		settings, err := m.readFile(l.path)
		if err != nil {
			return fmt.Errorf("load %s config: %w", l.name, err)
		}
		if settings == nil {
			continue
		}
		if err := v.MergeConfigMap(settings); err != nil {
			return fmt.Errorf("load %s config: %w", l.name, err)
		}
	}
	return nil
}

// readFile parses path in a scratch viper; a parse error leaves the merged
// settings untouched. A missing file yields nil settings.
func (m *Manager) readFile(path string) (map[string]any, error) {
	content, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	scratch := viper.New()
	scratch.SetConfigType(m.extension())
	if err := scratch.ReadConfig(bytes.NewReader(content)); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return scratch.AllSettings(), nil
}

func (m *Manager) extension() string {
	switch t := strings.ToLower(m.options.ConfigType); t {
	case "yaml", "json", "toml", "hcl":
		return t
	default:
		return "yaml"
	}
}
