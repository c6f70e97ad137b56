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
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/innovationmech/scribe/pkg/logger"
)

// ErrReloaderStarted is returned when Start is called twice.
var ErrReloaderStarted = errors.New("hot reloader already started")

// ConfigChange is delivered after every reload attempt.
type ConfigChange struct {
	// Settings holds all merged settings after a successful reload.
	Settings map[string]interface{}
	// ChangedKeys lists the dotted keys that differ from the previous load.
	ChangedKeys []string
	// Err is set when the reload failed; the previous settings stay active.
	Err error
}

// HotReloader watches the manager's config files and reloads them after
// writes settle for the debounce interval.
type HotReloader struct {
	manager  *Manager
	debounce time.Duration
	logger   *zap.Logger

	mu       sync.Mutex
	watcher  *fsnotify.Watcher
	events   chan ConfigChange
	done     chan struct{}
	stopped  chan struct{}
	previous map[string]interface{}
}

// NewHotReloader creates a reloader for manager.
func NewHotReloader(manager *Manager, debounce time.Duration) *HotReloader {
	if debounce <= 0 {
		debounce = 250 * time.Millisecond
	}
	return &HotReloader{
		manager:  manager,
		debounce: debounce,
		logger:   logger.Named("config"),
		events:   make(chan ConfigChange, 8),
	}
}

// Events returns the channel of reload results. It is closed by Stop.
func (r *HotReloader) Events() <-chan ConfigChange {
	return r.events
}

// Start begins watching. The directories holding the config files are watched
// rather than the files, so editors that replace files atomically and files
// created later are both picked up.
func (r *HotReloader) Start() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.watcher != nil {
		return ErrReloaderStarted
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}

	files := make(map[string]struct{})
	dirs := make(map[string]struct{})
	for _, f := range r.manager.Files() {
		abs, err := filepath.Abs(f)
		if err != nil {
			abs = f
		}
		files[abs] = struct{}{}
		dirs[filepath.Dir(abs)] = struct{}{}
	}
	for dir := range dirs {
		if err := watcher.Add(dir); err != nil {
			_ = watcher.Close()
			return fmt.Errorf("watch %s: %w", dir, err)
		}
	}

	r.watcher = watcher
	r.previous = cloneSettings(r.manager.AllSettings())
	r.done = make(chan struct{})
	r.stopped = make(chan struct{})
	go r.loop(files)
	return nil
}

// Stop stops watching and closes the events channel.
func (r *HotReloader) Stop() error {
	r.mu.Lock()
	watcher := r.watcher
	if watcher == nil || r.done == nil {
		r.mu.Unlock()
		return nil
	}
	close(r.done)
	r.done = nil
	r.mu.Unlock()

	err := watcher.Close()
	<-r.stopped
	return err
}

func (r *HotReloader) loop(files map[string]struct{}) {
	defer close(r.stopped)
	defer close(r.events)

	r.mu.Lock()
	done := r.done
	r.mu.Unlock()

	debounce := time.NewTimer(r.debounce)
	if !debounce.Stop() {
		<-debounce.C
	}
	pending := false

	for {
		select {
		case <-done:
			debounce.Stop()
			return
		case event, ok := <-r.watcher.Events:
			if !ok {
				return
			}
			if _, watched := files[filepath.Clean(event.Name)]; !watched {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename|fsnotify.Remove) == 0 {
				continue
			}
			pending = true
			if !debounce.Stop() {
				select {
				case <-debounce.C:
				default:
				}
			}
			debounce.Reset(r.debounce)
		case <-debounce.C:
			if pending {
				pending = false
				r.reload(done)
			}
		case err, ok := <-r.watcher.Errors:
			if !ok {
				return
			}
			r.logger.Warn("config watch error", zap.Error(err))
		}
	}
}

func (r *HotReloader) reload(done <-chan struct{}) {
	change := ConfigChange{}
	if err := r.manager.Reload(); err != nil {
		change.Err = err
		r.logger.Warn("config reload failed", zap.Error(err))
	} else {
		current := r.manager.AllSettings()
		change.Settings = current
		change.ChangedKeys = ChangedKeys(r.previous, current)
		r.previous = cloneSettings(current)
		r.logger.Debug("config reloaded", zap.Strings("changed", change.ChangedKeys))
	}

	select {
	case r.events <- change:
	case <-done:
	}
}
