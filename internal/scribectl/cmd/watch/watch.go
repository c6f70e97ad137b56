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

package watch

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/innovationmech/scribe/internal/scribectl/script"
	"github.com/innovationmech/scribe/internal/scribectl/session"
	"github.com/innovationmech/scribe/internal/scribectl/ui"
	"github.com/innovationmech/scribe/pkg/logger"
)

const watchDebounce = 300 * time.Millisecond

// NewWatchCmd creates the 'watch' command.
func NewWatchCmd(opts *session.Options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch <script.yaml>",
		Short: "Re-apply a script every time it changes",
		Long: `Watch applies the script on top of the document as it was when the
command started, saves the result, and repeats whenever the script file is
written. Stop it with Ctrl-C.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runWatch(ctx, cmd.OutOrStdout(), *opts, args[0], watchDebounce)
		},
	}
	return cmd
}

func runWatch(ctx context.Context, out io.Writer, opts session.Options, path string, debounce time.Duration) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("resolve script path: %w", err)
	}
	log := logger.Named("watch")

	return session.Run(ctx, opts, func(s *session.Session) error {
		p := ui.NewPrinter(out)
		baseline := s.Store.GetState()

		apply := func() {
			steps, err := script.ParseFile(abs)
			if err != nil {
				p.Warning("%v", err)
				return
			}
			if err := s.Store.Reset(baseline); err != nil {
				p.Warning("%v", err)
				return
			}
			res, applyErr := script.Apply(s.Store, steps, s.Decode)
			if applyErr != nil {
				p.Warning("%v", applyErr)
			}
			if err := s.Save(ctx); err != nil {
				p.Warning("save failed: %v", err)
				return
			}
			p.Success("applied %d of %d steps to slot %q", res.Applied, len(steps), s.Slot())
		}

		watcher, err := fsnotify.NewWatcher()
		if err != nil {
			return fmt.Errorf("failed to create watcher: %w", err)
		}
		defer watcher.Close()
		// the directory is watched too so that editors replacing the file are seen
		_ = watcher.Add(abs)
		if err := watcher.Add(filepath.Dir(abs)); err != nil {
			return fmt.Errorf("watch %s: %w", filepath.Dir(abs), err)
		}

		apply()
		p.Info("watching %s", path)

		timer := time.NewTimer(debounce)
		if !timer.Stop() {
			<-timer.C
		}
		pending := false

		for {
			select {
			case <-ctx.Done():
				return nil
			case event, ok := <-watcher.Events:
				if !ok {
					return nil
				}
				if filepath.Clean(event.Name) != abs {
					continue
				}
				if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0 {
					pending = true
					if !timer.Stop() {
						select {
						case <-timer.C:
						default:
						}
					}
					timer.Reset(debounce)
				}
			case <-timer.C:
				if pending {
					pending = false
					apply()
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return nil
				}
				log.Warn("watch error", zap.Error(err))
			}
		}
	})
}
