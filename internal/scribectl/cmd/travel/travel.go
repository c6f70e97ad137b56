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

// Package travel implements the undo and redo commands.
package travel

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/innovationmech/scribe/internal/scribectl/session"
	"github.com/innovationmech/scribe/internal/scribectl/ui"
	"github.com/innovationmech/scribe/pkg/store"
)

type direction struct {
	name string
	step func(*store.Store) bool
}

var (
	undo = direction{name: "undo", step: (*store.Store).Undo}
	redo = direction{name: "redo", step: (*store.Store).Redo}
)

// NewUndoCmd creates the 'undo' command.
func NewUndoCmd(opts *session.Options) *cobra.Command {
	return newTravelCmd(opts, undo, "Step back through the document history")
}

// NewRedoCmd creates the 'redo' command.
func NewRedoCmd(opts *session.Options) *cobra.Command {
	return newTravelCmd(opts, redo, "Step forward through the document history")
}

func newTravelCmd(opts *session.Options, dir direction, short string) *cobra.Command {
	var steps int
	cmd := &cobra.Command{
		Use:   dir.name,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if steps < 1 {
				return fmt.Errorf("--steps must be at least 1, got %d", steps)
			}
			return run(cmd.Context(), cmd.OutOrStdout(), *opts, dir, steps)
		},
	}
	cmd.Flags().IntVarP(&steps, "steps", "n", 1, "Number of history steps to move")
	return cmd
}

func run(ctx context.Context, out io.Writer, opts session.Options, dir direction, steps int) error {
	return session.Run(ctx, opts, func(s *session.Session) error {
		p := ui.NewPrinter(out)
		moved := 0
		for moved < steps && dir.step(s.Store) {
			moved++
		}
		if moved == 0 {
			p.Warning("nothing to %s", dir.name)
			return nil
		}
		if err := s.Save(ctx); err != nil {
			return err
		}
		h := s.Store.History()
		p.Success("%s: moved %d step(s), now at %d of %d", dir.name, moved, h.Index+1, h.Length)
		return nil
	})
}
