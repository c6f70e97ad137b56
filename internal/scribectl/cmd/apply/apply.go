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

package apply

import (
	"context"
	"io"

	"github.com/spf13/cobra"
	"go.uber.org/multierr"

	"github.com/innovationmech/scribe/internal/scribectl/script"
	"github.com/innovationmech/scribe/internal/scribectl/session"
	"github.com/innovationmech/scribe/internal/scribectl/ui"
)

// NewApplyCmd creates the 'apply' command.
func NewApplyCmd(opts *session.Options) *cobra.Command {
	var dryRun bool
	cmd := &cobra.Command{
		Use:   "apply <script.yaml>",
		Short: "Apply an action script to the document",
		Long: `Apply reads a YAML list of steps and dispatches them in order.
Each step names an action type and its payload; "undo" and "redo" steps
travel through the history. Failing steps are reported and skipped.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runApply(cmd.Context(), cmd.OutOrStdout(), *opts, args[0], dryRun)
		},
	}
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Apply the script without saving the result")
	return cmd
}

func runApply(ctx context.Context, out io.Writer, opts session.Options, path string, dryRun bool) error {
	steps, err := script.ParseFile(path)
	if err != nil {
		return err
	}
	return session.Run(ctx, opts, func(s *session.Session) error {
		p := ui.NewPrinter(out)
		res, applyErr := script.Apply(s.Store, steps, s.Decode)
		if res.Failed > 0 {
			p.Warning("%d of %d steps failed", res.Failed, len(steps))
		}
		switch {
		case dryRun:
			p.Info("dry run: %d steps applied, %d changed the document", res.Applied, res.Changed)
		case res.Changed == 0:
			p.Info("document unchanged")
		default:
			if err := s.Save(ctx); err != nil {
				return multierr.Append(applyErr, err)
			}
			p.Success("applied %d steps to slot %q (%d changed)", res.Applied, s.Slot(), res.Changed)
		}
		return applyErr
	})
}
