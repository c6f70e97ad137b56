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

package cmd

import (
	"github.com/spf13/cobra"

	"github.com/innovationmech/scribe/internal/scribectl/cmd/apply"
	"github.com/innovationmech/scribe/internal/scribectl/cmd/clearslot"
	"github.com/innovationmech/scribe/internal/scribectl/cmd/history"
	"github.com/innovationmech/scribe/internal/scribectl/cmd/serve"
	"github.com/innovationmech/scribe/internal/scribectl/cmd/show"
	"github.com/innovationmech/scribe/internal/scribectl/cmd/travel"
	"github.com/innovationmech/scribe/internal/scribectl/cmd/version"
	"github.com/innovationmech/scribe/internal/scribectl/cmd/watch"
	"github.com/innovationmech/scribe/internal/scribectl/session"
	"github.com/innovationmech/scribe/internal/scribectl/ui"
)

// NewRootScribeCtlCommand creates the scribectl command tree.
func NewRootScribeCtlCommand() *cobra.Command {
	opts := &session.Options{}
	var noColor bool

	cmds := &cobra.Command{
		Use:   "scribectl",
		Short: "scribectl edits documents kept in a time-travelling state store",
		Long: `scribectl loads a document from its storage slot, changes it through
actions, undo and redo, and saves it back. The document keeps its undo
history across runs.`,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if noColor {
				ui.DisableColor()
			}
		},
	}

	flags := cmds.PersistentFlags()
	flags.StringVar(&opts.ConfigDir, "config-dir", "", "Directory holding scribe.yaml (default: current directory)")
	flags.StringVar(&opts.Env, "env", "", "Configuration environment, e.g. dev for scribe.dev.yaml")
	flags.StringVar(&opts.Slot, "slot", "", "Storage slot to use instead of store.slot")
	flags.BoolVar(&noColor, "no-color", false, "Disable colored output")

	cmds.AddCommand(
		apply.NewApplyCmd(opts),
		travel.NewUndoCmd(opts),
		travel.NewRedoCmd(opts),
		show.NewShowCmd(opts),
		history.NewHistoryCmd(opts),
		clearslot.NewClearCmd(opts),
		serve.NewServeCmd(opts),
		watch.NewWatchCmd(opts),
		version.NewVersionCommand(),
	)
	return cmds
}
