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

// Package clearslot implements the 'clear' command.
package clearslot

import (
	"context"
	"io"

	"github.com/spf13/cobra"
	"go.uber.org/multierr"

	"github.com/innovationmech/scribe/internal/scribectl/session"
	"github.com/innovationmech/scribe/internal/scribectl/ui"
)

// NewClearCmd creates the 'clear' command.
func NewClearCmd(opts *session.Options) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Delete the persisted document and its history",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), cmd.OutOrStdout(), *opts)
		},
	}
}

// run does not load the slot first, so a corrupt slot can still be cleared.
func run(ctx context.Context, out io.Writer, opts session.Options) (err error) {
	s, err := session.Open(opts)
	if err != nil {
		return err
	}
	defer func() { err = multierr.Append(err, s.Close()) }()

	if err := s.Clear(ctx); err != nil {
		return err
	}
	ui.NewPrinter(out).Success("cleared slot %q", s.Slot())
	return nil
}
