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

package history

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/innovationmech/scribe/internal/scribectl/session"
	"github.com/innovationmech/scribe/internal/scribectl/ui"
	"github.com/innovationmech/scribe/pkg/document"
	"github.com/innovationmech/scribe/pkg/store"
)

// titleWidth truncates long titles in the table.
const titleWidth = 40

// Report is the JSON form of the history.
type Report struct {
	store.HistoryInfo
	Snapshots []map[string]any `json:"snapshots"`
}

// NewHistoryCmd creates the 'history' command.
func NewHistoryCmd(opts *session.Options) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List the undo history of the document",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), cmd.OutOrStdout(), *opts, asJSON)
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print JSON including every snapshot")
	return cmd
}

func run(ctx context.Context, out io.Writer, opts session.Options, asJSON bool) error {
	return session.Run(ctx, opts, func(s *session.Session) error {
		info := s.Store.History()
		report := Report{HistoryInfo: info, Snapshots: make([]map[string]any, 0, info.Length)}
		for i := 0; i < info.Length; i++ {
			snap, _ := s.Store.Snapshot(i)
			report.Snapshots = append(report.Snapshots, snap)
		}

		if asJSON {
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(report)
		}

		p := ui.NewPrinter(out)
		if info.Length == 0 {
			p.Info("no history for slot %q", s.Slot())
			return nil
		}
		rows := make([][]string, 0, len(report.Snapshots))
		for i, snap := range report.Snapshots {
			marker := ""
			if i == info.Index {
				marker = "*"
			}
			rows = append(rows, []string{
				marker + strconv.Itoa(i),
				truncate(fmt.Sprint(snap[document.KeyTitle]), titleWidth),
				fmt.Sprint(snap[document.KeyWordCount]),
				fmt.Sprint(snap[document.KeyTemplate]),
			})
		}
		if err := p.Table([]string{"#", "TITLE", "WORDS", "TEMPLATE"}, rows, info.Index); err != nil {
			return err
		}
		p.Info("position %d of %d, keeping at most %d", info.Index+1, info.Length, info.MaxSize)
		return nil
	})
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
