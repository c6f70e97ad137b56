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

package show

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/innovationmech/scribe/internal/scribectl/session"
	"github.com/innovationmech/scribe/internal/scribectl/ui"
)

// NewShowCmd creates the 'show' command.
func NewShowCmd(opts *session.Options) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "show [key]",
		Short: "Print the document or a single key",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			key := ""
			if len(args) == 1 {
				key = args[0]
			}
			return run(cmd.Context(), cmd.OutOrStdout(), *opts, key, asJSON)
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print JSON")
	return cmd
}

func run(ctx context.Context, out io.Writer, opts session.Options, key string, asJSON bool) error {
	return session.Run(ctx, opts, func(s *session.Session) error {
		current := s.Store.Current()
		var value any = current.Map()
		if key != "" {
			v, ok := s.Store.Get(key)
			if !ok {
				return fmt.Errorf("key %q is not set", key)
			}
			value = v
		}

		if asJSON {
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(value)
		}

		p := ui.NewPrinter(out)
		if key != "" {
			p.Field(key, format(value))
			return nil
		}
		for _, k := range current.Keys() {
			p.Field(k, format(current.Value(k)))
		}
		return nil
	})
}

// format renders composite values as compact JSON and everything else as is.
func format(v any) any {
	switch v.(type) {
	case map[string]any, []any:
		data, err := json.Marshal(v)
		if err != nil {
			return v
		}
		return string(data)
	default:
		return v
	}
}
