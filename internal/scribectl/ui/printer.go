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

// Package ui formats scribectl output.
package ui

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/fatih/color"
)

// Style is the color scheme used by a Printer.
type Style struct {
	Primary *color.Color
	Success *color.Color
	Warning *color.Color
	Error   *color.Color
	Info    *color.Color
	Muted   *color.Color
}

// DefaultStyle returns the default color scheme.
func DefaultStyle() Style {
	return Style{
		Primary: color.New(color.FgCyan, color.Bold),
		Success: color.New(color.FgGreen, color.Bold),
		Warning: color.New(color.FgYellow, color.Bold),
		Error:   color.New(color.FgRed, color.Bold),
		Info:    color.New(color.FgBlue),
		Muted:   color.New(color.FgHiBlack),
	}
}

// DisableColor turns off colors for every printer.
func DisableColor() {
	color.NoColor = true
}

// Printer writes styled lines to an output.
type Printer struct {
	out   io.Writer
	style Style
}

// NewPrinter creates a printer writing to out.
func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out, style: DefaultStyle()}
}

// Success prints a confirmation line.
func (p *Printer) Success(format string, a ...interface{}) {
	fmt.Fprintf(p.out, "%s %s\n", p.style.Success.Sprint("✔"), fmt.Sprintf(format, a...))
}

// Info prints an informational line.
func (p *Printer) Info(format string, a ...interface{}) {
	fmt.Fprintf(p.out, "%s %s\n", p.style.Info.Sprint("•"), fmt.Sprintf(format, a...))
}

// Warning prints a warning line.
func (p *Printer) Warning(format string, a ...interface{}) {
	fmt.Fprintf(p.out, "%s %s\n", p.style.Warning.Sprint("!"), fmt.Sprintf(format, a...))
}

// Field prints a key and its value.
func (p *Printer) Field(key string, value interface{}) {
	fmt.Fprintf(p.out, "%s: %v\n", p.style.Primary.Sprint(key), value)
}

// Table prints rows aligned under headers. The row marked by highlight is
// printed in the primary color; pass -1 for none.
func (p *Printer) Table(headers []string, rows [][]string, highlight int) error {
	if len(headers) == 0 {
		return fmt.Errorf("headers cannot be empty")
	}
	tw := tabwriter.NewWriter(p.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, p.style.Muted.Sprint(strings.Join(headers, "\t")))
	for i, row := range rows {
		line := strings.Join(row, "\t")
		if i == highlight {
			line = p.style.Primary.Sprint(line)
		}
		fmt.Fprintln(tw, line)
	}
	return tw.Flush()
}
