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

package ui

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrinter(t *testing.T) {
	DisableColor()
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.Success("saved %s", "notes")
	p.Info("%d steps", 3)
	p.Warning("nothing to undo")
	p.Field("title", "Draft")

	assert.Equal(t, "✔ saved notes\n• 3 steps\n! nothing to undo\ntitle: Draft\n", buf.String())
}

func TestPrinter_Table(t *testing.T) {
	DisableColor()
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	require.NoError(t, p.Table([]string{"#", "title"}, [][]string{{"0", "a"}, {"1", "longer"}}, 1))
	assert.Equal(t, "#  title\n0  a\n1  longer\n", buf.String())

	assert.Error(t, p.Table(nil, nil, -1))
}
