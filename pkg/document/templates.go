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

package document

import "sort"

// Template is a named starting point for a document.
type Template struct {
	Name  string
	Title string
	Body  string
}

var templates = map[string]Template{
	"blank": {Name: "blank"},
	"letter": {
		Name:  "letter",
		Title: "Letter",
		Body:  "<p>Dear ,</p><p></p><p>Sincerely,</p>",
	},
	"memo": {
		Name:  "memo",
		Title: "Memo",
		Body:  "<h1>Memo</h1><p><strong>To:</strong> </p><p><strong>From:</strong> </p><p><strong>Subject:</strong> </p><hr><p></p>",
	},
	"report": {
		Name:  "report",
		Title: "Report",
		Body:  "<h1>Report</h1><h2>Summary</h2><p></p><h2>Findings</h2><p></p><h2>Conclusion</h2><p></p>",
	},
}

// LookupTemplate returns the template registered under name.
func LookupTemplate(name string) (Template, bool) {
	t, ok := templates[name]
	return t, ok
}

// Templates returns the template names in sorted order.
func Templates() []string {
	names := make([]string, 0, len(templates))
	for name := range templates {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
