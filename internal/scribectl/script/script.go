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

// Package script reads and applies YAML action scripts.
//
// A script is a YAML sequence of steps:
//
//	- type: document/setTitle
//	  payload:
//	    title: Quarterly report
//	- type: undo
//	- type: redo
package script

import (
	"errors"
	"fmt"
	"os"

	"go.uber.org/multierr"
	"gopkg.in/yaml.v3"

	"github.com/innovationmech/scribe/pkg/store"
)

// Step types that travel through history instead of dispatching.
const (
	StepUndo = "undo"
	StepRedo = "redo"
)

// ErrInvalidScript is returned when a script cannot be parsed.
var ErrInvalidScript = errors.New("invalid script")

// Step is one entry of a script.
type Step struct {
	Type    string         `yaml:"type"`
	Payload map[string]any `yaml:"payload"`
	// Line is the line of the step in the source, or zero.
	Line int `yaml:"-"`
}

// Decoder turns an untyped step into an action.
type Decoder func(actionType string, raw map[string]any) (store.Action, error)

// Result summarises an Apply run.
type Result struct {
	Applied int
	Changed int
	Failed  int
}

// Parse reads a script.
func Parse(data []byte) ([]Step, error) {
	var nodes []yaml.Node
	if err := yaml.Unmarshal(data, &nodes); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidScript, err)
	}
	steps := make([]Step, 0, len(nodes))
	for i := range nodes {
		var step Step
		if err := nodes[i].Decode(&step); err != nil {
			return nil, fmt.Errorf("%w: line %d: %w", ErrInvalidScript, nodes[i].Line, err)
		}
		if step.Type == "" {
			return nil, fmt.Errorf("%w: line %d: step has no type", ErrInvalidScript, nodes[i].Line)
		}
		step.Line = nodes[i].Line
		steps = append(steps, step)
	}
	return steps, nil
}

// ParseFile reads the script at path.
func ParseFile(path string) ([]Step, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read script: %w", err)
	}
	return Parse(data)
}

// Apply runs every step against s. A failing step does not stop the run;
// the failures are returned together.
func Apply(s *store.Store, steps []Step, decode Decoder) (Result, error) {
	var (
		res  Result
		errs error
	)
	for _, step := range steps {
		before := s.Current()
		if err := applyStep(s, step, decode); err != nil {
			res.Failed++
			errs = multierr.Append(errs, fmt.Errorf("line %d: %s: %w", step.Line, step.Type, err))
			continue
		}
		res.Applied++
		if s.Current() != before {
			res.Changed++
		}
	}
	return res, errs
}

func applyStep(s *store.Store, step Step, decode Decoder) error {
	switch step.Type {
	case StepUndo:
		s.Undo()
		return nil
	case StepRedo:
		s.Redo()
		return nil
	}
	action, err := decode(step.Type, step.Payload)
	if err != nil {
		return err
	}
	return s.Dispatch(action)
}
