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

package config

import (
	"reflect"
	"sort"
)

// ChangedKeys returns the dotted paths of every leaf that differs between
// two settings maps, sorted. Lists are compared as a whole.
func ChangedKeys(previous, current map[string]interface{}) []string {
	changed := make(map[string]struct{})
	diffRecursive(previous, current, "", changed)

	keys := make([]string, 0, len(changed))
	for k := range changed {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func diffRecursive(a, b interface{}, path string, changed map[string]struct{}) {
	am, aIsMap := a.(map[string]interface{})
	bm, bIsMap := b.(map[string]interface{})
	if aIsMap && bIsMap {
		for k, av := range am {
			diffRecursive(av, bm[k], joinPath(path, k), changed)
		}
		for k, bv := range bm {
			if _, seen := am[k]; !seen {
				diffRecursive(nil, bv, joinPath(path, k), changed)
			}
		}
		return
	}

	if a == nil && b == nil {
		return
	}
	// a section appearing or disappearing reports each of its leaves
	if aIsMap && b == nil {
		for k, av := range am {
			diffRecursive(av, nil, joinPath(path, k), changed)
		}
		return
	}
	if bIsMap && a == nil {
		for k, bv := range bm {
			diffRecursive(nil, bv, joinPath(path, k), changed)
		}
		return
	}
	if !reflect.DeepEqual(a, b) {
		changed[rootIfEmpty(path)] = struct{}{}
	}
}

func joinPath(base, key string) string {
	if base == "" {
		return key
	}
	return base + "." + key
}

func rootIfEmpty(path string) string {
	if path == "" {
		return "root"
	}
	return path
}

func cloneSettings(m map[string]interface{}) map[string]interface{} {
	if m == nil {
		return nil
	}
	out := make(map[string]interface{}, len(m))
	for k, v := range m {
		out[k] = deepClone(v)
	}
	return out
}

func deepClone(v interface{}) interface{} {
	switch val := v.(type) {
	case map[string]interface{}:
		out := make(map[string]interface{}, len(val))
		for k, vv := range val {
			out[k] = deepClone(vv)
		}
		return out
	case []interface{}:
		out := make([]interface{}, len(val))
		for i := range val {
			out[i] = deepClone(val[i])
		}
		return out
	default:
		return val
	}
}
