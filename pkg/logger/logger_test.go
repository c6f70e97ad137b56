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

package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitLogger(t *testing.T) {
	ResetLogger()
	defer ResetLogger()

	InitLogger()
	require.NotNil(t, Logger)
	assert.NotNil(t, Logger.Core())

	first := Logger
	InitLogger()
	assert.Same(t, first, Logger, "InitLogger should keep the existing logger")
}

func TestGetLoggerInitializesLazily(t *testing.T) {
	ResetLogger()
	defer ResetLogger()

	l := GetLogger()
	require.NotNil(t, l)
	assert.Same(t, l, Logger)
}

func TestNamedWithoutInit(t *testing.T) {
	ResetLogger()
	defer ResetLogger()

	l := Named("store")
	require.NotNil(t, l)
	// no-op logger must not enable any level
	assert.False(t, l.Core().Enabled(-1))
}

func TestSetLevel(t *testing.T) {
	ResetLogger()
	defer ResetLogger()
	InitLogger()

	tests := []struct {
		name    string
		level   string
		want    string
		wantErr bool
	}{
		{name: "debug", level: "debug", want: "debug"},
		{name: "upper case and spaces", level: " WARN ", want: "warn"},
		{name: "error", level: "error", want: "error"},
		{name: "unknown level", level: "verbose", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := SetLevel(tt.level)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, GetLevel())
		})
	}
}

func TestSetLevelAffectsGlobalLogger(t *testing.T) {
	ResetLogger()
	defer ResetLogger()
	InitLogger()

	require.NoError(t, SetLevel("error"))
	assert.False(t, Logger.Core().Enabled(0), "info must be disabled at error level")

	require.NoError(t, SetLevel("debug"))
	assert.True(t, Logger.Core().Enabled(-1), "debug must be enabled at debug level")
}

func TestResetLoggerRestoresInfoLevel(t *testing.T) {
	require.NoError(t, SetLevel("debug"))
	ResetLogger()
	assert.Nil(t, Logger)
	assert.Equal(t, "info", GetLevel())
}
