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

package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/innovationmech/scribe/pkg/document"
	"github.com/innovationmech/scribe/pkg/store"
)

func TestHealth(t *testing.T) {
	gin.SetMode(gin.TestMode)
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }

	up := func(context.Context) error { return nil }
	down := func(context.Context) error { return errors.New("connection refused") }

	tests := []struct {
		name       string
		checks     map[string]HealthCheck
		destroy    bool
		wantCode   int
		wantStatus string
	}{
		{name: "no dependencies", wantCode: http.StatusOK, wantStatus: HealthStatusHealthy},
		{name: "all up", checks: map[string]HealthCheck{"storage": up, "feed": up}, wantCode: http.StatusOK, wantStatus: HealthStatusHealthy},
		{name: "one down", checks: map[string]HealthCheck{"storage": up, "feed": down}, wantCode: http.StatusOK, wantStatus: HealthStatusDegraded},
		{name: "destroyed store", checks: map[string]HealthCheck{"storage": up}, destroy: true, wantCode: http.StatusServiceUnavailable, wantStatus: HealthStatusUnhealthy},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st := store.New(document.InitialState())
			opts := []Option{WithClock(clock)}
			for name, check := range tt.checks {
				opts = append(opts, WithHealthCheck(name, check))
			}
			srv := New(st, opts...)
			if tt.destroy {
				st.Destroy()
			}
			now = now.Add(90 * time.Second)

			w := do(t, srv, http.MethodGet, "/healthz", "")
			require.Equal(t, tt.wantCode, w.Code)

			var status HealthStatus
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &status))
			assert.Equal(t, tt.wantStatus, status.Status)
			assert.Equal(t, "1m30s", status.Uptime)
			assert.Len(t, status.Dependencies, len(tt.checks))
			if dep, ok := status.Dependencies["feed"]; ok && tt.wantStatus == HealthStatusDegraded {
				assert.Equal(t, DependencyStatusDown, dep.Status)
				assert.Equal(t, "connection refused", dep.Error)
			}
		})
	}
}

func TestHealth_ChecksHonourTimeout(t *testing.T) {
	st := store.New(document.InitialState())
	srv := New(st, WithHealthCheck("slow", func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	}))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	status := srv.Health(ctx)
	assert.False(t, status.IsHealthy())
	assert.Equal(t, DependencyStatusDown, status.Dependencies["slow"].Status)
}
