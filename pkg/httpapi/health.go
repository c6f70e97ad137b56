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
	"net/http"
	"sort"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Health status values.
const (
	HealthStatusHealthy   = "healthy"
	HealthStatusUnhealthy = "unhealthy"
	HealthStatusDegraded  = "degraded"
)

// Dependency status values.
const (
	DependencyStatusUp   = "up"
	DependencyStatusDown = "down"
)

// healthCheckTimeout bounds a single dependency check.
const healthCheckTimeout = 2 * time.Second

// HealthCheck probes a dependency. A nil error means the dependency is up.
type HealthCheck func(ctx context.Context) error

// HealthStatus is the body of GET /healthz.
type HealthStatus struct {
	Status       string                      `json:"status"`
	Timestamp    time.Time                   `json:"timestamp"`
	Uptime       string                      `json:"uptime"`
	Dependencies map[string]DependencyStatus `json:"dependencies,omitempty"`
}

// DependencyStatus is the outcome of one HealthCheck.
type DependencyStatus struct {
	Status  string `json:"status"`
	Latency string `json:"latency"`
	Error   string `json:"error,omitempty"`
}

// IsHealthy reports whether every part of the service is usable.
func (h *HealthStatus) IsHealthy() bool {
	return h.Status == HealthStatusHealthy
}

type namedCheck struct {
	name  string
	check HealthCheck
}

// WithHealthCheck adds a dependency probed by GET /healthz. A failing
// dependency degrades the service without making it unhealthy.
func WithHealthCheck(name string, check HealthCheck) Option {
	return func(s *Server) {
		if check != nil {
			s.checks = append(s.checks, namedCheck{name: name, check: check})
		}
	}
}

// Health runs every check. The store being destroyed makes the service
// unhealthy.
func (s *Server) Health(ctx context.Context) *HealthStatus {
	now := s.now()
	status := &HealthStatus{
		Status:    HealthStatusHealthy,
		Timestamp: now,
		Uptime:    now.Sub(s.started).Round(time.Second).String(),
	}

	checks := append([]namedCheck(nil), s.checks...)
	sort.Slice(checks, func(i, j int) bool { return checks[i].name < checks[j].name })
	if len(checks) > 0 {
		status.Dependencies = make(map[string]DependencyStatus, len(checks))
	}
	for _, c := range checks {
		cctx, cancel := context.WithTimeout(ctx, healthCheckTimeout)
		start := time.Now()
		err := c.check(cctx)
		cancel()

		dep := DependencyStatus{Status: DependencyStatusUp, Latency: time.Since(start).String()}
		if err != nil {
			dep.Status = DependencyStatusDown
			dep.Error = err.Error()
			status.Status = HealthStatusDegraded
			s.logger.Warn("health check failed", zap.String("dependency", c.name), zap.Error(err))
		}
		status.Dependencies[c.name] = dep
	}

	if s.store.Destroyed() {
		status.Status = HealthStatusUnhealthy
	}
	return status
}

func (s *Server) health(c *gin.Context) {
	status := s.Health(c.Request.Context())
	code := http.StatusOK
	if status.Status == HealthStatusUnhealthy {
		code = http.StatusServiceUnavailable
	}
	c.JSON(code, status)
}
