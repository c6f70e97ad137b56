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

// Package httpapi exposes a store over HTTP.
package httpapi

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/innovationmech/scribe/pkg/document"
	"github.com/innovationmech/scribe/pkg/storage"
	"github.com/innovationmech/scribe/pkg/store"
)

// Config configures the HTTP listener.
type Config struct {
	Address         string        `mapstructure:"address" json:"address" yaml:"address"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout" json:"read_timeout" yaml:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout" json:"write_timeout" yaml:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" json:"shutdown_timeout" yaml:"shutdown_timeout"`
}

// DefaultConfig returns the listener defaults.
func DefaultConfig() Config {
	return Config{
		Address:         "127.0.0.1:8080",
		ReadTimeout:     10 * time.Second,
		WriteTimeout:    10 * time.Second,
		ShutdownTimeout: 5 * time.Second,
	}
}

// ActionDecoder turns a request body into a typed action.
type ActionDecoder func(actionType string, raw map[string]any) (store.Action, error)

// ActionRequest is the body of POST /actions.
type ActionRequest struct {
	Type    string         `json:"type" binding:"required"`
	Payload map[string]any `json:"payload"`
	ID      string         `json:"id"`
}

// StateResponse is returned by every endpoint that changes the state.
type StateResponse struct {
	Changed bool              `json:"changed"`
	State   map[string]any    `json:"state"`
	History store.HistoryInfo `json:"history"`
}

// Server serves a single store. Store calls are serialised so concurrent
// requests never overlap a dispatch.
type Server struct {
	store    *store.Store
	mu       sync.Mutex
	logger   *zap.Logger
	decode   ActionDecoder
	gatherer prometheus.Gatherer
	engine   *gin.Engine
	checks   []namedCheck
	started  time.Time
	now      func() time.Time
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the request and error logger.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithDecoder replaces document.Decode as the action decoder.
func WithDecoder(decode ActionDecoder) Option {
	return func(s *Server) {
		if decode != nil {
			s.decode = decode
		}
	}
}

// WithGatherer serves gatherer on /metrics.
func WithGatherer(gatherer prometheus.Gatherer) Option {
	return func(s *Server) {
		s.gatherer = gatherer
	}
}

// WithClock replaces time.Now for health reports.
func WithClock(now func() time.Time) Option {
	return func(s *Server) {
		if now != nil {
			s.now = now
		}
	}
}

// New creates a Server for st.
func New(st *store.Store, opts ...Option) *Server {
	s := &Server{
		store:  st,
		logger: zap.NewNop(),
		decode: document.Decode,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.started = s.now()
	s.engine = s.routes()
	return s
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.engine
}

func (s *Server) routes() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger(s.logger, "/healthz", "/metrics"))

	r.GET("/healthz", s.health)
	r.GET("/state", s.getState)
	r.GET("/state/:key", s.getKey)
	r.GET("/history", s.history)
	r.GET("/actions", s.actionTypes)
	r.POST("/actions", s.dispatch)
	r.POST("/undo", s.undo)
	r.POST("/redo", s.redo)
	r.POST("/persist/:slot", s.persist)
	r.POST("/load/:slot", s.load)
	r.DELETE("/persist/:slot", s.clear)

	if s.gatherer != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{})))
	}
	return r
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, cfg Config) error {
	srv := &http.Server{
		Addr:         cfg.Address,
		Handler:      s.engine,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("HTTP server listening", zap.String("address", cfg.Address))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	timeout := cfg.ShutdownTimeout
	if timeout <= 0 {
		timeout = DefaultConfig().ShutdownTimeout
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	s.logger.Info("shutting down HTTP server")
	return srv.Shutdown(shutdownCtx)
}

func (s *Server) getState(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"state": s.store.GetState()})
}

func (s *Server) getKey(c *gin.Context) {
	key := c.Param("key")
	value, ok := s.store.Get(key)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "key not found", "key": key})
		return
	}
	c.JSON(http.StatusOK, gin.H{"key": key, "value": value})
}

func (s *Server) history(c *gin.Context) {
	c.JSON(http.StatusOK, s.store.History())
}

func (s *Server) actionTypes(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"types": s.store.ReducerTypes()})
}

func (s *Server) dispatch(c *gin.Context) {
	var req ActionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	action, err := s.decode(req.Type, req.Payload)
	if err != nil {
		s.fail(c, err)
		return
	}
	action.ID = req.ID
	if action.ID == "" {
		action.ID = c.GetString(requestIDKey)
	}

	s.mu.Lock()
	before := s.store.Current()
	err = s.store.Dispatch(action)
	changed := s.store.Current() != before
	s.mu.Unlock()

	if err != nil {
		s.fail(c, err)
		return
	}
	s.respond(c, changed)
}

func (s *Server) undo(c *gin.Context) {
	s.mu.Lock()
	changed := s.store.Undo()
	s.mu.Unlock()
	s.respond(c, changed)
}

func (s *Server) redo(c *gin.Context) {
	s.mu.Lock()
	changed := s.store.Redo()
	s.mu.Unlock()
	s.respond(c, changed)
}

func (s *Server) persist(c *gin.Context) {
	slot := c.Param("slot")
	s.mu.Lock()
	err := s.store.Persist(c.Request.Context(), slot)
	s.mu.Unlock()
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"slot": slot, "history": s.store.History()})
}

func (s *Server) load(c *gin.Context) {
	slot := c.Param("slot")
	s.mu.Lock()
	err := s.store.LoadPersisted(c.Request.Context(), slot)
	s.mu.Unlock()
	if err != nil {
		s.fail(c, err)
		return
	}
	s.respond(c, true)
}

func (s *Server) clear(c *gin.Context) {
	s.mu.Lock()
	err := s.store.ClearPersisted(c.Request.Context(), c.Param("slot"))
	s.mu.Unlock()
	if err != nil {
		s.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) respond(c *gin.Context, changed bool) {
	c.JSON(http.StatusOK, StateResponse{
		Changed: changed,
		State:   s.store.GetState(),
		History: s.store.History(),
	})
}

func (s *Server) fail(c *gin.Context, err error) {
	status := statusFor(err)
	_ = c.Error(err)
	c.JSON(status, gin.H{"error": err.Error()})
}

func statusFor(err error) int {
	var dispatchErr *store.DispatchError
	switch {
	case errors.Is(err, document.ErrUnknownAction),
		errors.Is(err, store.ErrNoReducer),
		errors.Is(err, storage.ErrInvalidKey):
		return http.StatusBadRequest
	case errors.Is(err, store.ErrSnapshotNotFound):
		return http.StatusNotFound
	case errors.Is(err, store.ErrDispatchInProgress):
		return http.StatusConflict
	case errors.Is(err, store.ErrStoreDestroyed):
		return http.StatusGone
	case errors.Is(err, store.ErrCorruptSnapshot):
		return http.StatusUnprocessableEntity
	case errors.Is(err, document.ErrInvalidPayload), errors.As(err, &dispatchErr):
		return http.StatusUnprocessableEntity
	case errors.Is(err, store.ErrNoStorage):
		return http.StatusNotImplemented
	case errors.Is(err, storage.ErrQuotaExceeded):
		return http.StatusInsufficientStorage
	default:
		return http.StatusInternalServerError
	}
}
