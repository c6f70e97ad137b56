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

// Package session opens a configured document store for one scribectl run.
package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/innovationmech/scribe/internal/scribectl/config"
	pkgconfig "github.com/innovationmech/scribe/pkg/config"
	"github.com/innovationmech/scribe/pkg/document"
	"github.com/innovationmech/scribe/pkg/logger"
	"github.com/innovationmech/scribe/pkg/storage"
	"github.com/innovationmech/scribe/pkg/store"
	"github.com/innovationmech/scribe/pkg/store/middleware"
)

// tracerName identifies spans produced by scribectl.
const tracerName = "github.com/innovationmech/scribe"

var (
	// ErrInvalidState is returned by Save when the document fails validation.
	ErrInvalidState = errors.New("document state is invalid")
	// ErrUnknownAlias is returned by Open when an alias targets an action type
	// that has no reducer.
	ErrUnknownAlias = errors.New("alias targets an unknown action type")
)

// Options select the configuration used by Open.
type Options struct {
	// ConfigDir holds scribe.yaml and its layers. Default: current directory.
	ConfigDir string
	// Env selects the environment layer, e.g. "dev".
	Env string
	// Slot overrides store.slot.
	Slot string
	// Storage replaces the configured backend. The session does not close it.
	Storage storage.Storage
	// TraceOutput receives spans when tracing is enabled. Default: stderr.
	TraceOutput io.Writer
}

// Session is a store wired with the configured storage, middleware, metrics
// and tracing.
type Session struct {
	Config  *config.Config
	Manager *pkgconfig.Manager
	Store   *store.Store
	Storage storage.Storage
	// Metrics is nil when metrics are disabled.
	Metrics *store.PrometheusMetricsCollector

	slot        string
	aliases     map[string]string
	jsonSchema  *store.JSONSchema
	ownsStorage bool
	tracer      *sdktrace.TracerProvider
	logger      *zap.Logger
}

// Open loads the configuration and builds the store. The document is not
// loaded from storage; call Load for that.
func Open(opts Options) (*Session, error) {
	manager := config.NewManager(opts.ConfigDir, opts.Env)
	cfg, err := config.Load(manager)
	if err != nil {
		return nil, err
	}
	if opts.Slot != "" {
		cfg.Store.Slot = opts.Slot
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
	}
	if err := logger.SetLevel(cfg.Logging.Level); err != nil {
		return nil, fmt.Errorf("set log level: %w", err)
	}

	s := &Session{
		Config:  cfg,
		Manager: manager,
		slot:    cfg.Store.Slot,
		logger:  logger.Named("session"),
	}

	if cfg.Store.Schema != "" {
		s.jsonSchema, err = loadJSONSchema(resolve(opts.ConfigDir, cfg.Store.Schema))
		if err != nil {
			return nil, err
		}
	}

	s.Storage = opts.Storage
	if s.Storage == nil {
		sc := cfg.Storage
		sc.Path = resolve(opts.ConfigDir, sc.Path)
		s.Storage, err = storage.New(sc)
		if err != nil {
			return nil, fmt.Errorf("open %s storage: %w", cfg.Storage.Type, err)
		}
		s.ownsStorage = true
	}

	storeOpts := []store.Option{
		store.WithMaxHistorySize(cfg.Store.MaxHistorySize),
		store.WithLogger(logger.Named("store")),
		store.WithStorage(s.Storage),
	}
	if cfg.Metrics.Enabled {
		s.Metrics, err = store.NewPrometheusMetricsCollector(nil)
		if err != nil {
			s.closeStorage()
			return nil, err
		}
		storeOpts = append(storeOpts, store.WithMetrics(s.Metrics))
	}
	if cfg.Tracing.Enabled {
		out := opts.TraceOutput
		if out == nil {
			out = os.Stderr
		}
		exporter, err := stdouttrace.New(stdouttrace.WithWriter(out), stdouttrace.WithPrettyPrint())
		if err != nil {
			s.closeStorage()
			return nil, fmt.Errorf("failed to create console exporter: %w", err)
		}
		s.tracer = sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
		storeOpts = append(storeOpts, store.WithTracer(s.tracer.Tracer(tracerName)))
	}

	s.Store = store.New(document.InitialState(), storeOpts...)
	document.Register(s.Store)
	s.Store.Use(
		middleware.Correlation(),
		middleware.Logging(logger.Named("dispatch")),
	)
	if err := s.useAliases(cfg.Store.Aliases); err != nil {
		_ = s.Close()
		return nil, err
	}
	s.Store.Use(middleware.Validation(document.Validator()))
	return s, nil
}

// useAliases installs one rename middleware per alias, after the logging
// middleware so logs show the name the action was given.
func (s *Session) useAliases(aliases []config.ActionAlias) error {
	s.aliases = make(map[string]string, len(aliases))
	for _, a := range aliases {
		if !s.Store.HasReducer(a.To) {
			return fmt.Errorf("%w: %q -> %q (known: %s)",
				ErrUnknownAlias, a.From, a.To, strings.Join(s.Store.ReducerTypes(), ", "))
		}
		s.aliases[a.From] = a.To
		s.Store.Use(middleware.Rename(a.From, a.To))
	}
	return nil
}

// Decode builds a document action from untyped input. An aliased type is
// decoded with the payload of its target and keeps its own name; the rename
// middleware maps it when it is dispatched.
func (s *Session) Decode(actionType string, raw map[string]any) (store.Action, error) {
	target, ok := s.aliases[actionType]
	if !ok {
		return document.Decode(actionType, raw)
	}
	action, err := document.Decode(target, raw)
	if err != nil {
		return store.Action{}, err
	}
	action.Type = actionType
	return action, nil
}

// Run opens a session, loads its slot and calls fn. The session is closed
// when fn returns.
func Run(ctx context.Context, opts Options, fn func(s *Session) error) (err error) {
	s, err := Open(opts)
	if err != nil {
		return err
	}
	defer func() { err = multierr.Append(err, s.Close()) }()

	if _, err := s.Load(ctx); err != nil {
		return err
	}
	return fn(s)
}

// Slot returns the storage slot the session reads and writes.
func (s *Session) Slot() string { return s.slot }

// Load restores the document from the slot. A missing slot leaves the fresh
// document in place and reports found=false.
func (s *Session) Load(ctx context.Context) (found bool, err error) {
	err = s.Store.LoadPersisted(ctx, s.slot)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, store.ErrSnapshotNotFound):
		s.logger.Debug("starting a new document", zap.String("slot", s.slot))
		return false, nil
	default:
		return false, err
	}
}

// Validate checks the current document against the document schema and the
// configured JSON Schema, if any.
func (s *Session) Validate() error {
	state := s.Store.GetState()
	err := document.Schema().ValidateState(state)
	if s.jsonSchema != nil {
		err = multierr.Append(err, s.jsonSchema.ValidateState(state))
	}
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidState, err)
	}
	return nil
}

// Save validates the document and persists it to the slot.
func (s *Session) Save(ctx context.Context) error {
	if err := s.Validate(); err != nil {
		return err
	}
	return s.Store.Persist(ctx, s.slot)
}

// Clear removes the persisted slot.
func (s *Session) Clear(ctx context.Context) error {
	return s.Store.ClearPersisted(ctx, s.slot)
}

// Close destroys the store and releases the storage and tracer.
func (s *Session) Close() error {
	s.Store.Destroy()
	err := s.closeStorage()
	if s.tracer != nil {
		err = multierr.Append(err, s.tracer.Shutdown(context.Background()))
	}
	return err
}

func (s *Session) closeStorage() error {
	if !s.ownsStorage || s.Storage == nil {
		return nil
	}
	return s.Storage.Close()
}

func loadJSONSchema(path string) (*store.JSONSchema, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read state schema: %w", err)
	}
	return store.CompileJSONSchema(string(data))
}

// resolve makes a relative path relative to the config directory.
func resolve(dir, path string) string {
	if path == "" || dir == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(dir, path)
}
