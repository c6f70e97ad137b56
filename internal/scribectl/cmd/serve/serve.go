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

package serve

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/innovationmech/scribe/internal/scribectl/session"
	"github.com/innovationmech/scribe/internal/scribectl/ui"
	pkgconfig "github.com/innovationmech/scribe/pkg/config"
	"github.com/innovationmech/scribe/pkg/feed"
	"github.com/innovationmech/scribe/pkg/httpapi"
	"github.com/innovationmech/scribe/pkg/logger"
	"github.com/innovationmech/scribe/pkg/storage"
	"github.com/innovationmech/scribe/pkg/store"
)

// reloadDebounce is how long config writes must settle before a reload.
const reloadDebounce = 500 * time.Millisecond

// NewServeCmd creates the 'serve' command.
func NewServeCmd(opts *session.Options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the document over HTTP",
		Long: `Serve exposes the document store over HTTP with:
- dispatch, undo, redo and persistence endpoints
- Prometheus metrics on /metrics when metrics are enabled
- a NATS change feed when feed.enabled is set
- automatic saving of every change to the slot
- log level changes picked up from the config files without a restart`,
		Args: cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, args []string) error {
			logger.InitLogger()
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runServer(ctx, cmd.OutOrStdout(), *opts)
		},
	}
	return cmd
}

func runServer(ctx context.Context, out io.Writer, opts session.Options) (err error) {
	log := logger.Named("serve")

	s, err := session.Open(opts)
	if err != nil {
		return err
	}
	defer func() { err = multierr.Append(err, s.Close()) }()

	found, err := s.Load(ctx)
	if err != nil {
		return err
	}
	log.Info("document ready", zap.String("slot", s.Slot()), zap.Bool("restored", found))

	reloader := pkgconfig.NewHotReloader(s.Manager, reloadDebounce)
	if err := reloader.Start(); err == nil {
		defer reloader.Stop()
		go func() {
			for change := range reloader.Events() {
				applyChange(change, log)
			}
		}()
	} else {
		log.Debug("hot reloader not started", zap.Error(err))
	}

	detachAutosave := attachAutosave(ctx, s, log)
	defer detachAutosave()

	serverOpts := []httpapi.Option{
		httpapi.WithLogger(logger.Named("http")),
		httpapi.WithDecoder(s.Decode),
		httpapi.WithHealthCheck("storage", storageCheck(s.Storage)),
	}
	if s.Metrics != nil {
		serverOpts = append(serverOpts, httpapi.WithGatherer(s.Metrics.GetRegistry()))
	}

	if s.Config.Feed.Enabled {
		conn, err := feed.Connect(s.Config.Feed, logger.Named("feed"))
		if err != nil {
			return err
		}
		defer conn.Close()
		publisher := feed.NewPublisher(conn,
			feed.WithSubjectPrefix(s.Config.Feed.SubjectPrefix),
			feed.WithLogger(logger.Named("feed")),
		)
		defer logFeedStats(publisher, log)
		detach := publisher.Attach(s.Store)
		defer detach()
		log.Info("change feed attached", zap.String("subject", publisher.Subject(store.EventStateChanged)))
		serverOpts = append(serverOpts, httpapi.WithHealthCheck("feed", func(context.Context) error {
			if !conn.IsConnected() {
				return fmt.Errorf("feed connection is %s", conn.Status())
			}
			return nil
		}))
	}

	srv := httpapi.New(s.Store, serverOpts...)

	ui.NewPrinter(out).Info("serving slot %q on http://%s", s.Slot(), s.Config.HTTP.Address)
	return srv.ListenAndServe(ctx, s.Config.HTTP)
}

func logFeedStats(p *feed.Publisher, log *zap.Logger) {
	published, failed := p.Stats()
	log.Info("change feed detached", zap.Int64("published", published), zap.Int64("failed", failed))
}

// healthProbeSlot is read by the storage health check. It is never written.
const healthProbeSlot = "scribe-health-probe"

// storageCheck reports the backend as up when it can answer a read.
func storageCheck(st storage.Storage) httpapi.HealthCheck {
	return func(ctx context.Context) error {
		_, err := st.Get(ctx, healthProbeSlot)
		if err == nil || errors.Is(err, storage.ErrNotFound) {
			return nil
		}
		return err
	}
}

// attachAutosave persists the document after every change except loads,
// which already match the slot.
func attachAutosave(ctx context.Context, s *session.Session, log *zap.Logger) func() {
	return s.Store.Subscribe(func(change store.Change) {
		if change.Event == store.EventStateLoaded {
			return
		}
		if err := s.Save(ctx); err != nil {
			log.Warn("autosave failed", zap.String("type", change.Type), zap.Error(err))
			return
		}
		log.Debug("document saved", zap.String("type", change.Type))
	})
}

// applyChange applies the parts of a reloaded config that take effect
// without a restart.
func applyChange(change pkgconfig.ConfigChange, log *zap.Logger) {
	if change.Err != nil {
		log.Warn("config reload error", zap.Error(change.Err))
		return
	}
	var restart []string
	for _, key := range change.ChangedKeys {
		if !strings.HasPrefix(key, "logging.") {
			restart = append(restart, key)
		}
	}
	if v, ok := change.Settings["logging"].(map[string]interface{}); ok {
		if level, ok2 := v["level"].(string); ok2 && level != "" && level != logger.GetLevel() {
			if err := logger.SetLevel(level); err != nil {
				log.Warn("apply log level failed", zap.Error(err))
			} else {
				log.Info("log level updated via hot-reload", zap.String("level", logger.GetLevel()))
			}
		}
	}
	if len(restart) > 0 {
		log.Info("config changed; restart to apply", zap.Strings("keys", restart))
	}
}
