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

// Package feed publishes store changes to NATS so other processes can follow
// an editing session.
package feed

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	"github.com/innovationmech/scribe/pkg/store"
)

// DefaultSubjectPrefix is the subject prefix used when none is configured.
const DefaultSubjectPrefix = "scribe.changes"

// ErrNoURL is returned by Connect when no server URL is configured.
var ErrNoURL = errors.New("feed: no NATS url configured")

// Config configures the NATS connection and the subject layout.
type Config struct {
	Enabled        bool          `mapstructure:"enabled" json:"enabled" yaml:"enabled"`
	URL            string        `mapstructure:"url" json:"url" yaml:"url"`
	SubjectPrefix  string        `mapstructure:"subject_prefix" json:"subject_prefix" yaml:"subject_prefix"`
	Name           string        `mapstructure:"name" json:"name" yaml:"name"`
	Token          string        `mapstructure:"token" json:"token,omitempty" yaml:"token,omitempty"`
	Username       string        `mapstructure:"username" json:"username,omitempty" yaml:"username,omitempty"`
	Password       string        `mapstructure:"password" json:"password,omitempty" yaml:"password,omitempty"`
	ConnectTimeout time.Duration `mapstructure:"connect_timeout" json:"connect_timeout" yaml:"connect_timeout"`
	MaxReconnects  int           `mapstructure:"max_reconnects" json:"max_reconnects" yaml:"max_reconnects"`
	ReconnectWait  time.Duration `mapstructure:"reconnect_wait" json:"reconnect_wait" yaml:"reconnect_wait"`
}

// DefaultConfig returns a disabled feed pointing at a local server.
func DefaultConfig() Config {
	return Config{
		URL:            nats.DefaultURL,
		SubjectPrefix:  DefaultSubjectPrefix,
		Name:           "scribe",
		ConnectTimeout: 2 * time.Second,
		MaxReconnects:  10,
		ReconnectWait:  time.Second,
	}
}

// Connect dials the NATS server described by cfg.
func Connect(cfg Config, logger *zap.Logger) (*nats.Conn, error) {
	if strings.TrimSpace(cfg.URL) == "" {
		return nil, ErrNoURL
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	opts := []nats.Option{
		nats.Name(cfg.Name),
		nats.MaxReconnects(cfg.MaxReconnects),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Warn("feed disconnected", zap.Error(err))
			}
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.Info("feed reconnected", zap.String("url", nc.ConnectedUrl()))
		}),
	}
	if cfg.ConnectTimeout > 0 {
		opts = append(opts, nats.Timeout(cfg.ConnectTimeout))
	}
	if cfg.ReconnectWait > 0 {
		opts = append(opts, nats.ReconnectWait(cfg.ReconnectWait))
	}
	if cfg.Token != "" {
		opts = append(opts, nats.Token(cfg.Token))
	}
	if cfg.Username != "" || cfg.Password != "" {
		opts = append(opts, nats.UserInfo(cfg.Username, cfg.Password))
	}

	conn, err := nats.Connect(cfg.URL, opts...)
	if err != nil {
		return nil, fmt.Errorf("feed: connect %s: %w", cfg.URL, err)
	}
	return conn, nil
}

// Conn is the part of *nats.Conn used by Publisher.
type Conn interface {
	Publish(subject string, data []byte) error
}

// Message is the JSON document published for every store event.
type Message struct {
	Event     string         `json:"event"`
	Type      string         `json:"type,omitempty"`
	ActionID  string         `json:"actionId,omitempty"`
	Payload   any            `json:"payload,omitempty"`
	PrevState map[string]any `json:"prevState,omitempty"`
	NextState map[string]any `json:"nextState,omitempty"`
	Error     string         `json:"error,omitempty"`
	Timestamp int64          `json:"timestamp"`
}

// Publisher forwards store events to NATS subjects named
// "<prefix>.<event>".
type Publisher struct {
	conn   Conn
	prefix string
	logger *zap.Logger
	now    func() time.Time

	published atomic.Int64
	failed    atomic.Int64
}

// PublisherOption configures a Publisher.
type PublisherOption func(*Publisher)

// WithSubjectPrefix sets the subject prefix.
func WithSubjectPrefix(prefix string) PublisherOption {
	return func(p *Publisher) {
		if prefix = strings.Trim(prefix, ". "); prefix != "" {
			p.prefix = prefix
		}
	}
}

// WithLogger sets the logger for publish failures.
func WithLogger(logger *zap.Logger) PublisherOption {
	return func(p *Publisher) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// WithClock replaces the timestamp source.
func WithClock(now func() time.Time) PublisherOption {
	return func(p *Publisher) {
		if now != nil {
			p.now = now
		}
	}
}

// NewPublisher creates a Publisher writing to conn.
func NewPublisher(conn Conn, opts ...PublisherOption) *Publisher {
	p := &Publisher{
		conn:   conn,
		prefix: DefaultSubjectPrefix,
		logger: zap.NewNop(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Subject returns the subject used for event.
func (p *Publisher) Subject(event string) string {
	return p.prefix + "." + event
}

// Attach subscribes the publisher to every change, error and clear event of
// s. The returned function detaches it again.
func (p *Publisher) Attach(s *store.Store) func() {
	offChanges := s.Subscribe(func(c store.Change) {
		msg := Message{
			Event:     c.Event,
			Type:      c.Type,
			Payload:   c.Payload,
			PrevState: c.PrevState,
			NextState: c.NextState,
		}
		if c.Action != nil {
			msg.ActionID = c.Action.ID
		}
		_ = p.Publish(msg)
	})
	offErrors := s.On(store.EventError, func(payload any) error {
		if ev, ok := payload.(store.ErrorEvent); ok {
			msg := Message{Event: store.EventError, Type: ev.Action.Type, ActionID: ev.Action.ID}
			if ev.Err != nil {
				msg.Error = ev.Err.Error()
			}
			return p.Publish(msg)
		}
		return nil
	})
	offCleared := s.On(store.EventStateCleared, func(payload any) error {
		return p.Publish(Message{Event: store.EventStateCleared, Payload: payload})
	})
	return func() {
		offChanges()
		offErrors()
		offCleared()
	}
}

// Publish encodes msg and publishes it. Failures are logged and returned.
func (p *Publisher) Publish(msg Message) error {
	if msg.Timestamp == 0 {
		msg.Timestamp = p.now().UnixMilli()
	}
	subject := p.Subject(msg.Event)

	data, err := json.Marshal(msg)
	if err == nil {
		err = p.conn.Publish(subject, data)
	}
	if err != nil {
		p.failed.Add(1)
		p.logger.Warn("failed to publish change", zap.String("subject", subject), zap.Error(err))
		return fmt.Errorf("feed: publish %s: %w", subject, err)
	}
	p.published.Add(1)
	return nil
}

// Stats returns the number of published and failed messages.
func (p *Publisher) Stats() (published, failed int64) {
	return p.published.Load(), p.failed.Load()
}
