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

package feed

import (
	"encoding/json"
	"errors"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/innovationmech/scribe/pkg/store"
	"github.com/innovationmech/scribe/pkg/storage"
)

type published struct {
	subject string
	msg     Message
}

type fakeConn struct {
	mu   sync.Mutex
	msgs []published
	err  error
}

func (f *fakeConn) Publish(subject string, data []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		return err
	}
	f.msgs = append(f.msgs, published{subject: subject, msg: msg})
	return nil
}

func newCounter(t *testing.T) *store.Store {
	t.Helper()
	s := store.New(map[string]any{"count": 0}, store.WithStorage(storage.NewMemoryStorage(0)))
	s.RegisterReducer("increment", func(st *store.State, _ store.Action) (*store.State, error) {
		n, _ := store.Int(st.Value("count"))
		return st.With("count", n+1), nil
	})
	s.RegisterReducer("fail", func(*store.State, store.Action) (*store.State, error) {
		return nil, errors.New("boom")
	})
	return s
}

func TestPublisher_Attach(t *testing.T) {
	conn := &fakeConn{}
	now := time.UnixMilli(1234)
	p := NewPublisher(conn, WithSubjectPrefix("docs.42."), WithClock(func() time.Time { return now }))
	s := newCounter(t)
	detach := p.Attach(s)

	require.NoError(t, s.Dispatch(store.Action{Type: "increment", ID: "req-1"}))
	require.NoError(t, s.Dispatch(store.Action{Type: "increment"}))
	require.True(t, s.Undo())
	require.Error(t, s.Dispatch(store.Action{Type: "fail"}))
	require.NoError(t, s.ClearPersisted(t.Context(), "slot"))

	require.Len(t, conn.msgs, 5)

	assert.Equal(t, "docs.42.stateChanged", conn.msgs[0].subject)
	assert.Equal(t, "increment", conn.msgs[0].msg.Type)
	assert.Equal(t, "req-1", conn.msgs[0].msg.ActionID)
	assert.Equal(t, map[string]any{"count": 1.0}, conn.msgs[0].msg.NextState)
	assert.Equal(t, int64(1234), conn.msgs[0].msg.Timestamp)

	assert.Equal(t, "docs.42.stateRestored", conn.msgs[2].subject)
	assert.Equal(t, store.TypeUndo, conn.msgs[2].msg.Type)

	assert.Equal(t, "docs.42.error", conn.msgs[3].subject)
	assert.Contains(t, conn.msgs[3].msg.Error, "boom")

	assert.Equal(t, "docs.42.stateCleared", conn.msgs[4].subject)
	assert.Equal(t, "slot", conn.msgs[4].msg.Payload)

	detach()
	require.NoError(t, s.Dispatch(store.Action{Type: "increment"}))
	assert.Len(t, conn.msgs, 5)

	sent, failed := p.Stats()
	assert.Equal(t, int64(5), sent)
	assert.Zero(t, failed)
}

func TestPublisher_FailureDoesNotAffectStore(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	conn := &fakeConn{err: errors.New("connection closed")}
	p := NewPublisher(conn, WithLogger(zap.New(core)))
	s := newCounter(t)
	p.Attach(s)

	require.NoError(t, s.Dispatch(store.Action{Type: "increment"}))
	v, _ := s.Get("count")
	assert.Equal(t, 1.0, v)

	_, failed := p.Stats()
	assert.Equal(t, int64(1), failed)
	assert.Equal(t, 1, logs.FilterMessage("failed to publish change").Len())
}

func TestPublisher_Subject(t *testing.T) {
	tests := []struct {
		prefix string
		want   string
	}{
		{prefix: "", want: "scribe.changes.stateChanged"},
		{prefix: "custom", want: "custom.stateChanged"},
		{prefix: ".trimmed.", want: "trimmed.stateChanged"},
	}
	for _, tt := range tests {
		p := NewPublisher(&fakeConn{}, WithSubjectPrefix(tt.prefix))
		assert.Equal(t, tt.want, p.Subject(store.EventStateChanged))
	}
}

func TestConnect_NoURL(t *testing.T) {
	_, err := Connect(Config{}, nil)
	assert.ErrorIs(t, err, ErrNoURL)
}

func testNATSURL(t *testing.T) string {
	t.Helper()
	url := os.Getenv("SCRIBE_TEST_NATS_URL")
	if url == "" {
		url = nats.DefaultURL
	}
	nc, err := nats.Connect(url, nats.Timeout(500*time.Millisecond))
	if err != nil {
		t.Skipf("NATS not available at %s: %v", url, err)
	}
	nc.Close()
	return url
}

func TestPublisher_NATS(t *testing.T) {
	url := testNATSURL(t)

	cfg := DefaultConfig()
	cfg.URL = url
	conn, err := Connect(cfg, zap.NewNop())
	require.NoError(t, err)
	defer conn.Close()

	received := make(chan *nats.Msg, 1)
	sub, err := conn.ChanSubscribe(cfg.SubjectPrefix+".>", received)
	require.NoError(t, err)
	defer func() { _ = sub.Unsubscribe() }()
	require.NoError(t, conn.Flush())

	s := newCounter(t)
	NewPublisher(conn, WithSubjectPrefix(cfg.SubjectPrefix)).Attach(s)
	require.NoError(t, s.Dispatch(store.Action{Type: "increment"}))

	select {
	case msg := <-received:
		assert.Equal(t, "scribe.changes.stateChanged", msg.Subject)
		var decoded Message
		require.NoError(t, json.Unmarshal(msg.Data, &decoded))
		assert.Equal(t, "increment", decoded.Type)
	case <-time.After(2 * time.Second):
		t.Fatal("no message received")
	}
}
