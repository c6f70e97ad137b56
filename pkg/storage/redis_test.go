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

package storage

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testRedisAvailable skips the test when no Redis server is reachable.
func testRedisAvailable(t *testing.T) {
	t.Helper()

	client := redis.NewClient(&redis.Options{
		Addr: "localhost:6379",
		DB:   15, // Use DB 15 for tests
	})
	defer client.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		t.Skip("Redis is not available for testing:", err)
	}
}

func getTestRedisConfig() *RedisConfig {
	return &RedisConfig{
		Mode:      RedisModeStandalone,
		Addr:      "localhost:6379",
		DB:        15,
		KeyPrefix: fmt.Sprintf("test:scribe:%d:", time.Now().UnixNano()),
	}
}

func TestRedisStorage(t *testing.T) {
	testRedisAvailable(t)

	st, err := NewRedisStorage(getTestRedisConfig())
	require.NoError(t, err)
	defer st.Close()

	exerciseStorage(t, st)
}

func TestRedisStorage_TTL(t *testing.T) {
	testRedisAvailable(t)

	cfg := getTestRedisConfig()
	cfg.TTL = time.Minute
	st, err := NewRedisStorage(cfg)
	require.NoError(t, err)
	defer st.Close()

	ctx := context.Background()
	require.NoError(t, st.Set(ctx, "draft", []byte("x")))
	defer st.Delete(ctx, "draft")

	ttl, err := st.client.TTL(ctx, cfg.KeyPrefix+"draft").Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, time.Duration(0))
	assert.LessOrEqual(t, ttl, time.Minute)
}

func TestRedisStorage_ClosedClient(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: "localhost:0"})
	st := NewRedisStorageWithClient(client, nil)

	require.NoError(t, st.Close())
	require.NoError(t, st.Close())

	_, err := st.Get(context.Background(), "draft")
	assert.ErrorIs(t, err, ErrClosed)
	assert.ErrorIs(t, st.Set(context.Background(), "draft", nil), ErrClosed)
}

func TestRedisConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		config  *RedisConfig
		wantErr bool
	}{
		{name: "nil config", config: nil, wantErr: true},
		{name: "default", config: DefaultRedisConfig()},
		{name: "standalone without address", config: &RedisConfig{}, wantErr: true},
		{name: "cluster", config: &RedisConfig{Mode: RedisModeCluster, Addrs: []string{"a:1", "b:2"}}},
		{name: "sentinel without master", config: &RedisConfig{Mode: RedisModeSentinel, Addrs: []string{"s:26379"}}, wantErr: true},
		{name: "sentinel", config: &RedisConfig{Mode: RedisModeSentinel, Addrs: []string{"s:26379"}, MasterName: "mymaster"}},
		{name: "negative db", config: &RedisConfig{Addr: "a:1", DB: -1}, wantErr: true},
		{name: "negative ttl", config: &RedisConfig{Addr: "a:1", TTL: -time.Second}, wantErr: true},
		{name: "unknown mode", config: &RedisConfig{Mode: "ring", Addr: "a:1"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.NotEmpty(t, tt.config.KeyPrefix)
			assert.Positive(t, tt.config.DialTimeout)
		})
	}
}
