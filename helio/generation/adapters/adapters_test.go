package adapters

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ports "github.com/ZanzyTHEbar/helio-assistant/helio/generation/ports"
)

func TestLRUCache_GetSet(t *testing.T) {
	ctx := context.Background()
	c := NewLRUCache(2)

	_, ok := c.Get(ctx, "missing")
	assert.False(t, ok)

	require.NoError(t, c.Set(ctx, "a", []byte("1"), 0))
	v, ok := c.Get(ctx, "a")
	require.True(t, ok)
	assert.Equal(t, []byte("1"), v)

	require.NoError(t, c.Set(ctx, "a", []byte("2"), 0))
	v, _ = c.Get(ctx, "a")
	assert.Equal(t, []byte("2"), v)
	assert.Equal(t, 1, c.Len())
}

func TestLRUCache_EvictsLeastRecentlyUsed(t *testing.T) {
	ctx := context.Background()
	c := NewLRUCache(2)

	require.NoError(t, c.Set(ctx, "a", []byte("1"), 0))
	require.NoError(t, c.Set(ctx, "b", []byte("2"), 0))
	_, _ = c.Get(ctx, "a")
	require.NoError(t, c.Set(ctx, "c", []byte("3"), 0))

	_, ok := c.Get(ctx, "b")
	assert.False(t, ok, "b was least recently used")
	_, ok = c.Get(ctx, "a")
	assert.True(t, ok)
	_, ok = c.Get(ctx, "c")
	assert.True(t, ok)
}

func TestLRUCache_TTL(t *testing.T) {
	ctx := context.Background()
	now := time.Unix(1_700_000_000, 0)
	c := NewLRUCache(4)
	c.now = func() time.Time { return now }

	require.NoError(t, c.Set(ctx, "k", []byte("v"), 10))
	_, ok := c.Get(ctx, "k")
	assert.True(t, ok)

	now = now.Add(11 * time.Second)
	_, ok = c.Get(ctx, "k")
	assert.False(t, ok)
	assert.Equal(t, 0, c.Len())
}

func TestLRUCache_Delete(t *testing.T) {
	ctx := context.Background()
	c := NewLRUCache(4)
	require.NoError(t, c.Set(ctx, "k", []byte("v"), 0))
	require.NoError(t, c.Delete(ctx, "k"))
	require.NoError(t, c.Delete(ctx, "k"))
	_, ok := c.Get(ctx, "k")
	assert.False(t, ok)
}

func TestLRUCache_ValuesAreCopied(t *testing.T) {
	ctx := context.Background()
	c := NewLRUCache(4)
	in := []byte("abc")
	require.NoError(t, c.Set(ctx, "k", in, 0))
	in[0] = 'x'

	out, _ := c.Get(ctx, "k")
	assert.Equal(t, "abc", string(out))
	out[0] = 'y'
	again, _ := c.Get(ctx, "k")
	assert.Equal(t, "abc", string(again))
}

func TestLRUCache_ConcurrentAccess(t *testing.T) {
	ctx := context.Background()
	c := NewLRUCache(16)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				key := fmt.Sprintf("k%d", (i+j)%32)
				_ = c.Set(ctx, key, []byte(key), 0)
				_, _ = c.Get(ctx, key)
			}
		}(i)
	}
	wg.Wait()
	assert.LessOrEqual(t, c.Len(), 16)
}

func TestTokenBucket(t *testing.T) {
	ctx := context.Background()
	now := time.Unix(1_700_000_000, 0)
	tb := NewTokenBucket(2, time.Second)
	tb.now = func() time.Time { return now }

	require.NoError(t, tb.Allow(ctx, "gemini"))
	require.NoError(t, tb.Allow(ctx, "gemini"))
	assert.ErrorIs(t, tb.Allow(ctx, "gemini"), ports.ErrRateLimited)

	// Buckets are per key.
	assert.NoError(t, tb.Allow(ctx, "static"))

	now = now.Add(1500 * time.Millisecond)
	assert.NoError(t, tb.Allow(ctx, "gemini"))
	assert.ErrorIs(t, tb.Allow(ctx, "gemini"), ports.ErrRateLimited)

	now = now.Add(time.Hour)
	assert.NoError(t, tb.Allow(ctx, "gemini"))
	assert.NoError(t, tb.Allow(ctx, "gemini"))
	assert.ErrorIs(t, tb.Allow(ctx, "gemini"), ports.ErrRateLimited)
}

func TestTokenBucket_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, NewTokenBucket(1, time.Second).Allow(ctx, "k"), context.Canceled)
}

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var out []map[string]any
	for _, line := range bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n")) {
		if len(line) == 0 {
			continue
		}
		var m map[string]any
		require.NoError(t, json.Unmarshal(line, &m))
		out = append(out, m)
	}
	return out
}

func TestZerologTracer_Span(t *testing.T) {
	var buf bytes.Buffer
	tracer := NewZerologTracer(zerolog.New(&buf).Level(zerolog.DebugLevel))

	ctx, finish := tracer.StartSpan(context.Background(), "responder.generate", map[string]any{"provider": "static"})
	tracer.Event(ctx, "cache_miss", map[string]any{"key": "pv"})
	finish(fmt.Errorf("boom"))

	lines := decodeLines(t, &buf)
	require.Len(t, lines, 3)

	assert.Equal(t, "span_start", lines[0]["event"])
	assert.Equal(t, "responder.generate", lines[0]["span"])
	assert.Equal(t, "static", lines[0]["provider"])

	assert.Equal(t, "cache_miss", lines[1]["event"])
	assert.Equal(t, "responder.generate", lines[1]["span"])
	assert.Equal(t, "pv", lines[1]["key"])

	assert.Equal(t, "span_end", lines[2]["event"])
	assert.Equal(t, "error", lines[2]["level"])
	assert.Equal(t, "boom", lines[2]["error"])
}

func TestZerologTracer_EventWithoutSpan(t *testing.T) {
	var buf bytes.Buffer
	tracer := NewZerologTracer(zerolog.New(&buf))

	tracer.Event(context.Background(), "standalone", nil)

	lines := decodeLines(t, &buf)
	require.Len(t, lines, 1)
	assert.Equal(t, "standalone", lines[0]["event"])
	_, hasSpan := lines[0]["span"]
	assert.False(t, hasSpan)
}
