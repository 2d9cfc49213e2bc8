package ratelimit

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func newTestClock() *testClock {
	return &testClock{now: time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func TestTokenBucket_Take(t *testing.T) {
	clock := newTestClock()
	bucket := newTokenBucket(10, 1.0, clock.Now) // 10 tokens, 1 token per second

	for i := 0; i < 10; i++ {
		allowed, remaining, _ := bucket.take()
		require.True(t, allowed, "request %d", i+1)
		assert.Equal(t, 9-i, remaining)
	}

	allowed, _, reset := bucket.take()
	assert.False(t, allowed, "11th request is denied")
	assert.Equal(t, clock.Now().Add(10*time.Second), reset)
}

func TestTokenBucket_Refill(t *testing.T) {
	clock := newTestClock()
	bucket := newTokenBucket(10, 1.0, clock.Now)

	for i := 0; i < 10; i++ {
		bucket.take()
	}
	assert.Equal(t, time.Second, bucket.nextToken())

	clock.Advance(1100 * time.Millisecond)
	allowed, _, _ := bucket.take()
	assert.True(t, allowed, "one token refilled")

	allowed, _, _ = bucket.take()
	assert.False(t, allowed)

	clock.Advance(time.Hour)
	_, remaining, _ := bucket.take()
	assert.Equal(t, 9, remaining, "refill never exceeds capacity")
}

func TestLimiter_Allow(t *testing.T) {
	clock := newTestClock()
	limiter := newLimiter(&Config{Enabled: true, DefaultLimit: 10, DefaultWindow: time.Minute}, clock.Now)
	defer limiter.Stop()

	for i := 0; i < 10; i++ {
		allowed, info := limiter.Allow("127.0.0.1", "/test", "GET")
		require.True(t, allowed, "request %d", i+1)
		assert.Equal(t, 10, info.Limit)
		assert.Equal(t, 9-i, info.Remaining)
	}

	allowed, info := limiter.Allow("127.0.0.1", "/test", "GET")
	assert.False(t, allowed)
	assert.Equal(t, 0, info.Remaining)
	assert.InDelta(t, float64(6*time.Second), float64(info.RetryAfter), float64(time.Millisecond))

	allowed, _ = limiter.Allow("127.0.0.2", "/test", "GET")
	assert.True(t, allowed, "buckets are per client")
}

func TestLimiter_WhitelistAndBlacklist(t *testing.T) {
	limiter := NewLimiter(&Config{
		Enabled:       true,
		DefaultLimit:  1,
		DefaultWindow: time.Minute,
		Whitelist:     map[string]bool{"127.0.0.1": true},
		Blacklist:     map[string]bool{"192.168.1.1": true},
	})
	defer limiter.Stop()

	for i := 0; i < 50; i++ {
		allowed, info := limiter.Allow("127.0.0.1", "/test", "GET")
		require.True(t, allowed)
		assert.Equal(t, 0, info.Limit)
	}

	allowed, _ := limiter.Allow("192.168.1.1", "/test", "GET")
	assert.False(t, allowed)
}

func TestLimiter_Disabled(t *testing.T) {
	limiter := NewLimiter(&Config{Enabled: false})
	defer limiter.Stop()

	for i := 0; i < 100; i++ {
		allowed, info := limiter.Allow("127.0.0.1", "/test", "GET")
		require.True(t, allowed)
		assert.Equal(t, 0, info.Limit)
	}
}

func TestLimiter_EndpointSpecific(t *testing.T) {
	clock := newTestClock()
	limiter := newLimiter(&Config{
		Enabled:         true,
		DefaultLimit:    1000,
		DefaultWindow:   time.Minute,
		EndpointConfigs: DefaultEndpointConfigs("/document-summarizer/summarize", "/document-summarizer/token", 5, 5),
	}, clock.Now)
	defer limiter.Stop()

	for i := 0; i < 5; i++ {
		allowed, info := limiter.Allow("127.0.0.1", "/document-summarizer/summarize", "POST")
		require.True(t, allowed)
		assert.Equal(t, 5, info.Limit)
	}

	allowed, _ := limiter.Allow("127.0.0.1", "/document-summarizer/summarize", "POST")
	assert.False(t, allowed)

	allowed, info := limiter.Allow("127.0.0.1", "/document-summarizer/token", "GET")
	assert.True(t, allowed)
	assert.Equal(t, 60, info.Limit)

	allowed, info = limiter.Allow("127.0.0.1", "/other", "GET")
	assert.True(t, allowed)
	assert.Equal(t, 1000, info.Limit)
}

func TestLimiter_UnlimitedPaths(t *testing.T) {
	limiter := NewLimiter(&Config{Enabled: true, DefaultLimit: 1, DefaultWindow: time.Minute})
	defer limiter.Stop()

	for i := 0; i < 5; i++ {
		allowed, _ := limiter.Allow("127.0.0.1", "/health", "GET")
		assert.True(t, allowed)
		allowed, _ = limiter.Allow("127.0.0.1", AssetPrefix+"document-summarizer.css", "GET")
		assert.True(t, allowed)
	}
	assert.Equal(t, 0, limiter.Buckets())
}

func TestLimiter_Concurrent(t *testing.T) {
	clock := newTestClock()
	limiter := newLimiter(&Config{Enabled: true, DefaultLimit: 100, DefaultWindow: time.Minute}, clock.Now)
	defer limiter.Stop()

	var wg sync.WaitGroup
	var mu sync.Mutex
	allowedCount := 0

	for i := 0; i < 200; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if allowed, _ := limiter.Allow("127.0.0.1", "/test", "GET"); allowed {
				mu.Lock()
				allowedCount++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 100, allowedCount)
}

func TestLimiter_CleanupBuckets(t *testing.T) {
	clock := newTestClock()
	limiter := newLimiter(&Config{Enabled: true, DefaultLimit: 10, DefaultWindow: time.Minute, IdleTimeout: time.Hour}, clock.Now)
	defer limiter.Stop()

	for i := 0; i < 10; i++ {
		limiter.Allow(fmt.Sprintf("127.0.0.%d", i+1), "/test", "GET")
	}
	require.Equal(t, 10, limiter.Buckets())

	clock.Advance(50 * time.Minute)
	for i := 0; i < 5; i++ {
		limiter.Allow(fmt.Sprintf("127.0.0.%d", i+1), "/test", "GET")
	}

	clock.Advance(20 * time.Minute)
	limiter.cleanupBuckets()
	assert.Equal(t, 5, limiter.Buckets(), "only recently used buckets survive")
}

func TestLimiter_Burst(t *testing.T) {
	clock := newTestClock()
	limiter := newLimiter(&Config{
		Enabled:       true,
		DefaultLimit:  10,
		DefaultWindow: time.Minute,
		EndpointConfigs: []EndpointConfig{
			{Path: "/burst", Method: "POST", Limit: 10, Window: time.Minute, Burst: 5},
		},
	}, clock.Now)
	defer limiter.Stop()

	for i := 0; i < 5; i++ {
		allowed, _ := limiter.Allow("127.0.0.1", "/burst", "POST")
		require.True(t, allowed)
	}
	allowed, _ := limiter.Allow("127.0.0.1", "/burst", "POST")
	assert.False(t, allowed, "burst exhausted, no refill yet")
}

func TestNewLimiter_NilConfig(t *testing.T) {
	limiter := NewLimiter(nil)
	defer limiter.Stop()
	limiter.Stop()

	allowed, info := limiter.Allow("127.0.0.1", "/test", "GET")
	assert.True(t, allowed)
	assert.Equal(t, 1000, info.Limit)
}

func TestMatchEndpoint_Prefix(t *testing.T) {
	configs := []EndpointConfig{{Path: "/api/", Method: "POST", Limit: 3, Window: time.Minute}}

	assert.NotNil(t, MatchEndpoint("/api/anything", "POST", configs))
	assert.Nil(t, MatchEndpoint("/api/anything", "GET", configs))
	assert.Nil(t, MatchEndpoint("/other", "POST", configs))
}

func TestLoadConfig(t *testing.T) {
	t.Setenv("RATE_LIMIT_ENABLED", "true")
	t.Setenv("RATE_LIMIT_SUMMARIZE_LIMIT", "7")
	t.Setenv("RATE_LIMIT_WHITELIST", "10.0.0.1, 10.0.0.2,")

	cfg := LoadConfig("/s", "/t")
	assert.True(t, cfg.Enabled)
	assert.Equal(t, 7, cfg.EndpointConfigs[0].Limit)
	assert.Equal(t, "/s", cfg.EndpointConfigs[0].Path)
	assert.Len(t, cfg.Whitelist, 2)

	t.Setenv("RATE_LIMIT_ENABLED", "false")
	assert.False(t, LoadConfig("/s", "/t").Enabled)
}

func TestMiddleware(t *testing.T) {
	clock := newTestClock()
	limiter := newLimiter(&Config{
		Enabled:         true,
		DefaultLimit:    100,
		DefaultWindow:   time.Minute,
		EndpointConfigs: []EndpointConfig{{Path: "/limited", Method: "POST", Limit: 1, Window: time.Minute}},
	}, clock.Now)
	defer limiter.Stop()

	handler := Middleware(limiter, nil)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodPost, "/limited", nil)
	req.RemoteAddr = "203.0.113.9:5555"

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "1", rec.Header().Get("X-RateLimit-Limit"))

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "60", rec.Header().Get("Retry-After"))
	assert.JSONEq(t, `{"success":false,"error":"`+RejectionMessage+`"}`, rec.Body.String())
}

func TestClientID(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "198.51.100.7:1234"
	assert.Equal(t, "198.51.100.7", ClientID(req))

	req.RemoteAddr = "not-a-hostport"
	assert.Equal(t, "not-a-hostport", ClientID(req))
}
