package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/netip"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stepClock struct{ now time.Time }

func (c *stepClock) Now() time.Time { return c.now }

func (c *stepClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func newTestIPLimiter() (*ipRateLimiter, *stepClock) {
	clock := &stepClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	rl := newIPRateLimiter()
	rl.now = clock.Now
	return rl, clock
}

func TestIPRateLimiter_AllowsBeforeThreshold(t *testing.T) {
	rl, _ := newTestIPLimiter()

	for i := 0; i < ipMaxFailures-1; i++ {
		rl.recordFailure("198.51.100.1")
		blocked, _ := rl.check("198.51.100.1")
		assert.False(t, blocked, "should not block before reaching ipMaxFailures")
	}
}

func TestIPRateLimiter_BlocksAfterThreshold(t *testing.T) {
	rl, _ := newTestIPLimiter()

	for i := 0; i < ipMaxFailures; i++ {
		rl.recordFailure("198.51.100.1")
	}

	blocked, retryAfter := rl.check("198.51.100.1")
	require.True(t, blocked, "should block after ipMaxFailures")
	assert.Equal(t, ipBaseLockout, retryAfter)
}

func TestIPRateLimiter_ExponentialBackoff(t *testing.T) {
	rl, _ := newTestIPLimiter()

	for i := 0; i < ipMaxFailures; i++ {
		rl.recordFailure("198.51.100.1")
	}
	_, first := rl.check("198.51.100.1")

	rl.recordFailure("198.51.100.1")
	_, second := rl.check("198.51.100.1")
	assert.Equal(t, 2*first, second, "lockout should double with each further failure")
}

func TestIPRateLimiter_MaxLockoutCap(t *testing.T) {
	rl, _ := newTestIPLimiter()

	for i := 0; i < ipMaxFailures+20; i++ {
		rl.recordFailure("198.51.100.1")
	}
	_, retryAfter := rl.check("198.51.100.1")
	assert.Equal(t, ipMaxLockout, retryAfter)
}

func TestIPRateLimiter_LockoutExpires(t *testing.T) {
	rl, clock := newTestIPLimiter()

	for i := 0; i < ipMaxFailures; i++ {
		rl.recordFailure("198.51.100.1")
	}
	clock.Advance(ipBaseLockout)

	blocked, _ := rl.check("198.51.100.1")
	assert.False(t, blocked)
}

func TestIPRateLimiter_SuccessClears(t *testing.T) {
	rl, _ := newTestIPLimiter()

	for i := 0; i < ipMaxFailures; i++ {
		rl.recordFailure("198.51.100.1")
	}
	rl.recordSuccess("198.51.100.1")

	blocked, _ := rl.check("198.51.100.1")
	assert.False(t, blocked, "should not block after successful login")
}

func TestIPRateLimiter_IsolatesIPs(t *testing.T) {
	rl, _ := newTestIPLimiter()

	for i := 0; i < ipMaxFailures; i++ {
		rl.recordFailure("198.51.100.1")
	}
	blocked, _ := rl.check("198.51.100.2")
	assert.False(t, blocked, "rate limit for one IP should not affect another")
}

func TestIPRateLimiter_SweepRemovesExpired(t *testing.T) {
	rl, clock := newTestIPLimiter()
	rl.recordFailure("old")
	clock.Advance(attemptExpiry + time.Second)
	rl.recordFailure("fresh")

	rl.sweep()

	rl.mu.Lock()
	defer rl.mu.Unlock()
	assert.NotContains(t, rl.attempts, "old")
	assert.Contains(t, rl.attempts, "fresh")
}

func TestRunMaintenanceStopsOnCancel(t *testing.T) {
	a := &API{ipLimiter: newIPRateLimiter()}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		a.RunMaintenance(ctx, time.Millisecond)
		close(done)
	}()
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("RunMaintenance did not return after cancel")
	}
}

func TestGlobalRateLimiter_AllowsBeforeThreshold(t *testing.T) {
	rl := newGlobalRateLimiter()
	for i := 0; i < globalMaxFailures-1; i++ {
		rl.recordFailure()
	}
	blocked, _ := rl.check()
	assert.False(t, blocked)
}

func TestGlobalRateLimiter_BlocksAfterThreshold(t *testing.T) {
	rl := newGlobalRateLimiter()
	for i := 0; i < globalMaxFailures; i++ {
		rl.recordFailure()
	}
	blocked, retryAfter := rl.check()
	require.True(t, blocked)
	assert.Greater(t, retryAfter, time.Duration(0))
}

func TestGlobalRateLimiter_SlidingWindowExpiry(t *testing.T) {
	clock := &stepClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	rl := newGlobalRateLimiter()
	rl.now = clock.Now

	for i := 0; i < globalMaxFailures-1; i++ {
		rl.recordFailure()
	}
	clock.Advance(globalWindow + time.Second)
	rl.recordFailure()

	blocked, _ := rl.check()
	assert.False(t, blocked, "failures outside the window should not count")
}

func TestRetryAfterString(t *testing.T) {
	assert.Equal(t, "1", retryAfterString(0))
	assert.Equal(t, "1", retryAfterString(300*time.Millisecond))
	assert.Equal(t, "90", retryAfterString(90*time.Second))
}

func TestRequestLimiter(t *testing.T) {
	assert.Nil(t, newRequestLimiter(0, 10), "non-positive rate disables the limiter")

	rl := newRequestLimiter(0.001, 2)
	assert.True(t, rl.allow("a"))
	assert.True(t, rl.allow("a"))
	assert.False(t, rl.allow("a"), "burst exhausted")
	assert.True(t, rl.allow("b"), "buckets are per client")
}

func TestRequestLimiterMiddleware(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	clientIP := func(*http.Request) string { return "198.51.100.7" }

	var disabled *requestLimiter
	h := disabled.middleware(clientIP, nil)(ok)
	for i := 0; i < 5; i++ {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/admin/login", nil))
		assert.Equal(t, http.StatusNoContent, rec.Code)
	}

	var limitedIPs []string
	onLimited := func(_ *http.Request, ip string) { limitedIPs = append(limitedIPs, ip) }
	h = newRequestLimiter(0.001, 1).middleware(clientIP, onLimited)(ok)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/admin/login", nil))
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/admin/login", nil))
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "1", rec.Header().Get("Retry-After"))
	assert.Equal(t, []string{"198.51.100.7"}, limitedIPs)
}

func TestExtractClientIPWithTrustedProxies(t *testing.T) {
	trustedCIDR := netip.MustParsePrefix("10.0.0.0/8")

	tests := []struct {
		name           string
		remoteAddr     string
		headers        map[string]string
		trustedProxies []netip.Prefix
		want           string
	}{
		{
			name:           "trusted proxy honors XFF",
			remoteAddr:     "10.0.0.1:80",
			headers:        map[string]string{"X-Forwarded-For": "198.51.100.25"},
			trustedProxies: []netip.Prefix{trustedCIDR},
			want:           "198.51.100.25",
		},
		{
			name:           "untrusted peer ignores XFF",
			remoteAddr:     "192.168.1.1:80",
			headers:        map[string]string{"X-Forwarded-For": "198.51.100.25"},
			trustedProxies: []netip.Prefix{trustedCIDR},
			want:           "192.168.1.1",
		},
		{
			name:           "untrusted peer ignores Forwarded",
			remoteAddr:     "192.168.1.1:80",
			headers:        map[string]string{"Forwarded": "for=198.51.100.25"},
			trustedProxies: []netip.Prefix{trustedCIDR},
			want:           "192.168.1.1",
		},
		{
			name:           "untrusted peer ignores X-Real-IP",
			remoteAddr:     "192.168.1.1:80",
			headers:        map[string]string{"X-Real-IP": "198.51.100.25"},
			trustedProxies: []netip.Prefix{trustedCIDR},
			want:           "192.168.1.1",
		},
		{
			name:       "no trusted proxies ignores headers",
			remoteAddr: "192.168.1.1:80",
			headers:    map[string]string{"X-Forwarded-For": "198.51.100.25"},
			want:       "192.168.1.1",
		},
		{
			name:           "trusted proxy with no headers falls back to remote",
			remoteAddr:     "10.0.0.1:80",
			trustedProxies: []netip.Prefix{trustedCIDR},
			want:           "10.0.0.1",
		},
		{
			name:           "multi-hop XFF returns the original client",
			remoteAddr:     "10.0.0.5:80",
			headers:        map[string]string{"X-Forwarded-For": "203.0.113.50, 10.0.0.3, 10.0.0.4"},
			trustedProxies: []netip.Prefix{trustedCIDR},
			want:           "203.0.113.50",
		},
		{
			name:           "garbage XFF entries are skipped",
			remoteAddr:     "10.0.0.5:80",
			headers:        map[string]string{"X-Forwarded-For": "unknown, 203.0.113.51"},
			trustedProxies: []netip.Prefix{trustedCIDR},
			want:           "203.0.113.51",
		},
		{
			name:           "trusted IPv6 proxy with Forwarded quoted IPv6",
			remoteAddr:     "[fd00::1]:80",
			headers:        map[string]string{"Forwarded": `for="[2001:db8::42]:1234"`},
			trustedProxies: []netip.Prefix{netip.MustParsePrefix("fd00::/8")},
			want:           "2001:db8::42",
		},
		{
			name:           "spoofed headers from an untrusted peer",
			remoteAddr:     "203.0.113.99:12345",
			headers:        map[string]string{"X-Forwarded-For": "10.0.0.1", "X-Real-IP": "10.0.0.3"},
			trustedProxies: []netip.Prefix{trustedCIDR},
			want:           "203.0.113.99",
		},
		{
			name:       "IPv4-mapped IPv6 remote is unmapped",
			remoteAddr: "[::ffff:192.0.2.9]:80",
			want:       "192.0.2.9",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := &http.Request{RemoteAddr: tt.remoteAddr, Header: make(http.Header)}
			for k, v := range tt.headers {
				r.Header.Set(k, v)
			}
			assert.Equal(t, tt.want, extractClientIPWithProxies(r, tt.trustedProxies))
		})
	}
}

func TestExtractClientIPHeaderPriority(t *testing.T) {
	trusted := []netip.Prefix{netip.MustParsePrefix("10.0.0.0/8")}

	r := &http.Request{
		RemoteAddr: "10.0.0.1:80",
		Header: http.Header{
			"X-Forwarded-For": []string{"198.51.100.10"},
			"Forwarded":       []string{"for=198.51.100.20"},
			"X-Real-Ip":       []string{"198.51.100.30"},
		},
	}
	assert.Equal(t, "198.51.100.10", extractClientIPWithProxies(r, trusted))

	r.Header.Del("X-Forwarded-For")
	assert.Equal(t, "198.51.100.20", extractClientIPWithProxies(r, trusted))

	r.Header.Del("Forwarded")
	assert.Equal(t, "198.51.100.30", extractClientIPWithProxies(r, trusted))
}

func TestWithTrustedProxies(t *testing.T) {
	t.Run("valid CIDRs and bare addresses", func(t *testing.T) {
		opt, err := WithTrustedProxies([]string{"10.0.0.0/8", " 172.16.0.0/12 ", "10.0.0.1", "::1", ""})
		require.NoError(t, err)
		a := &API{}
		opt(a)
		require.Len(t, a.trustedProxies, 4)
		assert.Equal(t, netip.MustParsePrefix("10.0.0.1/32"), a.trustedProxies[2])
		assert.Equal(t, netip.MustParsePrefix("::1/128"), a.trustedProxies[3])
	})

	t.Run("invalid entry returns error", func(t *testing.T) {
		_, err := WithTrustedProxies([]string{"10.0.0.0/8", "garbage"})
		require.Error(t, err)
	})
}
