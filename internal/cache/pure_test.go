package cache

import (
	"testing"
	"time"
)

func TestHashIP_Deterministic(t *testing.T) {
	t.Parallel()

	ip := "192.168.1.100"

	if hashIP(ip) != hashIP(ip) {
		t.Error("Same IP should produce same hash")
	}
}

func TestHashIP_Length(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		ip   string
	}{
		{"IPv4", "192.168.1.1"},
		{"IPv6 localhost", "::1"},
		{"IPv6 full", "2001:0db8:85a3:0000:0000:8a2e:0370:7334"},
		{"empty", ""},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			// first 8 bytes of SHA256, hex encoded
			if hash := hashIP(tt.ip); len(hash) != 16 {
				t.Errorf("hashIP(%q) length = %d, want 16", tt.ip, len(hash))
			}
		})
	}
}

func TestHashIP_Different(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		ip1  string
		ip2  string
	}{
		{"different last octet", "10.0.0.1", "10.0.0.2"},
		{"IPv4 vs IPv6", "127.0.0.1", "::1"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if hashIP(tt.ip1) == hashIP(tt.ip2) {
				t.Errorf("Different IPs should produce different hashes: %q and %q", tt.ip1, tt.ip2)
			}
		})
	}
}

func TestCacheKey(t *testing.T) {
	t.Parallel()

	c := &Cache{prefix: "userapi:"}
	if got := c.key("ratelimit", "create_user", "abc"); got != "userapi:ratelimit:create_user:abc" {
		t.Errorf("key = %q", got)
	}

	bare := &Cache{}
	if got := bare.key("ratelimit", "x"); got != "ratelimit:x" {
		t.Errorf("key without prefix = %q", got)
	}
}

func TestNewRateLimitResult(t *testing.T) {
	t.Parallel()

	allowed := newRateLimitResult([]int64{1, 0, 19}, 10, 20)
	if !allowed.Allowed || allowed.Remaining != 19 || allowed.Limit != 20 {
		t.Errorf("unexpected allowed result: %+v", allowed)
	}
	if allowed.RetryAfter != 0 {
		t.Errorf("RetryAfter = %v, want 0", allowed.RetryAfter)
	}
	if until := time.Until(allowed.ResetAt); until <= 0 || until > time.Second {
		t.Errorf("ResetAt %v not within one refill second", until)
	}

	denied := newRateLimitResult([]int64{0, 2, 0}, 1, 5)
	if denied.Allowed {
		t.Error("expected denied result")
	}
	if denied.RetryAfter != 2*time.Second {
		t.Errorf("RetryAfter = %v, want 2s", denied.RetryAfter)
	}
}
