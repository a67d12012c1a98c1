package server

import (
	"net/http/httptest"
	"testing"
	"time"
)

func TestGetClientIP(t *testing.T) {
	tests := []struct {
		name    string
		headers map[string]string
		remote  string
		want    string
	}{
		{"remote addr", nil, "192.0.2.1:5000", "192.0.2.1"},
		{"forwarded for", map[string]string{"X-Forwarded-For": "bogus, 203.0.113.7, 10.0.0.1"}, "10.0.0.9:1", "203.0.113.7"},
		{"real ip", map[string]string{"X-Real-IP": "198.51.100.2"}, "10.0.0.9:1", "198.51.100.2"},
		{"invalid headers", map[string]string{"X-Forwarded-For": "nope", "X-Real-IP": "nope"}, "10.0.0.9:1", "10.0.0.9"},
		{"no port", nil, "10.0.0.9", "10.0.0.9"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest("GET", "/", nil)
			r.RemoteAddr = tt.remote
			for k, v := range tt.headers {
				r.Header.Set(k, v)
			}
			if got := getClientIP(r); got != tt.want {
				t.Errorf("getClientIP() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestRateLimiterAllow(t *testing.T) {
	rl := NewRateLimiter(2, time.Minute, 2, nil)
	defer rl.Close()

	for i := range 2 {
		if ok, _ := rl.Allow("ip:a"); !ok {
			t.Fatalf("request %d within burst was rejected", i+1)
		}
	}
	ok, wait := rl.Allow("ip:a")
	if ok {
		t.Fatal("request over burst was allowed")
	}
	if wait <= 0 || wait > 30*time.Second {
		t.Errorf("wait = %v, want (0, 30s]", wait)
	}
	if ok, _ := rl.Allow("ip:b"); !ok {
		t.Error("another client should have its own bucket")
	}

	rl.evictIdle(-time.Second)
	if n := rl.GetStats()["active_limiters"]; n != 0 {
		t.Errorf("active_limiters after eviction = %v", n)
	}
	rl.Close()
}

func TestRetryAfterSeconds(t *testing.T) {
	for wait, want := range map[time.Duration]string{
		0:                        "1",
		300 * time.Millisecond:   "1",
		59900 * time.Millisecond: "60",
		2 * time.Minute:          "120",
	} {
		if got := retryAfterSeconds(wait); got != want {
			t.Errorf("retryAfterSeconds(%v) = %q, want %q", wait, got, want)
		}
	}
}
