package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

type stubLimiterStore struct {
	counts map[string]int64
	err    error
}

func (s *stubLimiterStore) IncrWithTTL(_ context.Context, key string, _ time.Duration) (int64, error) {
	if s.err != nil {
		return 0, s.err
	}
	if s.counts == nil {
		s.counts = map[string]int64{}
	}
	s.counts[key]++
	return s.counts[key], nil
}

func TestScanRateLimitAllowsUnderLimit(t *testing.T) {
	policy := NewScanRateLimitPolicy("scan", time.Minute, 2)
	store := &stubLimiterStore{}
	handler := ScanRateLimit(policy, store, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusFound)
	}))

	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodGet, "/qrcodes/1/scan", nil)
		req.RemoteAddr = "198.51.100.7:1234"
		resp := httptest.NewRecorder()
		handler.ServeHTTP(resp, req)
		if resp.Code != http.StatusFound {
			t.Fatalf("request %d: expected 302 got %d", i, resp.Code)
		}
	}
}

func TestScanRateLimitBlocksOverLimit(t *testing.T) {
	policy := NewScanRateLimitPolicy("scan", time.Minute, 1)
	store := &stubLimiterStore{}
	handler := ScanRateLimit(policy, store, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusFound)
	}))

	req := httptest.NewRequest(http.MethodGet, "/qrcodes/1/scan", nil)
	req.RemoteAddr = "198.51.100.7:1234"
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusFound {
		t.Fatalf("first request should pass, got %d", resp.Code)
	}

	resp2 := httptest.NewRecorder()
	req2 := httptest.NewRequest(http.MethodGet, "/qrcodes/1/scan", nil)
	req2.RemoteAddr = "198.51.100.7:1234"
	handler.ServeHTTP(resp2, req2)
	if resp2.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429 got %d", resp2.Code)
	}
}

func TestScanRateLimitSeparatesClients(t *testing.T) {
	policy := NewScanRateLimitPolicy("scan", time.Minute, 1)
	store := &stubLimiterStore{}
	handler := ScanRateLimit(policy, store, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusFound)
	}))

	first := httptest.NewRequest(http.MethodGet, "/qrcodes/1/scan", nil)
	first.RemoteAddr = "198.51.100.7:1234"
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, first)
	if resp.Code != http.StatusFound {
		t.Fatalf("expected 302 got %d", resp.Code)
	}

	second := httptest.NewRequest(http.MethodGet, "/qrcodes/1/scan", nil)
	second.RemoteAddr = "203.0.113.9:9999"
	resp = httptest.NewRecorder()
	handler.ServeHTTP(resp, second)
	if resp.Code != http.StatusFound {
		t.Fatalf("second client must not be throttled, got %d", resp.Code)
	}
}

func TestScanRateLimitHonorsForwardedFor(t *testing.T) {
	policy := NewScanRateLimitPolicy("scan", time.Minute, 1)
	store := &stubLimiterStore{}
	handler := ScanRateLimit(policy, store, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusFound)
	}))

	req := httptest.NewRequest(http.MethodGet, "/qrcodes/1/scan", nil)
	req.Header.Set("X-Forwarded-For", "192.0.2.44, 10.0.0.1")
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if _, ok := store.counts["rl:ip:scan:192.0.2.44"]; !ok {
		t.Fatalf("expected forwarded ip key, got %v", store.counts)
	}
}

func TestScanRateLimitDisabledPolicy(t *testing.T) {
	policy := NewScanRateLimitPolicy("scan", 0, 0)
	store := &stubLimiterStore{}
	called := false
	handler := ScanRateLimit(policy, store, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		w.WriteHeader(http.StatusFound)
	}))

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/qrcodes/1/scan", nil))
	if !called {
		t.Fatal("disabled policy must pass requests through")
	}
	if len(store.counts) != 0 {
		t.Fatalf("disabled policy must not touch the store, got %v", store.counts)
	}
}
