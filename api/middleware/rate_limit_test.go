package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

type fakeLimiter struct {
	counts map[string]int64
	err    error
}

func (f *fakeLimiter) FixedWindowAllow(_ context.Context, scope string, limit int64, _ time.Duration) (bool, int64, error) {
	if f.err != nil {
		return false, 0, f.err
	}
	if f.counts == nil {
		f.counts = map[string]int64{}
	}
	f.counts[scope]++
	return f.counts[scope] <= limit, f.counts[scope], nil
}

func TestRateLimitBlocksAfterLimit(t *testing.T) {
	limiter := &fakeLimiter{}
	policy := NewRateLimitPolicy("checkout", time.Minute, 2)
	handler := RateLimit(policy, limiter, nil)(okHandler())

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/orders", nil)
		req = req.WithContext(WithUserID(req.Context(), 9))
		resp := httptest.NewRecorder()
		handler.ServeHTTP(resp, req)
		codes = append(codes, resp.Code)
	}

	if codes[0] != http.StatusOK || codes[1] != http.StatusOK {
		t.Fatalf("expected first two requests allowed, got %v", codes)
	}
	if codes[2] != http.StatusTooManyRequests {
		t.Fatalf("expected 429 on third request, got %d", codes[2])
	}
	if _, ok := limiter.counts["checkout:user:9"]; !ok {
		t.Fatalf("expected per-user scope, got %v", limiter.counts)
	}
}

func TestRateLimitFallsBackToClientIP(t *testing.T) {
	limiter := &fakeLimiter{}
	handler := RateLimit(NewRateLimitPolicy("review", time.Minute, 5), limiter, nil)(okHandler())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/reviews", nil)
	req.Header.Set("X-Forwarded-For", "10.0.0.1, 10.0.0.2")
	handler.ServeHTTP(httptest.NewRecorder(), req)

	if _, ok := limiter.counts["review:ip:10.0.0.1"]; !ok {
		t.Fatalf("expected ip scope, got %v", limiter.counts)
	}
}

func TestRateLimitDisabledPolicyPassesThrough(t *testing.T) {
	limiter := &fakeLimiter{err: errors.New("should not be called")}
	handler := RateLimit(NewRateLimitPolicy("checkout", 0, 0), limiter, nil)(okHandler())

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, httptest.NewRequest(http.MethodPost, "/", nil))
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
}

func TestRateLimitStoreFailure(t *testing.T) {
	limiter := &fakeLimiter{err: errors.New("redis down")}
	handler := RateLimit(NewRateLimitPolicy("checkout", time.Minute, 1), limiter, nil)(okHandler())

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, httptest.NewRequest(http.MethodPost, "/", nil))
	if resp.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500 got %d", resp.Code)
	}
}
