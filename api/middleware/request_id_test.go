package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/angelmondragon/storefront-backend/pkg/logger"
)

func TestRequestIDEchoesWellFormedHeader(t *testing.T) {
	h := RequestID(logger.Nop())(okHandler())
	req := httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil)
	req.Header.Set(requestIDHeader, "checkout-2026.10_17")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if got := rec.Header().Get(requestIDHeader); got != "checkout-2026.10_17" {
		t.Fatalf("expected caller id echoed, got %q", got)
	}
}

func TestRequestIDReplacesMalformedHeader(t *testing.T) {
	cases := map[string]string{
		"missing":   "",
		"too long":  strings.Repeat("a", 65),
		"newline":   "abc\ninjected",
		"spaces":    "order 42",
		"non-ascii": "заказ",
	}
	for name, incoming := range cases {
		t.Run(name, func(t *testing.T) {
			h := RequestID(logger.Nop())(okHandler())
			req := httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil)
			if incoming != "" {
				req.Header.Set(requestIDHeader, incoming)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			got := rec.Header().Get(requestIDHeader)
			if got == incoming {
				t.Fatalf("expected malformed id to be replaced")
			}
			id, err := uuid.Parse(got)
			if err != nil {
				t.Fatalf("expected generated uuid, got %q: %v", got, err)
			}
			if id.Version() != 7 {
				t.Fatalf("expected uuid v7, got v%d", id.Version())
			}
		})
	}
}
