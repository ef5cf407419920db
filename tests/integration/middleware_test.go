//go:build integration

package integration

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"testing"
)

func TestRequestID_OnValidateResponse(t *testing.T) {
	req := validateRequest{
		Code: "WELCOME10",
		Cart: cartSnapshot{Items: []cartItem{
			{ProductID: "usb-c-hub", Price: 39.95, Quantity: 1},
		}},
	}
	resp := doPost(t, "/api/promotions/validate", req)
	defer resp.Body.Close()

	if requestID := resp.Header.Get("X-Request-ID"); requestID == "" {
		t.Fatal("X-Request-ID header not present on validate response")
	}
}

func TestRequestID_Echoed(t *testing.T) {
	req, err := http.NewRequestWithContext(context.Background(), http.MethodGet, baseURL+"/livez", nil)
	if err != nil {
		t.Fatalf("create request: %v", err)
	}
	req.Header.Set("X-Request-ID", "storefront-trace-12345")

	resp, err := httpClient.Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	defer resp.Body.Close()

	got := resp.Header.Get("X-Request-ID")
	if got != "storefront-trace-12345" {
		t.Errorf("X-Request-ID: got %q, want %q", got, "storefront-trace-12345")
	}
}

func TestCORS_ValidatePreflight(t *testing.T) {
	req, err := http.NewRequestWithContext(context.Background(), http.MethodOptions, baseURL+"/api/promotions/validate", nil)
	if err != nil {
		t.Fatalf("create request: %v", err)
	}
	req.Header.Set("Origin", "http://storefront.example.com")
	req.Header.Set("Access-Control-Request-Method", "POST")

	resp, err := httpClient.Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", resp.StatusCode)
	}
	if acao := resp.Header.Get("Access-Control-Allow-Origin"); acao == "" {
		t.Error("Access-Control-Allow-Origin header not present")
	}
	if acam := resp.Header.Get("Access-Control-Allow-Methods"); !strings.Contains(acam, "POST") {
		t.Errorf("Access-Control-Allow-Methods %q does not allow POST", acam)
	}
	// The checkout page sends the API key cross-origin, so the preflight
	// must allow it.
	if acah := resp.Header.Get("Access-Control-Allow-Headers"); !strings.Contains(acah, "X-API-Key") {
		t.Errorf("Access-Control-Allow-Headers %q does not allow X-API-Key", acah)
	}
}

func TestCORS_SimpleRequest(t *testing.T) {
	req, err := http.NewRequestWithContext(context.Background(), http.MethodGet, baseURL+"/api/products", nil)
	if err != nil {
		t.Fatalf("create request: %v", err)
	}
	req.Header.Set("Origin", "http://storefront.example.com")

	resp, err := httpClient.Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	defer resp.Body.Close()

	if acao := resp.Header.Get("Access-Control-Allow-Origin"); acao == "" {
		t.Error("Access-Control-Allow-Origin header not present")
	}
}

func TestRateLimit_ValidateHeaders(t *testing.T) {
	req := validateRequest{
		Code: "NOSUCHCODE",
		Cart: cartSnapshot{Items: []cartItem{
			{ProductID: "usb-c-hub", Price: 39.95, Quantity: 1},
		}},
	}
	resp := doPost(t, "/api/promotions/validate", req)
	defer resp.Body.Close()

	limit := resp.Header.Get("X-RateLimit-Limit")
	if limit == "" {
		t.Fatal("X-RateLimit-Limit header not present")
	}
	remaining := resp.Header.Get("X-RateLimit-Remaining")
	if remaining == "" {
		t.Fatal("X-RateLimit-Remaining header not present")
	}

	// Guessing codes consumes the same budget as valid lookups.
	max, err := strconv.Atoi(limit)
	if err != nil {
		t.Fatalf("parse X-RateLimit-Limit %q: %v", limit, err)
	}
	left, err := strconv.Atoi(remaining)
	if err != nil {
		t.Fatalf("parse X-RateLimit-Remaining %q: %v", remaining, err)
	}
	if left >= max {
		t.Errorf("remaining %d not decremented below limit %d", left, max)
	}
}
