//go:build integration

package integration

import (
	"net/http"
	"regexp"
	"testing"
)

const testAPIKey = "integration-test-key"

var uuidPattern = regexp.MustCompile(`^[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}$`)

func TestPlaceOrder_NoAuth(t *testing.T) {
	req := orderRequest{
		Items: []orderItemRequest{{ProductID: "waffle-maker", Quantity: 1}},
	}
	resp := doPost(t, "/api/orders", req)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.StatusCode)
	}
}

func TestPlaceOrder_InvalidKey(t *testing.T) {
	req := orderRequest{
		Items: []orderItemRequest{{ProductID: "waffle-maker", Quantity: 1}},
	}
	resp := doPostWithAuth(t, "/api/orders", req, "wrong-key")
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.StatusCode)
	}
}

func TestPlaceOrder_EmptyItems(t *testing.T) {
	resp := doPostWithAuth(t, "/api/orders", orderRequest{Items: []orderItemRequest{}}, testAPIKey)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func TestPlaceOrder_InvalidProduct(t *testing.T) {
	req := orderRequest{
		Items: []orderItemRequest{{ProductID: "no-such-product", Quantity: 1}},
	}
	resp := doPostWithAuth(t, "/api/orders", req, testAPIKey)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", resp.StatusCode)
	}
}

func TestPlaceOrder_SingleItem(t *testing.T) {
	req := orderRequest{
		Items: []orderItemRequest{{ProductID: "merino-beanie", Quantity: 1}}, // $24.00
	}
	resp := doPostWithAuth(t, "/api/orders", req, testAPIKey)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	order := decodeJSON[orderResponse](t, resp)
	if order.Total != 24 {
		t.Errorf("total: got %v, want 24", order.Total)
	}
	if order.Discount != 0 {
		t.Errorf("discount: got %v, want 0", order.Discount)
	}
}

func TestPlaceOrder_WithPromotion(t *testing.T) {
	req := orderRequest{
		Items: []orderItemRequest{
			{ProductID: "espresso-grinder", Quantity: 1}, // $129.00
		},
		PromoCode: "WELCOME10",
	}
	resp := doPostWithAuth(t, "/api/orders", req, testAPIKey)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	order := decodeJSON[orderResponse](t, resp)
	// 129.00 * 10% = 12.90
	if order.Discount != 12.9 {
		t.Errorf("discount: got %v, want 12.9", order.Discount)
	}
	if order.Total != 116.1 {
		t.Errorf("total: got %v, want 116.1", order.Total)
	}
	if order.PromoCode != "WELCOME10" {
		t.Errorf("promoCode: got %q, want %q", order.PromoCode, "WELCOME10")
	}
}

func TestPlaceOrder_InvalidPromotion(t *testing.T) {
	req := orderRequest{
		Items:     []orderItemRequest{{ProductID: "waffle-maker", Quantity: 1}},
		PromoCode: "NOSUCHCODE",
	}
	resp := doPostWithAuth(t, "/api/orders", req, testAPIKey)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", resp.StatusCode)
	}

	errResp := decodeJSON[errorResponse](t, resp)
	if errResp.Message != "Invalid or inactive promotion code" {
		t.Errorf("message: got %q", errResp.Message)
	}
}

func TestPlaceOrder_PerUserLimit(t *testing.T) {
	// FLASH15 allows one redemption per user.
	req := orderRequest{
		Items:     []orderItemRequest{{ProductID: "rain-shell", Quantity: 1}}, // $74.25
		PromoCode: "FLASH15",
		UserID:    "limit-test-user",
	}

	first := doPostWithAuth(t, "/api/orders", req, testAPIKey)
	defer first.Body.Close()
	if first.StatusCode != http.StatusOK {
		t.Fatalf("first order: expected 200, got %d", first.StatusCode)
	}

	second := doPostWithAuth(t, "/api/orders", req, testAPIKey)
	defer second.Body.Close()
	if second.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("second order: expected 422, got %d", second.StatusCode)
	}

	errResp := decodeJSON[errorResponse](t, second)
	if errResp.Message != "You have reached the usage limit for this promotion code" {
		t.Errorf("message: got %q", errResp.Message)
	}
}

func TestPlaceOrder_ResponseStructure(t *testing.T) {
	req := orderRequest{
		Items: []orderItemRequest{{ProductID: "waffle-maker", Quantity: 2}},
	}
	resp := doPostWithAuth(t, "/api/orders", req, testAPIKey)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	order := decodeJSON[orderResponse](t, resp)

	if !uuidPattern.MatchString(order.ID) {
		t.Errorf("order ID %q is not a valid UUID", order.ID)
	}
	if len(order.Items) != 1 {
		t.Errorf("expected 1 item, got %d", len(order.Items))
	}
	if len(order.Products) != 1 {
		t.Fatalf("expected 1 product, got %d", len(order.Products))
	}

	product := order.Products[0]
	if product.ID != "waffle-maker" {
		t.Errorf("product id: got %q, want %q", product.ID, "waffle-maker")
	}
	if product.Name == "" {
		t.Error("product name is empty")
	}
	if order.Subtotal != 99.98 {
		t.Errorf("subtotal: got %v, want 99.98", order.Subtotal)
	}
}
