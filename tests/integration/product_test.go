//go:build integration

package integration

import (
	"net/http"
	"testing"
)

func TestListProducts(t *testing.T) {
	resp := doGet(t, "/api/products")
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	products := decodeJSON[[]productResponse](t, resp)
	if len(products) != 6 {
		t.Fatalf("expected 6 products, got %d", len(products))
	}
}

func TestListProducts_Fields(t *testing.T) {
	resp := doGet(t, "/api/products")
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	products := decodeJSON[[]productResponse](t, resp)

	var waffle *productResponse
	for i := range products {
		if products[i].ID == "waffle-maker" {
			waffle = &products[i]
			break
		}
	}

	if waffle == nil {
		t.Fatal("product 'waffle-maker' not found")
	}
	if waffle.Name != "Belgian Waffle Maker" {
		t.Errorf("name: got %q, want %q", waffle.Name, "Belgian Waffle Maker")
	}
	if waffle.Price != 49.99 {
		t.Errorf("price: got %v, want 49.99", waffle.Price)
	}
	if waffle.CategoryID != "home-kitchen" {
		t.Errorf("categoryId: got %q, want %q", waffle.CategoryID, "home-kitchen")
	}
	if waffle.ImageURL == "" {
		t.Error("imageUrl is empty")
	}
}

func TestGetProduct(t *testing.T) {
	resp := doGet(t, "/api/products/waffle-maker")
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	product := decodeJSON[productResponse](t, resp)
	if product.ID != "waffle-maker" {
		t.Errorf("id: got %q, want %q", product.ID, "waffle-maker")
	}
	if product.Name != "Belgian Waffle Maker" {
		t.Errorf("name: got %q, want %q", product.Name, "Belgian Waffle Maker")
	}
}

func TestGetProduct_NotFound(t *testing.T) {
	resp := doGet(t, "/api/products/no-such-product")
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}

	errResp := decodeJSON[errorResponse](t, resp)
	if errResp.Code != 404 {
		t.Errorf("error code: got %d, want 404", errResp.Code)
	}
}
