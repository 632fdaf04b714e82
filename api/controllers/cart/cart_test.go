package cart

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	cartsvc "github.com/angelmondragon/storefront-backend/internal/cart"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
)

type stubCartService struct {
	cart *cartsvc.CartDTO
	err  error

	lastUserID    int64
	lastProductID int64
	lastQuantity  int
	cleared       bool
}

func (s *stubCartService) GetOrCreateCart(ctx context.Context, userID int64) (*cartsvc.CartDTO, error) {
	s.lastUserID = userID
	return s.cart, s.err
}

func (s *stubCartService) AddItem(ctx context.Context, userID, productID int64, delta int) (*cartsvc.CartDTO, error) {
	s.lastUserID, s.lastProductID, s.lastQuantity = userID, productID, delta
	return s.cart, s.err
}

func (s *stubCartService) SetItemQuantity(ctx context.Context, userID, productID int64, quantity int) (*cartsvc.CartDTO, error) {
	s.lastUserID, s.lastProductID, s.lastQuantity = userID, productID, quantity
	return s.cart, s.err
}

func (s *stubCartService) RemoveItem(ctx context.Context, userID, productID int64) (*cartsvc.CartDTO, error) {
	s.lastUserID, s.lastProductID = userID, productID
	return s.cart, s.err
}

func (s *stubCartService) ClearCart(ctx context.Context, userID int64) error {
	s.lastUserID = userID
	s.cleared = true
	return s.err
}

func newCartRouter(svc cartsvc.Service) http.Handler {
	r := chi.NewRouter()
	r.Get("/cart/{userId}", CartFetch(svc, nil))
	r.Post("/cart/{userId}", CartAddItem(svc, nil))
	r.Put("/cart/{userId}", CartSetQuantity(svc, nil))
	r.Delete("/cart/{userId}", CartDelete(svc, nil))
	return r
}

func serve(h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
	}
	resp := httptest.NewRecorder()
	h.ServeHTTP(resp, req)
	return resp
}

func TestCartFetchSuccess(t *testing.T) {
	svc := &stubCartService{cart: &cartsvc.CartDTO{ID: 3, UserID: 7}}
	resp := serve(newCartRouter(svc), http.MethodGet, "/cart/7", "")

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	var body struct {
		Success bool            `json:"success"`
		Data    cartsvc.CartDTO `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !body.Success || body.Data.ID != 3 || svc.lastUserID != 7 {
		t.Fatalf("unexpected response %+v", body)
	}
}

func TestCartFetchInvalidUserID(t *testing.T) {
	resp := serve(newCartRouter(&stubCartService{}), http.MethodGet, "/cart/abc", "")
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestCartAddItemDefaultsQuantity(t *testing.T) {
	svc := &stubCartService{cart: &cartsvc.CartDTO{}}
	resp := serve(newCartRouter(svc), http.MethodPost, "/cart/7", `{"productId":3}`)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if svc.lastProductID != 3 || svc.lastQuantity != 1 {
		t.Fatalf("expected product 3 qty 1, got %d/%d", svc.lastProductID, svc.lastQuantity)
	}
}

func TestCartAddItemStringQuantity(t *testing.T) {
	svc := &stubCartService{cart: &cartsvc.CartDTO{}}
	resp := serve(newCartRouter(svc), http.MethodPost, "/cart/7", `{"productId":3,"quantity":"2"}`)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if svc.lastQuantity != 2 {
		t.Fatalf("expected qty 2 got %d", svc.lastQuantity)
	}
}

func TestCartAddItemValidation(t *testing.T) {
	cases := map[string]string{
		"missing product": `{"quantity":1}`,
		"bad quantity":    `{"productId":3,"quantity":"lots"}`,
		"fractional":      `{"productId":3,"quantity":1.5}`,
		"unknown field":   `{"productId":3,"qty":1}`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			svc := &stubCartService{}
			resp := serve(newCartRouter(svc), http.MethodPost, "/cart/7", body)
			if resp.Code != http.StatusBadRequest {
				t.Fatalf("expected 400 got %d", resp.Code)
			}
			if svc.lastUserID != 0 {
				t.Fatalf("service should not be called")
			}
		})
	}
}

func TestCartSetQuantityRequiresQuantity(t *testing.T) {
	svc := &stubCartService{}
	resp := serve(newCartRouter(svc), http.MethodPut, "/cart/7", `{"productId":3}`)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestCartSetQuantityNotFound(t *testing.T) {
	svc := &stubCartService{err: pkgerrors.NotFound("cart item not found")}
	resp := serve(newCartRouter(svc), http.MethodPut, "/cart/7", `{"productId":3,"quantity":4}`)
	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404 got %d", resp.Code)
	}
	if svc.lastQuantity != 4 {
		t.Fatalf("expected qty 4 got %d", svc.lastQuantity)
	}
}

func TestCartDeleteWithoutBodyClears(t *testing.T) {
	svc := &stubCartService{}
	resp := serve(newCartRouter(svc), http.MethodDelete, "/cart/7", "")

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if !svc.cleared {
		t.Fatalf("expected cart cleared")
	}
	var body map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["data"] != nil {
		t.Fatalf("expected null data got %v", body["data"])
	}
}

func TestCartDeleteItem(t *testing.T) {
	svc := &stubCartService{cart: &cartsvc.CartDTO{ID: 1}}
	resp := serve(newCartRouter(svc), http.MethodDelete, "/cart/7", `{"productId":5}`)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if svc.cleared || svc.lastProductID != 5 {
		t.Fatalf("expected single item removal")
	}
}
