package orders

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/storefront-backend/api/middleware"
	internalorders "github.com/angelmondragon/storefront-backend/internal/orders"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/types"
)

type stubOrdersService struct {
	createInput internalorders.CreateOrderInput
	updateInput internalorders.UpdateStatusInput
	listInput   internalorders.ListOrdersInput
	order       *internalorders.OrderDTO
	list        *internalorders.OrderList
	err         error
}

func (s *stubOrdersService) CreateOrder(ctx context.Context, input internalorders.CreateOrderInput) (*internalorders.CreatedOrder, error) {
	s.createInput = input
	if s.err != nil {
		return nil, s.err
	}
	return &internalorders.CreatedOrder{
		ID:          11,
		OrderUUID:   uuid.New(),
		TotalAmount: types.NewMoney(decimal.RequireFromString("100000")),
		Status:      enums.OrderStatusPending,
	}, nil
}

func (s *stubOrdersService) UpdateStatus(ctx context.Context, input internalorders.UpdateStatusInput) (*internalorders.OrderDTO, error) {
	s.updateInput = input
	return s.order, s.err
}

func (s *stubOrdersService) GetOrder(ctx context.Context, orderID int64) (*internalorders.OrderDTO, error) {
	return s.order, s.err
}

func (s *stubOrdersService) ListOrders(ctx context.Context, input internalorders.ListOrdersInput) (*internalorders.OrderList, error) {
	s.listInput = input
	if s.list != nil {
		return s.list, s.err
	}
	return &internalorders.OrderList{}, s.err
}

type stubAuthorizer struct {
	admins map[int64]bool
}

func (s stubAuthorizer) IsAdmin(_ context.Context, userID int64) (bool, error) {
	return s.admins[userID], nil
}

func asUser(req *http.Request, userID int64) *http.Request {
	return req.WithContext(middleware.WithUserID(req.Context(), userID))
}

func TestCreateReturnsKeyedEnvelope(t *testing.T) {
	svc := &stubOrdersService{}
	body := `{"user_id":7,"total_amount":100000,"payment_method":"cod","items":[{"product_id":3,"quantity":2},{"product_id":5,"quantity":"1"}]}`
	req := asUser(httptest.NewRequest(http.MethodPost, "/api/v1/orders", strings.NewReader(body)), 7)
	resp := httptest.NewRecorder()

	Create(svc, stubAuthorizer{}, nil).ServeHTTP(resp, req)

	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d: %s", resp.Code, resp.Body.String())
	}
	var payload map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		t.Fatalf("decode: %v", err)
	}
	order, ok := payload["order"].(map[string]any)
	if !ok {
		t.Fatalf("expected order key, got %v", payload)
	}
	if order["total_amount"] != float64(100000) {
		t.Fatalf("expected numeric total, got %v", order["total_amount"])
	}
	if len(svc.createInput.Items) != 2 || svc.createInput.Items[1].Quantity != 1 {
		t.Fatalf("unexpected items %+v", svc.createInput.Items)
	}
	if svc.createInput.PaymentMethod != "cod" {
		t.Fatalf("unexpected payment method %q", svc.createInput.PaymentMethod)
	}
}

func TestCreateAcceptsLineSnapshot(t *testing.T) {
	svc := &stubOrdersService{}
	body := `{"user_id":7,"total_amount":60000,"payment_method":"cod","items":[{"product_id":3,"name":"kettle","price":30000,"quantity":2}]}`
	req := asUser(httptest.NewRequest(http.MethodPost, "/api/v1/orders", strings.NewReader(body)), 7)
	resp := httptest.NewRecorder()

	Create(svc, stubAuthorizer{}, nil).ServeHTTP(resp, req)

	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d: %s", resp.Code, resp.Body.String())
	}
	item := svc.createInput.Items[0]
	if item.Name == nil || *item.Name != "kettle" {
		t.Fatalf("expected name snapshot, got %+v", item)
	}
	if item.Price == nil || !item.Price.Equal(decimal.NewFromInt(30000)) {
		t.Fatalf("expected submitted price, got %+v", item)
	}
	if item.Quantity != 2 {
		t.Fatalf("unexpected quantity %d", item.Quantity)
	}
}

func TestCreateRejectsNegativePrice(t *testing.T) {
	body := `{"items":[{"product_id":3,"price":-1}]}`
	req := asUser(httptest.NewRequest(http.MethodPost, "/api/v1/orders", strings.NewReader(body)), 7)
	resp := httptest.NewRecorder()

	Create(&stubOrdersService{}, stubAuthorizer{}, nil).ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestCreateDefaultsToCaller(t *testing.T) {
	svc := &stubOrdersService{}
	body := `{"items":[{"product_id":3}]}`
	req := asUser(httptest.NewRequest(http.MethodPost, "/api/v1/orders", strings.NewReader(body)), 9)
	resp := httptest.NewRecorder()

	Create(svc, stubAuthorizer{}, nil).ServeHTTP(resp, req)

	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d", resp.Code)
	}
	if svc.createInput.UserID != 9 || svc.createInput.Items[0].Quantity != 1 {
		t.Fatalf("unexpected input %+v", svc.createInput)
	}
}

func TestCreateForAnotherUserRequiresAdmin(t *testing.T) {
	body := `{"user_id":7,"items":[{"product_id":3}]}`

	req := asUser(httptest.NewRequest(http.MethodPost, "/api/v1/orders", strings.NewReader(body)), 8)
	resp := httptest.NewRecorder()
	Create(&stubOrdersService{}, stubAuthorizer{}, nil).ServeHTTP(resp, req)
	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403 got %d", resp.Code)
	}

	req = asUser(httptest.NewRequest(http.MethodPost, "/api/v1/orders", strings.NewReader(body)), 1)
	resp = httptest.NewRecorder()
	Create(&stubOrdersService{}, stubAuthorizer{admins: map[int64]bool{1: true}}, nil).ServeHTTP(resp, req)
	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201 for admin got %d", resp.Code)
	}
}

func TestCreateRejectsEmptyItems(t *testing.T) {
	req := asUser(httptest.NewRequest(http.MethodPost, "/api/v1/orders", strings.NewReader(`{"items":[]}`)), 7)
	resp := httptest.NewRecorder()
	Create(&stubOrdersService{}, stubAuthorizer{}, nil).ServeHTTP(resp, req)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestUpdateStatusMapsStateConflict(t *testing.T) {
	svc := &stubOrdersService{err: pkgerrors.New(pkgerrors.CodeStateConflict, "transition not allowed")}
	req := asUser(httptest.NewRequest(http.MethodPut, "/api/v1/orders", strings.NewReader(`{"id":4,"status":"pending","note":"  back  "}`)), 1)
	resp := httptest.NewRecorder()

	UpdateStatus(svc, nil).ServeHTTP(resp, req)

	if resp.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 got %d", resp.Code)
	}
	if svc.updateInput.OrderID != 4 || svc.updateInput.ActorUserID != 1 {
		t.Fatalf("unexpected input %+v", svc.updateInput)
	}
	if svc.updateInput.Note == nil || *svc.updateInput.Note != "back" {
		t.Fatalf("expected trimmed note, got %v", svc.updateInput.Note)
	}
}

func TestUpdateStatusRequiresFields(t *testing.T) {
	req := asUser(httptest.NewRequest(http.MethodPut, "/api/v1/orders", strings.NewReader(`{"status":"shipped"}`)), 1)
	resp := httptest.NewRecorder()
	UpdateStatus(&stubOrdersService{}, nil).ServeHTTP(resp, req)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestListScopesCustomerToSelf(t *testing.T) {
	svc := &stubOrdersService{}
	req := asUser(httptest.NewRequest(http.MethodGet, "/api/v1/orders?status=shipped&limit=5", nil), 7)
	resp := httptest.NewRecorder()

	List(svc, stubAuthorizer{}, nil).ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if svc.listInput.Filters.UserID == nil || *svc.listInput.Filters.UserID != 7 {
		t.Fatalf("expected user filter 7, got %+v", svc.listInput.Filters)
	}
	if svc.listInput.Filters.Status == nil || *svc.listInput.Filters.Status != enums.OrderStatusShipped {
		t.Fatalf("expected status filter")
	}
	if svc.listInput.Pagination.Limit != 5 {
		t.Fatalf("expected limit 5 got %d", svc.listInput.Pagination.Limit)
	}
}

func TestListOtherUserForbiddenForCustomer(t *testing.T) {
	req := asUser(httptest.NewRequest(http.MethodGet, "/api/v1/orders?userId=8", nil), 7)
	resp := httptest.NewRecorder()
	List(&stubOrdersService{}, stubAuthorizer{}, nil).ServeHTTP(resp, req)
	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403 got %d", resp.Code)
	}
}

func TestListAdminSeesAll(t *testing.T) {
	svc := &stubOrdersService{}
	req := asUser(httptest.NewRequest(http.MethodGet, "/api/v1/orders", nil), 1)
	resp := httptest.NewRecorder()
	List(svc, stubAuthorizer{admins: map[int64]bool{1: true}}, nil).ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if svc.listInput.Filters.UserID != nil {
		t.Fatalf("expected no user filter for admin")
	}
}

func TestListRejectsUnknownStatus(t *testing.T) {
	req := asUser(httptest.NewRequest(http.MethodGet, "/api/v1/orders?status=lost", nil), 7)
	resp := httptest.NewRecorder()
	List(&stubOrdersService{}, stubAuthorizer{}, nil).ServeHTTP(resp, req)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestDetailOwnership(t *testing.T) {
	svc := &stubOrdersService{order: &internalorders.OrderDTO{ID: 4, UserID: 7}}
	r := chi.NewRouter()
	r.Get("/api/v1/orders/{orderId}", Detail(svc, stubAuthorizer{}, nil))

	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, asUser(httptest.NewRequest(http.MethodGet, "/api/v1/orders/4", nil), 7))
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}

	resp = httptest.NewRecorder()
	r.ServeHTTP(resp, asUser(httptest.NewRequest(http.MethodGet, "/api/v1/orders/4", nil), 8))
	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403 got %d", resp.Code)
	}
}

func TestListReturnsSummaryArrayAndCursorHeader(t *testing.T) {
	svc := &stubOrdersService{list: &internalorders.OrderList{
		Orders:     []internalorders.OrderDTO{{ID: 9, UserID: 7}, {ID: 8, UserID: 7}},
		NextCursor: "abc",
	}}
	req := asUser(httptest.NewRequest(http.MethodGet, "/api/v1/orders", nil), 7)
	resp := httptest.NewRecorder()

	List(svc, stubAuthorizer{}, nil).ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if got := resp.Header().Get(NextCursorHeader); got != "abc" {
		t.Fatalf("expected cursor header, got %q", got)
	}
	var payload struct {
		Data []map[string]any `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(payload.Data) != 2 || payload.Data[0]["id"] != float64(9) {
		t.Fatalf("unexpected data %+v", payload.Data)
	}
}

func TestListEmptyPageIsEmptyArray(t *testing.T) {
	req := asUser(httptest.NewRequest(http.MethodGet, "/api/v1/orders", nil), 7)
	resp := httptest.NewRecorder()

	List(&stubOrdersService{}, stubAuthorizer{}, nil).ServeHTTP(resp, req)

	if !strings.Contains(resp.Body.String(), `"data":[]`) {
		t.Fatalf("expected empty array, got %s", resp.Body.String())
	}
	if resp.Header().Get(NextCursorHeader) != "" {
		t.Fatalf("expected no cursor header on the last page")
	}
}
