package httpserver

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"tiffinbox/internal/domain"
	"tiffinbox/internal/notify"
	"tiffinbox/internal/service/approval"
)

type stubMenuService struct {
	items []domain.MenuItem
	err   error
}

func (s *stubMenuService) List(_ context.Context) ([]domain.MenuItem, error) {
	return s.items, s.err
}

func (s *stubMenuService) GetByIDs(_ context.Context, ids []string) (map[string]domain.MenuItem, error) {
	out := make(map[string]domain.MenuItem)
	for _, m := range s.items {
		for _, id := range ids {
			if m.ID == id {
				out[id] = m
			}
		}
	}
	return out, s.err
}

type stubCartService struct {
	addErr   error
	lines    []domain.CartLine
	lastItem string
	lastQty  int
	cleared  bool
}

func (s *stubCartService) Add(_ context.Context, _, itemID string) error {
	s.lastItem = itemID
	return s.addErr
}

func (s *stubCartService) Remove(_, itemID string) { s.lastItem = itemID }

func (s *stubCartService) SetQuantity(_, itemID string, quantity int) {
	s.lastItem = itemID
	s.lastQty = quantity
}

func (s *stubCartService) Clear(_ string) { s.cleared = true }

func (s *stubCartService) Lines(_ string) []domain.CartLine { return s.lines }

func (s *stubCartService) TotalQuantity(_ string) int {
	var n int
	for _, l := range s.lines {
		n += l.Quantity
	}
	return n
}

type stubPlanService struct {
	customer *domain.Customer
	err      error
}

func (s *stubPlanService) Get(_ context.Context, _ string) (*domain.Customer, error) {
	return s.customer, s.err
}

func (s *stubPlanService) SubmitReceipt(_ context.Context, _, _, _ string, _ io.Reader) (*domain.Customer, error) {
	return s.customer, s.err
}

func (s *stubPlanService) RequestRenewal(_ context.Context, _ string) (*domain.Customer, error) {
	return s.customer, s.err
}

type stubOrderService struct {
	order *domain.Order
	err   error
}

func (s *stubOrderService) Checkout(_ context.Context, _ string) (*domain.Order, error) {
	return s.order, s.err
}

func (s *stubOrderService) Get(_ context.Context, _ string) (*domain.Order, error) {
	return s.order, s.err
}

func (s *stubOrderService) ListMine(_ context.Context, _ string) ([]domain.Order, error) {
	if s.order == nil {
		return nil, s.err
	}
	return []domain.Order{*s.order}, s.err
}

type stubApprovalService struct {
	customer *domain.Customer
	order    *domain.Order
	err      error
}

func (s *stubApprovalService) ApprovePayment(_ context.Context, _ string) (*domain.Customer, error) {
	return s.customer, s.err
}

func (s *stubApprovalService) RejectPayment(_ context.Context, _ string) (*domain.Customer, error) {
	return s.customer, s.err
}

func (s *stubApprovalService) ApproveOrder(_ context.Context, _ string) (*domain.Order, error) {
	return s.order, s.err
}

func (s *stubApprovalService) CancelOrder(_ context.Context, _ string) (*domain.Order, error) {
	return s.order, s.err
}

func (s *stubApprovalService) PendingPayments(_ context.Context) ([]approval.PendingPayment, error) {
	return nil, s.err
}

func (s *stubApprovalService) Orders(_ context.Context, _ domain.OrderStatus) ([]domain.Order, error) {
	return nil, s.err
}

func (s *stubApprovalService) Stats(_ context.Context) (*approval.Dashboard, error) {
	return &approval.Dashboard{}, s.err
}

type stubEvents struct{}

func (s *stubEvents) Subscribe() (<-chan notify.Event, func()) {
	ch := make(chan notify.Event)
	close(ch)
	return ch, func() {}
}

func testRouter(deps Deps) *gin.Engine {
	gin.SetMode(gin.TestMode)
	if deps.MenuSvc == nil {
		deps.MenuSvc = &stubMenuService{}
	}
	if deps.CartSvc == nil {
		deps.CartSvc = &stubCartService{}
	}
	if deps.PlanSvc == nil {
		deps.PlanSvc = &stubPlanService{customer: &domain.Customer{ID: "cust"}}
	}
	if deps.OrderSvc == nil {
		deps.OrderSvc = &stubOrderService{}
	}
	if deps.ApprovalSvc == nil {
		deps.ApprovalSvc = &stubApprovalService{customer: &domain.Customer{ID: "cust"}, order: &domain.Order{ID: "o1"}}
	}
	if deps.Events == nil {
		deps.Events = &stubEvents{}
	}
	return buildRouter(zerolog.Nop(), nil, deps, []string{"*"})
}

func doRequest(router *gin.Engine, method, path, body string, headers map[string]string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func customerHeaders() map[string]string {
	return map[string]string{headerUserID: "cust", headerUserRole: domain.RoleCustomer}
}

func ownerHeaders() map[string]string {
	return map[string]string{headerUserID: "boss", headerUserRole: domain.RoleOwner}
}

func TestMenuIsPublic(t *testing.T) {
	router := testRouter(Deps{MenuSvc: &stubMenuService{items: []domain.MenuItem{{ID: "chai", Name: "Masala Chai"}}}})
	rec := doRequest(router, http.MethodGet, "/v1/menu", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "Masala Chai") {
		t.Fatalf("unexpected body %s", rec.Body.String())
	}
}

func TestIdentityRequired(t *testing.T) {
	router := testRouter(Deps{})
	rec := doRequest(router, http.MethodGet, "/v1/cart", "", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestOwnerRouteForbiddenForCustomer(t *testing.T) {
	router := testRouter(Deps{})
	rec := doRequest(router, http.MethodGet, "/v1/owner/dashboard", "", customerHeaders())
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}
}

func TestOwnerDashboard(t *testing.T) {
	router := testRouter(Deps{})
	rec := doRequest(router, http.MethodGet, "/v1/owner/dashboard", "", ownerHeaders())
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestAddCartItem(t *testing.T) {
	cartSvc := &stubCartService{}
	router := testRouter(Deps{CartSvc: cartSvc})
	rec := doRequest(router, http.MethodPost, "/v1/cart/items", `{"itemId":"samosa"}`, customerHeaders())
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d: %s", rec.Code, rec.Body.String())
	}
	if cartSvc.lastItem != "samosa" {
		t.Fatalf("service not called as expected")
	}
}

func TestAddCartItemCapacityRejection(t *testing.T) {
	cartSvc := &stubCartService{addErr: &domain.CapacityError{Reason: domain.ReasonPlanFull}}
	router := testRouter(Deps{CartSvc: cartSvc})
	rec := doRequest(router, http.MethodPost, "/v1/cart/items", `{"itemId":"samosa"}`, customerHeaders())
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", rec.Code)
	}

	var body errorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body.Code != string(domain.ReasonPlanFull) {
		t.Fatalf("expected reason code, got %q", body.Code)
	}
}

func TestAddCartItemRequiresItemID(t *testing.T) {
	router := testRouter(Deps{})
	rec := doRequest(router, http.MethodPost, "/v1/cart/items", `{}`, customerHeaders())
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestGetCartPricesLines(t *testing.T) {
	menuSvc := &stubMenuService{items: []domain.MenuItem{{ID: "samosa", Name: "Samosa", UnitPricePaise: 2500}}}
	cartSvc := &stubCartService{lines: []domain.CartLine{{ItemID: "samosa", Quantity: 2}}}
	router := testRouter(Deps{MenuSvc: menuSvc, CartSvc: cartSvc})

	rec := doRequest(router, http.MethodGet, "/v1/cart", "", customerHeaders())
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var body cartResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body.TotalQuantity != 2 || body.SubtotalPaise != 5000 {
		t.Fatalf("unexpected cart response %+v", body)
	}
}

func TestCheckoutEmptyCart(t *testing.T) {
	router := testRouter(Deps{OrderSvc: &stubOrderService{err: domain.ErrEmptyCart}})
	rec := doRequest(router, http.MethodPost, "/v1/orders", "", customerHeaders())
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestGetOrderOwnership(t *testing.T) {
	order := &domain.Order{ID: "o1", CustomerID: "someone-else"}
	router := testRouter(Deps{OrderSvc: &stubOrderService{order: order}})

	rec := doRequest(router, http.MethodGet, "/v1/orders/o1", "", customerHeaders())
	if rec.Code != http.StatusNotFound {
		t.Fatalf("foreign order must read as missing, got %d", rec.Code)
	}

	rec = doRequest(router, http.MethodGet, "/v1/orders/o1", "", ownerHeaders())
	if rec.Code != http.StatusOK {
		t.Fatalf("owner should read any order, got %d", rec.Code)
	}
}

func TestApproveOrderConflict(t *testing.T) {
	router := testRouter(Deps{ApprovalSvc: &stubApprovalService{err: domain.ErrAlreadyDecided}})
	rec := doRequest(router, http.MethodPost, "/v1/owner/orders/o1/approve", "", ownerHeaders())
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", rec.Code)
	}
}

func TestOwnerOrdersRejectsUnknownStatus(t *testing.T) {
	router := testRouter(Deps{})
	rec := doRequest(router, http.MethodGet, "/v1/owner/orders?status=bogus", "", ownerHeaders())
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}
