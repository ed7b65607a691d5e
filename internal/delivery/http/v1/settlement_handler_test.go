package v1

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"settlement-engine/internal/delivery/http/middleware"
	"settlement-engine/internal/domain"
	memcache "settlement-engine/internal/infrastructure/cache"
	"settlement-engine/internal/repository/memory"
	"settlement-engine/internal/usecase"
	"settlement-engine/pkg/utils"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "handler-test-secret"

type testServer struct {
	store   *memory.Store
	handler http.Handler
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	utils.SetSecret(testSecret)

	store := memory.NewStore()
	store.PutProduct(domain.CatalogProduct{ID: "mug", BasePrice: 250, Stock: 2})
	store.PutInventory(domain.InventoryRecord{
		Key:      domain.InventoryKey{ProductID: "mug", StockLocation: "main"},
		Quantity: 2,
	})
	store.PutCoupon(domain.Coupon{Code: "MUG10", DiscountType: domain.DiscountTypePercentage, DiscountValue: 10, MinOrderAmount: 400, IsActive: true})
	store.PutShippingRule(domain.ShippingRule{ID: 1, MinWeight: 0, MaxWeight: 5, Rate: 60, IsActive: true})

	masterData := usecase.NewMasterData(store, store, memcache.NewMemoryStore(time.Minute, time.Minute), time.Minute)
	reconciler := usecase.NewReconciler(
		store,
		usecase.NewCouponValidator(store, store, store),
		usecase.NewPromotionEngine(store),
		usecase.NewShippingCalculator(380, 500, 1.0),
		masterData,
		1, 2,
	)
	committer := usecase.NewCommitter(store, store, usecase.NewRetryPolicy(3, 0))
	ledger := usecase.NewIntegrityLedger(store, store, "integrity")
	uc := usecase.NewSettlementUsecase(reconciler, committer, ledger, store, store, "main")

	settlement := NewSettlementHandler(uc)
	coupons := NewCouponHandler(uc)
	adminOrders := NewAdminOrderHandler(uc)
	adminConfig := NewAdminConfigHandler(masterData)
	config := NewConfigHandler(masterData)
	admin := func(h http.HandlerFunc) http.Handler {
		return middleware.AuthMiddleware(middleware.AdminMiddleware(h))
	}

	mux := http.NewServeMux()
	mux.Handle("POST /api/v1/settlement/quote", middleware.OptionalAuth(http.HandlerFunc(settlement.Quote)))
	mux.Handle("POST /api/v1/settlement/orders", middleware.OptionalAuth(http.HandlerFunc(settlement.Settle)))
	mux.Handle("POST /api/v1/coupons/validate", middleware.OptionalAuth(http.HandlerFunc(coupons.ValidateCoupon)))
	mux.HandleFunc("GET /api/v1/config/enums", config.GetEnums)
	mux.Handle("GET /api/v1/admin/orders/{id}", admin(adminOrders.GetOrder))
	mux.Handle("GET /api/v1/admin/orders/{id}/integrity", admin(adminOrders.VerifyIntegrity))
	mux.Handle("POST /api/v1/admin/config/invalidate", admin(adminConfig.InvalidateMasterData))

	return &testServer{store: store, handler: mux}
}

func token(t *testing.T, userID, role string) string {
	t.Helper()
	tok, err := utils.GenerateJWT(userID, userID+"@example.com", role, time.Hour)
	require.NoError(t, err)
	return tok
}

func (s *testServer) do(t *testing.T, method, path, bearer string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

func mugOrder(id string, channel domain.Channel, qty int, total float64) domain.SettlementRequest {
	return domain.SettlementRequest{
		OrderID: id,
		Channel: channel,
		Items:   []domain.CartItem{{ProductID: "mug", Quantity: qty, Price: 250}},
		Total:   total,
	}
}

func TestSettle_GuestWebsiteOrder(t *testing.T) {
	srv := newTestServer(t)

	rec := srv.do(t, http.MethodPost, "/api/v1/settlement/orders", "", mugOrder("o-1", domain.ChannelWebsite, 1, 310))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var resp committedResp
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "committed", resp.Status)
	assert.Equal(t, "o-1", resp.OrderID)
	assert.Equal(t, 310.0, resp.Total)
}

func TestSettle_WebsiteOrderBelongsToTokenHolder(t *testing.T) {
	srv := newTestServer(t)

	req := mugOrder("o-1", domain.ChannelWebsite, 1, 310)
	req.UserID = "someone-else"
	rec := srv.do(t, http.MethodPost, "/api/v1/settlement/orders", token(t, "u1", domain.RoleCustomer), req)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	order, err := srv.store.GetOrderByID(t.Context(), "o-1")
	require.NoError(t, err)
	assert.Equal(t, "u1", order.UserID)
}

func TestSettle_RejectionStatuses(t *testing.T) {
	srv := newTestServer(t)

	tests := []struct {
		name   string
		req    domain.SettlementRequest
		status int
		reason string
	}{
		{name: "validation", req: mugOrder("", domain.ChannelWebsite, 1, 310), status: http.StatusBadRequest, reason: domain.ReasonValidation},
		{name: "price mismatch", req: mugOrder("o-2", domain.ChannelWebsite, 1, 100), status: http.StatusUnprocessableEntity, reason: domain.ReasonPriceMismatch},
		{name: "insufficient stock", req: mugOrder("o-3", domain.ChannelWebsite, 3, 810), status: http.StatusUnprocessableEntity, reason: domain.ReasonInsufficientStock},
		{
			name: "unknown product",
			req: domain.SettlementRequest{
				OrderID: "o-4",
				Channel: domain.ChannelWebsite,
				Items:   []domain.CartItem{{ProductID: "lamp", Quantity: 1}},
			},
			status: http.StatusNotFound,
			reason: domain.ReasonNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := srv.do(t, http.MethodPost, "/api/v1/settlement/orders", "", tt.req)
			require.Equal(t, tt.status, rec.Code, rec.Body.String())

			var resp rejectedResp
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.Equal(t, "rejected", resp.Status)
			assert.Equal(t, tt.reason, resp.Reason)
		})
	}
}

func TestSettle_StoreChannelNeedsStaff(t *testing.T) {
	srv := newTestServer(t)
	req := mugOrder("pos-1", domain.ChannelStore, 1, 310)

	rec := srv.do(t, http.MethodPost, "/api/v1/settlement/orders", "", req)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = srv.do(t, http.MethodPost, "/api/v1/settlement/orders", token(t, "u1", domain.RoleCustomer), req)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = srv.do(t, http.MethodPost, "/api/v1/settlement/orders", token(t, "cashier", domain.RoleStaff), req)
	assert.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	// quoting is open to anyone
	rec = srv.do(t, http.MethodPost, "/api/v1/settlement/quote", "", req)
	assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
}

func TestQuote_ReturnsBreakdown(t *testing.T) {
	srv := newTestServer(t)

	rec := srv.do(t, http.MethodPost, "/api/v1/settlement/quote", "", mugOrder("", domain.ChannelWebsite, 2, 0))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var quote usecase.QuoteResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &quote))
	assert.Equal(t, 500.0, quote.Subtotal)
	assert.Equal(t, 60.0, quote.ShippingFee)
	assert.Equal(t, 560.0, quote.Total)
}

func TestSettle_BadBody(t *testing.T) {
	srv := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/settlement/orders", bytes.NewBufferString("{not json"))
	rec := httptest.NewRecorder()
	srv.handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAdminOrders(t *testing.T) {
	srv := newTestServer(t)
	rec := srv.do(t, http.MethodPost, "/api/v1/settlement/orders", "", mugOrder("o-1", domain.ChannelWebsite, 1, 310))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	adminToken := token(t, "boss", domain.RoleAdmin)

	rec = srv.do(t, http.MethodGet, "/api/v1/admin/orders/o-1", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = srv.do(t, http.MethodGet, "/api/v1/admin/orders/o-1", token(t, "u1", domain.RoleCustomer), nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = srv.do(t, http.MethodGet, "/api/v1/admin/orders/o-1", adminToken, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var order struct {
		ID             string  `json:"id"`
		Total          float64 `json:"total"`
		IntegrityValid bool    `json:"integrityValid"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &order))
	assert.Equal(t, "o-1", order.ID)
	assert.True(t, order.IntegrityValid)

	stored, err := srv.store.GetOrderByID(t.Context(), "o-1")
	require.NoError(t, err)
	stored.Total = 0
	srv.store.PutOrder(*stored)

	rec = srv.do(t, http.MethodGet, "/api/v1/admin/orders/o-1/integrity", adminToken, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var integrity struct {
		OrderID string `json:"orderId"`
		Valid   bool   `json:"valid"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &integrity))
	assert.False(t, integrity.Valid)

	rec = srv.do(t, http.MethodGet, "/api/v1/admin/orders/nope", adminToken, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestConfigEnumsAndInvalidate(t *testing.T) {
	srv := newTestServer(t)

	rec := srv.do(t, http.MethodGet, "/api/v1/config/enums", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var enums struct {
		Channels      []string              `json:"channels"`
		ShippingRules []domain.ShippingRule `json:"shippingRules"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &enums))
	assert.Equal(t, []string{"store", "website"}, enums.Channels)
	assert.Len(t, enums.ShippingRules, 1)

	rec = srv.do(t, http.MethodPost, "/api/v1/admin/config/invalidate", token(t, "boss", domain.RoleAdmin), nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestValidateCoupon(t *testing.T) {
	srv := newTestServer(t)

	req := mugOrder("", domain.ChannelWebsite, 2, 0)
	req.CouponCode = "mug10"
	rec := srv.do(t, http.MethodPost, "/api/v1/coupons/validate", "", req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var res domain.CouponResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.True(t, res.Valid)
	assert.Equal(t, 50.0, res.Discount)

	req = mugOrder("", domain.ChannelWebsite, 1, 0)
	req.CouponCode = "MUG10"
	rec = srv.do(t, http.MethodPost, "/api/v1/coupons/validate", "", req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.False(t, res.Valid)
	assert.Equal(t, "minimum order amount is 400.00", res.Reason)

	req.CouponCode = ""
	rec = srv.do(t, http.MethodPost, "/api/v1/coupons/validate", "", req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
