package transport

import (
	"net/http"
	"testing"
	"time"

	"sahaayak/internal/domain"
	"sahaayak/internal/middleware"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func passthrough(next http.Handler) http.Handler { return next }

func newAuthRouter(auth *stubAuth) http.Handler {
	r := chi.NewRouter()
	r.Route("/api", func(r chi.Router) {
		NewAuthHandler(auth, zap.NewNop()).RegisterRoutes(r, passthrough)
	})
	return r
}

func TestLogin_ReturnsSessionAndRole(t *testing.T) {
	expires := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	auth := &stubAuth{session: &domain.Session{
		Identity:  domain.Identity{ID: vendorID, Name: "Ravi", Role: domain.RoleVendor},
		Token:     "signed",
		ExpiresAt: expires,
	}}

	rec := do(t, newAuthRouter(auth), http.MethodPost, "/api/login", "", LoginRequest{
		Phone: "9876543210", Password: "secret1", UserType: "vendor",
	})

	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "vendor", body["user_type"])
	assert.Equal(t, "signed", body["token"])
	assert.Equal(t, vendorID.String(), body["user"].(map[string]interface{})["id"])
}

func TestLogin_FailuresShareOneMessage(t *testing.T) {
	for _, kind := range []error{domain.ErrNotFound, domain.ErrBadCredential, domain.ErrNotApproved} {
		auth := &stubAuth{err: domain.NewAuthError(kind)}
		rec := do(t, newAuthRouter(auth), http.MethodPost, "/api/login", "", LoginRequest{
			Phone: "9876543210", Password: "secret1", UserType: "wholesaler",
		})

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, "invalid credentials or account not approved", decode(t, rec)["message"])
	}
}

func TestLogin_RejectsUnknownUserType(t *testing.T) {
	rec := do(t, newAuthRouter(&stubAuth{}), http.MethodPost, "/api/login", "", LoginRequest{
		Phone: "9876543210", Password: "secret1", UserType: "admin",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestLogout_WithoutTokenSucceeds(t *testing.T) {
	auth := &stubAuth{}
	router := newAuthRouter(auth)

	rec := do(t, router, http.MethodPost, "/api/logout", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, auth.loggedOut)

	rec = do(t, router, http.MethodPost, "/api/logout", "vendor-token", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"vendor-token"}, auth.loggedOut)
}

func TestCurrentUser(t *testing.T) {
	router := newAuthRouter(&stubAuth{})

	assert.Equal(t, http.StatusUnauthorized, do(t, router, http.MethodGet, "/api/user", "", nil).Code)
	assert.Equal(t, http.StatusUnauthorized, do(t, router, http.MethodGet, "/api/user", "stale", nil).Code)

	rec := do(t, router, http.MethodGet, "/api/user", "wholesaler-token", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	user := decode(t, rec)["user"].(map[string]interface{})
	assert.Equal(t, "wholesaler", user["role"])
}

func TestRegisterVendor(t *testing.T) {
	router := newAuthRouter(&stubAuth{})

	rec := do(t, router, http.MethodPost, "/api/register/vendor", "", RegisterVendorRequest{
		Name: "Ravi", Phone: "9876543210", Password: "secret1",
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	body := decode(t, rec)
	assert.NotContains(t, body, "passwordHash")
	assert.Equal(t, "9876543210", body["phone"])

	rec = do(t, router, http.MethodPost, "/api/register/vendor", "", RegisterVendorRequest{
		Name: "Ravi", Phone: "98765", Password: "secret1",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	dup := newAuthRouter(&stubAuth{err: domain.ErrAlreadyExists})
	rec = do(t, dup, http.MethodPost, "/api/register/vendor", "", RegisterVendorRequest{
		Name: "Ravi", Phone: "9876543210", Password: "secret1",
	})
	assert.Equal(t, http.StatusConflict, rec.Code)
}

// Property 1: every protected route rejects requests without a live session
func TestProperty_ProtectedRoutesRequireSession(t *testing.T) {
	router := chi.NewRouter()
	auth := middleware.AuthMiddleware(sessions, zap.NewNop())
	mounted := []routes{
		NewCatalogHandler(&stubCatalog{}, zap.NewNop()),
		NewOrderHandler(&stubOrders{}, zap.NewNop()),
		NewReviewHandler(&stubReviews{}, zap.NewNop()),
		NewCreditHandler(&stubCredit{account: &domain.CreditAccount{}}, zap.NewNop()),
		NewDonationHandler(&stubDonations{}, zap.NewNop()),
	}
	router.Route("/api", func(r chi.Router) {
		for _, h := range mounted {
			h.RegisterRoutes(r, auth)
		}
	})

	protected := []struct{ method, path string }{
		{http.MethodPost, "/api/products"},
		{http.MethodPatch, "/api/products/" + uuid.NewString() + "/stock"},
		{http.MethodDelete, "/api/products/" + uuid.NewString()},
		{http.MethodGet, "/api/wholesaler/products"},
		{http.MethodPost, "/api/orders"},
		{http.MethodGet, "/api/orders"},
		{http.MethodGet, "/api/recent-orders"},
		{http.MethodPatch, "/api/orders/" + uuid.NewString() + "/status"},
		{http.MethodPost, "/api/reviews"},
		{http.MethodPost, "/api/reviews/" + uuid.NewString() + "/reply"},
		{http.MethodGet, "/api/pay-later"},
		{http.MethodPost, "/api/pay-later/enroll"},
		{http.MethodPost, "/api/pay-later/draw"},
		{http.MethodPost, "/api/pay-later/repay"},
		{http.MethodPost, "/api/food-donations"},
		{http.MethodGet, "/api/pay-later/transactions"},
	}

	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 50
	properties := gopter.NewProperties(parameters)

	properties.Property("no token or an unknown token yields 401", prop.ForAll(
		func(idx int, token string) bool {
			route := protected[idx]
			if _, live := sessions[token]; live {
				return true
			}
			rec := do(t, router, route.method, route.path, token, "{}")
			return rec.Code == http.StatusUnauthorized
		},
		gen.IntRange(0, len(protected)-1),
		gen.AlphaString(),
	))

	properties.TestingRun(t)
}

func TestCatalogQuery_PassesFilter(t *testing.T) {
	catalog := &stubCatalog{items: []domain.ProductView{{Product: domain.Product{ID: uuid.New(), Name: "Tomatoes"}}}}
	router := newRouter(NewCatalogHandler(catalog, zap.NewNop()))

	rec := do(t, router, http.MethodGet, "/api/budget-items?maxBudget=30&category=Vegetables&sortBy=price", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode(t, rec)["items"], 1)
	require.NotNil(t, catalog.filter.MaxBudget)
	assert.Equal(t, 30.0, *catalog.filter.MaxBudget)
	assert.Equal(t, "Vegetables", catalog.filter.Category)
	assert.Equal(t, "price", catalog.filter.SortBy)

	rec = do(t, router, http.MethodGet, "/api/products?maxBudget=abc", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Nil(t, catalog.filter.MaxBudget)
}

func TestCatalogGet(t *testing.T) {
	id := uuid.New()
	router := newRouter(NewCatalogHandler(&stubCatalog{items: []domain.ProductView{{Product: domain.Product{ID: id}}}}, zap.NewNop()))

	assert.Equal(t, http.StatusOK, do(t, router, http.MethodGet, "/api/products/"+id.String(), "", nil).Code)
	assert.Equal(t, http.StatusNotFound, do(t, router, http.MethodGet, "/api/products/"+uuid.NewString(), "", nil).Code)
	assert.Equal(t, http.StatusBadRequest, do(t, router, http.MethodGet, "/api/products/not-a-uuid", "", nil).Code)
}

func TestCatalogManagement_WholesalerOnly(t *testing.T) {
	catalog := &stubCatalog{}
	router := newRouter(NewCatalogHandler(catalog, zap.NewNop()))
	body := CreateProductRequest{Name: "Onions", Category: "Vegetables", Unit: "kg", Price: 20, Stock: 50}

	rec := do(t, router, http.MethodPost, "/api/products", "vendor-token", body)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = do(t, router, http.MethodPost, "/api/products", "wholesaler-token", body)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "Onions", catalog.created.Name)
	assert.Equal(t, wholesalerID.String(), decode(t, rec)["wholesalerId"])

	rec = do(t, router, http.MethodPost, "/api/products", "wholesaler-token", CreateProductRequest{Name: "Onions"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCatalogUpdateStock(t *testing.T) {
	catalog := &stubCatalog{}
	router := newRouter(NewCatalogHandler(catalog, zap.NewNop()))
	path := "/api/products/" + uuid.NewString() + "/stock"

	rec := do(t, router, http.MethodPatch, path, "wholesaler-token", map[string]int{"stock": 0})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 0, catalog.stock)

	rec = do(t, router, http.MethodPatch, path, "wholesaler-token", map[string]int{"stock": -1})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, router, http.MethodPatch, path, "wholesaler-token", "{}")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	catalog.err = domain.ErrNotAuthorized
	rec = do(t, router, http.MethodPatch, path, "wholesaler-token", map[string]int{"stock": 5})
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestCatalogDelete(t *testing.T) {
	catalog := &stubCatalog{}
	router := newRouter(NewCatalogHandler(catalog, zap.NewNop()))
	path := "/api/products/" + uuid.NewString()

	assert.Equal(t, http.StatusNoContent, do(t, router, http.MethodDelete, path, "wholesaler-token", nil).Code)

	catalog.err = domain.ErrProductInUse
	assert.Equal(t, http.StatusConflict, do(t, router, http.MethodDelete, path, "wholesaler-token", nil).Code)
}

func TestPlaceOrder(t *testing.T) {
	orders := &stubOrders{}
	router := newRouter(NewOrderHandler(orders, zap.NewNop()))
	productID := uuid.New()

	rec := do(t, router, http.MethodPost, "/api/orders", "vendor-token", PlaceOrderRequest{ProductID: productID, Quantity: 4})
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, vendorID, orders.placedFor)
	assert.Equal(t, 4, orders.quantity)
	assert.Equal(t, "pending", decode(t, rec)["status"])
}

func TestPlaceOrder_Rejections(t *testing.T) {
	other := uuid.New()
	tests := []struct {
		name   string
		token  string
		body   interface{}
		err    error
		status int
	}{
		{"wholesaler cannot order", "wholesaler-token", PlaceOrderRequest{ProductID: uuid.New(), Quantity: 1}, nil, http.StatusForbidden},
		{"other vendor", "vendor-token", PlaceOrderRequest{VendorID: &other, ProductID: uuid.New(), Quantity: 1}, nil, http.StatusForbidden},
		{"missing product", "vendor-token", map[string]int{"quantity": 1}, nil, http.StatusBadRequest},
		{"malformed body", "vendor-token", "{", nil, http.StatusBadRequest},
		{"bad quantity", "vendor-token", PlaceOrderRequest{ProductID: uuid.New()}, domain.ErrInvalidQuantity, http.StatusBadRequest},
		{"out of stock", "vendor-token", PlaceOrderRequest{ProductID: uuid.New(), Quantity: 6}, domain.ErrInsufficientStock, http.StatusConflict},
		{"unknown product", "vendor-token", PlaceOrderRequest{ProductID: uuid.New(), Quantity: 1}, domain.ErrProductNotFound, http.StatusNotFound},
		{"store down", "vendor-token", PlaceOrderRequest{ProductID: uuid.New(), Quantity: 1}, domain.ErrStoreUnavailable, http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := newRouter(NewOrderHandler(&stubOrders{err: tt.err}, zap.NewNop()))
			rec := do(t, router, http.MethodPost, "/api/orders", tt.token, tt.body)
			assert.Equal(t, tt.status, rec.Code, rec.Body.String())
		})
	}
}

func TestListOrders_BothRoles(t *testing.T) {
	router := newRouter(NewOrderHandler(&stubOrders{}, zap.NewNop()))

	for _, token := range []string{"vendor-token", "wholesaler-token"} {
		rec := do(t, router, http.MethodGet, "/api/orders", token, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Len(t, decode(t, rec)["orders"], 1)
	}
}

func TestUpdateOrderStatus(t *testing.T) {
	orders := &stubOrders{}
	router := newRouter(NewOrderHandler(orders, zap.NewNop()))
	path := "/api/orders/" + uuid.NewString() + "/status"

	rec := do(t, router, http.MethodPatch, path, "wholesaler-token", UpdateStatusRequest{Status: "confirmed"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, domain.OrderConfirmed, orders.status)

	assert.Equal(t, http.StatusForbidden, do(t, router, http.MethodPatch, path, "vendor-token", UpdateStatusRequest{Status: "confirmed"}).Code)

	orders.err = domain.ErrInvalidTransition
	assert.Equal(t, http.StatusConflict, do(t, router, http.MethodPatch, path, "wholesaler-token", UpdateStatusRequest{Status: "pending"}).Code)
}

func TestReviews(t *testing.T) {
	reviews := &stubReviews{}
	router := newRouter(NewReviewHandler(reviews, zap.NewNop()))

	rec := do(t, router, http.MethodGet, "/api/reviews", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Nil(t, reviews.scope)
	assert.NotNil(t, decode(t, rec)["reviews"])

	rec = do(t, router, http.MethodGet, "/api/reviews?wholesalerId="+wholesalerID.String(), "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, reviews.scope)
	assert.Equal(t, wholesalerID, *reviews.scope)

	assert.Equal(t, http.StatusBadRequest, do(t, router, http.MethodGet, "/api/reviews?wholesalerId=x", "", nil).Code)

	rec = do(t, router, http.MethodPost, "/api/reviews", "vendor-token", AddReviewRequest{WholesalerID: wholesalerID, Rating: 5, Comment: "fresh"})
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, vendorID.String(), decode(t, rec)["vendorId"])

	bad := newRouter(NewReviewHandler(&stubReviews{err: domain.ErrInvalidRating}, zap.NewNop()))
	rec = do(t, bad, http.MethodPost, "/api/reviews", "vendor-token", AddReviewRequest{WholesalerID: wholesalerID, Rating: 6})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPayLater_MasksIdentityNumbers(t *testing.T) {
	credit := &stubCredit{account: &domain.CreditAccount{VendorID: vendorID, CreditLimit: 3000}}
	router := newRouter(NewCreditHandler(credit, zap.NewNop()))

	rec := do(t, router, http.MethodPost, "/api/pay-later/enroll", "vendor-token", EnrollRequest{BankDetails: domain.BankDetails{
		Aadhar: "123412341234", PAN: "ABCDE1234F", IFSC: "SBIN0001234",
	}})
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, true, body["success"])
	bank := body["data"].(map[string]interface{})["bankDetails"].(map[string]interface{})
	assert.Equal(t, "XXXXXXXX1234", bank["aadhar"])
	assert.Equal(t, "XXXXXX234F", bank["pan"])
	assert.Equal(t, "SBIN0001234", bank["ifsc"])

	// stored details stay intact
	assert.Equal(t, "123412341234", credit.account.BankDetails.Aadhar)

	rec = do(t, router, http.MethodGet, "/api/pay-later", "vendor-token", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, decode(t, rec)["isEnrolled"])
}

func TestPayLater_Draw(t *testing.T) {
	credit := &stubCredit{account: &domain.CreditAccount{VendorID: vendorID, CreditLimit: 3000, Enrolled: true}}
	router := newRouter(NewCreditHandler(credit, zap.NewNop()))

	rec := do(t, router, http.MethodPost, "/api/pay-later/draw", "vendor-token", AmountRequest{Amount: 1200})
	require.Equal(t, http.StatusOK, rec.Code)
	data := decode(t, rec)["data"].(map[string]interface{})
	assert.Equal(t, 1200.0, data["usedCredit"])
	assert.Equal(t, 1800.0, data["availableCredit"])

	assert.Equal(t, http.StatusForbidden, do(t, router, http.MethodPost, "/api/pay-later/draw", "wholesaler-token", AmountRequest{Amount: 10}).Code)
}

func TestPayLater_ErrorStatuses(t *testing.T) {
	tests := []struct {
		err    error
		status int
	}{
		{domain.ErrNotEnrolled, http.StatusNotFound},
		{domain.ErrAccountBlocked, http.StatusPaymentRequired},
		{domain.ErrLimitExceeded, http.StatusPaymentRequired},
		{domain.ErrInvalidAmount, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			credit := &stubCredit{account: &domain.CreditAccount{}, err: tt.err}
			router := newRouter(NewCreditHandler(credit, zap.NewNop()))
			rec := do(t, router, http.MethodPost, "/api/pay-later/draw", "vendor-token", AmountRequest{Amount: 100})
			assert.Equal(t, tt.status, rec.Code)
		})
	}
}

func TestDirectory(t *testing.T) {
	dir := &stubDirectory{}
	r := chi.NewRouter()
	NewDirectoryHandler(dir, zap.NewNop()).RegisterRoutes(r)

	rec := do(t, r, http.MethodGet, "/wholesalers?sortBy=trust", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "trust", dir.sortBy)
	assert.Len(t, decode(t, rec)["wholesalers"], 1)

	rec = do(t, r, http.MethodGet, "/vendors", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, decode(t, rec), "vendors")
}
