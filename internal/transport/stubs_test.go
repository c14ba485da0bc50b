package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"sahaayak/internal/domain"
	"sahaayak/internal/middleware"
	"sahaayak/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var (
	vendorID     = uuid.MustParse("11111111-1111-1111-1111-111111111111")
	wholesalerID = uuid.MustParse("22222222-2222-2222-2222-222222222222")
)

// stubSessions maps bearer tokens to identities
type stubSessions map[string]domain.Identity

func (s stubSessions) CurrentUser(ctx context.Context, token string) (*domain.Identity, error) {
	id, ok := s[token]
	if !ok {
		return nil, domain.ErrUnauthenticated
	}
	return &id, nil
}

var sessions = stubSessions{
	"vendor-token":     {ID: vendorID, Name: "Ravi", Role: domain.RoleVendor},
	"wholesaler-token": {ID: wholesalerID, Name: "Fresh Valley", Role: domain.RoleWholesaler},
}

type stubAuth struct {
	service.AuthService
	session   *domain.Session
	err       error
	loggedOut []string
}

func (s *stubAuth) Authenticate(ctx context.Context, phone, password string, role domain.Role) (*domain.Session, error) {
	return s.session, s.err
}

func (s *stubAuth) Logout(ctx context.Context, token string) error {
	s.loggedOut = append(s.loggedOut, token)
	return s.err
}

func (s *stubAuth) CurrentUser(ctx context.Context, token string) (*domain.Identity, error) {
	return sessions.CurrentUser(ctx, token)
}

func (s *stubAuth) RegisterVendor(ctx context.Context, input service.RegisterVendorInput) (*domain.Vendor, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &domain.Vendor{ID: uuid.New(), Name: input.Name, Phone: input.Phone, PasswordHash: "hash"}, nil
}

type stubCatalog struct {
	service.CatalogService
	items   []domain.ProductView
	filter  service.Filter
	created service.CreateProductInput
	stock   int
	err     error
}

func (s *stubCatalog) Query(ctx context.Context, filter service.Filter) ([]domain.ProductView, error) {
	s.filter = filter
	return s.items, s.err
}

func (s *stubCatalog) Get(ctx context.Context, id uuid.UUID) (*domain.ProductView, error) {
	for i := range s.items {
		if s.items[i].ID == id {
			return &s.items[i], nil
		}
	}
	return nil, domain.ErrProductNotFound
}

func (s *stubCatalog) CreateProduct(ctx context.Context, wholesaler uuid.UUID, input service.CreateProductInput) (*domain.ProductView, error) {
	s.created = input
	return &domain.ProductView{Product: domain.Product{ID: uuid.New(), WholesalerID: wholesaler, Name: input.Name}}, s.err
}

func (s *stubCatalog) UpdateStock(ctx context.Context, wholesaler, productID uuid.UUID, stock int) (*domain.ProductView, error) {
	s.stock = stock
	if s.err != nil {
		return nil, s.err
	}
	return &domain.ProductView{Product: domain.Product{ID: productID, Stock: stock}}, nil
}

func (s *stubCatalog) DeleteProduct(ctx context.Context, wholesaler, productID uuid.UUID) error {
	return s.err
}

type stubOrders struct {
	service.OrderService
	placedFor uuid.UUID
	quantity  int
	status    domain.OrderStatus
	err       error
}

func (s *stubOrders) PlaceOrder(ctx context.Context, vendor, productID uuid.UUID, quantity int) (*domain.Order, error) {
	s.placedFor = vendor
	s.quantity = quantity
	if s.err != nil {
		return nil, s.err
	}
	return &domain.Order{ID: uuid.New(), VendorID: vendor, ProductID: productID, Quantity: quantity, Status: domain.OrderPending}, nil
}

func (s *stubOrders) ListOrders(ctx context.Context, identity domain.Identity) ([]*domain.Order, error) {
	return []*domain.Order{{ID: uuid.New(), VendorID: identity.ID}}, nil
}

func (s *stubOrders) UpdateStatus(ctx context.Context, wholesaler, orderID uuid.UUID, status domain.OrderStatus) (*domain.Order, error) {
	s.status = status
	if s.err != nil {
		return nil, s.err
	}
	return &domain.Order{ID: orderID, WholesalerID: wholesaler, Status: status}, nil
}

type stubReviews struct {
	service.ReviewService
	scope *uuid.UUID
	err   error
}

func (s *stubReviews) ListReviews(ctx context.Context, wholesaler *uuid.UUID) ([]*domain.Review, error) {
	s.scope = wholesaler
	return []*domain.Review{}, nil
}

func (s *stubReviews) AddReview(ctx context.Context, vendor, wholesaler uuid.UUID, rating int, comment string) (*domain.Review, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &domain.Review{ID: uuid.New(), VendorID: vendor, WholesalerID: wholesaler, Rating: rating, Comment: comment}, nil
}

type stubCredit struct {
	service.CreditService
	account *domain.CreditAccount
	amount  float64
	err     error
}

func (s *stubCredit) summary() (*domain.CreditSummary, error) {
	if s.err != nil {
		return nil, s.err
	}
	acc := *s.account
	summary := acc.Summarize(acc.UpdatedAt)
	return &summary, nil
}

func (s *stubCredit) Get(ctx context.Context, vendor uuid.UUID) (*domain.CreditSummary, error) {
	return s.summary()
}

func (s *stubCredit) Enroll(ctx context.Context, vendor uuid.UUID, bank domain.BankDetails) (*domain.CreditSummary, error) {
	s.account.BankDetails = s.account.BankDetails.Merge(bank)
	s.account.Enrolled = true
	return s.summary()
}

func (s *stubCredit) Draw(ctx context.Context, vendor uuid.UUID, amount float64) (*domain.CreditSummary, error) {
	s.amount = amount
	if s.err == nil {
		s.account.UsedCredit += amount
	}
	return s.summary()
}

func (s *stubCredit) Repay(ctx context.Context, vendor uuid.UUID, amount float64) (*domain.CreditSummary, error) {
	s.amount = amount
	return s.summary()
}

type stubDirectory struct {
	sortBy string
}

func (s *stubDirectory) ListVendors(ctx context.Context) ([]*domain.Vendor, error) {
	return []*domain.Vendor{}, nil
}

func (s *stubDirectory) ListWholesalers(ctx context.Context, sortBy string) ([]*domain.Wholesaler, error) {
	s.sortBy = sortBy
	return []*domain.Wholesaler{{ID: wholesalerID, Name: "Fresh Valley"}}, nil
}

type stubDonations struct {
	service.DonationService
	status *domain.DonationStatus
	donor  domain.Identity
	input  service.DonationInput
	err    error
}

func (s *stubDonations) List(ctx context.Context, status *domain.DonationStatus) ([]*domain.Donation, error) {
	s.status = status
	if s.err != nil {
		return nil, s.err
	}
	return []*domain.Donation{{ID: uuid.New(), DonorName: "Green Valley Restaurant", Status: domain.DonationAvailable}}, nil
}

func (s *stubDonations) Create(ctx context.Context, donor domain.Identity, input service.DonationInput) (*domain.Donation, error) {
	s.donor = donor
	s.input = input
	if s.err != nil {
		return nil, s.err
	}
	return &domain.Donation{ID: uuid.New(), DonorID: donor.ID, DonorName: donor.Name, FoodType: input.FoodType, Status: domain.DonationPending}, nil
}

type routes interface {
	RegisterRoutes(r chi.Router, authMiddleware func(http.Handler) http.Handler)
}

// newRouter mounts h under /api behind the real auth middleware
func newRouter(h routes) http.Handler {
	r := chi.NewRouter()
	auth := middleware.AuthMiddleware(sessions, zap.NewNop())
	r.Route("/api", func(r chi.Router) {
		h.RegisterRoutes(r, auth)
	})
	return r
}

func do(t *testing.T, h http.Handler, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if raw, ok := body.(string); ok {
			buf.WriteString(raw)
		} else {
			require.NoError(t, json.NewEncoder(&buf).Encode(body))
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}
