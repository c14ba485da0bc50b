package service

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"sahaayak/internal/domain"
	"sahaayak/internal/events"

	"github.com/google/uuid"
)

// Mock repositories for testing

type mockVendorRepository struct {
	mu      sync.Mutex
	vendors map[uuid.UUID]*domain.Vendor
}

func newMockVendorRepository() *mockVendorRepository {
	return &mockVendorRepository{vendors: make(map[uuid.UUID]*domain.Vendor)}
}

func (m *mockVendorRepository) Create(ctx context.Context, vendor *domain.Vendor) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, v := range m.vendors {
		if v.Phone == vendor.Phone {
			return domain.ErrAlreadyExists
		}
	}
	vendor.CreatedAt = time.Now()
	vendor.UpdatedAt = vendor.CreatedAt
	m.vendors[vendor.ID] = vendor
	return nil
}

func (m *mockVendorRepository) FindByPhone(ctx context.Context, phone string) (*domain.Vendor, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, v := range m.vendors {
		if v.Phone == phone {
			return v, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *mockVendorRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Vendor, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.vendors[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return v, nil
}

func (m *mockVendorRepository) ListApproved(ctx context.Context) ([]*domain.Vendor, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []*domain.Vendor{}
	for _, v := range m.vendors {
		if v.Approved {
			out = append(out, v)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *mockVendorRepository) SetApproved(ctx context.Context, id uuid.UUID, approved bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.vendors[id]
	if !ok {
		return domain.ErrNotFound
	}
	v.Approved = approved
	return nil
}

type mockWholesalerRepository struct {
	mu          sync.Mutex
	wholesalers map[uuid.UUID]*domain.Wholesaler
}

func newMockWholesalerRepository() *mockWholesalerRepository {
	return &mockWholesalerRepository{wholesalers: make(map[uuid.UUID]*domain.Wholesaler)}
}

func (m *mockWholesalerRepository) Create(ctx context.Context, wholesaler *domain.Wholesaler) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, w := range m.wholesalers {
		if w.Phone == wholesaler.Phone {
			return domain.ErrAlreadyExists
		}
	}
	m.wholesalers[wholesaler.ID] = wholesaler
	return nil
}

func (m *mockWholesalerRepository) FindByPhone(ctx context.Context, phone string) (*domain.Wholesaler, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, w := range m.wholesalers {
		if w.Phone == phone {
			return w, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *mockWholesalerRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Wholesaler, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	w, ok := m.wholesalers[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return w, nil
}

func (m *mockWholesalerRepository) ListApproved(ctx context.Context, sortBy string) ([]*domain.Wholesaler, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []*domain.Wholesaler{}
	for _, w := range m.wholesalers {
		if w.Approved {
			out = append(out, w)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if sortBy == "" || sortBy == "name" {
			return out[i].Name < out[j].Name
		}
		return out[i].TrustScore > out[j].TrustScore
	})
	return out, nil
}

func (m *mockWholesalerRepository) SetApproved(ctx context.Context, id uuid.UUID, approved bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	w, ok := m.wholesalers[id]
	if !ok {
		return domain.ErrNotFound
	}
	w.Approved = approved
	return nil
}

type mockSessionRepository struct {
	mu      sync.Mutex
	revoked map[string]time.Duration
	err     error
}

func newMockSessionRepository() *mockSessionRepository {
	return &mockSessionRepository{revoked: make(map[string]time.Duration)}
}

func (m *mockSessionRepository) Revoke(ctx context.Context, tokenID string, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.revoked[tokenID] = ttl
	return nil
}

func (m *mockSessionRepository) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return false, m.err
	}
	_, ok := m.revoked[tokenID]
	return ok, nil
}

// mockProductRepository keeps listings in insertion order, like the created_at ordering of the store
type mockProductRepository struct {
	mu          sync.Mutex
	order       []uuid.UUID
	products    map[uuid.UUID]*domain.Product
	wholesalers map[uuid.UUID]*domain.Wholesaler
	ordered     map[uuid.UUID]bool
}

func newMockProductRepository() *mockProductRepository {
	return &mockProductRepository{
		products:    make(map[uuid.UUID]*domain.Product),
		wholesalers: make(map[uuid.UUID]*domain.Wholesaler),
		ordered:     make(map[uuid.UUID]bool),
	}
}

func (m *mockProductRepository) addWholesaler(name string, trust float64, approved bool) *domain.Wholesaler {
	m.mu.Lock()
	defer m.mu.Unlock()
	w := &domain.Wholesaler{ID: uuid.New(), Name: name, TrustScore: trust, Approved: approved}
	m.wholesalers[w.ID] = w
	return w
}

func (m *mockProductRepository) visible(p *domain.Product) (*domain.Wholesaler, bool) {
	w, ok := m.wholesalers[p.WholesalerID]
	return w, ok && w.Approved
}

func (m *mockProductRepository) view(p *domain.Product) *domain.ProductView {
	w := m.wholesalers[p.WholesalerID]
	return &domain.ProductView{Product: *p, WholesalerName: w.Name, TrustScore: w.TrustScore}
}

func (m *mockProductRepository) Create(ctx context.Context, product *domain.Product) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.wholesalers[product.WholesalerID]; !ok {
		return domain.ErrNotFound
	}
	stored := *product
	m.products[product.ID] = &stored
	m.order = append(m.order, product.ID)
	return nil
}

func (m *mockProductRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.products[id]
	if !ok {
		return nil, domain.ErrProductNotFound
	}
	copied := *p
	return &copied, nil
}

func (m *mockProductRepository) ListVisible(ctx context.Context) ([]domain.ProductView, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []domain.ProductView{}
	for _, id := range m.order {
		p, ok := m.products[id]
		if !ok {
			continue
		}
		if _, ok := m.visible(p); ok {
			out = append(out, *m.view(p))
		}
	}
	return out, nil
}

func (m *mockProductRepository) bump(id uuid.UUID, like bool) (*domain.ProductView, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.products[id]
	if !ok {
		return nil, domain.ErrProductNotFound
	}
	if _, ok := m.visible(p); !ok {
		return nil, domain.ErrProductNotFound
	}
	if like {
		p.Likes++
	} else {
		p.Views++
	}
	return m.view(p), nil
}

func (m *mockProductRepository) RecordView(ctx context.Context, id uuid.UUID) (*domain.ProductView, error) {
	return m.bump(id, false)
}

func (m *mockProductRepository) Like(ctx context.Context, id uuid.UUID) (*domain.ProductView, error) {
	return m.bump(id, true)
}

func (m *mockProductRepository) owned(id, wholesalerID uuid.UUID) (*domain.Product, error) {
	p, ok := m.products[id]
	if !ok {
		return nil, domain.ErrProductNotFound
	}
	if p.WholesalerID != wholesalerID {
		return nil, domain.ErrNotAuthorized
	}
	return p, nil
}

func (m *mockProductRepository) UpdateStock(ctx context.Context, id, wholesalerID uuid.UUID, stock int) (*domain.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, err := m.owned(id, wholesalerID)
	if err != nil {
		return nil, err
	}
	p.Stock = stock
	copied := *p
	return &copied, nil
}

func (m *mockProductRepository) Delete(ctx context.Context, id, wholesalerID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, err := m.owned(id, wholesalerID); err != nil {
		return err
	}
	if m.ordered[id] {
		return domain.ErrProductInUse
	}
	delete(m.products, id)
	return nil
}

func (m *mockProductRepository) ListByWholesaler(ctx context.Context, wholesalerID uuid.UUID) ([]*domain.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []*domain.Product{}
	for _, id := range m.order {
		if p, ok := m.products[id]; ok && p.WholesalerID == wholesalerID {
			copied := *p
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (m *mockProductRepository) Categories(ctx context.Context) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	seen := map[string]bool{}
	out := []string{}
	for _, p := range m.products {
		if _, ok := m.visible(p); ok && !seen[p.Category] {
			seen[p.Category] = true
			out = append(out, p.Category)
		}
	}
	sort.Strings(out)
	return out, nil
}

// mockOrderRepository places orders against the stock held by a mockProductRepository
type mockOrderRepository struct {
	catalog *mockProductRepository
	orders  []*domain.Order
	calls   int
}

func newMockOrderRepository(catalog *mockProductRepository) *mockOrderRepository {
	return &mockOrderRepository{catalog: catalog}
}

func (m *mockOrderRepository) Place(ctx context.Context, order *domain.Order) error {
	m.catalog.mu.Lock()
	defer m.catalog.mu.Unlock()
	m.calls++

	p, ok := m.catalog.products[order.ProductID]
	if !ok {
		return domain.ErrProductNotFound
	}
	if _, ok := m.catalog.visible(p); !ok {
		return domain.ErrProductNotFound
	}
	if p.Stock < order.Quantity {
		return domain.ErrInsufficientStock
	}

	p.Stock -= order.Quantity
	m.catalog.ordered[p.ID] = true

	order.WholesalerID = p.WholesalerID
	order.ProductName = p.Name
	order.UnitPrice = p.Price
	order.Total = domain.RoundMoney(p.Price * float64(order.Quantity))
	order.Status = domain.OrderPending
	order.CreatedAt = time.Now()
	order.UpdatedAt = order.CreatedAt

	stored := *order
	m.orders = append(m.orders, &stored)
	return nil
}

func (m *mockOrderRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
	m.catalog.mu.Lock()
	defer m.catalog.mu.Unlock()
	for _, o := range m.orders {
		if o.ID == id {
			copied := *o
			return &copied, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *mockOrderRepository) list(match func(*domain.Order) bool) []*domain.Order {
	m.catalog.mu.Lock()
	defer m.catalog.mu.Unlock()
	out := []*domain.Order{}
	for i := len(m.orders) - 1; i >= 0; i-- {
		if match(m.orders[i]) {
			copied := *m.orders[i]
			out = append(out, &copied)
		}
	}
	return out
}

func (m *mockOrderRepository) ListByVendor(ctx context.Context, vendorID uuid.UUID) ([]*domain.Order, error) {
	return m.list(func(o *domain.Order) bool { return o.VendorID == vendorID }), nil
}

func (m *mockOrderRepository) ListByWholesaler(ctx context.Context, wholesalerID uuid.UUID) ([]*domain.Order, error) {
	return m.list(func(o *domain.Order) bool { return o.WholesalerID == wholesalerID }), nil
}

func (m *mockOrderRepository) RecentItems(ctx context.Context, vendorID uuid.UUID, limit int) ([]*domain.RecentItem, error) {
	m.catalog.mu.Lock()
	defer m.catalog.mu.Unlock()
	items := map[uuid.UUID]*domain.RecentItem{}
	var out []*domain.RecentItem
	for i := len(m.orders) - 1; i >= 0; i-- {
		o := m.orders[i]
		if o.VendorID != vendorID || o.Status == domain.OrderCancelled {
			continue
		}
		item, ok := items[o.ProductID]
		if !ok {
			p := m.catalog.products[o.ProductID]
			item = &domain.RecentItem{ProductID: o.ProductID, Name: p.Name, Category: p.Category, Unit: p.Unit, Price: p.Price, LastOrderedAt: o.CreatedAt}
			items[o.ProductID] = item
			out = append(out, item)
		}
		item.OrderCount++
	}
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *mockOrderRepository) UpdateStatus(ctx context.Context, id, wholesalerID uuid.UUID, next domain.OrderStatus) (*domain.Order, error) {
	m.catalog.mu.Lock()
	defer m.catalog.mu.Unlock()
	for _, o := range m.orders {
		if o.ID != id {
			continue
		}
		if o.WholesalerID != wholesalerID {
			return nil, domain.ErrNotAuthorized
		}
		if !o.Status.CanTransitionTo(next) {
			return nil, domain.ErrInvalidTransition
		}
		if next == domain.OrderCancelled {
			if p, ok := m.catalog.products[o.ProductID]; ok {
				p.Stock += o.Quantity
			}
		}
		o.Status = next
		copied := *o
		return &copied, nil
	}
	return nil, domain.ErrNotFound
}

type mockReviewRepository struct {
	mu          sync.Mutex
	wholesalers *mockWholesalerRepository
	reviews     []*domain.Review
}

func newMockReviewRepository(wholesalers *mockWholesalerRepository) *mockReviewRepository {
	return &mockReviewRepository{wholesalers: wholesalers}
}

func (m *mockReviewRepository) Create(ctx context.Context, review *domain.Review) error {
	w, err := m.wholesalers.FindByID(ctx, review.WholesalerID)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	review.CreatedAt = time.Now()
	stored := *review
	m.reviews = append(m.reviews, &stored)

	sum, n := 0, 0
	for _, r := range m.reviews {
		if r.WholesalerID == review.WholesalerID {
			sum += r.Rating
			n++
		}
	}
	m.wholesalers.mu.Lock()
	w.TrustScore = domain.RoundMoney(float64(sum) / float64(n))
	m.wholesalers.mu.Unlock()
	return nil
}

func (m *mockReviewRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Review, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.reviews {
		if r.ID == id {
			copied := *r
			return &copied, nil
		}
	}
	return nil, domain.ErrReviewNotFound
}

func (m *mockReviewRepository) List(ctx context.Context, wholesalerID *uuid.UUID) ([]*domain.Review, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []*domain.Review{}
	for i := len(m.reviews) - 1; i >= 0; i-- {
		r := m.reviews[i]
		if wholesalerID == nil || r.WholesalerID == *wholesalerID {
			copied := *r
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (m *mockReviewRepository) Reply(ctx context.Context, id, wholesalerID uuid.UUID, text string) (*domain.Review, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.reviews {
		if r.ID != id {
			continue
		}
		switch {
		case r.WholesalerID != wholesalerID:
			return nil, domain.ErrNotAuthorized
		case r.HasReply():
			return nil, domain.ErrAlreadyReplied
		}
		now := time.Now()
		r.Reply = &text
		r.RepliedAt = &now
		copied := *r
		return &copied, nil
	}
	return nil, domain.ErrReviewNotFound
}

// mockCreditRepository is an in-memory ledger with the same conditional update rules as the store
type mockCreditRepository struct {
	mu       sync.Mutex
	accounts map[uuid.UUID]*domain.CreditAccount
	txns     []*domain.CreditTransaction
}

func newMockCreditRepository() *mockCreditRepository {
	return &mockCreditRepository{accounts: make(map[uuid.UUID]*domain.CreditAccount)}
}

func (m *mockCreditRepository) record(vendorID uuid.UUID, kind domain.TransactionType, amount float64) {
	m.txns = append(m.txns, &domain.CreditTransaction{
		ID:        uuid.New(),
		VendorID:  vendorID,
		Type:      kind,
		Amount:    amount,
		CreatedAt: time.Now(),
	})
}

func (m *mockCreditRepository) snapshot(a *domain.CreditAccount) *domain.CreditAccount {
	copied := *a
	if a.DueDate != nil {
		due := *a.DueDate
		copied.DueDate = &due
	}
	return &copied
}

func (m *mockCreditRepository) Enroll(ctx context.Context, vendorID uuid.UUID, limit, rate float64, bank domain.BankDetails) (*domain.CreditAccount, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.accounts[vendorID]
	if !ok {
		a = &domain.CreditAccount{VendorID: vendorID, CreditLimit: limit, InterestRate: rate}
		m.accounts[vendorID] = a
	}
	a.BankDetails = a.BankDetails.Merge(bank)
	a.Enrolled = true
	return m.snapshot(a), nil
}

func (m *mockCreditRepository) Get(ctx context.Context, vendorID uuid.UUID) (*domain.CreditAccount, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.accounts[vendorID]
	if !ok || !a.Enrolled {
		return nil, domain.ErrNotEnrolled
	}
	return m.snapshot(a), nil
}

func (m *mockCreditRepository) Draw(ctx context.Context, vendorID uuid.UUID, amount float64, dueDate time.Time) (*domain.CreditAccount, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	amount = domain.RoundMoney(amount)
	a, ok := m.accounts[vendorID]
	switch {
	case !ok || !a.Enrolled:
		return nil, domain.ErrNotEnrolled
	case a.Blocked:
		return nil, domain.ErrAccountBlocked
	case domain.RoundMoney(a.UsedCredit+amount) > a.CreditLimit:
		return nil, domain.ErrLimitExceeded
	}
	if a.UsedCredit == 0 || a.DueDate == nil {
		due := dueDate
		a.DueDate = &due
	}
	a.UsedCredit = domain.RoundMoney(a.UsedCredit + amount)
	m.record(vendorID, domain.TxPurchase, amount)
	return m.snapshot(a), nil
}

func (m *mockCreditRepository) Repay(ctx context.Context, vendorID uuid.UUID, amount float64, nextDue time.Time) (*domain.CreditAccount, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	amount = domain.RoundMoney(amount)
	a, ok := m.accounts[vendorID]
	if !ok || !a.Enrolled {
		return nil, domain.ErrNotEnrolled
	}
	applied := amount
	if applied > a.UsedCredit {
		applied = a.UsedCredit
	}
	a.UsedCredit = domain.RoundMoney(a.UsedCredit - applied)
	a.Blocked = false
	if a.UsedCredit > 0 {
		due := nextDue
		a.DueDate = &due
	} else {
		a.DueDate = nil
	}
	m.record(vendorID, domain.TxRepayment, applied)
	return m.snapshot(a), nil
}

func (m *mockCreditRepository) BlockDelinquent(ctx context.Context, cutoff time.Time, vendorID *uuid.UUID) ([]uuid.UUID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	blocked := []uuid.UUID{}
	for id, a := range m.accounts {
		if vendorID != nil && id != *vendorID {
			continue
		}
		if a.Blocked || a.UsedCredit <= 0 || a.DueDate == nil || !a.DueDate.Before(cutoff) {
			continue
		}
		a.Blocked = true
		m.record(id, domain.TxBlock, a.UsedCredit)
		blocked = append(blocked, id)
	}
	return blocked, nil
}

func (m *mockCreditRepository) Transactions(ctx context.Context, vendorID uuid.UUID, limit int) ([]*domain.CreditTransaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []*domain.CreditTransaction{}
	for i := len(m.txns) - 1; i >= 0 && len(out) < limit; i-- {
		if m.txns[i].VendorID == vendorID {
			out = append(out, m.txns[i])
		}
	}
	return out, nil
}

// recordingPublisher captures published events and can be made to fail
type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
	err    error
}

func (p *recordingPublisher) Publish(ctx context.Context, event events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, event)
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.Type)
	}
	return out
}

var errBrokerDown = errors.New("broker down")

type mockDonationRepository struct {
	mu        sync.Mutex
	donations []*domain.Donation
	err       error
}

func (m *mockDonationRepository) Create(ctx context.Context, donation *domain.Donation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	donation.CreatedAt = time.Now()
	stored := *donation
	m.donations = append(m.donations, &stored)
	return nil
}

func (m *mockDonationRepository) List(ctx context.Context, status *domain.DonationStatus) ([]*domain.Donation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []*domain.Donation{}
	for i := len(m.donations) - 1; i >= 0; i-- {
		if d := m.donations[i]; status == nil || d.Status == *status {
			out = append(out, d)
		}
	}
	return out, nil
}
