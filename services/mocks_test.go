package services

import (
	"context"
	"sync"
	"time"

	"storefront-service/models"
)

// In-memory repository and provider stand-ins. They are mutex-guarded
// because watcher goroutines hit them concurrently with test assertions.

type memCartRepo struct {
	mu     sync.Mutex
	carts  map[string]*models.Cart
	getErr error
}

func newMemCartRepo() *memCartRepo {
	return &memCartRepo{carts: make(map[string]*models.Cart)}
}

func (m *memCartRepo) GetCart(_ context.Context, sessionID string) (*models.Cart, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return nil, m.getErr
	}
	cart, ok := m.carts[sessionID]
	if !ok {
		return nil, nil
	}
	cp := *cart
	cp.Items = append([]models.CartLine(nil), cart.Items...)
	return &cp, nil
}

func (m *memCartRepo) SaveCart(_ context.Context, cart *models.Cart) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *cart
	cp.Items = append([]models.CartLine(nil), cart.Items...)
	m.carts[cart.SessionID] = &cp
	return nil
}

func (m *memCartRepo) DeleteCart(_ context.Context, sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.carts, sessionID)
	return nil
}

func (m *memCartRepo) has(sessionID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.carts[sessionID]
	return ok
}

type memDraftRepo struct {
	mu     sync.Mutex
	drafts map[string]*models.OrderDraft
}

func newMemDraftRepo() *memDraftRepo {
	return &memDraftRepo{drafts: make(map[string]*models.OrderDraft)}
}

func (m *memDraftRepo) LoadDraft(_ context.Context, sessionID string) (*models.OrderDraft, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	draft, ok := m.drafts[sessionID]
	if !ok {
		return nil, nil
	}
	cp := *draft
	return &cp, nil
}

func (m *memDraftRepo) SaveDraft(_ context.Context, draft *models.OrderDraft) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *draft
	m.drafts[draft.SessionID] = &cp
	return nil
}

func (m *memDraftRepo) DeleteDraft(_ context.Context, sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.drafts, sessionID)
	return nil
}

type memSessionRepo struct {
	mu        sync.Mutex
	sessions  map[string]*models.PaymentSession
	expiries  map[string]time.Time
	analytics map[string]*models.UtmifyOrder
}

func newMemSessionRepo() *memSessionRepo {
	return &memSessionRepo{
		sessions:  make(map[string]*models.PaymentSession),
		expiries:  make(map[string]time.Time),
		analytics: make(map[string]*models.UtmifyOrder),
	}
}

func (m *memSessionRepo) SaveSession(_ context.Context, sessionID string, session *models.PaymentSession) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *session
	m.sessions[sessionID] = &cp
	return nil
}

func (m *memSessionRepo) LoadSession(_ context.Context, sessionID string) (*models.PaymentSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	session, ok := m.sessions[sessionID]
	if !ok {
		return nil, nil
	}
	cp := *session
	return &cp, nil
}

func (m *memSessionRepo) ClearSession(_ context.Context, sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, sessionID)
	return nil
}

func (m *memSessionRepo) SaveOrderExpiry(_ context.Context, orderID string, expiresAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.expiries[orderID] = expiresAt
	return nil
}

func (m *memSessionRepo) GetOrderExpiry(_ context.Context, orderID string) (time.Time, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.expiries[orderID]
	return t, ok, nil
}

func (m *memSessionRepo) DeleteOrderExpiry(_ context.Context, orderID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.expiries, orderID)
	return nil
}

func (m *memSessionRepo) SaveOrderAnalytics(_ context.Context, orderID string, order *models.UtmifyOrder) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *order
	m.analytics[orderID] = &cp
	return nil
}

func (m *memSessionRepo) LoadOrderAnalytics(_ context.Context, orderID string) (*models.UtmifyOrder, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	order, ok := m.analytics[orderID]
	if !ok {
		return nil, nil
	}
	cp := *order
	return &cp, nil
}

func (m *memSessionRepo) DeleteOrderAnalytics(_ context.Context, orderID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.analytics, orderID)
	return nil
}

func (m *memSessionRepo) hasSession(sessionID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.sessions[sessionID]
	return ok
}

func (m *memSessionRepo) hasExpiry(orderID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.expiries[orderID]
	return ok
}

type stubGateway struct {
	mu         sync.Mutex
	createFn   func(req models.PaymentRequest) (*models.GatewayPayment, error)
	statusFn   func(externalID string) (string, error)
	lastCreate *models.PaymentRequest
	statusCall int
}

func (g *stubGateway) CreateTransaction(_ context.Context, req models.PaymentRequest) (*models.GatewayPayment, error) {
	g.mu.Lock()
	cp := req
	g.lastCreate = &cp
	fn := g.createFn
	g.mu.Unlock()
	if fn == nil {
		return &models.GatewayPayment{ID: "gw_1", Status: "pending"}, nil
	}
	return fn(req)
}

func (g *stubGateway) TransactionStatus(_ context.Context, externalID string) (string, error) {
	g.mu.Lock()
	g.statusCall++
	fn := g.statusFn
	g.mu.Unlock()
	if fn == nil {
		return models.StatusPending, nil
	}
	return fn(externalID)
}

func (g *stubGateway) statusCalls() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.statusCall
}

type stubCEP struct {
	addr *models.Address
	err  error
}

func (s *stubCEP) Lookup(_ context.Context, _ string) (*models.Address, error) {
	if s.err != nil {
		return nil, s.err
	}
	cp := *s.addr
	return &cp, nil
}

type stubAnalytics struct {
	mu      sync.Mutex
	enabled bool
	sendErr error
	sent    []models.UtmifyOrder
}

func (s *stubAnalytics) Enabled() bool { return s.enabled }

func (s *stubAnalytics) SendOrder(_ context.Context, order models.UtmifyOrder) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sendErr != nil {
		return s.sendErr
	}
	s.sent = append(s.sent, order)
	return nil
}

func (s *stubAnalytics) sentOrders() []models.UtmifyOrder {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.UtmifyOrder(nil), s.sent...)
}
