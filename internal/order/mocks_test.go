package order

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/cafetab/cafetab/internal/billing"
	"github.com/cafetab/cafetab/internal/catalog"
	"github.com/cafetab/cafetab/internal/tables"
	"github.com/cafetab/cafetab/pkg/event"
)

// MockOrderRepo is a map-backed test double for Repo. It enforces the same
// uniqueness rules as the real store: order_number always, request_id when
// set.
type MockOrderRepo struct {
	mu         sync.Mutex
	orders     map[uuid.UUID]*Order
	CreateFunc func(ctx context.Context, o *Order) error
	GetFunc    func(ctx context.Context, id uuid.UUID) (*Order, error)
	SaveFunc   func(ctx context.Context, o *Order) error
}

func NewMockOrderRepo() *MockOrderRepo {
	return &MockOrderRepo{
		orders: make(map[uuid.UUID]*Order),
	}
}

func (m *MockOrderRepo) Create(ctx context.Context, o *Order) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, o)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.orders {
		if existing.OrderNumber == o.OrderNumber {
			return fmt.Errorf("cannot create order: %w", ErrDuplicateKey)
		}
		if o.RequestID != "" && existing.RequestID == o.RequestID {
			return fmt.Errorf("cannot create order: %w", ErrDuplicateKey)
		}
	}
	clone := *o
	m.orders[o.ID] = &clone
	return nil
}

func (m *MockOrderRepo) Get(ctx context.Context, id uuid.UUID) (*Order, error) {
	if m.GetFunc != nil {
		return m.GetFunc(ctx, id)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[id]
	if !ok {
		return nil, nil
	}
	clone := *o
	return &clone, nil
}

func (m *MockOrderRepo) GetByRequestID(ctx context.Context, requestID string) (*Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, o := range m.orders {
		if o.RequestID == requestID {
			clone := *o
			return &clone, nil
		}
	}
	return nil, nil
}

func (m *MockOrderRepo) Save(ctx context.Context, o *Order) error {
	if m.SaveFunc != nil {
		return m.SaveFunc(ctx, o)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.orders[o.ID]; !ok {
		return fmt.Errorf("order not found")
	}
	clone := *o
	m.orders[o.ID] = &clone
	return nil
}

func (m *MockOrderRepo) all() []*Order {
	m.mu.Lock()
	defer m.mu.Unlock()
	result := make([]*Order, 0, len(m.orders))
	for _, o := range m.orders {
		clone := *o
		result = append(result, &clone)
	}
	return result
}

func (m *MockOrderRepo) ListByTableAndPeriod(ctx context.Context, tableID, periodID uuid.UUID) ([]*Order, error) {
	var result []*Order
	for _, o := range m.all() {
		if o.TableID == tableID && o.BillingPeriodID == periodID {
			result = append(result, o)
		}
	}
	return result, nil
}

func (m *MockOrderRepo) ListByPeriod(ctx context.Context, periodID uuid.UUID) ([]*Order, error) {
	var result []*Order
	for _, o := range m.all() {
		if o.BillingPeriodID == periodID {
			result = append(result, o)
		}
	}
	return result, nil
}

func (m *MockOrderRepo) ListByPeriodAndStatuses(ctx context.Context, periodID uuid.UUID, statuses []string) ([]*Order, error) {
	var result []*Order
	for _, o := range m.all() {
		if o.BillingPeriodID == periodID && contains(statuses, o.Status) {
			result = append(result, o)
		}
	}
	return result, nil
}

func (m *MockOrderRepo) ListByPeriodSince(ctx context.Context, periodID uuid.UUID, since time.Time) ([]*Order, error) {
	var result []*Order
	for _, o := range m.all() {
		if o.BillingPeriodID == periodID && !o.CreatedAt.Before(since) {
			result = append(result, o)
		}
	}
	return result, nil
}

func (m *MockOrderRepo) CountNumberPrefix(ctx context.Context, prefix string) (int64, error) {
	var count int64
	for _, o := range m.all() {
		if strings.HasPrefix(o.OrderNumber, prefix) {
			count++
		}
	}
	return count, nil
}

func (m *MockOrderRepo) NumberExists(ctx context.Context, number string) (bool, error) {
	for _, o := range m.all() {
		if o.OrderNumber == number {
			return true, nil
		}
	}
	return false, nil
}

func (m *MockOrderRepo) CountByPeriodAndStatuses(ctx context.Context, periodID uuid.UUID, statuses []string) (int64, error) {
	list, _ := m.ListByPeriodAndStatuses(ctx, periodID, statuses)
	return int64(len(list)), nil
}

func (m *MockOrderRepo) CountByPeriodSince(ctx context.Context, periodID uuid.UUID, since time.Time) (int64, error) {
	list, _ := m.ListByPeriodSince(ctx, periodID, since)
	return int64(len(list)), nil
}

func (m *MockOrderRepo) CountByPeriodStatusesSince(ctx context.Context, periodID uuid.UUID, statuses []string, since time.Time) (int64, error) {
	var count int64
	for _, o := range m.all() {
		if o.BillingPeriodID == periodID && contains(statuses, o.Status) && !o.CreatedAt.Before(since) {
			count++
		}
	}
	return count, nil
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// MockOfferingGetter is a test double for OfferingGetter.
type MockOfferingGetter struct {
	offerings map[uuid.UUID]*catalog.Offering
	GetFunc   func(ctx context.Context, id uuid.UUID) (*catalog.Offering, error)
}

func NewMockOfferingGetter() *MockOfferingGetter {
	return &MockOfferingGetter{
		offerings: make(map[uuid.UUID]*catalog.Offering),
	}
}

func (m *MockOfferingGetter) Add(o *catalog.Offering) {
	m.offerings[o.ID] = o
}

func (m *MockOfferingGetter) Get(ctx context.Context, id uuid.UUID) (*catalog.Offering, error) {
	if m.GetFunc != nil {
		return m.GetFunc(ctx, id)
	}
	return m.offerings[id], nil
}

// MockTableGetter is a test double for TableGetter.
type MockTableGetter struct {
	tables map[uuid.UUID]*tables.Table
}

func NewMockTableGetter() *MockTableGetter {
	return &MockTableGetter{
		tables: make(map[uuid.UUID]*tables.Table),
	}
}

func (m *MockTableGetter) Add(t *tables.Table) {
	m.tables[t.ID] = t
}

func (m *MockTableGetter) Get(ctx context.Context, id uuid.UUID) (*tables.Table, error) {
	return m.tables[id], nil
}

func (m *MockTableGetter) GetByToken(ctx context.Context, token string) (*tables.Table, error) {
	for _, t := range m.tables {
		if t.ScanToken == token {
			return t, nil
		}
	}
	return nil, nil
}

// MockPeriodGetter is a test double for PeriodGetter.
type MockPeriodGetter struct {
	periods map[uuid.UUID]*billing.Period
}

func NewMockPeriodGetter() *MockPeriodGetter {
	return &MockPeriodGetter{
		periods: make(map[uuid.UUID]*billing.Period),
	}
}

func (m *MockPeriodGetter) Add(p *billing.Period) {
	m.periods[p.ID] = p
}

func (m *MockPeriodGetter) Get(ctx context.Context, id uuid.UUID) (*billing.Period, error) {
	return m.periods[id], nil
}

func (m *MockPeriodGetter) GetActive(ctx context.Context) (*billing.Period, error) {
	for _, p := range m.periods {
		if p.Active {
			return p, nil
		}
	}
	return nil, nil
}

// MockRecomputer records billing recompute triggers.
type MockRecomputer struct {
	Recomputed []uuid.UUID
}

func (m *MockRecomputer) Recompute(ctx context.Context, periodID uuid.UUID) (*billing.Period, error) {
	m.Recomputed = append(m.Recomputed, periodID)
	return nil, nil
}

// MockNotifier records emitted notifications.
type MockNotifier struct {
	NewOrders     []event.NewOrderData
	OrderStatuses []event.OrderStatusData
	LineStatuses  []event.LineStatusData
}

func (m *MockNotifier) NewOrder(ctx context.Context, tableID uuid.UUID, data event.NewOrderData) {
	m.NewOrders = append(m.NewOrders, data)
}

func (m *MockNotifier) OrderStatus(ctx context.Context, tableID uuid.UUID, data event.OrderStatusData) {
	m.OrderStatuses = append(m.OrderStatuses, data)
}

func (m *MockNotifier) LineStatus(ctx context.Context, tableID uuid.UUID, data event.LineStatusData) {
	m.LineStatuses = append(m.LineStatuses, data)
}
