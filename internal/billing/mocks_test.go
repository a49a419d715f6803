package billing

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

// MockPeriodRepo is a map-backed test double for PeriodRepo.
type MockPeriodRepo struct {
	periods  map[uuid.UUID]*Period
	SaveFunc func(ctx context.Context, p *Period) error
}

func NewMockPeriodRepo() *MockPeriodRepo {
	return &MockPeriodRepo{
		periods: make(map[uuid.UUID]*Period),
	}
}

func (m *MockPeriodRepo) Create(ctx context.Context, p *Period) error {
	clone := *p
	m.periods[p.ID] = &clone
	return nil
}

func (m *MockPeriodRepo) Get(ctx context.Context, id uuid.UUID) (*Period, error) {
	p, ok := m.periods[id]
	if !ok {
		return nil, nil
	}
	clone := *p
	return &clone, nil
}

func (m *MockPeriodRepo) GetActive(ctx context.Context) (*Period, error) {
	for _, p := range m.periods {
		if p.Active {
			clone := *p
			return &clone, nil
		}
	}
	return nil, nil
}

func (m *MockPeriodRepo) List(ctx context.Context) ([]*Period, error) {
	result := make([]*Period, 0, len(m.periods))
	for _, p := range m.periods {
		clone := *p
		result = append(result, &clone)
	}
	return result, nil
}

func (m *MockPeriodRepo) Save(ctx context.Context, p *Period) error {
	if m.SaveFunc != nil {
		return m.SaveFunc(ctx, p)
	}
	if _, ok := m.periods[p.ID]; !ok {
		return fmt.Errorf("billing period not found")
	}
	clone := *p
	m.periods[p.ID] = &clone
	return nil
}

func (m *MockPeriodRepo) SetActive(ctx context.Context, id uuid.UUID, active bool) error {
	p, ok := m.periods[id]
	if !ok {
		return fmt.Errorf("billing period not found")
	}
	p.Active = active
	return nil
}

func (m *MockPeriodRepo) DeactivateOthers(ctx context.Context, id uuid.UUID) error {
	for _, p := range m.periods {
		if p.ID != id {
			p.Active = false
		}
	}
	return nil
}

func (m *MockPeriodRepo) activeCount() int {
	n := 0
	for _, p := range m.periods {
		if p.Active {
			n++
		}
	}
	return n
}

// MockOrderTotals serves canned aggregation results per period.
type MockOrderTotals struct {
	Totals map[uuid.UUID]struct {
		Total float64
		Count int
	}
	Err error
}

func NewMockOrderTotals() *MockOrderTotals {
	return &MockOrderTotals{
		Totals: make(map[uuid.UUID]struct {
			Total float64
			Count int
		}),
	}
}

func (m *MockOrderTotals) Set(periodID uuid.UUID, total float64, count int) {
	m.Totals[periodID] = struct {
		Total float64
		Count int
	}{total, count}
}

func (m *MockOrderTotals) TotalsForPeriod(ctx context.Context, periodID uuid.UUID) (float64, int, error) {
	if m.Err != nil {
		return 0, 0, m.Err
	}
	t := m.Totals[periodID]
	return t.Total, t.Count, nil
}

// MockOrderReporter serves canned bill orders per period.
type MockOrderReporter struct {
	Orders map[uuid.UUID][]BillOrder
}

func NewMockOrderReporter() *MockOrderReporter {
	return &MockOrderReporter{
		Orders: make(map[uuid.UUID][]BillOrder),
	}
}

func (m *MockOrderReporter) OrdersForPeriod(ctx context.Context, periodID uuid.UUID) ([]BillOrder, error) {
	return m.Orders[periodID], nil
}
