package billing

import (
	"context"

	"github.com/google/uuid"
)

type PeriodRepo interface {
	Create(ctx context.Context, period *Period) error
	Get(ctx context.Context, id uuid.UUID) (*Period, error)
	GetActive(ctx context.Context) (*Period, error)
	List(ctx context.Context) ([]*Period, error)
	Save(ctx context.Context, period *Period) error
	// SetActive flips only the active flag. Activation must not rewrite the
	// whole document: a full save could clobber totals a concurrent
	// recompute just wrote.
	SetActive(ctx context.Context, id uuid.UUID, active bool) error
	// DeactivateOthers clears the active flag on every period except the
	// given one in a single update, so activation never leaves a window
	// with two active periods.
	DeactivateOthers(ctx context.Context, id uuid.UUID) error
}

// OrderTotals is the slice of the order store the Aggregator needs: the sum
// and count of orders belonging to one period.
type OrderTotals interface {
	TotalsForPeriod(ctx context.Context, periodID uuid.UUID) (total float64, count int, err error)
}

// OrderReporter lists a period's member orders for the detailed bill.
type OrderReporter interface {
	OrdersForPeriod(ctx context.Context, periodID uuid.UUID) ([]BillOrder, error)
}

// BillOrder is the reporting shape of one member order on a detailed bill.
type BillOrder struct {
	ID           uuid.UUID  `json:"id"`
	OrderNumber  string     `json:"order_number"`
	CustomerName string     `json:"customer_name"`
	TableNumber  string     `json:"table_number"`
	Lines        []BillLine `json:"lines"`
	TotalAmount  float64    `json:"total_amount"`
	Status       string     `json:"status"`
	CreatedAt    string     `json:"created_at"`
}

// BillLine is one priced line on a detailed bill.
type BillLine struct {
	Name     string  `json:"name"`
	Price    float64 `json:"price"`
	Quantity int     `json:"quantity"`
	Subtotal float64 `json:"subtotal"`
}
