package order

import (
	"context"
	"fmt"
	"time"

	"github.com/cafetab/cafetab/internal/billing"
	"github.com/cafetab/cafetab/pkg/enums/orderstatus"
)

// Board views over the active billing period's orders.
const (
	ViewPending   = "pending"
	ViewActive    = "active"
	ViewToday     = "today"
	ViewCompleted = "completed"
	ViewAll       = "all"
)

var boardViews = map[string][]string{
	ViewPending: {
		orderstatus.Statuses.Pending.Name,
		orderstatus.Statuses.Confirmed.Name,
	},
	ViewActive: {
		orderstatus.Statuses.Pending.Name,
		orderstatus.Statuses.Confirmed.Name,
		orderstatus.Statuses.Preparing.Name,
		orderstatus.Statuses.Ready.Name,
	},
	ViewCompleted: {
		orderstatus.Statuses.Completed.Name,
	},
}

// Dashboard is the staff work snapshot for the active billing period.
type Dashboard struct {
	Pending        int64 `json:"pending"`
	Preparing      int64 `json:"preparing"`
	Ready          int64 `json:"ready"`
	CompletedToday int64 `json:"completed_today"`
	TotalToday     int64 `json:"total_today"`
}

// BoardOrders lists the active period's orders for one staff view.
func (e *Engine) BoardOrders(ctx context.Context, view string) ([]*Order, error) {
	period, err := e.activePeriod(ctx)
	if err != nil {
		return nil, err
	}
	if period == nil {
		return []*Order{}, nil
	}

	switch view {
	case ViewAll:
		return e.orders.ListByPeriod(ctx, period.ID)
	case ViewToday:
		return e.orders.ListByPeriodSince(ctx, period.ID, e.startOfDay())
	default:
		statuses, ok := boardViews[view]
		if !ok {
			return nil, newError(KindInvalidStatus, fmt.Sprintf("unknown board view %q", view))
		}
		return e.orders.ListByPeriodAndStatuses(ctx, period.ID, statuses)
	}
}

// Dashboard aggregates the staff counters for the active billing period.
func (e *Engine) Dashboard(ctx context.Context) (*Dashboard, error) {
	period, err := e.activePeriod(ctx)
	if err != nil {
		return nil, err
	}
	if period == nil {
		return &Dashboard{}, nil
	}

	d := &Dashboard{}
	counts := []struct {
		dst      *int64
		statuses []string
	}{
		{&d.Pending, boardViews[ViewPending]},
		{&d.Preparing, []string{orderstatus.Statuses.Preparing.Name}},
		{&d.Ready, []string{orderstatus.Statuses.Ready.Name}},
	}
	for _, c := range counts {
		n, err := e.orders.CountByPeriodAndStatuses(ctx, period.ID, c.statuses)
		if err != nil {
			return nil, fmt.Errorf("cannot count orders: %w", err)
		}
		*c.dst = n
	}

	d.TotalToday, err = e.orders.CountByPeriodSince(ctx, period.ID, e.startOfDay())
	if err != nil {
		return nil, fmt.Errorf("cannot count orders: %w", err)
	}
	d.CompletedToday, err = e.orders.CountByPeriodStatusesSince(ctx, period.ID, boardViews[ViewCompleted], e.startOfDay())
	if err != nil {
		return nil, fmt.Errorf("cannot count orders: %w", err)
	}
	return d, nil
}

func (e *Engine) activePeriod(ctx context.Context) (*billing.Period, error) {
	period, err := e.periods.GetActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("cannot resolve active billing period: %w", err)
	}
	return period, nil
}

func (e *Engine) startOfDay() time.Time {
	now := e.now()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
}
