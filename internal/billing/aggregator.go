package billing

import (
	"context"
	"fmt"

	"github.com/appetiteclub/apt"
	"github.com/google/uuid"
)

// Aggregator keeps a period's derived totals in line with its member orders.
// Recompute is deliberately a full scan rather than an incremental counter:
// a missed or duplicated trigger self-heals on the next run, which is what
// makes the read-then-write consistency model safe.
type Aggregator struct {
	periods PeriodRepo
	orders  OrderTotals
	logger  apt.Logger
}

func NewAggregator(periods PeriodRepo, orders OrderTotals, logger apt.Logger) *Aggregator {
	if logger == nil {
		logger = apt.NewNoopLogger()
	}
	return &Aggregator{
		periods: periods,
		orders:  orders,
		logger:  logger,
	}
}

// Recompute rewrites the period's running total and order count from the
// order store. Idempotent; the only side effect is the period write.
func (a *Aggregator) Recompute(ctx context.Context, periodID uuid.UUID) (*Period, error) {
	period, err := a.periods.Get(ctx, periodID)
	if err != nil {
		return nil, fmt.Errorf("cannot load billing period: %w", err)
	}
	if period == nil {
		return nil, fmt.Errorf("billing period %s: %w", periodID, ErrPeriodNotFound)
	}

	total, count, err := a.orders.TotalsForPeriod(ctx, periodID)
	if err != nil {
		return nil, fmt.Errorf("cannot aggregate orders for period: %w", err)
	}

	period.TotalAmount = total
	period.OrderCount = count
	period.BeforeUpdate()

	if err := a.periods.Save(ctx, period); err != nil {
		return nil, fmt.Errorf("cannot store recomputed totals: %w", err)
	}

	a.logger.Debug("billing period recomputed",
		"period_id", periodID.String(),
		"total_amount", total,
		"order_count", count,
	)
	return period, nil
}

// Activate makes the period the single orderable one. Every other period is
// deactivated first in one update, then this one is flagged: a reader never
// observes two active periods, and the no-active window is as short as the
// two writes allow.
func (a *Aggregator) Activate(ctx context.Context, periodID uuid.UUID) (*Period, error) {
	period, err := a.periods.Get(ctx, periodID)
	if err != nil {
		return nil, fmt.Errorf("cannot load billing period: %w", err)
	}
	if period == nil {
		return nil, fmt.Errorf("billing period %s: %w", periodID, ErrPeriodNotFound)
	}

	if err := a.periods.DeactivateOthers(ctx, periodID); err != nil {
		return nil, fmt.Errorf("cannot deactivate other periods: %w", err)
	}

	// Flip only the flag: a full save here could race a concurrent
	// Recompute and write back the totals read above.
	if err := a.periods.SetActive(ctx, periodID, true); err != nil {
		return nil, fmt.Errorf("cannot activate billing period: %w", err)
	}
	period.Activate()

	a.logger.Info("billing period activated", "period_id", periodID.String(), "name", period.Name)
	return period, nil
}

// Deactivate disables ordering against the period without closing it.
func (a *Aggregator) Deactivate(ctx context.Context, periodID uuid.UUID) (*Period, error) {
	period, err := a.periods.Get(ctx, periodID)
	if err != nil {
		return nil, fmt.Errorf("cannot load billing period: %w", err)
	}
	if period == nil {
		return nil, fmt.Errorf("billing period %s: %w", periodID, ErrPeriodNotFound)
	}

	if err := a.periods.SetActive(ctx, periodID, false); err != nil {
		return nil, fmt.Errorf("cannot deactivate billing period: %w", err)
	}
	period.Deactivate()

	a.logger.Info("billing period deactivated", "period_id", periodID.String())
	return period, nil
}

// Close ends the period for ordering and stamps its end time.
func (a *Aggregator) Close(ctx context.Context, periodID uuid.UUID) (*Period, error) {
	period, err := a.periods.Get(ctx, periodID)
	if err != nil {
		return nil, fmt.Errorf("cannot load billing period: %w", err)
	}
	if period == nil {
		return nil, fmt.Errorf("billing period %s: %w", periodID, ErrPeriodNotFound)
	}

	period.Close()
	if err := a.periods.Save(ctx, period); err != nil {
		return nil, fmt.Errorf("cannot close billing period: %w", err)
	}

	a.logger.Info("billing period closed", "period_id", periodID.String())
	return period, nil
}
