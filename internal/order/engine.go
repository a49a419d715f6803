package order

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/appetiteclub/apt"
	"github.com/google/uuid"

	"github.com/cafetab/cafetab/internal/billing"
	"github.com/cafetab/cafetab/internal/notify"
	"github.com/cafetab/cafetab/internal/tables"
	"github.com/cafetab/cafetab/pkg/enums/linestatus"
	"github.com/cafetab/cafetab/pkg/enums/orderstatus"
	"github.com/cafetab/cafetab/pkg/event"
)

const (
	// numberProbes bounds the probe walk when allocating a day-scoped order
	// number under concurrent creates.
	numberProbes = 100

	// createAttempts bounds insert retries after an order_number collision
	// slipped past the probe.
	createAttempts = 5
)

// PeriodRecomputer refreshes a billing period's rollup after order activity.
type PeriodRecomputer interface {
	Recompute(ctx context.Context, periodID uuid.UUID) (*billing.Period, error)
}

// Engine owns the order lifecycle: creation with idempotent replay, pricing,
// and the coupled order/line state machines.
type Engine struct {
	orders    Repo
	offerings OfferingGetter
	tables    TableGetter
	periods   PeriodGetter
	billing   PeriodRecomputer
	notifier  notify.Notifier
	logger    apt.Logger
	now       func() time.Time
}

func NewEngine(orders Repo, offerings OfferingGetter, tables TableGetter, periods PeriodGetter, billing PeriodRecomputer, notifier notify.Notifier, logger apt.Logger) *Engine {
	return &Engine{
		orders:    orders,
		offerings: offerings,
		tables:    tables,
		periods:   periods,
		billing:   billing,
		notifier:  notifier,
		logger:    logger,
		now:       time.Now,
	}
}

// CreateRequest is a customer order submission. RequestID, when present, makes
// the submission idempotent: replays return the original order.
type CreateRequest struct {
	TableID      uuid.UUID
	TableToken   string
	CustomerName string
	RequestID    string
	Lines        []CreateLine
}

// CreateLine is one requested item with its customizations.
type CreateLine struct {
	OfferingID  uuid.UUID
	Quantity    int
	Temperature string
	ExtraShot   bool
	OatMilk     bool
	Notes       string
}

// Create validates, prices and persists a new order. The second return
// reports a replay: the request id was already consumed and the stored order
// is returned unchanged.
func (e *Engine) Create(ctx context.Context, req CreateRequest) (*Order, bool, error) {
	if req.RequestID != "" {
		existing, err := e.orders.GetByRequestID(ctx, req.RequestID)
		if err != nil {
			return nil, false, fmt.Errorf("cannot check request id: %w", err)
		}
		if existing != nil {
			return existing, true, nil
		}
	}

	table, err := e.resolveTable(ctx, req)
	if err != nil {
		return nil, false, err
	}

	period, err := e.orderingPeriod(ctx, table)
	if err != nil {
		return nil, false, err
	}

	if len(req.Lines) == 0 {
		return nil, false, newError(KindEmptyOrder, "order has no lines")
	}

	customer := strings.TrimSpace(req.CustomerName)
	if len(customer) < 2 {
		return nil, false, newError(KindInvalidCustomer, "customer name must have at least 2 characters")
	}

	o := NewOrder()
	o.TableID = table.ID
	o.TableNumber = table.Number
	o.BillingPeriodID = period.ID
	o.CustomerName = customer
	o.RequestID = req.RequestID

	total := 0.0
	for _, reqLine := range req.Lines {
		line, err := e.buildLine(ctx, reqLine)
		if err != nil {
			return nil, false, err
		}
		o.Lines = append(o.Lines, line)
		total += line.Subtotal()
	}
	o.TotalAmount = RoundMoney(total)

	for attempt := 0; attempt < createAttempts; attempt++ {
		number, err := e.nextNumber(ctx)
		if err != nil {
			return nil, false, err
		}
		o.OrderNumber = number
		o.BeforeCreate()

		err = e.orders.Create(ctx, o)
		if err == nil {
			e.afterCreate(ctx, o)
			return o, false, nil
		}
		if !errors.Is(err, ErrDuplicateKey) {
			return nil, false, fmt.Errorf("cannot create order: %w", err)
		}

		// Either a concurrent replay of the same request id won the insert,
		// or two creates raced for the same order number.
		if req.RequestID != "" {
			winner, gerr := e.orders.GetByRequestID(ctx, req.RequestID)
			if gerr != nil {
				return nil, false, fmt.Errorf("cannot check request id: %w", gerr)
			}
			if winner != nil {
				return winner, true, nil
			}
		}
	}

	return nil, false, fmt.Errorf("cannot allocate order number after %d attempts", createAttempts)
}

func (e *Engine) resolveTable(ctx context.Context, req CreateRequest) (*tables.Table, error) {
	var (
		table *tables.Table
		err   error
	)
	if req.TableToken != "" {
		table, err = e.tables.GetByToken(ctx, req.TableToken)
	} else {
		table, err = e.tables.Get(ctx, req.TableID)
	}
	if err != nil {
		return nil, fmt.Errorf("cannot resolve table: %w", err)
	}
	if table == nil {
		return nil, newError(KindTableNotFound, "table not found")
	}
	if !table.Active {
		return nil, newError(KindTableInactive, "table is not accepting orders")
	}
	return table, nil
}

// orderingPeriod resolves the billing period a new order books into: the
// table's pinned period when set, otherwise the active one. A missing, closed
// or inactive period closes ordering.
func (e *Engine) orderingPeriod(ctx context.Context, table *tables.Table) (*billing.Period, error) {
	var (
		period *billing.Period
		err    error
	)
	if table.BillingPeriodID != nil {
		period, err = e.periods.Get(ctx, *table.BillingPeriodID)
	} else {
		period, err = e.periods.GetActive(ctx)
	}
	if err != nil {
		return nil, fmt.Errorf("cannot resolve billing period: %w", err)
	}
	if period == nil || !period.Active || period.Closed() {
		return nil, newError(KindOrderingClosed, "ordering is closed")
	}
	return period, nil
}

func (e *Engine) buildLine(ctx context.Context, req CreateLine) (Line, error) {
	if req.Quantity < 1 {
		return Line{}, newError(KindInvalidCustomization, "quantity must be at least 1")
	}

	off, err := e.offerings.Get(ctx, req.OfferingID)
	if err != nil {
		return Line{}, fmt.Errorf("cannot resolve offering: %w", err)
	}
	if off == nil || !off.Active {
		return Line{}, newError(KindItemUnavailable, "item is not available")
	}

	temp := req.Temperature
	if temp == "" {
		temp = off.DefaultTemperature()
	}
	if !off.AllowsTemperature(temp) {
		return Line{}, newError(KindInvalidCustomization, fmt.Sprintf("%s cannot be served %s", off.Name, temp))
	}
	if req.ExtraShot && !off.AllowExtraShot {
		return Line{}, newError(KindInvalidCustomization, fmt.Sprintf("%s does not take an extra shot", off.Name))
	}
	if req.OatMilk && !off.AllowOatMilk {
		return Line{}, newError(KindInvalidCustomization, fmt.Sprintf("%s does not take oat milk", off.Name))
	}

	line := NewLine()
	line.OfferingID = off.ID
	line.Name = off.Name
	line.Price = UnitPrice(off, temp, req.ExtraShot, req.OatMilk)
	line.Quantity = req.Quantity
	line.Temperature = temp
	line.ExtraShot = req.ExtraShot
	line.OatMilk = req.OatMilk
	line.Notes = strings.TrimSpace(req.Notes)
	return line, nil
}

// nextNumber allocates the next day-scoped order number, walking past holes
// left by concurrent creates.
func (e *Engine) nextNumber(ctx context.Context) (string, error) {
	prefix := "ORD-" + e.now().Format("20060102") + "-"
	count, err := e.orders.CountNumberPrefix(ctx, prefix)
	if err != nil {
		return "", fmt.Errorf("cannot count orders for numbering: %w", err)
	}

	seq := count + 1
	for i := 0; i < numberProbes; i++ {
		number := fmt.Sprintf("%s%04d", prefix, seq)
		exists, err := e.orders.NumberExists(ctx, number)
		if err != nil {
			return "", fmt.Errorf("cannot probe order number: %w", err)
		}
		if !exists {
			return number, nil
		}
		seq++
	}
	return "", fmt.Errorf("cannot allocate order number after %d probes", numberProbes)
}

func (e *Engine) afterCreate(ctx context.Context, o *Order) {
	e.notifier.NewOrder(ctx, o.TableID, event.NewOrderData{
		OrderID:      o.ID,
		OrderNumber:  o.OrderNumber,
		TableNumber:  o.TableNumber,
		CustomerName: o.CustomerName,
		TotalAmount:  o.TotalAmount,
		CreatedAt:    o.CreatedAt,
	})
	e.recompute(ctx, o.BillingPeriodID)
}

func (e *Engine) recompute(ctx context.Context, periodID uuid.UUID) {
	if _, err := e.billing.Recompute(ctx, periodID); err != nil {
		e.logger.Errorf("cannot recompute billing period %s: %v", periodID, err)
	}
}

// Get returns an order by id.
func (e *Engine) Get(ctx context.Context, id uuid.UUID) (*Order, error) {
	o, err := e.orders.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("cannot get order: %w", err)
	}
	if o == nil {
		return nil, newError(KindOrderNotFound, "order not found")
	}
	return o, nil
}

// ListForTable returns the table's orders within its current billing scope.
// With no resolvable period there is nothing billable to show.
func (e *Engine) ListForTable(ctx context.Context, tableID uuid.UUID) ([]*Order, error) {
	table, err := e.tables.Get(ctx, tableID)
	if err != nil {
		return nil, fmt.Errorf("cannot resolve table: %w", err)
	}
	if table == nil {
		return nil, newError(KindTableNotFound, "table not found")
	}

	var period *billing.Period
	if table.BillingPeriodID != nil {
		period, err = e.periods.Get(ctx, *table.BillingPeriodID)
	} else {
		period, err = e.periods.GetActive(ctx)
	}
	if err != nil {
		return nil, fmt.Errorf("cannot resolve billing period: %w", err)
	}
	if period == nil {
		return []*Order{}, nil
	}

	list, err := e.orders.ListByTableAndPeriod(ctx, table.ID, period.ID)
	if err != nil {
		return nil, fmt.Errorf("cannot list orders: %w", err)
	}
	return list, nil
}

// TransitionOrder moves the order to the given status. On one-line orders the
// single line follows the order. staffID is recorded when the move completes
// the order.
func (e *Engine) TransitionOrder(ctx context.Context, id uuid.UUID, status, staffID string) (*Order, error) {
	if orderstatus.ByName(status) == nil {
		return nil, newError(KindInvalidStatus, fmt.Sprintf("unknown order status %q", status))
	}

	o, err := e.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	o.SetStatus(status, staffID)

	var followed *Line
	if len(o.Lines) == 1 {
		if ls, ok := LineStatusForOrder(status); ok && o.Lines[0].Status != ls {
			o.Lines[0].Status = ls
			followed = &o.Lines[0]
		}
	}

	o.BeforeUpdate()
	if err := e.orders.Save(ctx, o); err != nil {
		return nil, fmt.Errorf("cannot save order: %w", err)
	}

	e.notifier.OrderStatus(ctx, o.TableID, event.OrderStatusData{OrderID: o.ID, Status: o.Status})
	if followed != nil {
		e.notifier.LineStatus(ctx, o.TableID, event.LineStatusData{OrderID: o.ID, LineID: followed.ID, Status: followed.Status})
	}
	if status == orderstatus.Statuses.Completed.Name || status == orderstatus.Statuses.Cancelled.Name {
		e.recompute(ctx, o.BillingPeriodID)
	}
	return o, nil
}

// ShortcutOrder applies a one-step board transition. Unlike TransitionOrder it
// stamps every line: ready marks all lines ready, completed marks all lines
// delivered. Start records who picked the order up.
func (e *Engine) ShortcutOrder(ctx context.Context, id uuid.UUID, status, staffID string) (*Order, error) {
	if orderstatus.ByName(status) == nil {
		return nil, newError(KindInvalidStatus, fmt.Sprintf("unknown order status %q", status))
	}

	o, err := e.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	o.SetStatus(status, staffID)
	switch status {
	case orderstatus.Statuses.Preparing.Name:
		if staffID != "" {
			o.PreparedBy = staffID
		}
	case orderstatus.Statuses.Ready.Name:
		o.SetAllLines(linestatus.Statuses.Ready.Name)
	case orderstatus.Statuses.Completed.Name:
		o.SetAllLines(linestatus.Statuses.Delivered.Name)
	}

	o.BeforeUpdate()
	if err := e.orders.Save(ctx, o); err != nil {
		return nil, fmt.Errorf("cannot save order: %w", err)
	}

	e.notifier.OrderStatus(ctx, o.TableID, event.OrderStatusData{OrderID: o.ID, Status: o.Status})
	if status == orderstatus.Statuses.Completed.Name || status == orderstatus.Statuses.Cancelled.Name {
		e.recompute(ctx, o.BillingPeriodID)
	}
	return o, nil
}

// TransitionLine moves one line to the given preparation status and
// reconciles the order status from the resulting line mix.
func (e *Engine) TransitionLine(ctx context.Context, orderID, lineID uuid.UUID, status string) (*Order, error) {
	if linestatus.ByName(status) == nil {
		return nil, newError(KindInvalidStatus, fmt.Sprintf("unknown line status %q", status))
	}

	o, err := e.Get(ctx, orderID)
	if err != nil {
		return nil, err
	}

	line := o.LineByID(lineID)
	if line == nil {
		return nil, newError(KindLineNotFound, "order line not found")
	}
	line.Status = status

	derived := DeriveOrderStatus(o.LineStatuses(), o.Status)
	orderMoved := derived != o.Status
	if orderMoved {
		o.SetStatus(derived, "")
	}

	o.BeforeUpdate()
	if err := e.orders.Save(ctx, o); err != nil {
		return nil, fmt.Errorf("cannot save order: %w", err)
	}

	e.notifier.LineStatus(ctx, o.TableID, event.LineStatusData{OrderID: o.ID, LineID: line.ID, Status: line.Status})
	if orderMoved {
		e.notifier.OrderStatus(ctx, o.TableID, event.OrderStatusData{OrderID: o.ID, Status: o.Status})
		if o.Status == orderstatus.Statuses.Completed.Name {
			e.recompute(ctx, o.BillingPeriodID)
		}
	}
	return o, nil
}
