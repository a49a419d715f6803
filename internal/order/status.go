package order

import (
	"github.com/cafetab/cafetab/pkg/enums/linestatus"
	"github.com/cafetab/cafetab/pkg/enums/orderstatus"
)

// lineForOrder maps an order-level transition onto the single line of a
// one-line order. Cancelling parks the line back at pending: it was never
// prepared and there is no cancelled line status.
var lineForOrder = map[string]string{
	orderstatus.Statuses.Pending.Name:   linestatus.Statuses.Pending.Name,
	orderstatus.Statuses.Confirmed.Name: linestatus.Statuses.Pending.Name,
	orderstatus.Statuses.Preparing.Name: linestatus.Statuses.Preparing.Name,
	orderstatus.Statuses.Ready.Name:     linestatus.Statuses.Ready.Name,
	orderstatus.Statuses.Completed.Name: linestatus.Statuses.Delivered.Name,
	orderstatus.Statuses.Cancelled.Name: linestatus.Statuses.Pending.Name,
}

// orderForLine maps a line transition directly onto a one-line order.
var orderForLine = map[string]string{
	linestatus.Statuses.Pending.Name:   orderstatus.Statuses.Pending.Name,
	linestatus.Statuses.Preparing.Name: orderstatus.Statuses.Preparing.Name,
	linestatus.Statuses.Ready.Name:     orderstatus.Statuses.Ready.Name,
	linestatus.Statuses.Delivered.Name: orderstatus.Statuses.Completed.Name,
}

// LineStatusForOrder resolves the line status a one-line order's single line
// should take after an order-level transition. The second return is false when
// the line should be left as is.
func LineStatusForOrder(orderStatus string) (string, bool) {
	s, ok := lineForOrder[orderStatus]
	return s, ok
}

// DeriveOrderStatus reconciles an order's status from its line statuses.
//
// A one-line order tracks its line verbatim through the direct map, even when
// the order was already completed. Multi-line orders aggregate: once every
// line is ready or delivered the order collapses to ready (completion stays a
// staff decision), any preparing wins over the rest, and anything else holds
// at confirmed. A multi-line order already at a terminal status is never
// downgraded by line churn.
func DeriveOrderStatus(lineStatuses []string, currentStatus string) string {
	if len(lineStatuses) == 1 {
		if s, ok := orderForLine[lineStatuses[0]]; ok {
			return s
		}
		return currentStatus
	}

	if orderstatus.Terminal(currentStatus) {
		return currentStatus
	}

	allSettled := len(lineStatuses) > 0
	anyPreparing := false
	for _, s := range lineStatuses {
		switch s {
		case linestatus.Statuses.Ready.Name, linestatus.Statuses.Delivered.Name:
		case linestatus.Statuses.Preparing.Name:
			anyPreparing = true
			allSettled = false
		default:
			allSettled = false
		}
	}

	switch {
	case allSettled:
		return orderstatus.Statuses.Ready.Name
	case anyPreparing:
		return orderstatus.Statuses.Preparing.Name
	default:
		return orderstatus.Statuses.Confirmed.Name
	}
}
