package order

import "errors"

// Failure kinds let transports map domain rejections onto response codes
// without string-matching messages.
const (
	KindTableNotFound        = "table_not_found"
	KindTableInactive        = "table_inactive"
	KindOrderingClosed       = "ordering_closed"
	KindEmptyOrder           = "empty_order"
	KindInvalidCustomer      = "invalid_customer"
	KindItemUnavailable      = "item_unavailable"
	KindInvalidCustomization = "invalid_customization"
	KindOrderNotFound        = "order_not_found"
	KindLineNotFound         = "line_not_found"
	KindInvalidStatus        = "invalid_status"
)

// Error is a domain rejection with a machine-readable kind.
type Error struct {
	Kind    string
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

func newError(kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// AsError unwraps a domain rejection from an error chain.
func AsError(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// NotFound reports whether the kind denotes a missing resource rather than a
// rejected request.
func NotFound(kind string) bool {
	switch kind {
	case KindTableNotFound, KindOrderNotFound, KindLineNotFound:
		return true
	}
	return false
}
