package billing

import "errors"

// ErrPeriodNotFound marks a lookup miss so transports can answer 404 instead
// of treating the failure as an infrastructure error.
var ErrPeriodNotFound = errors.New("billing period not found")
