package orderstatus

import (
	"strings"
)

type Status struct {
	Name string
}

func (s Status) Code() string {
	return s.Name
}

func (s Status) Label() string {
	parts := strings.Split(s.Name, "-")
	for i := range parts {
		if len(parts[i]) > 0 {
			parts[i] = strings.ToUpper(parts[i][:1]) + parts[i][1:]
		}
	}
	return strings.Join(parts, " ")
}

type Enum struct {
	Pending   Status
	Confirmed Status
	Preparing Status
	Ready     Status
	Completed Status
	Cancelled Status
}

var Statuses = Enum{
	Pending:   Status{Name: "pending"},
	Confirmed: Status{Name: "confirmed"},
	Preparing: Status{Name: "preparing"},
	Ready:     Status{Name: "ready"},
	Completed: Status{Name: "completed"},
	Cancelled: Status{Name: "cancelled"},
}

var All = []Status{
	Statuses.Pending,
	Statuses.Confirmed,
	Statuses.Preparing,
	Statuses.Ready,
	Statuses.Completed,
	Statuses.Cancelled,
}

// ByName returns the status for a given name, or nil if not found
func ByName(name string) *Status {
	for _, s := range All {
		if s.Name == name {
			return &s
		}
	}
	return nil
}

// Terminal reports whether a status admits no further transitions.
func Terminal(name string) bool {
	return name == Statuses.Completed.Name || name == Statuses.Cancelled.Name
}
