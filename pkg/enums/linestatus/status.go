package linestatus

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
	Preparing Status
	Ready     Status
	Delivered Status
}

var Statuses = Enum{
	Pending:   Status{Name: "pending"},
	Preparing: Status{Name: "preparing"},
	Ready:     Status{Name: "ready"},
	Delivered: Status{Name: "delivered"},
}

var All = []Status{
	Statuses.Pending,
	Statuses.Preparing,
	Statuses.Ready,
	Statuses.Delivered,
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
