package order

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/cafetab/cafetab/internal/billing"
	"github.com/cafetab/cafetab/internal/catalog"
	"github.com/cafetab/cafetab/internal/tables"
)

// ErrDuplicateKey is returned by Repo.Create when a uniqueness constraint on
// order_number or request_id rejects the insert. The engine arbitrates which
// constraint fired by re-reading.
var ErrDuplicateKey = errors.New("duplicate key")

// Repo is the order store. Lookups that miss return (nil, nil).
type Repo interface {
	Create(ctx context.Context, o *Order) error
	Get(ctx context.Context, id uuid.UUID) (*Order, error)
	GetByRequestID(ctx context.Context, requestID string) (*Order, error)
	Save(ctx context.Context, o *Order) error

	ListByTableAndPeriod(ctx context.Context, tableID, periodID uuid.UUID) ([]*Order, error)
	ListByPeriod(ctx context.Context, periodID uuid.UUID) ([]*Order, error)
	ListByPeriodAndStatuses(ctx context.Context, periodID uuid.UUID, statuses []string) ([]*Order, error)
	ListByPeriodSince(ctx context.Context, periodID uuid.UUID, since time.Time) ([]*Order, error)

	CountNumberPrefix(ctx context.Context, prefix string) (int64, error)
	NumberExists(ctx context.Context, number string) (bool, error)
	CountByPeriodAndStatuses(ctx context.Context, periodID uuid.UUID, statuses []string) (int64, error)
	CountByPeriodSince(ctx context.Context, periodID uuid.UUID, since time.Time) (int64, error)
	CountByPeriodStatusesSince(ctx context.Context, periodID uuid.UUID, statuses []string, since time.Time) (int64, error)
}

// OfferingGetter resolves menu offerings for line validation and pricing.
type OfferingGetter interface {
	Get(ctx context.Context, id uuid.UUID) (*catalog.Offering, error)
}

// TableGetter resolves tables by id or scan token.
type TableGetter interface {
	Get(ctx context.Context, id uuid.UUID) (*tables.Table, error)
	GetByToken(ctx context.Context, token string) (*tables.Table, error)
}

// PeriodGetter resolves billing periods for the ordering gate.
type PeriodGetter interface {
	Get(ctx context.Context, id uuid.UUID) (*billing.Period, error)
	GetActive(ctx context.Context) (*billing.Period, error)
}
