package catalog

import (
	"context"

	"github.com/google/uuid"
)

type OfferingRepo interface {
	Create(ctx context.Context, offering *Offering) error
	Get(ctx context.Context, id uuid.UUID) (*Offering, error)
	List(ctx context.Context) ([]*Offering, error)
	ListAvailable(ctx context.Context) ([]*Offering, error)
	Save(ctx context.Context, offering *Offering) error
}
