package repository

import (
	"context"

	"github.com/google/uuid"
)

// Repository defines the persistence operations for the catalog module.
type Repository interface {
	List(ctx context.Context) ([]CatalogPrice, error)
	ListActive(ctx context.Context) ([]CatalogPrice, error)
	GetByID(ctx context.Context, id uuid.UUID) (CatalogPrice, error)
	Create(ctx context.Context, params CreatePriceParams) (CatalogPrice, error)
	Update(ctx context.Context, params UpdatePriceParams) (CatalogPrice, error)
	Deactivate(ctx context.Context, id uuid.UUID) error
}
