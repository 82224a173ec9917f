package repository

import "github.com/google/uuid"

// CatalogPrice is a sellable vehicle model with its cash price. The model
// string is the lookup key used by financing resolution; normalization
// happens at lookup time, the stored value keeps its display casing.
type CatalogPrice struct {
	ID        uuid.UUID
	Model     string
	CashPrice float64
	Active    bool
	CreatedAt string
	UpdatedAt string
}

// CreatePriceParams holds the fields for inserting a catalog price.
type CreatePriceParams struct {
	Model     string
	CashPrice float64
}

// UpdatePriceParams holds optional fields for updating a catalog price.
// Nil fields keep their current value.
type UpdatePriceParams struct {
	ID        uuid.UUID
	Model     *string
	CashPrice *float64
	Active    *bool
}
