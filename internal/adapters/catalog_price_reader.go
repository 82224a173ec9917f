// Package adapters wires modules together without introducing direct
// dependencies between their service layers.
package adapters

import (
	"context"

	catalogservice "dealer_ops_backend/internal/catalog/service"
	financingservice "dealer_ops_backend/internal/financing/service"
)

// CatalogPriceReader exposes the catalog's active prices to the financing
// resolver in its own input shape.
type CatalogPriceReader struct {
	svc *catalogservice.Service
}

func NewCatalogPriceReader(svc *catalogservice.Service) *CatalogPriceReader {
	return &CatalogPriceReader{svc: svc}
}

func (a *CatalogPriceReader) ListActivePrices(ctx context.Context) ([]financingservice.CatalogPrice, error) {
	records, err := a.svc.ActivePrices(ctx)
	if err != nil {
		return nil, err
	}
	prices := make([]financingservice.CatalogPrice, 0, len(records))
	for _, record := range records {
		prices = append(prices, financingservice.CatalogPrice{
			Model:     record.Model,
			CashPrice: record.CashPrice,
			Active:    record.Active,
		})
	}
	return prices, nil
}

// Compile-time check against the financing module's reader contract.
var _ financingservice.CatalogReader = (*CatalogPriceReader)(nil)
