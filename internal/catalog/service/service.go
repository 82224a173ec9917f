// Package service implements catalog price management. The catalog is the
// source of truth for what models exist and what they cost in cash; the
// financing module reads it through a narrow adapter.
package service

import (
	"context"

	"dealer_ops_backend/internal/catalog/repository"
	"dealer_ops_backend/internal/catalog/transport"
	"dealer_ops_backend/platform/logger"
	"dealer_ops_backend/platform/money"

	"github.com/google/uuid"
)

// Service provides catalog price operations.
type Service struct {
	repo repository.Repository
	log  *logger.Logger
}

// New creates the catalog service.
func New(repo repository.Repository, log *logger.Logger) *Service {
	return &Service{repo: repo, log: log}
}

// ListActive returns the active catalog prices.
func (s *Service) ListActive(ctx context.Context) (transport.CatalogPriceListResponse, error) {
	prices, err := s.repo.ListActive(ctx)
	if err != nil {
		return transport.CatalogPriceListResponse{}, err
	}
	return toListResponse(prices), nil
}

// List returns every catalog price including deactivated ones.
func (s *Service) List(ctx context.Context) (transport.CatalogPriceListResponse, error) {
	prices, err := s.repo.List(ctx)
	if err != nil {
		return transport.CatalogPriceListResponse{}, err
	}
	return toListResponse(prices), nil
}

// Get fetches one catalog price.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (transport.CatalogPriceResponse, error) {
	price, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return transport.CatalogPriceResponse{}, err
	}
	return toResponse(price), nil
}

// Create adds a model with its cash price.
func (s *Service) Create(ctx context.Context, req transport.CreatePriceRequest) (transport.CatalogPriceResponse, error) {
	price, err := s.repo.Create(ctx, repository.CreatePriceParams{
		Model:     req.Model,
		CashPrice: req.CashPrice,
	})
	if err != nil {
		return transport.CatalogPriceResponse{}, err
	}
	return toResponse(price), nil
}

// Update applies a partial update to a catalog price.
func (s *Service) Update(ctx context.Context, id uuid.UUID, req transport.UpdatePriceRequest) (transport.CatalogPriceResponse, error) {
	price, err := s.repo.Update(ctx, repository.UpdatePriceParams{
		ID:        id,
		Model:     req.Model,
		CashPrice: req.CashPrice,
		Active:    req.Active,
	})
	if err != nil {
		return transport.CatalogPriceResponse{}, err
	}
	return toResponse(price), nil
}

// Deactivate soft-deactivates a catalog price.
func (s *Service) Deactivate(ctx context.Context, id uuid.UUID) error {
	return s.repo.Deactivate(ctx, id)
}

// ActivePrices returns the raw active records for cross-module readers.
func (s *Service) ActivePrices(ctx context.Context) ([]repository.CatalogPrice, error) {
	return s.repo.ListActive(ctx)
}

func toResponse(price repository.CatalogPrice) transport.CatalogPriceResponse {
	return transport.CatalogPriceResponse{
		ID:            price.ID,
		Model:         price.Model,
		CashPrice:     price.CashPrice,
		CashPriceText: money.Format(price.CashPrice),
		Active:        price.Active,
		CreatedAt:     price.CreatedAt,
		UpdatedAt:     price.UpdatedAt,
	}
}

func toListResponse(prices []repository.CatalogPrice) transport.CatalogPriceListResponse {
	items := make([]transport.CatalogPriceResponse, 0, len(prices))
	for _, price := range prices {
		items = append(items, toResponse(price))
	}
	return transport.CatalogPriceListResponse{Items: items}
}
