// Package catalog provides the catalog bounded context module.
package catalog

import (
	"dealer_ops_backend/internal/catalog/handler"
	"dealer_ops_backend/internal/catalog/repository"
	"dealer_ops_backend/internal/catalog/service"
	apphttp "dealer_ops_backend/internal/http"
	"dealer_ops_backend/platform/logger"
	"dealer_ops_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the catalog bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
	repo    repository.Repository
}

// NewModule creates and initializes the catalog module.
func NewModule(pool *pgxpool.Pool, val *validator.Validator, log *logger.Logger) *Module {
	repo := repository.New(pool)
	svc := service.New(repo, log)
	h := handler.New(svc, val)

	return &Module{
		handler: h,
		service: svc,
		repo:    repo,
	}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "catalog"
}

// Service returns the service layer for external use.
func (m *Module) Service() *service.Service {
	return m.service
}

// RegisterRoutes mounts catalog routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	// Protected read-only endpoints
	ctx.Protected.GET("/catalog/prices", m.handler.ListPrices)
	ctx.Protected.GET("/catalog/prices/:id", m.handler.GetPrice)

	// Admin CRUD endpoints
	adminGroup := ctx.Admin.Group("/catalog")
	adminGroup.GET("/prices", m.handler.ListAllPrices)
	adminGroup.POST("/prices", m.handler.CreatePrice)
	adminGroup.PUT("/prices/:id", m.handler.UpdatePrice)
	adminGroup.DELETE("/prices/:id", m.handler.DeactivatePrice)
}
