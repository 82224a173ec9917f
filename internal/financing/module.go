// Package financing provides the financing bounded context module:
// offer resolution (campaign vs standing rule), amortization, and the
// rule/campaign administration surface.
package financing

import (
	"dealer_ops_backend/internal/events"
	"dealer_ops_backend/internal/financing/handler"
	"dealer_ops_backend/internal/financing/repository"
	"dealer_ops_backend/internal/financing/service"
	apphttp "dealer_ops_backend/internal/http"
	"dealer_ops_backend/platform/cache"
	"dealer_ops_backend/platform/config"
	"dealer_ops_backend/platform/logger"
	"dealer_ops_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the financing bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
	repo    repository.Repository
}

// NewModule creates and initializes the financing module. The catalog
// reader comes from the catalog module; c may be nil to disable caching.
func NewModule(pool *pgxpool.Pool, catalog service.CatalogReader, c *cache.Cache, bus events.Bus, val *validator.Validator, cfg config.FinancingConfig, log *logger.Logger) *Module {
	repo := repository.New(pool)
	svc := service.New(repo, catalog, c, bus, cfg, log)
	h := handler.New(svc, val)

	return &Module{
		handler: h,
		service: svc,
		repo:    repo,
	}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "financing"
}

// Service returns the service layer for external use.
func (m *Module) Service() *service.Service {
	return m.service
}

// RegisterRoutes mounts financing routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	// Simulator endpoints
	ctx.Protected.POST("/financing/calculate", m.handler.Calculate)
	ctx.Protected.GET("/financing/types", m.handler.ListTypes)
	ctx.Protected.GET("/financing/quotes/lead/:leadId", m.handler.ListQuotesByLead)

	// Admin CRUD endpoints
	adminGroup := ctx.Admin.Group("/financing")
	adminGroup.GET("/rules", m.handler.ListRules)
	adminGroup.POST("/rules", m.handler.CreateRule)
	adminGroup.PUT("/rules/:id", m.handler.UpdateRule)
	adminGroup.DELETE("/rules/:id", m.handler.DeactivateRule)
	adminGroup.GET("/campaigns", m.handler.ListCampaigns)
	adminGroup.POST("/campaigns", m.handler.CreateCampaign)
	adminGroup.PUT("/campaigns/:id", m.handler.UpdateCampaign)
	adminGroup.DELETE("/campaigns/:id", m.handler.DeactivateCampaign)
}
