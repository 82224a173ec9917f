// Package leads provides the leads bounded context module: lead intake and
// management, qualification scoring, timeline, and follow-ups.
package leads

import (
	"dealer_ops_backend/internal/events"
	apphttp "dealer_ops_backend/internal/http"
	"dealer_ops_backend/internal/leads/handler"
	"dealer_ops_backend/internal/leads/repository"
	"dealer_ops_backend/internal/leads/service"
	"dealer_ops_backend/platform/logger"
	"dealer_ops_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the leads bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
	repo    repository.Repository
}

// NewModule creates and initializes the leads module.
func NewModule(pool *pgxpool.Pool, bus events.Bus, val *validator.Validator, log *logger.Logger) *Module {
	repo := repository.New(pool)
	svc := service.New(repo, bus, log)
	h := handler.New(svc, val)

	return &Module{
		handler: h,
		service: svc,
		repo:    repo,
	}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "leads"
}

// Service returns the service layer for external use.
func (m *Module) Service() *service.Service {
	return m.service
}

// Repository returns the repository for direct access if needed.
func (m *Module) Repository() repository.Repository {
	return m.repo
}

// RegisterRoutes mounts leads routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	ctx.Protected.POST("/leads", m.handler.Create)
	ctx.Protected.GET("/leads", m.handler.List)
	ctx.Protected.GET("/leads/:id", m.handler.Get)
	ctx.Protected.PUT("/leads/:id", m.handler.Update)
	ctx.Protected.PUT("/leads/:id/preferences", m.handler.UpdatePreferences)
	ctx.Protected.POST("/leads/:id/interactions", m.handler.LogInteraction)
	ctx.Protected.POST("/leads/:id/follow-ups", m.handler.ScheduleFollowUp)
	ctx.Protected.GET("/leads/:id/follow-ups", m.handler.ListFollowUps)
	ctx.Protected.GET("/leads/:id/timeline", m.handler.Timeline)
	ctx.Protected.POST("/follow-ups/:fid/complete", m.handler.CompleteFollowUp)
}
