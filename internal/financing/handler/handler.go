package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"dealer_ops_backend/internal/financing/service"
	"dealer_ops_backend/internal/financing/transport"
	"dealer_ops_backend/platform/apperr"
	"dealer_ops_backend/platform/httpkit"
	"dealer_ops_backend/platform/validator"
)

// Handler handles HTTP requests for financing.
type Handler struct {
	svc *service.Service
	val *validator.Validator
}

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"
	msgInvalidID        = "invalid financing id"
)

// New creates a new financing handler.
func New(svc *service.Service, val *validator.Validator) *Handler {
	return &Handler{svc: svc, val: val}
}

// Calculate resolves a financing request into a quote. The response shape
// is the simulator envelope: success flag, quote data, machine-stable error
// code and human message. Every expected resolution failure maps to 400.
// POST /api/v1/financing/calculate
func (h *Handler) Calculate(c *gin.Context) {
	var req transport.CalculateFinancingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, transport.CalculateFinancingResponse{
			Success: false,
			Error:   service.CodeMissingField,
			Message: msgInvalidRequest,
		})
		return
	}
	if err := h.val.Struct(req); err != nil {
		c.JSON(http.StatusBadRequest, transport.CalculateFinancingResponse{
			Success: false,
			Error:   service.CodeMissingField,
			Message: err.Error(),
		})
		return
	}

	quote, err := h.svc.Calculate(c.Request.Context(), req)
	if err != nil {
		if appErr, ok := err.(*apperr.Error); ok {
			c.JSON(appErr.HTTPStatus(), transport.CalculateFinancingResponse{
				Success: false,
				Error:   appErr.Code,
				Message: appErr.Message,
			})
			return
		}
		c.JSON(http.StatusInternalServerError, transport.CalculateFinancingResponse{
			Success: false,
			Error:   "INTERNAL",
			Message: "internal server error",
		})
		return
	}

	c.JSON(http.StatusOK, transport.CalculateFinancingResponse{
		Success: true,
		Data:    &quote,
	})
}

// ListTypes retrieves active financing types, optionally with campaigns.
// GET /api/v1/financing/types
func (h *Handler) ListTypes(c *gin.Context) {
	var req transport.ListFinancingTypesRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	result, err := h.svc.ListTypes(c.Request.Context(), req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// ListQuotesByLead retrieves the quote audit log for a lead.
// GET /api/v1/financing/quotes/lead/:leadId
func (h *Handler) ListQuotesByLead(c *gin.Context) {
	leadID, err := uuid.Parse(c.Param("leadId"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid lead id", nil)
		return
	}

	result, err := h.svc.ListQuotesByLead(c.Request.Context(), leadID)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// ListRules retrieves all financing rules including inactive ones.
// GET /api/v1/admin/financing/rules
func (h *Handler) ListRules(c *gin.Context) {
	result, err := h.svc.ListRules(c.Request.Context())
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// CreateRule creates a new financing rule.
// POST /api/v1/admin/financing/rules
func (h *Handler) CreateRule(c *gin.Context) {
	var req transport.CreateRuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	result, err := h.svc.CreateRule(c.Request.Context(), req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.JSON(c, http.StatusCreated, result)
}

// UpdateRule updates an existing financing rule.
// PUT /api/v1/admin/financing/rules/:id
func (h *Handler) UpdateRule(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidID, nil)
		return
	}
	var req transport.UpdateRuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	result, err := h.svc.UpdateRule(c.Request.Context(), id, req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// DeactivateRule soft-deactivates a financing rule.
// DELETE /api/v1/admin/financing/rules/:id
func (h *Handler) DeactivateRule(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidID, nil)
		return
	}

	if err := h.svc.DeactivateRule(c.Request.Context(), id); httpkit.HandleError(c, err) {
		return
	}
	c.Status(http.StatusNoContent)
}

// ListCampaigns retrieves all campaigns including expired and inactive ones.
// GET /api/v1/admin/financing/campaigns
func (h *Handler) ListCampaigns(c *gin.Context) {
	result, err := h.svc.ListCampaigns(c.Request.Context())
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// CreateCampaign creates a new financing campaign.
// POST /api/v1/admin/financing/campaigns
func (h *Handler) CreateCampaign(c *gin.Context) {
	var req transport.CreateCampaignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	result, err := h.svc.CreateCampaign(c.Request.Context(), req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.JSON(c, http.StatusCreated, result)
}

// UpdateCampaign updates an existing campaign.
// PUT /api/v1/admin/financing/campaigns/:id
func (h *Handler) UpdateCampaign(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidID, nil)
		return
	}
	var req transport.UpdateCampaignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	result, err := h.svc.UpdateCampaign(c.Request.Context(), id, req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// DeactivateCampaign soft-deactivates a campaign.
// DELETE /api/v1/admin/financing/campaigns/:id
func (h *Handler) DeactivateCampaign(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidID, nil)
		return
	}

	if err := h.svc.DeactivateCampaign(c.Request.Context(), id); httpkit.HandleError(c, err) {
		return
	}
	c.Status(http.StatusNoContent)
}
