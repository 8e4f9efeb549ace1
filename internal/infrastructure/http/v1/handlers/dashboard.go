package handlers

import (
	"context"

	"github.com/gin-gonic/gin"

	"posledger/internal/domain/dashboard"
	"posledger/internal/infrastructure/http/v1/dto"
)

// SummaryProvider builds the dashboard summary.
type SummaryProvider interface {
	Summary(ctx context.Context) (*dashboard.Summary, error)
}

// DashboardHandler handles dashboard endpoints.
type DashboardHandler struct {
	*BaseHandler
	summary SummaryProvider
}

// NewDashboardHandler creates a dashboard handler.
func NewDashboardHandler(base *BaseHandler, summary SummaryProvider) *DashboardHandler {
	return &DashboardHandler{BaseHandler: base, summary: summary}
}

// Summary returns weekly sales, revenue and catalog size.
// GET /api/v1/dashboard/summary
func (h *DashboardHandler) Summary(c *gin.Context) {
	s, err := h.summary.Summary(c.Request.Context())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.FromSummary(s))
}
