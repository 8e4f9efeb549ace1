package handlers

import (
	"context"
	"strconv"

	"github.com/gin-gonic/gin"

	"posledger/internal/core/apperror"
	"posledger/internal/domain/sales"
	"posledger/internal/infrastructure/http/v1/dto"
)

// SaleAuditTrail reads the audit log written when sales commit.
type SaleAuditTrail interface {
	SaleAudit(ctx context.Context, saleID int64, limit int) ([]sales.AuditRecord, error)
}

// AuditHandler serves the audit trail of a sale.
type AuditHandler struct {
	*BaseHandler
	trail SaleAuditTrail
}

// NewAuditHandler creates an audit handler.
func NewAuditHandler(base *BaseHandler, trail SaleAuditTrail) *AuditHandler {
	return &AuditHandler{BaseHandler: base, trail: trail}
}

// SaleAudit lists audit entries for one sale, newest first.
// GET /api/v1/sales/:id/audit?limit=50
func (h *AuditHandler) SaleAudit(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		h.Error(c, apperror.NewValidation("sale id must be a positive integer").WithDetail("id", c.Param("id")))
		return
	}

	var q dto.AuditQuery
	if !h.BindQuery(c, &q) {
		return
	}
	if q.Limit == 0 {
		q.Limit = dto.DefaultAuditLimit
	}

	records, err := h.trail.SaleAudit(c.Request.Context(), id, q.Limit)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.NewListResponse(dto.FromAuditRecords(records)))
}
