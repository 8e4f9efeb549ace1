package handlers

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"

	"posledger/internal/domain/sales"
	"posledger/internal/infrastructure/http/v1/dto"
)

// SaleRegistrar registers sales.
type SaleRegistrar interface {
	Register(ctx context.Context, p sales.ProposedSale) (*sales.Sale, error)
}

// SaleQueries reads committed sales.
type SaleQueries interface {
	History(ctx context.Context, f sales.HistoryFilter) ([]*sales.Sale, error)
	Report(ctx context.Context, from, to time.Time) ([]sales.ReportLine, error)
}

// SaleHandler handles sale endpoints.
type SaleHandler struct {
	*BaseHandler
	registrar SaleRegistrar
	queries   SaleQueries
}

// NewSaleHandler creates a sale handler.
func NewSaleHandler(base *BaseHandler, registrar SaleRegistrar, queries SaleQueries) *SaleHandler {
	return &SaleHandler{BaseHandler: base, registrar: registrar, queries: queries}
}

// Create registers a sale.
// POST /api/v1/sales
func (h *SaleHandler) Create(c *gin.Context) {
	var req dto.CreateSaleRequest
	if !h.BindJSON(c, &req) {
		return
	}

	sale, err := h.registrar.Register(c.Request.Context(), req.ToProposed())
	if err != nil {
		h.Error(c, err)
		return
	}

	h.Created(c, dto.FromSale(sale))
}

// History lists sales by document number or date range.
// GET /api/v1/sales/history?searchBy=number&number=0008
// GET /api/v1/sales/history?searchBy=date&from=01/03/2026&to=07/03/2026
func (h *SaleHandler) History(c *gin.Context) {
	var q dto.HistoryQuery
	if !h.BindQuery(c, &q) {
		return
	}
	filter, err := q.ToFilter()
	if err != nil {
		h.Error(c, err)
		return
	}

	items, err := h.queries.History(c.Request.Context(), filter)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.NewListResponse(dto.FromSales(items)))
}

// Report returns one row per sold line.
// GET /api/v1/sales/report?from=01/03/2026&to=07/03/2026
func (h *SaleHandler) Report(c *gin.Context) {
	var q dto.ReportQuery
	if !h.BindQuery(c, &q) {
		return
	}
	from, err := dto.ParseDate("from", q.From)
	if err != nil {
		h.Error(c, err)
		return
	}
	to, err := dto.ParseDate("to", q.To)
	if err != nil {
		h.Error(c, err)
		return
	}

	rows, err := h.queries.Report(c.Request.Context(), from, to)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.NewListResponse(dto.FromReportLines(rows)))
}
