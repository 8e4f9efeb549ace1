package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"posledger/internal/domain/sales"
)

// --- Request DTOs ---

// CreateSaleLineRequest is one line of a sale registration.
type CreateSaleLineRequest struct {
	ProductID int64           `json:"productId"`
	Quantity  int64           `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
}

// CreateSaleRequest is the body of POST /sales. Number, total and timestamp
// are assigned by the server.
type CreateSaleRequest struct {
	PaymentType string                  `json:"paymentType" binding:"max=32"`
	Lines       []CreateSaleLineRequest `json:"lines"`
}

// ToProposed converts the request to the domain proposal.
func (r CreateSaleRequest) ToProposed() sales.ProposedSale {
	p := sales.ProposedSale{
		PaymentType: r.PaymentType,
		Lines:       make([]sales.ProposedLine, len(r.Lines)),
	}
	for i, l := range r.Lines {
		p.Lines[i] = sales.ProposedLine{
			ProductID: l.ProductID,
			Quantity:  l.Quantity,
			UnitPrice: l.UnitPrice,
		}
	}
	return p
}

// HistoryQuery is the query string of GET /sales/history.
type HistoryQuery struct {
	SearchBy string `form:"searchBy"`
	Number   string `form:"number"`
	From     string `form:"from"`
	To       string `form:"to"`
}

// ToFilter parses the dates when searching by date.
func (q HistoryQuery) ToFilter() (sales.HistoryFilter, error) {
	f := sales.HistoryFilter{SearchBy: q.SearchBy, Number: q.Number}
	if q.SearchBy != sales.SearchByDate {
		return f, nil
	}
	var err error
	if f.From, err = ParseDate("from", q.From); err != nil {
		return f, err
	}
	if f.To, err = ParseDate("to", q.To); err != nil {
		return f, err
	}
	return f, nil
}

// ReportQuery is the query string of GET /sales/report.
type ReportQuery struct {
	From string `form:"from"`
	To   string `form:"to"`
}

// --- Response DTOs ---

// SaleLineResponse is one line of a sale.
type SaleLineResponse struct {
	ID          int64  `json:"id"`
	LineNo      int    `json:"lineNo"`
	ProductID   int64  `json:"productId"`
	ProductName string `json:"productName,omitempty"`
	Quantity    int64  `json:"quantity"`
	UnitPrice   string `json:"unitPrice"`
	Subtotal    string `json:"subtotal"`
}

// SaleResponse is a registered sale.
type SaleResponse struct {
	ID             int64              `json:"id"`
	DocumentNumber string             `json:"documentNumber"`
	PaymentType    string             `json:"paymentType"`
	Total          string             `json:"total"`
	RegisteredAt   time.Time          `json:"registeredAt"`
	Date           string             `json:"date"`
	Lines          []SaleLineResponse `json:"lines"`
}

// FromSale converts a domain sale.
func FromSale(s *sales.Sale) SaleResponse {
	out := SaleResponse{
		ID:             s.ID,
		DocumentNumber: s.DocumentNumber,
		PaymentType:    s.PaymentType,
		Total:          Money(s.Total),
		RegisteredAt:   s.RegisteredAt,
		Date:           FormatDate(s.RegisteredAt),
		Lines:          make([]SaleLineResponse, len(s.Lines)),
	}
	for i, l := range s.Lines {
		out.Lines[i] = SaleLineResponse{
			ID:          l.ID,
			LineNo:      l.LineNo,
			ProductID:   l.ProductID,
			ProductName: l.ProductName,
			Quantity:    l.Quantity,
			UnitPrice:   Money(l.UnitPrice),
			Subtotal:    Money(l.Subtotal),
		}
	}
	return out
}

// FromSales converts a list of domain sales.
func FromSales(items []*sales.Sale) []SaleResponse {
	out := make([]SaleResponse, len(items))
	for i, s := range items {
		out[i] = FromSale(s)
	}
	return out
}

// ReportLineResponse is one row of the sales report.
type ReportLineResponse struct {
	SaleID         int64  `json:"saleId"`
	DocumentNumber string `json:"documentNumber"`
	Date           string `json:"date"`
	PaymentType    string `json:"paymentType"`
	ProductID      int64  `json:"productId"`
	ProductName    string `json:"productName"`
	Quantity       int64  `json:"quantity"`
	UnitPrice      string `json:"unitPrice"`
	Subtotal       string `json:"subtotal"`
	SaleTotal      string `json:"saleTotal"`
}

// FromReportLines converts report rows.
func FromReportLines(rows []sales.ReportLine) []ReportLineResponse {
	out := make([]ReportLineResponse, len(rows))
	for i, r := range rows {
		out[i] = ReportLineResponse{
			SaleID:         r.SaleID,
			DocumentNumber: r.DocumentNumber,
			Date:           FormatDate(r.RegisteredAt),
			PaymentType:    r.PaymentType,
			ProductID:      r.ProductID,
			ProductName:    r.ProductName,
			Quantity:       r.Quantity,
			UnitPrice:      Money(r.UnitPrice),
			Subtotal:       Money(r.Subtotal),
			SaleTotal:      Money(r.SaleTotal),
		}
	}
	return out
}
