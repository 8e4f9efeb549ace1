// Package sales registers sales and answers history queries over them.
package sales

import (
	"encoding/json"
	"fmt"
	"time"

	"posledger/internal/core/apperror"
	"posledger/internal/core/types"
	"posledger/internal/domain/registers/stock"
)

// DateLayout is the calendar date format used in history filters and
// dashboard series (dd/MM/yyyy).
const DateLayout = "02/01/2006"

// ProposedLine is one client-supplied line of a sale.
type ProposedLine struct {
	ProductID int64
	Quantity  int64
	UnitPrice types.Money
}

// ProposedSale is what a caller may submit. Identifier, document number,
// totals and timestamp are always assigned by the registrar.
type ProposedSale struct {
	PaymentType string
	Lines       []ProposedLine
}

// Validate checks the proposal without touching the store.
func (p ProposedSale) Validate() error {
	if len(p.Lines) == 0 {
		return apperror.NewValidation("sale must have at least one line")
	}
	if err := stock.Validate(p.movements()); err != nil {
		return err
	}
	for i, l := range p.Lines {
		if l.UnitPrice.IsNegative() {
			return apperror.NewValidation(fmt.Sprintf("line %d: unit price must not be negative", i+1)).
				WithDetail("line", i+1)
		}
		if !types.IsCurrencyScale(l.UnitPrice) {
			return apperror.NewValidation(fmt.Sprintf("line %d: unit price has more than %d decimals", i+1, types.MoneyScale)).
				WithDetail("line", i+1)
		}
	}
	return nil
}

func (p ProposedSale) movements() []stock.Movement {
	out := make([]stock.Movement, len(p.Lines))
	for i, l := range p.Lines {
		out[i] = stock.Movement{ProductID: l.ProductID, Quantity: l.Quantity}
	}
	return out
}

// Sale is a registered sale header with its lines. Immutable once stored.
type Sale struct {
	ID             int64       `db:"id" json:"id"`
	DocumentNumber string      `db:"document_number" json:"documentNumber"`
	PaymentType    string      `db:"payment_type" json:"paymentType"`
	Total          types.Money `db:"total" json:"total"`
	RegisteredAt   time.Time   `db:"registered_at" json:"registeredAt"`
	Lines          []SaleLine  `db:"-" json:"lines"`
}

// SaleLine is one product sold within a sale, priced at registration time.
type SaleLine struct {
	ID          int64       `db:"id" json:"id"`
	SaleID      int64       `db:"sale_id" json:"saleId"`
	LineNo      int         `db:"line_no" json:"lineNo"`
	ProductID   int64       `db:"product_id" json:"productId"`
	ProductName string      `db:"product_name" json:"productName,omitempty"`
	Quantity    int64       `db:"quantity" json:"quantity"`
	UnitPrice   types.Money `db:"unit_price" json:"unitPrice"`
	Subtotal    types.Money `db:"subtotal" json:"subtotal"`
}

// NewSale builds the aggregate for a validated proposal: each line's subtotal
// is quantity * unit price and the total is their sum.
func NewSale(number string, p ProposedSale, at time.Time) *Sale {
	s := &Sale{
		DocumentNumber: number,
		PaymentType:    p.PaymentType,
		RegisteredAt:   at,
		Lines:          make([]SaleLine, len(p.Lines)),
	}

	subtotals := make([]types.Money, len(p.Lines))
	for i, l := range p.Lines {
		subtotals[i] = types.LineAmount(l.Quantity, l.UnitPrice)
		s.Lines[i] = SaleLine{
			LineNo:    i + 1,
			ProductID: l.ProductID,
			Quantity:  l.Quantity,
			UnitPrice: l.UnitPrice,
			Subtotal:  subtotals[i],
		}
	}
	s.Total = types.Sum(subtotals...)

	return s
}

// ReportLine is one sold line joined with its sale header.
type ReportLine struct {
	SaleID         int64       `db:"sale_id" json:"saleId"`
	DocumentNumber string      `db:"document_number" json:"documentNumber"`
	RegisteredAt   time.Time   `db:"registered_at" json:"registeredAt"`
	PaymentType    string      `db:"payment_type" json:"paymentType"`
	SaleTotal      types.Money `db:"sale_total" json:"saleTotal"`
	ProductID      int64       `db:"product_id" json:"productId"`
	ProductName    string      `db:"product_name" json:"productName"`
	Quantity       int64       `db:"quantity" json:"quantity"`
	UnitPrice      types.Money `db:"unit_price" json:"unitPrice"`
	Subtotal       types.Money `db:"subtotal" json:"subtotal"`
}

// Event types published for sales.
const (
	AggregateType       = "Sale"
	EventSaleRegistered = "SaleRegistered"
)

// AuditRecord is one audit log entry written for a sale. Snapshot is the
// sale as it was committed.
type AuditRecord struct {
	Action    string
	RequestID string
	Snapshot  json.RawMessage
	At        time.Time
}
