package postgres

import (
	"context"
	"strconv"
	"time"

	"posledger/internal/domain"
	"posledger/internal/domain/sales"
)

// SaleRegisteredPayload is the outbox body for sales.EventSaleRegistered.
type SaleRegisteredPayload struct {
	SaleID         int64     `json:"saleId"`
	DocumentNumber string    `json:"documentNumber"`
	PaymentType    string    `json:"paymentType"`
	Total          string    `json:"total"`
	RegisteredAt   time.Time `json:"registeredAt"`
	Lines          int       `json:"lines"`
}

// SaleRegisteredEvent builds the outbox event for a stored sale.
func SaleRegisteredEvent(s *sales.Sale) DomainEvent {
	return DomainEvent{
		AggregateType: sales.AggregateType,
		AggregateID:   strconv.FormatInt(s.ID, 10),
		EventType:     sales.EventSaleRegistered,
		Payload: SaleRegisteredPayload{
			SaleID:         s.ID,
			DocumentNumber: s.DocumentNumber,
			PaymentType:    s.PaymentType,
			Total:          s.Total.StringFixed(2),
			RegisteredAt:   s.RegisteredAt,
			Lines:          len(s.Lines),
		},
	}
}

// RegisterSaleHooks attaches the outbox event and the audit record to every
// sale registration. Both writes share the registration transaction.
func RegisterSaleHooks(hooks *domain.HookRegistry[*sales.Sale], outbox *OutboxPublisher, audit *AuditService) {
	if outbox != nil {
		hooks.OnAfterCreate(func(ctx context.Context, s *sales.Sale) error {
			return outbox.Publish(ctx, SaleRegisteredEvent(s))
		})
	}
	if audit != nil {
		hooks.OnAfterCreate(func(ctx context.Context, s *sales.Sale) error {
			return audit.LogSnapshot(ctx, sales.AggregateType, strconv.FormatInt(s.ID, 10), AuditActionCreate, s)
		})
	}
}
