package dto

import (
	"encoding/json"
	"time"

	"posledger/internal/domain/sales"
)

// AuditQuery is the query of GET /sales/:id/audit.
type AuditQuery struct {
	Limit int `form:"limit" binding:"omitempty,min=1,max=200"`
}

// DefaultAuditLimit applies when the query has no limit.
const DefaultAuditLimit = 50

// AuditEntryResponse is one audit entry of a sale.
type AuditEntryResponse struct {
	Action    string          `json:"action"`
	RequestID string          `json:"requestId,omitempty"`
	Snapshot  json.RawMessage `json:"snapshot,omitempty"`
	At        time.Time       `json:"at"`
}

// FromAuditRecords converts audit records.
func FromAuditRecords(records []sales.AuditRecord) []AuditEntryResponse {
	out := make([]AuditEntryResponse, len(records))
	for i, r := range records {
		out[i] = AuditEntryResponse{
			Action:    r.Action,
			RequestID: r.RequestID,
			Snapshot:  r.Snapshot,
			At:        r.At,
		}
	}
	return out
}
