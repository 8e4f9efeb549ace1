// Package webhook delivers outbox events to an HTTP endpoint.
package webhook

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"posledger/internal/infrastructure/storage/postgres"
)

// Headers sent with every delivery.
const (
	HeaderEventID   = "X-Event-ID"
	HeaderEventType = "X-Event-Type"
)

var _ postgres.OutboxHandler = (*Client)(nil)

// Envelope is the JSON body posted for each event.
type Envelope struct {
	ID            string          `json:"id"`
	EventType     string          `json:"eventType"`
	AggregateType string          `json:"aggregateType"`
	AggregateID   string          `json:"aggregateId"`
	OccurredAt    time.Time       `json:"occurredAt"`
	Payload       json.RawMessage `json:"payload"`
}

// Client is a resty-backed outbox handler.
type Client struct {
	httpClient *resty.Client
	url        string
}

// NewClient builds a webhook client posting to url.
func NewClient(url string, timeout time.Duration) *Client {
	restyClient := resty.New()
	restyClient.
		SetHeader("Content-Type", "application/json").
		SetTimeout(timeout)

	return &Client{
		httpClient: restyClient,
		url:        strings.TrimSpace(url),
	}
}

// Handle implements postgres.OutboxHandler. Any non-2xx answer is a failed
// delivery and leaves the message for retry.
func (c *Client) Handle(ctx context.Context, msg *postgres.OutboxMessage) error {
	body := Envelope{
		ID:            msg.ID.String(),
		EventType:     msg.EventType,
		AggregateType: msg.AggregateType,
		AggregateID:   msg.AggregateID,
		OccurredAt:    msg.CreatedAt,
		Payload:       json.RawMessage(msg.Payload),
	}

	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetHeader(HeaderEventID, body.ID).
		SetHeader(HeaderEventType, body.EventType).
		SetBody(body).
		Post(c.url)
	if err != nil {
		return fmt.Errorf("deliver %s: %w", msg.EventType, err)
	}

	if resp.StatusCode() < http.StatusOK || resp.StatusCode() >= http.StatusMultipleChoices {
		return fmt.Errorf("webhook error: status=%d, body=%s", resp.StatusCode(), truncate(resp.String(), 256))
	}
	return nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
