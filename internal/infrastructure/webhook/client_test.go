package webhook

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"posledger/internal/infrastructure/storage/postgres"
)

func testMessage() *postgres.OutboxMessage {
	return &postgres.OutboxMessage{
		ID:            uuid.New(),
		AggregateType: "Sale",
		AggregateID:   "12",
		EventType:     "SaleRegistered",
		Payload:       []byte(`{"documentNumber":"0008","total":"25.00"}`),
		CreatedAt:     time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC),
	}
}

func TestClient_Handle(t *testing.T) {
	var (
		got     Envelope
		headers http.Header
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		headers = r.Header.Clone()
		raw, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(raw, &got)
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	msg := testMessage()
	err := NewClient(srv.URL, time.Second).Handle(context.Background(), msg)
	require.NoError(t, err)

	assert.Equal(t, msg.ID.String(), got.ID)
	assert.Equal(t, "SaleRegistered", headers.Get(HeaderEventType))
	assert.JSONEq(t, string(msg.Payload), string(got.Payload))
}

func TestClient_Handle_Non2xxFails(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte("upstream down"))
	}))
	defer srv.Close()

	err := NewClient(srv.URL, time.Second).Handle(context.Background(), testMessage())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status=502")
}
