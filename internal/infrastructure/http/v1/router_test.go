package v1

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"posledger/internal/core/apperror"
	corenumerator "posledger/internal/core/numerator"
	"posledger/internal/core/types"
	"posledger/internal/domain/catalog"
	"posledger/internal/domain/dashboard"
	"posledger/internal/domain/registers/stock"
	"posledger/internal/domain/sales"
	"posledger/internal/infrastructure/http/v1/handlers"
	"posledger/internal/infrastructure/http/v1/middleware"
	"posledger/internal/infrastructure/metrics"
	"posledger/internal/infrastructure/numerator"
	"posledger/internal/infrastructure/storage/memory"
	"posledger/internal/infrastructure/storage/postgres"
	"posledger/pkg/logger"
)

var testNow = time.Date(2026, 3, 5, 14, 0, 0, 0, time.UTC)

type testServer struct {
	store     *memory.Store
	registrar *sales.Registrar
	metrics   *metrics.Metrics
	router    http.Handler
}

func newTestServer(t *testing.T, idem middleware.IdempotencyStore) *testServer {
	t.Helper()

	st := memory.New()
	err := st.RunInTransaction(context.Background(), func(ctx context.Context) error {
		if err := st.Counter().Reset(ctx, 7); err != nil {
			return err
		}
		for _, name := range []string{"Cola", "Bread"} {
			if err := st.Products().Create(ctx, &catalog.Product{Name: name, Stock: 10, Price: types.MustMoney("1.00")}); err != nil {
				return err
			}
		}
		return nil
	})
	require.NoError(t, err)

	gen := numerator.New(st.Counter(), corenumerator.DefaultConfig())
	reg := sales.NewRegistrar(sales.RegistrarConfig{
		TxManager: st,
		Stock:     stock.NewService(st.Products(), stock.RejectNegative),
		Numerator: gen,
		Repo:      st.Sales(),
		Clock:     func() time.Time { return testNow },
	})

	m := metrics.New()
	router := NewRouter(RouterConfig{
		Logger:    logger.Nop(),
		Registrar: m.InstrumentRegistrar(reg),
		Queries:   sales.NewQueryService(st.Sales(), sales.WithNumberFormat(gen.Valid)),
		Dashboard: dashboard.NewService(st.Dashboard()),
		Storage:   "memory",
		HealthChecks: map[string]handlers.HealthCheck{
			"sequence": gen.Verify,
		},
		Idempotency: idem,
		Metrics:     m,
	})
	return &testServer{store: st, registrar: reg, metrics: m, router: router}
}

func (s *testServer) do(t *testing.T, method, path string, body any, headers ...string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

var validSale = map[string]any{
	"paymentType": "cash",
	"lines": []map[string]any{
		{"productId": 1, "quantity": 2, "unitPrice": "10.00"},
		{"productId": 2, "quantity": 1, "unitPrice": 5},
	},
}

func TestCreateSale(t *testing.T) {
	s := newTestServer(t, nil)

	rec := s.do(t, http.MethodPost, "/api/v1/sales", validSale, middleware.HeaderRequestID, "req-1")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, "req-1", rec.Header().Get(middleware.HeaderRequestID))

	body := decode[map[string]any](t, rec)
	assert.Equal(t, "0008", body["documentNumber"])
	assert.Equal(t, "25.00", body["total"])
	assert.Equal(t, "05/03/2026", body["date"])
	assert.Len(t, body["lines"], 2)
}

func TestCreateSale_Errors(t *testing.T) {
	tests := []struct {
		name   string
		body   any
		status int
		code   string
	}{
		{
			name:   "zero quantity",
			body:   map[string]any{"lines": []map[string]any{{"productId": 1, "quantity": 0, "unitPrice": "1"}}},
			status: http.StatusBadRequest,
			code:   apperror.CodeValidation,
		},
		{
			name:   "unknown product",
			body:   map[string]any{"lines": []map[string]any{{"productId": 99, "quantity": 1, "unitPrice": "1"}}},
			status: http.StatusNotFound,
			code:   apperror.CodeNotFound,
		},
		{
			name:   "insufficient stock",
			body:   map[string]any{"lines": []map[string]any{{"productId": 1, "quantity": 11, "unitPrice": "1"}}},
			status: http.StatusUnprocessableEntity,
			code:   apperror.CodeInsufficientStock,
		},
		{
			name:   "malformed body",
			body:   "not an object",
			status: http.StatusBadRequest,
			code:   apperror.CodeValidation,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestServer(t, nil)
			before := s.store.Snapshot()

			rec := s.do(t, http.MethodPost, "/api/v1/sales", tt.body)
			assert.Equal(t, tt.status, rec.Code)
			assert.Equal(t, tt.code, decode[map[string]any](t, rec)["code"])
			assert.Equal(t, before, s.store.Snapshot())
		})
	}
}

func TestHistoryAndReport(t *testing.T) {
	s := newTestServer(t, nil)
	require.Equal(t, http.StatusCreated, s.do(t, http.MethodPost, "/api/v1/sales", validSale).Code)

	rec := s.do(t, http.MethodGet, "/api/v1/sales/history?searchBy=number&number=0008", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	list := decode[map[string]any](t, rec)
	assert.EqualValues(t, 1, list["count"])

	rec = s.do(t, http.MethodGet, "/api/v1/sales/history?searchBy=number&number=0009", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 0, decode[map[string]any](t, rec)["count"])

	rec = s.do(t, http.MethodGet, "/api/v1/sales/history?searchBy=number&number=00x8", nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, apperror.CodeValidation, decode[map[string]any](t, rec)["code"])

	rec = s.do(t, http.MethodGet, "/api/v1/sales/history?searchBy=date&from=01/03/2026&to=05/03/2026", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 1, decode[map[string]any](t, rec)["count"])

	rec = s.do(t, http.MethodGet, "/api/v1/sales/history?searchBy=date&from=2026-03-01&to=05/03/2026", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, http.MethodGet, "/api/v1/sales/history?searchBy=client", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, http.MethodGet, "/api/v1/sales/report?from=05/03/2026&to=05/03/2026", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	report := decode[map[string]any](t, rec)
	assert.EqualValues(t, 2, report["count"])
	first := report["items"].([]any)[0].(map[string]any)
	assert.Equal(t, "Cola", first["productName"])
	assert.Equal(t, "25.00", first["saleTotal"])
}

func TestDashboardSummary(t *testing.T) {
	s := newTestServer(t, nil)
	require.Equal(t, http.StatusCreated, s.do(t, http.MethodPost, "/api/v1/sales", validSale).Code)

	rec := s.do(t, http.MethodGet, "/api/v1/dashboard/summary", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	body := decode[map[string]any](t, rec)
	assert.EqualValues(t, 1, body["totalSales"])
	assert.Equal(t, "25.00", body["totalRevenue"])
	assert.EqualValues(t, 2, body["totalProducts"])
	assert.Equal(t, []any{map[string]any{"date": "05/03/2026", "total": float64(1)}}, body["salesLastWeek"])
}

func TestHealth(t *testing.T) {
	s := newTestServer(t, nil)

	assert.Equal(t, http.StatusOK, s.do(t, http.MethodGet, "/health/live", nil).Code)
	assert.Equal(t, http.StatusOK, s.do(t, http.MethodGet, "/health/ready", nil).Code)

	broken := NewRouter(RouterConfig{
		Logger: logger.Nop(),
		HealthChecks: map[string]handlers.HealthCheck{
			"sequence": func(context.Context) error { return apperror.NewSequenceMissing() },
		},
	})
	rec := httptest.NewRecorder()
	broken.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestRecovery(t *testing.T) {
	s := newTestServer(t, nil)
	s.registrar.Hooks().OnAfterCreate(func(context.Context, *sales.Sale) error { panic("boom") })
	before := s.store.Snapshot()

	rec := s.do(t, http.MethodPost, "/api/v1/sales", validSale)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, apperror.CodeInternal, decode[map[string]any](t, rec)["code"])
	assert.Equal(t, before, s.store.Snapshot())
}

// fakeIdempotency keeps keys in memory with the same replay rules as the
// Postgres store.
type fakeIdempotency struct {
	mu      sync.Mutex
	entries map[string]*fakeEntry
}

type fakeEntry struct {
	hash   string
	done   bool
	replay postgres.IdempotencyReplay
}

func (f *fakeIdempotency) AcquireKey(_ context.Context, key, operation, hash string) (*postgres.IdempotencyReplay, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	e, ok := f.entries[key]
	if !ok {
		f.entries[key] = &fakeEntry{hash: operation + hash}
		return nil, nil
	}
	if e.hash != operation+hash {
		return nil, apperror.NewIdempotencyMismatch(key)
	}
	if !e.done {
		return nil, apperror.NewIdempotencyConflict(key)
	}
	r := e.replay
	return &r, nil
}

func (f *fakeIdempotency) finish(key string, status int, ct string, response any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	body, err := json.Marshal(response)
	if err != nil {
		return err
	}
	e, ok := f.entries[key]
	if !ok {
		return errors.New("unknown key")
	}
	e.done = true
	e.replay = postgres.IdempotencyReplay{StatusCode: status, ContentType: ct, Body: body}
	return nil
}

func (f *fakeIdempotency) CompleteKey(_ context.Context, key string, status int, ct string, response any) error {
	return f.finish(key, status, ct, response)
}

func (f *fakeIdempotency) FailKey(_ context.Context, key string, status int, ct string, response any) error {
	return f.finish(key, status, ct, response)
}

func TestIdempotentRetry(t *testing.T) {
	s := newTestServer(t, &fakeIdempotency{entries: map[string]*fakeEntry{}})

	first := s.do(t, http.MethodPost, "/api/v1/sales", validSale, middleware.HeaderIdempotencyKey, "k1")
	require.Equal(t, http.StatusCreated, first.Code)

	retry := s.do(t, http.MethodPost, "/api/v1/sales", validSale, middleware.HeaderIdempotencyKey, "k1")
	assert.Equal(t, http.StatusCreated, retry.Code)
	assert.JSONEq(t, first.Body.String(), retry.Body.String())
	assert.Len(t, s.store.Snapshot().Sales, 1, "retry must not register a second sale")

	other := map[string]any{"lines": []map[string]any{{"productId": 2, "quantity": 1, "unitPrice": "1"}}}
	rec := s.do(t, http.MethodPost, "/api/v1/sales", other, middleware.HeaderIdempotencyKey, "k1")
	assert.Equal(t, http.StatusConflict, rec.Code)

	// without a key every request registers
	require.Equal(t, http.StatusCreated, s.do(t, http.MethodPost, "/api/v1/sales", validSale).Code)
	assert.Len(t, s.store.Snapshot().Sales, 2)
}

func TestIdempotentRetry_BodyTooLarge(t *testing.T) {
	idem := &fakeIdempotency{entries: map[string]*fakeEntry{}}
	s := newTestServer(t, idem)
	huge := map[string]any{
		"paymentType": strings.Repeat("x", 1<<20),
		"lines":       validSale["lines"],
	}

	rec := s.do(t, http.MethodPost, "/api/v1/sales", huge, middleware.HeaderIdempotencyKey, "k3")
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	assert.Equal(t, apperror.CodeValidation, decode[map[string]any](t, rec)["code"])
	assert.Empty(t, idem.entries, "key must not be taken")
	assert.Empty(t, s.store.Snapshot().Sales)
}

func TestIdempotentRetry_ReplaysFailure(t *testing.T) {
	s := newTestServer(t, &fakeIdempotency{entries: map[string]*fakeEntry{}})
	bad := map[string]any{"lines": []map[string]any{{"productId": 99, "quantity": 1, "unitPrice": "1"}}}

	first := s.do(t, http.MethodPost, "/api/v1/sales", bad, middleware.HeaderIdempotencyKey, "k2")
	require.Equal(t, http.StatusNotFound, first.Code)

	retry := s.do(t, http.MethodPost, "/api/v1/sales", bad, middleware.HeaderIdempotencyKey, "k2")
	assert.Equal(t, http.StatusNotFound, retry.Code)
	assert.JSONEq(t, first.Body.String(), retry.Body.String())
}

func TestMetricsEndpoint(t *testing.T) {
	s := newTestServer(t, nil)

	require.Equal(t, http.StatusCreated, s.do(t, http.MethodPost, "/api/v1/sales", validSale).Code)
	require.Equal(t, http.StatusNotFound, s.do(t, http.MethodPost, "/api/v1/sales", map[string]any{
		"lines": []map[string]any{{"productId": 99, "quantity": 1, "unitPrice": "1.00"}},
	}).Code)

	rec := s.do(t, http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `posledger_sale_registrations_total{outcome="ok"} 1`)
	assert.Contains(t, rec.Body.String(), `posledger_sale_registrations_total{outcome="NOT_FOUND"} 1`)
	assert.Contains(t, rec.Body.String(), `posledger_sale_lines_total 2`)
}

type fakeAuditTrail struct {
	saleID int64
	limit  int
	err    error
}

func (f *fakeAuditTrail) SaleAudit(_ context.Context, saleID int64, limit int) ([]sales.AuditRecord, error) {
	f.saleID, f.limit = saleID, limit
	if f.err != nil {
		return nil, f.err
	}
	return []sales.AuditRecord{{
		Action:    "create",
		RequestID: "req-1",
		Snapshot:  json.RawMessage(`{"documentNumber":"0008"}`),
		At:        testNow,
	}}, nil
}

func TestSaleAudit(t *testing.T) {
	trail := &fakeAuditTrail{}
	s := &testServer{router: NewRouter(RouterConfig{Logger: logger.Nop(), Audit: trail})}

	rec := s.do(t, http.MethodGet, "/api/v1/sales/8/audit", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, int64(8), trail.saleID)
	assert.Equal(t, 50, trail.limit)

	body := decode[map[string]any](t, rec)
	assert.EqualValues(t, 1, body["count"])
	entry := body["items"].([]any)[0].(map[string]any)
	assert.Equal(t, "create", entry["action"])
	assert.Equal(t, "0008", entry["snapshot"].(map[string]any)["documentNumber"])

	rec = s.do(t, http.MethodGet, "/api/v1/sales/8/audit?limit=5", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 5, trail.limit)

	for _, path := range []string{"/api/v1/sales/abc/audit", "/api/v1/sales/0/audit", "/api/v1/sales/8/audit?limit=1000"} {
		rec = s.do(t, http.MethodGet, path, nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code, path)
		assert.Equal(t, apperror.CodeValidation, decode[map[string]any](t, rec)["code"], path)
	}

	trail.err = apperror.NewInternal(errors.New("db down"))
	rec = s.do(t, http.MethodGet, "/api/v1/sales/8/audit", nil)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestSaleAudit_NotMountedWithoutTrail(t *testing.T) {
	s := newTestServer(t, nil)
	rec := s.do(t, http.MethodGet, "/api/v1/sales/8/audit", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
