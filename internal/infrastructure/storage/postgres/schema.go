package postgres

import (
	"context"
	"fmt"

	"posledger/pkg/logger"
)

// Table names shared by repositories and the schema.
const (
	TableProducts     = "products"
	TableSales        = "sales"
	TableSaleLines    = "sale_lines"
	TableDocSequence  = "doc_sequence"
	TableOutbox       = "sys_outbox"
	TableOutboxDLQ    = "sys_outbox_dlq"
	TableIdempotency  = "sys_idempotency"
	TableAudit        = "sys_audit"
	DocSequenceRowKey = 1
)

// schemaStatements create the record store. Every statement is idempotent.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS products (
		id          BIGSERIAL PRIMARY KEY,
		name        TEXT NOT NULL,
		category_id BIGINT,
		stock       BIGINT NOT NULL DEFAULT 0,
		price       NUMERIC(15,2) NOT NULL DEFAULT 0,
		active      BOOLEAN NOT NULL DEFAULT TRUE,
		created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,

	// Exactly one row (id = 1) holds the shared sale counter.
	`CREATE TABLE IF NOT EXISTS doc_sequence (
		id                 SMALLINT PRIMARY KEY CHECK (id = 1),
		last_number        BIGINT NOT NULL DEFAULT 0 CHECK (last_number >= 0),
		last_registered_at TIMESTAMPTZ
	)`,

	`CREATE TABLE IF NOT EXISTS sales (
		id              BIGSERIAL PRIMARY KEY,
		document_number TEXT NOT NULL UNIQUE,
		payment_type    TEXT NOT NULL DEFAULT '',
		total           NUMERIC(15,2) NOT NULL,
		registered_at   TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_sales_registered_at ON sales (registered_at)`,

	`CREATE TABLE IF NOT EXISTS sale_lines (
		id         BIGSERIAL PRIMARY KEY,
		sale_id    BIGINT NOT NULL REFERENCES sales (id) ON DELETE CASCADE,
		line_no    INT NOT NULL,
		product_id BIGINT NOT NULL REFERENCES products (id) ON DELETE RESTRICT,
		quantity   BIGINT NOT NULL CHECK (quantity > 0),
		unit_price NUMERIC(15,2) NOT NULL CHECK (unit_price >= 0),
		subtotal   NUMERIC(15,2) NOT NULL,
		UNIQUE (sale_id, line_no)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_sale_lines_product ON sale_lines (product_id)`,

	`CREATE TABLE IF NOT EXISTS sys_outbox (
		id             UUID PRIMARY KEY,
		aggregate_type TEXT NOT NULL,
		aggregate_id   TEXT NOT NULL,
		event_type     TEXT NOT NULL,
		payload        JSONB NOT NULL,
		status         TEXT NOT NULL,
		retry_count    INT NOT NULL DEFAULT 0,
		last_error     TEXT,
		next_retry_at  TIMESTAMPTZ,
		created_at     TIMESTAMPTZ NOT NULL,
		published_at   TIMESTAMPTZ
	)`,
	`CREATE INDEX IF NOT EXISTS idx_outbox_pending ON sys_outbox (status, created_at)`,

	`CREATE TABLE IF NOT EXISTS sys_outbox_dlq (
		id             UUID PRIMARY KEY,
		aggregate_type TEXT NOT NULL,
		aggregate_id   TEXT NOT NULL,
		event_type     TEXT NOT NULL,
		payload        JSONB NOT NULL,
		status         TEXT NOT NULL,
		retry_count    INT NOT NULL,
		last_error     TEXT,
		next_retry_at  TIMESTAMPTZ,
		created_at     TIMESTAMPTZ NOT NULL,
		published_at   TIMESTAMPTZ,
		failed_at      TIMESTAMPTZ NOT NULL,
		failure_reason TEXT
	)`,

	`CREATE TABLE IF NOT EXISTS sys_idempotency (
		idempotency_key       TEXT PRIMARY KEY,
		operation             TEXT NOT NULL,
		status                TEXT NOT NULL,
		request_hash          TEXT NOT NULL,
		response              BYTEA,
		response_status       INT NOT NULL DEFAULT 0,
		response_content_type TEXT NOT NULL DEFAULT '',
		created_at            TIMESTAMPTZ NOT NULL,
		updated_at            TIMESTAMPTZ NOT NULL,
		expires_at            TIMESTAMPTZ NOT NULL
	)`,

	`CREATE TABLE IF NOT EXISTS sys_audit (
		id                 UUID PRIMARY KEY,
		entity_type        TEXT NOT NULL,
		entity_id          TEXT NOT NULL,
		action             TEXT NOT NULL,
		request_id         TEXT NOT NULL DEFAULT '',
		changes            JSONB,
		changes_compressed BYTEA,
		compression_algo   TEXT NOT NULL,
		created_at         TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_audit_entity ON sys_audit (entity_type, entity_id, created_at DESC)`,
}

// Migrate applies the schema in one transaction.
func Migrate(ctx context.Context, txm *TxManager) error {
	return txm.RunInTransaction(ctx, func(ctx context.Context) error {
		q, err := txm.TxQuerier(ctx)
		if err != nil {
			return err
		}
		for i, stmt := range schemaStatements {
			if _, err := q.Exec(ctx, stmt); err != nil {
				return WrapError(fmt.Sprintf("schema statement %d", i+1), err)
			}
		}
		logger.Info(ctx, "schema applied", "statements", len(schemaStatements))
		return nil
	})
}
