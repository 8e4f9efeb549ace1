package postgres

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"posledger/internal/core/types"
	"posledger/internal/domain/sales"
)

type auditedRow struct {
	CreatedAt time.Time `db:"created_at"`
}

type productRow struct {
	auditedRow
	ID    int64  `db:"id"`
	Name  string `db:"name"`
	Notes string `db:"-"`
	Temp  int
}

func TestExtractDBColumns_Sale(t *testing.T) {
	cols := ExtractDBColumns[sales.Sale]()

	assert.Equal(t, []string{"id", "document_number", "payment_type", "total", "registered_at"}, cols)
}

func TestExtractDBColumns_EmbeddedAndExclude(t *testing.T) {
	cols := ExtractDBColumns[productRow]("id")

	assert.Equal(t, []string{"created_at", "name"}, cols)
}

func TestStructToMap_SaleLine(t *testing.T) {
	line := sales.SaleLine{
		ID:          9,
		SaleID:      3,
		LineNo:      1,
		ProductID:   42,
		ProductName: "ignored on insert",
		Quantity:    2,
		UnitPrice:   types.MustMoney("10.00"),
		Subtotal:    types.MustMoney("20.00"),
	}

	m := StructToMap(&line, "id", "product_name")

	assert.NotContains(t, m, "id")
	assert.NotContains(t, m, "product_name")
	assert.Equal(t, int64(3), m["sale_id"])
	assert.Equal(t, int64(42), m["product_id"])
	assert.Equal(t, int64(2), m["quantity"])
	assert.True(t, types.MustMoney("20").Equal(m["subtotal"].(types.Money)))
}

func TestStructToMap_Embedded(t *testing.T) {
	now := time.Now().UTC()
	m := StructToMap(productRow{auditedRow: auditedRow{CreatedAt: now}, ID: 1, Name: "Cola"})

	assert.Equal(t, now, m["created_at"])
	assert.Equal(t, "Cola", m["name"])
	assert.Len(t, m, 3)
}
