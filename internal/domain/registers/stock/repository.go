// Package stock applies sale quantities to product on-hand stock.
package stock

// Movement is one stock decrement request.
type Movement struct {
	ProductID int64
	Quantity  int64
}

// Balance records the stock of a product around a decrement.
type Balance struct {
	ProductID int64
	Before    int64
	After     int64
}

// NegativeStockPolicy decides whether a decrement may take stock below zero.
type NegativeStockPolicy int

const (
	// RejectNegative fails the decrement with INSUFFICIENT_STOCK.
	RejectNegative NegativeStockPolicy = iota

	// AllowNegative lets stock go below zero (back-order semantics).
	AllowNegative
)
