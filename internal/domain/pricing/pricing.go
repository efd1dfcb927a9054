// Package pricing は注文明細の小計・合計を計算する。
// 副作用なし（DB/ネットワークに触れない）。
package pricing

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// 数量0以下、または負の単価の明細。Indexが負なら位置不明
type InvalidLineItemError struct {
	Index     int
	Quantity  int64
	UnitPrice decimal.Decimal
}

func (e *InvalidLineItemError) Error() string {
	if e.Index < 0 {
		return fmt.Sprintf("invalid line item: quantity must be >= 1 (got %d)", e.Quantity)
	}
	if e.Quantity <= 0 {
		return fmt.Sprintf("invalid line item %d: quantity must be >= 1 (got %d)", e.Index, e.Quantity)
	}
	return fmt.Sprintf("invalid line item %d: unit price must be >= 0 (got %s)", e.Index, e.UnitPrice.String())
}

// 予約時に確定した単価と数量
type Line struct {
	UnitPrice decimal.Decimal
	Quantity  int64
}

type LineTotal struct {
	UnitPrice decimal.Decimal
	Quantity  int64
	Subtotal  decimal.Decimal
}

type Quote struct {
	Lines []LineTotal
	Total decimal.Decimal
}

// ValidateQuantity は数量が1以上かを確認する。
func ValidateQuantity(index int, qty int64) error {
	if qty <= 0 {
		return &InvalidLineItemError{Index: index, Quantity: qty}
	}
	return nil
}

// Calculate は 小計=単価×数量、合計=小計の和 を返す。
func Calculate(lines []Line) (Quote, error) {
	q := Quote{
		Lines: make([]LineTotal, 0, len(lines)),
		Total: decimal.Zero,
	}
	for i, l := range lines {
		if err := ValidateQuantity(i, l.Quantity); err != nil {
			return Quote{}, err
		}
		if l.UnitPrice.IsNegative() {
			return Quote{}, &InvalidLineItemError{Index: i, Quantity: l.Quantity, UnitPrice: l.UnitPrice}
		}

		sub := Subtotal(l.UnitPrice, l.Quantity)
		q.Lines = append(q.Lines, LineTotal{
			UnitPrice: l.UnitPrice,
			Quantity:  l.Quantity,
			Subtotal:  sub,
		})
		q.Total = q.Total.Add(sub)
	}
	return q, nil
}

func Subtotal(unitPrice decimal.Decimal, qty int64) decimal.Decimal {
	return unitPrice.Mul(decimal.NewFromInt(qty))
}
