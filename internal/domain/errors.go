package domain

import (
	"errors"
	"fmt"

	"storefront/internal/domain/pricing"
)

var (
	// 空の注文（明細0件）
	ErrEmptyOrder = errors.New("order must contain at least one product")

	// 認証済みの購入者が解決できない
	ErrUnauthenticated = errors.New("unauthenticated")

	// 存在しない注文と他人の注文は区別しない
	ErrOrderNotFound = errors.New("order not found")
)

// 商品が存在しない（非公開・削除済みも含む）
type ProductNotFoundError struct {
	ProductID int64
}

func (e *ProductNotFoundError) Error() string {
	return fmt.Sprintf("product not found: ID %d", e.ProductID)
}

// 在庫不足。予約時点の在庫数と要求数を持つ
type InsufficientStockError struct {
	ProductID int64
	Available int64
	Requested int64
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for product %d (available: %d, requested: %d)",
		e.ProductID, e.Available, e.Requested)
}

// 許可されていないステータス遷移
type InvalidStatusTransitionError struct {
	From string
	To   string
}

func (e *InvalidStatusTransitionError) Error() string {
	return fmt.Sprintf("cannot change order status from %s to %s", e.From, e.To)
}

// DB/トランザクションの失敗。Txは必ずロールバックされている
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persistence error (%s): %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

// errをPersistenceErrorで包む。ドメインエラーはそのまま返す
func Persistence(op string, err error) error {
	if err == nil {
		return nil
	}
	if IsDomainError(err) {
		return err
	}
	var pe *PersistenceError
	if errors.As(err, &pe) {
		return err
	}
	return &PersistenceError{Op: op, Err: err}
}

// 呼び出し側の責任で起きたエラーかどうか
func IsDomainError(err error) bool {
	var (
		pnf *ProductNotFoundError
		ise *InsufficientStockError
		ist *InvalidStatusTransitionError
		ili *pricing.InvalidLineItemError
	)
	switch {
	case errors.As(err, &pnf), errors.As(err, &ise), errors.As(err, &ist), errors.As(err, &ili):
		return true
	case errors.Is(err, ErrEmptyOrder), errors.Is(err, ErrUnauthenticated), errors.Is(err, ErrOrderNotFound):
		return true
	}
	return false
}
