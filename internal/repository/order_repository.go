package repository

import (
	"context"

	"storefront/internal/domain/model"
)

// 購入者が変更できる項目。nilは変更しない
type OrderUpdate struct {
	Status          *model.OrderStatus
	ShippingAddress *string
	BillingAddress  *string
}

func (u OrderUpdate) IsEmpty() bool {
	return u.Status == nil && u.ShippingAddress == nil && u.BillingAddress == nil
}

// 注文は常に購入者IDで絞り込む（他人の注文はErrNotFound）
type OrderRepository interface {
	Create(ctx context.Context, order model.Order) (int64, error)
	FindByIDForUser(ctx context.Context, orderID int64, userID int64) (model.Order, error)
	// 行ロック付き取得（更新・キャンセル用）
	LockByIDForUser(ctx context.Context, orderID int64, userID int64) (model.Order, error)
	ListByUserID(ctx context.Context, userID int64, page int, limit int) ([]model.Order, int64, error)
	Update(ctx context.Context, orderID int64, upd OrderUpdate) error
	// 明細はカスケード削除
	Delete(ctx context.Context, orderID int64) error
}
