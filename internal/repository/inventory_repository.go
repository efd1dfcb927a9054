package repository

import (
	"context"

	"storefront/internal/domain/model"

	"github.com/shopspring/decimal"
)

// 予約結果。単価は在庫減算と同じ行ロック下で読んだもの
type Reservation struct {
	ProductID int64
	Name      string
	UnitPrice decimal.Decimal
	Quantity  int64
	// 減算後の在庫
	Remaining int64
}

// 在庫台帳。Txの中でのみ使う
type InventoryRepository interface {
	// 在庫 >= qty のときだけ減算する（check-and-decrement）
	// 商品なし: *domain.ProductNotFoundError / 不足: *domain.InsufficientStockError
	Reserve(ctx context.Context, productID int64, qty int64) (Reservation, error)

	// 販売中の商品の現在の在庫（ロックしない）。無効・削除済みはErrNotFound
	CurrentStock(ctx context.Context, productID int64) (int64, error)

	// 在庫戻し（キャンセル）
	Release(ctx context.Context, productID int64, qty int64) error

	// 在庫の現在値を設定し、変更前の値を返す
	SetStock(ctx context.Context, productID int64, newStock int64) (int64, error)

	// 調整履歴作成
	CreateAdjustment(ctx context.Context, adjustment model.InventoryAdjustment) error
}
