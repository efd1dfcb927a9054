package usecase

import (
	"context"
	"log/slog"
	"time"

	"storefront/internal/domain/model"
	"storefront/internal/notification"
)

// commit後のキャッシュ削除はここで打ち切る。残ったエントリはTTLで消える
const cacheInvalidateTimeout = 500 * time.Millisecond

// 商品詳細キャッシュ。失敗してもDBの結果を優先する。
// 在庫数は保存されない（Getで返るStockは使わない）
type ProductCache interface {
	Get(ctx context.Context, productID int64) (model.Product, bool, error)
	Set(ctx context.Context, p model.Product) error
	Invalidate(ctx context.Context, productIDs ...int64) error
}

// commit後の通知先。ブロックしない（受け付けたらtrue）
type OrderPlacedNotifier interface {
	Notify(ev notification.OrderPlaced) bool
}

// リクエストのキャンセルとは切り離し、cacheInvalidateTimeoutで打ち切る
func invalidateProducts(ctx context.Context, cache ProductCache, productIDs []int64, attrs ...any) {
	if cache == nil || len(productIDs) == 0 {
		return
	}
	ictx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cacheInvalidateTimeout)
	defer cancel()

	if err := cache.Invalidate(ictx, productIDs...); err != nil {
		slog.WarnContext(ctx, "product cache invalidation failed",
			append([]any{"product_ids", productIDs, "err", err}, attrs...)...)
	}
}
