package repository

import (
	"context"
	"errors"

	"storefront/internal/domain/model"
)

var ErrNotFound = errors.New("not found")

// 一覧検索
type ProductListQuery struct {
	Page     int
	Limit    int
	Category string
}

// 商品の永続化（保存・取得）だけを約束。
// 在庫の増減はInventoryRepository経由でのみ行う。
type ProductRepository interface {
	ListActive(ctx context.Context, q ProductListQuery) ([]model.Product, int64, error)
	FindByID(ctx context.Context, id int64) (model.Product, error)

	Create(ctx context.Context, p model.Product) (model.Product, error)
	// name/description/price/category/image_url/is_activeのみ更新（stockは触らない）
	Update(ctx context.Context, p model.Product) error
	SoftDelete(ctx context.Context, id int64) error

	// 空テーブルのときだけ投入
	Seed(ctx context.Context, products []model.Product) error
}
