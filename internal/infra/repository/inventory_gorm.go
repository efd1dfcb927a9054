package repository

import (
	"context"
	"errors"

	"storefront/internal/domain"
	"storefront/internal/domain/model"
	"storefront/internal/domain/pricing"
	repo "storefront/internal/repository"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type InventoryGormRepository struct {
	db *gorm.DB
}

func NewInventoryGormRepository(db *gorm.DB) *InventoryGormRepository {
	return &InventoryGormRepository{db: db}
}

// 行ロックを取って在庫と単価を同時に読み、足りるときだけ減らす
func (r *InventoryGormRepository) Reserve(ctx context.Context, productID int64, qty int64) (repo.Reservation, error) {
	if qty <= 0 {
		return repo.Reservation{}, &pricing.InvalidLineItemError{Index: -1, Quantity: qty}
	}

	var p model.Product
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ? AND is_active = ?", productID, true).
		First(&p).Error
	if isNotFound(err) {
		return repo.Reservation{}, &domain.ProductNotFoundError{ProductID: productID}
	}
	if err != nil {
		return repo.Reservation{}, err
	}

	if p.Stock < qty {
		return repo.Reservation{}, &domain.InsufficientStockError{
			ProductID: productID,
			Available: p.Stock,
			Requested: qty,
		}
	}

	res := r.db.WithContext(ctx).
		Model(&model.Product{}).
		Where("id = ? AND stock >= ?", productID, qty).
		Update("stock", gorm.Expr("stock - ?", qty))
	if res.Error != nil {
		return repo.Reservation{}, res.Error
	}
	// ロック保持中なので通常は起きない
	if res.RowsAffected == 0 {
		return repo.Reservation{}, &domain.InsufficientStockError{
			ProductID: productID,
			Available: p.Stock,
			Requested: qty,
		}
	}

	return repo.Reservation{
		ProductID: p.ID,
		Name:      p.Name,
		UnitPrice: p.Price,
		Quantity:  qty,
		Remaining: p.Stock - qty,
	}, nil
}

// 商品詳細のキャッシュヒット時に在庫だけ読む
func (r *InventoryGormRepository) CurrentStock(ctx context.Context, productID int64) (int64, error) {
	var stock int64
	err := r.db.WithContext(ctx).
		Model(&model.Product{}).
		Where("id = ? AND is_active = ?", productID, true).
		Select("stock").
		Take(&stock).Error
	if isNotFound(err) {
		return 0, repo.ErrNotFound
	}
	return stock, err
}

// 在庫戻し（キャンセル）。削除済み商品にも戻す
func (r *InventoryGormRepository) Release(ctx context.Context, productID int64, qty int64) error {
	res := r.db.WithContext(ctx).
		Unscoped().
		Model(&model.Product{}).
		Where("id = ?", productID).
		Update("stock", gorm.Expr("stock + ?", qty))

	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}

// 在庫の現在値を設定
func (r *InventoryGormRepository) SetStock(ctx context.Context, productID int64, newStock int64) (int64, error) {
	var p model.Product
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&p, productID).Error
	if isNotFound(err) {
		return 0, repo.ErrNotFound
	}
	if err != nil {
		return 0, err
	}

	res := r.db.WithContext(ctx).
		Model(&model.Product{}).
		Where("id = ?", productID).
		Update("stock", newStock)
	if res.Error != nil {
		return 0, res.Error
	}
	if res.RowsAffected == 0 {
		return 0, repo.ErrNotFound
	}
	return p.Stock, nil
}

// 調整履歴作成
func (r *InventoryGormRepository) CreateAdjustment(ctx context.Context, adj model.InventoryAdjustment) error {
	if err := r.db.WithContext(ctx).Create(&adj).Error; err != nil {
		return err
	}
	return nil
}

func isNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
