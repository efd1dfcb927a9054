package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"storefront/internal/domain"
	"storefront/internal/domain/model"
	repo "storefront/internal/repository"

	"github.com/shopspring/decimal"
)

type ProductUsecase struct {
	tx    repo.TransactionManager
	cache ProductCache
	now   func() time.Time
}

// DI
func NewProductUsecase(tx repo.TransactionManager, cache ProductCache) *ProductUsecase {
	return &ProductUsecase{tx: tx, cache: cache, now: time.Now}
}

// GET /productsの入力DTO
type ListProductsInput struct {
	Page     int
	Limit    int
	Category string
}

type ProductOutput struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Price       string    `json:"price"`
	Stock       int64     `json:"quantity_in_stock"`
	IsActive    bool      `json:"is_active"`
	Category    string    `json:"category"`
	ImageURL    string    `json:"image_url"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type ProductListOutput struct {
	Items []ProductOutput `json:"items"`
	Total int64           `json:"total"`
	Page  int             `json:"page"`
	Limit int             `json:"limit"`
}

func toProductOutput(p model.Product) ProductOutput {
	return ProductOutput{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Price:       p.Price.StringFixed(2),
		Stock:       p.Stock,
		IsActive:    p.IsActive,
		Category:    p.Category,
		ImageURL:    p.ImageURL,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

func (u *ProductUsecase) ListPublicProducts(ctx context.Context, in ListProductsInput) (ProductListOutput, error) {
	if in.Page < 1 {
		return ProductListOutput{}, NewHTTPError(http.StatusBadRequest, "invalid page")
	}
	if in.Limit < 1 || in.Limit > 100 {
		return ProductListOutput{}, NewHTTPError(http.StatusBadRequest, "invalid limit")
	}
	if len(in.Category) > 100 {
		return ProductListOutput{}, NewHTTPError(http.StatusBadRequest, "category too long")
	}

	out := ProductListOutput{Items: []ProductOutput{}, Page: in.Page, Limit: in.Limit}

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		items, total, err := r.Products().ListActive(ctx, repo.ProductListQuery{
			Page:     in.Page,
			Limit:    in.Limit,
			Category: strings.TrimSpace(in.Category),
		})
		if err != nil {
			return err
		}
		for _, p := range items {
			out.Items = append(out.Items, toProductOutput(p))
		}
		out.Total = total
		return nil
	})
	if err != nil {
		return ProductListOutput{}, domain.Persistence("list products", err)
	}
	return out, nil
}

// キャッシュ → DBの順に読む。キャッシュの失敗は無視する。
// 在庫はキャッシュヒットでも毎回DBの値
func (u *ProductUsecase) GetProductDetail(ctx context.Context, productID int64) (ProductOutput, error) {
	if productID <= 0 {
		return ProductOutput{}, &domain.ProductNotFoundError{ProductID: productID}
	}

	if p, ok, err := u.cache.Get(ctx, productID); err != nil {
		slog.WarnContext(ctx, "product cache get failed", "product_id", productID, "err", err)
	} else if ok {
		return u.withLiveStock(ctx, p)
	}

	var p model.Product
	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		found, err := r.Products().FindByID(ctx, productID)
		if errors.Is(err, repo.ErrNotFound) || (err == nil && !found.IsActive) {
			return &domain.ProductNotFoundError{ProductID: productID}
		}
		if err != nil {
			return err
		}
		p = found
		return nil
	})
	if err != nil {
		return ProductOutput{}, domain.Persistence("get product", err)
	}

	if err := u.cache.Set(ctx, p); err != nil {
		slog.WarnContext(ctx, "product cache set failed", "product_id", productID, "err", err)
	}
	return toProductOutput(p), nil
}

// キャッシュには在庫が無いので、在庫だけDBから読む
func (u *ProductUsecase) withLiveStock(ctx context.Context, p model.Product) (ProductOutput, error) {
	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		stock, err := r.Inventory().CurrentStock(ctx, p.ID)
		if errors.Is(err, repo.ErrNotFound) {
			return &domain.ProductNotFoundError{ProductID: p.ID}
		}
		if err != nil {
			return err
		}
		p.Stock = stock
		return nil
	})
	if err != nil {
		return ProductOutput{}, domain.Persistence("get product stock", err)
	}
	return toProductOutput(p), nil
}

type AdminProductInput struct {
	Name        string
	Description string
	Price       decimal.Decimal
	Stock       int64
	Category    string
	ImageURL    string
	IsActive    bool
}

func validateProductInput(in AdminProductInput) error {
	if strings.TrimSpace(in.Name) == "" {
		return NewHTTPError(http.StatusBadRequest, "name required")
	}
	if len(in.Name) > 255 {
		return NewHTTPError(http.StatusBadRequest, "name too long")
	}
	if in.Price.IsNegative() {
		return NewHTTPError(http.StatusBadRequest, "price must be >= 0")
	}
	// numeric(12,2)
	if !in.Price.Equal(in.Price.Round(2)) {
		return NewHTTPError(http.StatusBadRequest, "price must have at most 2 decimal places")
	}
	if in.Stock < 0 {
		return NewHTTPError(http.StatusBadRequest, "stock must be >= 0")
	}
	return nil
}

func (u *ProductUsecase) AdminCreateProduct(ctx context.Context, adminUserID int64, in AdminProductInput) (ProductOutput, error) {
	if adminUserID <= 0 {
		return ProductOutput{}, domain.ErrUnauthenticated
	}
	if err := validateProductInput(in); err != nil {
		return ProductOutput{}, err
	}

	var created model.Product
	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		now := u.now()
		p, err := r.Products().Create(ctx, model.Product{
			Name:        strings.TrimSpace(in.Name),
			Description: in.Description,
			Price:       in.Price,
			Stock:       in.Stock,
			IsActive:    in.IsActive,
			Category:    strings.TrimSpace(in.Category),
			ImageURL:    in.ImageURL,
			CreatedAt:   now,
			UpdatedAt:   now,
		})
		if err != nil {
			return err
		}
		created = p
		return nil
	})
	if err != nil {
		return ProductOutput{}, domain.Persistence("create product", err)
	}
	return toProductOutput(created), nil
}

// stockは変更しない（在庫はAdminUpdateInventoryで）。
// 価格変更は監査ログに残す。既存注文の単価には影響しない
func (u *ProductUsecase) AdminUpdateProduct(ctx context.Context, adminUserID int64, productID int64, in AdminProductInput) (ProductOutput, error) {
	if adminUserID <= 0 {
		return ProductOutput{}, domain.ErrUnauthenticated
	}
	if productID <= 0 {
		return ProductOutput{}, &domain.ProductNotFoundError{ProductID: productID}
	}
	if err := validateProductInput(in); err != nil {
		return ProductOutput{}, err
	}

	var updated model.Product
	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		before, err := r.Products().FindByID(ctx, productID)
		if errors.Is(err, repo.ErrNotFound) {
			return &domain.ProductNotFoundError{ProductID: productID}
		}
		if err != nil {
			return err
		}

		next := before
		next.Name = strings.TrimSpace(in.Name)
		next.Description = in.Description
		next.Price = in.Price
		next.Category = strings.TrimSpace(in.Category)
		next.ImageURL = in.ImageURL
		next.IsActive = in.IsActive
		if err := r.Products().Update(ctx, next); err != nil {
			if errors.Is(err, repo.ErrNotFound) {
				return &domain.ProductNotFoundError{ProductID: productID}
			}
			return err
		}

		if !before.Price.Equal(in.Price) {
			if err := r.AuditLogs().Create(ctx, model.AuditLog{
				ActorUserID:  adminUserID,
				Action:       model.AuditActionUpdatePrice,
				ResourceType: model.AuditResourceProduct,
				ResourceID:   productID,
				BeforeJSON:   fmt.Sprintf(`{"price":"%s"}`, before.Price.StringFixed(2)),
				AfterJSON:    fmt.Sprintf(`{"price":"%s"}`, in.Price.StringFixed(2)),
				CreatedAt:    u.now(),
			}); err != nil {
				return err
			}
		}

		updated, err = r.Products().FindByID(ctx, productID)
		return err
	})
	if err != nil {
		return ProductOutput{}, domain.Persistence("update product", err)
	}

	u.invalidate(ctx, productID)
	return toProductOutput(updated), nil
}

func (u *ProductUsecase) AdminDeleteProduct(ctx context.Context, adminUserID int64, productID int64) error {
	if adminUserID <= 0 {
		return domain.ErrUnauthenticated
	}
	if productID <= 0 {
		return &domain.ProductNotFoundError{ProductID: productID}
	}

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		err := r.Products().SoftDelete(ctx, productID)
		if errors.Is(err, repo.ErrNotFound) {
			return &domain.ProductNotFoundError{ProductID: productID}
		}
		return err
	})
	if err != nil {
		return domain.Persistence("delete product", err)
	}

	u.invalidate(ctx, productID)
	return nil
}

// 在庫の絶対値を設定し、差分を在庫調整履歴と監査ログに残す
func (u *ProductUsecase) AdminUpdateInventory(ctx context.Context, adminUserID int64, productID int64, newStock int64, reason string) error {
	if adminUserID <= 0 {
		return domain.ErrUnauthenticated
	}
	if productID <= 0 {
		return &domain.ProductNotFoundError{ProductID: productID}
	}
	if newStock < 0 {
		return NewHTTPError(http.StatusBadRequest, "stock must be >= 0")
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return NewHTTPError(http.StatusBadRequest, "reason required")
	}

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		//行ロックして現在値を差し替え
		before, err := r.Inventory().SetStock(ctx, productID, newStock)
		if errors.Is(err, repo.ErrNotFound) {
			return &domain.ProductNotFoundError{ProductID: productID}
		}
		if err != nil {
			return err
		}

		now := u.now()
		if err := r.Inventory().CreateAdjustment(ctx, model.InventoryAdjustment{
			ProductID:   productID,
			AdminUserID: adminUserID,
			Delta:       newStock - before,
			Reason:      reason,
			CreatedAt:   now,
		}); err != nil {
			return err
		}

		//「誰が」「何を」「どの対象に」「どう変えたか」を残す
		return r.AuditLogs().Create(ctx, model.AuditLog{
			ActorUserID:  adminUserID,
			Action:       model.AuditActionUpdateStock,
			ResourceType: model.AuditResourceProduct,
			ResourceID:   productID,
			BeforeJSON:   jsonInt("stock", before),
			AfterJSON:    jsonInt("stock", newStock),
			CreatedAt:    now,
		})
	})
	if err != nil {
		return domain.Persistence("update inventory", err)
	}

	u.invalidate(ctx, productID)
	return nil
}

func (u *ProductUsecase) invalidate(ctx context.Context, productIDs ...int64) {
	invalidateProducts(ctx, u.cache, productIDs)
}

func jsonInt[T ~int | ~int64](key string, v T) string {
	return fmt.Sprintf(`{"%s":%d}`, key, v)
}
