package repository

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	repo "storefront/internal/repository"

	"gorm.io/gorm"
)

type txReposGorm struct {
	orders     repo.OrderRepository
	orderItems repo.OrderItemRepository
	inventory  repo.InventoryRepository
	products   repo.ProductRepository
	users      repo.UserRepository
	auditLogs  repo.AuditLogRepository
}

func (r *txReposGorm) Orders() repo.OrderRepository         { return r.orders }
func (r *txReposGorm) OrderItems() repo.OrderItemRepository { return r.orderItems }
func (r *txReposGorm) Inventory() repo.InventoryRepository  { return r.inventory }
func (r *txReposGorm) Products() repo.ProductRepository     { return r.products }
func (r *txReposGorm) Users() repo.UserRepository           { return r.users }
func (r *txReposGorm) AuditLogs() repo.AuditLogRepository   { return r.auditLogs }

type TxManagerGorm struct {
	db               *gorm.DB
	lockTimeout      time.Duration
	statementTimeout time.Duration
}

func NewTxManagerGorm(db *gorm.DB, lockTimeout, statementTimeout time.Duration) *TxManagerGorm {
	return &TxManagerGorm{db: db, lockTimeout: lockTimeout, statementTimeout: statementTimeout}
}

// READ COMMITTED + 行ロック（SELECT ... FOR UPDATE）で在庫を直列化する。
// ctxがキャンセルされたらcommit前ならロールバックされる。
func (tm *TxManagerGorm) WithinTx(ctx context.Context, fn func(r repo.TxRepos) error) error {
	err := tm.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		//ロック待ち・文の上限はこのTxだけに効かせる
		if tm.lockTimeout > 0 {
			if err := tx.Exec(fmt.Sprintf("SET LOCAL lock_timeout = '%dms'", tm.lockTimeout.Milliseconds())).Error; err != nil {
				return err
			}
		}
		if tm.statementTimeout > 0 {
			if err := tx.Exec(fmt.Sprintf("SET LOCAL statement_timeout = '%dms'", tm.statementTimeout.Milliseconds())).Error; err != nil {
				return err
			}
		}

		//repoはtxを持ったDBで作り直す
		r := &txReposGorm{
			orders:     NewOrderGormRepository(tx),
			orderItems: NewOrderItemGormRepository(tx),
			inventory:  NewInventoryGormRepository(tx),
			products:   NewProductGormRepository(tx),
			users:      NewUserGormRepository(tx),
			auditLogs:  NewAuditLogGormRepository(tx),
		}
		return fn(r)
	})

	// DB起因の失敗だけ分類して残す（ドメインエラーはunknown扱いで出さない）
	if kind := ClassifyError(err); kind != "" && kind != "unknown" {
		slog.ErrorContext(ctx, "transaction rolled back", "kind", kind, "err", err)
	}
	return err
}
