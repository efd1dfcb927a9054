// Package memory は repository の契約をメモリ上で実装する。
// Txは1本ずつ直列に実行され（SERIALIZABLE相当）、失敗時は変更を捨てる。
// ローカル起動（STORE_DRIVER=memory）とテスト用。
package memory

import (
	"context"
	"maps"
	"slices"
	"time"

	"storefront/internal/domain/model"
	repo "storefront/internal/repository"
)

type state struct {
	seq map[string]int64

	products    map[int64]model.Product
	orders      map[int64]model.Order
	orderItems  map[int64]model.OrderItem
	users       map[int64]model.User
	adjustments []model.InventoryAdjustment
	auditLogs   []model.AuditLog
}

func newState() *state {
	return &state{
		seq:        map[string]int64{},
		products:   map[int64]model.Product{},
		orders:     map[int64]model.Order{},
		orderItems: map[int64]model.OrderItem{},
		users:      map[int64]model.User{},
	}
}

// 値型のmapなので浅いコピーで足りる
func (s *state) clone() *state {
	return &state{
		seq:         maps.Clone(s.seq),
		products:    maps.Clone(s.products),
		orders:      maps.Clone(s.orders),
		orderItems:  maps.Clone(s.orderItems),
		users:       maps.Clone(s.users),
		adjustments: slices.Clone(s.adjustments),
		auditLogs:   slices.Clone(s.auditLogs),
	}
}

func (s *state) nextID(table string) int64 {
	s.seq[table]++
	return s.seq[table]
}

type Store struct {
	// 容量1のセマフォ。ctxでロック待ちを打ち切れる
	lock chan struct{}
	st   *state
	now  func() time.Time
}

func NewStore() *Store {
	return &Store{
		lock: make(chan struct{}, 1),
		st:   newState(),
		now:  time.Now,
	}
}

func (s *Store) WithinTx(ctx context.Context, fn func(r repo.TxRepos) error) error {
	select {
	case s.lock <- struct{}{}:
	case <-ctx.Done():
		return ctx.Err()
	}
	defer func() { <-s.lock }()

	work := s.st.clone()
	if err := fn(&txRepos{st: work, now: s.now}); err != nil {
		return err
	}
	// commit前にキャンセルされたら捨てる
	if err := ctx.Err(); err != nil {
		return err
	}
	s.st = work
	return nil
}

type txRepos struct {
	st  *state
	now func() time.Time
}

func (r *txRepos) Orders() repo.OrderRepository         { return &orderRepo{r} }
func (r *txRepos) OrderItems() repo.OrderItemRepository { return &orderItemRepo{r} }
func (r *txRepos) Inventory() repo.InventoryRepository  { return &inventoryRepo{r} }
func (r *txRepos) Products() repo.ProductRepository     { return &productRepo{r} }
func (r *txRepos) Users() repo.UserRepository           { return &userRepo{r} }
func (r *txRepos) AuditLogs() repo.AuditLogRepository   { return &auditLogRepo{r} }

func paginate[T any](items []T, page, limit int) []T {
	if page < 1 {
		page = 1
	}
	if limit <= 0 {
		return []T{}
	}
	start := (page - 1) * limit
	if start >= len(items) {
		return []T{}
	}
	end := min(start+limit, len(items))
	return items[start:end]
}
