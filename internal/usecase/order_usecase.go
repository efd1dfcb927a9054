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
	"storefront/internal/domain/pricing"
	"storefront/internal/notification"
	repo "storefront/internal/repository"
)

// 注文確定の段階。ロールバック時のログに使う
type placementStage string

const (
	stageValidating placementStage = "validating"
	stageReserving  placementStage = "reserving"
	stagePricing    placementStage = "pricing"
	stagePersisting placementStage = "persisting"
	stageCommitted  placementStage = "committed"
)

type OrderUsecase struct {
	tx       repo.TransactionManager
	cache    ProductCache
	notifier OrderPlacedNotifier
	now      func() time.Time
}

func NewOrderUsecase(tx repo.TransactionManager, cache ProductCache, notifier OrderPlacedNotifier) *OrderUsecase {
	return &OrderUsecase{tx: tx, cache: cache, notifier: notifier, now: time.Now}
}

// PlaceOrder は在庫予約・金額計算・注文作成を1つのTxで行う。
// どれか1明細でも失敗したら全てロールバックし、commit後にだけ通知する。
func (u *OrderUsecase) PlaceOrder(ctx context.Context, buyerID int64, in PlaceOrderInput) (OrderOutput, error) {
	lines, err := validatePlacement(buyerID, in)
	if err != nil {
		slog.WarnContext(ctx, "order placement rejected", "stage", stageValidating, "user_id", buyerID, "err", err)
		return OrderOutput{}, err
	}

	var (
		stage   = stageValidating
		created model.Order
		buyer   model.User
	)

	err = u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		//購入者はTx内で確認（削除済み・無効なら続けない）
		b, err := r.Users().FindByID(ctx, buyerID)
		if errors.Is(err, repo.ErrUserNotFound) {
			return domain.ErrUnauthenticated
		}
		if err != nil {
			return err
		}
		if !b.CanTransact() {
			return domain.ErrUnauthenticated
		}
		buyer = *b

		//送信された順に予約（並べ替えない）
		stage = stageReserving
		reservations := make([]repo.Reservation, 0, len(lines))
		for _, l := range lines {
			if err := ctx.Err(); err != nil {
				return err
			}
			res, err := r.Inventory().Reserve(ctx, l.ProductID, l.Quantity)
			if err != nil {
				return err
			}
			slog.DebugContext(ctx, "stock reserved",
				"user_id", buyerID,
				"product_id", res.ProductID,
				"quantity", res.Quantity,
				"remaining", res.Remaining,
			)
			reservations = append(reservations, res)
		}

		//予約時の単価で計算
		stage = stagePricing
		priced := make([]pricing.Line, 0, len(reservations))
		for _, res := range reservations {
			priced = append(priced, pricing.Line{UnitPrice: res.UnitPrice, Quantity: res.Quantity})
		}
		quote, err := pricing.Calculate(priced)
		if err != nil {
			return err
		}

		stage = stagePersisting
		now := u.now()
		order := model.Order{
			UserID:          buyerID,
			Status:          model.OrderStatusPending,
			TotalAmount:     quote.Total,
			ShippingAddress: in.ShippingAddress,
			BillingAddress:  in.BillingAddress,
			CreatedAt:       now,
			UpdatedAt:       now,
		}
		orderID, err := r.Orders().Create(ctx, order)
		if err != nil {
			return err
		}
		order.ID = orderID

		items := make([]model.OrderItem, 0, len(reservations))
		for _, res := range reservations {
			items = append(items, model.OrderItem{
				ProductID:           res.ProductID,
				ProductNameSnapshot: res.Name,
				PriceAtPurchase:     res.UnitPrice,
				Quantity:            res.Quantity,
				CreatedAt:           now,
			})
		}
		order.Items, err = r.OrderItems().CreateBulk(ctx, orderID, items)
		if err != nil {
			return err
		}

		created = order
		return nil
	})
	if err != nil {
		if domain.IsDomainError(err) {
			slog.WarnContext(ctx, "order placement rolled back", "stage", stage, "user_id", buyerID, "err", err)
			return OrderOutput{}, err
		}
		slog.ErrorContext(ctx, "order placement rolled back", "stage", stage, "user_id", buyerID, "err", err)
		return OrderOutput{}, domain.Persistence("place order", err)
	}

	stage = stageCommitted
	slog.InfoContext(ctx, "order placed",
		"stage", stage,
		"order_id", created.ID,
		"user_id", buyerID,
		"total_amount", created.TotalAmount.StringFixed(2),
		"lines", len(created.Items),
	)

	//ここから先の失敗は注文に影響させない
	u.afterCommit(ctx, created, buyer)

	return toOrderOutput(created, created.Items), nil
}

func (u *OrderUsecase) afterCommit(ctx context.Context, order model.Order, buyer model.User) {
	ids := make([]int64, 0, len(order.Items))
	for _, it := range order.Items {
		ids = append(ids, it.ProductID)
	}
	invalidateProducts(ctx, u.cache, ids, "order_id", order.ID)

	if u.notifier != nil {
		u.notifier.Notify(notification.NewOrderPlaced(order, buyer, u.now()))
	}
}

// 入力の最低限チェック。同じ商品IDは最初の位置にまとめる
func validatePlacement(buyerID int64, in PlaceOrderInput) ([]OrderLineInput, error) {
	if buyerID <= 0 {
		return nil, domain.ErrUnauthenticated
	}
	if len(in.Products) == 0 {
		return nil, domain.ErrEmptyOrder
	}
	if strings.TrimSpace(in.ShippingAddress) == "" {
		return nil, NewHTTPError(http.StatusBadRequest, "shipping_address required")
	}
	if strings.TrimSpace(in.BillingAddress) == "" {
		return nil, NewHTTPError(http.StatusBadRequest, "billing_address required")
	}

	lines := make([]OrderLineInput, 0, len(in.Products))
	pos := make(map[int64]int, len(in.Products))
	for i, p := range in.Products {
		if p.ProductID <= 0 {
			return nil, NewHTTPError(http.StatusBadRequest, fmt.Sprintf("products.%d.id invalid", i))
		}
		if err := pricing.ValidateQuantity(i, p.Quantity); err != nil {
			return nil, err
		}
		if j, ok := pos[p.ProductID]; ok {
			lines[j].Quantity += p.Quantity
			continue
		}
		pos[p.ProductID] = len(lines)
		lines = append(lines, p)
	}
	return lines, nil
}

func (u *OrderUsecase) ListMyOrders(ctx context.Context, buyerID int64, page, limit int) (OrderListOutput, error) {
	if buyerID <= 0 {
		return OrderListOutput{}, domain.ErrUnauthenticated
	}
	if page < 1 {
		return OrderListOutput{}, NewHTTPError(http.StatusBadRequest, "invalid page")
	}
	if limit < 1 || limit > 100 {
		return OrderListOutput{}, NewHTTPError(http.StatusBadRequest, "invalid limit")
	}

	out := OrderListOutput{Items: []OrderOutput{}, Page: page, Limit: limit}

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		orders, total, err := r.Orders().ListByUserID(ctx, buyerID, page, limit)
		if err != nil {
			return err
		}
		out.Total = total

		for _, o := range orders {
			items, err := r.OrderItems().ListByOrderID(ctx, o.ID)
			if err != nil {
				return err
			}
			out.Items = append(out.Items, toOrderOutput(o, items))
		}
		return nil
	})
	if err != nil {
		return OrderListOutput{}, domain.Persistence("list orders", err)
	}
	return out, nil
}

func (u *OrderUsecase) GetMyOrder(ctx context.Context, buyerID int64, orderID int64) (OrderOutput, error) {
	if buyerID <= 0 {
		return OrderOutput{}, domain.ErrUnauthenticated
	}
	if orderID <= 0 {
		return OrderOutput{}, domain.ErrOrderNotFound
	}

	var out OrderOutput

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		//他人の注文は「存在しない扱い」にする
		o, err := r.Orders().FindByIDForUser(ctx, orderID, buyerID)
		if errors.Is(err, repo.ErrNotFound) {
			return domain.ErrOrderNotFound
		}
		if err != nil {
			return err
		}

		items, err := r.OrderItems().ListByOrderID(ctx, orderID)
		if err != nil {
			return err
		}

		out = toOrderOutput(o, items)
		return nil
	})
	if err != nil {
		return OrderOutput{}, domain.Persistence("get order", err)
	}
	return out, nil
}

// UpdateMyOrder はステータスと住所だけ更新する（合計・明細は変えない）。
// cancelledへの変更では明細の数量を在庫に戻す。
func (u *OrderUsecase) UpdateMyOrder(ctx context.Context, buyerID int64, orderID int64, in UpdateOrderInput) (OrderOutput, error) {
	if buyerID <= 0 {
		return OrderOutput{}, domain.ErrUnauthenticated
	}
	if orderID <= 0 {
		return OrderOutput{}, domain.ErrOrderNotFound
	}

	var upd repo.OrderUpdate
	if in.Status != nil {
		st, ok := model.ParseOrderStatus(strings.TrimSpace(*in.Status))
		if !ok {
			return OrderOutput{}, NewHTTPError(http.StatusBadRequest, "invalid status")
		}
		upd.Status = &st
	}
	if in.ShippingAddress != nil {
		if strings.TrimSpace(*in.ShippingAddress) == "" {
			return OrderOutput{}, NewHTTPError(http.StatusBadRequest, "shipping_address must not be empty")
		}
		upd.ShippingAddress = in.ShippingAddress
	}
	if in.BillingAddress != nil {
		if strings.TrimSpace(*in.BillingAddress) == "" {
			return OrderOutput{}, NewHTTPError(http.StatusBadRequest, "billing_address must not be empty")
		}
		upd.BillingAddress = in.BillingAddress
	}
	if upd.IsEmpty() {
		return OrderOutput{}, NewHTTPError(http.StatusBadRequest, "nothing to update")
	}

	var (
		out       OrderOutput
		restocked []int64
	)

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		o, err := r.Orders().LockByIDForUser(ctx, orderID, buyerID)
		if errors.Is(err, repo.ErrNotFound) {
			return domain.ErrOrderNotFound
		}
		if err != nil {
			return err
		}

		items, err := r.OrderItems().ListByOrderID(ctx, orderID)
		if err != nil {
			return err
		}

		before := o.Status
		if upd.Status != nil {
			// 同じステータスなら何もしない
			if *upd.Status == o.Status {
				upd.Status = nil
			} else if !o.Status.CanTransitionTo(*upd.Status) {
				return &domain.InvalidStatusTransitionError{From: string(o.Status), To: string(*upd.Status)}
			}
		}

		if upd.Status != nil && *upd.Status == model.OrderStatusCancelled {
			for _, it := range items {
				if err := r.Inventory().Release(ctx, it.ProductID, it.Quantity); err != nil {
					return err
				}
				restocked = append(restocked, it.ProductID)
			}
		}

		if !upd.IsEmpty() {
			if err := r.Orders().Update(ctx, orderID, upd); err != nil {
				return err
			}
		}

		if upd.Status != nil {
			if err := r.AuditLogs().Create(ctx, model.AuditLog{
				ActorUserID:  buyerID,
				Action:       model.AuditActionUpdateOrderStatus,
				ResourceType: model.AuditResourceOrder,
				ResourceID:   orderID,
				BeforeJSON:   `{"status":"` + string(before) + `"}`,
				AfterJSON:    `{"status":"` + string(*upd.Status) + `"}`,
				CreatedAt:    u.now(),
			}); err != nil {
				return err
			}
		}

		updated, err := r.Orders().FindByIDForUser(ctx, orderID, buyerID)
		if err != nil {
			return err
		}
		out = toOrderOutput(updated, items)
		return nil
	})
	if err != nil {
		return OrderOutput{}, domain.Persistence("update order", err)
	}

	invalidateProducts(ctx, u.cache, restocked, "order_id", orderID)
	return out, nil
}

// 削除は在庫を戻さない
func (u *OrderUsecase) DeleteMyOrder(ctx context.Context, buyerID int64, orderID int64) error {
	if buyerID <= 0 {
		return domain.ErrUnauthenticated
	}
	if orderID <= 0 {
		return domain.ErrOrderNotFound
	}

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		if _, err := r.Orders().LockByIDForUser(ctx, orderID, buyerID); err != nil {
			if errors.Is(err, repo.ErrNotFound) {
				return domain.ErrOrderNotFound
			}
			return err
		}
		return r.Orders().Delete(ctx, orderID)
	})
	return domain.Persistence("delete order", err)
}
