// Package notification は注文確定後の通知（OrderPlaced）を非同期で配送する。
// 配送はベストエフォート。失敗しても注文は取り消さない。
package notification

import (
	"context"
	"time"

	"storefront/internal/domain/model"
	"storefront/internal/domain/pricing"

	"github.com/google/uuid"
)

type OrderPlaced struct {
	EventID    string        `json:"event_id"`
	OccurredAt time.Time     `json:"occurred_at"`
	Order      OrderSnapshot `json:"order"`
	Buyer      Buyer         `json:"buyer"`
}

type OrderSnapshot struct {
	ID              int64          `json:"id"`
	UserID          int64          `json:"user_id"`
	Status          string         `json:"status"`
	TotalAmount     string         `json:"total_amount"`
	ShippingAddress string         `json:"shipping_address"`
	BillingAddress  string         `json:"billing_address"`
	CreatedAt       time.Time      `json:"created_at"`
	Items           []LineSnapshot `json:"items"`
}

type LineSnapshot struct {
	ProductID       int64  `json:"product_id"`
	Name            string `json:"name"`
	Quantity        int64  `json:"quantity"`
	PriceAtPurchase string `json:"price_at_purchase"`
	Subtotal        string `json:"subtotal"`
}

type Buyer struct {
	ID    int64  `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

// 確定済みの注文（明細つき）と購入者からイベントを作る
func NewOrderPlaced(o model.Order, buyer model.User, now time.Time) OrderPlaced {
	items := make([]LineSnapshot, 0, len(o.Items))
	for _, it := range o.Items {
		items = append(items, LineSnapshot{
			ProductID:       it.ProductID,
			Name:            it.ProductNameSnapshot,
			Quantity:        it.Quantity,
			PriceAtPurchase: it.PriceAtPurchase.StringFixed(2),
			Subtotal:        pricing.Subtotal(it.PriceAtPurchase, it.Quantity).StringFixed(2),
		})
	}

	return OrderPlaced{
		EventID:    uuid.NewString(),
		OccurredAt: now.UTC(),
		Order: OrderSnapshot{
			ID:              o.ID,
			UserID:          o.UserID,
			Status:          string(o.Status),
			TotalAmount:     o.TotalAmount.StringFixed(2),
			ShippingAddress: o.ShippingAddress,
			BillingAddress:  o.BillingAddress,
			CreatedAt:       o.CreatedAt,
			Items:           items,
		},
		Buyer: Buyer{ID: buyer.ID, Email: buyer.Email, Name: buyer.Name},
	}
}

func (e OrderPlaced) TotalItems() int64 {
	var n int64
	for _, it := range e.Order.Items {
		n += it.Quantity
	}
	return n
}

// 配送先（Kafka / ログ）
type Publisher interface {
	Publish(ctx context.Context, ev OrderPlaced) error
}
