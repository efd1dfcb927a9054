package messaging

import (
	"context"
	"fmt"
	"log/slog"

	"storefront/internal/notification"
)

// 管理者向け通知をログに出すだけのPublisher（ブローカー未設定時）
type LogPublisher struct {
	logger *slog.Logger
}

func NewLogPublisher(logger *slog.Logger) *LogPublisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogPublisher{logger: logger}
}

func (p *LogPublisher) Publish(ctx context.Context, ev notification.OrderPlaced) error {
	products := make([]map[string]any, 0, len(ev.Order.Items))
	for _, it := range ev.Order.Items {
		products = append(products, map[string]any{
			"id":       it.ProductID,
			"name":     it.Name,
			"quantity": it.Quantity,
			"price":    it.PriceAtPurchase,
		})
	}

	msg := fmt.Sprintf("ADMIN NOTIFICATION: New order placed! Order ID: %d, Customer: %s, Total Amount: $%s",
		ev.Order.ID, ev.Buyer.Name, ev.Order.TotalAmount)

	p.logger.InfoContext(ctx, msg,
		"event_id", ev.EventID,
		"order_id", ev.Order.ID,
		"user_id", ev.Order.UserID,
		"customer_name", ev.Buyer.Name,
		"customer_email", ev.Buyer.Email,
		"products", products,
		"total_items", ev.TotalItems(),
		"total_amount", ev.Order.TotalAmount,
		"shipping_address", ev.Order.ShippingAddress,
		"billing_address", ev.Order.BillingAddress,
		"status", ev.Order.Status,
		"created_at", ev.Order.CreatedAt.Format("2006-01-02 15:04:05"),
	)
	return nil
}
