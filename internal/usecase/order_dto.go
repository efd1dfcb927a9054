package usecase

import (
	"time"

	"storefront/internal/domain/model"
	"storefront/internal/domain/pricing"
)

type OrderLineInput struct {
	ProductID int64
	Quantity  int64
}

type PlaceOrderInput struct {
	Products        []OrderLineInput
	ShippingAddress string
	BillingAddress  string
}

type UpdateOrderInput struct {
	Status          *string
	ShippingAddress *string
	BillingAddress  *string
}

// 金額は小数2桁の文字列で返す
type OrderItemOutput struct {
	ProductID       int64  `json:"id"`
	Name            string `json:"name"`
	PriceAtPurchase string `json:"price_at_purchase"`
	Quantity        int64  `json:"quantity"`
	Subtotal        string `json:"subtotal"`
}

type OrderOutput struct {
	ID              int64             `json:"id"`
	UserID          int64             `json:"user_id"`
	Status          string            `json:"status"`
	TotalAmount     string            `json:"total_amount"`
	ShippingAddress string            `json:"shipping_address"`
	BillingAddress  string            `json:"billing_address"`
	CreatedAt       time.Time         `json:"created_at"`
	UpdatedAt       time.Time         `json:"updated_at"`
	Products        []OrderItemOutput `json:"products"`
}

type OrderListOutput struct {
	Items []OrderOutput `json:"items"`
	Total int64         `json:"total"`
	Page  int           `json:"page"`
	Limit int           `json:"limit"`
}

func toOrderOutput(o model.Order, items []model.OrderItem) OrderOutput {
	outItems := make([]OrderItemOutput, 0, len(items))
	for _, it := range items {
		outItems = append(outItems, OrderItemOutput{
			ProductID:       it.ProductID,
			Name:            it.ProductNameSnapshot,
			PriceAtPurchase: it.PriceAtPurchase.StringFixed(2),
			Quantity:        it.Quantity,
			Subtotal:        pricing.Subtotal(it.PriceAtPurchase, it.Quantity).StringFixed(2),
		})
	}

	return OrderOutput{
		ID:              o.ID,
		UserID:          o.UserID,
		Status:          string(o.Status),
		TotalAmount:     o.TotalAmount.StringFixed(2),
		ShippingAddress: o.ShippingAddress,
		BillingAddress:  o.BillingAddress,
		CreatedAt:       o.CreatedAt,
		UpdatedAt:       o.UpdatedAt,
		Products:        outItems,
	}
}
