package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// 注文時点の価格・商品名を凍結して保存する
type OrderItem struct {
	ID                  int64           `gorm:"primaryKey;autoIncrement" json:"id"`
	OrderID             int64           `gorm:"not null;index" json:"order_id"`
	ProductID           int64           `gorm:"not null;index" json:"product_id"`
	ProductNameSnapshot string          `gorm:"type:varchar(255);not null" json:"product_name_snapshot"`
	PriceAtPurchase     decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"price_at_purchase"`
	Quantity            int64           `gorm:"not null;check:chk_order_items_quantity_positive,quantity >= 1" json:"quantity"`
	CreatedAt           time.Time       `gorm:"not null;autoCreateTime" json:"created_at"`
}
