package db

import (
	"storefront/internal/domain/model"

	"github.com/shopspring/decimal"
)

// デモ用の商品
func SeedProducts() []model.Product {
	return []model.Product{
		{
			Name:        "Laptop Pro",
			Description: "High-performance laptop for professionals",
			Price:       decimal.RequireFromString("1299.99"),
			Stock:       50,
			IsActive:    true,
			Category:    "electronics",
			ImageURL:    "https://via.placeholder.com/300x200?text=Laptop+Pro",
		},
		{
			Name:        "Wireless Earbuds",
			Description: "Premium wireless earbuds with noise cancellation",
			Price:       decimal.RequireFromString("149.99"),
			Stock:       200,
			IsActive:    true,
			Category:    "electronics",
			ImageURL:    "https://via.placeholder.com/300x200?text=Wireless+Earbuds",
		},
		{
			Name:        "Smart Watch",
			Description: "Fitness tracker with heart rate monitoring",
			Price:       decimal.RequireFromString("199.99"),
			Stock:       75,
			IsActive:    true,
			Category:    "electronics",
			ImageURL:    "https://via.placeholder.com/300x200?text=Smart+Watch",
		},
		{
			Name:        "Coffee Maker",
			Description: "Programmable coffee maker with 12-cup capacity",
			Price:       decimal.RequireFromString("49.99"),
			Stock:       120,
			IsActive:    true,
			Category:    "home",
			ImageURL:    "https://via.placeholder.com/300x200?text=Coffee+Maker",
		},
		{
			Name:        "Desk Chair",
			Description: "Ergonomic office chair with lumbar support",
			Price:       decimal.RequireFromString("299.99"),
			Stock:       30,
			IsActive:    true,
			Category:    "furniture",
			ImageURL:    "https://via.placeholder.com/300x200?text=Desk+Chair",
		},
	}
}
