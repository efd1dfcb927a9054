package memory

import (
	"cmp"
	"context"
	"slices"
	"strings"

	"storefront/internal/domain"
	"storefront/internal/domain/model"
	"storefront/internal/domain/pricing"
	repo "storefront/internal/repository"

	"gorm.io/gorm"
)

type productRepo struct{ *txRepos }

func (r *productRepo) ListActive(_ context.Context, q repo.ProductListQuery) ([]model.Product, int64, error) {
	category := strings.TrimSpace(q.Category)

	var out []model.Product
	for _, p := range r.st.products {
		if p.DeletedAt.Valid || !p.IsActive {
			continue
		}
		if category != "" && p.Category != category {
			continue
		}
		out = append(out, p)
	}
	slices.SortFunc(out, func(a, b model.Product) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(b.ID, a.ID)
	})

	return paginate(out, q.Page, q.Limit), int64(len(out)), nil
}

func (r *productRepo) FindByID(_ context.Context, id int64) (model.Product, error) {
	p, ok := r.st.products[id]
	if !ok || p.DeletedAt.Valid {
		return model.Product{}, repo.ErrNotFound
	}
	return p, nil
}

func (r *productRepo) Create(_ context.Context, p model.Product) (model.Product, error) {
	now := r.now()
	p.ID = r.st.nextID("products")
	p.CreatedAt = now
	p.UpdatedAt = now
	r.st.products[p.ID] = p
	return p, nil
}

func (r *productRepo) Update(_ context.Context, p model.Product) error {
	cur, ok := r.st.products[p.ID]
	if !ok || cur.DeletedAt.Valid {
		return repo.ErrNotFound
	}
	cur.Name = p.Name
	cur.Description = p.Description
	cur.Price = p.Price
	cur.Category = p.Category
	cur.ImageURL = p.ImageURL
	cur.IsActive = p.IsActive
	cur.UpdatedAt = r.now()
	r.st.products[p.ID] = cur
	return nil
}

func (r *productRepo) SoftDelete(_ context.Context, id int64) error {
	cur, ok := r.st.products[id]
	if !ok || cur.DeletedAt.Valid {
		return repo.ErrNotFound
	}
	cur.DeletedAt = gorm.DeletedAt{Time: r.now(), Valid: true}
	r.st.products[id] = cur
	return nil
}

func (r *productRepo) Seed(ctx context.Context, products []model.Product) error {
	if len(r.st.products) > 0 {
		return nil
	}
	for _, p := range products {
		if _, err := r.Create(ctx, p); err != nil {
			return err
		}
	}
	return nil
}

type inventoryRepo struct{ *txRepos }

// Tx自体が直列なので、読みと減算の間に他のTxは入らない
func (r *inventoryRepo) Reserve(_ context.Context, productID int64, qty int64) (repo.Reservation, error) {
	if qty <= 0 {
		return repo.Reservation{}, &pricing.InvalidLineItemError{Index: -1, Quantity: qty}
	}

	p, ok := r.st.products[productID]
	if !ok || p.DeletedAt.Valid || !p.IsActive {
		return repo.Reservation{}, &domain.ProductNotFoundError{ProductID: productID}
	}
	if p.Stock < qty {
		return repo.Reservation{}, &domain.InsufficientStockError{
			ProductID: productID,
			Available: p.Stock,
			Requested: qty,
		}
	}

	p.Stock -= qty
	p.UpdatedAt = r.now()
	r.st.products[productID] = p

	return repo.Reservation{
		ProductID: p.ID,
		Name:      p.Name,
		UnitPrice: p.Price,
		Quantity:  qty,
		Remaining: p.Stock,
	}, nil
}

func (r *inventoryRepo) CurrentStock(_ context.Context, productID int64) (int64, error) {
	p, ok := r.st.products[productID]
	if !ok || p.DeletedAt.Valid || !p.IsActive {
		return 0, repo.ErrNotFound
	}
	return p.Stock, nil
}

func (r *inventoryRepo) Release(_ context.Context, productID int64, qty int64) error {
	p, ok := r.st.products[productID]
	if !ok {
		return repo.ErrNotFound
	}
	p.Stock += qty
	p.UpdatedAt = r.now()
	r.st.products[productID] = p
	return nil
}

func (r *inventoryRepo) SetStock(_ context.Context, productID int64, newStock int64) (int64, error) {
	p, ok := r.st.products[productID]
	if !ok || p.DeletedAt.Valid {
		return 0, repo.ErrNotFound
	}
	before := p.Stock
	p.Stock = newStock
	p.UpdatedAt = r.now()
	r.st.products[productID] = p
	return before, nil
}

func (r *inventoryRepo) CreateAdjustment(_ context.Context, adj model.InventoryAdjustment) error {
	adj.ID = r.st.nextID("inventory_adjustments")
	if adj.CreatedAt.IsZero() {
		adj.CreatedAt = r.now()
	}
	r.st.adjustments = append(r.st.adjustments, adj)
	return nil
}
