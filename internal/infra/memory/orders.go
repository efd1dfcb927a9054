package memory

import (
	"cmp"
	"context"
	"slices"

	"storefront/internal/domain/model"
	repo "storefront/internal/repository"
)

type orderRepo struct{ *txRepos }

func (r *orderRepo) Create(_ context.Context, o model.Order) (int64, error) {
	now := r.now()
	o.ID = r.st.nextID("orders")
	o.Items = nil
	if o.CreatedAt.IsZero() {
		o.CreatedAt = now
	}
	o.UpdatedAt = now
	r.st.orders[o.ID] = o
	return o.ID, nil
}

func (r *orderRepo) FindByIDForUser(_ context.Context, orderID int64, userID int64) (model.Order, error) {
	o, ok := r.st.orders[orderID]
	if !ok || o.UserID != userID {
		return model.Order{}, repo.ErrNotFound
	}
	return o, nil
}

// Txが直列なので通常の取得と同じ
func (r *orderRepo) LockByIDForUser(ctx context.Context, orderID int64, userID int64) (model.Order, error) {
	return r.FindByIDForUser(ctx, orderID, userID)
}

func (r *orderRepo) ListByUserID(_ context.Context, userID int64, page int, limit int) ([]model.Order, int64, error) {
	var out []model.Order
	for _, o := range r.st.orders {
		if o.UserID == userID {
			out = append(out, o)
		}
	}
	slices.SortFunc(out, func(a, b model.Order) int { return cmp.Compare(b.ID, a.ID) })
	return paginate(out, page, limit), int64(len(out)), nil
}

func (r *orderRepo) Update(_ context.Context, orderID int64, upd repo.OrderUpdate) error {
	o, ok := r.st.orders[orderID]
	if !ok {
		return repo.ErrNotFound
	}
	if upd.IsEmpty() {
		return nil
	}
	if upd.Status != nil {
		o.Status = *upd.Status
	}
	if upd.ShippingAddress != nil {
		o.ShippingAddress = *upd.ShippingAddress
	}
	if upd.BillingAddress != nil {
		o.BillingAddress = *upd.BillingAddress
	}
	o.UpdatedAt = r.now()
	r.st.orders[orderID] = o
	return nil
}

func (r *orderRepo) Delete(_ context.Context, orderID int64) error {
	if _, ok := r.st.orders[orderID]; !ok {
		return repo.ErrNotFound
	}
	for id, it := range r.st.orderItems {
		if it.OrderID == orderID {
			delete(r.st.orderItems, id)
		}
	}
	delete(r.st.orders, orderID)
	return nil
}

type orderItemRepo struct{ *txRepos }

func (r *orderItemRepo) CreateBulk(_ context.Context, orderID int64, items []model.OrderItem) ([]model.OrderItem, error) {
	created := make([]model.OrderItem, 0, len(items))
	for _, it := range items {
		it.ID = r.st.nextID("order_items")
		it.OrderID = orderID
		if it.CreatedAt.IsZero() {
			it.CreatedAt = r.now()
		}
		r.st.orderItems[it.ID] = it
		created = append(created, it)
	}
	return created, nil
}

func (r *orderItemRepo) ListByOrderID(_ context.Context, orderID int64) ([]model.OrderItem, error) {
	out := []model.OrderItem{}
	for _, it := range r.st.orderItems {
		if it.OrderID == orderID {
			out = append(out, it)
		}
	}
	slices.SortFunc(out, func(a, b model.OrderItem) int { return cmp.Compare(a.ID, b.ID) })
	return out, nil
}
