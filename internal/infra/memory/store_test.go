package memory_test

import (
	"context"
	"testing"

	"storefront/internal/domain/model"
	"storefront/internal/infra/memory"
	repo "storefront/internal/repository"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedProduct(t *testing.T, st *memory.Store, p model.Product) model.Product {
	t.Helper()
	var created model.Product
	require.NoError(t, st.WithinTx(context.Background(), func(r repo.TxRepos) error {
		var err error
		created, err = r.Products().Create(context.Background(), p)
		return err
	}))
	return created
}

func TestInventory_ReserveReportsRemaining(t *testing.T) {
	st := memory.NewStore()
	ctx := context.Background()
	p := seedProduct(t, st, model.Product{Name: "Mouse", Price: decimal.RequireFromString("10.00"), Stock: 5, IsActive: true})

	var res repo.Reservation
	require.NoError(t, st.WithinTx(ctx, func(r repo.TxRepos) error {
		var err error
		res, err = r.Inventory().Reserve(ctx, p.ID, 2)
		return err
	}))
	assert.Equal(t, int64(3), res.Remaining)
	assert.Equal(t, int64(2), res.Quantity)
	assert.True(t, res.UnitPrice.Equal(p.Price))

	var stock int64
	require.NoError(t, st.WithinTx(ctx, func(r repo.TxRepos) error {
		var err error
		stock, err = r.Inventory().CurrentStock(ctx, p.ID)
		return err
	}))
	assert.Equal(t, res.Remaining, stock)
}

func TestInventory_CurrentStockHidesRetiredProducts(t *testing.T) {
	st := memory.NewStore()
	ctx := context.Background()
	inactive := seedProduct(t, st, model.Product{Name: "Old", Price: decimal.NewFromInt(1), Stock: 4, IsActive: false})
	deleted := seedProduct(t, st, model.Product{Name: "Gone", Price: decimal.NewFromInt(1), Stock: 4, IsActive: true})
	require.NoError(t, st.WithinTx(ctx, func(r repo.TxRepos) error {
		return r.Products().SoftDelete(ctx, deleted.ID)
	}))

	for _, id := range []int64{inactive.ID, deleted.ID, 999} {
		err := st.WithinTx(ctx, func(r repo.TxRepos) error {
			_, err := r.Inventory().CurrentStock(ctx, id)
			return err
		})
		assert.ErrorIs(t, err, repo.ErrNotFound, "product %d", id)
	}
}

func TestAuditLogs_ListRejectsOutOfRangePage(t *testing.T) {
	st := memory.NewStore()
	ctx := context.Background()
	require.NoError(t, st.WithinTx(ctx, func(r repo.TxRepos) error {
		for i := 0; i < 3; i++ {
			if err := r.AuditLogs().Create(ctx, model.AuditLog{
				ActorUserID:  1,
				Action:       model.AuditActionUpdateStock,
				ResourceType: model.AuditResourceProduct,
				ResourceID:   int64(i + 1),
			}); err != nil {
				return err
			}
		}
		return nil
	}))

	for _, f := range []repo.AuditLogFilter{
		{Limit: 0},
		{Limit: repo.AuditLogMaxLimit + 1},
		{Limit: 10, Offset: -1},
	} {
		err := st.WithinTx(ctx, func(r repo.TxRepos) error {
			_, err := r.AuditLogs().List(ctx, f)
			return err
		})
		assert.ErrorIs(t, err, repo.ErrInvalidPage, "limit=%d offset=%d", f.Limit, f.Offset)
	}

	var logs []model.AuditLog
	require.NoError(t, st.WithinTx(ctx, func(r repo.TxRepos) error {
		var err error
		logs, err = r.AuditLogs().List(ctx, repo.AuditLogFilter{Limit: repo.AuditLogMaxLimit, Offset: 1})
		return err
	}))
	require.Len(t, logs, 2)
	assert.Equal(t, int64(2), logs[0].ResourceID)
	assert.Equal(t, int64(1), logs[1].ResourceID)
}
