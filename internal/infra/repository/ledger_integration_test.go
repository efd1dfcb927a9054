package repository_test

import (
	"context"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"storefront/internal/domain"
	"storefront/internal/domain/model"
	"storefront/internal/infra/cache"
	"storefront/internal/infra/db"
	infraRepo "storefront/internal/infra/repository"
	repo "storefront/internal/repository"
	"storefront/internal/usecase"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// INTEGRATION=1 のときだけ実コンテナのPostgresで動かす
func startPostgres(t *testing.T) *gorm.DB {
	t.Helper()
	if os.Getenv("INTEGRATION") != "1" {
		t.Skip("set INTEGRATION=1 to run postgres integration tests")
	}
	testcontainers.SkipIfProviderIsNotHealthy(t)

	ctx := context.Background()
	ctr, err := tcpostgres.Run(ctx, "postgres:16-alpine",
		tcpostgres.WithDatabase("storefront"),
		tcpostgres.WithUsername("postgres"),
		tcpostgres.WithPassword("postgres"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := ctr.Terminate(context.Background()); err != nil {
			t.Logf("terminate postgres: %v", err)
		}
	})

	dsn, err := ctr.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	gormDB, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger:                 logger.Default.LogMode(logger.Silent),
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)
	require.NoError(t, db.Migrate(gormDB))
	return gormDB
}

func seedLedger(t *testing.T, tx repo.TransactionManager, buyers int, price string, stock int64) ([]int64, int64) {
	t.Helper()
	ctx := context.Background()

	var (
		ids       []int64
		productID int64
	)
	require.NoError(t, tx.WithinTx(ctx, func(r repo.TxRepos) error {
		for i := 0; i < buyers; i++ {
			u := &model.User{
				Name:         fmt.Sprintf("buyer %d", i),
				Email:        fmt.Sprintf("buyer%d@example.com", i),
				PasswordHash: "x",
				Role:         model.RoleUser,
				IsActive:     true,
			}
			if err := r.Users().Create(ctx, u); err != nil {
				return err
			}
			ids = append(ids, u.ID)
		}
		p, err := r.Products().Create(ctx, model.Product{
			Name:     "Limited",
			Price:    decimal.RequireFromString(price),
			Stock:    stock,
			IsActive: true,
		})
		productID = p.ID
		return err
	}))
	return ids, productID
}

func currentStock(t *testing.T, tx repo.TransactionManager, productID int64) int64 {
	t.Helper()
	var s int64
	require.NoError(t, tx.WithinTx(context.Background(), func(r repo.TxRepos) error {
		p, err := r.Products().FindByID(context.Background(), productID)
		s = p.Stock
		return err
	}))
	return s
}

func TestLedger_ConcurrentPlacementNeverOversells(t *testing.T) {
	gormDB := startPostgres(t)
	tx := infraRepo.NewTxManagerGorm(gormDB, 5*time.Second, 10*time.Second)
	orders := usecase.NewOrderUsecase(tx, cache.NoopProductCache{}, nil)

	const stock = 5
	buyers, productID := seedLedger(t, tx, 20, "9.99", stock)

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
		short     int
	)
	for _, b := range buyers {
		wg.Add(1)
		go func(buyerID int64) {
			defer wg.Done()
			_, err := orders.PlaceOrder(context.Background(), buyerID, usecase.PlaceOrderInput{
				Products:        []usecase.OrderLineInput{{ProductID: productID, Quantity: 1}},
				ShippingAddress: "ship",
				BillingAddress:  "bill",
			})

			mu.Lock()
			defer mu.Unlock()
			var ise *domain.InsufficientStockError
			switch {
			case err == nil:
				succeeded++
			case assert.ErrorAs(t, err, &ise):
				short++
			}
		}(b)
	}
	wg.Wait()

	assert.Equal(t, stock, succeeded)
	assert.Equal(t, len(buyers)-stock, short)
	assert.Equal(t, int64(0), currentStock(t, tx, productID))
}

func TestLedger_RollbackRestoresEarlierReservations(t *testing.T) {
	gormDB := startPostgres(t)
	tx := infraRepo.NewTxManagerGorm(gormDB, 5*time.Second, 10*time.Second)
	orders := usecase.NewOrderUsecase(tx, cache.NoopProductCache{}, nil)

	buyers, first := seedLedger(t, tx, 1, "10.00", 10)
	_, second := seedLedger(t, tx, 0, "5.00", 1)

	_, err := orders.PlaceOrder(context.Background(), buyers[0], usecase.PlaceOrderInput{
		Products: []usecase.OrderLineInput{
			{ProductID: first, Quantity: 3},
			{ProductID: second, Quantity: 2},
		},
		ShippingAddress: "ship",
		BillingAddress:  "bill",
	})

	var ise *domain.InsufficientStockError
	require.ErrorAs(t, err, &ise)
	assert.Equal(t, second, ise.ProductID)
	assert.Equal(t, int64(10), currentStock(t, tx, first))
	assert.Equal(t, int64(1), currentStock(t, tx, second))

	list, err := orders.ListMyOrders(context.Background(), buyers[0], 1, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(0), list.Total)
}

// stock >= 0 のチェック制約
func TestLedger_StockCheckConstraint(t *testing.T) {
	gormDB := startPostgres(t)
	tx := infraRepo.NewTxManagerGorm(gormDB, 5*time.Second, 10*time.Second)
	_, productID := seedLedger(t, tx, 0, "1.00", 1)

	err := gormDB.Model(&model.Product{}).Where("id = ?", productID).Update("stock", -1).Error
	require.Error(t, err)
	assert.Equal(t, "constraint_violation", infraRepo.ClassifyError(err))
}

func TestLedger_ReserveReportsRemainingAndCurrentStock(t *testing.T) {
	gormDB := startPostgres(t)
	tx := infraRepo.NewTxManagerGorm(gormDB, 5*time.Second, 10*time.Second)
	_, productID := seedLedger(t, tx, 0, "3.00", 7)
	ctx := context.Background()

	var res repo.Reservation
	require.NoError(t, tx.WithinTx(ctx, func(r repo.TxRepos) error {
		var err error
		res, err = r.Inventory().Reserve(ctx, productID, 3)
		return err
	}))
	assert.Equal(t, int64(4), res.Remaining)

	var stock int64
	require.NoError(t, tx.WithinTx(ctx, func(r repo.TxRepos) error {
		var err error
		stock, err = r.Inventory().CurrentStock(ctx, productID)
		return err
	}))
	assert.Equal(t, int64(4), stock)

	require.NoError(t, tx.WithinTx(ctx, func(r repo.TxRepos) error {
		return r.Products().SoftDelete(ctx, productID)
	}))
	err := tx.WithinTx(ctx, func(r repo.TxRepos) error {
		_, err := r.Inventory().CurrentStock(ctx, productID)
		return err
	})
	assert.ErrorIs(t, err, repo.ErrNotFound)
}

func TestLedger_AuditLogListHonoursPage(t *testing.T) {
	gormDB := startPostgres(t)
	tx := infraRepo.NewTxManagerGorm(gormDB, 5*time.Second, 10*time.Second)
	ctx := context.Background()

	require.NoError(t, tx.WithinTx(ctx, func(r repo.TxRepos) error {
		for i := int64(1); i <= 3; i++ {
			if err := r.AuditLogs().Create(ctx, model.AuditLog{
				ActorUserID:  1,
				Action:       model.AuditActionUpdatePrice,
				ResourceType: model.AuditResourceProduct,
				ResourceID:   i,
			}); err != nil {
				return err
			}
		}
		return nil
	}))

	var logs []model.AuditLog
	require.NoError(t, tx.WithinTx(ctx, func(r repo.TxRepos) error {
		var err error
		logs, err = r.AuditLogs().List(ctx, repo.AuditLogFilter{Limit: 2, Offset: 0})
		return err
	}))
	require.Len(t, logs, 2)
	assert.Equal(t, int64(3), logs[0].ResourceID)

	err := tx.WithinTx(ctx, func(r repo.TxRepos) error {
		_, err := r.AuditLogs().List(ctx, repo.AuditLogFilter{Limit: repo.AuditLogMaxLimit + 1})
		return err
	})
	assert.ErrorIs(t, err, repo.ErrInvalidPage)
}
