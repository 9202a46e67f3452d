package mysql

import (
	"context"
	"errors"
	"testing"
	"time"

	"order-lifecycle/internal/domain"
	"order-lifecycle/internal/repository"

	"github.com/glebarez/sqlite"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Discard})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	// every connection to :memory: is a separate database
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, Migrate(db))
	return db
}

func newRepos(t *testing.T) (repository.OrderRepository, repository.ProductRepository) {
	db := newTestDB(t)
	return NewOrderRepository(db, zerolog.Nop()), NewProductRepository(db, zerolog.Nop())
}

func testOrder(id, buyer string, status domain.OrderStatus, createdAt time.Time, items ...domain.OrderItem) *domain.Order {
	return &domain.Order{ID: id, BuyerID: buyer, Status: status, CreatedAt: createdAt, Items: items}
}

func TestOrderRepo_SaveAndFind(t *testing.T) {
	ctx := context.Background()
	orders, _ := newRepos(t)

	base := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
	o := testOrder("o-1", "buyer-1", domain.StatusPending, base,
		domain.OrderItem{ID: "i-2", ProductID: "p-b", Quantity: 2},
		domain.OrderItem{ID: "i-1", ProductID: "p-a", Quantity: 1},
	)
	require.NoError(t, orders.Save(ctx, o))

	got, err := orders.FindByID(ctx, "o-1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "buyer-1", got.BuyerID)
	assert.Equal(t, domain.StatusPending, got.Status)
	require.Len(t, got.Items, 2)
	// checkout order is kept, not id order
	assert.Equal(t, "i-2", got.Items[0].ID)
	assert.Equal(t, "o-1", got.Items[0].OrderID)
	assert.Equal(t, "i-1", got.Items[1].ID)

	missing, err := orders.FindByID(ctx, "nope")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestOrderRepo_Queries(t *testing.T) {
	ctx := context.Background()
	orders, _ := newRepos(t)

	base := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
	require.NoError(t, orders.Save(ctx, testOrder("o-3", "buyer-1", domain.StatusDone, base.Add(2*time.Minute))))
	require.NoError(t, orders.Save(ctx, testOrder("o-2", "buyer-2", domain.StatusProcessing, base.Add(time.Minute))))
	require.NoError(t, orders.Save(ctx, testOrder("o-1", "buyer-1", domain.StatusPending, base)))

	notFinished, err := orders.FindNotFinished(ctx)
	require.NoError(t, err)
	require.Len(t, notFinished, 2)
	assert.Equal(t, "o-1", notFinished[0].ID)
	assert.Equal(t, "o-2", notFinished[1].ID)
	for _, o := range notFinished {
		assert.NotEqual(t, domain.StatusDone, o.Status)
	}

	byBuyer, err := orders.FindByBuyerID(ctx, "buyer-1")
	require.NoError(t, err)
	require.Len(t, byBuyer, 2)
	assert.Equal(t, "o-1", byBuyer[0].ID)
	assert.Equal(t, "o-3", byBuyer[1].ID)

	byIDs, err := orders.FindByIDs(ctx, []string{"o-3", "o-2", "missing"})
	require.NoError(t, err)
	assert.Len(t, byIDs, 2)

	none, err := orders.FindByIDs(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, none)

	all, err := orders.FindAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestOrderRepo_UpdateStatus(t *testing.T) {
	ctx := context.Background()
	base := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)

	tests := []struct {
		name          string
		from, to      domain.OrderStatus
		decrements    []domain.StockDecrement
		orderID       string
		expectedErr   func(t *testing.T, err error)
		expectedState domain.OrderStatus
		expectedStock map[string]int64
	}{
		{
			name:          "processing decrements stock",
			orderID:       "o-1",
			from:          domain.StatusPending,
			to:            domain.StatusProcessing,
			decrements:    []domain.StockDecrement{{ProductID: "p-a", Quantity: 3}, {ProductID: "p-b", Quantity: 5}},
			expectedState: domain.StatusProcessing,
			expectedStock: map[string]int64{"p-a": 7, "p-b": 0},
		},
		{
			name:          "insufficient stock rolls back the status",
			orderID:       "o-1",
			from:          domain.StatusPending,
			to:            domain.StatusProcessing,
			decrements:    []domain.StockDecrement{{ProductID: "p-a", Quantity: 3}, {ProductID: "p-b", Quantity: 6}},
			expectedState: domain.StatusPending,
			expectedStock: map[string]int64{"p-a": 10, "p-b": 5},
			expectedErr: func(t *testing.T, err error) {
				var stockErr *domain.InsufficientStockError
				require.True(t, errors.As(err, &stockErr))
				assert.Equal(t, "p-b", stockErr.ProductID)
				assert.Equal(t, int64(6), stockErr.Requested)
				assert.Equal(t, int64(5), stockErr.Available)
			},
		},
		{
			name:          "missing product rolls back the status",
			orderID:       "o-1",
			from:          domain.StatusPending,
			to:            domain.StatusProcessing,
			decrements:    []domain.StockDecrement{{ProductID: "p-a", Quantity: 1}, {ProductID: "p-x", Quantity: 1}},
			expectedState: domain.StatusPending,
			expectedStock: map[string]int64{"p-a": 10, "p-b": 5},
			expectedErr: func(t *testing.T, err error) {
				var notFound *domain.ProductNotFoundError
				require.True(t, errors.As(err, &notFound))
				assert.Equal(t, "p-x", notFound.ProductID)
			},
		},
		{
			name:          "stale from status is a conflict",
			orderID:       "o-1",
			from:          domain.StatusProcessing,
			to:            domain.StatusDone,
			expectedState: domain.StatusPending,
			expectedStock: map[string]int64{"p-a": 10, "p-b": 5},
			expectedErr: func(t *testing.T, err error) {
				assert.ErrorIs(t, err, domain.ErrTransitionConflict)
			},
		},
		{
			name:    "unknown order",
			orderID: "o-missing",
			from:    domain.StatusPending,
			to:      domain.StatusProcessing,
			expectedErr: func(t *testing.T, err error) {
				assert.ErrorIs(t, err, domain.ErrOrderNotFound)
			},
			expectedState: domain.StatusPending,
			expectedStock: map[string]int64{"p-a": 10, "p-b": 5},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			orders, products := newRepos(t)
			require.NoError(t, products.SaveAll(ctx, []domain.Product{
				{ID: "p-a", Title: "A", Stock: 10},
				{ID: "p-b", Title: "B", Stock: 5},
			}))
			require.NoError(t, orders.Save(ctx, testOrder("o-1", "buyer-1", domain.StatusPending, base)))

			err := orders.UpdateStatus(ctx, tt.orderID, tt.from, tt.to, tt.decrements)
			if tt.expectedErr != nil {
				require.Error(t, err)
				tt.expectedErr(t, err)
			} else {
				require.NoError(t, err)
			}

			got, err := orders.FindByID(ctx, "o-1")
			require.NoError(t, err)
			assert.Equal(t, tt.expectedState, got.Status)

			stored, err := products.FindByIDs(ctx, []string{"p-a", "p-b"})
			require.NoError(t, err)
			for _, p := range stored {
				assert.Equal(t, tt.expectedStock[p.ID], p.Stock, p.ID)
			}
		})
	}
}

func TestOrderRepo_DeleteByID(t *testing.T) {
	ctx := context.Background()
	orders, _ := newRepos(t)
	require.NoError(t, orders.Save(ctx, testOrder("o-1", "buyer-1", domain.StatusPending, time.Now(),
		domain.OrderItem{ID: "i-1", ProductID: "p-a", Quantity: 1})))

	n, err := orders.DeleteByID(ctx, "o-1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	got, err := orders.FindByID(ctx, "o-1")
	require.NoError(t, err)
	assert.Nil(t, got)

	n, err = orders.DeleteByID(ctx, "o-1")
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)
}

func TestProductRepo_SaveAllUpserts(t *testing.T) {
	ctx := context.Background()
	_, products := newRepos(t)

	require.NoError(t, products.SaveAll(ctx, []domain.Product{{ID: "p-a", Title: "A", Stock: 1}}))
	require.NoError(t, products.SaveAll(ctx, []domain.Product{{ID: "p-a", Title: "A2", Stock: 9}, {ID: "p-b", Stock: 2}}))
	require.NoError(t, products.SaveAll(ctx, nil))

	got, err := products.FindByIDs(ctx, []string{"p-a", "p-b", "p-c"})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "A2", got[0].Title)
	assert.Equal(t, int64(9), got[0].Stock)
	assert.Equal(t, int64(2), got[1].Stock)
}
