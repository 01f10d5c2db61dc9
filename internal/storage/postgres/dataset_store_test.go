package postgres_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"retail-anomaly-lab/internal/domain"
	"retail-anomaly-lab/internal/storage"
	"retail-anomaly-lab/internal/storage/postgres"
)

func testDataset() *domain.Dataset {
	return &domain.Dataset{
		Orders: []domain.OrderRow{
			{OrderID: "ord-1", CustomerID: "cust-1", Status: "delivered",
				PurchasedAt: time.Date(2018, 1, 10, 9, 30, 0, 0, time.UTC)},
			{OrderID: "ord-2", CustomerID: "cust-2", Status: "shipped",
				PurchasedAt: time.Date(2018, 1, 11, 14, 0, 0, 0, time.UTC)},
		},
		Items: []domain.OrderItemRow{
			{OrderID: "ord-1", ProductID: "prod-1", SellerID: "sel-1", Price: 120.50, Freight: 15.30},
			{OrderID: "ord-1", ProductID: "prod-2", SellerID: "sel-1", Price: 80, Freight: 10},
		},
		Payments: []domain.PaymentRow{
			{OrderID: "ord-1", Sequential: 1, Type: "credit_card", Installments: 3, Value: 225.80},
		},
		Customers: []domain.CustomerRow{
			{CustomerID: "cust-1", City: "sao paulo", State: "SP"},
		},
		Products: []domain.ProductRow{
			{ProductID: "prod-1", CategoryName: "informatica_acessorios"},
		},
		Sellers: []domain.SellerRow{
			{SellerID: "sel-1", City: "campinas", State: "SP"},
		},
	}
}

func TestDatasetStore_RoundTrip(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()

	err := postgres.NewLoader(pool).LoadDataset(ctx, testDataset())
	require.NoError(t, err)

	ds, err := postgres.NewDatasetStore(pool).Load(ctx)
	require.NoError(t, err)

	require.Len(t, ds.Orders, 2)
	require.Equal(t, "ord-1", ds.Orders[0].OrderID)
	require.Equal(t, "delivered", ds.Orders[0].Status)
	require.True(t, ds.Orders[0].PurchasedAt.Equal(time.Date(2018, 1, 10, 9, 30, 0, 0, time.UTC)))

	require.Len(t, ds.Items, 2)
	require.Equal(t, 120.50, ds.Items[0].Price)
	require.Equal(t, 15.30, ds.Items[0].Freight)

	require.Len(t, ds.Payments, 1)
	require.Equal(t, 3, ds.Payments[0].Installments)

	require.Len(t, ds.Customers, 1)
	require.Equal(t, "SP", ds.Customers[0].State)

	require.Len(t, ds.Products, 1)
	require.Equal(t, "informatica_acessorios", ds.Products[0].CategoryName)

	require.Len(t, ds.Sellers, 1)
	require.Equal(t, "campinas", ds.Sellers[0].City)
}

func TestLoader_DuplicateLoad(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	loader := postgres.NewLoader(pool)

	require.NoError(t, loader.LoadDataset(ctx, testDataset()))

	err := loader.LoadDataset(ctx, testDataset())
	require.ErrorIs(t, err, storage.ErrDuplicateKey)
}

func TestDatasetStore_MissingTable(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()

	require.NoError(t, postgres.NewLoader(pool).LoadDataset(ctx, testDataset()))

	_, err := pool.Exec(ctx, "DROP TABLE order_payments")
	require.NoError(t, err)

	_, err = postgres.NewDatasetStore(pool).Load(ctx)
	require.ErrorIs(t, err, storage.ErrMissingInput)
	require.Contains(t, err.Error(), "order_payments")
}

func TestDatasetStore_MissingOptionalTables(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()

	require.NoError(t, postgres.NewLoader(pool).LoadDataset(ctx, testDataset()))

	_, err := pool.Exec(ctx, "DROP TABLE products; DROP TABLE sellers")
	require.NoError(t, err)

	ds, err := postgres.NewDatasetStore(pool).Load(ctx)
	require.NoError(t, err)
	require.Nil(t, ds.Products)
	require.Nil(t, ds.Sellers)
}

func TestDatasetStore_EmptyTables(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ds, err := postgres.NewDatasetStore(pool).Load(context.Background())
	require.NoError(t, err)
	require.Empty(t, ds.Orders)
	require.Empty(t, ds.Items)
	require.Empty(t, ds.Payments)
	require.Empty(t, ds.Customers)
}
