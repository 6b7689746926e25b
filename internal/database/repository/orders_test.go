package repository

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/tmoreno/drivermate/internal/database"
	"github.com/tmoreno/drivermate/internal/orders"
)

func openRepo(t *testing.T) *OrderRepo {
	t.Helper()
	db, err := database.Open(filepath.Join(t.TempDir(), "cache.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, database.RunMigrations(db))
	return NewOrderRepo(db)
}

func TestReplaceAllSwapsSnapshot(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	repo := openRepo(t)

	first := []orders.Order{
		{ID: "1", Product: orders.Product{ID: "p1", Name: "Groceries"}, Quantity: 2, Status: "In Progress",
			DeliveryAddress: "12 Harbour St", User: &orders.Customer{Name: "Ana", Phone: "0400"}},
		{ID: "2", Product: orders.Product{ID: "p2", Name: "Flowers"}, Quantity: 1, Status: orders.StatusDelivered,
			DeliveryLatitude: "-37.8", DeliveryLongitude: "144.9"},
	}
	require.NoError(t, repo.ReplaceAll(ctx, "d-9", first))

	got, err := repo.ListByDriver(ctx, "d-9")
	require.NoError(t, err)
	require.Equal(t, first, got)

	// a later poll replaces the snapshot wholesale
	second := []orders.Order{{ID: "3", Product: orders.Product{ID: "p3", Name: "Books"}, Status: "Pending"}}
	require.NoError(t, repo.ReplaceAll(ctx, "d-9", second))

	got, err = repo.ListByDriver(ctx, "d-9")
	require.NoError(t, err)
	require.Equal(t, second, got)
}

func TestSnapshotsAreScopedByDriver(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	repo := openRepo(t)

	require.NoError(t, repo.ReplaceAll(ctx, "d-1", []orders.Order{{ID: "1", Status: "Pending"}}))
	require.NoError(t, repo.ReplaceAll(ctx, "d-2", []orders.Order{{ID: "2", Status: "Pending"}}))

	got, err := repo.ListByDriver(ctx, "d-1")
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, "1", got[0].ID)
}

func TestEmptySnapshotClearsCache(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	repo := openRepo(t)

	require.NoError(t, repo.ReplaceAll(ctx, "d-9", []orders.Order{{ID: "1", Status: "Pending"}}))
	require.NoError(t, repo.ReplaceAll(ctx, "d-9", nil))

	got, err := repo.ListByDriver(ctx, "d-9")
	require.NoError(t, err)
	require.Empty(t, got)
}
