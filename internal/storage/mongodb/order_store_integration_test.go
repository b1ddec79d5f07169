package mongodb

import (
	"context"
	"errors"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/doceeser/orderboard/internal/domain"
)

func openOrderStoreForIntegrationTest(t *testing.T) domain.OrderStore {
	t.Helper()

	uri := strings.TrimSpace(os.Getenv("BOARD_MONGO_TEST_URI"))
	if uri == "" {
		t.Skip("BOARD_MONGO_TEST_URI is not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := Connect(ctx, uri, "orderboard_test")
	if err != nil {
		t.Skipf("mongodb is not available: %v", err)
	}
	t.Cleanup(func() {
		_ = client.Close(context.Background())
	})

	collection := "orders_" + strings.ReplaceAll(uuid.NewString(), "-", "")
	t.Cleanup(func() {
		_ = client.Database().Collection(collection).Drop(context.Background())
	})
	require.NoError(t, EnsureIndexes(ctx, client.Database().Collection(collection)))

	return NewOrderStore(client, collection, nil)
}

func TestOrderStore_MongoCreateListUpdate(t *testing.T) {
	store := openOrderStoreForIntegrationTest(t)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	base := time.Now().UTC().Truncate(time.Millisecond)
	_, err := store.Create(ctx, domain.Order{ID: "A", CreatedAt: base, Total: decimal.RequireFromString("9.90")})
	require.NoError(t, err)
	_, err = store.Create(ctx, domain.Order{ID: "B", CreatedAt: base.Add(time.Second)})
	require.NoError(t, err)

	_, err = store.Create(ctx, domain.Order{ID: "A"})
	require.ErrorIs(t, err, domain.ErrOrderExists)

	orders, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, orders, 2)
	require.Equal(t, "B", orders[0].ID)
	require.Equal(t, "A", orders[1].ID)
	require.True(t, orders[1].Total.Equal(decimal.RequireFromString("9.90")))

	require.NoError(t, store.UpdateStatus(ctx, "A", domain.OrderStatusReady))
	err = store.UpdateStatus(ctx, "missing", domain.OrderStatusReady)
	require.True(t, errors.Is(err, domain.ErrOrderNotFound))
}
