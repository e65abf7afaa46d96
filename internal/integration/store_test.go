//go:build integration

package integration

import (
	"context"
	"testing"
	"time"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/checkout"
	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/db"
	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/kv"
	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/testutil"
)

func TestPostgresStorePersistsPendingSession(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	t.Cleanup(cancel)

	dsn := testutil.StartPostgres(ctx, t)
	logger, _ := test.NewNullLogger()
	require.NoError(t, db.RunMigrations(dsn, logger))
	// a second run is a no-op
	require.NoError(t, db.RunMigrations(dsn, logger))

	pool, err := db.NewPool(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	shopA := checkout.NewSessionStore(kv.NewPostgresStore(pool, "shop-a"))
	shopB := kv.NewPostgresStore(pool, "shop-b")

	createdAt := time.UnixMilli(time.Now().UnixMilli())
	require.NoError(t, shopA.Save(ctx, checkout.PendingSession{SessionID: "cs_1", CreatedAt: createdAt}))
	require.NoError(t, shopA.Save(ctx, checkout.PendingSession{SessionID: "cs_2", CreatedAt: createdAt}))

	got, ok, err := shopA.Load(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "cs_2", got.SessionID)
	assert.True(t, got.CreatedAt.Equal(createdAt))

	_, err = shopB.Get(ctx, checkout.KeySessionID)
	assert.ErrorIs(t, err, kv.ErrNotFound)

	require.NoError(t, shopA.Discard(ctx))
	_, ok, err = shopA.Load(ctx)
	require.NoError(t, err)
	assert.False(t, ok)
}
