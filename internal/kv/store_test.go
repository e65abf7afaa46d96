package kv

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// exerciseStore runs the behaviour every backend must share.
func exerciseStore(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()

	_, err := s.Get(ctx, "lastCheckoutSession")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, s.Set(ctx, "lastCheckoutSession", "cs_1"))
	require.NoError(t, s.Set(ctx, "lastCheckoutSession", "cs_2"))
	v, err := s.Get(ctx, "lastCheckoutSession")
	require.NoError(t, err)
	assert.Equal(t, "cs_2", v)

	require.NoError(t, s.Remove(ctx, "lastCheckoutSession"))
	require.NoError(t, s.Remove(ctx, "lastCheckoutSession"), "removing a missing key is not an error")
	_, err = s.Get(ctx, "lastCheckoutSession")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStore(t *testing.T) {
	exerciseStore(t, NewMemoryStore())
}

func TestRedisStore(t *testing.T) {
	mr := miniredis.RunT(t)

	s, err := NewRedisStore("redis://"+mr.Addr()+"/0", "web-1")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	require.NoError(t, s.Ping(context.Background()))

	exerciseStore(t, s)

	require.NoError(t, s.Set(context.Background(), "adminToken", "tok"))
	got, err := mr.Get("web-1:adminToken")
	require.NoError(t, err)
	assert.Equal(t, "tok", got)
}

func TestRedisStoreNamespacesAreIsolated(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	a := NewRedisStoreWithClient(client, "a")
	b := NewRedisStoreWithClient(client, "b")
	ctx := context.Background()

	require.NoError(t, a.Set(ctx, "adminToken", "tok-a"))
	_, err := b.Get(ctx, "adminToken")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRedisStoreRejectsBadURL(t *testing.T) {
	_, err := NewRedisStore("not a url", "x")
	assert.Error(t, err)
}

var (
	selectSQL = regexp.QuoteMeta(`SELECT value FROM client_state WHERE namespace = $1 AND key = $2`)
	upsertSQL = regexp.QuoteMeta(`INSERT INTO client_state (namespace, key, value, updated_at)`)
	deleteSQL = regexp.QuoteMeta(`DELETE FROM client_state WHERE namespace = $1 AND key = $2`)
)

func TestPostgresStore(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	s := NewPostgresStore(mock, "web-1")
	ctx := context.Background()

	mock.ExpectQuery(selectSQL).WithArgs("web-1", "adminToken").WillReturnError(pgx.ErrNoRows)
	_, err = s.Get(ctx, "adminToken")
	assert.ErrorIs(t, err, ErrNotFound)

	mock.ExpectExec(upsertSQL).WithArgs("web-1", "adminToken", "tok").
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	require.NoError(t, s.Set(ctx, "adminToken", "tok"))

	mock.ExpectQuery(selectSQL).WithArgs("web-1", "adminToken").
		WillReturnRows(pgxmock.NewRows([]string{"value"}).AddRow("tok"))
	v, err := s.Get(ctx, "adminToken")
	require.NoError(t, err)
	assert.Equal(t, "tok", v)

	mock.ExpectExec(deleteSQL).WithArgs("web-1", "adminToken").
		WillReturnResult(pgxmock.NewResult("DELETE", 1))
	require.NoError(t, s.Remove(ctx, "adminToken"))

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStoreSurfacesDBErrors(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	s := NewPostgresStore(mock, "web-1")
	boom := errors.New("connection reset")

	mock.ExpectQuery(selectSQL).WithArgs("web-1", "k").WillReturnError(boom)
	_, err = s.Get(context.Background(), "k")
	assert.ErrorIs(t, err, boom)
	assert.NotErrorIs(t, err, ErrNotFound)

	mock.ExpectExec(upsertSQL).WithArgs("web-1", "k", "v").WillReturnError(boom)
	assert.ErrorIs(t, s.Set(context.Background(), "k", "v"), boom)

	require.NoError(t, mock.ExpectationsWereMet())
}
