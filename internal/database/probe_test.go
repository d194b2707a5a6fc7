package database

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func TestSQLProbe(t *testing.T) {
	db, err := gorm.Open(sqlite.Open("file:probe?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)

	probe := SQLProbe(db)
	require.NoError(t, probe(context.Background()))

	sqlDB, err := db.DB()
	require.NoError(t, err)
	require.NoError(t, sqlDB.Close())
	require.Error(t, probe(context.Background()))
}

func TestConnectRedisAndProbe(t *testing.T) {
	srv := miniredis.RunT(t)

	client, err := ConnectRedis(context.Background(), "redis://"+srv.Addr(), "")
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	probe := RedisProbe(client)
	require.NoError(t, probe(context.Background()))

	srv.Close()
	require.Error(t, probe(context.Background()))
}

func TestConnectRedisRejectsEmptyURL(t *testing.T) {
	_, err := ConnectRedis(context.Background(), "", "")
	require.Error(t, err)
}
