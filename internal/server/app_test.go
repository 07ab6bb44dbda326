package server

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/dmitrijs2005/socialnet/internal/server/config"
	"github.com/dmitrijs2005/socialnet/internal/server/repositories/repomanager"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() *config.Config {
	c := &config.Config{}
	c.LoadDefaults()
	c.Storage = config.StorageMemory
	c.EndpointAddrHTTP = "127.0.0.1:0"
	c.EndpointAddrGRPC = "127.0.0.1:0"
	c.BcryptCost = 4
	return c
}

func TestNewApp_InvalidConfig(t *testing.T) {
	c := testConfig()
	c.Storage = "mongo"

	_, err := NewApp(context.Background(), c, &bytes.Buffer{})
	assert.Error(t, err)

	c = testConfig()
	c.RefreshTokenSecret = c.AccessTokenSecret
	_, err = NewApp(context.Background(), c, &bytes.Buffer{})
	assert.Error(t, err)
}

func TestOpenStore(t *testing.T) {
	c := testConfig()

	s, err := openStore(c)
	require.NoError(t, err)
	assert.IsType(t, &repomanager.MemoryRepositoryManager{}, s)

	mr := miniredis.RunT(t)
	c.Storage = config.StorageRedis
	c.RedisAddr = mr.Addr()
	s, err = openStore(c)
	require.NoError(t, err)
	assert.IsType(t, &repomanager.RedisRepositoryManager{}, s)
	assert.NoError(t, s.Ping(context.Background()))
	assert.NoError(t, s.Close())

	c.Storage = config.StoragePostgres
	s, err = openStore(c)
	require.NoError(t, err)
	assert.IsType(t, &repomanager.PostgresRepositoryManager{}, s)
	assert.NoError(t, s.Close())
}

func TestApp_RunStopsOnCancel(t *testing.T) {
	logs := &bytes.Buffer{}
	app, err := NewApp(context.Background(), testConfig(), logs)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		app.Run(ctx)
		close(done)
	}()

	time.Sleep(100 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(3 * time.Second):
		t.Fatal("app did not stop after cancel")
	}
}
