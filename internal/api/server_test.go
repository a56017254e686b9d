package api

import (
	"context"
	"net"
	"net/http"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignite/ads-console/internal/config"
	"github.com/ignite/ads-console/internal/metrics"
	"github.com/ignite/ads-console/internal/storage"
)

// Starts the server on a real socket the way cmd/server does, hits
// /health, then shuts it down.
func TestServer_ServeAndShutdown(t *testing.T) {
	db, _, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	store := storage.New(db)
	ads := &fakeAds{}
	h := NewHandlers(store, ads, metrics.NewService(store, ads, nil, time.Hour, time.Minute))
	srv := NewServer(config.ServerConfig{}, h, nil)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	require.NoError(t, ln.Close())

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe(addr) }()

	var resp *http.Response
	require.Eventually(t, func() bool {
		r, getErr := http.Get("http://" + addr + "/health")
		if getErr != nil {
			return false
		}
		resp = r
		return true
	}, 2*time.Second, 10*time.Millisecond)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, srv.Shutdown(ctx))
	assert.ErrorIs(t, <-errCh, http.ErrServerClosed)
}
