package main

import (
	"context"
	"errors"
	"testing"
	"time"

	"activities-service/internal/common/config"
	"activities-service/internal/common/database"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestRetryWithBackoff(t *testing.T) {
	calls := 0
	err := retryWithBackoff(func() error {
		calls++
		if calls < 3 {
			return errors.New("not yet")
		}
		return nil
	}, 5, time.Millisecond, zaptest.NewLogger(t), "test operation")

	require.NoError(t, err)
	assert.Equal(t, 3, calls)

	err = retryWithBackoff(func() error {
		return errors.New("down")
	}, 2, time.Millisecond, zaptest.NewLogger(t), "test operation")
	assert.ErrorContains(t, err, "test operation failed after 2 attempts: down")
}

func TestConnectPostgres_OpensOnePoolAndClosesItOnFailure(t *testing.T) {
	var opened []*database.PostgresClient
	original := newPostgres
	newPostgres = func(cfg config.PostgresConfig) (*database.PostgresClient, error) {
		pg, err := original(cfg)
		if err == nil {
			opened = append(opened, pg)
		}
		return pg, err
	}
	t.Cleanup(func() { newPostgres = original })

	cfg := config.PostgresConfig{
		Host:           "127.0.0.1",
		Port:           1,
		User:           "activities",
		Password:       "secret",
		Database:       "activities",
		SSLMode:        "disable",
		MaxConnections: 2,
		MaxIdle:        1,
	}

	pg, err := connectPostgres(context.Background(), cfg, 3, time.Millisecond, zaptest.NewLogger(t))
	require.Error(t, err)
	assert.Nil(t, pg)

	require.Len(t, opened, 1)
	assert.ErrorContains(t, opened[0].Ping(context.Background()), "database is closed")
}
