//go:build integration

package worker

// Run with: go test -tags integration ./internal/worker/... -v

import (
	"context"
	"encoding/json"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Ranjel272/POSBF/internal/infra"
	"github.com/Ranjel272/POSBF/internal/model"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tcRedis "github.com/testcontainers/testcontainers-go/modules/redis"
)

func startRedis(t *testing.T) *redis.Client {
	t.Helper()
	ctx := context.Background()
	c, err := tcRedis.Run(ctx, "redis:7-alpine")
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Terminate(ctx) })

	url, err := c.ConnectionString(ctx)
	require.NoError(t, err)
	rdb, err := infra.NewRedis(url)
	require.NoError(t, err)
	t.Cleanup(func() { _ = rdb.Close() })
	return rdb
}

type countingHandler struct {
	calls atomic.Int32
	err   error
}

func (h *countingHandler) Handle(context.Context, json.RawMessage) error {
	h.calls.Add(1)
	return h.err
}

func TestPool_ProcessesQueuedAudit(t *testing.T) {
	rdb := startRedis(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	h := &countingHandler{}
	StartWorkerPool(ctx, rdb, map[string]JobHandler{JobTypeAudit: h}, 1)

	d := NewDispatcher(rdb)
	require.NoError(t, d.EnqueueAudit(ctx, &model.AccountEvent{AccountID: uuid.New(), Type: model.EventAccountCreated}))

	assert.Eventually(t, func() bool { return h.calls.Load() == 1 }, 10*time.Second, 50*time.Millisecond)
}

func TestPool_DeadLettersAfterMaxAttempts(t *testing.T) {
	rdb := startRedis(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	h := &countingHandler{err: errors.New("db down")}
	StartWorkerPool(ctx, rdb, map[string]JobHandler{JobTypeAudit: h}, 1)

	require.NoError(t, NewDispatcher(rdb).EnqueueAudit(ctx, &model.AccountEvent{Type: model.EventAccountDisabled}))

	assert.Eventually(t, func() bool {
		n, err := DLQLength(ctx, rdb, QueueAudit)
		return err == nil && n == 1
	}, 15*time.Second, 100*time.Millisecond)
	assert.EqualValues(t, maxAttempts, h.calls.Load())
}

func TestPool_PermanentFailureSkipsRetry(t *testing.T) {
	rdb := startRedis(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	h := &countingHandler{err: Permanent(errors.New("bad payload"))}
	StartWorkerPool(ctx, rdb, map[string]JobHandler{JobTypeAudit: h}, 1)

	require.NoError(t, NewDispatcher(rdb).EnqueueAudit(ctx, &model.AccountEvent{Type: model.EventAccountUpdated}))

	assert.Eventually(t, func() bool {
		n, err := DLQLength(ctx, rdb, QueueAudit)
		return err == nil && n == 1
	}, 10*time.Second, 100*time.Millisecond)
	assert.EqualValues(t, 1, h.calls.Load())
}
