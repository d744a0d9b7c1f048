package caching

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/formflowhq/formflow-go/internal/infrastructure/observability/logging"
)

type fakeBackend struct {
	store   map[string]string
	getErr  error
	setErr  error
	getHits int
	setHits int
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{store: make(map[string]string)}
}

func (b *fakeBackend) Get(_ context.Context, key string) (string, error) {
	b.getHits++
	if b.getErr != nil {
		return "", b.getErr
	}
	v, ok := b.store[key]
	if !ok {
		return "", errors.New("key not found")
	}
	return v, nil
}

func (b *fakeBackend) Set(_ context.Context, key, value string, _ time.Duration) error {
	b.setHits++
	if b.setErr != nil {
		return b.setErr
	}
	b.store[key] = value
	return nil
}

func testLogger(t *testing.T) *logging.ChanneledLogger {
	t.Helper()
	cfg := logging.DefaultLoggerConfig()
	cfg.LogDirectory = t.TempDir()
	cfg.OutputToConsole = false
	logger, err := logging.NewChanneledLogger(cfg)
	if err != nil {
		t.Fatalf("failed to create logger: %v", err)
	}
	t.Cleanup(func() { logger.Close() })
	return logger
}

func TestGetOrCompute_MissComputesAndStores(t *testing.T) {
	backend := newFakeBackend()
	cache := NewAggregateCache(backend, 5*time.Minute, testLogger(t))

	computed := 0
	value, err := GetOrCompute(cache, context.Background(), "analytics:overview:f1", func() (int, error) {
		computed++
		return 42, nil
	})

	assert.NoError(t, err)
	assert.Equal(t, 42, value)
	assert.Equal(t, 1, computed)
	assert.Equal(t, "42", backend.store["analytics:overview:f1"])
}

func TestGetOrCompute_HitSkipsCompute(t *testing.T) {
	backend := newFakeBackend()
	backend.store["analytics:overview:f1"] = "7"
	cache := NewAggregateCache(backend, 5*time.Minute, testLogger(t))

	computed := 0
	value, err := GetOrCompute(cache, context.Background(), "analytics:overview:f1", func() (int, error) {
		computed++
		return 42, nil
	})

	assert.NoError(t, err)
	assert.Equal(t, 7, value)
	assert.Equal(t, 0, computed)
}

func TestGetOrCompute_BackendGetFailureFallsBackToCompute(t *testing.T) {
	backend := newFakeBackend()
	backend.getErr = errors.New("connection refused")
	cache := NewAggregateCache(backend, 5*time.Minute, testLogger(t))

	value, err := GetOrCompute(cache, context.Background(), "analytics:funnel:f1", func() (string, error) {
		return "fresh", nil
	})

	assert.NoError(t, err)
	assert.Equal(t, "fresh", value)
}

func TestGetOrCompute_BackendSetFailureIsSwallowed(t *testing.T) {
	backend := newFakeBackend()
	backend.setErr = errors.New("connection refused")
	cache := NewAggregateCache(backend, 5*time.Minute, testLogger(t))

	value, err := GetOrCompute(cache, context.Background(), "analytics:timeline:f1", func() (string, error) {
		return "fresh", nil
	})

	assert.NoError(t, err)
	assert.Equal(t, "fresh", value)
	assert.Equal(t, 1, backend.setHits)
}

func TestGetOrCompute_UndecodableEntryTreatedAsMiss(t *testing.T) {
	backend := newFakeBackend()
	backend.store["analytics:overview:f1"] = "{not json"
	cache := NewAggregateCache(backend, 5*time.Minute, testLogger(t))

	value, err := GetOrCompute(cache, context.Background(), "analytics:overview:f1", func() (int, error) {
		return 42, nil
	})

	assert.NoError(t, err)
	assert.Equal(t, 42, value)
	assert.Equal(t, "42", backend.store["analytics:overview:f1"])
}

func TestGetOrCompute_ComputeErrorSurfaces(t *testing.T) {
	backend := newFakeBackend()
	cache := NewAggregateCache(backend, 5*time.Minute, testLogger(t))

	_, err := GetOrCompute(cache, context.Background(), "analytics:overview:f1", func() (int, error) {
		return 0, errors.New("query failed")
	})

	assert.Error(t, err)
	assert.Equal(t, 0, backend.setHits)
}

func TestKeyBuilders(t *testing.T) {
	assert.Equal(t, "analytics:overview:f1", OverviewKey("f1"))
	assert.Equal(t, "analytics:funnel:f1", FunnelKey("f1"))
	assert.Equal(t, "analytics:timeline:f1", TimelineKey("f1"))
	assert.Equal(t, "analytics:dashboard:u1", DashboardKey("u1"))
}
