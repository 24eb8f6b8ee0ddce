package catalog

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func newTestCache(t *testing.T) (*Cache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewCache(client, time.Minute), mr
}

func TestReadThroughSharesConcurrentLoads(t *testing.T) {
	c, _ := newTestCache(t)
	var loads atomic.Int32
	release := make(chan struct{})
	load := func(context.Context) ([]Category, error) {
		loads.Add(1)
		<-release
		return []Category{{ID: "c1", Name: "Festive"}}, nil
	}

	var wg sync.WaitGroup
	results := make([][]Category, 4)
	errs := make([]error, 4)
	for i := range results {
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i], errs[i] = readThrough(context.Background(), c, "catalog:v0:categories", load)
		}()
	}
	require.Eventually(t, func() bool { return loads.Load() == 1 }, time.Second, time.Millisecond)
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	require.Less(t, loads.Load(), int32(4))
	for i, got := range results {
		require.NoError(t, errs[i])
		require.Equal(t, "Festive", got[0].Name)
	}

	// Served from Redis now.
	got, err := readThrough(context.Background(), c, "catalog:v0:categories", func(context.Context) ([]Category, error) {
		return nil, errors.New("should not load")
	})
	require.NoError(t, err)
	require.Len(t, got, 1)
}

func TestReadThroughReloadsUnreadableEntry(t *testing.T) {
	c, mr := newTestCache(t)
	require.NoError(t, mr.Set("catalog:v0:product:p1", "{not json"))

	got, err := readThrough(context.Background(), c, "catalog:v0:product:p1", func(context.Context) (Product, error) {
		return Product{ID: "p1", Name: "Zardozi Rakhi"}, nil
	})
	require.NoError(t, err)
	require.Equal(t, "Zardozi Rakhi", got.Name)

	stored, err := mr.Get("catalog:v0:product:p1")
	require.NoError(t, err)
	require.Contains(t, stored, "Zardozi Rakhi")
}

func TestReadThroughDoesNotCacheFailures(t *testing.T) {
	c, mr := newTestCache(t)
	_, err := readThrough(context.Background(), c, "catalog:v0:categories", func(context.Context) ([]Category, error) {
		return nil, errors.New("db down")
	})
	require.Error(t, err)
	require.False(t, mr.Exists("catalog:v0:categories"))
}

func TestBumpAdvancesVersion(t *testing.T) {
	c, _ := newTestCache(t)
	ctx := context.Background()
	v, err := c.Version(ctx)
	require.NoError(t, err)
	require.Zero(t, v)
	require.NoError(t, c.Bump(ctx))
	v, err = c.Version(ctx)
	require.NoError(t, err)
	require.EqualValues(t, 1, v)

	var disabled *Cache
	require.NoError(t, disabled.Bump(ctx))
}
