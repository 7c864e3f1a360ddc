package cachemanager

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestNewInMemoryCacheManager(t *testing.T) {
	require.NotPanics(t, func() {
		NewInMemoryCacheManager[string, string]("test", DefaultExpiration, DefaultCleanupInterval)
	})
}

type exampleStruct struct {
	ID   int
	Name string
}

func TestInMemoryCacheManager_GetExistingValue_StructType(t *testing.T) {
	cache := NewInMemoryCacheManager[string, exampleStruct]("session-list", DefaultExpiration, DefaultCleanupInterval)
	example := exampleStruct{
		Name: "january restock",
	}
	cache.Set(context.Background(), "session:1", example, DefaultExpiration)

	got, ok := cache.Get(context.Background(), "session:1")
	require.True(t, ok)
	require.Equal(t, example, got)
}

func TestInMemoryCacheManager_GetExistingValue(t *testing.T) {
	cache := NewInMemoryCacheManager[string, string]("session-list", DefaultExpiration, DefaultCleanupInterval)
	cache.Set(context.Background(), "user", "user-1", DefaultExpiration)

	got, ok := cache.Get(context.Background(), "user")
	require.True(t, ok)
	require.Equal(t, "user-1", got)
}

func TestInMemoryCacheManager_GetWithNoExistingValue(t *testing.T) {
	cache := NewInMemoryCacheManager[string, string]("session-list", DefaultExpiration, DefaultCleanupInterval)

	got, ok := cache.Get(context.Background(), "user")
	require.False(t, ok)
	require.Empty(t, got)
}

func TestInMemoryCacheManager_GetWithExistingInvalidValueType(t *testing.T) {
	cache := NewInMemoryCacheManager[string, string]("session-list", DefaultExpiration, DefaultCleanupInterval)

	cache.cache.Set("user", 123, DefaultExpiration)

	got, ok := cache.Get(context.Background(), "user")
	require.False(t, ok)
	require.Empty(t, got)
}

func TestInMemoryCacheManager_GetWithRefreshExtendsTTL(t *testing.T) {
	cache := NewInMemoryCacheManager[string, string]("session-list", 50*time.Millisecond, DefaultCleanupInterval)
	cache.Set(context.Background(), "user", "user-1", 50*time.Millisecond)

	got, ok := cache.GetWithRefresh(context.Background(), "user", time.Minute)
	require.True(t, ok)
	require.Equal(t, "user-1", got)

	time.Sleep(80 * time.Millisecond)

	got, ok = cache.Get(context.Background(), "user")
	require.True(t, ok)
	require.Equal(t, "user-1", got)
}

func TestInMemoryCacheManager_DeleteRemovesKeys(t *testing.T) {
	cache := NewInMemoryCacheManager[string, string]("session-list", DefaultExpiration, DefaultCleanupInterval)
	cache.Set(context.Background(), "a", "1", DefaultExpiration)
	cache.Set(context.Background(), "b", "2", DefaultExpiration)

	require.NoError(t, cache.Delete(context.Background(), "a", "b"))

	_, ok := cache.Get(context.Background(), "a")
	require.False(t, ok)
	_, ok = cache.Get(context.Background(), "b")
	require.False(t, ok)
}

func TestInMemoryCacheManager_DeleteWithNoKeysDoesNothing(t *testing.T) {
	cache := NewInMemoryCacheManager[string, string]("session-list", DefaultExpiration, DefaultCleanupInterval)

	require.NoError(t, cache.Delete(context.Background()))
}

func TestInMemoryCacheManager_FlushDropsEverything(t *testing.T) {
	cache := NewInMemoryCacheManager[string, string]("session-list", DefaultExpiration, DefaultCleanupInterval)
	cache.Set(context.Background(), "a", "1", DefaultExpiration)

	require.NoError(t, cache.Flush(context.Background()))

	_, ok := cache.Get(context.Background(), "a")
	require.False(t, ok)
}
