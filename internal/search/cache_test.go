package search

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCacheSetGet(t *testing.T) {
	cache := newResultCache(time.Minute)

	cache.Set("query", []Result{{Title: "hit", Relevance: 0.9}})

	results, ok := cache.Get("query")
	require.True(t, ok)
	require.Len(t, results, 1)
	assert.Equal(t, "hit", results[0].Title)
}

func TestCacheMiss(t *testing.T) {
	cache := newResultCache(time.Minute)

	_, ok := cache.Get("never stored")
	assert.False(t, ok)
}

func TestCacheExpiry(t *testing.T) {
	cache := newResultCache(10 * time.Millisecond)

	cache.Set("query", []Result{{Title: "hit"}})

	time.Sleep(20 * time.Millisecond)

	_, ok := cache.Get("query")
	assert.False(t, ok)
}

func TestCacheOverwrite(t *testing.T) {
	cache := newResultCache(time.Minute)

	cache.Set("query", []Result{{Title: "old"}})
	cache.Set("query", []Result{{Title: "new"}})

	results, ok := cache.Get("query")
	require.True(t, ok)
	require.Len(t, results, 1)
	assert.Equal(t, "new", results[0].Title)
}
