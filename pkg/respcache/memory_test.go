package respcache

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ai-airquality-be/pkg/classify"
	"ai-airquality-be/pkg/fallback"
)

func sampleResult(adapter string) *fallback.Result {
	return &fallback.Result{
		Successes: []fallback.Success{{Location: "jakarta", Adapter: adapter}},
	}
}

func TestMemoryStoreRoundTrip(t *testing.T) {
	store := NewMemoryStore(DefaultPolicy())
	ctx := context.Background()

	key := Key("air quality in jakarta", classify.Classification{Intent: classify.IntentRealTimeData})
	store.Put(ctx, key, classify.IntentRealTimeData, sampleResult("openaq"))

	got, hit := store.Get(ctx, key)
	require.True(t, hit)
	assert.Equal(t, "openaq", got.Successes[0].Adapter)
}

func TestMemoryStoreMiss(t *testing.T) {
	store := NewMemoryStore(DefaultPolicy())

	_, hit := store.Get(context.Background(), "nope")
	assert.False(t, hit)
}

func TestMemoryStoreExpiry(t *testing.T) {
	policy := DefaultPolicy()
	policy.RealTime = 10 * time.Millisecond
	store := NewMemoryStore(policy)
	ctx := context.Background()

	store.Put(ctx, "k", classify.IntentRealTimeData, sampleResult("openaq"))

	_, hit := store.Get(ctx, "k")
	require.True(t, hit)

	time.Sleep(20 * time.Millisecond)
	_, hit = store.Get(ctx, "k")
	assert.False(t, hit, "entry must not be returned past its TTL")
}

func TestMemoryStoreBypassPolicy(t *testing.T) {
	policy := DefaultPolicy()
	policy.BypassRealTime = true
	store := NewMemoryStore(policy)
	ctx := context.Background()

	store.Put(ctx, "rt", classify.IntentRealTimeData, sampleResult("openaq"))
	_, hit := store.Get(ctx, "rt")
	assert.False(t, hit, "real-time results must not be cached under bypass policy")

	// Educational answers still cache
	store.Put(ctx, "edu", classify.IntentEducational, sampleResult("openaq"))
	_, hit = store.Get(ctx, "edu")
	assert.True(t, hit)
}

func TestMemoryStoreCapEvictsOldest(t *testing.T) {
	policy := DefaultPolicy()
	policy.MaxEntries = 3
	store := NewMemoryStore(policy)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		store.Put(ctx, fmt.Sprintf("k%d", i), classify.IntentEducational, sampleResult("openaq"))
		time.Sleep(2 * time.Millisecond) // distinct creation times
	}

	store.Put(ctx, "k3", classify.IntentEducational, sampleResult("openaq"))

	_, hit := store.Get(ctx, "k0")
	assert.False(t, hit, "oldest entry must be evicted at the cap")
	_, hit = store.Get(ctx, "k3")
	assert.True(t, hit)
}

func TestKeyDeterministicAndDifferential(t *testing.T) {
	c1 := classify.Classify("Air quality in Jakarta now", nil)
	c2 := classify.Classify("air  quality in JAKARTA now", nil)

	assert.Equal(t, Key("Air quality in Jakarta now", c1), Key("air  quality in JAKARTA now", c2),
		"normalization must collapse case and whitespace")

	c3 := classify.Classify("air quality in london now", nil)
	assert.NotEqual(t, Key("air quality in jakarta now", c1), Key("air quality in london now", c3))
}
