package cache

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	_, found, err := store.Get(ctx, AccessKey("u1"))
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, store.Set(ctx, AccessKey("u1"), "v1"))
	require.NoError(t, store.Set(ctx, AccessKey("u1"), "v2"))
	val, found, err := store.Get(ctx, AccessKey("u1"))
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "v2", val)

	ok, err := store.SetIfAbsent(ctx, ReverseTrialStartKey("u1"), "a")
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = store.SetIfAbsent(ctx, ReverseTrialStartKey("u1"), "b")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, store.Delete(ctx, AccessKey("u1")))
	_, found, err = store.Get(ctx, AccessKey("u1"))
	require.NoError(t, err)
	assert.False(t, found)
}

func TestKeys(t *testing.T) {
	assert.Equal(t, "access:42", AccessKey("42"))
	assert.Equal(t, "reverse_trial_start:42", ReverseTrialStartKey("42"))
	assert.Equal(t, "beta_coupon:42", BetaCouponKey("42"))
}
