package cache

import (
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCacheHelpers(t *testing.T) {
	mr := miniredis.RunT(t)
	SetClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
	t.Cleanup(func() { SetClient(nil) })

	assert.True(t, Available())

	require.NoError(t, Set("a", "b", time.Minute))
	v, err := Get("a")
	require.NoError(t, err)
	assert.Equal(t, "b", v)

	require.NoError(t, Set("n", 42, time.Minute))
	n, err := GetInt("n")
	require.NoError(t, err)
	assert.Equal(t, 42, n)

	require.NoError(t, Delete("a"))
	_, err = Get("a")
	assert.ErrorIs(t, err, redis.Nil)
}
