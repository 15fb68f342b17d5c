package cache

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
)

type entry struct {
	Title string `json:"title"`
}

func TestHashKey(t *testing.T) {
	a := HashKey("egg,milk", "5")
	b := HashKey("egg,milk", "5")
	c := HashKey("egg", "milk,5")

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.Len(t, a, 64)
}

func TestRedisCache_NilClient(t *testing.T) {
	ctx := context.Background()
	c := NewRedisCache[[]entry](nil, "lookup:", time.Hour)

	_, ok := c.Get(ctx, "k")
	assert.False(t, ok)
	assert.NoError(t, c.Set(ctx, "k", []entry{{Title: "soup"}}))
	assert.NoError(t, c.Delete(ctx, "k"))
}

func TestRedisCache_UnreachableServerIsAMiss(t *testing.T) {
	ctx := context.Background()
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 50 * time.Millisecond,
		MaxRetries:  -1,
	})
	defer client.Close()

	c := NewRedisCache[entry](client, "lookup:", time.Hour)

	_, ok := c.Get(ctx, "k")
	assert.False(t, ok)
	assert.NoError(t, c.Set(ctx, "k", entry{Title: "soup"}))
	assert.NoError(t, c.Delete(ctx, "k"))
}

func TestRedisCache_ImplementsCache(t *testing.T) {
	var _ Cache[entry] = NewRedisCache[entry](nil, "p:", time.Minute)
}
