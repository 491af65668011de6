package cache

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeys(t *testing.T) {
	assert.Equal(t, "user:2Nk", UserKey("2Nk"))
	assert.Equal(t, "post:42", PostKey(42))
}

func TestNewUsesTTL(t *testing.T) {
	rc := New("localhost:0", 3, 300)
	defer rc.Cli.Close()
	assert.Equal(t, 5*time.Minute, rc.TTL)
	assert.Equal(t, 3, rc.Cli.Options().DB)
}

func TestFetchUnreachable(t *testing.T) {
	rc := &RedisCache{
		Cli: redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", DialTimeout: 50 * time.Millisecond, MaxRetries: -1}),
		TTL: time.Second,
	}
	defer rc.Cli.Close()

	var v map[string]string
	err := rc.Fetch(context.Background(), "user:x", &v)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrMiss)
}
