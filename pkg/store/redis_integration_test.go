//go:build integration

package store

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
)

// Requires a Redis server; set CUTGRAPH_REDIS_ADDR to override localhost.
func TestRedisStore_Integration(t *testing.T) {
	addr := os.Getenv("CUTGRAPH_REDIS_ADDR")
	if addr == "" {
		addr = "localhost:6379"
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	s, err := NewRedisStore(ctx, RedisConfig{
		Addr:      addr,
		KeyPrefix: "cutgraph-test:" + uuid.NewString() + ":",
	})
	if err != nil {
		t.Skipf("redis not reachable: %v", err)
	}
	defer s.Close()

	runStoreTests(t, s)
}
