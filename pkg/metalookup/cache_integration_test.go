//go:build integration

package metalookup

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// setupRedisContainer starts a Redis container and returns a client.
func setupRedisContainer(t *testing.T) (*redis.Client, func()) {
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "redis:7-alpine",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForLog("Ready to accept connections"),
	}

	redisContainer, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		t.Fatalf("Failed to start Redis container: %v", err)
	}

	endpoint, err := redisContainer.Endpoint(ctx, "")
	if err != nil {
		t.Fatalf("Failed to get Redis endpoint: %v", err)
	}

	client := redis.NewClient(&redis.Options{Addr: endpoint})
	if err := client.Ping(ctx).Err(); err != nil {
		t.Fatalf("Failed to connect to Redis: %v", err)
	}

	cleanup := func() {
		client.Close()
		redisContainer.Terminate(ctx)
	}

	return client, cleanup
}

func TestCache_Integration_Roundtrip(t *testing.T) {
	client, cleanup := setupRedisContainer(t)
	defer cleanup()

	cache := NewCache(client)
	ctx := context.Background()

	entry := &Entry{
		Data:     []byte(`{"name":"Integration Game","rating":82.5}`),
		Expires:  time.Now().Add(time.Hour),
		CachedAt: time.Now(),
	}

	if err := cache.Set(ctx, "Integration Game", entry); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	retrieved, err := cache.Get(ctx, "integration game")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if string(retrieved.Data) != string(entry.Data) {
		t.Errorf("Data mismatch: got %s", retrieved.Data)
	}
}

func TestCache_Integration_TTLEviction(t *testing.T) {
	client, cleanup := setupRedisContainer(t)
	defer cleanup()

	cache := NewCache(client)
	ctx := context.Background()

	entry := &Entry{
		Data:     []byte(`{}`),
		Expires:  time.Now().Add(2 * time.Second),
		CachedAt: time.Now(),
	}

	if err := cache.Set(ctx, "short-lived", entry); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if _, err := cache.Get(ctx, "short-lived"); err != nil {
		t.Fatalf("Get before expiry failed: %v", err)
	}

	time.Sleep(3 * time.Second)

	if _, err := cache.Get(ctx, "short-lived"); err != ErrCacheMiss {
		t.Errorf("Expected ErrCacheMiss after TTL, got %v", err)
	}
}
