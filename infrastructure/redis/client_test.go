package redis_test

import (
	"context"
	"errors"
	"testing"

	"github.com/alicebob/miniredis/v2"

	"github.com/jonesrussell/sitelink-report/infrastructure/redis"
)

func TestNewClient_ReturnsErrorWhenAddressEmpty(t *testing.T) {
	client, err := redis.NewClient(context.Background(), redis.Config{})

	if !errors.Is(err, redis.ErrEmptyAddress) {
		t.Errorf("error = %v, want ErrEmptyAddress", err)
	}
	if client != nil {
		t.Error("expected nil client for invalid config")
	}
}

func TestNewClient_ConnectsToRedis(t *testing.T) {
	server := miniredis.RunT(t)

	client, err := redis.NewClient(context.Background(), redis.Config{Address: server.Addr()})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer client.Close()

	if pingErr := client.Ping(context.Background()).Err(); pingErr != nil {
		t.Errorf("ping failed: %v", pingErr)
	}
}

func TestNewClient_UnreachableServer(t *testing.T) {
	server := miniredis.RunT(t)
	addr := server.Addr()
	server.Close()

	if _, err := redis.NewClient(context.Background(), redis.Config{Address: addr}); err == nil {
		t.Fatal("expected ping error for closed server")
	}
}
