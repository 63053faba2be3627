package redis

import (
	"context"
	"fmt"
	"testing"

	miniredis "github.com/alicebob/miniredis/v2"
)

func TestNewClient(t *testing.T) {
	mr := miniredis.RunT(t)
	ctx := context.Background()

	client, err := NewClient(ctx, fmt.Sprintf("redis://%s", mr.Addr()))
	if err != nil {
		t.Fatalf("expected client, got error: %v", err)
	}
	defer client.Close()

	if err := client.Ping(ctx).Err(); err != nil {
		t.Fatalf("ping failed: %v", err)
	}
}

func TestNewClientInvalidURL(t *testing.T) {
	if _, err := NewClient(context.Background(), "://bad-url"); err == nil {
		t.Fatalf("expected error for invalid URL")
	}
}

func TestNewClientUnreachableServer(t *testing.T) {
	mr := miniredis.RunT(t)
	url := fmt.Sprintf("redis://%s", mr.Addr())
	mr.Close()

	if _, err := NewClient(context.Background(), url); err == nil {
		t.Fatalf("expected ping error when server is down")
	}
}
