package pubsub

import (
	"context"
	"testing"

	"github.com/angelmondragon/storefront-backend/pkg/config"
)

func TestResourceNames(t *testing.T) {
	c := &Client{projectID: "shop-prod"}

	if got := c.topicResourceName(" storefront-order-events "); got != "projects/shop-prod/topics/storefront-order-events" {
		t.Fatalf("unexpected topic name %q", got)
	}
	full := "projects/other/topics/orders"
	if got := c.topicResourceName(full); got != full {
		t.Fatalf("full topic names must pass through, got %q", got)
	}
	if got := c.subscriptionResourceName("orders-sub"); got != "projects/shop-prod/subscriptions/orders-sub" {
		t.Fatalf("unexpected subscription name %q", got)
	}
	if got := c.subscriptionResourceName(""); got != "" {
		t.Fatalf("blank names resolve to empty, got %q", got)
	}

	var nilClient *Client
	if nilClient.topicResourceName("x") != "" || nilClient.Publisher("x") != nil {
		t.Fatal("nil client must resolve nothing")
	}
}

func TestNewClientRequiresProject(t *testing.T) {
	_, err := NewClient(context.Background(), config.GCPConfig{}, config.PubSubConfig{OrdersTopic: "t"}, nil)
	if err != errProjectIDRequired {
		t.Fatalf("expected project id error, got %v", err)
	}
}

func TestPingUninitialized(t *testing.T) {
	var c *Client
	if err := c.Ping(context.Background()); err == nil {
		t.Fatal("expected error")
	}
	if err := (&Client{}).Close(); err != nil {
		t.Fatalf("close on empty client: %v", err)
	}
}
