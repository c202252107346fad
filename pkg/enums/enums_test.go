package enums

import "testing"

func TestParseOrderStatus(t *testing.T) {
	for _, raw := range []string{"pending", "processing", "shipped", "delivered", "cancelled"} {
		status, err := ParseOrderStatus(raw)
		if err != nil {
			t.Fatalf("ParseOrderStatus(%q) error: %v", raw, err)
		}
		if status.String() != raw {
			t.Fatalf("expected %q got %q", raw, status)
		}
	}
	if _, err := ParseOrderStatus("canceled"); err == nil {
		t.Fatal("expected american spelling to be rejected")
	}
	if !OrderStatusCancelled.IsTerminal() || OrderStatusPending.IsTerminal() {
		t.Fatal("unexpected terminal classification")
	}
}

func TestOutboxEnums(t *testing.T) {
	if _, err := ParseOutboxEventType("order_created"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := ParseOutboxEventType("order_paid"); err == nil {
		t.Fatal("expected unknown event type to fail")
	}
	if _, err := ParseOutboxAggregateType("order"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !OutboxDLQReasonMaxAttempts.IsValid() || OutboxDLQErrorReason("x").IsValid() {
		t.Fatal("unexpected dlq reason validity")
	}
}
