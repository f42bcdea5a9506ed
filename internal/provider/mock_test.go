package provider

import (
	"context"
	"testing"
)

// TestMockClient_AlwaysSucceeds tests the 100% success configuration and
// provider id uniqueness
func TestMockClient_AlwaysSucceeds(t *testing.T) {
	client := NewMockClient(1.0)
	ctx := context.Background()

	seen := map[string]bool{}
	for i := 0; i < 5; i++ {
		result, err := client.Send(ctx, &SendRequest{To: "+5215512340001", Body: "Hola"})
		if err != nil {
			t.Fatalf("Send error: %v", err)
		}
		if result.ProviderID == "" {
			t.Fatal("Expected a provider id")
		}
		if seen[result.ProviderID] {
			t.Errorf("Duplicate provider id %s", result.ProviderID)
		}
		seen[result.ProviderID] = true
	}
}

// TestMockClient_AlwaysFails tests the 0% success configuration
func TestMockClient_AlwaysFails(t *testing.T) {
	client := NewMockClient(0.0)

	if _, err := client.Send(context.Background(), &SendRequest{To: "+5215512340001", Body: "Hola"}); err == nil {
		t.Error("Expected send to fail with success rate 0")
	}
}

// TestMockClient_RejectsEmptyMessage tests the body/template-ref guard
func TestMockClient_RejectsEmptyMessage(t *testing.T) {
	client := NewMockClient(1.0)

	if _, err := client.Send(context.Background(), &SendRequest{To: "+5215512340001"}); err == nil {
		t.Error("Expected error for request without body or template ref")
	}
}

// TestMockClient_ContextCancelled tests that an already-cancelled context
// aborts the simulated send
func TestMockClient_ContextCancelled(t *testing.T) {
	client := NewMockClient(1.0)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := client.Send(ctx, &SendRequest{To: "+5215512340001", Body: "Hola"}); err == nil {
		t.Error("Expected error for cancelled context")
	}
}

// TestSendResultDelivered tests the delivery classification of provider
// statuses
func TestSendResultDelivered(t *testing.T) {
	cases := map[string]bool{
		"delivered": true,
		"read":      true,
		"queued":    false,
		"sent":      false,
		"failed":    false,
	}
	for status, want := range cases {
		r := &SendResult{Status: status}
		if got := r.Delivered(); got != want {
			t.Errorf("Delivered() with status %q = %v, want %v", status, got, want)
		}
	}
}
