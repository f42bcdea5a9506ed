package provider

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"
)

// MockClient simulates a messaging provider for development and testing.
// successRate is the probability of a successful send (0.0 to 1.0).
type MockClient struct {
	mu          sync.Mutex
	successRate float64
	rand        *rand.Rand
	counter     int
}

// NewMockClient creates a simulated provider client
func NewMockClient(successRate float64) *MockClient {
	if successRate < 0.0 {
		successRate = 0.0
	}
	if successRate > 1.0 {
		successRate = 1.0
	}

	return &MockClient{
		successRate: successRate,
		rand:        rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Send simulates a provider send with network latency and random failures
func (c *MockClient) Send(ctx context.Context, req *SendRequest) (*SendResult, error) {
	if req.Body == "" && req.TemplateRef == "" {
		return nil, fmt.Errorf("send request has neither body nor template ref")
	}

	c.mu.Lock()
	latency := time.Duration(10+c.rand.Intn(40)) * time.Millisecond
	success := c.rand.Float64() < c.successRate
	c.counter++
	id := fmt.Sprintf("MM%014d", c.counter)
	c.mu.Unlock()

	select {
	case <-time.After(latency):
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	if !success {
		failures := []string{
			"network timeout",
			"unreachable destination",
			"rate limit exceeded",
			"service temporarily unavailable",
		}
		c.mu.Lock()
		reason := failures[c.rand.Intn(len(failures))]
		c.mu.Unlock()
		return nil, fmt.Errorf("failed to send to %s: %s", req.To, reason)
	}

	return &SendResult{ProviderID: id, Status: "queued"}, nil
}

// SetSuccessRate updates the success rate (for testing)
func (c *MockClient) SetSuccessRate(rate float64) {
	if rate < 0.0 {
		rate = 0.0
	}
	if rate > 1.0 {
		rate = 1.0
	}
	c.mu.Lock()
	c.successRate = rate
	c.mu.Unlock()
}
