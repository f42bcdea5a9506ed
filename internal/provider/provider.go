package provider

import "context"

// SendRequest describes one outbound message. Either Body is set (a fully
// rendered message) or TemplateRef identifies a provider-side template with
// Variables to fill it.
type SendRequest struct {
	To          string
	Body        string
	TemplateRef string
	Variables   map[string]string
}

// SendResult is the provider's acknowledgement of an accepted message
type SendResult struct {
	ProviderID string
	Status     string
}

// Delivered reports whether the provider status indicates final delivery.
// Anything in transit (queued, accepted, sending, sent) maps to sent.
func (r *SendResult) Delivered() bool {
	return r.Status == "delivered" || r.Status == "read"
}

// Client is the messaging provider capability: send one message to a phone
// number and return a provider id and status, or fail. Failures are terminal
// for the recipient; no retry policy lives behind this interface.
type Client interface {
	Send(ctx context.Context, req *SendRequest) (*SendResult, error)
}
