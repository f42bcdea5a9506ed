package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// TwilioClient sends WhatsApp messages through the Twilio Messages API.
// Template sends use a content SID plus JSON-encoded content variables.
type TwilioClient struct {
	baseURL    string
	accountID  string
	authToken  string
	fromNumber string
	httpClient *http.Client
}

// NewTwilioClient creates a Twilio-backed provider client
func NewTwilioClient(baseURL, accountID, authToken, fromNumber string) *TwilioClient {
	return &TwilioClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		accountID:  accountID,
		authToken:  authToken,
		fromNumber: fromNumber,
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
}

type twilioResponse struct {
	SID     string `json:"sid"`
	Status  string `json:"status"`
	Message string `json:"message"`
	Code    int    `json:"code"`
}

// Send submits one message to the Twilio Messages endpoint
func (c *TwilioClient) Send(ctx context.Context, req *SendRequest) (*SendResult, error) {
	form := url.Values{}
	form.Set("To", "whatsapp:"+req.To)
	form.Set("From", "whatsapp:"+c.fromNumber)

	switch {
	case req.TemplateRef != "":
		form.Set("ContentSid", req.TemplateRef)
		if len(req.Variables) > 0 {
			vars, err := json.Marshal(req.Variables)
			if err != nil {
				return nil, fmt.Errorf("failed to encode content variables: %w", err)
			}
			form.Set("ContentVariables", string(vars))
		}
	case req.Body != "":
		form.Set("Body", req.Body)
	default:
		return nil, fmt.Errorf("send request has neither body nor template ref")
	}

	endpoint := fmt.Sprintf("%s/2010-04-01/Accounts/%s/Messages.json", c.baseURL, c.accountID)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("failed to build provider request: %w", err)
	}
	httpReq.SetBasicAuth(c.accountID, c.authToken)
	httpReq.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("provider request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("failed to read provider response: %w", err)
	}

	var decoded twilioResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		return nil, fmt.Errorf("failed to decode provider response (status %d): %w", resp.StatusCode, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		message := decoded.Message
		if message == "" {
			message = string(body)
		}
		return nil, fmt.Errorf("provider rejected message (status %d, code %d): %s", resp.StatusCode, decoded.Code, message)
	}

	return &SendResult{
		ProviderID: decoded.SID,
		Status:     decoded.Status,
	}, nil
}
