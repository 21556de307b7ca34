package email

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"HousingAlerts/internal/config"
	"HousingAlerts/internal/domain"
	"HousingAlerts/internal/ports"
)

// ResendClient implements ports.Deliverer backed by the Resend email API.
type ResendClient struct {
	endpoint   string
	apiKey     string
	from       string
	httpClient *http.Client
}

var _ ports.Deliverer = (*ResendClient)(nil)

// NewResendClient builds a client from configuration.
func NewResendClient(cfg config.ResendConfig) *ResendClient {
	return &ResendClient{
		endpoint: cfg.Endpoint,
		apiKey:   cfg.APIKey,
		from:     cfg.From,
		httpClient: &http.Client{
			Timeout: 20 * time.Second,
		},
	}
}

// Send emails msg to the destination address.
func (c *ResendClient) Send(ctx context.Context, to string, msg domain.Message) error {
	if c == nil {
		return fmt.Errorf("resend client is nil")
	}
	if c.apiKey == "" || c.endpoint == "" || c.from == "" {
		return fmt.Errorf("resend client misconfigured")
	}
	if strings.TrimSpace(to) == "" {
		return fmt.Errorf("recipient address is empty")
	}

	body, err := json.Marshal(map[string]any{
		"from":    c.from,
		"to":      []string{to},
		"subject": msg.Subject,
		"html":    msg.HTML,
		"text":    msg.Text,
	})
	if err != nil {
		return fmt.Errorf("marshal email payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("send email: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("resend error %s: %s", resp.Status, strings.TrimSpace(string(payload)))
	}

	return nil
}
