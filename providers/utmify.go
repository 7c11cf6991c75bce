package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"storefront-service/models"
)

// UtmifyClient forwards order-tracking events to the Utmify API.
// Forwarding is best effort: callers log failures and move on.
type UtmifyClient struct {
	apiURL     string
	apiToken   string
	httpClient *http.Client
}

func NewUtmifyClient(apiURL, apiToken string) *UtmifyClient {
	return &UtmifyClient{
		apiURL:   apiURL,
		apiToken: apiToken,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

// Enabled reports whether the analytics credentials are configured.
// When they are not, forwarding is skipped silently.
func (u *UtmifyClient) Enabled() bool {
	return u.apiURL != "" && u.apiToken != ""
}

func (u *UtmifyClient) SendOrder(ctx context.Context, order models.UtmifyOrder) error {
	if !u.Enabled() {
		return nil
	}

	data, err := json.Marshal(order)
	if err != nil {
		return fmt.Errorf("marshal order: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.apiURL, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-token", u.apiToken)
	req.Header.Set("User-Agent", "storefront-service/1.0")

	resp, err := u.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("http do: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("utmify API error (status %d): %s", resp.StatusCode, string(body))
	}
	return nil
}

// FormatUtmifyDate renders a timestamp as "YYYY-MM-DD HH:MM:SS" in UTC,
// the format the Utmify API expects.
func FormatUtmifyDate(t time.Time) string {
	return t.UTC().Format("2006-01-02 15:04:05")
}
