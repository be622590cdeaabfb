package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"

	"zone-service/internal/config"
	"zone-service/internal/model"
)

// ListingClient pushes approval decisions for POPUP targets to the
// external listing service over its internal API.
type ListingClient struct {
	baseURL       string
	internalToken string
	httpClient    *http.Client
}

func NewListingClient(cfg *config.Config) *ListingClient {
	return &ListingClient{
		baseURL:       cfg.ExternalServices.ListingServiceURL,
		internalToken: cfg.ExternalServices.ListingInternalToken,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

type decisionPayload struct {
	Decision string  `json:"decision"`
	Reason   *string `json:"reason,omitempty"`
}

func (c *ListingClient) NotifyDecision(ctx context.Context, targetID uuid.UUID, decision model.DecisionType, reason *string) error {
	if c.baseURL == "" {
		return fmt.Errorf("listing service URL is not configured")
	}

	body, err := json.Marshal(decisionPayload{
		Decision: string(decision),
		Reason:   reason,
	})
	if err != nil {
		return fmt.Errorf("marshal decision payload: %w", err)
	}

	url := fmt.Sprintf("%s/internal/popups/%s/approval", c.baseURL, targetID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.internalToken != "" {
		req.Header.Set("X-Internal-Token", c.internalToken)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("notify listing service: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("listing service returned %d: %s", resp.StatusCode, string(raw))
	}

	return nil
}
