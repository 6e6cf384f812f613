package newsletter

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	apperrors "github.com/kleinod-atelier/storefront/pkg/errors"
)

const (
	klaviyoRevision = "2023-07-15"
	jsonAPIType     = "application/vnd.api+json"
)

// Client subscribes profiles to a Klaviyo list
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewClient creates a Klaviyo HTTP client
func NewClient(baseURL, apiKey string, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		logger:     logger,
	}
}

type jsonAPIData struct {
	Type          string                 `json:"type"`
	ID            string                 `json:"id,omitempty"`
	Attributes    map[string]interface{} `json:"attributes,omitempty"`
	Relationships map[string]interface{} `json:"relationships,omitempty"`
}

func subscriptionJob(email, listID string) map[string]interface{} {
	profile := jsonAPIData{
		Type:       "profile",
		Attributes: map[string]interface{}{"email": email},
	}
	return map[string]interface{}{
		"data": jsonAPIData{
			Type: "profile-subscription-bulk-create-job",
			Attributes: map[string]interface{}{
				"profiles": map[string]interface{}{
					"data": []jsonAPIData{profile},
				},
			},
			Relationships: map[string]interface{}{
				"list": map[string]interface{}{
					"data": jsonAPIData{Type: "list", ID: listID},
				},
			},
		},
	}
}

// Subscribe creates a bulk subscription job for a single email. A non-2xx
// answer is returned as *errors.ErrUpstream.
func (c *Client) Subscribe(ctx context.Context, listID, email string) error {
	body, err := json.Marshal(subscriptionJob(email, listID))
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/profile-subscription-bulk-create-jobs/", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Accept", jsonAPIType)
	req.Header.Set("Content-Type", jsonAPIType)
	req.Header.Set("Revision", klaviyoRevision)
	req.Header.Set("Authorization", "Klaviyo-API-Key "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn("Klaviyo subscribe request failed", zap.Error(err))
		return fmt.Errorf("klaviyo request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &apperrors.ErrUpstream{Service: "klaviyo", Status: resp.StatusCode, Body: string(respBody)}
	}
	return nil
}
