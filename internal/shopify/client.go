package shopify

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/machinebox/graphql"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/kleinod-atelier/storefront/internal/config"
)

const accessTokenHeader = "X-Shopify-Storefront-Access-Token"

// InContext is the @inContext directive input for localized prices and translations
type InContext struct {
	Country  string
	Language string
}

func (ic InContext) vars() map[string]interface{} {
	v := map[string]interface{}{}
	if ic.Country != "" {
		v["country"] = ic.Country
	}
	if ic.Language != "" {
		v["language"] = ic.Language
	}
	return v
}

type Client struct {
	gql         *graphql.Client
	endpoint    string
	accessToken string
	logger      *zap.Logger
}

// NewClient creates a Storefront API GraphQL client
func NewClient(cfg config.StorefrontConfig, logger *zap.Logger) *Client {
	// hand-built configs may still carry a scheme or trailing slash
	domain := config.NormalizeDomain(cfg.StoreDomain)
	endpoint := fmt.Sprintf("https://%s/api/%s/graphql.json", domain, cfg.APIVersion)
	return NewClientWithEndpoint(endpoint, cfg.AccessToken, logger)
}

// NewClientWithEndpoint creates a client for an explicit GraphQL endpoint
func NewClientWithEndpoint(endpoint, accessToken string, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	gql := graphql.NewClient(endpoint, graphql.WithHTTPClient(&http.Client{
		Timeout: 30 * time.Second,
	}))
	return &Client{
		gql:         gql,
		endpoint:    endpoint,
		accessToken: accessToken,
		logger:      logger,
	}
}

// Endpoint returns the GraphQL URL the client posts to
func (c *Client) Endpoint() string {
	return c.endpoint
}

// Execute runs a query document and decodes its data object into out
func (c *Client) Execute(ctx context.Context, query string, variables map[string]interface{}, out interface{}) error {
	req := graphql.NewRequest(query)
	for k, v := range variables {
		req.Var(k, v)
	}
	req.Header.Set(accessTokenHeader, c.accessToken)
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	if err := c.gql.Run(ctx, req, out); err != nil {
		c.logger.Warn("Storefront query failed",
			zap.Error(err),
			zap.Duration("elapsed", time.Since(start)),
		)
		return errors.Wrap(err, "storefront query failed")
	}
	c.logger.Debug("Storefront query", zap.Duration("elapsed", time.Since(start)))
	return nil
}

func (c *Client) executeInContext(ctx context.Context, ic InContext, query string, variables map[string]interface{}, out interface{}) error {
	merged := ic.vars()
	for k, v := range variables {
		merged[k] = v
	}
	return c.Execute(ctx, query, merged, out)
}

// Ping fetches the shop name; used by the CLI to check credentials
func (c *Client) Ping(ctx context.Context) (string, error) {
	var resp struct {
		Shop struct {
			Name string `json:"name"`
		} `json:"shop"`
	}
	if err := c.Execute(ctx, ShopQuery, nil, &resp); err != nil {
		return "", err
	}
	return resp.Shop.Name, nil
}
