package shopify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/angelmondragon/shopqr-backend/pkg/config"
	pkgerrors "github.com/angelmondragon/shopqr-backend/pkg/errors"
)

const (
	productQuery = `query qrCodeProduct($id: ID!) {
  product(id: $id) {
    title
    images(first: 1) {
      nodes {
        altText
        url
      }
    }
  }
}`
	requestBodyReadLimit int64 = 1024
)

var (
	errAdminTokenRequired = errors.New("shopify admin token is required")
	errAPIVersionRequired = errors.New("shopify api version is required")
)

// ProductSummary is the subset of Admin API product data the QR views need.
type ProductSummary struct {
	Title    string
	ImageURL string
	ImageAlt string
}

// Client calls the Shopify Admin GraphQL API on behalf of a shop.
type Client struct {
	httpClient *http.Client
	baseURL    string
	adminToken string
	apiVersion string
}

// Option configures optional client behavior.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithBaseURL overrides the per-shop Admin API base URL. Intended for tests;
// when set, the shop domain is no longer interpolated into the request URL.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		trimmed := strings.TrimSpace(baseURL)
		if trimmed != "" {
			c.baseURL = trimmed
		}
	}
}

// NewClient builds the Admin API client from the Shopify config.
func NewClient(cfg config.ShopifyConfig, opts ...Option) (*Client, error) {
	if strings.TrimSpace(cfg.AdminToken) == "" {
		return nil, errAdminTokenRequired
	}
	if strings.TrimSpace(cfg.APIVersion) == "" {
		return nil, errAPIVersionRequired
	}

	client := &Client{
		adminToken: strings.TrimSpace(cfg.AdminToken),
		apiVersion: strings.TrimSpace(cfg.APIVersion),
		baseURL:    strings.TrimSpace(cfg.GraphQLBase),
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}

	for _, opt := range opts {
		if opt != nil {
			opt(client)
		}
	}

	if client.httpClient == nil {
		client.httpClient = &http.Client{Timeout: 10 * time.Second}
	}

	return client, nil
}

// Product fetches the product title and lead image for the given product GID.
// A product that no longer exists is reported as (nil, nil), not as an error,
// so callers can render deleted-product views.
func (c *Client) Product(ctx context.Context, shop, productGID string) (*ProductSummary, error) {
	if c == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "shopify client not configured")
	}
	if strings.TrimSpace(shop) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "shop domain is required")
	}
	if strings.TrimSpace(productGID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product ID is required")
	}

	payload, err := json.Marshal(map[string]any{
		"query": productQuery,
		"variables": map[string]string{
			"id": productGID,
		},
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "marshal product query")
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint(shop), bytes.NewReader(payload))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "build product request")
	}

	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("X-Shopify-Access-Token", c.adminToken)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "execute product request")
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, requestBodyReadLimit))
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg))), "product request failed")
	}

	var apiResp struct {
		Data struct {
			Product *struct {
				Title  string `json:"title"`
				Images struct {
					Nodes []struct {
						AltText string `json:"altText"`
						URL     string `json:"url"`
					} `json:"nodes"`
				} `json:"images"`
			} `json:"product"`
		} `json:"data"`
		Errors []struct {
			Message string `json:"message"`
		} `json:"errors"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&apiResp); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode product response")
	}

	if len(apiResp.Errors) > 0 {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "product query failed").WithDetails(map[string]string{
			"graphql_error": apiResp.Errors[0].Message,
		})
	}
	if apiResp.Data.Product == nil {
		return nil, nil
	}

	summary := &ProductSummary{Title: apiResp.Data.Product.Title}
	if nodes := apiResp.Data.Product.Images.Nodes; len(nodes) > 0 {
		summary.ImageURL = nodes[0].URL
		summary.ImageAlt = nodes[0].AltText
	}

	return summary, nil
}

func (c *Client) endpoint(shop string) string {
	if c.baseURL != "" {
		return strings.TrimRight(c.baseURL, "/") + "/graphql.json"
	}
	return fmt.Sprintf("https://%s/admin/api/%s/graphql.json", strings.TrimSpace(shop), c.apiVersion)
}
