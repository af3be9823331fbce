package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/viant/embedflow/embeddings"
)

const (
	defaultBaseURL        = "https://api.openai.com/v1"
	embeddingsEndpoint    = "/embeddings"
	defaultEmbeddingModel = "text-embedding-3-small"
	defaultHTTPClientTO   = 30 * time.Second
	providerOpenAI        = "openai"
	providerAzure         = "azure"
)

// Request represents the request structure for the embeddings API.
type Request struct {
	Model      string   `json:"model,omitempty"`
	Input      []string `json:"input"`
	Dimensions int      `json:"dimensions,omitempty"`
}

// Response represents the response structure from the embeddings API.
type Response struct {
	Object string          `json:"object"`
	Data   []EmbeddingData `json:"data"`
	Model  string          `json:"model"`
	Usage  EmbeddingUsage  `json:"usage"`
}

// EmbeddingData represents a single embedding in the API response.
type EmbeddingData struct {
	Object    string    `json:"object"`
	Embedding []float32 `json:"embedding"`
	Index     int       `json:"index"`
}

// EmbeddingUsage represents token usage information in the API response.
type EmbeddingUsage struct {
	PromptTokens int `json:"prompt_tokens"`
	TotalTokens  int `json:"total_tokens"`
}

type errorResponse struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
		Code    any    `json:"code"`
	} `json:"error"`
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithBaseURL overrides the API base address.
func WithBaseURL(baseURL string) ClientOption {
	return func(c *Client) {
		if baseURL != "" {
			c.BaseURL = strings.TrimRight(baseURL, "/")
		}
	}
}

// WithDimensions requests shortened embeddings from models that support it.
func WithDimensions(dim int) ClientOption {
	return func(c *Client) { c.Dimensions = dim }
}

// WithTimeout sets the HTTP client timeout.
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		if timeout > 0 {
			c.HTTPClient.Timeout = timeout
		}
	}
}

// WithHTTPClient replaces the HTTP client.
func WithHTTPClient(client *http.Client) ClientOption {
	return func(c *Client) {
		if client != nil {
			c.HTTPClient = client
		}
	}
}

// Client calls the OpenAI embeddings API or an Azure OpenAI deployment.
type Client struct {
	BaseURL    string
	APIKey     string
	Model      string
	Dimensions int
	HTTPClient *http.Client

	// Azure deployment addressing; used when Deployment is set.
	Deployment string
	APIVersion string
}

// NewClient creates an OpenAI client.
func NewClient(apiKey, model string, opts ...ClientOption) *Client {
	c := &Client{
		BaseURL:    defaultBaseURL,
		APIKey:     apiKey,
		Model:      model,
		HTTPClient: &http.Client{Timeout: defaultHTTPClientTO},
	}
	if c.Model == "" {
		c.Model = defaultEmbeddingModel
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// NewAzureClient creates a client for an Azure OpenAI embedding deployment.
func NewAzureClient(endpoint, apiKey, deployment, apiVersion string, opts ...ClientOption) *Client {
	c := &Client{
		BaseURL:    strings.TrimRight(endpoint, "/"),
		APIKey:     apiKey,
		Deployment: deployment,
		APIVersion: apiVersion,
		HTTPClient: &http.Client{Timeout: defaultHTTPClientTO},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) isAzure() bool { return c.Deployment != "" }

func (c *Client) provider() string {
	if c.isAzure() {
		return providerAzure
	}
	return providerOpenAI
}

// URL returns the embeddings endpoint address.
func (c *Client) URL() string {
	if !c.isAzure() {
		return c.BaseURL + embeddingsEndpoint
	}
	return fmt.Sprintf("%s/openai/deployments/%s/embeddings?api-version=%s",
		c.BaseURL, url.PathEscape(c.Deployment), url.QueryEscape(c.APIVersion))
}

// AdaptRequest adapts texts to the request payload. Azure addresses the
// model through the deployment, so the model field is left out.
func (c *Client) AdaptRequest(texts []string) Request {
	req := Request{Input: texts, Dimensions: c.Dimensions}
	if !c.isAzure() {
		req.Model = c.Model
	}
	return req
}

// Embed creates embeddings for the given texts, in input order.
func (c *Client) Embed(ctx context.Context, texts []string) (vectors [][]float32, totalTokens int, err error) {
	if len(texts) == 0 {
		return nil, 0, fmt.Errorf("no input texts provided")
	}
	reqBody, err := json.Marshal(c.AdaptRequest(texts))
	if err != nil {
		return nil, 0, fmt.Errorf("marshal request: %w", err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.URL(), bytes.NewReader(reqBody))
	if err != nil {
		return nil, 0, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.isAzure() {
		httpReq.Header.Set("api-key", c.APIKey)
	} else {
		httpReq.Header.Set("Authorization", "Bearer "+c.APIKey)
	}

	resp, err := c.HTTPClient.Do(httpReq)
	if err != nil {
		return nil, 0, fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, 0, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		apiErr := &embeddings.APIError{Provider: c.provider(), StatusCode: resp.StatusCode, Message: resp.Status}
		var errResp errorResponse
		if json.Unmarshal(data, &errResp) == nil && errResp.Error.Message != "" {
			apiErr.Message = errResp.Error.Message
			apiErr.Type = errResp.Error.Type
		}
		return nil, 0, apiErr
	}
	var embeddingResp Response
	if err := json.Unmarshal(data, &embeddingResp); err != nil {
		return nil, 0, fmt.Errorf("decode response: %w", err)
	}
	items := make([]embeddings.Indexed, len(embeddingResp.Data))
	for i, d := range embeddingResp.Data {
		items[i] = embeddings.Indexed{Index: d.Index, Vector: d.Embedding}
	}
	out, err := embeddings.Ordered(items, len(texts))
	if err != nil {
		return nil, 0, err
	}
	return out, embeddingResp.Usage.TotalTokens, nil
}
