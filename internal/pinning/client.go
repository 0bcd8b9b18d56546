package pinning

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"
)

// Default configuration values.
const (
	DefaultBaseURL    = "https://api.pinata.cloud"
	DefaultGatewayURL = "https://gateway.pinata.cloud/ipfs/"
	DefaultTimeout    = 60 * time.Second
)

// Client implements Pinner against the Pinata HTTP API.
type Client struct {
	baseURL    string
	gatewayURL string
	apiKey     string
	secretKey  string
	client     *http.Client
}

// Option configures Client.
type Option func(*Client)

// WithBaseURL overrides the API base URL (used by tests).
func WithBaseURL(u string) Option {
	return func(c *Client) {
		c.baseURL = u
	}
}

// WithGatewayURL overrides the retrieval gateway prefix.
func WithGatewayURL(u string) Option {
	return func(c *Client) {
		c.gatewayURL = u
	}
}

// WithHTTPClient sets a custom http.Client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		c.client = client
	}
}

// NewClient creates a Pinata client. The two static header credentials are
// read once at startup and never reloaded.
func NewClient(apiKey, secretKey string, opts ...Option) *Client {
	c := &Client{
		baseURL:    DefaultBaseURL,
		gatewayURL: DefaultGatewayURL,
		apiKey:     apiKey,
		secretKey:  secretKey,
		client:     &http.Client{Timeout: DefaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// pinResponse is the relevant part of Pinata's pin responses.
type pinResponse struct {
	IpfsHash string `json:"IpfsHash"`
}

// PinFile uploads a binary file via POST /pinning/pinFileToIPFS.
func (c *Client) PinFile(ctx context.Context, name string, data []byte) (string, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)

	part, err := mw.CreateFormFile("file", name)
	if err != nil {
		return "", fmt.Errorf("create form file: %w", err)
	}
	if _, err := part.Write(data); err != nil {
		return "", fmt.Errorf("write form file: %w", err)
	}
	if err := mw.Close(); err != nil {
		return "", fmt.Errorf("close multipart writer: %w", err)
	}

	return c.pin(ctx, "/pinning/pinFileToIPFS", mw.FormDataContentType(), &body)
}

// PinJSON uploads a JSON document via POST /pinning/pinJSONToIPFS.
func (c *Client) PinJSON(ctx context.Context, doc interface{}) (string, error) {
	body, err := json.Marshal(doc)
	if err != nil {
		return "", fmt.Errorf("marshal document: %w", err)
	}
	return c.pin(ctx, "/pinning/pinJSONToIPFS", "application/json", bytes.NewReader(body))
}

func (c *Client) pin(ctx context.Context, path, contentType string, body io.Reader) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, body)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("pinata_api_key", c.apiKey)
	req.Header.Set("pinata_secret_api_key", c.secretKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("pin request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read pin response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("pin failed with status %d: %s", resp.StatusCode, respBody)
	}

	var pinned pinResponse
	if err := json.Unmarshal(respBody, &pinned); err != nil {
		return "", fmt.Errorf("unmarshal pin response: %w", err)
	}
	if pinned.IpfsHash == "" {
		return "", fmt.Errorf("pin response missing IpfsHash")
	}

	return c.gatewayURL + pinned.IpfsHash, nil
}

// Verify interface compliance at compile time.
var _ Pinner = (*Client)(nil)
