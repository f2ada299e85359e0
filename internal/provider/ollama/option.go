package ollama

import (
	"net/http"
	"strings"
)

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithBaseURL sets the Ollama server address.
func WithBaseURL(baseURL string) ClientOption {
	return func(c *Client) { c.baseURL = strings.TrimRight(baseURL, "/") }
}

// WithHTTPClient replaces the HTTP client.
func WithHTTPClient(client *http.Client) ClientOption {
	return func(c *Client) { c.httpClient = client }
}
