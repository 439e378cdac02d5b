package gemini

import "net/http"

// Option customizes a Client.
type Option func(*Client)

// WithBaseURL overrides the API endpoint, mainly for tests and proxies.
func WithBaseURL(url string) Option {
	return func(c *Client) { c.baseURL = url }
}

// WithModel selects the model name used in request paths.
func WithModel(model string) Option {
	return func(c *Client) { c.model = model }
}

// WithHTTPClient substitutes the HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) { c.httpClient = client }
}
