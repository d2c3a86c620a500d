// Package tlsclient builds Chrome-fingerprinted HTTP sessions for talking
// to the funnel site outside the browser.
package tlsclient

import (
	"fmt"
	"io"

	http "github.com/bogdanfinn/fhttp"
	tls_client "github.com/bogdanfinn/tls-client"
	tls_client_profiles "github.com/bogdanfinn/tls-client/profiles"
)

// Client is a factory for creating TLS client sessions with Chrome fingerprints.
type Client struct{}

// New creates a new TLS client factory.
func New() *Client {
	return &Client{}
}

// NewSession creates a fresh HTTP client with an isolated cookie jar and
// Chrome_124 fingerprint. Each check gets a fresh session for cookie isolation.
func (c *Client) NewSession() (tls_client.HttpClient, error) {
	jar := tls_client.NewCookieJar()
	options := []tls_client.HttpClientOption{
		tls_client.WithTimeoutSeconds(90),
		tls_client.WithClientProfile(tls_client_profiles.Chrome_124),
		tls_client.WithCookieJar(jar),
	}

	client, err := tls_client.NewHttpClient(nil, options...)
	if err != nil {
		return nil, err
	}

	return client, nil
}

// Preflight fetches the funnel entry page before a browser session is
// spent on it. A down or blocking site fails here, cheaply.
func (c *Client) Preflight(pageURL string) error {
	session, err := c.NewSession()
	if err != nil {
		return fmt.Errorf("tlsclient: session: %w", err)
	}

	req, err := http.NewRequest(http.MethodGet, pageURL, nil)
	if err != nil {
		return fmt.Errorf("tlsclient: request: %w", err)
	}
	req.Header = http.Header{
		"accept":          {"text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8"},
		"accept-language": {"en-US,en;q=0.9"},
		"user-agent":      {"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36"},
	}

	resp, err := session.Do(req)
	if err != nil {
		return fmt.Errorf("tlsclient: preflight fetch: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, io.LimitReader(resp.Body, 1024*1024))

	if resp.StatusCode >= 400 {
		return fmt.Errorf("tlsclient: funnel entry page returned HTTP %d", resp.StatusCode)
	}
	return nil
}
