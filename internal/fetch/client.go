// Package fetch crawls report documents from the cadenza portal. The portal
// offers no direct report links: every download is negotiated through a
// redirect chain carrying a session id, and the portal blocks clients that
// hammer it, so the crawler speaks through an anonymizing SOCKS5 proxy and
// backs off between retries.
package fetch

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"golang.org/x/net/proxy"
)

// browserUserAgent is sent on every request since the portal serves an error
// page to unknown clients.
const browserUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:109.0) " +
	"Gecko/20100101 Firefox/115.0"

// ClientOptions configure the portal client.
type ClientOptions struct {
	// CadenzaURL is the base URL of the cadenza web application, e.g.
	// "http://www.wasserdaten.niedersachsen.de/cadenza/".
	CadenzaURL string

	// CadenzaRoot is the scheme and host relative redirect targets of the
	// portal are resolved against.
	CadenzaRoot string

	// ProxyAddress is the host:port of a SOCKS5 proxy. Empty means direct
	// connections.
	ProxyAddress string

	// Timeout bounds each single request. Zero means no timeout.
	Timeout time.Duration
}

// Client talks to the cadenza portal.
type Client struct {
	http        *http.Client
	cadenzaURL  string
	cadenzaRoot string
}

// NewClient builds a portal client. Redirects are never followed because the
// report URL discovery reads the Location headers itself.
func NewClient(options ClientOptions) (*Client, error) {
	transport := &http.Transport{Proxy: http.ProxyFromEnvironment}
	if options.ProxyAddress != "" {
		dialer, err := proxy.SOCKS5("tcp", options.ProxyAddress, nil, proxy.Direct)
		if err != nil {
			return nil, fmt.Errorf("building SOCKS5 dialer: %w", err)
		}
		contextDialer, ok := dialer.(proxy.ContextDialer)
		if !ok {
			return nil, fmt.Errorf("SOCKS5 dialer does not support contexts")
		}
		transport = &http.Transport{DialContext: contextDialer.DialContext}
	}

	return &Client{
		http: &http.Client{
			Transport: transport,
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
			Timeout: options.Timeout,
		},
		cadenzaURL:  strings.TrimSuffix(options.CadenzaURL, "/") + "/",
		cadenzaRoot: strings.TrimSuffix(options.CadenzaRoot, "/"),
	}, nil
}

// WaitReady polls the portal until it answers at all, which may take a while
// when the proxy is still bootstrapping its circuits.
func (c *Client) WaitReady(ctx context.Context) error {
	for {
		response, err := c.get(ctx, c.cadenzaURL)
		if err == nil {
			response.Body.Close()
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(2 * time.Second):
		}
	}
}

func (c *Client) get(ctx context.Context, url string) (*http.Response, error) {
	request, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	request.Header.Set("User-Agent", browserUserAgent)
	return c.http.Do(request)
}
