// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package github

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/bureau-foundation/kanban/lib/clock"
	"github.com/bureau-foundation/kanban/lib/netutil"
	"github.com/bureau-foundation/kanban/lib/secret"
)

const (
	// apiVersion pins the REST API revision sent with every request.
	apiVersion = "2022-11-28"

	// PublicAPI is the REST root of github.com.
	PublicAPI = "https://api.github.com"

	pageSize = "100"
)

// Options configures a Client.
type Options struct {
	// BaseURL is the REST root. Defaults to PublicAPI. Must be https.
	BaseURL string

	// Token is the repository access token. Required. It is read on
	// every request and stays owned by the caller.
	Token *secret.Buffer

	// HTTPClient defaults to http.DefaultClient.
	HTTPClient *http.Client

	// Clock defaults to clock.Real().
	Clock clock.Clock

	// Logger defaults to slog.Default().
	Logger *slog.Logger
}

// Client talks to the GitHub REST API on behalf of one token. Safe for
// concurrent use.
type Client struct {
	baseURL    string
	token      *secret.Buffer
	httpClient *http.Client
	quota      *quota
	etags      *etagCache
	clock      clock.Clock
	logger     *slog.Logger
}

// New validates options and returns a Client.
func New(options Options) (*Client, error) {
	baseURL := strings.TrimRight(options.BaseURL, "/")
	if baseURL == "" {
		baseURL = PublicAPI
	}
	if !strings.HasPrefix(baseURL, "https://") {
		return nil, fmt.Errorf("github: base URL must use https: %q", baseURL)
	}
	if options.Token == nil {
		return nil, errors.New("github: a token is required")
	}

	client := &Client{
		baseURL:    baseURL,
		token:      options.Token,
		httpClient: options.HTTPClient,
		etags:      newETagCache(),
		clock:      options.Clock,
		logger:     options.Logger,
	}
	if client.httpClient == nil {
		client.httpClient = http.DefaultClient
	}
	if client.clock == nil {
		client.clock = clock.Real()
	}
	if client.logger == nil {
		client.logger = slog.Default()
	}
	client.quota = &quota{clock: client.clock}
	return client, nil
}

func (c *Client) endpoint(path string, query url.Values) string {
	if len(query) == 0 {
		return c.baseURL + path
	}
	return c.baseURL + path + "?" + query.Encode()
}

// exchange performs one HTTP round trip and returns the drained body.
func (c *Client) exchange(ctx context.Context, method, target string, payload any) (*http.Response, []byte, error) {
	if err := c.quota.wait(ctx); err != nil {
		return nil, nil, err
	}

	var body io.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return nil, nil, fmt.Errorf("github: encoding %s %s: %w", method, target, err)
		}
		body = bytes.NewReader(encoded)
	}
	request, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, nil, fmt.Errorf("github: %w", err)
	}

	token, ok := c.token.TryString()
	if !ok {
		return nil, nil, errors.New("github: token buffer is closed")
	}
	request.Header.Set("Authorization", "Bearer "+token)
	request.Header.Set("Accept", "application/vnd.github+json")
	request.Header.Set("X-GitHub-Api-Version", apiVersion)
	if payload != nil {
		request.Header.Set("Content-Type", "application/json")
	}
	if method == http.MethodGet {
		if etag := c.etags.get(target); etag != "" {
			request.Header.Set("If-None-Match", etag)
		}
	}

	response, err := c.httpClient.Do(request)
	if err != nil {
		return nil, nil, fmt.Errorf("github: %s %s: %w", method, target, err)
	}
	defer response.Body.Close()
	c.quota.observe(response.Header)

	data, err := netutil.ReadResponse(response.Body)
	if err != nil {
		return nil, nil, fmt.Errorf("github: reading %s %s: %w", method, target, err)
	}
	return response, data, nil
}

// roundTrip runs a request to completion. A rate-limited answer is
// retried once after the advertised delay. Non-2xx answers become a
// *ResponseError.
func (c *Client) roundTrip(ctx context.Context, method, target string, payload any) ([]byte, http.Header, error) {
	for attempt := 0; ; attempt++ {
		response, data, err := c.exchange(ctx, method, target, payload)
		if err != nil {
			return nil, nil, err
		}

		switch status := response.StatusCode; {
		case status == http.StatusNotModified:
			if cached := c.etags.body(target); cached != nil {
				return cached, response.Header, nil
			}
			return data, response.Header, nil
		case status >= 200 && status < 300:
			if method == http.MethodGet {
				c.etags.put(target, response.Header.Get("ETag"), data)
			}
			return data, response.Header, nil
		}

		failure := decodeError(response.StatusCode, data)
		if attempt > 0 || !failure.RateLimited() {
			return nil, nil, failure
		}
		delay := c.quota.retryDelay(response.Header)
		if delay <= 0 {
			return nil, nil, failure
		}
		c.logger.Info("github rate limited, retrying",
			"method", method,
			"url", target,
			"delay", delay,
		)
		if err := sleep(ctx, c.clock, delay); err != nil {
			return nil, nil, err
		}
	}
}

// do sends payload (when non-nil) to path and decodes the answer into
// result (when non-nil).
func (c *Client) do(ctx context.Context, method, path string, payload, result any) error {
	data, _, err := c.roundTrip(ctx, method, c.endpoint(path, nil), payload)
	if err != nil {
		return err
	}
	if result == nil || len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, result); err != nil {
		return fmt.Errorf("github: decoding %s %s: %w", method, path, err)
	}
	return nil
}

// collect follows Link rel="next" pages until the listing ends.
func collect[T any](ctx context.Context, c *Client, path string, query url.Values) ([]T, error) {
	var all []T
	for target := c.endpoint(path, query); target != ""; {
		data, header, err := c.roundTrip(ctx, http.MethodGet, target, nil)
		if err != nil {
			return nil, err
		}
		var page []T
		if err := json.Unmarshal(data, &page); err != nil {
			return nil, fmt.Errorf("github: decoding page of %s: %w", path, err)
		}
		all = append(all, page...)
		target = nextPage(header.Get("Link"))
	}
	return all, nil
}

// nextPage returns the rel="next" target of an RFC 8288 Link header,
// or "" on the last page.
func nextPage(link string) string {
	for _, entry := range strings.Split(link, ",") {
		target, params, ok := strings.Cut(entry, ";")
		if !ok {
			continue
		}
		for _, param := range strings.Split(params, ";") {
			if strings.TrimSpace(param) == `rel="next"` {
				return strings.Trim(strings.TrimSpace(target), "<>")
			}
		}
	}
	return ""
}
