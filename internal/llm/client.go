// Package llm talks to OpenAI-compatible chat-completions APIs.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/tidwall/gjson"
)

const (
	// DialTimeout is the connection timeout.
	DialTimeout = 10 * time.Second
	// TLSHandshakeTimeout is the TLS negotiation timeout.
	TLSHandshakeTimeout = 10 * time.Second
	// DefaultResponseHeaderTimeout bounds the wait for the first response byte.
	DefaultResponseHeaderTimeout = 60 * time.Second

	// maxCompletionBytes caps non-streaming response bodies.
	maxCompletionBytes = 8 << 20
	// maxErrorBytes caps how much of an error body is read.
	maxErrorBytes = 64 << 10
)

// NewHTTPClient creates an HTTP client for upstream calls. It has no total
// timeout because generation streams can run for minutes; the request
// context bounds them instead.
func NewHTTPClient(responseHeaderTimeout time.Duration) *http.Client {
	if responseHeaderTimeout <= 0 {
		responseHeaderTimeout = DefaultResponseHeaderTimeout
	}
	return &http.Client{
		Transport: &http.Transport{
			Proxy: http.ProxyFromEnvironment,
			DialContext: (&net.Dialer{
				Timeout:   DialTimeout,
				KeepAlive: 30 * time.Second,
			}).DialContext,
			TLSHandshakeTimeout:   TLSHandshakeTimeout,
			ResponseHeaderTimeout: responseHeaderTimeout,
			MaxIdleConns:          100,
			MaxIdleConnsPerHost:   10,
			IdleConnTimeout:       90 * time.Second,
		},
		// Don't follow redirects - the bearer key must not leak elsewhere
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
}

// Client calls one chat-completions endpoint. The API key is supplied per
// call since every user brings their own.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient creates a Client for the given base URL, e.g.
// https://integrate.api.nvidia.com/v1.
func NewClient(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = NewHTTPClient(DefaultResponseHeaderTimeout)
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    httpClient,
	}
}

// OpenStream starts a streaming completion. A non-2xx answer is returned as
// *APIError before any token is produced. The caller must Close the stream.
func (c *Client) OpenStream(ctx context.Context, apiKey string, req ChatRequest) (*Stream, error) {
	resp, err := c.do(ctx, apiKey, req, true)
	if err != nil {
		return nil, err
	}
	return newStream(resp.Body), nil
}

// Complete runs a non-streaming completion and returns the first choice's text.
func (c *Client) Complete(ctx context.Context, apiKey string, req ChatRequest) (string, error) {
	resp, err := c.do(ctx, apiKey, req, false)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxCompletionBytes))
	if err != nil {
		return "", &APIError{Message: "read completion: " + err.Error(), Err: err}
	}
	if !gjson.ValidBytes(body) {
		return "", &APIError{StatusCode: resp.StatusCode, Message: "malformed completion body"}
	}

	content := strings.TrimSpace(gjson.GetBytes(body, "choices.0.message.content").String())
	if content == "" {
		return "", ErrNoContent
	}
	return content, nil
}

func (c *Client) do(ctx context.Context, apiKey string, req ChatRequest, stream bool) (*http.Response, error) {
	data, err := json.Marshal(req.body(stream))
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+apiKey)
	if stream {
		httpReq.Header.Set("Accept", "text/event-stream")
	} else {
		httpReq.Header.Set("Accept", "application/json")
	}

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, &APIError{Message: "send request: " + err.Error(), Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer resp.Body.Close()
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBytes))
		return nil, &APIError{StatusCode: resp.StatusCode, Message: errorMessage(body, resp.Status)}
	}

	return resp, nil
}

// errorMessage extracts a readable message from an upstream error body.
// Providers disagree on the shape, so several paths are tried.
func errorMessage(body []byte, status string) string {
	if gjson.ValidBytes(body) {
		for _, path := range []string{"error.message", "detail", "message", "error", "title"} {
			if v := gjson.GetBytes(body, path); v.Exists() && v.Type == gjson.String && v.String() != "" {
				return v.String()
			}
		}
	}

	text := strings.TrimSpace(string(body))
	if text == "" {
		return status
	}
	if len(text) > 512 {
		text = text[:512]
	}
	return text
}
