// Package http posts JSON to outside services: alert webhooks and Slack.
//
//	resp, err := http.Post(url).
//	    JSON(payload).
//	    Retry(3, time.Second).
//	    Send(ctx)
//	if err == nil {
//	    err = resp.Err()
//	}
//
// Tests swap DefaultClient.Transport to intercept calls.
package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	gohttp "net/http"
	"strconv"
	"time"

	"github.com/adegaexpress/adega/pkg/logger"
)

const (
	userAgent = "adega-alerts/1"

	// maxRetryAfter caps how long a 429 may hold up a delivery.
	maxRetryAfter = 30 * time.Second

	maxBody = 64 << 10
)

var defaultTransport = &gohttp.Transport{
	MaxIdleConns:        20,
	MaxIdleConnsPerHost: 4,
	IdleConnTimeout:     90 * time.Second,
}

var DefaultClient = &gohttp.Client{Transport: defaultTransport}

// ResetTransport restores the production transport on DefaultClient.
func ResetTransport() {
	DefaultClient.Transport = defaultTransport
}

type Request struct {
	url      string
	headers  map[string]string
	payload  interface{}
	timeout  time.Duration
	attempts int
	backoff  time.Duration
}

func Post(url string) *Request {
	return &Request{
		url:      url,
		headers:  map[string]string{},
		timeout:  10 * time.Second,
		attempts: 1,
		backoff:  500 * time.Millisecond,
	}
}

func (r *Request) Header(key, value string) *Request {
	r.headers[key] = value
	return r
}

func (r *Request) JSON(v interface{}) *Request {
	r.payload = v
	return r
}

// Timeout bounds each attempt.
func (r *Request) Timeout(d time.Duration) *Request {
	r.timeout = d
	return r
}

// Retry sets total attempts and the first backoff, doubled after each
// attempt. Transport errors, 5xx and 429 are retried; a 429 waits for its
// Retry-After instead when the receiver sends one.
func (r *Request) Retry(attempts int, backoff time.Duration) *Request {
	r.attempts = max(1, attempts)
	r.backoff = backoff
	return r
}

// Send posts the payload. The final response is returned without error
// whatever its status; use Response.Err for that.
func (r *Request) Send(ctx context.Context) (*Response, error) {
	body, err := json.Marshal(r.payload)
	if err != nil {
		return nil, fmt.Errorf("http: encode payload: %w", err)
	}

	var (
		resp    *Response
		lastErr error
	)
	wait := r.backoff
	for attempt := 1; ; attempt++ {
		resp, lastErr = r.do(ctx, body)
		if lastErr == nil && !resp.retryable() {
			return resp, nil
		}
		if attempt >= r.attempts {
			break
		}

		delay := wait
		if lastErr == nil {
			if ra, ok := resp.retryAfter(); ok {
				delay = ra
			}
		}
		logger.Warn("http: delivery failed, retrying",
			"url", r.url, "attempt", attempt, "backoff", delay, "error", lastErr)
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(delay):
		}
		wait *= 2
	}

	if lastErr != nil {
		return nil, fmt.Errorf("http: %d attempts failed for %s: %w", r.attempts, r.url, lastErr)
	}
	return resp, nil
}

func (r *Request) do(ctx context.Context, body []byte) (*Response, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	req, err := gohttp.NewRequestWithContext(ctx, gohttp.MethodPost, r.url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("http: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", userAgent)
	for k, v := range r.headers {
		req.Header.Set(k, v)
	}

	res, err := DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http: post: %w", err)
	}
	defer res.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(res.Body, maxBody))
	if err != nil {
		return nil, fmt.Errorf("http: read response: %w", err)
	}
	return &Response{StatusCode: res.StatusCode, Header: res.Header, Body: raw}, nil
}

type Response struct {
	StatusCode int
	Header     gohttp.Header
	Body       []byte
}

func (r *Response) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// Err describes a non-2xx response.
func (r *Response) Err() error {
	if r.OK() {
		return nil
	}
	return fmt.Errorf("http: receiver answered status %d: %s", r.StatusCode, bytes.TrimSpace(r.Body))
}

func (r *Response) retryable() bool {
	return r.StatusCode >= 500 || r.StatusCode == gohttp.StatusTooManyRequests
}

// retryAfter reads a Retry-After given in seconds. HTTP-date values are
// ignored and fall back to the backoff.
func (r *Response) retryAfter() (time.Duration, bool) {
	if r.StatusCode != gohttp.StatusTooManyRequests {
		return 0, false
	}
	secs, err := strconv.Atoi(r.Header.Get("Retry-After"))
	if err != nil || secs < 0 {
		return 0, false
	}
	return min(time.Duration(secs)*time.Second, maxRetryAfter), true
}
