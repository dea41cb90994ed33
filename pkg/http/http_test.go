package http

import (
	"bytes"
	"context"
	"errors"
	"io"
	gohttp "net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type roundTrip func(*gohttp.Request) (*gohttp.Response, error)

func (f roundTrip) RoundTrip(r *gohttp.Request) (*gohttp.Response, error) { return f(r) }

// script answers successive requests with codes and counts them.
func script(t *testing.T, header gohttp.Header, codes ...int) *int {
	t.Helper()
	calls := 0
	DefaultClient.Transport = roundTrip(func(r *gohttp.Request) (*gohttp.Response, error) {
		code := codes[min(calls, len(codes)-1)]
		calls++
		if code == 0 {
			return nil, errors.New("connection refused")
		}
		h := header.Clone()
		if h == nil {
			h = gohttp.Header{}
		}
		return &gohttp.Response{StatusCode: code, Header: h, Body: io.NopCloser(bytes.NewBufferString(`{"ok":false}`)), Request: r}, nil
	})
	t.Cleanup(ResetTransport)
	return &calls
}

func TestSendPostsJSON(t *testing.T) {
	var got *gohttp.Request
	var body []byte
	DefaultClient.Transport = roundTrip(func(r *gohttp.Request) (*gohttp.Response, error) {
		got = r
		body, _ = io.ReadAll(r.Body)
		return &gohttp.Response{StatusCode: 204, Header: gohttp.Header{}, Body: io.NopCloser(bytes.NewReader(nil))}, nil
	})
	t.Cleanup(ResetTransport)

	resp, err := Post("https://alerts.test/hook").Header("X-Token", "t").JSON(map[string]int{"stock": 3}).Send(context.Background())
	require.NoError(t, err)
	assert.NoError(t, resp.Err())

	assert.Equal(t, gohttp.MethodPost, got.Method)
	assert.Equal(t, "application/json", got.Header.Get("Content-Type"))
	assert.Equal(t, userAgent, got.Header.Get("User-Agent"))
	assert.Equal(t, "t", got.Header.Get("X-Token"))
	assert.JSONEq(t, `{"stock":3}`, string(body))
}

func TestSendRetries(t *testing.T) {
	tests := []struct {
		name      string
		codes     []int
		attempts  int
		wantCalls int
		wantCode  int
		wantErr   bool
	}{
		{name: "server error then ok", codes: []int{503, 200}, attempts: 3, wantCalls: 2, wantCode: 200},
		{name: "client error is final", codes: []int{400}, attempts: 3, wantCalls: 1, wantCode: 400},
		{name: "rate limited then ok", codes: []int{429, 201}, attempts: 2, wantCalls: 2, wantCode: 201},
		{name: "attempts exhausted", codes: []int{500}, attempts: 2, wantCalls: 2, wantCode: 500},
		{name: "transport error", codes: []int{0}, attempts: 2, wantCalls: 2, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calls := script(t, nil, tt.codes...)

			resp, err := Post("https://alerts.test/").JSON("x").Retry(tt.attempts, time.Millisecond).Send(context.Background())
			assert.Equal(t, tt.wantCalls, *calls)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantCode, resp.StatusCode)
		})
	}
}

func TestRetryAfterOverridesBackoff(t *testing.T) {
	calls := script(t, gohttp.Header{"Retry-After": []string{"0"}}, 429, 200)

	start := time.Now()
	resp, err := Post("https://hooks.slack.test/").JSON("x").Retry(2, time.Minute).Send(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)
	assert.Equal(t, 2, *calls)
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestSendStopsOnCancel(t *testing.T) {
	script(t, nil, 503)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Post("https://alerts.test/").JSON("x").Retry(3, time.Minute).Send(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestResponseErr(t *testing.T) {
	assert.NoError(t, (&Response{StatusCode: 202}).Err())
	err := (&Response{StatusCode: 400, Body: []byte(" invalid_payload\n")}).Err()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 400: invalid_payload")

	ra, ok := (&Response{StatusCode: 429, Header: gohttp.Header{"Retry-After": []string{"120"}}}).retryAfter()
	assert.True(t, ok)
	assert.Equal(t, maxRetryAfter, ra)
}
