package testkit

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"testing"

	adegahttp "github.com/adegaexpress/adega/pkg/http"
)

// MockTransport answers outgoing requests from MockSteps and records what
// was sent. Unmatched requests get a 404.
type MockTransport struct {
	mu       sync.Mutex
	steps    []MockStep
	calls    []int
	Requests []RecordedRequest
}

type RecordedRequest struct {
	Method string
	URL    string
	Header http.Header
	Body   []byte
}

func NewMockTransport(steps ...MockStep) *MockTransport {
	return &MockTransport{steps: steps, calls: make([]int, len(steps))}
}

// InstallTransport puts a MockTransport on pkg/http's client for the rest
// of the test.
func InstallTransport(t *testing.T, steps ...MockStep) *MockTransport {
	t.Helper()
	mt := NewMockTransport(steps...)
	adegahttp.DefaultClient.Transport = mt
	t.Cleanup(adegahttp.ResetTransport)
	return mt
}

func (mt *MockTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	var body []byte
	if req.Body != nil {
		body, _ = io.ReadAll(req.Body)
		req.Body.Close()
	}

	mt.mu.Lock()
	defer mt.mu.Unlock()

	mt.Requests = append(mt.Requests, RecordedRequest{
		Method: req.Method, URL: req.URL.String(), Header: req.Header.Clone(), Body: body,
	})

	for i, step := range mt.steps {
		if step.MatchURL != "" && !strings.HasPrefix(req.URL.String(), step.MatchURL) {
			continue
		}
		mt.calls[i]++
		code := step.StatusCode
		if code == 0 {
			code = http.StatusOK
		}
		return respond(req, code, step.Body), nil
	}
	return respond(req, http.StatusNotFound, []byte(`{"error":"no mock configured"}`)), nil
}

// Calls returns how many requests each step answered.
func (mt *MockTransport) Calls() []int {
	mt.mu.Lock()
	defer mt.mu.Unlock()
	return append([]int(nil), mt.calls...)
}

// Sent returns a copy of the recorded requests.
func (mt *MockTransport) Sent() []RecordedRequest {
	mt.mu.Lock()
	defer mt.mu.Unlock()
	return append([]RecordedRequest(nil), mt.Requests...)
}

// Uncalled reports Required steps nothing hit.
func (mt *MockTransport) Uncalled() []error {
	mt.mu.Lock()
	defer mt.mu.Unlock()
	var errs []error
	for i, step := range mt.steps {
		if step.Required && mt.calls[i] == 0 {
			errs = append(errs, fmt.Errorf("testkit: mock for %q was never called", step.MatchURL))
		}
	}
	return errs
}

func respond(req *http.Request, code int, body []byte) *http.Response {
	h := make(http.Header)
	h.Set("Content-Type", "application/json")
	return &http.Response{
		StatusCode: code,
		Status:     fmt.Sprintf("%d %s", code, http.StatusText(code)),
		Header:     h,
		Body:       io.NopCloser(bytes.NewReader(body)),
		Request:    req,
	}
}
