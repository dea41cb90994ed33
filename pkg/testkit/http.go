package testkit

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

// Envelope mirrors response.Envelope with data left raw.
type Envelope struct {
	Status  int               `json:"status"`
	Message string            `json:"message"`
	Data    json.RawMessage   `json:"data"`
	Errors  map[string]string `json:"errors"`
}

type Response struct {
	Code int
	Body []byte
}

// Call sends body (marshalled unless already []byte) to h. Extra args are
// applied to the request before it is served.
func Call(t *testing.T, h http.Handler, method, url string, body interface{}, opts ...func(*http.Request)) Response {
	t.Helper()

	var r io.Reader
	switch b := body.(type) {
	case nil:
	case []byte:
		r = bytes.NewReader(b)
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		r = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, url, r)
	req.Header.Set("Content-Type", "application/json")
	for _, opt := range opts {
		opt(req)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return Response{Code: rec.Code, Body: rec.Body.Bytes()}
}

// Bearer sets the Authorization header.
func Bearer(token string) func(*http.Request) {
	return func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+token) }
}

// Envelope decodes the standard response envelope.
func (r Response) Envelope(t *testing.T) Envelope {
	t.Helper()
	var env Envelope
	require.NoError(t, json.Unmarshal(r.Body, &env), "body: %s", r.Body)
	return env
}

// Data decodes the envelope's data into dest.
func (r Response) Data(t *testing.T, dest interface{}) {
	t.Helper()
	env := r.Envelope(t)
	require.NoError(t, json.Unmarshal(env.Data, dest), "data: %s", env.Data)
}

// Raw decodes the whole body into dest.
func (r Response) Raw(t *testing.T, dest interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(r.Body, dest), "body: %s", r.Body)
}
