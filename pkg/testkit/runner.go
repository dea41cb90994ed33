package testkit

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
)

// RunFile runs every scenario in path, in order, as subtests against h.
func RunFile(t *testing.T, h http.Handler, path string, vars map[string]string) {
	t.Helper()

	list, err := LoadScenarios(path)
	if err != nil {
		t.Fatal(err)
	}
	for _, s := range list {
		s := s.expand(vars)
		if !t.Run(s.Name, func(t *testing.T) { runScenario(t, h, s) }) {
			// Later steps usually depend on this one.
			return
		}
	}
}

// RunDir runs every *.json file in dir through RunFile.
func RunDir(t *testing.T, h http.Handler, dir string, vars map[string]string) {
	t.Helper()

	files, err := filepath.Glob(filepath.Join(dir, "*.json"))
	if err != nil || len(files) == 0 {
		t.Fatalf("testkit: no scenario files in %q", dir)
	}
	for _, f := range files {
		f := f
		t.Run(filepath.Base(f), func(t *testing.T) { RunFile(t, h, f, vars) })
	}
}

func runScenario(t *testing.T, h http.Handler, s Scenario) {
	t.Helper()

	mt := InstallTransport(t, s.Outgoing...)

	var body io.Reader
	if len(s.Body) > 0 {
		body = bytes.NewReader(s.Body)
	}
	req := httptest.NewRequest(s.Method, s.URL, body)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	for k, v := range s.Headers {
		req.Header.Set(k, v)
	}

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	AssertStatusCode(t, s, rec.Code, rec.Body.Bytes())
	if len(s.ExpectedBody) > 0 {
		AssertJSONSubset(t, s.Name, s.ExpectedBody, rec.Body.Bytes())
	}
	AssertMocksCalled(t, s.Name, mt)
}
