// Package testkit holds the helpers API and service tests share: an
// in-memory database, request/envelope helpers, and JSON scenario files
// that drive a handler end to end.
//
// A scenario file is a JSON array run in order against one handler, so
// later steps can act on what earlier ones created:
//
//	[
//	  {"name": "create", "method": "POST", "url": "/api/orders",
//	   "headers": {"Authorization": "Bearer {{staff}}"},
//	   "body": {...}, "expectedCode": 201,
//	   "expectedBody": {"data": {"status": "pending"}}}
//	]
//
// expectedBody is matched as a subset of the response. {{name}} markers in
// url, headers and body are replaced from the vars passed to RunFile.
package testkit

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

type Scenario struct {
	Name         string            `json:"name"`
	Method       string            `json:"method"`
	URL          string            `json:"url"`
	Headers      map[string]string `json:"headers"`
	Body         json.RawMessage   `json:"body"`
	ExpectedCode int               `json:"expectedCode"`
	ExpectedBody json.RawMessage   `json:"expectedBody"`

	// Outgoing mocks HTTP calls made through pkg/http while the step runs.
	Outgoing []MockStep `json:"outgoing"`
}

// MockStep answers outgoing requests whose URL starts with MatchURL.
type MockStep struct {
	MatchURL   string          `json:"matchUrl"`
	StatusCode int             `json:"statusCode"`
	Body       json.RawMessage `json:"body"`
	// Required fails the step when nothing called the mock.
	Required bool `json:"required"`
}

// LoadScenarios reads the scenario array in path.
func LoadScenarios(path string) ([]Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("testkit: read %q: %w", path, err)
	}
	var list []Scenario
	if err := json.Unmarshal(data, &list); err != nil {
		return nil, fmt.Errorf("testkit: parse %q: %w", path, err)
	}
	for i := range list {
		if err := list[i].validate(); err != nil {
			return nil, fmt.Errorf("testkit: %s[%d]: %w", filepath.Base(path), i, err)
		}
	}
	return list, nil
}

func (s *Scenario) validate() error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.URL == "" {
		return fmt.Errorf("%s: url is required", s.Name)
	}
	if s.Method == "" {
		s.Method = "GET"
	}
	s.Method = strings.ToUpper(s.Method)
	if s.ExpectedCode == 0 {
		s.ExpectedCode = 200
	}
	return nil
}

// expand replaces {{key}} markers with vars.
func (s Scenario) expand(vars map[string]string) Scenario {
	if len(vars) == 0 {
		return s
	}
	pairs := make([]string, 0, len(vars)*2)
	for k, v := range vars {
		pairs = append(pairs, "{{"+k+"}}", v)
	}
	r := strings.NewReplacer(pairs...)

	out := s
	out.URL = r.Replace(s.URL)
	if len(s.Body) > 0 {
		out.Body = json.RawMessage(r.Replace(string(s.Body)))
	}
	if s.Headers != nil {
		out.Headers = make(map[string]string, len(s.Headers))
		for k, v := range s.Headers {
			out.Headers[k] = r.Replace(v)
		}
	}
	return out
}
