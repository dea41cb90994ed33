package testkit

import (
	"encoding/json"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func AssertStatusCode(t *testing.T, s Scenario, got int, body []byte) {
	t.Helper()
	assert.Equal(t, s.ExpectedCode, got, "[%s] status code mismatch\nbody: %s", s.Name, body)
}

// AssertJSONSubset checks that every key and value in expected appears in
// actual. Arrays must match in length; objects may carry extra keys.
func AssertJSONSubset(t *testing.T, name string, expected, actual []byte) {
	t.Helper()

	var exp, act interface{}
	require.NoError(t, json.Unmarshal(expected, &exp), "[%s] expected body is not valid JSON", name)
	if !assert.NoError(t, json.Unmarshal(actual, &act), "[%s] response is not JSON\nbody: %s", name, actual) {
		return
	}
	if diffs := DiffJSON("", exp, act); len(diffs) > 0 {
		assert.Fail(t, fmt.Sprintf("[%s] response body mismatch", name),
			"%s\nbody: %s", strings.Join(diffs, "\n"), actual)
	}
}

func AssertMocksCalled(t *testing.T, name string, mt *MockTransport) {
	t.Helper()
	for _, err := range mt.Uncalled() {
		assert.NoError(t, err, "[%s]", name)
	}
}

// DiffJSON lists where actual departs from the expected subset.
func DiffJSON(path string, expected, actual interface{}) []string {
	var diffs []string
	switch exp := expected.(type) {
	case map[string]interface{}:
		act, ok := actual.(map[string]interface{})
		if !ok {
			return append(diffs, fmt.Sprintf("  %s: expected object, got %T", keyPath(path), actual))
		}
		for k, ev := range exp {
			p := path + "." + k
			av, exists := act[k]
			if !exists {
				diffs = append(diffs, fmt.Sprintf("  %s: missing", keyPath(p)))
				continue
			}
			diffs = append(diffs, DiffJSON(p, ev, av)...)
		}
	case []interface{}:
		act, ok := actual.([]interface{})
		if !ok {
			return append(diffs, fmt.Sprintf("  %s: expected array, got %T", keyPath(path), actual))
		}
		if len(exp) != len(act) {
			diffs = append(diffs, fmt.Sprintf("  %s: length expected=%d actual=%d", keyPath(path), len(exp), len(act)))
		}
		for i := 0; i < len(exp) && i < len(act); i++ {
			diffs = append(diffs, DiffJSON(fmt.Sprintf("%s[%d]", path, i), exp[i], act[i])...)
		}
	default:
		if fmt.Sprintf("%v", expected) != fmt.Sprintf("%v", actual) {
			diffs = append(diffs, fmt.Sprintf("  %s:\n    - %v\n    + %v", keyPath(path), expected, actual))
		}
	}
	return diffs
}

func keyPath(path string) string {
	if path == "" {
		return "root"
	}
	return strings.TrimPrefix(path, ".")
}
