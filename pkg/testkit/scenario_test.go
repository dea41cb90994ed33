package testkit_test

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	adegahttp "github.com/adegaexpress/adega/pkg/http"
	"github.com/adegaexpress/adega/pkg/testkit"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	switch r.URL.Path {
	case "/health":
		_, _ = w.Write([]byte(`{"status":"ok","uptime":3}`))
	case "/echo":
		var in map[string]interface{}
		_ = json.NewDecoder(r.Body).Decode(&in)
		resp, err := adegahttp.Post("https://hooks.example.com/echo").JSON(in).Send(r.Context())
		if err != nil || resp.StatusCode != http.StatusAccepted {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"auth": r.Header.Get("Authorization"),
			"echo": in,
		})
	default:
		w.WriteHeader(http.StatusNotFound)
	}
})

func TestRunFile(t *testing.T) {
	testkit.RunFile(t, testHandler, "testdata/echo.json", map[string]string{"token": "t-123"})
}

func TestLoadScenarios_Defaults(t *testing.T) {
	list, err := testkit.LoadScenarios("testdata/echo.json")
	require.NoError(t, err)
	require.Len(t, list, 2)

	assert.Equal(t, "GET", list[0].Method)
	assert.Equal(t, 200, list[0].ExpectedCode)
	assert.Equal(t, "POST", list[1].Method)
	assert.True(t, list[1].Outgoing[0].Required)
}

func TestMockTransport_RecordsAndMatches(t *testing.T) {
	mt := testkit.InstallTransport(t,
		testkit.MockStep{MatchURL: "https://hooks.example.com/", StatusCode: 204},
	)

	resp, err := adegahttp.Post("https://hooks.example.com/alerts").JSON(map[string]int{"stock": 2}).Send(context.Background())
	require.NoError(t, err)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp, err = adegahttp.Post("https://elsewhere.example.com/").JSON(nil).Send(context.Background())
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	assert.Equal(t, []int{1}, mt.Calls())
	sent := mt.Sent()
	require.Len(t, sent, 2)
	assert.JSONEq(t, `{"stock":2}`, string(sent[0].Body))
	assert.Empty(t, mt.Uncalled())
}

func TestMockTransport_RequiredNotCalled(t *testing.T) {
	mt := testkit.NewMockTransport(testkit.MockStep{MatchURL: "https://a.example.com/", Required: true})
	assert.Len(t, mt.Uncalled(), 1)
}

func TestDiffJSON_Subset(t *testing.T) {
	var exp, act interface{}
	require.NoError(t, json.Unmarshal([]byte(`{"data":{"status":"ready","items":[{"quantity":2}]}}`), &exp))
	require.NoError(t, json.Unmarshal([]byte(`{"status":200,"data":{"id":1,"status":"ready","items":[{"id":9,"quantity":2}]}}`), &act))
	assert.Empty(t, testkit.DiffJSON("", exp, act))

	require.NoError(t, json.Unmarshal([]byte(`{"data":{"status":"pending"}}`), &exp))
	diffs := testkit.DiffJSON("", exp, act)
	require.Len(t, diffs, 1)
	assert.Contains(t, diffs[0], "data.status")
}

func TestCall_DecodesEnvelope(t *testing.T) {
	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":200,"data":{"id":4}}`))
	})
	resp := testkit.Call(t, h, http.MethodGet, "/x", nil, testkit.Bearer("abc"))
	assert.Equal(t, http.StatusOK, resp.Code)

	var out struct{ ID int }
	resp.Data(t, &out)
	assert.Equal(t, 4, out.ID)
}
