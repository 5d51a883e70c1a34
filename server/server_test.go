package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AngleProtocol/merkl-dispute-sub000/dispute"
)

func get(t *testing.T, h http.Handler, path string) (int, map[string]interface{}) {
	t.Helper()
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	h.ServeHTTP(w, req)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return w.Code, body
}

func TestRouter(t *testing.T) {
	status := NewStatus()
	router := NewRouter(status, "v1.2.3")

	code, body := get(t, router, "/health")
	assert.Equal(t, http.StatusOK, code)
	data := body["data"].(map[string]interface{})
	assert.Equal(t, "v1.2.3", data["version"])
	assert.Equal(t, float64(0), data["runs"])

	code, body = get(t, router, "/report/latest")
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, float64(ErrNoReport.Code), body["code"])

	r := dispute.NewReport(&dispute.Context{ChainID: 137})
	r.Outcome = dispute.Clean{Reason: "tree verified"}
	status.Success(context.Background(), r, dispute.Clean{Reason: "tree verified"})

	code, body = get(t, router, "/report/latest")
	assert.Equal(t, http.StatusOK, code)
	data = body["data"].(map[string]interface{})
	assert.Equal(t, r.RunID, data["runId"])
	assert.Equal(t, "clean", data["outcome"])
	assert.Equal(t, float64(137), data["chainId"])

	// a dispute event for the same run does not count as a new run
	status.DisputeSuccess(context.Background(), r)
	_, body = get(t, router, "/health")
	assert.Equal(t, float64(1), body["data"].(map[string]interface{})["runs"])
}
