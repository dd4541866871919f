package http_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	httpadapter "github.com/aretw0/weave/pkg/adapters/http"
	"github.com/aretw0/weave/pkg/adapters/memory"
	"github.com/aretw0/weave/pkg/adapters/scripted"
	"github.com/aretw0/weave/pkg/source"
	"github.com/aretw0/weave/pkg/storemanager"
	"github.com/aretw0/weave/pkg/template"
)

type sessionResponse struct {
	ID       string `json:"id"`
	Messages []struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"messages"`
	Vars map[string]any `json:"vars"`
}

func newTestServer(t *testing.T, opts ...httpadapter.Option) *httptest.Server {
	t.Helper()
	mgr := storemanager.New(memory.NewStore())
	srv := httptest.NewServer(httpadapter.NewHandler(mgr, opts...))
	t.Cleanup(srv.Close)
	return srv
}

func postJSON(t *testing.T, url string, body any) *http.Response {
	t.Helper()
	data, err := json.Marshal(body)
	require.NoError(t, err)
	resp, err := http.Post(url, "application/json", bytes.NewReader(data))
	require.NoError(t, err)
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	defer resp.Body.Close()
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

func TestServer_SessionLifecycle(t *testing.T) {
	srv := newTestServer(t)

	// Create with explicit ID and vars.
	resp := postJSON(t, srv.URL+"/sessions", map[string]any{
		"id":   "alpha",
		"vars": map[string]any{"topic": "go"},
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	created := decode[sessionResponse](t, resp)
	assert.Equal(t, "alpha", created.ID)
	assert.Equal(t, "go", created.Vars["topic"])

	// Get.
	getResp, err := http.Get(srv.URL + "/sessions/alpha")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, getResp.StatusCode)
	got := decode[sessionResponse](t, getResp)
	assert.Equal(t, "alpha", got.ID)

	// List.
	listResp, err := http.Get(srv.URL + "/sessions")
	require.NoError(t, err)
	listed := decode[map[string][]string](t, listResp)
	assert.Contains(t, listed["sessions"], "alpha")

	// Delete.
	req, err := http.NewRequest(http.MethodDelete, srv.URL+"/sessions/alpha", nil)
	require.NoError(t, err)
	delResp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusNoContent, delResp.StatusCode)

	// Gone.
	goneResp, err := http.Get(srv.URL + "/sessions/alpha")
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, goneResp.StatusCode)
}

func TestServer_GeneratedID(t *testing.T) {
	srv := newTestServer(t)

	resp := postJSON(t, srv.URL+"/sessions", map[string]any{})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	created := decode[sessionResponse](t, resp)
	assert.Len(t, created.ID, 32, "generated IDs are 16 random bytes hex-encoded")
}

func TestServer_PostMessageWithResponder(t *testing.T) {
	responder, err := template.NewAssistant(
		source.NewGeneration(scripted.NewTextGenerator("echo reply")),
	)
	require.NoError(t, err)

	srv := newTestServer(t, httpadapter.WithResponder(responder))

	resp := postJSON(t, srv.URL+"/sessions", map[string]any{"id": "chat"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp.Body.Close()

	msgResp := postJSON(t, srv.URL+"/sessions/chat/messages", map[string]any{"content": "hello"})
	require.Equal(t, http.StatusOK, msgResp.StatusCode)
	updated := decode[sessionResponse](t, msgResp)

	require.Len(t, updated.Messages, 2)
	assert.Equal(t, "user", updated.Messages[0].Role)
	assert.Equal(t, "hello", updated.Messages[0].Content)
	assert.Equal(t, "assistant", updated.Messages[1].Role)
	assert.Equal(t, "echo reply", updated.Messages[1].Content)
}

func TestServer_PostMessageValidation(t *testing.T) {
	srv := newTestServer(t)

	resp := postJSON(t, srv.URL+"/sessions", map[string]any{"id": "chat"})
	resp.Body.Close()

	empty := postJSON(t, srv.URL+"/sessions/chat/messages", map[string]any{"content": ""})
	assert.Equal(t, http.StatusBadRequest, empty.StatusCode)
}

func TestServer_RunFlow(t *testing.T) {
	greet, err := template.NewSystem("You are brief.")
	require.NoError(t, err)

	srv := newTestServer(t, httpadapter.WithFlow("greet", greet))

	resp := postJSON(t, srv.URL+"/sessions", map[string]any{"id": "flowing"})
	resp.Body.Close()

	flowResp := postJSON(t, srv.URL+"/sessions/flowing/flows/greet", nil)
	require.Equal(t, http.StatusOK, flowResp.StatusCode)
	updated := decode[sessionResponse](t, flowResp)
	require.Len(t, updated.Messages, 1)
	assert.Equal(t, "system", updated.Messages[0].Role)

	missing := postJSON(t, srv.URL+"/sessions/flowing/flows/nope", nil)
	assert.Equal(t, http.StatusNotFound, missing.StatusCode)
}

func TestServer_Health(t *testing.T) {
	srv := newTestServer(t)
	resp, err := http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestServer_CORSPreflight(t *testing.T) {
	srv := newTestServer(t)

	req, err := http.NewRequest(http.MethodOptions, fmt.Sprintf("%s/sessions", srv.URL), nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
}
