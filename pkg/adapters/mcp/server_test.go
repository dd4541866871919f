package mcp

import (
	"context"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/weave/pkg/adapters/memory"
	"github.com/aretw0/weave/pkg/adapters/scripted"
	"github.com/aretw0/weave/pkg/source"
	"github.com/aretw0/weave/pkg/storemanager"
	"github.com/aretw0/weave/pkg/template"
)

func newTestServer(t *testing.T, opts ...Option) *Server {
	t.Helper()
	return NewServer(storemanager.New(memory.NewStore()), "test", opts...)
}

func TestServer_StartAndTranscript(t *testing.T) {
	srv := newTestServer(t)
	ctx := context.Background()

	resp, err := srv.handleStartSession(ctx, mcp.CallToolRequest{}, map[string]any{
		"session_id": "s1",
		"vars":       `{"topic": "go"}`,
	})
	require.NoError(t, err)
	assert.Equal(t, "s1", resp.SessionID)
	assert.Equal(t, "go", resp.Vars["topic"])

	got, err := srv.handleGetTranscript(ctx, mcp.CallToolRequest{}, map[string]any{
		"session_id": "s1",
	})
	require.NoError(t, err)
	assert.Empty(t, got.Messages)
}

func TestServer_SendMessageRunsResponder(t *testing.T) {
	responder, err := template.NewAssistant(
		source.NewGeneration(scripted.NewTextGenerator("model says hi")),
	)
	require.NoError(t, err)

	srv := newTestServer(t, WithResponder(responder))
	ctx := context.Background()

	_, err = srv.handleStartSession(ctx, mcp.CallToolRequest{}, map[string]any{"session_id": "chat"})
	require.NoError(t, err)

	resp, err := srv.handleSendMessage(ctx, mcp.CallToolRequest{}, map[string]any{
		"session_id": "chat",
		"content":    "hello",
	})
	require.NoError(t, err)
	require.Len(t, resp.Messages, 2)
	assert.Equal(t, "user", resp.Messages[0].Role)
	assert.Equal(t, "assistant", resp.Messages[1].Role)
	assert.Equal(t, "model says hi", resp.Messages[1].Content)
}

func TestServer_RunFlow(t *testing.T) {
	greet, err := template.NewSystem("Be brief.")
	require.NoError(t, err)

	srv := newTestServer(t, WithFlow("greet", greet))
	ctx := context.Background()

	_, err = srv.handleStartSession(ctx, mcp.CallToolRequest{}, map[string]any{"session_id": "f1"})
	require.NoError(t, err)

	resp, err := srv.handleRunFlow(ctx, mcp.CallToolRequest{}, map[string]any{
		"session_id": "f1",
		"flow":       "greet",
	})
	require.NoError(t, err)
	require.Len(t, resp.Messages, 1)
	assert.Equal(t, "system", resp.Messages[0].Role)

	_, err = srv.handleRunFlow(ctx, mcp.CallToolRequest{}, map[string]any{
		"session_id": "f1",
		"flow":       "nope",
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown flow")
}

func TestServer_InputValidation(t *testing.T) {
	srv := newTestServer(t)
	ctx := context.Background()

	_, err := srv.handleStartSession(ctx, mcp.CallToolRequest{}, map[string]any{})
	require.Error(t, err)

	_, err = srv.handleSendMessage(ctx, mcp.CallToolRequest{}, map[string]any{"session_id": "x"})
	require.Error(t, err)

	_, err = srv.handleStartSession(ctx, mcp.CallToolRequest{}, map[string]any{
		"session_id": "bad",
		"vars":       "{not json",
	})
	require.Error(t, err)
}
