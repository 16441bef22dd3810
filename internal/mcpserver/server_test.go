package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gogpu/shaderscene"
	"github.com/gogpu/shaderscene/internal/testutils"
)

func TestToolsListed(t *testing.T) {
	s := NewServer(testutils.StartApp(t, &testutils.StaticGenerator{}), "test")

	resp := s.MCPServer().HandleMessage(context.Background(),
		json.RawMessage(`{"jsonrpc": "2.0", "id": 1, "method": "tools/list"}`))
	data, err := json.Marshal(resp)
	require.NoError(t, err)

	for _, name := range []string{"generate_scene", "apply_scene", "get_state", "teardown"} {
		assert.Contains(t, string(data), `"`+name+`"`)
	}
}

func TestGenerateScene(t *testing.T) {
	gen := &testutils.StaticGenerator{Body: testutils.PayloadJSON(t, 0.7)}
	s := NewServer(testutils.StartApp(t, gen), "test")

	resp, err := s.handleGenerate(context.Background(), mcp.CallToolRequest{}, map[string]interface{}{"prompt": "glow"})
	require.NoError(t, err)
	assert.Empty(t, resp.Error)
	assert.True(t, resp.State.Running)

	_, err = s.handleGenerate(context.Background(), mcp.CallToolRequest{}, map[string]interface{}{})
	assert.Error(t, err)
}

func TestGenerateSceneFetchFailure(t *testing.T) {
	gen := &testutils.StaticGenerator{Err: fmt.Errorf("%w: timeout", shaderscene.ErrFetchFailed)}
	s := NewServer(testutils.StartApp(t, gen), "test")

	resp, err := s.handleGenerate(context.Background(), mcp.CallToolRequest{}, map[string]interface{}{"prompt": "glow"})
	require.NoError(t, err)
	assert.Contains(t, resp.Error, "fetch failed")
	assert.False(t, resp.State.Running)
}

func TestApplyScene(t *testing.T) {
	s := NewServer(testutils.StartApp(t, &testutils.StaticGenerator{}), "test")

	payload, err := json.Marshal(testutils.Payload(1))
	require.NoError(t, err)
	resp, err := s.handleApply(context.Background(), mcp.CallToolRequest{}, map[string]interface{}{"payload": string(payload)})
	require.NoError(t, err)
	assert.Empty(t, resp.Error)
	assert.Equal(t, testutils.FragmentWGSL, resp.State.FragmentShader)

	resp, err = s.handleApply(context.Background(), mcp.CallToolRequest{}, map[string]interface{}{"payload": `{"vertex_shader": 1}`})
	require.NoError(t, err)
	assert.Contains(t, resp.Error, "malformed payload")
	assert.True(t, resp.State.Running, "rejected payload must not stop the running scene")
}
