// Package mcpserver exposes the scene controller as MCP tools.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/gogpu/shaderscene"
)

// Scenes is the part of app.App the tools need.
type Scenes interface {
	Generate(ctx context.Context, prompt string) (shaderscene.State, error)
	Apply(ctx context.Context, payload any) (shaderscene.State, error)
	State(ctx context.Context) (shaderscene.State, error)
	Teardown(ctx context.Context) error
}

// StateResponse is the structured result of every tool.
type StateResponse struct {
	State shaderscene.State `json:"state" jsonschema_description:"Controller state after the call"`
	Error string            `json:"error,omitempty" jsonschema_description:"Why the scene was not applied, if it was not"`
}

// Server wraps the controller and exposes it as an MCP server.
type Server struct {
	scenes    Scenes
	mcpServer *server.MCPServer
}

// NewServer creates an MCP server named shaderscene-mcp.
func NewServer(scenes Scenes, version string) *Server {
	s := &Server{
		scenes:    scenes,
		mcpServer: server.NewMCPServer("shaderscene-mcp", version),
	}
	s.registerTools()
	return s
}

// MCPServer returns the underlying server.
func (s *Server) MCPServer() *server.MCPServer { return s.mcpServer }

// ServeStdio serves on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

func (s *Server) registerTools() {
	// TOOL: generate_scene
	generateTool := mcp.NewTool("generate_scene",
		mcp.WithDescription("Ask the generator for a shader scene matching the prompt and render it."),
		mcp.WithString("prompt", mcp.Required(), mcp.Description("Description of the visual effect")),
		mcp.WithOutputSchema[StateResponse](),
	)
	s.mcpServer.AddTool(generateTool, mcp.NewStructuredToolHandler(s.handleGenerate))

	// TOOL: apply_scene
	applyTool := mcp.NewTool("apply_scene",
		mcp.WithDescription("Validate a scene description given as JSON and render it."),
		mcp.WithString("payload", mcp.Required(), mcp.Description("Scene description JSON object")),
		mcp.WithOutputSchema[StateResponse](),
	)
	s.mcpServer.AddTool(applyTool, mcp.NewStructuredToolHandler(s.handleApply))

	// TOOL: get_state
	s.mcpServer.AddTool(mcp.NewTool("get_state",
		mcp.WithDescription("Get the controller state: running flag, frame count, last error and shaders."),
	), func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		st, err := s.scenes.State(ctx)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("state failed: %v", err)), nil
		}
		jsonBytes, _ := json.Marshal(st)
		return mcp.NewToolResultText(string(jsonBytes)), nil
	})

	// TOOL: teardown
	s.mcpServer.AddTool(mcp.NewTool("teardown",
		mcp.WithDescription("Stop rendering and release the current scene."),
	), func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		if err := s.scenes.Teardown(ctx); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("teardown failed: %v", err)), nil
		}
		return mcp.NewToolResultText("session disposed"), nil
	})
}

func (s *Server) handleGenerate(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (StateResponse, error) {
	prompt, _ := args["prompt"].(string)
	if prompt == "" {
		return StateResponse{}, fmt.Errorf("prompt is required")
	}
	st, err := s.scenes.Generate(ctx, prompt)
	return stateResponse(st, err), nil
}

func (s *Server) handleApply(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (StateResponse, error) {
	payload, _ := args["payload"].(string)
	if payload == "" {
		return StateResponse{}, fmt.Errorf("payload is required")
	}
	st, err := s.scenes.Apply(ctx, payload)
	return stateResponse(st, err), nil
}

// stateResponse reports scene errors in the result rather than as tool
// failures so that the caller still sees the state.
func stateResponse(st shaderscene.State, err error) StateResponse {
	resp := StateResponse{State: st}
	if err != nil {
		resp.Error = err.Error()
	}
	return resp
}
