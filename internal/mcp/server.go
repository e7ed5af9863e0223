// Package mcp exposes guardmap as a stdio MCP tool server.
package mcp

import (
	"context"
	"fmt"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/ppiankov/guardmap/internal/engine"
	"github.com/ppiankov/guardmap/internal/policy"
)

// Config holds MCP server configuration.
type Config struct {
	PolicyPath string
	Version    string
}

// Server wraps the MCP SDK server around a guardmap engine.
// The policy file is reloaded on every tool call.
type Server struct {
	mcpServer  *mcpsdk.Server
	engine     *engine.Engine
	policyPath string
}

// New creates an MCP server with all guardmap tools registered.
func New(cfg Config, eng *engine.Engine) *Server {
	if eng == nil {
		eng = engine.New(nil)
	}
	version := cfg.Version
	if version == "" {
		version = "dev"
	}

	s := &Server{
		engine:     eng,
		policyPath: cfg.PolicyPath,
	}
	s.mcpServer = mcpsdk.NewServer(
		&mcpsdk.Implementation{
			Name:    "guardmap",
			Version: version,
		},
		nil,
	)
	s.registerTools()
	return s
}

// Run starts the MCP server on stdio transport. Blocks until ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	return s.mcpServer.Run(ctx, &mcpsdk.StdioTransport{})
}

func (s *Server) loadPolicies() (*policy.Set, error) {
	set, err := policy.Load(s.policyPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load policies: %w", err)
	}
	return set, nil
}

// registerTools adds all guardmap tools to the MCP server.
func (s *Server) registerTools() {
	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "guardmap_check",
		Description: "Check whether an agent tool call is allowed by the guardrail policies. Does not execute anything.",
	}, s.handleCheck)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "guardmap_test",
		Description: "Run every policy's embedded test cases and report passes and failures.",
	}, s.handleTest)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "guardmap_map",
		Description: "Map the guardrail policies onto a compliance framework and report per-control coverage.",
	}, s.handleMap)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "guardmap_gaps",
		Description: "Analyze compliance gaps for a framework: remediation plan, quick wins and overall risk.",
	}, s.handleGaps)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "guardmap_frameworks",
		Description: "List the available compliance frameworks.",
	}, s.handleFrameworks)
}
