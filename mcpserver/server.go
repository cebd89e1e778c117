// mcpserver/server.go
package mcpserver

import (
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/sirupsen/logrus"

	"github.com/sammcj/promptlab/metrics"
	"github.com/sammcj/promptlab/tools"
)

const (
	Name    = "promptlab-demo-server"
	Version = "0.1.0"
)

// MCPServer serves a set of local tools over stdio. Logs must not go to stdout.
type MCPServer struct {
	server *server.MCPServer
	tools  []tools.Tool
	close  func() error
	logger *logrus.Entry
}

// New registers every tool on a fresh mcp-go server. closer runs on Close.
func New(set []tools.Tool, closer func() error, logger *logrus.Entry) *MCPServer {
	s := &MCPServer{
		server: server.NewMCPServer(
			Name,
			Version,
			server.WithToolCapabilities(true),
			server.WithLogging(),
		),
		tools:  set,
		close:  closer,
		logger: logger,
	}

	for _, t := range set {
		spec := t.GetToolSpec()
		s.server.AddTool(spec, s.handler(t))
		logger.WithField("tool", spec.Name).Debug("registered tool")
	}

	s.server.AddNotificationHandler(s.handleNotification)

	logger.Infof("MCP server created with %d tools", len(set))
	return s
}

// Tools returns the registered tool specs, in registration order
func (s *MCPServer) Tools() []mcp.Tool {
	specs := make([]mcp.Tool, len(s.tools))
	for i, t := range s.tools {
		specs[i] = t.GetToolSpec()
	}
	return specs
}

func (s *MCPServer) handler(t tools.Tool) func(map[string]interface{}) (*mcp.CallToolResult, error) {
	name := t.GetToolSpec().Name
	return func(arguments map[string]interface{}) (*mcp.CallToolResult, error) {
		log := s.logger.WithField("tool", name)
		log.WithField("arguments", arguments).Debug("tool call")

		text, err := call(t, arguments)
		if err != nil {
			metrics.RecordToolInvocation(name, metrics.OutcomeError)
			log.WithError(err).Warn("tool failed")
			return nil, fmt.Errorf("%s: %w", name, err)
		}

		metrics.RecordToolInvocation(name, metrics.OutcomeSuccess)
		return textResult(text), nil
	}
}

func call(t tools.Tool, arguments map[string]interface{}) (string, error) {
	v, err := t.Execute(arguments)
	if err != nil {
		return "", err
	}
	return tools.Render(v)
}

func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []interface{}{
			mcp.TextContent{
				Type: "text",
				Text: text,
			},
		},
	}
}

func (s *MCPServer) handleNotification(notification mcp.JSONRPCNotification) {
	s.logger.Debugf("received notification: %s", notification.Method)
}

// Serve blocks reading requests from stdin until it closes
func (s *MCPServer) Serve() error {
	s.logger.Info("starting MCP server on stdio")
	if err := server.ServeStdio(s.server); err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	s.logger.Info("MCP server stopped")
	return nil
}

func (s *MCPServer) Close() error {
	if s.close == nil {
		return nil
	}
	if err := s.close(); err != nil {
		return fmt.Errorf("failed to close tools: %w", err)
	}
	return nil
}
