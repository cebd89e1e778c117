// tools/tools.go
package tools

import (
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
)

// Tool is a local capability that can be served over MCP or called in-process
type Tool interface {
	GetToolSpec() mcp.Tool
	Execute(params map[string]interface{}) (interface{}, error)
}

// Default builds the standard demo tool set. An empty dbPath leaves out the query tool.
func Default(root, dbPath string) ([]Tool, func() error, error) {
	fsTool, err := NewFileSystemTool(root)
	if err != nil {
		return nil, nil, err
	}
	set := []Tool{NewTimeTool(), fsTool}
	closer := func() error { return nil }

	if dbPath != "" {
		dbTool, err := NewDatabaseTool(dbPath)
		if err != nil {
			return nil, nil, fmt.Errorf("database tool: %w", err)
		}
		set = append(set, dbTool)
		closer = dbTool.Close
	}
	return set, closer, nil
}

func stringParam(params map[string]interface{}, name string) string {
	s, _ := params[name].(string)
	return s
}

// Render turns a tool result into the text sent back to the model
func Render(v interface{}) (string, error) {
	if s, ok := v.(string); ok {
		return s, nil
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal result: %w", err)
	}
	return string(data), nil
}
