package bridge

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/sammcj/promptlab/tools"
)

// Tool is a callable capability offered to the model
type Tool interface {
	Name() string
	Spec() mcp.Tool
	Invoke(ctx context.Context, args map[string]interface{}) (string, error)
}

// ToolSource lists and calls tools. MCPClient is the production implementation.
type ToolSource interface {
	ListTools(ctx context.Context) ([]mcp.Tool, error)
	CallTool(ctx context.Context, name string, args map[string]interface{}) (string, error)
}

type remoteTool struct {
	spec   mcp.Tool
	source ToolSource
}

func (t *remoteTool) Name() string   { return t.spec.Name }
func (t *remoteTool) Spec() mcp.Tool { return t.spec }

func (t *remoteTool) Invoke(ctx context.Context, args map[string]interface{}) (string, error) {
	return t.source.CallTool(ctx, t.spec.Name, args)
}

// LoadMCPTools wraps every tool the session exposes in a proxy that calls back into the session
func LoadMCPTools(ctx context.Context, source ToolSource) ([]Tool, error) {
	specs, err := source.ListTools(ctx)
	if err != nil {
		return nil, err
	}
	tools := make([]Tool, 0, len(specs))
	for _, spec := range specs {
		tools = append(tools, &remoteTool{spec: spec, source: source})
	}
	return tools, nil
}

// ToolFunc is the body of a local tool
type ToolFunc func(ctx context.Context, args map[string]interface{}) (string, error)

type funcTool struct {
	spec mcp.Tool
	fn   ToolFunc
}

// NewFuncTool wraps a local function as a Tool
func NewFuncTool(spec mcp.Tool, fn ToolFunc) Tool {
	return &funcTool{spec: spec, fn: fn}
}

func (t *funcTool) Name() string   { return t.spec.Name }
func (t *funcTool) Spec() mcp.Tool { return t.spec }

func (t *funcTool) Invoke(ctx context.Context, args map[string]interface{}) (string, error) {
	return t.fn(ctx, args)
}

// LocalTools exposes in-process tools without a subprocess session
func LocalTools(set []tools.Tool) []Tool {
	out := make([]Tool, 0, len(set))
	for _, lt := range set {
		lt := lt
		out = append(out, NewFuncTool(lt.GetToolSpec(), func(ctx context.Context, args map[string]interface{}) (string, error) {
			if err := ctx.Err(); err != nil {
				return "", err
			}
			v, err := lt.Execute(args)
			if err != nil {
				return "", err
			}
			return tools.Render(v)
		}))
	}
	return out
}

// Specs returns the descriptors of tools, in order
func Specs(tools []Tool) []mcp.Tool {
	specs := make([]mcp.Tool, len(tools))
	for i, t := range tools {
		specs[i] = t.Spec()
	}
	return specs
}

// find returns the first tool with the given name
func find(tools []Tool, name string) (Tool, bool) {
	for _, t := range tools {
		if t.Name() == name {
			return t, true
		}
	}
	return nil, false
}
