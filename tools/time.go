// tools/time.go

package tools

import (
	"fmt"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
)

// TimeTool answers questions about the current time
type TimeTool struct {
	now func() time.Time
}

func NewTimeTool() *TimeTool {
	return &TimeTool{now: time.Now}
}

// GetToolSpec returns the MCP tool descriptor
func (t *TimeTool) GetToolSpec() mcp.Tool {
	return mcp.Tool{
		Name:        "current_time",
		Description: "Get the current time, convert a timestamp between time zones, or compare a timestamp with now",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"operation": map[string]interface{}{
					"type": "string",
					"enum": []string{"now", "format", "compare"},
				},
				"timezone": map[string]interface{}{
					"type":        "string",
					"description": "IANA time zone name, e.g. Europe/London. Defaults to UTC",
				},
				"timestamp": map[string]interface{}{
					"type":        "string",
					"description": "RFC3339 timestamp for format and compare",
				},
				"layout": map[string]interface{}{
					"type":        "string",
					"description": "Go time layout for the output, defaults to RFC3339",
				},
			},
		},
	}
}

// Execute handles time operations
func (t *TimeTool) Execute(params map[string]interface{}) (interface{}, error) {
	operation := stringParam(params, "operation")
	layout := stringParam(params, "layout")
	if layout == "" {
		layout = time.RFC3339
	}

	loc := time.UTC
	if tz := stringParam(params, "timezone"); tz != "" {
		var err error
		if loc, err = time.LoadLocation(tz); err != nil {
			return nil, fmt.Errorf("unknown timezone %q", tz)
		}
	}

	switch operation {
	case "", "now":
		return t.now().In(loc).Format(layout), nil

	case "format":
		ts, err := time.Parse(time.RFC3339, stringParam(params, "timestamp"))
		if err != nil {
			return nil, err
		}
		return ts.In(loc).Format(layout), nil

	case "compare":
		ts, err := time.Parse(time.RFC3339, stringParam(params, "timestamp"))
		if err != nil {
			return nil, err
		}
		now := t.now()
		return map[string]interface{}{
			"before":     ts.Before(now),
			"after":      ts.After(now),
			"difference": now.Sub(ts).String(),
		}, nil

	default:
		return nil, fmt.Errorf("unknown operation: %s", operation)
	}
}
