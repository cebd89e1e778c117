package llm

import (
	"errors"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"

	"github.com/sammcj/promptlab/types"
)

func TestValidator(t *testing.T) {
	tool := mcp.Tool{
		Name: "query_database",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"query": map[string]interface{}{"type": "string"},
				"limit": map[string]interface{}{"type": "integer"},
			},
			Required: []string{"query"},
		},
	}
	v := NewValidator([]mcp.Tool{tool})

	tests := []struct {
		name    string
		call    types.ToolCall
		wantErr bool
	}{
		{"valid", types.NewToolCall("1", "query_database", map[string]interface{}{"query": "SELECT 1", "limit": float64(5)}), false},
		{"unknown tool", types.NewToolCall("2", "drop_tables", nil), true},
		{"missing required", types.NewToolCall("3", "query_database", map[string]interface{}{"limit": float64(5)}), true},
		{"wrong type", types.NewToolCall("4", "query_database", map[string]interface{}{"query": 42}), true},
		{"fractional integer", types.NewToolCall("5", "query_database", map[string]interface{}{"query": "x", "limit": 1.5}), true},
		{"unknown property", types.NewToolCall("6", "query_database", map[string]interface{}{"query": "x", "table": "t"}), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.ValidateToolCall(tt.call)
			if tt.wantErr {
				assert.Error(t, err)
				assert.True(t, errors.Is(err, types.ErrToolExecution))
			} else {
				assert.NoError(t, err)
			}
		})
	}

	assert.Error(t, v.ValidateResponse(nil))
	assert.NoError(t, v.ValidateResponse(&types.LLMResponse{Content: "no tools"}))
}
