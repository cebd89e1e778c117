package llm

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"

	"github.com/sammcj/promptlab/types"
)

// OpenAI-compatible request/response payloads (subset)

type chatRequest struct {
	Model         string         `json:"model"`
	Messages      []wireMessage  `json:"messages"`
	Tools         []wireTool     `json:"tools,omitempty"`
	Temperature   *float64       `json:"temperature,omitempty"`
	MaxTokens     int            `json:"max_tokens,omitempty"`
	Stream        bool           `json:"stream,omitempty"`
	StreamOptions *streamOptions `json:"stream_options,omitempty"`
}

type streamOptions struct {
	IncludeUsage bool `json:"include_usage"`
}

type wireMessage struct {
	Role       string         `json:"role"`
	Content    string         `json:"content"`
	Name       string         `json:"name,omitempty"`
	ToolCallID string         `json:"tool_call_id,omitempty"`
	ToolCalls  []wireToolCall `json:"tool_calls,omitempty"`
}

type wireTool struct {
	Type     string       `json:"type"`
	Function wireFunction `json:"function"`
}

type wireFunction struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description,omitempty"`
	Parameters  map[string]interface{} `json:"parameters,omitempty"`
}

type wireToolCall struct {
	Index    *int             `json:"index,omitempty"`
	ID       string           `json:"id,omitempty"`
	Type     string           `json:"type,omitempty"`
	Function wireToolCallFunc `json:"function"`
}

type wireToolCallFunc struct {
	Name      string `json:"name,omitempty"`
	Arguments string `json:"arguments"`
}

type chatResponse struct {
	ID      string       `json:"id"`
	Model   string       `json:"model"`
	Choices []chatChoice `json:"choices"`
	Usage   *types.Usage `json:"usage,omitempty"`
}

type chatChoice struct {
	Index        int         `json:"index"`
	Message      wireMessage `json:"message"`
	Delta        wireMessage `json:"delta"`
	FinishReason string      `json:"finish_reason"`
}

type errorResponse struct {
	Error struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

// convertTools converts MCP tools to function-calling format
func convertTools(tools []mcp.Tool, names toolNames) []wireTool {
	out := make([]wireTool, 0, len(tools))
	for _, tool := range tools {
		out = append(out, wireTool{
			Type: "function",
			Function: wireFunction{
				Name:        names.wireName(tool.Name),
				Description: tool.Description,
				Parameters:  inputSchema(tool),
			},
		})
	}
	return out
}

func toWireMessages(msgs []types.Message, names toolNames) ([]wireMessage, error) {
	out := make([]wireMessage, 0, len(msgs))
	for _, m := range msgs {
		wm := wireMessage{
			Role:       string(m.Role),
			Content:    m.Content,
			Name:       m.Name,
			ToolCallID: m.ToolCallID,
		}
		for _, call := range m.ToolCalls {
			args, err := json.Marshal(call.Function.Arguments)
			if err != nil {
				return nil, fmt.Errorf("failed to encode arguments for %s: %w", call.Function.Name, err)
			}
			wm.ToolCalls = append(wm.ToolCalls, wireToolCall{
				ID:   call.ID,
				Type: "function",
				Function: wireToolCallFunc{
					Name:      names.wireName(call.Function.Name),
					Arguments: string(args),
				},
			})
		}
		out = append(out, wm)
	}
	return out, nil
}

// decodeToolCall turns a wire tool call into a types.ToolCall with decoded arguments
func decodeToolCall(call wireToolCall, names toolNames) (types.ToolCall, error) {
	args := map[string]interface{}{}
	if call.Function.Arguments != "" {
		if err := json.Unmarshal([]byte(call.Function.Arguments), &args); err != nil {
			return types.ToolCall{}, &types.LLMError{
				Operation: "decode_tool_call",
				Message:   fmt.Sprintf("invalid arguments for %s: %s", call.Function.Name, truncate(call.Function.Arguments, 200)),
				Err:       err,
			}
		}
	}

	id := call.ID
	if id == "" {
		id = "call_" + uuid.NewString()
	}
	return types.NewToolCall(id, names.original(call.Function.Name), args), nil
}
