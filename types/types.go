// types/types.go
package types

// Role identifies who authored a message in the conversation
type Role string

const (
	RoleSystem    Role = "system"
	RoleHuman     Role = "user"
	RoleAI        Role = "assistant"
	RoleTool      Role = "tool"
	toolCallType       = "function"
)

// ToolCall represents a tool invocation request from the LLM
type ToolCall struct {
	ID       string       `json:"id"`
	Type     string       `json:"type"`
	Function FunctionCall `json:"function"`
}

// FunctionCall holds the requested tool name and its decoded arguments
type FunctionCall struct {
	Name      string                 `json:"name"`
	Arguments map[string]interface{} `json:"arguments"`
}

// NewToolCall builds a function-type tool call
func NewToolCall(id, name string, args map[string]interface{}) ToolCall {
	if args == nil {
		args = map[string]interface{}{}
	}
	return ToolCall{
		ID:       id,
		Type:     toolCallType,
		Function: FunctionCall{Name: name, Arguments: args},
	}
}

// Usage reports token accounting when the provider returns it
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// LLMResponse represents a response from the LLM
type LLMResponse struct {
	Content      string     `json:"content"`
	ToolCalls    []ToolCall `json:"tool_calls,omitempty"`
	FinishReason string     `json:"finish_reason,omitempty"`
	Usage        *Usage     `json:"usage,omitempty"`
}

// HasToolCalls reports whether the model asked for at least one tool
func (r *LLMResponse) HasToolCalls() bool {
	return r != nil && len(r.ToolCalls) > 0
}

// Message converts the response into the assistant turn it represents
func (r *LLMResponse) Message() Message {
	return Message{
		Role:      RoleAI,
		Content:   r.Content,
		ToolCalls: r.ToolCalls,
	}
}

// Message represents a message in the conversation
type Message struct {
	Role       Role       `json:"role"`
	Content    string     `json:"content"`
	Name       string     `json:"name,omitempty"`
	ToolCallID string     `json:"tool_call_id,omitempty"`
	ToolCalls  []ToolCall `json:"tool_calls,omitempty"`
}

func System(content string) Message { return Message{Role: RoleSystem, Content: content} }
func Human(content string) Message  { return Message{Role: RoleHuman, Content: content} }
func AI(content string) Message     { return Message{Role: RoleAI, Content: content} }

// ToolResult builds the message carrying a tool's output back to the model
func ToolResult(toolCallID, content string) Message {
	return Message{Role: RoleTool, Content: content, ToolCallID: toolCallID}
}

// Label returns the display name used when rendering transcripts
func (r Role) Label() string {
	switch r {
	case RoleSystem:
		return "System"
	case RoleHuman:
		return "Human"
	case RoleAI:
		return "AI"
	case RoleTool:
		return "Tool"
	default:
		return string(r)
	}
}
