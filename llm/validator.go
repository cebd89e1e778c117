package llm

import (
	"fmt"
	"math"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/sammcj/promptlab/types"
)

// Validator validates LLM responses and tool calls
type Validator struct {
	tools map[string]mcp.Tool
}

// NewValidator creates a new validator with the given tools
func NewValidator(tools []mcp.Tool) *Validator {
	toolMap := make(map[string]mcp.Tool)
	for _, tool := range tools {
		toolMap[tool.Name] = tool
	}
	return &Validator{tools: toolMap}
}

// ValidateResponse validates every tool call in a response
func (v *Validator) ValidateResponse(resp *types.LLMResponse) error {
	if resp == nil {
		return &types.LLMError{Operation: "validate", Message: "response is nil"}
	}

	for _, call := range resp.ToolCalls {
		if err := v.ValidateToolCall(call); err != nil {
			return err
		}
	}

	return nil
}

// ValidateToolCall checks the tool exists and the arguments fit its input schema
func (v *Validator) ValidateToolCall(call types.ToolCall) error {
	tool, ok := v.tools[call.Function.Name]
	if !ok {
		return &types.ToolError{Tool: call.Function.Name, Message: "unknown tool"}
	}

	if err := v.validateArguments(call.Function.Arguments, tool.InputSchema); err != nil {
		return &types.ToolError{Tool: call.Function.Name, Message: "invalid arguments", Err: err}
	}

	return nil
}

// validateArguments validates tool arguments against a schema
func (v *Validator) validateArguments(args map[string]interface{}, schema mcp.ToolInputSchema) error {
	for _, required := range schema.Required {
		if _, ok := args[required]; !ok {
			return fmt.Errorf("missing required field: %s", required)
		}
	}

	for name, value := range args {
		propSchema, ok := schema.Properties[name]
		if !ok {
			return fmt.Errorf("unknown property: %s", name)
		}

		prop, ok := propSchema.(map[string]interface{})
		if !ok {
			return fmt.Errorf("invalid property schema for %s", name)
		}
		propType, ok := prop["type"].(string)
		if !ok {
			// untyped properties accept anything
			continue
		}

		if err := v.validateType(value, propType); err != nil {
			return fmt.Errorf("invalid value for %s: %w", name, err)
		}
	}

	return nil
}

// validateType validates a value against a JSON Schema type
func (v *Validator) validateType(value interface{}, expectedType string) error {
	switch expectedType {
	case "string":
		if _, ok := value.(string); !ok {
			return fmt.Errorf("expected string, got %T", value)
		}
	case "number":
		switch value.(type) {
		case float64, float32, int, int64, int32:
		default:
			return fmt.Errorf("expected number, got %T", value)
		}
	case "integer":
		switch n := value.(type) {
		case int, int64, int32:
		case float64:
			if n != math.Trunc(n) {
				return fmt.Errorf("expected integer, got %v", n)
			}
		default:
			return fmt.Errorf("expected integer, got %T", value)
		}
	case "boolean":
		if _, ok := value.(bool); !ok {
			return fmt.Errorf("expected boolean, got %T", value)
		}
	case "object":
		if _, ok := value.(map[string]interface{}); !ok {
			return fmt.Errorf("expected object, got %T", value)
		}
	case "array":
		if _, ok := value.([]interface{}); !ok {
			return fmt.Errorf("expected array, got %T", value)
		}
	default:
		return fmt.Errorf("unsupported type: %s", expectedType)
	}

	return nil
}
