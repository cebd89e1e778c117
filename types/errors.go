// types/errors.go
package types

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrInvalidConfig indicates a configuration error
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrSession indicates the tool server session could not be used
	ErrSession = errors.New("tool server session failed")

	// ErrLLMResponse indicates an invalid LLM response
	ErrLLMResponse = errors.New("invalid LLM response")

	// ErrToolExecution indicates a tool execution failure
	ErrToolExecution = errors.New("tool execution failed")

	// ErrTemplate indicates a prompt template could not be parsed or formatted
	ErrTemplate = errors.New("prompt template error")

	// ErrOutputParse indicates model output did not match the expected shape
	ErrOutputParse = errors.New("output parse failed")

	// ErrHistory indicates a chat history store failure
	ErrHistory = errors.New("chat history failed")

	// ErrMaxIterations indicates the agent loop hit its iteration cap
	ErrMaxIterations = errors.New("agent reached max iterations")
)

// ConfigError wraps configuration-related errors
type ConfigError struct {
	Field   string
	Message string
	Err     error
}

func (e *ConfigError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("configuration error in %s: %s: %v", e.Field, e.Message, e.Err)
	}
	return fmt.Sprintf("configuration error in %s: %s", e.Field, e.Message)
}

func (e *ConfigError) Unwrap() error {
	return ErrInvalidConfig
}

// BridgeError wraps tool server session errors
type BridgeError struct {
	Operation string
	Message   string
	Err       error
}

func (e *BridgeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("bridge error during %s: %s: %v", e.Operation, e.Message, e.Err)
	}
	return fmt.Sprintf("bridge error during %s: %s", e.Operation, e.Message)
}

func (e *BridgeError) Unwrap() []error {
	return wrapped(ErrSession, e.Err)
}

// LLMError wraps LLM-related errors
type LLMError struct {
	Operation  string
	Message    string
	StatusCode int
	Response   *LLMResponse
	Err        error
}

func (e *LLMError) Error() string {
	msg := e.Message
	if e.StatusCode != 0 {
		msg = fmt.Sprintf("status %d: %s", e.StatusCode, e.Message)
	}
	if e.Err != nil {
		return fmt.Sprintf("LLM error during %s: %s: %v", e.Operation, msg, e.Err)
	}
	return fmt.Sprintf("LLM error during %s: %s", e.Operation, msg)
}

func (e *LLMError) Unwrap() []error {
	return wrapped(ErrLLMResponse, e.Err)
}

// ToolError wraps tool-related errors
type ToolError struct {
	Tool    string
	Message string
	Err     error
}

func (e *ToolError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("tool error in %s: %s: %v", e.Tool, e.Message, e.Err)
	}
	return fmt.Sprintf("tool error in %s: %s", e.Tool, e.Message)
}

func (e *ToolError) Unwrap() []error {
	return wrapped(ErrToolExecution, e.Err)
}

// TemplateError reports a malformed template or variables missing at format time
type TemplateError struct {
	Template string
	Missing  []string
	Message  string
}

func (e *TemplateError) Error() string {
	if len(e.Missing) > 0 {
		return fmt.Sprintf("missing variables %s for template %q", strings.Join(quoteAll(e.Missing), ", "), e.Template)
	}
	return fmt.Sprintf("invalid template %q: %s", e.Template, e.Message)
}

func (e *TemplateError) Unwrap() error {
	return ErrTemplate
}

// ParseError carries the raw model output that failed to parse
type ParseError struct {
	Raw     string
	Message string
	Err     error
}

func (e *ParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("failed to parse output: %s: %v", e.Message, e.Err)
	}
	return fmt.Sprintf("failed to parse output: %s", e.Message)
}

func (e *ParseError) Unwrap() []error {
	return wrapped(ErrOutputParse, e.Err)
}

// HistoryError wraps chat history store errors
type HistoryError struct {
	Operation string
	Session   string
	Message   string
	Err       error
}

func (e *HistoryError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("history error during %s (session %s): %s: %v", e.Operation, e.Session, e.Message, e.Err)
	}
	return fmt.Sprintf("history error during %s (session %s): %s", e.Operation, e.Session, e.Message)
}

func (e *HistoryError) Unwrap() []error {
	return wrapped(ErrHistory, e.Err)
}

func wrapped(sentinel, cause error) []error {
	if cause == nil {
		return []error{sentinel}
	}
	return []error{sentinel, cause}
}

func quoteAll(names []string) []string {
	out := make([]string, len(names))
	for i, n := range names {
		out[i] = fmt.Sprintf("%q", n)
	}
	return out
}
