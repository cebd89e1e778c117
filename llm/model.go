// llm/model.go
package llm

import (
	"context"
	"fmt"
	"unicode/utf8"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/sirupsen/logrus"

	"github.com/sammcj/promptlab/config"
	"github.com/sammcj/promptlab/logging"
	"github.com/sammcj/promptlab/types"
)

// ChatModel is a remote chat-completion endpoint
type ChatModel interface {
	// Generate sends the conversation and returns the model's reply
	Generate(ctx context.Context, messages []types.Message) (*types.LLMResponse, error)

	// BindTools returns a copy of the model that offers the given tools on every call
	BindTools(tools []mcp.Tool) ChatModel
}

// StreamHandler receives text tokens as they arrive
type StreamHandler func(token string)

type settings struct {
	logger  *logrus.Entry
	onToken StreamHandler
}

// Option configures a model client
type Option func(*settings)

// WithLogger sets the logger used by the client
func WithLogger(logger logrus.FieldLogger) Option {
	return func(s *settings) {
		s.logger = logging.Component(logger, "llm")
	}
}

// WithStreamHandler prints or collects tokens while a streaming call is running
func WithStreamHandler(fn StreamHandler) Option {
	return func(s *settings) {
		s.onToken = fn
	}
}

func newSettings(opts []Option) settings {
	s := settings{logger: logging.Discard()}
	for _, opt := range opts {
		opt(&s)
	}
	return s
}

// New creates the client matching params.Provider
func New(params config.ModelParams, opts ...Option) (ChatModel, error) {
	switch params.Provider {
	case "", config.ProviderOpenAI:
		return NewClient(params, opts...), nil
	case config.ProviderAnthropic:
		return NewAnthropicClient(params, opts...), nil
	default:
		return nil, &types.ConfigError{
			Field:   "provider",
			Message: fmt.Sprintf("unsupported provider %q", params.Provider),
		}
	}
}

// toolNames maps registered tool names to the names sent on the wire and back.
// Names that collide after sanitizing get a numeric suffix.
type toolNames struct {
	toWire   map[string]string
	fromWire map[string]string
}

func newToolNames(tools []mcp.Tool, logger logrus.FieldLogger) toolNames {
	n := toolNames{
		toWire:   make(map[string]string, len(tools)),
		fromWire: make(map[string]string, len(tools)),
	}
	for _, t := range tools {
		if _, ok := n.toWire[t.Name]; ok {
			continue
		}
		base := sanitizeToolName(t.Name)
		name := base
		for i := 2; ; i++ {
			if _, taken := n.fromWire[name]; !taken {
				break
			}
			name = fmt.Sprintf("%s_%d", base, i)
		}
		if name != base {
			logger.WithField("tool", t.Name).Warnf("tool name collides with %q after sanitizing, sending as %q", n.fromWire[base], name)
		}
		n.toWire[t.Name] = name
		n.fromWire[name] = t.Name
	}
	return n
}

// wireName is the name a registered tool is offered under
func (n toolNames) wireName(name string) string {
	if w, ok := n.toWire[name]; ok {
		return w
	}
	return sanitizeToolName(name)
}

func (n toolNames) original(wire string) string {
	if name, ok := n.fromWire[wire]; ok {
		return name
	}
	return wire
}

// sanitizeToolName converts a tool name to the function-name charset chat APIs accept
func sanitizeToolName(name string) string {
	sanitized := make([]rune, 0, len(name))
	for _, r := range name {
		if r == '-' || r == ' ' || r == '.' {
			sanitized = append(sanitized, '_')
		} else {
			sanitized = append(sanitized, r)
		}
	}
	return string(sanitized)
}

// inputSchema renders an MCP tool schema as a JSON-Schema object
func inputSchema(tool mcp.Tool) map[string]interface{} {
	schema := map[string]interface{}{
		"type":       "object",
		"properties": tool.InputSchema.Properties,
	}
	if schema["properties"] == nil {
		schema["properties"] = map[string]interface{}{}
	}
	if len(tool.InputSchema.Required) > 0 {
		schema["required"] = tool.InputSchema.Required
	}
	return schema
}

// truncate shortens s to at most n bytes without splitting a UTF-8 sequence
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n] + "...[truncated]"
}
